package scripts

import (
	"os"
	"path/filepath"
)

// Collect walks root and loads every candidate script it finds. A
// candidate is a regular file with at least one executable bit and at
// least one read bit set. Subdirectories are only descended into when
// recursive is true; the script's Name is its path relative to root. A
// single load error aborts the whole collection, matching the
// all-or-nothing reload contract in the repository above it.
func Collect(root string, recursive bool) ([]*Script, error) {
	var out []*Script
	err := collectDir(root, "", recursive, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func collectDir(root, prefix string, recursive bool, out *[]*Script) error {
	entries, err := os.ReadDir(filepath.Join(root, prefix))
	if err != nil {
		return err
	}

	for _, entry := range entries {
		relPath := filepath.Join(prefix, entry.Name())
		fullPath := filepath.Join(root, relPath)

		if entry.IsDir() {
			if recursive {
				if err := collectDir(root, relPath, recursive, out); err != nil {
					return err
				}
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		if !isCollectable(info.Mode()) {
			continue
		}

		script, err := Load(relPath, fullPath)
		if err != nil {
			return err
		}
		*out = append(*out, script)
	}

	return nil
}

func isCollectable(mode os.FileMode) bool {
	if !mode.IsRegular() {
		return false
	}
	const executableBits = 0o111
	const readableBits = 0o444
	return mode.Perm()&executableBits != 0 && mode.Perm()&readableBits != 0
}
