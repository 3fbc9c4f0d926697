package scripts

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"regexp"

	"github.com/fisherhq/fisher/internal/ferrors"
	"github.com/fisherhq/fisher/internal/providers"
	"github.com/fisherhq/fisher/internal/requests"
)

var (
	preferencesHeaderRe = regexp.MustCompile(`^## Fisher: (.+)$`)
	providerHeaderRe    = regexp.MustCompile(`^## Fisher-(\w+): (.+)$`)
)

// Preferences are the optional per-script scheduling hints read from the
// `## Fisher: {...}` header line.
type Preferences struct {
	Priority int
	Parallel bool
}

func defaultPreferences() Preferences {
	return Preferences{Priority: 0, Parallel: true}
}

type preferencesJSON struct {
	Priority *int  `json:"priority"`
	Parallel *bool `json:"parallel"`
}

// Script is an immutable, loaded executable plus its parsed header
// metadata. Reloading the same file on disk produces a new Script with a
// new ID; old Scripts remain valid as long as any Job references them.
type Script struct {
	ID       ID
	Name     string
	Exec     string
	Priority int
	Parallel bool
	Provider []providers.Provider
}

// Validate classifies req against this script's providers. The first
// provider to return a non-Invalid verdict wins and is returned alongside
// the verdict. A script with no providers accepts every Web request as
// ExecuteHook with a nil provider.
func (s *Script) Validate(req *requests.Request) (requests.Kind, providers.Provider) {
	if len(s.Provider) == 0 {
		if req.IsStatus {
			return requests.KindInvalid, nil
		}
		return requests.KindExecuteHook, nil
	}

	for _, p := range s.Provider {
		if kind := p.Validate(req); kind.Valid() {
			return kind, p
		}
	}
	return requests.KindInvalid, nil
}

// loadHeaders parses headers from r (the script file opened for reading) and
// returns the Preferences and ordered Providers found before the first
// blank line. name is used only for error messages.
func loadHeaders(name string, r io.Reader) (Preferences, []providers.Provider, error) {
	prefs := defaultPreferences()
	var provs []providers.Provider

	scanner := bufio.NewScanner(r)
	line := 0
	sawPreferences := false

	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" {
			break
		}

		if m := preferencesHeaderRe.FindStringSubmatch(text); m != nil && !sawPreferences {
			sawPreferences = true
			var pj preferencesJSON
			if err := json.Unmarshal([]byte(m[1]), &pj); err != nil {
				return prefs, nil, ferrors.ScriptParsingError(name, line, err)
			}
			if pj.Priority != nil {
				prefs.Priority = *pj.Priority
			}
			if pj.Parallel != nil {
				prefs.Parallel = *pj.Parallel
			}
			continue
		}

		if m := providerHeaderRe.FindStringSubmatch(text); m != nil {
			provName, config := m[1], m[2]
			p, err := providers.New(provName, []byte(config))
			if err != nil {
				return prefs, nil, ferrors.ScriptParsingError(name, line, err)
			}
			provs = append(provs, p)
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return prefs, nil, ferrors.ScriptParsingError(name, line, err)
	}

	return prefs, provs, nil
}

// Load opens execPath and parses its headers, producing a fresh Script
// with a freshly-allocated ID. name is the human-readable identity (the
// path relative to the configured scripts root).
func Load(name, execPath string) (*Script, error) {
	f, err := os.Open(execPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	prefs, provs, err := loadHeaders(name, f)
	if err != nil {
		return nil, err
	}

	return &Script{
		ID:       nextID(),
		Name:     name,
		Exec:     execPath,
		Priority: prefs.Priority,
		Parallel: prefs.Parallel,
		Provider: provs,
	}, nil
}
