package providers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fisherhq/fisher/internal/requests"
)

type statusConfig struct {
	Events  []string `json:"events"`
	Scripts []string `json:"scripts"`
}

// Status accepts only synthetic Status requests produced by the scheduler's
// cascade step. It never itself triggers a further cascade, preventing
// cascades of cascades.
type Status struct {
	events  map[requests.StatusEventKind]bool
	scripts map[string]bool
}

func newStatus(raw []byte) (Provider, error) {
	var cfg statusConfig
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, invalidInput("status: " + err.Error())
		}
	}
	if len(cfg.Events) == 0 {
		return nil, invalidInput("status: events is required")
	}

	events := make(map[requests.StatusEventKind]bool, len(cfg.Events))
	for _, e := range cfg.Events {
		kind, ok := requests.StatusEventKindFromString(e)
		if !ok {
			return nil, invalidInput("status: not a status event: " + e)
		}
		events[kind] = true
	}

	var scripts map[string]bool
	if cfg.Scripts != nil {
		scripts = make(map[string]bool, len(cfg.Scripts))
		for _, s := range cfg.Scripts {
			scripts[s] = true
		}
	}

	return &Status{events: events, scripts: scripts}, nil
}

func (s *Status) Name() string { return "Status" }

// ScriptAllowed reports whether this provider accepts status events
// originating from the named script, used by the repository's cascade
// query before it even constructs a Request.
func (s *Status) ScriptAllowed(name string) bool {
	if s.scripts == nil {
		return true
	}
	return s.scripts[name]
}

// EventAllowed reports whether this provider subscribes to kind.
func (s *Status) EventAllowed(kind requests.StatusEventKind) bool {
	return s.events[kind]
}

func (s *Status) Validate(req *requests.Request) requests.Kind {
	if !req.IsStatus {
		return requests.KindInvalid
	}
	if !s.EventAllowed(req.StatusKind) {
		return requests.KindInvalid
	}
	if req.StatusOutput != nil && !s.ScriptAllowed(req.StatusOutput.ScriptName) {
		return requests.KindInvalid
	}
	return requests.KindExecuteHook
}

func (s *Status) BuildEnv(req *requests.Request, workDir string) (map[string]string, error) {
	out := req.StatusOutput
	env := map[string]string{
		"EVENT":       req.StatusKind.String(),
		"SCRIPT_NAME": out.ScriptName,
		"SUCCESS":     boolEnv(out.Success),
		"EXIT_CODE":   intPtrEnv(out.ExitCode),
		"SIGNAL":      intPtrEnv(out.Signal),
	}

	stdoutPath := filepath.Join(workDir, "status-stdout")
	stderrPath := filepath.Join(workDir, "status-stderr")
	if err := os.WriteFile(stdoutPath, out.Stdout, 0o600); err != nil {
		return nil, err
	}
	if err := os.WriteFile(stderrPath, out.Stderr, 0o600); err != nil {
		return nil, err
	}
	env["STDOUT"] = stdoutPath
	env["STDERR"] = stderrPath

	return env, nil
}

func (s *Status) TriggerStatusHooks() bool { return false }

func boolEnv(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func intPtrEnv(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
