package providers

import (
	"encoding/json"
	"strings"

	"github.com/fisherhq/fisher/internal/requests"
)

var gitlabEvents = map[string]bool{
	"Push": true, "Tag Push": true, "Issue": true, "Note": true,
	"Merge Request": true, "Wiki Page": true, "Build": true,
	"Pipeline": true, "Confidential Issue": true,
}

type gitlabConfig struct {
	Secret *string  `json:"secret"`
	Events []string `json:"events"`
}

// GitLab validates GitLab webhook deliveries. Unlike GitHub, GitLab has no
// ping concept and its event header carries a trailing " Hook" suffix that
// must be stripped before matching against the allowlist.
type GitLab struct {
	secret *string
	events map[string]bool
}

func newGitLab(raw []byte) (Provider, error) {
	var cfg gitlabConfig
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, invalidInput("gitlab: " + err.Error())
		}
	}
	var allow map[string]bool
	if cfg.Events != nil {
		allow = make(map[string]bool, len(cfg.Events))
		for _, e := range cfg.Events {
			if !gitlabEvents[e] {
				return nil, invalidInput("gitlab: not a GitLab event: " + e)
			}
			allow[e] = true
		}
	}
	return &GitLab{secret: cfg.Secret, events: allow}, nil
}

func (g *GitLab) Name() string { return "GitLab" }

func (g *GitLab) Validate(req *requests.Request) requests.Kind {
	if req.IsStatus {
		return requests.KindInvalid
	}
	header, ok := req.Headers["X-Gitlab-Event"]
	if !ok {
		return requests.KindInvalid
	}

	if g.secret != nil {
		token, ok := req.Headers["X-Gitlab-Token"]
		if !ok || token != *g.secret {
			return requests.KindInvalid
		}
	}

	event := normalizeGitLabEvent(header)
	if !gitlabEvents[event] {
		return requests.KindInvalid
	}
	if g.events != nil && !g.events[event] {
		return requests.KindInvalid
	}

	if !json.Valid([]byte(req.Body)) {
		return requests.KindInvalid
	}

	return requests.KindExecuteHook
}

func (g *GitLab) BuildEnv(req *requests.Request, workDir string) (map[string]string, error) {
	return map[string]string{
		"EVENT": normalizeGitLabEvent(req.Headers["X-Gitlab-Event"]),
	}, nil
}

func (g *GitLab) TriggerStatusHooks() bool { return true }

func normalizeGitLabEvent(name string) string {
	return strings.TrimSuffix(name, " Hook")
}
