package providers

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/fisherhq/fisher/internal/requests"
)

// githubEvents is the closed set of GitHub webhook event names Fisher
// accepts, plus the always-accepted "ping".
var githubEvents = map[string]bool{
	"commit_comment": true, "create": true, "delete": true,
	"deployment": true, "deployment_status": true, "fork": true,
	"gollum": true, "issue_comment": true, "issues": true, "label": true,
	"member": true, "membership": true, "milestone": true,
	"organization": true, "page_build": true, "project_card": true,
	"project_column": true, "project": true, "public": true,
	"pull_request_review_comment": true, "pull_request_review": true,
	"pull_request": true, "push": true, "repository": true,
	"release": true, "status": true, "team": true, "team_add": true,
	"watch": true,
}

var githubHeaders = []string{"X-GitHub-Event", "X-Hub-Signature", "X-GitHub-Delivery"}

type githubConfig struct {
	Secret *string  `json:"secret"`
	Events []string `json:"events"`
}

// GitHub validates HMAC-signed GitHub webhook deliveries.
type GitHub struct {
	secret *string
	events map[string]bool
}

func newGitHub(raw []byte) (Provider, error) {
	var cfg githubConfig
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, invalidInput("github: " + err.Error())
		}
	}
	var allow map[string]bool
	if cfg.Events != nil {
		allow = make(map[string]bool, len(cfg.Events))
		for _, e := range cfg.Events {
			if !githubEvents[e] {
				return nil, invalidInput("github: not a GitHub event: " + e)
			}
			allow[e] = true
		}
	}
	return &GitHub{secret: cfg.Secret, events: allow}, nil
}

func (g *GitHub) Name() string { return "GitHub" }

func (g *GitHub) Validate(req *requests.Request) requests.Kind {
	if req.IsStatus {
		return requests.KindInvalid
	}
	for _, h := range githubHeaders {
		if _, ok := req.Headers[h]; !ok {
			return requests.KindInvalid
		}
	}

	if g.secret != nil {
		sig := req.Headers["X-Hub-Signature"]
		if !verifyGitHubSignature(sig, []byte(req.Body), *g.secret) {
			return requests.KindInvalid
		}
	}

	event := req.Headers["X-GitHub-Event"]
	if event != "ping" {
		if !githubEvents[event] {
			return requests.KindInvalid
		}
		if g.events != nil && !g.events[event] {
			return requests.KindInvalid
		}
	}

	if !json.Valid([]byte(req.Body)) {
		return requests.KindInvalid
	}

	if event == "ping" {
		return requests.KindPing
	}
	return requests.KindExecuteHook
}

func (g *GitHub) BuildEnv(req *requests.Request, workDir string) (map[string]string, error) {
	return map[string]string{
		"EVENT":       req.Headers["X-GitHub-Event"],
		"DELIVERY_ID": req.Headers["X-GitHub-Delivery"],
	}, nil
}

func (g *GitHub) TriggerStatusHooks() bool { return true }

func verifyGitHubSignature(header string, body []byte, secret string) bool {
	const prefix = "sha1="
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	decoded, err := hex.DecodeString(header[len(prefix):])
	if err != nil {
		return false
	}

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	return len(decoded) == len(expected) && subtle.ConstantTimeCompare(decoded, expected) == 1
}
