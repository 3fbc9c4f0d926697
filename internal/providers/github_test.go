package providers

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/fisherhq/fisher/internal/requests"
)

func signedHeader(secret, body string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestGitHubValidateRequiresHeaders(t *testing.T) {
	p, err := New("GitHub", nil)
	if err != nil {
		t.Fatal(err)
	}
	req := &requests.Request{Headers: map[string]string{}}
	if kind := p.Validate(req); kind != requests.KindInvalid {
		t.Fatalf("expected invalid without required headers, got %v", kind)
	}
}

func TestGitHubValidateAcceptsPing(t *testing.T) {
	p, err := New("GitHub", nil)
	if err != nil {
		t.Fatal(err)
	}
	req := &requests.Request{
		Headers: map[string]string{
			"X-GitHub-Event":     "ping",
			"X-Hub-Signature":    "",
			"X-GitHub-Delivery":  "abc-123",
		},
		Body: "{}",
	}
	if kind := p.Validate(req); kind != requests.KindPing {
		t.Fatalf("expected ping, got %v", kind)
	}
}

func TestGitHubValidateChecksSignature(t *testing.T) {
	secret := "s3kr3t"
	cfg, _ := json.Marshal(map[string]any{"secret": secret})
	p, err := New("GitHub", cfg)
	if err != nil {
		t.Fatal(err)
	}

	body := `{"ref":"refs/heads/main"}`
	headers := map[string]string{
		"X-GitHub-Event":    "push",
		"X-GitHub-Delivery": "abc-123",
	}

	bad := &requests.Request{Headers: mergeHeader(headers, "X-Hub-Signature", "sha1=deadbeef"), Body: body}
	if kind := p.Validate(bad); kind != requests.KindInvalid {
		t.Fatalf("expected invalid signature to be rejected, got %v", kind)
	}

	good := &requests.Request{Headers: mergeHeader(headers, "X-Hub-Signature", signedHeader(secret, body)), Body: body}
	if kind := p.Validate(good); kind != requests.KindExecuteHook {
		t.Fatalf("expected valid signature to execute, got %v", kind)
	}
}

func TestGitHubValidateRejectsUnknownEvent(t *testing.T) {
	p, err := New("GitHub", nil)
	if err != nil {
		t.Fatal(err)
	}
	req := &requests.Request{
		Headers: map[string]string{
			"X-GitHub-Event":    "not_a_real_event",
			"X-Hub-Signature":   "",
			"X-GitHub-Delivery": "abc-123",
		},
		Body: "{}",
	}
	if kind := p.Validate(req); kind != requests.KindInvalid {
		t.Fatalf("expected unknown event rejected, got %v", kind)
	}
}

func TestGitHubValidateRejectsEventNotInAllowlist(t *testing.T) {
	cfg, _ := json.Marshal(map[string]any{"events": []string{"push"}})
	p, err := New("GitHub", cfg)
	if err != nil {
		t.Fatal(err)
	}
	req := &requests.Request{
		Headers: map[string]string{
			"X-GitHub-Event":    "issues",
			"X-Hub-Signature":   "",
			"X-GitHub-Delivery": "abc-123",
		},
		Body: "{}",
	}
	if kind := p.Validate(req); kind != requests.KindInvalid {
		t.Fatalf("expected event outside allowlist rejected, got %v", kind)
	}
}

func TestNewGitHubRejectsUnknownConfiguredEvent(t *testing.T) {
	cfg, _ := json.Marshal(map[string]any{"events": []string{"not_a_real_event"}})
	if _, err := New("GitHub", cfg); err == nil {
		t.Fatal("expected construction to fail for an unknown configured event")
	}
}

func mergeHeader(base map[string]string, k, v string) map[string]string {
	out := make(map[string]string, len(base)+1)
	for key, val := range base {
		out[key] = val
	}
	out[k] = v
	return out
}
