package ingress

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerdictStatusMapping(t *testing.T) {
	cases := []struct {
		v    Verdict
		want int
	}{
		{VerdictExecuted, http.StatusOK},
		{VerdictPing, http.StatusOK},
		{VerdictInvalid, http.StatusForbidden},
		{VerdictUnknownScript, http.StatusNotFound},
		{VerdictLocked, http.StatusServiceUnavailable},
	}
	for _, c := range cases {
		if got := verdictStatus(c.v); got != c.want {
			t.Errorf("verdictStatus(%v) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestHookNameFromPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/hook/deploy", "deploy"},
		{"/hook/nested/name", "nested/name"},
		{"/hook/", ""},
		{"/other", ""},
	}
	for _, c := range cases {
		if got := HookNameFromPath(c.path); got != c.want {
			t.Errorf("HookNameFromPath(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

func TestRequestFromHTTPUsesRemoteAddrByDefault(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/hook/deploy", nil)
	r.RemoteAddr = "198.51.100.7:54321"
	r.Header.Set("X-Forwarded-For", "203.0.113.9")

	req := RequestFromHTTP(r, nil, false)
	if req.Source.String() != "198.51.100.7" {
		t.Fatalf("expected RemoteAddr to win when trustProxy is false, got %v", req.Source)
	}
}

func TestRequestFromHTTPTrustsForwardedForWhenEnabled(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/hook/deploy", nil)
	r.RemoteAddr = "198.51.100.7:54321"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.7")

	req := RequestFromHTTP(r, nil, true)
	if req.Source.String() != "203.0.113.9" {
		t.Fatalf("expected left-most X-Forwarded-For entry, got %v", req.Source)
	}
}

func TestRequestFromHTTPFallsBackWithoutForwardedHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/hook/deploy", nil)
	r.RemoteAddr = "198.51.100.7:54321"

	req := RequestFromHTTP(r, nil, true)
	if req.Source.String() != "198.51.100.7" {
		t.Fatalf("expected RemoteAddr fallback when no forwarded header present, got %v", req.Source)
	}
}
