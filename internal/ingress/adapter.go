// Package ingress translates external HTTP requests into jobs and submits
// them to the scheduler, and exposes the thin health/metrics/events
// surface described as an external collaborator.
package ingress

import (
	"net"
	"net/http"
	"strings"

	"github.com/fisherhq/fisher/internal/jobs"
	"github.com/fisherhq/fisher/internal/requests"
	"github.com/fisherhq/fisher/internal/scheduler"
	"github.com/fisherhq/fisher/internal/scripts"
)

// Verdict is the outcome the Adapter reaches for one inbound trigger.
type Verdict int

const (
	VerdictInvalid Verdict = iota
	VerdictUnknownScript
	VerdictLocked
	VerdictPing
	VerdictExecuted
)

// Adapter resolves a hook name against the repository, validates the
// request against the resolved script's providers, and submits a Job at
// the script's declared priority.
type Adapter struct {
	repo *scripts.Repository
	sched *scheduler.Scheduler
}

func NewAdapter(repo *scripts.Repository, sched *scheduler.Scheduler) *Adapter {
	return &Adapter{repo: repo, sched: sched}
}

// Trigger resolves hookName and submits a job if the request validates.
func (a *Adapter) Trigger(hookName string, req *requests.Request) Verdict {
	if a.sched.IsLocked() {
		return VerdictLocked
	}

	script, ok := a.repo.ByName(hookName)
	if !ok {
		return VerdictUnknownScript
	}

	kind, provider := script.Validate(req)
	switch kind {
	case requests.KindInvalid:
		return VerdictInvalid
	case requests.KindPing:
		return VerdictPing
	case requests.KindExecuteHook:
		job := jobs.NewJob(script, provider, req)
		a.sched.Submit(job, script.Priority)
		return VerdictExecuted
	default:
		return VerdictInvalid
	}
}

// RequestFromHTTP adapts an *http.Request into a Web Request, pulling the
// source IP, headers, query parameters and body. When trustProxy is true,
// the source IP is taken from the left-most address in X-Forwarded-For
// (the original client, per the conventional append-on-the-right proxy
// chain) instead of the raw TCP peer address, for deployments that sit
// behind a reverse proxy; untrusted deployments should leave it false, as
// the header is trivially spoofable by a direct caller otherwise.
func RequestFromHTTP(r *http.Request, body []byte, trustProxy bool) *requests.Request {
	host := sourceHost(r, trustProxy)

	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	query := r.URL.Query()
	params := make(map[string]string, len(query))
	for k, v := range query {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	return requests.NewWeb(net.ParseIP(host), headers, params, string(body))
}

// sourceHost extracts the request's source address as a bare host (no
// port), consulting X-Forwarded-For when trustProxy is set.
func sourceHost(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			client := strings.TrimSpace(strings.Split(fwd, ",")[0])
			if client != "" {
				return client
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// HookNameFromPath extracts the hook name from a /hook/<name> path, where
// <name> may itself contain slashes.
func HookNameFromPath(path string) string {
	const prefix = "/hook/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	return strings.TrimPrefix(path, prefix)
}
