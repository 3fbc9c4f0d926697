// Package providers implements the closed set of request-validation
// strategies a Script can attach to itself: Standalone, GitHub, GitLab and
// Status. Each is a distinct Go type satisfying the same Provider
// interface; there is deliberately no open registration mechanism.
package providers

import "github.com/fisherhq/fisher/internal/requests"

// Provider is the capability contract every variant implements.
type Provider interface {
	// Name is the provider tag used for FISHER_<NAME>_<KEY> env namespacing
	// and for provider-construction error messages, e.g. "GitHub".
	Name() string

	// Validate classifies a request against this provider's rules.
	Validate(req *requests.Request) requests.Kind

	// BuildEnv returns the environment contribution for an accepted
	// request. workDir is the job's temporary working directory, in case
	// the provider needs to materialize data files there (Status does).
	BuildEnv(req *requests.Request, workDir string) (map[string]string, error)

	// TriggerStatusHooks reports whether a job validated by this provider
	// should, on completion, cause the scheduler to synthesize a status
	// cascade. Status itself always answers false to prevent cascades of
	// cascades.
	TriggerStatusHooks() bool
}

// New instantiates the provider named by header, decoding config (the raw
// JSON value following the `## Fisher-<Name>:` header) into it. Unknown
// names fail with ferrors.ProviderNotFound.
func New(name string, config []byte) (Provider, error) {
	switch name {
	case "Standalone":
		return newStandalone(config)
	case "GitHub":
		return newGitHub(config)
	case "GitLab":
		return newGitLab(config)
	case "Status":
		return newStatus(config)
	default:
		return nil, providerNotFound(name)
	}
}
