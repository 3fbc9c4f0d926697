package providers

import (
	"encoding/json"
	"net"

	"github.com/fisherhq/fisher/internal/requests"
)

type standaloneConfig struct {
	Secret     *string  `json:"secret"`
	From       []string `json:"from"`
	ParamName  *string  `json:"param_name"`
	HeaderName *string  `json:"header_name"`
}

// Standalone validates a shared secret and/or a source-IP allowlist; it
// contributes nothing to the job environment.
type Standalone struct {
	secret     *string
	from       []net.IP
	paramName  string
	headerName string
}

func newStandalone(raw []byte) (Provider, error) {
	var cfg standaloneConfig
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, invalidInput("standalone: " + err.Error())
		}
	}

	s := &Standalone{
		secret:     cfg.Secret,
		paramName:  "secret",
		headerName: "X-Fisher-Secret",
	}
	if cfg.ParamName != nil {
		s.paramName = *cfg.ParamName
	}
	if cfg.HeaderName != nil {
		s.headerName = *cfg.HeaderName
	}
	for _, raw := range cfg.From {
		ip := net.ParseIP(raw)
		if ip == nil {
			return nil, invalidInput("standalone: invalid IP in from list: " + raw)
		}
		s.from = append(s.from, ip)
	}
	return s, nil
}

func (s *Standalone) Name() string { return "Standalone" }

func (s *Standalone) Validate(req *requests.Request) requests.Kind {
	if req.IsStatus {
		return requests.KindInvalid
	}

	if s.secret != nil {
		got, ok := req.Params[s.paramName]
		if !ok {
			got, ok = req.Headers[s.headerName]
		}
		if !ok || got != *s.secret {
			return requests.KindInvalid
		}
	}

	if len(s.from) > 0 {
		if req.Source == nil || !ipAllowed(req.Source, s.from) {
			return requests.KindInvalid
		}
	}

	return requests.KindExecuteHook
}

func (s *Standalone) BuildEnv(req *requests.Request, workDir string) (map[string]string, error) {
	return nil, nil
}

func (s *Standalone) TriggerStatusHooks() bool { return true }

func ipAllowed(ip net.IP, allow []net.IP) bool {
	for _, a := range allow {
		if a.Equal(ip) {
			return true
		}
	}
	return false
}
