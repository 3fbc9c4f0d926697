package ingress

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/fisherhq/fisher/internal/dedup"
	"github.com/fisherhq/fisher/internal/events"
	"github.com/fisherhq/fisher/internal/observability"
	"github.com/fisherhq/fisher/internal/scheduler"
)

// Server wires the Adapter, the scheduler health endpoint, the Prometheus
// exposition endpoint and the live event feed into one http.Handler.
type Server struct {
	adapter       *Adapter
	sched         *scheduler.Scheduler
	hub           *events.Hub
	dedup         *dedup.Store
	healthEnabled bool
	trustProxy    bool
}

func NewServer(adapter *Adapter, sched *scheduler.Scheduler, hub *events.Hub, dd *dedup.Store, healthEnabled, trustProxy bool) *Server {
	return &Server{adapter: adapter, sched: sched, hub: hub, dedup: dd, healthEnabled: healthEnabled, trustProxy: trustProxy}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/hook/", s.handleHook)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	if s.hub != nil {
		mux.HandleFunc("/events", s.hub.ServeWS)
	}
	return mux
}

func (s *Server) handleHook(w http.ResponseWriter, r *http.Request) {
	name := HookNameFromPath(r.URL.Path)
	if name == "" {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	deliveryID := ""
	if s.dedup != nil {
		deliveryID = r.Header.Get("X-GitHub-Delivery")
	}
	if deliveryID != "" {
		if status, found := s.dedup.Seen(r.Context(), deliveryID); found {
			observability.RecordDedupHit()
			w.WriteHeader(status)
			return
		}
	}

	req := RequestFromHTTP(r, body, s.trustProxy)
	verdict := s.adapter.Trigger(name, req)
	status := verdictStatus(verdict)

	if deliveryID != "" {
		s.dedup.Remember(r.Context(), deliveryID, status)
	}

	w.WriteHeader(status)
}

func verdictStatus(v Verdict) int {
	switch v {
	case VerdictExecuted, VerdictPing:
		return http.StatusOK
	case VerdictInvalid:
		return http.StatusForbidden
	case VerdictUnknownScript:
		return http.StatusNotFound
	case VerdictLocked:
		return http.StatusServiceUnavailable
	default:
		log.Warn().Int("verdict", int(v)).Msg("unhandled ingress verdict")
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.healthEnabled {
		http.Error(w, "health endpoint disabled", http.StatusForbidden)
		return
	}
	h := s.sched.Health()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"queued": h.Queued,
		"busy":   h.Busy,
		"max":    h.Max,
	})
}
