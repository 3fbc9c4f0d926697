// Package dedup guards against at-least-once webhook redelivery. GitHub
// (and GitLab) retry a delivery that times out before it sees a response,
// and the canonical GitHub provider already surfaces a DELIVERY_ID for
// exactly this reason; this package remembers recently-seen delivery IDs
// so a retried delivery gets the same response the first one got, without
// re-submitting the job. It is strictly an ingress-layer optimization: it
// never touches scheduler state, and is disabled (every delivery treated
// as new) when no Redis address is configured.
package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Store remembers the HTTP status a delivery ID previously received.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to addr. An empty addr yields a nil, disabled Store.
func New(addr string, ttl time.Duration) (*Store, error) {
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Store{client: client, ttl: ttl}, nil
}

// Seen reports the status code a prior delivery with this ID received, if
// any. Redis errors are treated as "not seen" rather than surfaced,
// since falling open (re-running the job) is safer than falling closed
// (silently dropping a legitimate new delivery).
func (s *Store) Seen(ctx context.Context, deliveryID string) (status int, found bool) {
	if s == nil {
		return 0, false
	}

	val, err := s.client.Get(ctx, key(deliveryID)).Int()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("delivery_id", deliveryID).Msg("dedup lookup failed")
		}
		return 0, false
	}
	return val, true
}

// Remember records the status this delivery ID resolved to.
func (s *Store) Remember(ctx context.Context, deliveryID string, status int) {
	if s == nil {
		return
	}
	if err := s.client.Set(ctx, key(deliveryID), status, s.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("delivery_id", deliveryID).Msg("dedup store failed")
	}
}

func key(deliveryID string) string {
	return "fisher:delivery:" + deliveryID
}
