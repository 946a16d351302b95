package reconciler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Arjun-745/TrendKart/utils"
)

// dedupWindow is how long an identical (ref, status) pair is considered a
// duplicate. Carriers typically re-deliver within minutes.
const dedupWindow = 10 * time.Minute

// Dedup is an advisory duplicate filter over redis. It only saves work and
// log noise: correctness against duplicates comes from state-machine no-ops,
// so any redis failure degrades to "process it anyway".
type Dedup struct {
	client *redis.Client
}

// NewDedup builds a dedup filter on the given redis address.
func NewDedup(addr string) *Dedup {
	return &Dedup{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Seen records the event and reports whether the same (ref, status) pair was
// already seen inside the window. Errors are treated as "not seen".
func (d *Dedup) Seen(ctx context.Context, ref, rawStatus string) bool {
	set, err := d.client.SetNX(ctx, dedupKey(ref, rawStatus), time.Now().Unix(), dedupWindow).Result()
	if err != nil {
		utils.LogDebug("Webhook dedup unavailable (%v), processing event", err)
		return false
	}
	return !set
}

// Forget releases the dedup record so the carrier's retry of a failed
// delivery is processed instead of dropped as a duplicate.
func (d *Dedup) Forget(ctx context.Context, ref, rawStatus string) {
	if err := d.client.Del(ctx, dedupKey(ref, rawStatus)).Err(); err != nil {
		utils.LogDebug("Webhook dedup release failed for %s %q: %v", ref, rawStatus, err)
	}
}

func dedupKey(ref, rawStatus string) string {
	return fmt.Sprintf("webhook:%s:%s", ref, strings.ToUpper(strings.TrimSpace(rawStatus)))
}
