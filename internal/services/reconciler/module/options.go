package module

import (
	"time"

	"popreel/internal/platform/config"
)

// Options for the reconciler module
type Options struct {
	Batch        int
	Workers      int
	Interval     time.Duration
	Repair       bool
	EnableLeases bool
	LeaseTTL     time.Duration
}

// FromConfig fills options from environment
// RECONCILER_BATCH (default 200) is how many log entries one pass takes
// RECONCILER_WORKERS (default 4) bounds concurrent video audits
// RECONCILER_INTERVAL (default 30s) is the pause between passes
// RECONCILER_REPAIR (default true) corrects drifted like counters instead of only logging them
// RECONCILER_LEASES (default true) lets only one worker run a pass at a time
func FromConfig(cfg config.Conf) Options {
	n := cfg.Prefix("RECONCILER_")
	return Options{
		Batch:        n.MayInt("BATCH", 200),
		Workers:      n.MayInt("WORKERS", 4),
		Interval:     n.MayDuration("INTERVAL", 30*time.Second),
		Repair:       n.MayBool("REPAIR", true),
		EnableLeases: n.MayBool("LEASES", true),
		LeaseTTL:     n.MayDuration("LEASE_TTL", 2*time.Minute),
	}
}
