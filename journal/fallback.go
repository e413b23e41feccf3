package journal

import (
	"context"
	"log"
)

// Fallback tries the primary sink and, when it fails, writes to the local
// sink instead. A degraded write never fails the trade path: the error is
// logged and swallowed, the record lands locally.
type Fallback struct {
	primary Recorder
	local   Recorder
}

// NewFallback builds the remote-then-local decorator. primary may be nil
// when no remote sink is configured; every record then goes straight to
// the local sink.
func NewFallback(primary, local Recorder) *Fallback {
	return &Fallback{primary: primary, local: local}
}

func (j *Fallback) Record(ctx context.Context, rec TradeRecord) error {
	if j.primary != nil {
		err := j.primary.Record(ctx, rec)
		if err == nil {
			return nil
		}
		log.Printf("journal: primary sink degraded, falling back to local: %v", err)
	}
	return j.local.Record(ctx, rec)
}

func (j *Fallback) Close() error {
	var first error
	if j.primary != nil {
		first = j.primary.Close()
	}
	if err := j.local.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
