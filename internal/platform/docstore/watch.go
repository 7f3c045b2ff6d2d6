package docstore

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Poll reads the current result of a live query
type Poll func(ctx context.Context) ([]Doc, error)

// WatchOptions tune the re-read loop behind a subscription
type WatchOptions struct {
	// Interval re-polls on a timer; 0 relies on Wake alone
	Interval time.Duration
	// Wake nudges an immediate re-poll
	Wake <-chan struct{}
	// OnStop runs once when the loop exits
	OnStop func()
}

// Watch runs poll until ctx ends or the subscription is cancelled and calls fn with
// the first result and with every result whose ids or versions differ from the last one
// fn runs on the watch goroutine and must not call Unsubscribe itself
func Watch(ctx context.Context, poll Poll, opt WatchOptions, fn func([]Doc, error)) Subscription {
	ctx, cancel := context.WithCancel(ctx)
	w := &watch{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(w.done)
		if opt.OnStop != nil {
			defer opt.OnStop()
		}
		var tick <-chan time.Time
		if opt.Interval > 0 {
			t := time.NewTicker(opt.Interval)
			defer t.Stop()
			tick = t.C
		}

		first := true
		var last, lastErr string
		for {
			docs, err := poll(ctx)
			if ctx.Err() != nil {
				return
			}
			switch {
			case err != nil:
				if msg := err.Error(); msg != lastErr {
					lastErr = msg
					fn(nil, err)
				}
			default:
				lastErr = ""
				if fp := Fingerprint(docs); first || fp != last {
					first, last = false, fp
					fn(docs, nil)
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-opt.Wake:
			case <-tick:
			}
		}
	}()
	return w
}

type watch struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Unsubscribe cancels the loop and waits for it, so nothing is delivered after it returns
func (w *watch) Unsubscribe() {
	w.once.Do(func() {
		w.cancel()
		<-w.done
	})
}

// Fingerprint identifies a result by its ids and versions in order
func Fingerprint(docs []Doc) string {
	var b strings.Builder
	for _, d := range docs {
		b.WriteString(d.Ref.ID)
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(d.Version, 10))
		b.WriteByte(';')
	}
	return b.String()
}
