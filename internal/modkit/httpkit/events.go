package httpkit

import (
	"context"
	"net/http"
	"time"

	"popreel/internal/platform/logger"
	phttp "popreel/internal/platform/net/http"
)

// Event is one server-sent event
type Event struct {
	Name string
	Data any
}

// KeepAlive is how often an idle event stream is pinged
var KeepAlive = 15 * time.Second

// ServeEvents runs watch and relays what it emits as server-sent events until the client leaves
// emits never block the watcher; a slow client skips to the newest event
func ServeEvents(w http.ResponseWriter, r *http.Request, watch func(ctx context.Context, emit func(Event)) (stop func(), err error)) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events := make(chan Event, 1)
	emit := func(e Event) {
		for {
			select {
			case events <- e:
				return
			case <-ctx.Done():
				return
			default:
			}
			select {
			case <-events:
			default:
			}
		}
	}

	stop, err := watch(ctx, emit)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	defer stop()

	stream, err := phttp.OpenStream(w)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("event stream not supported")
		return
	}
	tick := time.NewTicker(KeepAlive)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			if err := stream.Send(e.Name, e.Data); err != nil {
				return
			}
		case <-tick.C:
			if err := stream.Ping(); err != nil {
				return
			}
		}
	}
}
