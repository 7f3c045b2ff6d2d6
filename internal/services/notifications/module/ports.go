package module

import (
	"context"

	"popreel/internal/core/model"
	notifydom "popreel/internal/services/notifications/domain"
	notifysvc "popreel/internal/services/notifications/service"
)

// Ports is what notifications offers other modules
type Ports struct {
	Sink notifydom.Sink
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// adaptSink adapts the notifications service to the domain Sink
type adaptSink struct{ svc notifysvc.Service }

// Notify implements the domain Sink interface
func (a adaptSink) Notify(ctx context.Context, n model.Notification) error {
	return a.svc.Notify(ctx, n)
}
