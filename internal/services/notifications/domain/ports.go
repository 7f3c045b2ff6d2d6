package domain

import (
	"context"

	"popreel/internal/core/model"
)

// Sink is what other services call to notify a user; failures there are best effort
type Sink interface {
	Notify(ctx context.Context, n model.Notification) error
}

// ServicePort defines the service contract for notifications
type ServicePort interface {
	Sink
	List(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}
