package ports

import "context"

// Notifier receives the transient, toast-style notifications produced by cart
// mutations and checkout attempts. Implementations must be non-blocking and
// must never fail the operation that emitted the notification.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Success(context.Context, string) {}
func (NopNotifier) Error(context.Context, string)   {}
