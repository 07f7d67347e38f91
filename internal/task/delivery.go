package task

import "context"

// Delivery describes which attempt of a task is currently executing.
type Delivery struct {
	Attempt     int
	MaxAttempts int
}

// IsFinal reports whether a failure on this attempt dead-letters the task.
func (d Delivery) IsFinal() bool {
	return d.Attempt >= d.MaxAttempts
}

type deliveryKey struct{}

// WithDelivery returns a copy of ctx carrying d.
func WithDelivery(ctx context.Context, d Delivery) context.Context {
	return context.WithValue(ctx, deliveryKey{}, d)
}

// DeliveryFromContext returns the delivery stored in ctx. A context without
// one describes a single, final attempt.
func DeliveryFromContext(ctx context.Context) Delivery {
	if d, ok := ctx.Value(deliveryKey{}).(Delivery); ok {
		return d
	}
	return Delivery{Attempt: 1, MaxAttempts: 1}
}
