package device

import "context"

// Controller defines the interface for driving shading actors.
// The API works against this abstraction so the Shelly driver can be
// replaced by a null controller when no devices are configured.
type Controller interface {
	// ListActors returns a snapshot of all actors
	ListActors(ctx context.Context) ([]ActorStatus, error)

	// GetActor returns a single actor by name (case-insensitive)
	GetActor(ctx context.Context, name string) (*ActorStatus, error)

	// Apply dispatches a command and returns the number of actors addressed.
	// Movement continues in the background after Apply returns.
	Apply(ctx context.Context, cmd Command) (int, error)

	// IsConnected returns true if the controller can reach its actors
	IsConnected() bool

	// Close stops background work
	Close()
}

// EventSubscriber defines the interface for subscribing to actor state changes
type EventSubscriber interface {
	// Subscribe returns a channel that receives state events
	Subscribe() chan StateEvent

	// Unsubscribe removes a subscription
	Unsubscribe(ch chan StateEvent)
}
