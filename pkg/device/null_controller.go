package device

import "context"

// NullController is a no-op controller used when no actors are configured.
// It allows the API to run in limited mode.
type NullController struct{}

// NewNullController creates a new NullController.
func NewNullController() *NullController {
	return &NullController{}
}

func (c *NullController) ListActors(ctx context.Context) ([]ActorStatus, error) {
	return []ActorStatus{}, nil
}

func (c *NullController) GetActor(ctx context.Context, name string) (*ActorStatus, error) {
	return nil, ErrNotFound
}

func (c *NullController) Apply(ctx context.Context, cmd Command) (int, error) {
	return 0, ErrNotConnected
}

func (c *NullController) IsConnected() bool {
	return false
}

func (c *NullController) Close() {}

// NullEventSubscriber is a no-op event subscriber paired with NullController.
type NullEventSubscriber struct{}

// NewNullEventSubscriber creates a new NullEventSubscriber.
func NewNullEventSubscriber() *NullEventSubscriber {
	return &NullEventSubscriber{}
}

func (s *NullEventSubscriber) Subscribe() chan StateEvent {
	// Channel is never sent to; callers should check IsConnected() on the controller
	return make(chan StateEvent)
}

func (s *NullEventSubscriber) Unsubscribe(ch chan StateEvent) {
	close(ch)
}
