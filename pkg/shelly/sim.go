package shelly

import (
	"context"
	"sync"
)

// SimAddress is the device address that selects a simulated cover.
const SimAddress = "sim"

// SimCover is an in-memory cover that reaches its target immediately.
// It lets the service run without hardware.
type SimCover struct {
	mu       sync.Mutex
	position int
	slat     int
	calls    []string
}

// NewSimCover creates a simulated cover at the given position.
func NewSimCover(position int) *SimCover {
	return &SimCover{position: position}
}

func (s *SimCover) GoToPosition(ctx context.Context, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = position
	s.calls = append(s.calls, "pos")
	return nil
}

func (s *SimCover) GoToSlatPosition(ctx context.Context, slat int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slat = slat
	s.calls = append(s.calls, "slat")
	return nil
}

func (s *SimCover) Status(ctx context.Context) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Status{
		State:      "stopped",
		PosControl: true,
		CurrentPos: s.position,
		SlatPos:    s.slat,
	}, nil
}

// Calls returns the movement calls received so far ("pos" or "slat").
func (s *SimCover) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
