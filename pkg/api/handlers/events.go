package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/shadepanel/pkg/device"
)

// EventActors is the SSE event carrying the full actor list.
const EventActors = "actors"

// Hub fans the actor list out to live-state subscribers.
type Hub struct {
	controller device.Controller
	ctx        context.Context
	cancel     context.CancelFunc

	mu      sync.Mutex
	clients map[chan []device.ActorStatus]struct{}
	delayed map[*time.Timer]struct{}
}

// NewHub creates a hub reading snapshots from controller.
func NewHub(controller device.Controller) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		controller: controller,
		ctx:        ctx,
		cancel:     cancel,
		clients:    make(map[chan []device.ActorStatus]struct{}),
		delayed:    make(map[*time.Timer]struct{}),
	}
}

// Close stops delayed broadcasts. Later calls to BroadcastAfter do nothing.
func (h *Hub) Close() {
	h.cancel()
	h.mu.Lock()
	defer h.mu.Unlock()
	for t := range h.delayed {
		t.Stop()
		delete(h.delayed, t)
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add() chan []device.ActorStatus {
	ch := make(chan []device.ActorStatus, 10)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) remove(ch chan []device.ActorStatus) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// Broadcast sends the current actor list to every subscriber. Slow
// subscribers miss the update.
func (h *Hub) Broadcast(ctx context.Context) {
	actors, err := h.snapshot(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list actors for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- actors:
		default:
			log.Warn().Msg("Client channel is full, skipping update")
		}
	}
}

// BroadcastAfter broadcasts once d has passed, unless the hub is closed first.
func (h *Hub) BroadcastAfter(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx.Err() != nil {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		h.mu.Lock()
		delete(h.delayed, t)
		h.mu.Unlock()
		if h.ctx.Err() != nil {
			return
		}
		h.Broadcast(h.ctx)
	})
	h.delayed[t] = struct{}{}
}

// Run broadcasts on every state event from subscriber and every interval
// until ctx is done, then closes the hub.
func (h *Hub) Run(ctx context.Context, subscriber device.EventSubscriber, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	defer h.Close()
	events := subscriber.Subscribe()
	defer subscriber.Unsubscribe(events)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			log.Debug().Str("actor", ev.ActorName).Int("position", ev.Position).Msg("Position changed")
			h.Broadcast(ctx)
		case <-ticker.C:
			h.Broadcast(ctx)
		}
	}
}

func (h *Hub) snapshot(ctx context.Context) ([]device.ActorStatus, error) {
	actors, err := h.controller.ListActors(ctx)
	if err != nil {
		return nil, err
	}
	if actors == nil {
		actors = []device.ActorStatus{}
	}
	return actors, nil
}

// EventsHandler serves the live-state stream
type EventsHandler struct {
	hub       *Hub
	heartbeat time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *Hub) *EventsHandler {
	return &EventsHandler{hub: hub, heartbeat: 30 * time.Second}
}

// Events handles GET /api/events (SSE stream)
// @Summary      Subscribe to actor state
// @Description  Server-Sent Events stream. Every "actors" event carries the full actor list; one is sent on connect, after each position change, after commands and every poll interval.
// @Tags         events
// @Produce      text/event-stream
// @Success      200  {string}  string  "SSE event stream"
// @Router       /events [get]
func (h *EventsHandler) Events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	updates := h.hub.add()
	defer h.hub.remove(updates)

	log.Info().Str("client_ip", c.ClientIP()).Int("clients", h.hub.Clients()).Msg("SSE client connected")
	defer log.Info().Str("client_ip", c.ClientIP()).Msg("SSE client disconnected")

	actors, err := h.hub.snapshot(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list actors for new client")
		actors = []device.ActorStatus{}
	}
	c.SSEvent(EventActors, actors)
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case actors := <-updates:
			c.SSEvent(EventActors, actors)
			c.Writer.Flush()

		case <-ticker.C:
			c.SSEvent("heartbeat", gin.H{"timestamp": time.Now()})
			c.Writer.Flush()
		}
	}
}
