package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/shadepanel/pkg/device"
)

// EventActors is the SSE event name carrying the full actor list.
const EventActors = "actors"

// Subscribe follows GET /api/events and delivers every actor list the
// service pushes. The stream is re-opened with exponential backoff when it
// drops. Only the latest undelivered list is kept. The channel is closed
// when ctx ends.
func (c *Client) Subscribe(ctx context.Context) <-chan []device.ActorStatus {
	out := make(chan []device.ActorStatus, 1)

	go func() {
		defer close(out)
		delay := c.backoff
		for {
			received, err := c.follow(ctx, out)
			c.setConnected(false)
			if ctx.Err() != nil {
				return
			}
			if received {
				delay = c.backoff
			}
			log.Warn().Err(err).Dur("retry_in", delay).Msg("Event stream lost")

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxBackoff {
				delay = c.maxBackoff
			}
		}
	}()

	return out
}

// follow reads one connection until it ends. It reports whether at least
// one actor list was delivered.
func (c *Client) follow(ctx context.Context, out chan []device.ActorStatus) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/events", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	c.setConnected(true)
	log.Info().Str("url", req.URL.String()).Msg("Event stream connected")

	received := false
	reader := bufio.NewReader(resp.Body)
	var block strings.Builder
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return received, err
		}

		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			block.WriteString(line)
			block.WriteByte('\n')
			continue
		}
		if block.Len() == 0 {
			continue
		}

		actors, err := decodeActors(block.String())
		block.Reset()
		if err != nil {
			log.Warn().Err(err).Msg("Skipping malformed event")
			continue
		}
		if actors == nil {
			continue
		}
		deliverLatest(out, actors)
		received = true
	}
}

// decodeActors parses one event block. Events other than actor lists
// yield nil.
func decodeActors(block string) ([]device.ActorStatus, error) {
	events, err := sse.Decode(strings.NewReader(block + "\n"))
	if err != nil {
		return nil, err
	}

	var actors []device.ActorStatus
	for _, ev := range events {
		if ev.Event != EventActors && ev.Event != "message" {
			continue
		}
		data, ok := ev.Data.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected event payload %T", ev.Data)
		}
		var list []device.ActorStatus
		if err := json.Unmarshal([]byte(data), &list); err != nil {
			return nil, fmt.Errorf("failed to decode actor list: %w", err)
		}
		if list == nil {
			list = []device.ActorStatus{}
		}
		actors = list
	}
	return actors, nil
}

func deliverLatest(out chan []device.ActorStatus, actors []device.ActorStatus) {
	select {
	case out <- actors:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	out <- actors
}

func (c *Client) setConnected(up bool) {
	if c.onConn != nil {
		c.onConn(up)
	}
}
