package handlers

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/redis"
)

// EventSource is the change feed the storefront listens to.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan redis.Event, func() error, error)
}

type EventsHandler struct {
	source    EventSource
	heartbeat time.Duration
}

func NewEventsHandler(source EventSource, heartbeat time.Duration) *EventsHandler {
	return &EventsHandler{source: source, heartbeat: heartbeat}
}

// Stream relays change events as server-sent events until the client leaves.
// Each event is named after its collection so clients refetch only what
// changed.
func (h *EventsHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	events, unsubscribe, err := h.source.Subscribe(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	defer func() {
		if err := unsubscribe(); err != nil {
			logrus.WithError(err).Debug("failed to close event subscription")
		}
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.SSEvent("ready", gin.H{"at": time.Now()})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case evt, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(evt.Collection, evt)
			return true
		case t := <-ticker.C:
			c.SSEvent("ping", t.Unix())
			return true
		}
	})
}
