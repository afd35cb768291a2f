package server

import (
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

const sseHeartbeatInterval = 25 * time.Second

// handleArtworkEvents streams an auction room over server-sent events.
// The subscriber first receives the retained backlog, then live events
// until the client disconnects.
func (s *Server) handleArtworkEvents(c *gin.Context) {
	artworkID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, fmt.Errorf("%w: id must be a valid id", ErrInvalidRequest))
		return
	}
	if _, err := s.artworkSvc.GetByID(c.Request.Context(), artworkID); err != nil {
		AbortWithError(c, err)
		return
	}

	sub, backlog, err := s.hub.Subscribe(artworkID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	for _, event := range backlog {
		c.SSEvent(event.Name, event)
	}
	c.Writer.Flush()

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case event, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(event.Name, event)
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", gin.H{"ts": time.Now().UTC().Format(time.RFC3339)})
			return true
		}
	})
}
