package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/spindle/internal/logger"
)

// heartbeatInterval keeps idle event streams open through proxies.
const heartbeatInterval = 15 * time.Second

// events streams the dashboard as server-sent events. A "dashboard" event
// is sent on connect and whenever the board changes between polls.
func (h *handlers) events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
	c.Writer.Flush()

	ctx := c.Request.Context()
	log := logger.FromContext(ctx, h.log)

	var last []byte
	push := func() {
		board, err := h.jobs.Dashboard(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("event stream: dashboard query failed", "error", err)
			}
			return
		}
		data, err := json.Marshal(board)
		if err != nil || bytes.Equal(data, last) {
			return
		}
		last = data
		fmt.Fprintf(c.Writer, "event: dashboard\ndata: %s\n\n", data)
		c.Writer.Flush()
	}
	push()

	ticker := time.NewTicker(h.poll)
	heartbeat := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case <-ticker.C:
			push()
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
}
