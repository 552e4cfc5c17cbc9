package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"brand-publisher/domain/model"

	"github.com/gin-gonic/gin"
)

type subscriber struct {
	brandID string
	ch      chan model.JobEvent
}

// JobHub maintains per-tenant SSE subscribers listening for job status events.
type JobHub struct {
	mu      sync.RWMutex
	tenants map[string]map[*subscriber]struct{}
}

func NewJobHub() *JobHub {
	return &JobHub{tenants: make(map[string]map[*subscriber]struct{})}
}

// Serve registers an SSE stream for the authenticated tenant (tenant_id set by middleware).
// The optional brandId query parameter narrows the stream to one brand.
func (h *JobHub) Serve(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	if tenantID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sub := h.subscribe(tenantID, c.Query("brandId"))
	defer h.unsubscribe(tenantID, sub)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt := <-sub.ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: " + model.JobEventType + "\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *JobHub) subscribe(tenantID, brandID string) *subscriber {
	sub := &subscriber{brandID: brandID, ch: make(chan model.JobEvent, 16)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tenants[tenantID] == nil {
		h.tenants[tenantID] = make(map[*subscriber]struct{})
	}
	h.tenants[tenantID][sub] = struct{}{}
	return sub
}

func (h *JobHub) unsubscribe(tenantID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.tenants[tenantID]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.tenants, tenantID)
		}
	}
}

// Subscribers reports how many streams are open for a tenant.
func (h *JobHub) Subscribers(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tenants[tenantID])
}

// Broadcast sends the job's new state to every subscriber of its tenant.
// Slow subscribers miss events rather than stall the queue.
func (h *JobHub) Broadcast(job *model.PublishingJob) {
	if job == nil {
		return
	}
	evt := model.NewJobEvent(job)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.tenants[job.TenantID] {
		if sub.brandID != "" && sub.brandID != job.BrandID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}
