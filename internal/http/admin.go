package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/audit"
	dbaudit "github.com/mrlokans/shelf/internal/database/audit"
	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/store"
	"github.com/mrlokans/shelf/internal/tasks"
)

// AdminController runs maintenance and exposes the activity log.
// All of its routes require an admin session.
type AdminController struct {
	store    store.Store
	activity *audit.Service
	queue    *tasks.Client
}

// NewAdminController wires the controller. queue may be nil, in which case
// sweeps run inline with the request.
func NewAdminController(s store.Store, activity *audit.Service, queue *tasks.Client) *AdminController {
	return &AdminController{store: s, activity: activity, queue: queue}
}

// Sweep handles POST /api/admin/sweep
func (ac *AdminController) Sweep(c *gin.Context) {
	ctx := c.Request.Context()

	if ac.queue != nil {
		taskID, err := ac.queue.Enqueue(ctx, tasks.SweepOrphansTask{Reason: "manual"})
		if err != nil {
			respondInternalError(c, err, "enqueue sweep", "failed to enqueue sweep")
			return
		}
		respondAccepted(c, "sweep enqueued", gin.H{"task_id": taskID})
		return
	}

	result, err := ac.store.SweepOrphans(ctx)
	if ac.activity != nil {
		ac.activity.LogSweep(ctx, result, err)
	}
	if err != nil {
		respondInternalError(c, err, "sweep orphans", "failed to sweep orphans")
		return
	}
	respondSuccess(c, "sweep finished", result)
}

// TaskStatus handles GET /api/admin/tasks/:id
func (ac *AdminController) TaskStatus(c *gin.Context) {
	if ac.queue == nil {
		respondError(c, http.StatusNotFound, "task queue disabled")
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := ac.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status", "failed to read task status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": taskID, "status": status})
}

// Activity handles GET /api/activity
// Filters: actor, type, entity_type, entity_id, since (RFC 3339).
func (ac *AdminController) Activity(c *gin.Context) {
	if ac.activity == nil {
		respondError(c, http.StatusNotFound, "activity log disabled")
		return
	}

	filter := dbaudit.Filter{
		Actor:      c.Query("actor"),
		EventType:  entities.AuditEventType(c.Query("type")),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondBadRequest(c, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = t
	}

	limit, offset := parsePagination(c, 25, 100)
	events, total, err := ac.activity.GetEvents(filter, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list activity", "Failed to load activity")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(events)) < total,
	})
}
