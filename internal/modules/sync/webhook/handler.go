package webhook

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/encounter-space/core/internal/models"
	"github.com/encounter-space/core/internal/pkg/pagination"
	"github.com/encounter-space/core/internal/pkg/response"
	"github.com/encounter-space/core/internal/pkg/signature"
)

// Handler exposes the ingestion endpoint and the operator-facing audit
// surface.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the sync routes. The webhook endpoint is gated by its
// signature alone; everything else requires operator auth.
func (h *Handler) Register(api *gin.RouterGroup, auth gin.HandlerFunc) {
	sync := api.Group("/sync")
	sync.POST("/webhook", h.ingest)

	admin := sync.Group("", auth)
	admin.GET("/events", h.listEvents)
	admin.GET("/events/:id", h.getEvent)
	admin.POST("/replay", h.replay)
}

func (h *Handler) ingest(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		response.BadRequest(c, "empty request body")
		return
	}

	result, err := h.svc.Ingest(c.Request.Context(), raw, c.GetHeader(signature.Header))
	switch {
	case err == nil:
		response.OK(c, result)
	case errors.Is(err, ErrUnauthorized):
		response.UnauthorizedMsg(c, err.Error())
	case errors.Is(err, ErrInvalidEnvelope):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

func (h *Handler) listEvents(c *gin.Context) {
	filter := ListFilter{
		Status: strings.TrimSpace(c.Query("status")),
		UserID: strings.TrimSpace(c.Query("user_id")),
	}
	if filter.Status != "" {
		switch filter.Status {
		case models.SyncEventStored, models.SyncEventProcessed, models.SyncEventFailed:
		default:
			response.BadRequest(c, "unknown status "+filter.Status)
			return
		}
	}

	var events []models.SyncEventModel
	meta, err := pagination.Paginate(h.svc.Events(c.Request.Context(), filter), pagination.FromContext(c), &events)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, events, meta)
}

func (h *Handler) getEvent(c *gin.Context) {
	ev, err := h.svc.Event(c.Request.Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, ev)
}

func (h *Handler) replay(c *gin.Context) {
	report, err := h.svc.Replay(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, report)
}
