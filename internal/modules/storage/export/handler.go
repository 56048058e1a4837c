package export

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/encounter-space/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(api *gin.RouterGroup, auth gin.HandlerFunc) {
	group := api.Group("/export", auth)
	group.POST("", h.trigger)
	group.GET("/tasks", h.tasks)
}

func (h *Handler) trigger(c *gin.Context) {
	if !h.svc.Enabled() {
		response.BadRequest(c, "export is not configured for this deployment")
		return
	}

	task, err := h.svc.Trigger(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, task)
}

func (h *Handler) tasks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	tasks, err := h.svc.Tasks(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, tasks)
}
