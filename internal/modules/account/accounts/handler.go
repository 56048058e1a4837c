package accounts

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/encounter-space/core/internal/models"
	"github.com/encounter-space/core/internal/pkg/pagination"
	"github.com/encounter-space/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(api *gin.RouterGroup, auth gin.HandlerFunc) {
	group := api.Group("/accounts", auth)
	group.GET("", h.list)
	group.GET("/:userId", h.get)
	group.PATCH("/:userId", h.patch)
	group.DELETE("/:userId", h.remove)
	group.GET("/:userId/usage", h.usage)
}

func (h *Handler) list(c *gin.Context) {
	filter := ListFilter{Tier: strings.TrimSpace(c.Query("tier"))}

	var items []models.AccountModel
	meta, err := pagination.Paginate(h.svc.List(c.Request.Context(), filter), pagination.FromContext(c), &items)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, meta)
}

func (h *Handler) get(c *gin.Context) {
	account, err := h.svc.Get(c.Request.Context(), c.Param("userId"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, account)
}

func (h *Handler) patch(c *gin.Context) {
	var req PatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	account, err := h.svc.Patch(c.Request.Context(), c.Param("userId"), &req)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, account)
}

func (h *Handler) remove(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("userId"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) usage(c *gin.Context) {
	report, err := h.svc.Usage(c.Request.Context(), c.Param("userId"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, report)
}
