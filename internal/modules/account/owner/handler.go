package owner

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/encounter-space/core/internal/middleware"
	"github.com/encounter-space/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(api *gin.RouterGroup, auth gin.HandlerFunc) {
	group := api.Group("/owner")
	group.POST("/register", h.register)
	group.POST("/login", h.login)

	authed := group.Group("", auth)
	authed.POST("/logout", h.logout)
	authed.GET("/profile", h.profile)
	authed.POST("/tokens", h.createToken)
	authed.GET("/tokens", h.listTokens)
	authed.DELETE("/tokens/:id", h.deleteToken)
}

func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	owner, err := h.svc.Register(c.Request.Context(), &req)
	if errors.Is(err, ErrOwnerExists) {
		response.Conflict(c, "this deployment already has an owner")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, owner)
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if errors.Is(err, ErrBadCredentials) {
		response.UnauthorizedMsg(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, resp)
}

func (h *Handler) logout(c *gin.Context) {
	ownerID := middleware.CurrentOwnerID(c)
	sessionID := c.GetString(middleware.ContextKeySID)
	if err := h.svc.Logout(c.Request.Context(), ownerID, sessionID); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) profile(c *gin.Context) {
	owner, err := h.svc.Profile(c.Request.Context(), middleware.CurrentOwnerID(c))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, owner)
}

func (h *Handler) createToken(c *gin.Context) {
	var req CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	token, err := h.svc.CreateToken(c.Request.Context(), middleware.CurrentOwnerID(c), &req)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, token)
}

func (h *Handler) listTokens(c *gin.Context) {
	tokens, err := h.svc.Tokens(c.Request.Context(), middleware.CurrentOwnerID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, tokens)
}

func (h *Handler) deleteToken(c *gin.Context) {
	err := h.svc.DeleteToken(c.Request.Context(), middleware.CurrentOwnerID(c), c.Param("id"))
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
