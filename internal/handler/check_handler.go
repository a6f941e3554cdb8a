package handler

import (
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CheckHandler struct {
	checkService service.CheckService
}

func NewCheckHandler(checkService service.CheckService) *CheckHandler {
	return &CheckHandler{checkService: checkService}
}

func (h *CheckHandler) RegisterRoutes(router *gin.RouterGroup) {
	checks := router.Group("/api/checks")
	{
		checks.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst, model.RoleOperator), h.ListChecks)
		checks.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst, model.RoleOperator), h.CreateCheck)
		checks.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst, model.RoleOperator), h.GetCheck)
		checks.PATCH("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.UpdateCheck)
		checks.POST("/:id/validate", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst, model.RoleOperator), h.ValidateCheck)
		checks.POST("/:id/approve", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.ApproveCheck)
		checks.POST("/:id/reject", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.RejectCheck)
		checks.POST("/:id/cancel", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.CancelCheck)
	}
}

func parseCheckID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid check id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *CheckHandler) CreateCheck(c *gin.Context) {
	var req service.CreateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	check, err := h.checkService.Create(c.Request.Context(), req, middleware.CurrentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, check))
}

func (h *CheckHandler) GetCheck(c *gin.Context) {
	id, ok := parseCheckID(c)
	if !ok {
		return
	}

	check, err := h.checkService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, check))
}

func (h *CheckHandler) ListChecks(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.CheckFilter{
		Status: c.Query("status"),
	}
	if raw := c.Query("order_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.OrderID = &id
		}
	}
	if raw := c.Query("client_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.ClientID = &id
		}
	}

	checks, total, err := h.checkService.List(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, listPayload(checks, total, params.Page, params.Limit)))
}

func (h *CheckHandler) UpdateCheck(c *gin.Context) {
	id, ok := parseCheckID(c)
	if !ok {
		return
	}

	var patch service.UpdateCheckPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	check, err := h.checkService.Update(c.Request.Context(), id, patch, middleware.CurrentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, check))
}

func (h *CheckHandler) ValidateCheck(c *gin.Context) {
	id, ok := parseCheckID(c)
	if !ok {
		return
	}

	check, err := h.checkService.Validate(c.Request.Context(), id, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, check))
}

func (h *CheckHandler) ApproveCheck(c *gin.Context) {
	id, ok := parseCheckID(c)
	if !ok {
		return
	}

	check, err := h.checkService.Approve(c.Request.Context(), id, middleware.CurrentActor(c), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, check))
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *CheckHandler) RejectCheck(c *gin.Context) {
	id, ok := parseCheckID(c)
	if !ok {
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	check, err := h.checkService.Reject(c.Request.Context(), id, req.Reason, middleware.CurrentActor(c), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, check))
}

func (h *CheckHandler) CancelCheck(c *gin.Context) {
	id, ok := parseCheckID(c)
	if !ok {
		return
	}

	check, err := h.checkService.Cancel(c.Request.Context(), id, middleware.CurrentActor(c), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, check))
}
