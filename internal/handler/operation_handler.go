package handler

import (
	"net/http"
	"os"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// defaultMaxOperationLimit caps total capital when OPERATION_MAX_LIMIT is not
// configured.
var defaultMaxOperationLimit = decimal.NewFromInt(1_000_000)

type OperationHandler struct {
	operationService service.OperationService
}

func NewOperationHandler(operationService service.OperationService) *OperationHandler {
	return &OperationHandler{operationService: operationService}
}

func (h *OperationHandler) RegisterRoutes(router *gin.RouterGroup) {
	operations := router.Group("/api/operations")
	{
		operations.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst, model.RoleOperator), h.ListOperations)
		operations.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.CreateOperation)
		operations.GET("/:number", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst, model.RoleOperator), h.GetOperation)
		operations.PATCH("/:number", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.UpdateOperation)
		operations.POST("/:number/effective-rate", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.CalculateEffectiveRate)
		operations.POST("/:number/validate-limits", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.ValidateLimits)
		operations.POST("/:number/approve", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.ApproveOperation)
		operations.POST("/:number/reject", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.RejectOperation)
		operations.POST("/:number/integrate", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.IntegrateOperation)
		operations.POST("/:number/log", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst, model.RoleOperator), h.AddLogEntry)
	}
}

// maxOperationLimit reads the configured exposure ceiling.
func maxOperationLimit() decimal.Decimal {
	if raw := os.Getenv("OPERATION_MAX_LIMIT"); raw != "" {
		if parsed, err := decimal.NewFromString(raw); err == nil && parsed.IsPositive() {
			return parsed
		}
	}
	return defaultMaxOperationLimit
}

func (h *OperationHandler) CreateOperation(c *gin.Context) {
	var req service.CreateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	op, err := h.operationService.Create(c.Request.Context(), req, middleware.CurrentActor(c), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, op))
}

func (h *OperationHandler) GetOperation(c *gin.Context) {
	op, err := h.operationService.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, op))
}

func (h *OperationHandler) ListOperations(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.OperationFilter{
		Status: c.Query("status"),
		Type:   c.Query("type"),
	}
	if raw := c.Query("client_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.ClientID = &id
		}
	}
	if raw := c.Query("order_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.OrderID = &id
		}
	}

	ops, total, err := h.operationService.List(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, listPayload(ops, total, params.Page, params.Limit)))
}

func (h *OperationHandler) UpdateOperation(c *gin.Context) {
	var patch service.UpdateOperationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	op, err := h.operationService.Update(c.Request.Context(), c.Param("number"), patch, middleware.CurrentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, op))
}

func (h *OperationHandler) CalculateEffectiveRate(c *gin.Context) {
	op, result, err := h.operationService.CalculateEffectiveRate(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"operation": op,
		"rate":      result,
	}))
}

func (h *OperationHandler) ValidateLimits(c *gin.Context) {
	op, result, err := h.operationService.ValidateLimits(c.Request.Context(), c.Param("number"), maxOperationLimit())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"operation": op,
		"limits":    result,
	}))
}

func (h *OperationHandler) ApproveOperation(c *gin.Context) {
	op, err := h.operationService.Approve(c.Request.Context(), c.Param("number"), middleware.CurrentActor(c), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, op))
}

func (h *OperationHandler) RejectOperation(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	op, err := h.operationService.Reject(c.Request.Context(), c.Param("number"), req.Reason, middleware.CurrentActor(c), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, op))
}

func (h *OperationHandler) IntegrateOperation(c *gin.Context) {
	op, err := h.operationService.Integrate(c.Request.Context(), c.Param("number"), middleware.CurrentActor(c), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	// 202: the terminal INTEGRATED/ERROR status arrives asynchronously.
	c.JSON(http.StatusAccepted, response.Success(http.StatusAccepted, op))
}

type addLogRequest struct {
	Action  string `json:"action" binding:"required"`
	Details string `json:"details"`
}

func (h *OperationHandler) AddLogEntry(c *gin.Context) {
	var req addLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entry, err := h.operationService.AddLog(c.Request.Context(), c.Param("number"), req.Action, middleware.CurrentActor(c), req.Details, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}
