package handler

import (
	"net/http"
	"strconv"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst, model.RoleOperator), h.ListOrders)
		orders.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst, model.RoleOperator), h.CreateOrder)
		orders.GET("/:number", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst, model.RoleOperator), h.GetOrder)
		orders.PATCH("/:number", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.UpdateOrder)
		orders.GET("/:number/validate", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst, model.RoleOperator), h.ValidateOrder)
		orders.POST("/:number/integrate", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.IntegrateOrder)
		orders.POST("/:number/cancel", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.CancelOrder)
	}
}

func parseOrderNumber(c *gin.Context) (uint64, bool) {
	number, err := strconv.ParseUint(c.Param("number"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid order number"))
		return 0, false
	}
	return number, true
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), req, middleware.CurrentActor(c), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	number, ok := parseOrderNumber(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetByNumber(c.Request.Context(), number)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.OrderFilter{
		Status: c.Query("status"),
		Origin: c.Query("origin"),
	}
	if raw := c.Query("client_code"); raw != "" {
		if code, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.ClientCode = code
		}
	}

	orders, total, err := h.orderService.List(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, listPayload(orders, total, params.Page, params.Limit)))
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	number, ok := parseOrderNumber(c)
	if !ok {
		return
	}

	var patch service.UpdateOrderPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.Update(c.Request.Context(), number, patch, middleware.CurrentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

func (h *OrderHandler) ValidateOrder(c *gin.Context) {
	number, ok := parseOrderNumber(c)
	if !ok {
		return
	}

	order, result, err := h.orderService.Validate(c.Request.Context(), number)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"order":      order,
		"validation": result,
	}))
}

func (h *OrderHandler) IntegrateOrder(c *gin.Context) {
	number, ok := parseOrderNumber(c)
	if !ok {
		return
	}

	order, err := h.orderService.Integrate(c.Request.Context(), number, middleware.CurrentActor(c), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	// 202: the terminal INTEGRATED/ERROR status arrives asynchronously.
	c.JSON(http.StatusAccepted, response.Success(http.StatusAccepted, order))
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	number, ok := parseOrderNumber(c)
	if !ok {
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), number, middleware.CurrentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
