package handler

import (
	"net/http"
	"strconv"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ClientHandler struct {
	clientService service.ClientService
}

func NewClientHandler(clientService service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

func (h *ClientHandler) RegisterRoutes(router *gin.RouterGroup) {
	clients := router.Group("/api/clients")
	{
		clients.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst, model.RoleOperator), h.ListClients)
		clients.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.RegisterClient)
		clients.GET("/:code", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst, model.RoleOperator), h.GetClient)
		clients.PATCH("/:code", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.UpdateClient)
		clients.POST("/:code/deactivate", middleware.RequireRole(model.RoleAdmin), h.DeactivateClient)
		clients.PUT("/:code/activity", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst), h.SetActivity)
		clients.GET("/:code/validate", middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst, model.RoleOperator), h.ValidateClient)
	}
}

func parseClientCode(c *gin.Context) (uint64, bool) {
	code, err := strconv.ParseUint(c.Param("code"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid client code"))
		return 0, false
	}
	return code, true
}

func (h *ClientHandler) RegisterClient(c *gin.Context) {
	var req service.RegisterClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	client, err := h.clientService.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, client))
}

func (h *ClientHandler) GetClient(c *gin.Context) {
	code, ok := parseClientCode(c)
	if !ok {
		return
	}

	client, err := h.clientService.GetByCode(c.Request.Context(), code)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, client))
}

func (h *ClientHandler) ListClients(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.ClientFilter{
		Status:     c.Query("status"),
		PersonType: c.Query("person_type"),
		BranchCode: c.Query("branch"),
	}

	clients, total, err := h.clientService.List(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, listPayload(clients, total, params.Page, params.Limit)))
}

func (h *ClientHandler) UpdateClient(c *gin.Context) {
	code, ok := parseClientCode(c)
	if !ok {
		return
	}

	var patch service.UpdateClientPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	client, err := h.clientService.Update(c.Request.Context(), code, patch)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, client))
}

func (h *ClientHandler) DeactivateClient(c *gin.Context) {
	code, ok := parseClientCode(c)
	if !ok {
		return
	}

	client, err := h.clientService.Deactivate(c.Request.Context(), code)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, client))
}

func (h *ClientHandler) SetActivity(c *gin.Context) {
	code, ok := parseClientCode(c)
	if !ok {
		return
	}

	var activity model.Activity
	if err := c.ShouldBindJSON(&activity); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	client, err := h.clientService.SetActivity(c.Request.Context(), code, activity)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, client))
}

func (h *ClientHandler) ValidateClient(c *gin.Context) {
	code, ok := parseClientCode(c)
	if !ok {
		return
	}

	role := c.Query("line")
	requested := decimal.Zero
	if raw := c.Query("amount"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid amount"))
			return
		}
		requested = parsed
	}

	client, validation, err := h.clientService.Validate(c.Request.Context(), code, role, requested)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"client":     client,
		"validation": validation,
	}))
}
