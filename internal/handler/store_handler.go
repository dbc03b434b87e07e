package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StoreHandler struct {
	storeService service.StoreService
}

func NewStoreHandler(storeService service.StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *StoreHandler) RegisterRoutes(router *gin.RouterGroup) {
	manage := middleware.RequireRole(model.RoleAdmin, model.RoleSupervisor)
	read := middleware.RequireRole(model.RoleAdmin, model.RoleSupervisor, model.RolePC)

	stores := router.Group("/stores")
	{
		stores.GET("", read, h.ListStores)
		stores.GET("/:id", read, h.GetStore)
		stores.POST("", manage, h.CreateStore)
		stores.PUT("/:id", manage, h.UpdateStore)
		stores.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteStore)
	}
}

// CreateStore handles POST /stores
// @Summary      Create a store
// @Description  Registers a store. Coordinates are optional but must come as a pair; stores without coordinates cannot be checked into.
// @Tags         stores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateStoreRequest  true  "Store payload"
// @Success      201      {object}  response.Response{data=model.Store}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response  "Store code already exists"
// @Router       /api/stores [post]
func (h *StoreHandler) CreateStore(c *gin.Context) {
	var req service.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	store, err := h.storeService.CreateStore(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, store))
}

// GetStore handles GET /stores/:id
func (h *StoreHandler) GetStore(c *gin.Context) {
	store, err := h.storeService.GetStore(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, store))
}

// ListStores handles GET /stores with optional type and PC filters
func (h *StoreHandler) ListStores(c *gin.Context) {
	params := pagination.Parse(c)
	stores, total, err := h.storeService.ListStores(c.Request.Context(), service.StoreListFilter{
		Type:  c.Query("type"),
		PCID:  c.Query("pc_id"),
		Page:  params.Page,
		Limit: params.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(stores, total, params)))
}

// UpdateStore handles PUT /stores/:id
func (h *StoreHandler) UpdateStore(c *gin.Context) {
	var req service.UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	store, err := h.storeService.UpdateStore(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, store))
}

// DeleteStore handles DELETE /stores/:id
func (h *StoreHandler) DeleteStore(c *gin.Context) {
	if err := h.storeService.DeleteStore(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Store deleted"))
}
