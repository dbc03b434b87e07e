package handler

import (
	"fmt"
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type VisitHandler struct {
	visitService  service.VisitService
	taskService   service.TaskService
	reportService service.ReportService
}

// NewVisitHandler sets up the routing dependencies for store-visit endpoints
func NewVisitHandler(visitService service.VisitService, taskService service.TaskService, reportService service.ReportService) *VisitHandler {
	return &VisitHandler{
		visitService:  visitService,
		taskService:   taskService,
		reportService: reportService,
	}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *VisitHandler) RegisterRoutes(router *gin.RouterGroup) {
	visits := router.Group("/store-visits")
	{
		visits.POST("/check-in", middleware.RequireRole(model.RolePC), h.CheckIn)
		visits.POST("/check-out", middleware.RequireRole(model.RolePC), h.CheckOut)
		visits.POST("/cancel", middleware.RequireRole(model.RolePC), h.CancelCheckIn)
		visits.GET("/current", middleware.RequireRole(model.RolePC), h.GetCurrentVisit)
		visits.GET("/eligibility", middleware.RequireRole(model.RolePC), h.GetCheckinEligibility)
		visits.GET("", middleware.RequireRole(model.RolePC, model.RoleSupervisor, model.RoleAdmin), h.GetVisitHistory)
		visits.GET("/export", middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin), h.ExportVisitHistory)
	}
}

// CheckIn handles POST /store-visits/check-in
// @Summary      Check in to a store
// @Description  Opens a visit when the PC is within the configured radius of the store. Creates the default task checklist.
// @Tags         store-visits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CheckInRequest  true  "Store and current location"
// @Success      201      {object}  response.Response{data=model.StoreVisit}
// @Failure      400      {object}  response.Response  "Too far from store, or store has no coordinates"
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response  "Already checked in to this store today"
// @Router       /api/store-visits/check-in [post]
func (h *VisitHandler) CheckIn(c *gin.Context) {
	var req service.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	visit, err := h.visitService.CheckIn(c.Request.Context(), actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, visit))
}

// CheckOut handles POST /store-visits/check-out
// @Summary      Check out of the current visit
// @Description  Closes the open visit. Rejected while required checklist tasks are incomplete.
// @Tags         store-visits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CheckOutRequest  true  "Visit and current location"
// @Success      200      {object}  response.Response{data=model.StoreVisit}
// @Failure      400      {object}  response.Response  "Incomplete required tasks, listed in details"
// @Failure      404      {object}  response.Response
// @Router       /api/store-visits/check-out [post]
func (h *VisitHandler) CheckOut(c *gin.Context) {
	var req service.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	visit, err := h.visitService.CheckOut(c.Request.Context(), actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, visit))
}

// CancelCheckIn handles POST /store-visits/cancel, discarding the open visit
// and its checklist
func (h *VisitHandler) CancelCheckIn(c *gin.Context) {
	var req service.CancelCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.visitService.CancelCheckIn(c.Request.Context(), actorID(c), req.VisitID); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Check-in cancelled"))
}

// GetCurrentVisit handles GET /store-visits/current
// @Summary      Get the open visit
// @Description  Returns the PC's open visit with its checklist and progress, or an empty visit when none is open.
// @Tags         store-visits
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.CurrentVisitResponse}
// @Router       /api/store-visits/current [get]
func (h *VisitHandler) GetCurrentVisit(c *gin.Context) {
	current, err := h.visitService.GetCurrentVisit(c.Request.Context(), actorID(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, current))
}

// GetCheckinEligibility handles GET /store-visits/eligibility: the stores the
// PC has live scheduled tasks at today
func (h *VisitHandler) GetCheckinEligibility(c *gin.Context) {
	stores, err := h.taskService.GetCheckinEligibility(c.Request.Context(), actorID(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stores))
}

func historyFilter(c *gin.Context) service.VisitHistoryFilter {
	return service.VisitHistoryFilter{
		PCID:    c.Query("pc_id"),
		StoreID: c.Query("store_id"),
		From:    c.Query("from"),
		To:      c.Query("to"),
	}
}

// GetVisitHistory handles GET /store-visits
// @Summary      List visit history
// @Description  Supervisors and admins see all PCs, optionally filtered; PCs see only their own visits.
// @Tags         store-visits
// @Produce      json
// @Security     BearerAuth
// @Param        pc_id     query     string  false  "Filter by PC (supervisor/admin only)"
// @Param        store_id  query     string  false  "Filter by store"
// @Param        from      query     string  false  "YYYY-MM-DD"
// @Param        to        query     string  false  "YYYY-MM-DD, inclusive"
// @Success      200       {object}  response.Response{data=[]model.StoreVisit}
// @Failure      400       {object}  response.Response
// @Router       /api/store-visits [get]
func (h *VisitHandler) GetVisitHistory(c *gin.Context) {
	visits, err := h.visitService.GetVisitHistory(c.Request.Context(), actorID(c), actorRole(c), historyFilter(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, visits))
}

// ExportVisitHistory handles GET /store-visits/export, streaming the history
// as an xlsx workbook
func (h *VisitHandler) ExportVisitHistory(c *gin.Context) {
	buf, err := h.reportService.ExportVisitHistory(c.Request.Context(), actorID(c), actorRole(c), historyFilter(c))
	if err != nil {
		fail(c, err)
		return
	}

	filename := fmt.Sprintf("store-visits-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
