package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	reviewer := middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin)

	approvals := router.Group("/approvals")
	{
		approvals.POST("/:kind/:id/approve", reviewer, h.Approve)
		approvals.POST("/:kind/:id/reject", reviewer, h.Reject)
		approvals.GET("/pending", reviewer, h.GetPendingApprovals)
		approvals.GET("/stats", reviewer, h.GetApprovalStats)
		approvals.GET("/rejected", middleware.RequireRole(model.RolePC), h.GetRejectedRecords)
	}
}

// Approve handles POST /approvals/:kind/:id/approve
// @Summary      Approve an evidence record
// @Description  Transitions a PENDING record of the given kind (osa, display, survey) to APPROVED.
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        kind  path      string  true  "Record kind: osa, display or survey"
// @Param        id    path      string  true  "Record UUID"
// @Success      200   {object}  response.Response
// @Failure      400   {object}  response.Response  "Unknown kind or record already reviewed"
// @Failure      404   {object}  response.Response
// @Router       /api/approvals/{kind}/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	if err := h.approvalService.Approve(c.Request.Context(), c.Param("kind"), c.Param("id"), actorID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Record approved"))
}

// Reject handles POST /approvals/:kind/:id/reject
// @Summary      Reject an evidence record
// @Description  Transitions a PENDING record to REJECTED. A non-blank reason is mandatory.
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        kind     path      string                    true  "Record kind: osa, display or survey"
// @Param        id       path      string                    true  "Record UUID"
// @Param        payload  body      service.RejectRecordDTO   true  "Rejection reason"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response  "Blank reason, unknown kind or record already reviewed"
// @Failure      404      {object}  response.Response
// @Router       /api/approvals/{kind}/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	var req service.RejectRecordDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.approvalService.Reject(c.Request.Context(), c.Param("kind"), c.Param("id"), actorID(c), req.Reason); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Record rejected"))
}

// GetPendingApprovals handles GET /approvals/pending, the reviewer work queue
// across all three record kinds
func (h *ApprovalHandler) GetPendingApprovals(c *gin.Context) {
	items, err := h.approvalService.GetPendingApprovals(c.Request.Context(), service.ApprovalFilter{
		PCID:    c.Query("pc_id"),
		StoreID: c.Query("store_id"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// GetRejectedRecords handles GET /approvals/rejected: the PC's own rejected
// submissions, with reasons, for rework
func (h *ApprovalHandler) GetRejectedRecords(c *gin.Context) {
	items, err := h.approvalService.GetRejectedRecords(c.Request.Context(), actorID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// GetApprovalStats handles GET /approvals/stats
func (h *ApprovalHandler) GetApprovalStats(c *gin.Context) {
	stats, err := h.approvalService.GetApprovalStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
