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

type TaskHandler struct {
	taskService service.TaskService
}

func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *TaskHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/task-batches", middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin), h.CreateTaskBatch)

	tasks := router.Group("/tasks")
	{
		tasks.GET("", middleware.RequireRole(model.RolePC, model.RoleSupervisor, model.RoleAdmin), h.ListTasks)
		tasks.PATCH("/:id/status", middleware.RequireRole(model.RolePC, model.RoleSupervisor, model.RoleAdmin), h.UpdateTaskStatus)
	}
}

// CreateTaskBatch handles POST /task-batches
// @Summary      Assign a batch of scheduled tasks
// @Description  Creates a batch of scheduled tasks for one PC at one store. All tasks are validated before anything is written; the batch is all-or-nothing.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTaskBatchDTO  true  "Batch payload"
// @Success      201      {object}  response.Response{data=model.TaskBatch}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/task-batches [post]
func (h *TaskHandler) CreateTaskBatch(c *gin.Context) {
	var req service.CreateTaskBatchDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	batch, err := h.taskService.CreateTaskBatch(c.Request.Context(), actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, batch))
}

// ListTasks handles GET /tasks. PCs see their own assignments; supervisors and
// admins can filter by assignee, store, and status.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.TaskListFilter{
		AssignedTo: c.Query("assigned_to"),
		StoreID:    c.Query("store_id"),
		Status:     c.Query("status"),
		Page:       params.Page,
		Limit:      params.Limit,
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), actorID(c), actorRole(c), filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(tasks, total, params)))
}

// UpdateTaskStatus handles PATCH /tasks/:id/status
// @Summary      Update a task's status
// @Description  PCs move their own tasks through IN_PROGRESS, SUBMITTED and COMPLETED; supervisors and admins settle them with APPROVED or REJECTED. Rejection requires a reason.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Task UUID"
// @Param        payload  body      service.UpdateTaskStatusDTO  true  "New status"
// @Success      200      {object}  response.Response{data=model.Task}
// @Failure      400      {object}  response.Response  "Invalid transition or task already terminal"
// @Failure      403      {object}  response.Response  "Status not allowed for the actor's role"
// @Failure      404      {object}  response.Response
// @Router       /api/tasks/{id}/status [patch]
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	var req service.UpdateTaskStatusDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	task, err := h.taskService.UpdateTaskStatus(c.Request.Context(), c.Param("id"), actorID(c), actorRole(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}
