package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/devboard/internal/services"
	"github.com/monocle-dev/devboard/internal/utils"
)

type TaskHandler struct {
	tasks *services.TaskService
}

func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) CreateTask(ctx *gin.Context) {
	var body services.CreateTaskInput

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	task, err := h.tasks.Create(ctx.Request.Context(), body, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, task)
}

// ListTasks lists the tasks of ?project_id=, or the caller's own tasks.
func (h *TaskHandler) ListTasks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	tasks, err := h.tasks.List(ctx.Request.Context(), userID, ctx.Query("project_id"))

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(ctx *gin.Context) {
	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	detail, err := h.tasks.Get(ctx.Request.Context(), taskID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, detail)
}

func (h *TaskHandler) UpdateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	var body services.UpdateTaskInput

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	task, err := h.tasks.Update(ctx.Request.Context(), taskID, userID, body)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	if err := h.tasks.Delete(ctx.Request.Context(), taskID, userID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *TaskHandler) CreateSubtask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	var body services.CreateSubtaskInput

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	subtask, err := h.tasks.CreateSubtask(ctx.Request.Context(), taskID, userID, body)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, subtask)
}

func (h *TaskHandler) UpdateSubtask(ctx *gin.Context) {
	taskID, subtaskID, err := utils.GetTaskSubtaskID(ctx)

	if err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	var body services.UpdateSubtaskInput

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	subtask, err := h.tasks.UpdateSubtask(ctx.Request.Context(), taskID, subtaskID, body)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, subtask)
}

func (h *TaskHandler) DeleteSubtask(ctx *gin.Context) {
	subtaskID, err := utils.GetSubtaskID(ctx)

	if err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	if err := h.tasks.DeleteSubtask(ctx.Request.Context(), subtaskID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
