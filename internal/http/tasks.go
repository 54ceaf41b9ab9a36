package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/tasks"
)

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue  TaskQueue
	logger *zap.Logger
}

// NewTasksController creates a new TasksController.
func NewTasksController(queue TaskQueue, logger *zap.Logger) *TasksController {
	return &TasksController{queue: queue, logger: logger}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

var taskTypes = []TaskTypeInfo{
	{
		Type:        "cleanup_audit_events",
		Description: "Delete audit events older than the retention period",
		Queue:       tasks.CleanupAuditEventsTask{}.Config().Name,
	},
	{
		Type:        "reconcile_copies",
		Description: "Compare available copies with active loans and optionally repair drift",
		Queue:       tasks.ReconcileCopiesTask{}.Config().Name,
	},
}

// ListTaskTypes handles GET /tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"taskTypes": taskTypes})
}

// GetTaskStatus handles GET /tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, tc.logger, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTaskRequest is the optional request body for running a task.
type RunTaskRequest struct {
	RetentionDays int  `json:"retentionDays"`
	Repair        bool `json:"repair"`
}

// RunTask handles POST /tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	var task backlite.Task
	switch taskType {
	case "cleanup_audit_events":
		if req.RetentionDays < 0 {
			respondBadRequest(c, "retentionDays must not be negative")
			return
		}
		task = tasks.CleanupAuditEventsTask{RetentionDays: req.RetentionDays}
	case "reconcile_copies":
		task = tasks.ReconcileCopiesTask{Repair: req.Repair}
	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	id, err := tc.queue.Enqueue(c.Request.Context(), task)
	if err != nil {
		respondInternalError(c, tc.logger, err, "enqueue task")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"taskId":  id,
		"type":    taskType,
		"message": "task enqueued",
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
