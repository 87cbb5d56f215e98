package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ldi/taskake/pkg/models"
)

// GetTask fetches a single task.
func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	const op = "fetch task"
	if err := c.checkVar(op, "id", id, "required"); err != nil {
		return nil, err
	}
	var task models.Task
	if err := c.do(ctx, op, http.MethodGet, c.taskodexPath("/tasks/%s", url.PathEscape(id)), nil, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks fetches one page of tasks matching params.
func (c *Client) ListTasks(ctx context.Context, params models.TaskListParams) (*models.TaskList, error) {
	const op = "fetch tasks"
	if err := c.checkStruct(op, params); err != nil {
		return nil, err
	}
	return c.listTasks(ctx, op, c.taskodexPath("/tasks"), params.Query())
}

// CreateTask creates a task and returns the stored record.
func (c *Client) CreateTask(ctx context.Context, req models.TaskRequest) (*models.Task, error) {
	const op = "create task"
	if err := c.checkStruct(op, req); err != nil {
		return nil, err
	}
	var task models.Task
	if err := c.do(ctx, op, http.MethodPost, c.taskodexPath("/tasks"), nil, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask sends a partial update and returns the full updated task.
func (c *Client) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	const op = "update task"
	if err := c.checkVar(op, "id", id, "required"); err != nil {
		return nil, err
	}
	if err := c.checkStruct(op, patch); err != nil {
		return nil, err
	}
	var task models.Task
	if err := c.do(ctx, op, http.MethodPut, c.taskodexPath("/tasks/%s", url.PathEscape(id)), nil, patch, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	const op = "delete task"
	if err := c.checkVar(op, "id", id, "required"); err != nil {
		return err
	}
	return c.do(ctx, op, http.MethodDelete, c.taskodexPath("/tasks/%s", url.PathEscape(id)), nil, nil, nil)
}

// AssignTask assigns a task to a user.
func (c *Client) AssignTask(ctx context.Context, id, userID string) (*models.Task, error) {
	const op = "assign task"
	if err := c.checkVar(op, "id", id, "required"); err != nil {
		return nil, err
	}
	if err := c.checkVar(op, "user_id", userID, "required"); err != nil {
		return nil, err
	}
	body := map[string]string{"user_id": userID}
	var task models.Task
	if err := c.do(ctx, op, http.MethodPost, c.taskodexPath("/tasks/%s/assign", url.PathEscape(id)), nil, body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UnassignTask removes a task's assignee.
func (c *Client) UnassignTask(ctx context.Context, id string) (*models.Task, error) {
	const op = "unassign task"
	if err := c.checkVar(op, "id", id, "required"); err != nil {
		return nil, err
	}
	var task models.Task
	if err := c.do(ctx, op, http.MethodPost, c.taskodexPath("/tasks/%s/unassign", url.PathEscape(id)), nil, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTaskStatus moves a task to a new status.
func (c *Client) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	const op = "update task status"
	if err := c.checkVar(op, "id", id, "required"); err != nil {
		return nil, err
	}
	if err := c.checkVar(op, "status", string(status), "required,oneof=todo in_progress review done cancelled"); err != nil {
		return nil, err
	}
	body := map[string]string{"status": string(status)}
	var task models.Task
	if err := c.do(ctx, op, http.MethodPut, c.taskodexPath("/tasks/%s/status", url.PathEscape(id)), nil, body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListOverdueTasks asks the server for its own overdue listing.
func (c *Client) ListOverdueTasks(ctx context.Context, params models.TaskListParams) (*models.TaskList, error) {
	const op = "fetch overdue tasks"
	if err := c.checkStruct(op, params); err != nil {
		return nil, err
	}
	return c.listTasks(ctx, op, c.taskodexPath("/tasks/overdue"), params.Query())
}

// ListTasksDueSoon asks the server for tasks due within days.
func (c *Client) ListTasksDueSoon(ctx context.Context, days int, params models.TaskListParams) (*models.TaskList, error) {
	const op = "fetch tasks due soon"
	if err := c.checkVar(op, "days", days, "min=0"); err != nil {
		return nil, err
	}
	if err := c.checkStruct(op, params); err != nil {
		return nil, err
	}
	return c.listTasks(ctx, op, c.taskodexPath("/tasks/due-soon/%d", days), params.Query())
}

func (c *Client) listTasks(ctx context.Context, op, path string, query url.Values) (*models.TaskList, error) {
	var list models.TaskList
	if err := c.do(ctx, op, http.MethodGet, path, query, nil, &list); err != nil {
		return nil, err
	}
	if list.Tasks == nil {
		list.Tasks = []models.Task{}
	}
	list.Pagination = list.Pagination.Normalize()
	return &list, nil
}
