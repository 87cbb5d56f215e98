package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ldi/taskake/pkg/models"
)

// DefaultActivityLimit is the number of activity entries fetched when no
// limit is given.
const DefaultActivityLimit = 10

func (c *Client) GetProject(ctx context.Context, id string) (*models.Project, error) {
	const op = "fetch project"
	if err := c.checkVar(op, "id", id, "required"); err != nil {
		return nil, err
	}
	var project models.Project
	if err := c.do(ctx, op, http.MethodGet, c.taskodexPath("/projects/%s", url.PathEscape(id)), nil, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) ListProjects(ctx context.Context, params models.ProjectListParams) (*models.ProjectList, error) {
	const op = "fetch projects"
	if err := c.checkStruct(op, params); err != nil {
		return nil, err
	}
	var list models.ProjectList
	if err := c.do(ctx, op, http.MethodGet, c.taskodexPath("/projects"), params.Query(), nil, &list); err != nil {
		return nil, err
	}
	if list.Projects == nil {
		list.Projects = []models.Project{}
	}
	list.Pagination = list.Pagination.Normalize()
	return &list, nil
}

// GetProjectTasks lists the tasks of one project. params.ProjectID is ignored.
func (c *Client) GetProjectTasks(ctx context.Context, projectID string, params models.TaskListParams) (*models.TaskList, error) {
	const op = "fetch project tasks"
	if err := c.checkVar(op, "project_id", projectID, "required"); err != nil {
		return nil, err
	}
	if err := c.checkStruct(op, params); err != nil {
		return nil, err
	}
	params.ProjectID = ""
	return c.listTasks(ctx, op, c.taskodexPath("/projects/%s/tasks", url.PathEscape(projectID)), params.Query())
}

func (c *Client) GetProjectStats(ctx context.Context, projectID string) (*models.ProjectStats, error) {
	const op = "fetch project statistics"
	if err := c.checkVar(op, "project_id", projectID, "required"); err != nil {
		return nil, err
	}
	var stats models.ProjectStats
	if err := c.do(ctx, op, http.MethodGet, c.taskodexPath("/projects/%s/stats", url.PathEscape(projectID)), nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetProjectActivity returns the most recent activity entries. A limit of
// zero means DefaultActivityLimit.
func (c *Client) GetProjectActivity(ctx context.Context, projectID string, limit int) ([]models.ProjectActivity, error) {
	const op = "fetch project activity"
	if err := c.checkVar(op, "project_id", projectID, "required"); err != nil {
		return nil, err
	}
	if err := c.checkVar(op, "limit", limit, "min=0"); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = DefaultActivityLimit
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	var list models.ProjectActivityList
	if err := c.do(ctx, op, http.MethodGet, c.taskodexPath("/projects/%s/activity", url.PathEscape(projectID)), query, nil, &list); err != nil {
		return nil, err
	}
	if list.Activities == nil {
		return []models.ProjectActivity{}, nil
	}
	return list.Activities, nil
}
