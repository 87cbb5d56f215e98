package store

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ldi/taskake/pkg/models"
)

// ProjectTaskPageSize is the page size used when loading a project's tasks.
const ProjectTaskPageSize = 100

// ProjectService is the subset of the API client a project dashboard needs.
type ProjectService interface {
	TaskService
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetProjectTasks(ctx context.Context, projectID string, params models.TaskListParams) (*models.TaskList, error)
	GetProjectStats(ctx context.Context, projectID string) (*models.ProjectStats, error)
	GetProjectActivity(ctx context.Context, projectID string, limit int) ([]models.ProjectActivity, error)
}

// ProjectSession holds everything shown on one project's dashboard.
type ProjectSession struct {
	ProjectID string
	// Tasks holds the project's tasks; its engine drives the derived views.
	Tasks *TaskStore

	svc    ProjectService
	logger *slog.Logger

	mu       sync.Mutex
	project  *models.Project
	stats    *models.ProjectStats
	activity []models.ProjectActivity
}

func NewProjectSession(svc ProjectService, projectID string, logger *slog.Logger) *ProjectSession {
	if logger == nil {
		logger = slog.Default()
	}
	list := func(ctx context.Context, params models.TaskListParams) (*models.TaskList, error) {
		return svc.GetProjectTasks(ctx, projectID, params)
	}
	return &ProjectSession{
		ProjectID: projectID,
		Tasks:     newTaskStore(svc, list, logger.With("project_id", projectID)),
		svc:       svc,
		logger:    logger,
	}
}

func (p *ProjectSession) LoadProject(ctx context.Context) error {
	project, err := p.svc.GetProject(ctx, p.ProjectID)
	if err != nil {
		p.logger.Error("error loading project", "project_id", p.ProjectID, "error", err)
		return err
	}
	p.mu.Lock()
	p.project = project
	p.mu.Unlock()
	return nil
}

// LoadTasks replaces the task collection with the first ProjectTaskPageSize tasks.
func (p *ProjectSession) LoadTasks(ctx context.Context) error {
	return p.Tasks.Load(ctx, models.TaskListParams{PageSize: ProjectTaskPageSize})
}

func (p *ProjectSession) LoadStats(ctx context.Context) error {
	stats, err := p.svc.GetProjectStats(ctx, p.ProjectID)
	if err != nil {
		p.logger.Error("error loading project statistics", "project_id", p.ProjectID, "error", err)
		return err
	}
	p.mu.Lock()
	p.stats = stats
	p.mu.Unlock()
	return nil
}

func (p *ProjectSession) LoadActivity(ctx context.Context) error {
	activity, err := p.svc.GetProjectActivity(ctx, p.ProjectID, 0)
	if err != nil {
		p.logger.Error("error loading project activity", "project_id", p.ProjectID, "error", err)
		return err
	}
	p.mu.Lock()
	p.activity = activity
	p.mu.Unlock()
	return nil
}

// LoadAll runs every load concurrently. A failing load does not cancel the
// others; the first error is returned once all have finished.
func (p *ProjectSession) LoadAll(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return p.LoadProject(ctx) })
	g.Go(func() error { return p.LoadTasks(ctx) })
	g.Go(func() error { return p.LoadStats(ctx) })
	g.Go(func() error { return p.LoadActivity(ctx) })
	return g.Wait()
}

func (p *ProjectSession) Project() *models.Project {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.project
}

func (p *ProjectSession) Stats() *models.ProjectStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *ProjectSession) Activity() []models.ProjectActivity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.ProjectActivity(nil), p.activity...)
}

// Close clears the task collection and forgets the loaded project data.
func (p *ProjectSession) Close() {
	p.mu.Lock()
	p.project = nil
	p.stats = nil
	p.activity = nil
	p.mu.Unlock()
	p.Tasks.Close()
}
