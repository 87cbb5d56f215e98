package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ldi/taskake/internal/session"
	"github.com/ldi/taskake/internal/store"
	"github.com/ldi/taskake/internal/taskview"
	"github.com/ldi/taskake/pkg/models"
)

const sessionDescription = "Session ID (defaults to 'default'). Each session holds its own task collection."

// NewServer creates a new MCP server. Tools operate on the store of the
// session named by their session_id argument.
func NewServer(registry *session.Registry, logger *slog.Logger) *server.MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := server.NewMCPServer("Taskake", "0.1.0")

	// Loading
	s.AddTool(mcp.NewTool("refresh_tasks",
		mcp.WithDescription("Load a page of tasks from the API into the session, replacing its collection."),
		mcp.WithString("session_id", mcp.Description(sessionDescription)),
		mcp.WithString("status", mcp.Description("Filter by status (todo|in_progress|review|done|cancelled)")),
		mcp.WithString("priority", mcp.Description("Filter by priority (low|medium|high|critical)")),
		mcp.WithString("assigned_to", mcp.Description("Filter by assignee user ID")),
		mcp.WithString("project_id", mcp.Description("Filter by project ID")),
		mcp.WithString("search", mcp.Description("Full text search")),
		mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
		mcp.WithNumber("page_size", mcp.Description("Tasks per page (max 100)")),
	), refreshTasksHandler(registry))

	// Views
	s.AddTool(mcp.NewTool("get_board",
		mcp.WithDescription("Get every derived view of the session's tasks: status, priority and assignee groups, completion, overdue and upcoming deadlines."),
		mcp.WithString("session_id", mcp.Description(sessionDescription)),
	), getBoardHandler(registry))

	s.AddTool(mcp.NewTool("get_status_groups",
		mcp.WithDescription("Get the session's tasks grouped by status."),
		mcp.WithString("session_id", mcp.Description(sessionDescription)),
	), getStatusGroupsHandler(registry))

	s.AddTool(mcp.NewTool("get_priority_groups",
		mcp.WithDescription("Get the session's tasks grouped by priority."),
		mcp.WithString("session_id", mcp.Description(sessionDescription)),
	), getPriorityGroupsHandler(registry))

	s.AddTool(mcp.NewTool("get_assignee_groups",
		mcp.WithDescription("Get the session's tasks grouped by assignee. The unassigned group has a null assignee_id."),
		mcp.WithString("session_id", mcp.Description(sessionDescription)),
	), getAssigneeGroupsHandler(registry))

	s.AddTool(mcp.NewTool("get_completion",
		mcp.WithDescription("Get the percentage of the session's tasks that are done."),
		mcp.WithString("session_id", mcp.Description(sessionDescription)),
	), getCompletionHandler(registry))

	s.AddTool(mcp.NewTool("list_overdue_tasks",
		mcp.WithDescription("List open tasks whose due date has passed."),
		mcp.WithString("session_id", mcp.Description(sessionDescription)),
	), listOverdueTasksHandler(registry))

	s.AddTool(mcp.NewTool("list_upcoming_deadlines",
		mcp.WithDescription("List open tasks due within the next N days, soonest first."),
		mcp.WithString("session_id", mcp.Description(sessionDescription)),
		mcp.WithNumber("days", mcp.Description("Window length in days (defaults to the configured window)")),
	), listUpcomingDeadlinesHandler(registry))

	// Task Management
	s.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a task and add it to the session."),
		mcp.WithString("session_id", mcp.Description(sessionDescription)),
		mcp.WithString("title", mcp.Description("Task title (3-255 chars)"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("status", mcp.Description("Initial status (defaults to todo)")),
		mcp.WithString("priority", mcp.Description("Priority (defaults to medium)")),
		mcp.WithString("due_date", mcp.Description("Due date, RFC 3339 or YYYY-MM-DD")),
		mcp.WithString("assigned_to", mcp.Description("Assignee user ID")),
		mcp.WithString("project_id", mcp.Description("Project ID")),
		mcp.WithString("tags", mcp.Description("Comma separated tags")),
	), createTaskHandler(registry))

	s.AddTool(mcp.NewTool("update_task_status",
		mcp.WithDescription("Update task status."),
		mcp.WithString("session_id", mcp.Description(sessionDescription)),
		mcp.WithString("task_id", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithString("status", mcp.Description("New status (todo|in_progress|review|done|cancelled)"), mcp.Required()),
	), updateTaskStatusHandler(registry))

	s.AddTool(mcp.NewTool("assign_task",
		mcp.WithDescription("Assign a task to a user. Omit user_id to unassign it."),
		mcp.WithString("session_id", mcp.Description(sessionDescription)),
		mcp.WithString("task_id", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithString("user_id", mcp.Description("Assignee user ID")),
	), assignTaskHandler(registry))

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task."),
		mcp.WithString("session_id", mcp.Description(sessionDescription)),
		mcp.WithString("task_id", mcp.Description("Task ID"), mcp.Required()),
	), deleteTaskHandler(registry))

	// Session Management
	s.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List the IDs of open sessions."),
	), listSessionsHandler(registry))

	s.AddTool(mcp.NewTool("close_session",
		mcp.WithDescription("Close a session and discard its tasks."),
		mcp.WithString("session_id", mcp.Description(sessionDescription)),
	), closeSessionHandler(registry, logger))

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func sessionStore(registry *session.Registry, request mcp.CallToolRequest) *store.TaskStore {
	return registry.Get(mcp.ParseString(request, "session_id", session.DefaultID))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func refreshTasksHandler(registry *session.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params := models.TaskListParams{
			Status:     models.TaskStatus(mcp.ParseString(request, "status", "")),
			Priority:   models.TaskPriority(mcp.ParseString(request, "priority", "")),
			AssignedTo: mcp.ParseString(request, "assigned_to", ""),
			ProjectID:  mcp.ParseString(request, "project_id", ""),
			Search:     mcp.ParseString(request, "search", ""),
			Page:       mcp.ParseInt(request, "page", 0),
			PageSize:   mcp.ParseInt(request, "page_size", 0),
		}
		if params.Status != "" && !models.IsValidTaskStatus(string(params.Status)) {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid status '%s'", params.Status)), nil
		}
		if params.Priority != "" && !models.IsValidTaskPriority(string(params.Priority)) {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid priority '%s'", params.Priority)), nil
		}

		st := sessionStore(registry, request)
		if err := st.Load(ctx, params); err != nil && !errors.Is(err, store.ErrSuperseded) {
			return mcp.NewToolResultError(err.Error()), nil
		}

		snap := st.Engine().Snapshot()
		return jsonResult(map[string]any{
			"version":    snap.Version,
			"count":      len(snap.Tasks),
			"pagination": st.Pagination(),
			"completion": snap.CompletionSummary(),
		})
	}
}

func getBoardHandler(registry *session.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(sessionStore(registry, request).Engine().Snapshot().Board())
	}
}

func getStatusGroupsHandler(registry *session.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(map[string]any{"groups": sessionStore(registry, request).Engine().GroupByStatus()})
	}
}

func getPriorityGroupsHandler(registry *session.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(map[string]any{"groups": sessionStore(registry, request).Engine().GroupByPriority()})
	}
}

func getAssigneeGroupsHandler(registry *session.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		groups := taskview.AssigneeGroups(sessionStore(registry, request).Engine().GroupByAssignee())
		return jsonResult(map[string]any{"groups": groups})
	}
}

func getCompletionHandler(registry *session.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(sessionStore(registry, request).Engine().Snapshot().CompletionSummary())
	}
}

func listOverdueTasksHandler(registry *session.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tasks := taskview.NonNil(sessionStore(registry, request).Engine().OverdueTasks())
		return jsonResult(map[string]any{"tasks": tasks})
	}
}

func listUpcomingDeadlinesHandler(registry *session.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		engine := sessionStore(registry, request).Engine()

		args, _ := request.Params.Arguments.(map[string]any)
		if _, ok := args["days"]; !ok {
			snap := engine.Snapshot()
			return jsonResult(map[string]any{
				"window_days": snap.UpcomingWindowDays,
				"tasks":       taskview.NonNil(snap.Upcoming),
			})
		}

		days := mcp.ParseInt(request, "days", 0)
		if days <= 0 {
			return mcp.NewToolResultError("days must be a positive integer"), nil
		}
		return jsonResult(map[string]any{
			"window_days": days,
			"tasks":       taskview.NonNil(engine.UpcomingDeadlines(days)),
		})
	}
}

func parseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid due_date '%s': expected RFC 3339 or YYYY-MM-DD", s)
	}
	return &t, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func createTaskHandler(registry *session.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req := models.TaskRequest{
			ProjectID:   mcp.ParseString(request, "project_id", ""),
			Title:       mcp.ParseString(request, "title", ""),
			Description: mcp.ParseString(request, "description", ""),
			Status:      models.TaskStatus(mcp.ParseString(request, "status", string(models.TaskStatusTodo))),
			Priority:    models.TaskPriority(mcp.ParseString(request, "priority", string(models.TaskPriorityMedium))),
			Tags:        splitTags(mcp.ParseString(request, "tags", "")),
		}
		if assignee := mcp.ParseString(request, "assigned_to", ""); assignee != "" {
			req.AssignedTo = &assignee
		}
		due, err := parseDueDate(mcp.ParseString(request, "due_date", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.DueDate = due

		task, err := sessionStore(registry, request).Create(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(task)
	}
}

func updateTaskStatusHandler(registry *session.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "task_id", "")
		status := mcp.ParseString(request, "status", "")
		if !models.IsValidTaskStatus(status) {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid status '%s'", status)), nil
		}

		task, err := sessionStore(registry, request).UpdateStatus(ctx, id, models.TaskStatus(status))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(task)
	}
}

func assignTaskHandler(registry *session.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "task_id", "")
		userID := mcp.ParseString(request, "user_id", "")
		st := sessionStore(registry, request)

		var (
			task *models.Task
			err  error
		)
		if userID == "" {
			task, err = st.Unassign(ctx, id)
		} else {
			task, err = st.Assign(ctx, id, userID)
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(task)
	}
}

func deleteTaskHandler(registry *session.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "task_id", "")
		if err := sessionStore(registry, request).Delete(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task '%s' deleted.", id)), nil
	}
}

func listSessionsHandler(registry *session.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(map[string]any{"sessions": registry.IDs()})
	}
}

func closeSessionHandler(registry *session.Registry, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "session_id", session.DefaultID)
		if !registry.Close(id) {
			return mcp.NewToolResultError(fmt.Sprintf("Session '%s' not found", id)), nil
		}
		logger.Debug("session closed", "session_id", id)
		return mcp.NewToolResultText(fmt.Sprintf("Session '%s' closed.", id)), nil
	}
}
