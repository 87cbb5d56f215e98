package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ldi/taskake/internal/config"
	"github.com/ldi/taskake/pkg/models"
)

const (
	testOrg  = "7f1e2c3a-0000-4000-8000-000000000001"
	testUser = "7f1e2c3a-0000-4000-8000-0000000000aa"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *int32) {
	t.Helper()
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected JSON content type, got %q", got)
		}
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	cfg := &config.Config{
		APIURL:      ts.URL + "/",
		OrgID:       testOrg,
		Token:       "test-token",
		HTTPTimeout: 5 * time.Second,
	}
	return New(cfg, nil), &hits
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestClient_Tasks(t *testing.T) {
	base := "/organizations/" + testOrg + "/taskodex"
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+base+"/tasks", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("status"); got != "todo" {
			t.Errorf("expected status filter, got %q", got)
		}
		writeJSON(t, w, http.StatusOK, models.TaskList{
			Tasks:      []models.Task{{ID: "t-1", Status: models.TaskStatusTodo}},
			Pagination: models.Pagination{Total: 1, Page: 1, PageSize: 20, TotalPages: 1},
		})
	})
	mux.HandleFunc("GET "+base+"/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			writeJSON(t, w, http.StatusNotFound, map[string]string{"message": "Task not found"})
			return
		}
		writeJSON(t, w, http.StatusOK, models.Task{ID: r.PathValue("id")})
	})
	mux.HandleFunc("POST "+base+"/tasks", func(w http.ResponseWriter, r *http.Request) {
		var req models.TaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		writeJSON(t, w, http.StatusCreated, models.Task{ID: "t-new", Title: req.Title, Status: req.Status, Priority: req.Priority})
	})
	mux.HandleFunc("PUT "+base+"/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		if _, ok := body["ClearDueDate"]; ok {
			t.Error("local-only patch fields must not be sent")
		}
		writeJSON(t, w, http.StatusOK, models.Task{ID: r.PathValue("id"), Title: body["title"].(string)})
	})
	mux.HandleFunc("DELETE "+base+"/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST "+base+"/tasks/{id}/assign", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		userID := body["user_id"]
		writeJSON(t, w, http.StatusOK, models.Task{ID: r.PathValue("id"), AssignedTo: &userID})
	})
	mux.HandleFunc("POST "+base+"/tasks/{id}/unassign", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, models.Task{ID: r.PathValue("id")})
	})
	mux.HandleFunc("PUT "+base+"/tasks/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(t, w, http.StatusOK, models.Task{ID: r.PathValue("id"), Status: models.TaskStatus(body["status"])})
	})
	mux.HandleFunc("GET "+base+"/tasks/overdue", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"tasks": nil})
	})
	mux.HandleFunc("GET "+base+"/tasks/due-soon/{days}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("days") != "3" {
			t.Errorf("expected days 3, got %s", r.PathValue("days"))
		}
		writeJSON(t, w, http.StatusOK, models.TaskList{Tasks: []models.Task{{ID: "soon"}}})
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	t.Run("ListTasks", func(t *testing.T) {
		list, err := client.ListTasks(ctx, models.TaskListParams{Status: models.TaskStatusTodo})
		if err != nil {
			t.Fatalf("ListTasks failed: %v", err)
		}
		if len(list.Tasks) != 1 || list.Tasks[0].ID != "t-1" || list.Pagination.Total != 1 {
			t.Errorf("unexpected list: %+v", list)
		}
	})

	t.Run("GetTask", func(t *testing.T) {
		task, err := client.GetTask(ctx, "t-1")
		if err != nil {
			t.Fatalf("GetTask failed: %v", err)
		}
		if task.ID != "t-1" {
			t.Errorf("expected t-1, got %s", task.ID)
		}
	})

	t.Run("GetTask not found", func(t *testing.T) {
		_, err := client.GetTask(ctx, "missing")
		if !IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %T", err)
		}
		if apiErr.Error() != "failed to fetch task: Not Found" {
			t.Errorf("unexpected message %q", apiErr.Error())
		}
		if apiErr.Message != "Task not found" {
			t.Errorf("expected server message, got %q", apiErr.Message)
		}
	})

	t.Run("CreateTask", func(t *testing.T) {
		task, err := client.CreateTask(ctx, models.TaskRequest{
			Title:    "Write docs",
			Status:   models.TaskStatusTodo,
			Priority: models.TaskPriorityHigh,
		})
		if err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
		if task.ID != "t-new" || task.Title != "Write docs" {
			t.Errorf("unexpected task: %+v", task)
		}
	})

	t.Run("UpdateTask", func(t *testing.T) {
		title := "Renamed"
		task, err := client.UpdateTask(ctx, "t-1", models.TaskPatch{Title: &title, ClearDueDate: true})
		if err != nil {
			t.Fatalf("UpdateTask failed: %v", err)
		}
		if task.Title != "Renamed" {
			t.Errorf("expected renamed task, got %+v", task)
		}
	})

	t.Run("DeleteTask", func(t *testing.T) {
		if err := client.DeleteTask(ctx, "t-1"); err != nil {
			t.Fatalf("DeleteTask failed: %v", err)
		}
	})

	t.Run("AssignTask and UnassignTask", func(t *testing.T) {
		task, err := client.AssignTask(ctx, "t-1", testUser)
		if err != nil {
			t.Fatalf("AssignTask failed: %v", err)
		}
		if task.AssignedTo == nil || *task.AssignedTo != testUser {
			t.Errorf("expected assignment, got %+v", task.AssignedTo)
		}
		task, err = client.UnassignTask(ctx, "t-1")
		if err != nil {
			t.Fatalf("UnassignTask failed: %v", err)
		}
		if task.AssigneeKey() != models.Unassigned() {
			t.Errorf("expected unassigned task, got %v", task.AssigneeKey())
		}
	})

	t.Run("UpdateTaskStatus", func(t *testing.T) {
		task, err := client.UpdateTaskStatus(ctx, "t-1", models.TaskStatusReview)
		if err != nil {
			t.Fatalf("UpdateTaskStatus failed: %v", err)
		}
		if task.Status != models.TaskStatusReview {
			t.Errorf("expected review, got %s", task.Status)
		}
	})

	t.Run("ListOverdueTasks normalizes empty response", func(t *testing.T) {
		list, err := client.ListOverdueTasks(ctx, models.TaskListParams{})
		if err != nil {
			t.Fatalf("ListOverdueTasks failed: %v", err)
		}
		if list.Tasks == nil || len(list.Tasks) != 0 {
			t.Errorf("expected empty non-nil tasks, got %#v", list.Tasks)
		}
		if list.Pagination != models.DefaultPagination() {
			t.Errorf("expected default pagination, got %+v", list.Pagination)
		}
	})

	t.Run("ListTasksDueSoon", func(t *testing.T) {
		list, err := client.ListTasksDueSoon(ctx, 3, models.TaskListParams{})
		if err != nil {
			t.Fatalf("ListTasksDueSoon failed: %v", err)
		}
		if len(list.Tasks) != 1 || list.Tasks[0].ID != "soon" {
			t.Errorf("unexpected list: %+v", list.Tasks)
		}
	})
}

func TestClient_InvalidRequestsSendNothing(t *testing.T) {
	client, hits := newTestClient(t, http.NotFoundHandler())
	ctx := context.Background()
	badStatus := models.TaskStatus("blocked")

	tests := []struct {
		name string
		call func() error
	}{
		{"empty id", func() error { _, err := client.GetTask(ctx, ""); return err }},
		{"short title", func() error {
			_, err := client.CreateTask(ctx, models.TaskRequest{Title: "x", Status: models.TaskStatusTodo, Priority: models.TaskPriorityLow})
			return err
		}},
		{"unknown priority", func() error {
			_, err := client.CreateTask(ctx, models.TaskRequest{Title: "valid", Status: models.TaskStatusTodo, Priority: "urgent"})
			return err
		}},
		{"assignee not a uuid", func() error {
			bad := "bob"
			_, err := client.CreateTask(ctx, models.TaskRequest{Title: "valid", Status: models.TaskStatusTodo, Priority: models.TaskPriorityLow, AssignedTo: &bad})
			return err
		}},
		{"patch with bad status", func() error {
			_, err := client.UpdateTask(ctx, "t-1", models.TaskPatch{Status: &badStatus})
			return err
		}},
		{"status endpoint with bad status", func() error { _, err := client.UpdateTaskStatus(ctx, "t-1", badStatus); return err }},
		{"assign without user", func() error { _, err := client.AssignTask(ctx, "t-1", ""); return err }},
		{"page size too large", func() error { _, err := client.ListTasks(ctx, models.TaskListParams{PageSize: 500}); return err }},
		{"bad sort order", func() error { _, err := client.ListTasks(ctx, models.TaskListParams{SortOrder: "up"}); return err }},
		{"negative due-soon days", func() error { _, err := client.ListTasksDueSoon(ctx, -1, models.TaskListParams{}); return err }},
		{"negative activity limit", func() error { _, err := client.GetProjectActivity(ctx, "p-1", -5); return err }},
		{"empty delete id", func() error { return client.DeleteTask(ctx, "") }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}

	if n := atomic.LoadInt32(hits); n != 0 {
		t.Errorf("expected no requests for invalid input, got %d", n)
	}
}

func TestClient_Projects(t *testing.T) {
	base := "/organizations/" + testOrg + "/taskodex"
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+base+"/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, models.Project{ID: r.PathValue("id"), Name: "Launch"})
	})
	mux.HandleFunc("GET "+base+"/projects", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("status") != "active" {
			t.Errorf("expected status filter, got %q", r.URL.RawQuery)
		}
		writeJSON(t, w, http.StatusOK, models.ProjectList{Projects: []models.Project{{ID: "p-1"}}})
	})
	mux.HandleFunc("GET "+base+"/projects/{id}/tasks", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("project_id") {
			t.Error("project_id must come from the path only")
		}
		if r.URL.Query().Get("page_size") != "100" {
			t.Errorf("expected page_size 100, got %q", r.URL.Query().Get("page_size"))
		}
		writeJSON(t, w, http.StatusOK, models.TaskList{Tasks: []models.Task{{ID: "t-1", ProjectID: r.PathValue("id")}}})
	})
	mux.HandleFunc("GET "+base+"/projects/{id}/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tasksByStatus":[{"status":"done","count":2}],"completionPercentage":40,"totalTasks":5,"completedTasks":2,"overdueTasks":1,"upcomingDeadlines":[]}`))
	})
	mux.HandleFunc("GET "+base+"/projects/{id}/activity", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("expected default limit 10, got %q", got)
		}
		writeJSON(t, w, http.StatusOK, models.ProjectActivityList{Activities: []models.ProjectActivity{{ID: "a-1", Action: "created"}}})
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	project, err := client.GetProject(ctx, "p-1")
	if err != nil || project.Name != "Launch" {
		t.Fatalf("GetProject: %+v, %v", project, err)
	}

	projects, err := client.ListProjects(ctx, models.ProjectListParams{Status: models.ProjectStatusActive})
	if err != nil || len(projects.Projects) != 1 {
		t.Fatalf("ListProjects: %+v, %v", projects, err)
	}

	tasks, err := client.GetProjectTasks(ctx, "p-1", models.TaskListParams{ProjectID: "ignored", PageSize: 100})
	if err != nil || len(tasks.Tasks) != 1 || tasks.Tasks[0].ProjectID != "p-1" {
		t.Fatalf("GetProjectTasks: %+v, %v", tasks, err)
	}

	stats, err := client.GetProjectStats(ctx, "p-1")
	if err != nil {
		t.Fatalf("GetProjectStats failed: %v", err)
	}
	if stats.CompletionPercentage != 40 || stats.TotalTasks != 5 || len(stats.TasksByStatus) != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	activity, err := client.GetProjectActivity(ctx, "p-1", 0)
	if err != nil || len(activity) != 1 || activity[0].Action != "created" {
		t.Fatalf("GetProjectActivity: %+v, %v", activity, err)
	}
}

func TestClient_Users(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, models.User{ID: testUser, Email: "me@example.com"})
	})
	mux.HandleFunc("GET /organizations/{org}/users", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("org") != testOrg {
			t.Errorf("expected org %s, got %s", testOrg, r.PathValue("org"))
		}
		writeJSON(t, w, http.StatusOK, models.UserList{Users: []models.User{{ID: testUser}}})
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	me, err := client.GetCurrentUser(ctx)
	if err != nil || me.Email != "me@example.com" {
		t.Fatalf("GetCurrentUser: %+v, %v", me, err)
	}
	users, err := client.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("ListUsers: %+v, %v", users, err)
	}
}

func TestClient_ServerErrorStatusText(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.ListTasks(context.Background(), models.TaskListParams{})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "failed to fetch tasks: Internal Server Error" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if IsNotFound(err) {
		t.Error("500 must not be reported as not found")
	}
}
