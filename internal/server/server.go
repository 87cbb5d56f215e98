package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ldi/taskake/embed/web_assets"
	"github.com/ldi/taskake/internal/store"
	"github.com/ldi/taskake/internal/taskview"
	"github.com/ldi/taskake/pkg/models"
)

type Server struct {
	store  *store.TaskStore
	logger *slog.Logger
	server *http.Server
}

func NewServer(st *store.TaskStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: st, logger: logger}
}

// Handler returns the routes without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("GET /api/tasks", s.handleTasks)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleTask)
	mux.HandleFunc("GET /api/board", s.handleBoard)
	mux.HandleFunc("GET /api/board/status", s.handleStatusGroups)
	mux.HandleFunc("GET /api/board/priority", s.handlePriorityGroups)
	mux.HandleFunc("GET /api/board/assignee", s.handleAssigneeGroups)
	mux.HandleFunc("GET /api/completion", s.handleCompletion)
	mux.HandleFunc("GET /api/overdue", s.handleOverdue)
	mux.HandleFunc("GET /api/upcoming", s.handleUpcoming)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)

	// Static files
	mux.Handle("GET /", http.FileServer(http.FS(web_assets.Assets)))

	return mux
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("serving task board", "addr", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type taskListResponse struct {
	Tasks      []models.Task     `json:"tasks"`
	Pagination models.Pagination `json:"pagination"`
}

type deadlinesResponse struct {
	Count      int           `json:"count"`
	WindowDays int           `json:"window_days,omitempty"`
	Tasks      []models.Task `json:"tasks"`
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, taskListResponse{
		Tasks:      taskview.NonNil(s.store.Engine().Tasks()),
		Pagination: s.store.Pagination(),
	})
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	task, ok := s.store.Engine().Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "task not found: "+id)
		return
	}
	s.respond(w, http.StatusOK, task)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.store.Engine().Snapshot().Board())
}

func (s *Server) handleStatusGroups(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.store.Engine().GroupByStatus())
}

func (s *Server) handlePriorityGroups(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.store.Engine().GroupByPriority())
}

func (s *Server) handleAssigneeGroups(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, taskview.AssigneeGroups(s.store.Engine().GroupByAssignee()))
}

func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.store.Engine().Snapshot().CompletionSummary())
}

func (s *Server) handleOverdue(w http.ResponseWriter, r *http.Request) {
	tasks := taskview.NonNil(s.store.Engine().OverdueTasks())
	s.respond(w, http.StatusOK, deadlinesResponse{Count: len(tasks), Tasks: tasks})
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	engine := s.store.Engine()

	var (
		tasks []models.Task
		days  int
	)
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
		tasks = engine.UpcomingDeadlines(days)
	} else {
		snap := engine.Snapshot()
		days = snap.UpcomingWindowDays
		tasks = snap.Upcoming
	}

	tasks = taskview.NonNil(tasks)
	s.respond(w, http.StatusOK, deadlinesResponse{Count: len(tasks), WindowDays: days, Tasks: tasks})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	err := s.store.Refresh(r.Context())
	if err != nil && !errors.Is(err, store.ErrSuperseded) {
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respond(w, http.StatusOK, s.store.Engine().Snapshot().Board())
}

func (s *Server) respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("error encoding response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respond(w, status, map[string]string{"error": msg})
}
