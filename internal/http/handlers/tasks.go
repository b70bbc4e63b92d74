package handlers

import (
	"net/http"
	"time"

	"github.com/hongminglow/lapse-be/internal/http/respond"
	"github.com/hongminglow/lapse-be/internal/models/dto"
	"github.com/hongminglow/lapse-be/internal/service"
)

// TaskHandler serves the task board routes.
type TaskHandler struct {
	tasks   *service.TaskService
	timeout time.Duration
}

func NewTaskHandler(tasks *service.TaskService, timeout time.Duration) *TaskHandler {
	return &TaskHandler{tasks: tasks, timeout: timeout}
}

// Register attaches task routes to the mux.
func (h *TaskHandler) Register(mux *http.ServeMux, g Guards) {
	mux.Handle("POST /tasks", g.authenticated(h.handleCreate))
	mux.Handle("GET /tasks", g.authenticated(h.handleList))
	mux.Handle("GET /tasks/{id}", g.authenticated(h.handleGet))
	mux.Handle("PUT /tasks/{id}", g.authenticated(h.handleUpdate))
	mux.Handle("DELETE /tasks/{id}", g.authenticated(h.handleDelete))
	mux.Handle("GET /admin/tasks", g.admin(h.handleListAll))
}

func (h *TaskHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req dto.CreateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	due, err := req.ParsedDueDate()
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	task, err := h.tasks.Create(ctx, c.UserID, service.NewTask{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     due,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "Task created successfully", respond.Fields{"task": task})
}

func (h *TaskHandler) handleList(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	tasks, err := h.tasks.List(ctx, c.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "", respond.Fields{"tasks": nonNil(tasks)})
}

func (h *TaskHandler) handleListAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	tasks, err := h.tasks.ListAll(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "", respond.Fields{"tasks": nonNil(tasks)})
}

func (h *TaskHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	task, err := h.tasks.Get(ctx, c, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "", respond.Fields{"task": task})
}

func (h *TaskHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req dto.UpdateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	task, err := h.tasks.Update(ctx, c, id, req.Patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Task updated successfully", respond.Fields{"task": task})
}

func (h *TaskHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	if err := h.tasks.Delete(ctx, c, id); err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Task deleted successfully", nil)
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
