package httpapi

import (
	"net/http"
	"strings"
	"time"

	"taskgrid.org/internal/auth"
	"taskgrid.org/internal/task"
)

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ProjectID   string     `json:"projectId"`
	DueDate     *time.Time `json:"dueDate"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	ProjectID   *string    `json:"projectId"`
	DueDate     *time.Time `json:"dueDate"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type assignRequest struct {
	UserID string `json:"userId"`
}

type taskView struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Assignees   []string   `json:"assignees"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func viewTask(t *task.Task) taskView {
	assignees := t.AssignedUserIDs
	if assignees == nil {
		assignees = []string{}
	}
	return taskView{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status.String(),
		DueDate:     t.DueDate,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
		Assignees:   assignees,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (a *API) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensureCapability(w, r, auth.CapViewTasks) {
			return
		}
		page, pageSize := pagination(r)
		items, err := a.tasks.ListTasks(r.Context(), page, pageSize)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		views := make([]taskView, 0, len(items))
		for _, t := range items {
			views = append(views, viewTask(t))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": views, "page": page})
	case http.MethodPost:
		if !a.ensureCapability(w, r, auth.CapManageTasks) {
			return
		}
		var req createTaskRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		t, err := a.tasks.CreateTask(r.Context(), task.CreateTaskInput{
			Title:       req.Title,
			Description: req.Description,
			ProjectID:   req.ProjectID,
			DueDate:     req.DueDate,
		})
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		w.Header().Set("Location", "/api/tasks/"+t.ID)
		writeJSON(w, http.StatusCreated, viewTask(t))
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTaskScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tasks/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	id := parts[0]

	switch len(parts) {
	case 1:
		a.handleTaskByID(w, r, id)
	case 2:
		switch parts[1] {
		case "status":
			a.handleTaskStatus(w, r, id)
		case "assign":
			a.handleTaskAssign(w, r, id)
		case "comments":
			a.handleTaskComments(w, r, id)
		default:
			writeError(w, r, http.StatusNotFound, "resource not found")
		}
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleTaskByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensureCapability(w, r, auth.CapViewTasks) {
			return
		}
		t, err := a.tasks.GetTask(r.Context(), id)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, viewTask(t))
	case http.MethodPut:
		if !a.ensureCapability(w, r, auth.CapManageTasks) {
			return
		}
		var req updateTaskRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		t, err := a.tasks.UpdateTask(r.Context(), id, task.TaskUpdate{
			Title:       req.Title,
			Description: req.Description,
			ProjectID:   req.ProjectID,
			DueDate:     req.DueDate,
		})
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, viewTask(t))
	case http.MethodDelete:
		if !a.ensureCapability(w, r, auth.CapManageTasks) {
			return
		}
		if err := a.tasks.DeleteTask(r.Context(), id); err != nil {
			handleDomainError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleTaskStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	if !a.ensureCapability(w, r, auth.CapManageTasks) {
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	requested, err := task.ParseStatus(req.Status)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	t, err := a.tasks.AdvanceTaskStatus(r.Context(), id, requested)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewTask(t))
}

func (a *API) handleTaskAssign(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.ensureCapability(w, r, auth.CapManageTasks) {
		return
	}
	var req assignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, r, http.StatusBadRequest, "userId is required")
		return
	}
	t, err := a.tasks.AssignTask(r.Context(), id, req.UserID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewTask(t))
}
