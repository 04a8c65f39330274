package httpapi

import (
	"net/http"
	"strings"
	"time"

	"taskgrid.org/internal/auth"
	"taskgrid.org/internal/task"
)

type createProjectRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
}

type updateProjectRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
}

type projectView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Assignees   []string   `json:"assignees"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func viewProject(p *task.Project) projectView {
	assignees := p.AssignedUserIDs
	if assignees == nil {
		assignees = []string{}
	}
	return projectView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		DueDate:     p.DueDate,
		Status:      p.Status.String(),
		StartedAt:   p.StartedAt,
		CompletedAt: p.CompletedAt,
		Assignees:   assignees,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (a *API) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensureCapability(w, r, auth.CapViewTasks) {
			return
		}
		page, pageSize := pagination(r)
		items, err := a.tasks.ListProjects(r.Context(), page, pageSize)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		views := make([]projectView, 0, len(items))
		for _, p := range items {
			views = append(views, viewProject(p))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": views, "page": page})
	case http.MethodPost:
		if !a.ensureCapability(w, r, auth.CapManageProjects) {
			return
		}
		var req createProjectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		p, err := a.tasks.CreateProject(r.Context(), task.CreateProjectInput{
			Name:        req.Name,
			Description: req.Description,
			DueDate:     req.DueDate,
		})
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		w.Header().Set("Location", "/api/projects/"+p.ID)
		writeJSON(w, http.StatusCreated, viewProject(p))
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProjectScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/projects/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	id := parts[0]

	switch len(parts) {
	case 1:
		a.handleProjectByID(w, r, id)
	case 2:
		switch parts[1] {
		case "status":
			a.handleProjectStatus(w, r, id)
		case "assign":
			a.handleProjectAssign(w, r, id)
		case "comments":
			a.handleProjectComments(w, r, id)
		default:
			writeError(w, r, http.StatusNotFound, "resource not found")
		}
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleProjectByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensureCapability(w, r, auth.CapViewTasks) {
			return
		}
		p, err := a.tasks.GetProject(r.Context(), id)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, viewProject(p))
	case http.MethodPut:
		if !a.ensureCapability(w, r, auth.CapManageProjects) {
			return
		}
		var req updateProjectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		p, err := a.tasks.UpdateProject(r.Context(), id, task.ProjectUpdate{
			Name:        req.Name,
			Description: req.Description,
			DueDate:     req.DueDate,
		})
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, viewProject(p))
	case http.MethodDelete:
		if !a.ensureCapability(w, r, auth.CapManageProjects) {
			return
		}
		if err := a.tasks.DeleteProject(r.Context(), id); err != nil {
			handleDomainError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleProjectStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	if !a.ensureCapability(w, r, auth.CapManageProjects) {
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
	p, err := a.tasks.AdvanceProjectStatus(r.Context(), id, requested)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewProject(p))
}

func (a *API) handleProjectAssign(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.ensureCapability(w, r, auth.CapManageProjects) {
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
	p, err := a.tasks.AssignProject(r.Context(), id, req.UserID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewProject(p))
}
