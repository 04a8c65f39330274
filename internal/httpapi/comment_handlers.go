package httpapi

import (
	"net/http"
	"strings"
	"time"

	"taskgrid.org/internal/auth"
	"taskgrid.org/internal/task"
)

type commentRequest struct {
	Body string `json:"body"`
}

type commentView struct {
	ID        string    `json:"id"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entityId"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func viewComment(c *task.Comment) commentView {
	return commentView{
		ID:        c.ID,
		Entity:    c.Entity,
		EntityID:  c.EntityID,
		AuthorID:  c.AuthorID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (a *API) handleTaskComments(w http.ResponseWriter, r *http.Request, id string) {
	a.handleComments(w, r,
		func(page, pageSize int) ([]*task.Comment, error) {
			return a.tasks.ListTaskComments(r.Context(), id, page, pageSize)
		},
		func(body string) (*task.Comment, error) {
			return a.tasks.AddTaskComment(r.Context(), id, body)
		})
}

func (a *API) handleProjectComments(w http.ResponseWriter, r *http.Request, id string) {
	a.handleComments(w, r,
		func(page, pageSize int) ([]*task.Comment, error) {
			return a.tasks.ListProjectComments(r.Context(), id, page, pageSize)
		},
		func(body string) (*task.Comment, error) {
			return a.tasks.AddProjectComment(r.Context(), id, body)
		})
}

func (a *API) handleComments(w http.ResponseWriter, r *http.Request,
	list func(page, pageSize int) ([]*task.Comment, error),
	add func(body string) (*task.Comment, error)) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensureCapability(w, r, auth.CapViewTasks) {
			return
		}
		page, pageSize := pagination(r)
		items, err := list(page, pageSize)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		views := make([]commentView, 0, len(items))
		for _, c := range items {
			views = append(views, viewComment(c))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": views, "page": page})
	case http.MethodPost:
		if !a.ensureCapability(w, r, auth.CapViewTasks) {
			return
		}
		var req commentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		c, err := add(req.Body)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, viewComment(c))
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleCommentScoped serves PUT and DELETE on a single comment. Authorship
// rules live in the service; the handler only needs an authenticated viewer.
func (a *API) handleCommentScoped(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/comments/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if !a.ensureCapability(w, r, auth.CapViewTasks) {
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req commentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		c, err := a.tasks.UpdateComment(r.Context(), id, req.Body)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, viewComment(c))
	case http.MethodDelete:
		if err := a.tasks.DeleteComment(r.Context(), id); err != nil {
			handleDomainError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
	}
}
