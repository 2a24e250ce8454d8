package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/devops-thiago/otel-example-go/internal/repository"
	"github.com/devops-thiago/otel-example-go/internal/service"
	"github.com/devops-thiago/otel-example-go/platform/observability"
)

// Handler holds the HTTP handlers for the user API. It depends on the
// service layer only; telemetry is attached by middleware around it.
type Handler struct {
	userService *service.UserService
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewHandler creates the user API handler.
func NewHandler(userService *service.UserService, logger *zap.Logger) *Handler {
	return &Handler{
		userService: userService,
		validate:    validator.New(),
		logger:      logger,
	}
}

// CreateUserRequest is the POST /api/users payload.
type CreateUserRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=100"`
	Email string  `json:"email" validate:"required,email"`
	Bio   *string `json:"bio"`
}

// UpdateUserRequest is the PUT /api/users/{id} payload; absent fields are
// left unchanged.
type UpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email *string `json:"email" validate:"omitempty,email"`
	Bio   *string `json:"bio"`
}

// UserResponse is the JSON shape of one user.
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Bio       *string   `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserListResponse is the GET /api/users envelope.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(u repository.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log(ctx)

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid JSON body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	user, err := h.userService.CreateUser(ctx, service.CreateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Bio:   req.Bio,
	})
	if err != nil {
		h.writeUserError(w, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(user))
}

// ListUsers handles GET /api/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.userService.ListUsers(ctx)
	if err != nil {
		h.writeUserError(w, h.log(ctx), err)
		return
	}

	resp := UserListResponse{
		Users: make([]UserResponse, 0, len(users)),
		Total: len(users),
	}
	for _, u := range users {
		resp.Users = append(resp.Users, toResponse(u))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetUser handles GET /api/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(ctx, id)
	if err != nil {
		h.writeUserError(w, h.log(ctx), err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(user))
}

// UpdateUser handles PUT /api/users/{id}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log(ctx)

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid JSON body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	user, err := h.userService.UpdateUser(ctx, id, repository.UserUpdate{
		Name:  req.Name,
		Email: req.Email,
		Bio:   req.Bio,
	})
	if err != nil {
		h.writeUserError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(user))
}

// DeleteUser handles DELETE /api/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(ctx, id); err != nil {
		h.writeUserError(w, h.log(ctx), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeUserError maps domain errors to HTTP status codes. Telemetry export
// failures never reach this path; only store and domain errors do.
func (h *Handler) writeUserError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
	case errors.Is(err, repository.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "user with this email already exists"})
	default:
		log.Error("Request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// log prefers the request-scoped logger placed in the context by the
// observability middleware, so handler records carry trace correlation.
func (h *Handler) log(ctx context.Context) *zap.Logger {
	if l := observability.LoggerFromContext(ctx); l != nil {
		return l
	}
	return h.logger
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "user id must be an integer"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
