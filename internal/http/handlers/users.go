package handlers

import (
	"net/http"
	"time"

	"github.com/hongminglow/lapse-be/internal/http/respond"
	"github.com/hongminglow/lapse-be/internal/models"
	"github.com/hongminglow/lapse-be/internal/models/dto"
	"github.com/hongminglow/lapse-be/internal/service"
)

// UserHandler serves account registration, login and profile routes.
type UserHandler struct {
	users   *service.UserService
	timeout time.Duration
}

// NewUserHandler constructs the handler.
func NewUserHandler(users *service.UserService, timeout time.Duration) *UserHandler {
	return &UserHandler{users: users, timeout: timeout}
}

// Register attaches user routes to the mux.
func (h *UserHandler) Register(mux *http.ServeMux, g Guards) {
	mux.Handle("POST /users", g.rateLimited(h.handleRegister))
	mux.Handle("POST /users/login", g.rateLimited(h.handleLogin))
	mux.Handle("GET /users/profile", g.authenticated(h.handleProfile))
	mux.Handle("PUT /users/profile", g.authenticated(h.handleUpdateProfile))
	mux.Handle("PUT /users/profile/password", g.authenticated(h.handleChangePassword))
	mux.Handle("GET /users", g.admin(h.handleList))
	mux.Handle("GET /users/{id}", g.authenticated(h.handleGet))
	mux.Handle("DELETE /users/{id}", g.authenticated(h.handleDelete))
}

func (h *UserHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	created, err := h.users.Register(ctx, service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Image:    req.Image,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "User created successfully", respond.Fields{"user": created})
}

func (h *UserHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	res, err := h.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Login successful", respond.Fields{"token": res.Token, "user": res.User})
}

func (h *UserHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	u, err := h.users.Profile(ctx, c.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "", respond.Fields{"user": u})
}

func (h *UserHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch models.UserPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	u, err := h.users.UpdateProfile(ctx, c.UserID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Profile updated successfully", respond.Fields{"user": u})
}

func (h *UserHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req dto.ChangePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	if err := h.users.ChangePassword(ctx, c.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Password updated successfully", nil)
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	users, err := h.users.List(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "", respond.Fields{"users": nonNil(users)})
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
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

	u, err := h.users.Get(ctx, c, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "", respond.Fields{"user": u})
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.users.Delete(ctx, c, id); err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "User deleted successfully", nil)
}
