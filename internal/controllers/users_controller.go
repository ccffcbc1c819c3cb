package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/portalteam/approvalflow/internal/engine"
	"github.com/portalteam/approvalflow/internal/util"
	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
)

type UsersController struct {
	AuthController
}

func NewUsersController(userRepo engine.UserRepo) *UsersController {
	return &UsersController{
		AuthController: AuthController{UserRepo: userRepo},
	}
}

// RegisterRoutes wires up the HTTP routes for this controller
func (c *UsersController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users", c.RequireAuth(c.handleGetUsers))
	mux.HandleFunc("POST /api/users", c.RequireAuth(c.handleCreateUser))
	mux.HandleFunc("GET /api/users/{id}", c.RequireAuth(c.handleGetUserById))
	mux.HandleFunc("DELETE /api/users/{id}", c.RequireAuth(c.handleDeleteUser))
}

// handleGetUsers returns all users
func (c *UsersController) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.UserRepo.FindAll()
	if err != nil {
		slog.Error("Failed to get users", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "Failed to get users")
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, users)
}

// handleCreateUser creates a new user, hashing the provided password.
func (c *UsersController) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	user, err := util.DecodeJSONBody[domain.User](r)
	if err != nil || user.Username == "" || user.Password == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid user data")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	user.Password = string(hashedPassword)

	id, err := c.UserRepo.Save(&user)
	if err != nil {
		slog.Error("Failed to create user", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user.ID = id
	user.Password = ""
	util.WriteJSONResponse(w, http.StatusCreated, user)
}

// handleGetUserById gets a user by their ID
func (c *UsersController) handleGetUserById(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := c.UserRepo.FindById(id)
	if err != nil {
		slog.Error("Failed to get user", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}
	if user == nil {
		util.WriteJSONError(w, http.StatusNotFound, "User not found")
		return
	}
	user.Password = ""
	util.WriteJSONResponse(w, http.StatusOK, user)
}

// handleDeleteUser deletes a user by ID
func (c *UsersController) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := c.UserRepo.DeleteById(id); err != nil {
		slog.Error("Failed to delete user", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
