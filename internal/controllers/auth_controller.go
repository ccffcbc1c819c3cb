package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/portalteam/approvalflow/internal/config"
	"github.com/portalteam/approvalflow/internal/engine"
	"github.com/portalteam/approvalflow/internal/util"
	"github.com/portalteam/approvalflow/pkg/approvalflow/core"
	"github.com/portalteam/approvalflow/pkg/approvalflow/models"
)

type AuthController struct {
	UserRepo engine.UserRepo
}

func NewAuthController(userRepo engine.UserRepo) *AuthController {
	return &AuthController{UserRepo: userRepo}
}

// RequireAuth authenticates via session cookie or X-API-Key header and
// stores the username on the request context.
func (c *AuthController) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// 1) Try session cookie
		if cookie, err := r.Cookie("sessionId"); err == nil && cookie.Value != "" {
			u, err := c.UserRepo.FindBySessionID(cookie.Value, time.Now().UTC())
			if err == nil && u != nil {
				ctx := context.WithValue(r.Context(), core.CtxKeyUsername, u.Username)
				next(w, r.WithContext(ctx))
				return
			}
		}
		// 2) Try API key from headers
		apiKey := r.Header.Get("X-API-Key")
		if apiKey != "" {
			u, err := c.UserRepo.FindByApiKey(apiKey)
			if err == nil && u != nil {
				ctx := context.WithValue(r.Context(), core.CtxKeyUsername, u.Username)
				next(w, r.WithContext(ctx))
				return
			}
		}
		util.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
	}
}

func (c *AuthController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /login", c.handleLogin)
	mux.HandleFunc("POST /logout", c.handleLogout)
}

func (c *AuthController) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := util.DecodeJSONBody[models.LoginRequest](r)
	if err != nil || req.Username == "" || req.Password == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	u, err := c.UserRepo.FindByUsername(req.Username)
	if err != nil || u == nil || !u.Enabled.Bool {
		util.WriteJSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sessionID := uuid.NewString()
	expiry := time.Now().UTC().Add(time.Duration(config.GetSystemSettingInteger(config.WEB_SESSION_EXPIRY_HOURS)) * time.Hour)
	if err := c.UserRepo.UpdateSession(u.ID, sessionID, expiry); err != nil {
		slog.Error("Failed to update session", "username", u.Username, "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "sessionId",
		Value:    sessionID,
		Path:     "/",
		Expires:  expiry,
		HttpOnly: true,
	})
	util.WriteJSONResponse(w, http.StatusOK, models.LoginResponse{SessionID: sessionID})
}

func (c *AuthController) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("sessionId"); err == nil && cookie.Value != "" {
		if err := c.UserRepo.ClearSessionBySessionID(cookie.Value); err != nil {
			slog.Error("Failed to clear session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{Name: "sessionId", Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

// writeEngineError maps the engine error taxonomy to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrValidation):
		util.WriteJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrNotFound):
		util.WriteJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrForbidden):
		util.WriteJSONError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrConflict):
		util.WriteJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrInvalidState):
		util.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("Unhandled engine error", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// actorFromContext returns the authenticated username, if any.
func actorFromContext(ctx context.Context) string {
	if v := ctx.Value(core.CtxKeyUsername); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
