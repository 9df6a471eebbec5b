package controllers

import (
	"net/http"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	"github.com/angelmondragon/shopfront-backend/internal/auth"
	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerPayload struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
	Avatar   string `json:"avatar,omitempty"`
}

// AuthLogin establishes a session against the remote auth service.
func AuthLogin(session *auth.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if session == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth unavailable"))
			return
		}

		var payload loginPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := session.Login(ctx, payload.Email, payload.Password)
		if err != nil {
			responses.WriteErrorUsing(ctx, logg, w, err, session)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// AuthRegister creates a new account.
func AuthRegister(session *auth.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if session == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth unavailable"))
			return
		}

		var payload registerPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := session.Register(ctx, catalog.NewUser{
			Name:     payload.Name,
			Email:    payload.Email,
			Password: payload.Password,
			Avatar:   payload.Avatar,
		})
		if err != nil {
			responses.WriteErrorUsing(ctx, logg, w, err, session)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// AuthProfile fetches the remote profile for the active session.
func AuthProfile(session *auth.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if session == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth unavailable"))
			return
		}

		user, err := session.Profile(ctx)
		if err != nil {
			responses.WriteErrorUsing(ctx, logg, w, err, session)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// AuthRefresh rotates the stored token pair.
func AuthRefresh(session *auth.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if session == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth unavailable"))
			return
		}

		if err := session.Refresh(ctx); err != nil {
			responses.WriteErrorUsing(ctx, logg, w, err, session)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "refreshed"})
	}
}

// AuthLogout discards the session.
func AuthLogout(session *auth.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if session == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth unavailable"))
			return
		}

		if err := session.Logout(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthSession reports the locally persisted session state without a remote
// call.
func AuthSession(session *auth.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if session == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth unavailable"))
			return
		}

		user, err := session.CurrentUser(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"authenticated": session.IsAuthenticated(ctx),
			"user":          user,
		})
	}
}
