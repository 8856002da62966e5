package main

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/pradeepkasula/online-shopping-cart/api"
	"github.com/pradeepkasula/online-shopping-cart/validator"
)

// tempPasswordValidity is enforced server-side; surfaced here so the caller
// can tell the user how long the credential lasts.
const tempPasswordValidity = 15 * time.Minute

// loginPageHandler (GET /login) resets any existing session, the way the
// login screen clears stale state on entry.
func (fe *frontendServer) loginPageHandler(w http.ResponseWriter, r *http.Request) {
	fe.sessions.Reset()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logged_in": false,
	})
}

func (fe *frontendServer) loginSubmitHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	payload := validator.LoginPayload{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}
	if err := payload.Validate(); err != nil {
		renderAPIError(log, w, validator.ValidationErrorResponse(err))
		return
	}

	err := fe.sessions.Login(r.Context(), payload.Username, payload.Password)
	switch {
	case err == nil:
	case api.IsChangeRequired(err):
		// No session was created; the caller routes to the password-change
		// flow carrying the username forward.
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"change_required": true,
			"username":        payload.Username,
		})
		return
	case api.IsUnauthorized(err):
		log.WithField("username", payload.Username).Warn("invalid credentials")
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error": "Invalid username or password",
		})
		return
	default:
		renderAPIError(log, w, errors.Wrap(err, "login failed"))
		return
	}

	user, _ := fe.sessions.User()
	resp := map[string]interface{}{
		"logged_in": true,
		"username":  user.Username,
	}
	if exp, ok := fe.sessions.ExpiresAt(); ok {
		resp["expires_at"] = exp.Unix()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (fe *frontendServer) registerSubmitHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	payload := validator.SignupPayload{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
		Email:    r.FormValue("email"),
		FullName: r.FormValue("full_name"),
		Phone:    r.FormValue("phone"),
	}
	if err := payload.Validate(); err != nil {
		renderAPIError(log, w, validator.ValidationErrorResponse(err))
		return
	}

	err := fe.sessions.Signup(r.Context(), api.SignupRequest{
		Username: payload.Username,
		Password: payload.Password,
		Email:    payload.Email,
		FullName: payload.FullName,
		Phone:    payload.Phone,
	})
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "registration failed"))
		return
	}

	log.WithField("username", payload.Username).Info("user registered")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Registration successful! Please log in.",
	})
}

func (fe *frontendServer) forgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	username := r.FormValue("username")
	if username == "" {
		renderAPIError(log, w, api.ValidationError("username is required"))
		return
	}

	tempPassword, err := fe.sessions.ForgotPassword(r.Context(), username)
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "failed to generate temporary password"))
		return
	}

	// The temporary credential goes straight back to the caller; nothing
	// here retains it.
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tempPassword":   tempPassword,
		"expiresMinutes": int(tempPasswordValidity.Minutes()),
	})
}

func (fe *frontendServer) changePasswordHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	payload := validator.ChangePasswordPayload{
		Username:        r.FormValue("username"),
		TempPassword:    r.FormValue("temp_password"),
		NewPassword:     r.FormValue("new_password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}
	if err := payload.Validate(); err != nil {
		renderAPIError(log, w, validator.ValidationErrorResponse(err))
		return
	}

	if err := fe.sessions.ChangePassword(r.Context(), payload.Username, payload.TempPassword, payload.NewPassword); err != nil {
		renderAPIError(log, w, errors.Wrap(err, "failed to change password"))
		return
	}

	log.WithField("username", payload.Username).Info("password changed")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Password changed successfully! Please login with your new password.",
	})
}

func (fe *frontendServer) logoutHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("logging out")
	fe.sessions.Logout()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logged_in": false,
	})
}

func (fe *frontendServer) profileHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	user, ok := fe.sessions.User()
	if !ok {
		// The guard should have redirected already; keep the invariant anyway.
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"error": "not logged in"})
		return
	}

	// Refresh from the user service when reachable; fall back to the cache.
	if profile, err := fe.client.GetMe(r.Context()); err == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
		return
	} else {
		log.WithField("error", err).Warn("failed to refresh profile")
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": user})
}
