package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Jeffreasy/mimo-auth/internal/api/helpers"
	"github.com/Jeffreasy/mimo-auth/internal/api/middleware"
	"github.com/Jeffreasy/mimo-auth/internal/ratelimit"
	"github.com/Jeffreasy/mimo-auth/internal/service"
)

func (s *Server) clientIP(r *http.Request) string {
	return ratelimit.ClientIP(r, s.Config.ClientIPHeaderPriority)
}

// userResponse is the wire shape of a UserView; it deliberately never
// carries password_digest.
type userResponse struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toUserResponse(v service.UserView) userResponse {
	return userResponse{
		UserID:      v.UserID,
		Email:       v.Email,
		DisplayName: v.DisplayName,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an existing user and sets the access and refresh
// cookies.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	access, refresh, view, err := s.Service.Login(r.Context(), req.Email, req.Password, s.clientIP(r))
	if err != nil {
		writeServiceError(w, "login", err)
		return
	}

	s.setAccessCookie(w, access)
	s.setRefreshCookie(w, refresh)
	helpers.RespondJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(view)})
}

// Logout revokes both presented credentials, if any, and clears their
// cookies. It is idempotent: a missing or already-invalid cookie is not an
// error.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	var access, refresh string
	if c, err := r.Cookie(cookieAccessToken); err == nil {
		access = c.Value
	}
	if c, err := r.Cookie(cookieRefreshToken); err == nil {
		refresh = c.Value
	}

	if err := s.Service.Logout(r.Context(), access, refresh); err != nil {
		slog.Warn("logout", "error", err)
	}

	s.clearCookie(w, cookieAccessToken)
	s.clearCookie(w, cookieRefreshToken)
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Refresh mints a fresh access credential from a still-valid, unrevoked
// refresh cookie. The refresh token itself is never rotated (see
// DESIGN.md's Open Question on this).
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(cookieRefreshToken)
	if err != nil {
		helpers.RespondError(w, http.StatusUnauthorized, "no session")
		return
	}

	access, err := s.Service.Refresh(r.Context(), cookie.Value, s.clientIP(r))
	if err != nil {
		s.clearCookie(w, cookieAccessToken)
		s.clearCookie(w, cookieRefreshToken)
		writeServiceError(w, "refresh", err)
		return
	}

	s.setAccessCookie(w, access)
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"message": "refreshed"})
}

type startRegistrationRequest struct {
	Email string `json:"email"`
}

// StartRegistration sends a 6-digit verification code to an email not yet
// tied to an active user.
func (s *Server) StartRegistration(w http.ResponseWriter, r *http.Request) {
	var req startRegistrationRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.Service.StartRegistration(r.Context(), req.Email, s.clientIP(r)); err != nil {
		writeServiceError(w, "start_registration", err)
		return
	}

	helpers.RespondJSON(w, http.StatusAccepted, map[string]string{"message": "verification code sent"})
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyRegistrationCode exchanges a correct code for a short-lived
// registration cookie that authorizes CompleteRegistration.
func (s *Server) VerifyRegistrationCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.Service.VerifyRegistrationCode(r.Context(), req.Email, req.Code)
	if err != nil {
		writeServiceError(w, "verify_registration_code", err)
		return
	}

	s.setRegistrationCookie(w, token)
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"message": "code verified"})
}

type completeRegistrationRequest struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Password    string `json:"password"`
}

// CompleteRegistration consumes the registration cookie and creates the
// user, returning fresh session cookies on success.
func (s *Server) CompleteRegistration(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(cookieRegistrationToken)
	if err != nil {
		helpers.RespondError(w, http.StatusUnauthorized, "no registration in progress")
		return
	}

	var req completeRegistrationRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	access, refresh, view, err := s.Service.CompleteRegistration(r.Context(), cookie.Value, service.CompleteRegistrationInput{
		UserID:      req.UserID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	s.clearCookie(w, cookieRegistrationToken)
	if err != nil {
		writeServiceError(w, "complete_registration", err)
		return
	}

	s.setAccessCookie(w, access)
	s.setRefreshCookie(w, refresh)
	helpers.RespondJSON(w, http.StatusCreated, map[string]any{"user": toUserResponse(view)})
}

type startPasswordResetRequest struct {
	Email string `json:"email"`
}

// StartPasswordReset sends a reset code to an email tied to an existing
// active user. An email with no active user fails with a 400 validation
// error, so the response reveals whether such an account exists (the same
// email-enumeration trade-off DESIGN.md records for registration).
func (s *Server) StartPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req startPasswordResetRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.Service.StartPasswordReset(r.Context(), req.Email, s.clientIP(r)); err != nil {
		writeServiceError(w, "start_password_reset", err)
		return
	}

	helpers.RespondJSON(w, http.StatusAccepted, map[string]string{"message": "reset code sent"})
}

// VerifyPasswordResetCode exchanges a correct code for a short-lived reset
// cookie that authorizes CompletePasswordReset.
func (s *Server) VerifyPasswordResetCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.Service.VerifyPasswordResetCode(r.Context(), req.Email, req.Code)
	if err != nil {
		writeServiceError(w, "verify_password_reset_code", err)
		return
	}

	s.setResetCookie(w, token)
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"message": "code verified"})
}

type completePasswordResetRequest struct {
	NewPassword string `json:"new_password"`
}

// CompletePasswordReset consumes the reset cookie and sets the new password
// digest.
func (s *Server) CompletePasswordReset(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(cookieResetToken)
	if err != nil {
		helpers.RespondError(w, http.StatusUnauthorized, "no password reset in progress")
		return
	}

	var req completePasswordResetRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err = s.Service.CompletePasswordReset(r.Context(), cookie.Value, req.NewPassword)
	s.clearCookie(w, cookieResetToken)
	if err != nil {
		writeServiceError(w, "complete_password_reset", err)
		return
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// Me returns the caller's own user record.
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())

	view, err := s.Service.GetCurrentUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "get_current_user", err)
		return
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(view)})
}

type updateProfileRequest struct {
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
}

// UpdateProfile patches the caller's email and/or display name.
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())

	var req updateProfileRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := s.Service.UpdateUser(r.Context(), userID, service.UpdateUserInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeServiceError(w, "update_profile", err)
		return
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(view)})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword re-authenticates with the old password before committing
// the new digest.
func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())

	var req changePasswordRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.Service.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(w, "change_password", err)
		return
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}
