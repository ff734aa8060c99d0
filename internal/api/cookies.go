package api

import (
	"net/http"

	"github.com/Jeffreasy/mimo-auth/internal/config"
)

const (
	cookieAccessToken       = "access_token"
	cookieRefreshToken      = "refresh_token"
	cookieRegistrationToken = "registration_token"
	cookieResetToken        = "reset_token"
)

const (
	maxAgeAccessToken       = 3600
	maxAgeRefreshToken      = 604800
	maxAgeRegistrationToken = 900
	maxAgeResetToken        = 1800
)

// setCookie writes a credential cookie with SameSite/Secure flags derived
// from the deployment environment: Production gets SameSite=None; Secure
// (required for cross-site cookies over HTTPS), Development gets
// SameSite=Lax and no Secure flag so it works over plain http://localhost.
func (s *Server) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	}
	if s.Config.Environment == config.Production {
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Secure = true
	} else {
		cookie.SameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, cookie)
}

// clearCookie removes a cookie by setting an immediately-expired replacement
// with matching attributes (browsers key cookie identity on name+path).
func (s *Server) clearCookie(w http.ResponseWriter, name string) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	}
	if s.Config.Environment == config.Production {
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Secure = true
	} else {
		cookie.SameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, cookie)
}

func (s *Server) setAccessCookie(w http.ResponseWriter, token string) {
	s.setCookie(w, cookieAccessToken, token, maxAgeAccessToken)
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, token string) {
	s.setCookie(w, cookieRefreshToken, token, maxAgeRefreshToken)
}

func (s *Server) setRegistrationCookie(w http.ResponseWriter, token string) {
	s.setCookie(w, cookieRegistrationToken, token, maxAgeRegistrationToken)
}

func (s *Server) setResetCookie(w http.ResponseWriter, token string) {
	s.setCookie(w, cookieResetToken, token, maxAgeResetToken)
}
