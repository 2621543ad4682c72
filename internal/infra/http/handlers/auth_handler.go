package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/xavierca1/leadflow/internal/infra/auth"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type Signer interface {
	Execute(ctx context.Context, input usecase.SignupInput) (*usecase.SignupOutput, error)
}

type Authenticator interface {
	Execute(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error)
}

type SessionCookies interface {
	Cookie(token string, exp time.Time, secure bool) *http.Cookie
}

type AuthHandler struct {
	Signup       Signer
	Login        Authenticator
	Cookies      SessionCookies
	SecureCookie bool
}

func NewAuthHandler(signup Signer, login Authenticator, cookies SessionCookies, secure bool) *AuthHandler {
	return &AuthHandler{Signup: signup, Login: login, Cookies: cookies, SecureCookie: secure}
}

func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var input usecase.SignupInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := h.Signup.Execute(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, out)
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var input usecase.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := h.Login.Execute(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, h.Cookies.Cookie(out.Token, out.ExpiresAt, h.SecureCookie))
	writeJSON(w, http.StatusOK, out)
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearCookie(h.SecureCookie))
	w.WriteHeader(http.StatusNoContent)
}
