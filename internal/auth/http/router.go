package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AlibekovAA/community-board/internal/auth/service"
	"github.com/AlibekovAA/community-board/internal/common/config"
	"github.com/AlibekovAA/community-board/internal/common/constants"
	commonerrors "github.com/AlibekovAA/community-board/internal/common/errors"
	commonhttp "github.com/AlibekovAA/community-board/internal/common/http"
	"github.com/AlibekovAA/community-board/internal/common/jwtverify"
	"github.com/AlibekovAA/community-board/internal/common/logger"
	userdomain "github.com/AlibekovAA/community-board/internal/user/domain"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type checkUsernameRequest struct {
	Username string `json:"username"`
}

type findAccountRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type tokenPairResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type profileResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type HandlerDeps struct {
	Auth         *service.AuthService
	Capabilities config.Capabilities
	Log          *logger.Logger
	// ExposeInternalErrors puts raw messages of unexpected errors in
	// responses. Development only.
	ExposeInternalErrors bool
	RequestTimeout       time.Duration
}

type Handler struct {
	auth         *service.AuthService
	capabilities config.Capabilities
	log          *logger.Logger
	errors       *commonhttp.ErrorHandler
}

// NewHandler returns the auth routes relative to the route prefix; the
// caller mounts it.
func NewHandler(deps HandlerDeps) http.Handler {
	h := &Handler{
		auth:         deps.Auth,
		capabilities: deps.Capabilities,
		log:          deps.Log,
		errors:       commonhttp.NewErrorHandler(deps.Log, deps.ExposeInternalErrors),
	}

	requestTimeout := deps.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = constants.DefaultAuthRequestTimeout
	}
	timeout := commonhttp.WithTimeout(requestTimeout)
	verifier := deps.Auth.Verifier()

	r := chi.NewRouter()
	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.methodNotAllowed)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", timeout(h.register))
		r.Post("/login", timeout(h.login))
		r.Post("/refresh", timeout(h.refresh))
		r.Post("/check-username", timeout(h.checkUsername))
		r.Post("/find-account", timeout(h.findAccount))
		r.Get("/providers", h.providers)

		r.With(jwtverify.OptionalAuth(verifier, deps.Log)).Post("/logout", h.logout)

		r.Group(func(r chi.Router) {
			r.Use(jwtverify.RequireAuth(verifier, deps.Log))
			r.Get("/me", timeout(h.me))
			r.Post("/password", timeout(h.changePassword))
		})
	})

	return r
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	result, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, tokenPairResponse{
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, tokenPairResponse{
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	result, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, tokenResponse{Token: result.AccessToken})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var claims *jwtverify.Claims
	if c, ok := jwtverify.FromContext(r.Context()); ok {
		claims = &c
	}
	h.auth.Logout(r.Context(), claims)
	commonhttp.WriteJSON(w, http.StatusOK, struct{}{})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		h.errors.HandleError(w, r, commonerrors.ErrAuthenticationRequired)
		return
	}

	profile, err := h.auth.Me(r.Context(), claims.UserID)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) checkUsername(w http.ResponseWriter, r *http.Request) {
	var req checkUsernameRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	available, err := h.auth.CheckUsername(r.Context(), req.Username)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func (h *Handler) findAccount(w http.ResponseWriter, r *http.Request) {
	var req findAccountRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	username, err := h.auth.FindAccount(r.Context(), req.Email)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]string{"username": username})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		h.errors.HandleError(w, r, commonerrors.ErrAuthenticationRequired)
		return
	}

	var req changePasswordRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	result, err := h.auth.ChangePassword(r.Context(), service.ChangePasswordInput{
		UserID:          claims.UserID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, tokenPairResponse{
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

func (h *Handler) providers(w http.ResponseWriter, _ *http.Request) {
	commonhttp.WriteJSON(w, http.StatusOK, map[string][]string{"providers": h.capabilities.Providers()})
}

func (h *Handler) notFound(w http.ResponseWriter, _ *http.Request) {
	commonhttp.WriteError(w, http.StatusNotFound, commonhttp.CodeNotFound, "route not found")
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	commonhttp.WriteError(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed")
}

func toProfileResponse(p userdomain.Profile) profileResponse {
	return profileResponse{
		ID:        string(p.ID),
		Username:  p.Username,
		Email:     p.Email,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
	}
}
