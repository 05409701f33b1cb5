package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hollandpark-shiatsu/bookings/internal/http/response"
	"github.com/hollandpark-shiatsu/bookings/internal/platform/mailer"
	"github.com/hollandpark-shiatsu/bookings/internal/repo/postgres"
	"github.com/hollandpark-shiatsu/bookings/internal/utils"
	"github.com/hollandpark-shiatsu/bookings/pkg/auth"
	"github.com/hollandpark-shiatsu/bookings/pkg/config"
	"github.com/hollandpark-shiatsu/bookings/pkg/logger"
)

type AuthHandler struct {
	Users    postgres.UsersRepo
	Verify   postgres.VerifyRepo
	EmailSvc mailer.Service
	Cfg      config.AuthConfig
	BaseURL  string
}

func NewAuthHandler(users postgres.UsersRepo, verify postgres.VerifyRepo, emailSvc mailer.Service, cfg config.AuthConfig, baseURL string) *AuthHandler {
	return &AuthHandler{Users: users, Verify: verify, EmailSvc: emailSvc, Cfg: cfg, BaseURL: baseURL}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/verify-email", h.verifyEmail) // POST ?token=...
	return r
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil ||
		in.Email == "" || in.Password == "" || in.Name == "" {
		response.BadRequest(w, "email, password and name are required")
		return
	}
	if !utils.IsValidEmail(in.Email) {
		response.BadRequest(w, "invalid email address")
		return
	}

	email := utils.NormalizeEmail(in.Email)
	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		response.InternalError(w, "failed to hash password")
		return
	}

	u, err := h.Users.Create(r.Context(), email, hash, utils.NormalizeString(in.Name))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "email already registered", response.CodeEmailExists)
		return
	}

	// Verification token (24h by default), emailed as a link.
	vtok := uuid.NewString()
	_ = h.Verify.CreateEmailVerification(r.Context(), u.ID, vtok, time.Now().Add(h.Cfg.EmailVerificationTTL))

	verifyURL := h.BaseURL + "/verify-email?token=" + vtok
	if _, err := h.EmailSvc.Send(
		u.Email, u.Name,
		"Verify your account",
		"Click to verify: "+verifyURL,
		fmt.Sprintf(`<p>Hi %s,</p><p>Please <a href="%s">verify your email</a>. The link expires in 24 hours.</p>`, u.Name, verifyURL),
	); err != nil {
		logger.ErrorContext(r.Context(), "Verification email failed", "error", err, "user_id", u.ID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message": "verification email sent",
	})
}

func (h *AuthHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.BadRequest(w, "missing token")
		return
	}
	userID, err := h.Verify.ConsumeEmailVerification(r.Context(), token)
	if err != nil || userID == 0 {
		response.Unauthorized(w, "invalid or expired token")
		return
	}
	if err := h.Verify.MarkUserVerified(r.Context(), userID); err != nil {
		response.InternalError(w, "failed to verify email")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "email verified"})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" {
		response.BadRequest(w, "email and password are required")
		return
	}

	email := utils.NormalizeEmail(in.Email)
	u, err := h.Users.FindByEmail(r.Context(), email)
	if err != nil {
		response.InternalError(w, "login failed")
		return
	}
	if u == nil {
		response.Unauthorized(w, "invalid credentials")
		return
	}
	if !u.IsVerified {
		response.Unauthorized(w, "email not verified")
		return
	}

	ok, _ := argon2id.ComparePasswordAndHash(in.Password, u.PasswordHash)
	if !ok {
		response.Unauthorized(w, "invalid credentials")
		return
	}

	access, err := auth.NewAccessToken(u.ID, u.Email, u.Name, u.Role, h.Cfg.JWTSecret, h.Cfg.AccessTokenTTL)
	if err != nil {
		response.InternalError(w, "failed to issue token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": access,
		"user": map[string]any{
			"id": u.ID, "email": u.Email, "name": u.Name, "role": u.Role, "is_verified": true,
		},
	})
}
