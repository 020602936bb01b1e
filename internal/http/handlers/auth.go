package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/hongminglow/auth-recovery-be/internal/auth"
	"github.com/hongminglow/auth-recovery-be/internal/http/respond"
	"github.com/hongminglow/auth-recovery-be/internal/mail"
	"github.com/hongminglow/auth-recovery-be/internal/models"
	"github.com/hongminglow/auth-recovery-be/internal/models/dto"
	"github.com/hongminglow/auth-recovery-be/internal/storage"
)

const (
	msgServerError   = "Error en el servidor"
	msgInvalidJSON   = "Cuerpo de la solicitud inválido"
	msgUserNotFound  = "Usuario no encontrado"
	msgInvalidToken  = "Token inválido o expirado"
	msgPasswordReset = "Contraseña restablecida con éxito"
)

// Options carries behavior switches for AuthHandler.
type Options struct {
	// FrontendURL is the base of emailed reset links.
	FrontendURL string
	// LegacyDirectReset lets reset-password-direct skip the recovery token.
	LegacyDirectReset bool
}

// AuthHandler owns registration, login, and password recovery endpoints.
type AuthHandler struct {
	store  storage.UserStore
	ledger storage.TokenLedger
	tokens *auth.TokenManager
	hasher *auth.Hasher
	mailer mail.Mailer
	opts   Options
}

// NewAuthHandler constructs the handler from its collaborators.
func NewAuthHandler(store storage.UserStore, ledger storage.TokenLedger, tokens *auth.TokenManager,
	hasher *auth.Hasher, mailer mail.Mailer, opts Options) *AuthHandler {
	return &AuthHandler{
		store:  store,
		ledger: ledger,
		tokens: tokens,
		hasher: hasher,
		mailer: mailer,
		opts:   opts,
	}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/get-secret-question", h.handleGetSecretQuestion)
	r.Post("/forgot-password", h.handleForgotPassword)
	r.Post("/recover-password", h.handleRecoverPassword)
	r.Post("/reset-password/{token}", h.handleResetPassword)
	r.Post("/reset-password-direct", h.handleResetPasswordDirect)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if missing(req.FirstName, req.LastName, req.MotherLastName, req.Username, req.Email,
		req.Password, req.Phone, req.SecretQuestion, req.SecretAnswer) {
		respond.Text(w, r, http.StatusBadRequest, "Todos los campos son obligatorios")
		return
	}
	passwordHash, ok := h.hash(w, r, req.Password)
	if !ok {
		return
	}

	user := models.User{
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		MotherLastName: strings.TrimSpace(req.MotherLastName),
		Username:       strings.TrimSpace(req.Username),
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		SecretQuestion: strings.TrimSpace(req.SecretQuestion),
		SecretAnswer:   req.SecretAnswer,
		PasswordHash:   passwordHash,
	}
	if _, err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Text(w, r, http.StatusBadRequest, "El usuario o correo ya existe")
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("create user failed")
		respond.Text(w, r, http.StatusInternalServerError, "Error al registrar el usuario")
		return
	}

	respond.Text(w, r, http.StatusOK, "Usuario registrado con éxito")
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	if missing(req.Username, req.Password) {
		respond.Text(w, r, http.StatusBadRequest, "Usuario y contraseña son obligatorios")
		return
	}

	user, err := h.store.FindByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		h.storeFailure(w, r, err, msgUserNotFound, "find user by username failed")
		return
	}
	if !h.hasher.Compare(user.PasswordHash, req.Password) {
		respond.Text(w, r, http.StatusUnauthorized, "Contraseña incorrecta")
		return
	}

	token, err := h.tokens.IssueSession(user)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("issue session token failed")
		respond.Text(w, r, http.StatusInternalServerError, msgServerError)
		return
	}
	respond.JSON(w, r, http.StatusOK, dto.LoginResponse{
		Message:  "Inicio de sesión exitoso",
		Token:    token,
		Username: user.Username,
	})
}

// decode reads a JSON body into dst, answering 400 on malformed input.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Text(w, r, http.StatusBadRequest, msgInvalidJSON)
		return false
	}
	return true
}

func missing(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// hash answers 400 for unhashable passwords and 500 for anything else.
func (h *AuthHandler) hash(w http.ResponseWriter, r *http.Request, password string) (string, bool) {
	passwordHash, err := h.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			respond.Text(w, r, http.StatusBadRequest, "La contraseña no puede exceder 72 bytes")
			return "", false
		}
		hlog.FromRequest(r).Error().Err(err).Msg("hash password failed")
		respond.Text(w, r, http.StatusInternalServerError, msgServerError)
		return "", false
	}
	return passwordHash, true
}

// storeFailure maps storage.ErrNotFound to 404 with notFound, and logs anything else as a 500.
func (h *AuthHandler) storeFailure(w http.ResponseWriter, r *http.Request, err error, notFound, logMsg string) {
	if errors.Is(err, storage.ErrNotFound) {
		respond.Text(w, r, http.StatusNotFound, notFound)
		return
	}
	hlog.FromRequest(r).Error().Err(err).Msg(logMsg)
	respond.Text(w, r, http.StatusInternalServerError, msgServerError)
}
