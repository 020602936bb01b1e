package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/hongminglow/auth-recovery-be/internal/auth"
	"github.com/hongminglow/auth-recovery-be/internal/http/respond"
	"github.com/hongminglow/auth-recovery-be/internal/mail"
	"github.com/hongminglow/auth-recovery-be/internal/models/dto"
	"github.com/hongminglow/auth-recovery-be/internal/storage"
)

const msgEmailNotFound = "Correo no encontrado"

func (h *AuthHandler) handleGetSecretQuestion(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if missing(req.Email) {
		respond.Text(w, r, http.StatusBadRequest, "El correo es obligatorio")
		return
	}

	user, err := h.store.FindByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		h.storeFailure(w, r, err, msgEmailNotFound, "find user by email failed")
		return
	}
	respond.JSON(w, r, http.StatusOK, dto.SecretQuestionResponse{SecretQuestion: user.SecretQuestion})
}

func (h *AuthHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if missing(req.Email) {
		respond.Text(w, r, http.StatusBadRequest, "El correo es obligatorio")
		return
	}

	user, err := h.store.FindByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		h.storeFailure(w, r, err, msgEmailNotFound, "find user by email failed")
		return
	}

	token, err := h.tokens.IssueReset(user)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("issue reset token failed")
		respond.Text(w, r, http.StatusInternalServerError, msgServerError)
		return
	}
	link := mail.ResetLink(h.opts.FrontendURL, token)
	if err := h.mailer.SendPasswordReset(r.Context(), user.Email, link); err != nil {
		hlog.FromRequest(r).Error().Err(err).Int64("user_id", user.ID).Msg("send reset email failed")
		respond.Text(w, r, http.StatusInternalServerError, msgServerError)
		return
	}

	respond.Text(w, r, http.StatusOK, "Correo enviado con éxito")
}

func (h *AuthHandler) handleRecoverPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.RecoverRequest
	if !decode(w, r, &req) {
		return
	}
	if missing(req.Email, req.SecretQuestion) {
		respond.Text(w, r, http.StatusBadRequest, "Correo y pregunta secreta son obligatorios")
		return
	}

	user, err := h.store.FindByEmailAndQuestion(r.Context(), strings.TrimSpace(req.Email), strings.TrimSpace(req.SecretQuestion))
	if err != nil {
		h.storeFailure(w, r, err, "Usuario no encontrado o pregunta incorrecta", "find user by email and question failed")
		return
	}
	if !auth.AnswerMatches(user.SecretAnswer, req.SecretAnswer) {
		respond.Text(w, r, http.StatusUnauthorized, "Respuesta secreta incorrecta")
		return
	}

	token, err := h.tokens.IssueRecovery(user)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("issue recovery token failed")
		respond.Text(w, r, http.StatusInternalServerError, msgServerError)
		return
	}
	respond.JSON(w, r, http.StatusOK, dto.RecoverResponse{
		Message:       "Respuesta correcta, procede a restablecer la contraseña",
		RecoveryToken: token,
	})
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tokens.Verify(chi.URLParam(r, "token"), auth.PurposeReset)
	if err != nil {
		respond.Text(w, r, http.StatusBadRequest, msgInvalidToken)
		return
	}
	var req dto.ResetRequest
	if !decode(w, r, &req) {
		return
	}
	if missing(req.Password) {
		respond.Text(w, r, http.StatusBadRequest, "La contraseña es obligatoria")
		return
	}
	passwordHash, ok := h.hash(w, r, req.Password)
	if !ok {
		return
	}
	if !h.consume(w, r, claims) {
		return
	}

	userID, _ := claims.UserID()
	if err := h.store.UpdatePasswordByID(r.Context(), userID, passwordHash); err != nil {
		h.storeFailure(w, r, err, msgUserNotFound, "update password by id failed")
		return
	}
	respond.Text(w, r, http.StatusOK, msgPasswordReset)
}

func (h *AuthHandler) handleResetPasswordDirect(w http.ResponseWriter, r *http.Request) {
	var req dto.DirectResetRequest
	if !decode(w, r, &req) {
		return
	}
	if missing(req.Email, req.Password) {
		respond.Text(w, r, http.StatusBadRequest, "Correo y contraseña son obligatorios")
		return
	}
	email := strings.TrimSpace(req.Email)

	if h.opts.LegacyDirectReset {
		h.resetByEmail(w, r, email, req.Password)
		return
	}

	claims, err := h.tokens.Verify(req.RecoveryToken, auth.PurposeRecovery)
	if err != nil {
		respond.Text(w, r, http.StatusBadRequest, msgInvalidToken)
		return
	}
	user, err := h.store.FindByEmail(r.Context(), email)
	if err != nil {
		h.storeFailure(w, r, err, msgUserNotFound, "find user by email failed")
		return
	}
	if userID, _ := claims.UserID(); userID != user.ID {
		respond.Text(w, r, http.StatusBadRequest, msgInvalidToken)
		return
	}
	passwordHash, ok := h.hash(w, r, req.Password)
	if !ok {
		return
	}
	if !h.consume(w, r, claims) {
		return
	}
	if err := h.store.UpdatePasswordByID(r.Context(), user.ID, passwordHash); err != nil {
		h.storeFailure(w, r, err, msgUserNotFound, "update password by id failed")
		return
	}
	respond.Text(w, r, http.StatusOK, msgPasswordReset)
}

// resetByEmail is the unguarded update kept for LegacyDirectReset: any caller
// who knows an email can set that account's password.
func (h *AuthHandler) resetByEmail(w http.ResponseWriter, r *http.Request, email, password string) {
	passwordHash, ok := h.hash(w, r, password)
	if !ok {
		return
	}
	if err := h.store.UpdatePasswordByEmail(r.Context(), email, passwordHash); err != nil {
		h.storeFailure(w, r, err, msgUserNotFound, "update password by email failed")
		return
	}
	hlog.FromRequest(r).Warn().Msg("password reset without recovery token (legacy mode)")
	respond.Text(w, r, http.StatusOK, msgPasswordReset)
}

// consume records the token id as used until the token would expire anyway.
// A replayed token gets the same answer as an invalid one.
func (h *AuthHandler) consume(w http.ResponseWriter, r *http.Request, claims auth.Claims) bool {
	ttl := claims.Remaining(h.tokens.Now())
	if ttl < time.Second {
		ttl = time.Second
	}
	if err := h.ledger.Consume(r.Context(), claims.ID, ttl); err != nil {
		if errors.Is(err, storage.ErrTokenConsumed) {
			respond.Text(w, r, http.StatusBadRequest, msgInvalidToken)
			return false
		}
		hlog.FromRequest(r).Error().Err(err).Msg("record consumed token failed")
		respond.Text(w, r, http.StatusInternalServerError, msgServerError)
		return false
	}
	return true
}
