package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/auth-recovery-be/internal/auth"
)

func TestRegister_Success(t *testing.T) {
	e := newEnv(t, Options{})

	status, body, raw := e.post("/api/register", registration("ana", "ana@example.com", "Passw0rd!"))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Usuario registrado con éxito", body["message"])
	assert.NotContains(t, raw, "Passw0rd!")
	assert.NotContains(t, body, "token")

	stored, err := e.store.FindByUsername(t.Context(), "ana")
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd!", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
}

func TestRegister_DuplicateUsernameOrEmail(t *testing.T) {
	e := newEnv(t, Options{})
	e.register("ana", "ana@example.com", "Passw0rd!")

	status, body, _ := e.post("/api/register", registration("ana", "other@example.com", "x"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "El usuario o correo ya existe", body["message"])

	status, _, _ = e.post("/api/register", registration("other", "ana@example.com", "x"))
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Equal(t, 1, e.store.Count())
}

func TestRegister_MissingField(t *testing.T) {
	e := newEnv(t, Options{})

	req := registration("ana", "ana@example.com", "pw")
	req["secretAnswer"] = "  "
	status, _, _ := e.post("/api/register", req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 0, e.store.Count())
}

func TestRegister_PasswordTooLong(t *testing.T) {
	e := newEnv(t, Options{})

	status, _, _ := e.post("/api/register", registration("ana", "ana@example.com", strings.Repeat("x", 80)))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRegister_StoreFailure(t *testing.T) {
	e := newEnvWithStore(t, brokenStore{err: errDown}, Options{})

	status, body, raw := e.post("/api/register", registration("ana", "ana@example.com", "pw"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Error al registrar el usuario", body["message"])
	assert.NotContains(t, raw, "store down")
}

func TestLogin_Success(t *testing.T) {
	e := newEnv(t, Options{})
	e.register("ana", "ana@example.com", "Passw0rd!")

	status, body := e.login("ana", "Passw0rd!")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ana", body["username"])
	assert.Equal(t, "Inicio de sesión exitoso", body["message"])
	assert.NotContains(t, body, "password")

	token, _ := body["token"].(string)
	claims, err := e.tokens.Verify(token, auth.PurposeSession)
	require.NoError(t, err)
	stored, err := e.store.FindByUsername(t.Context(), "ana")
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, stored.ID, id)
	assert.Equal(t, "ana", claims.Username)
}

func TestLogin_SessionTokenExpiresAfterOneHour(t *testing.T) {
	e := newEnv(t, Options{})
	e.register("ana", "ana@example.com", "Passw0rd!")

	_, body := e.login("ana", "Passw0rd!")
	token, _ := body["token"].(string)

	e.clock.advance(59 * time.Minute)
	_, err := e.tokens.Verify(token, auth.PurposeSession)
	require.NoError(t, err)

	e.clock.advance(2 * time.Minute)
	_, err = e.tokens.Verify(token, auth.PurposeSession)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestLogin_WrongPasswordAlwaysUnauthorized(t *testing.T) {
	e := newEnv(t, Options{})
	e.register("ana", "ana@example.com", "Passw0rd!")

	for _, pw := range []string{"passw0rd!", "Passw0rd", "Passw0rd! ", "other"} {
		status, body := e.login("ana", pw)
		assert.Equal(t, http.StatusUnauthorized, status, "password %q", pw)
		assert.Equal(t, "Contraseña incorrecta", body["message"])
		assert.NotContains(t, body, "token")
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	e := newEnv(t, Options{})

	status, body := e.login("ghost", "whatever")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Usuario no encontrado", body["message"])
}

func TestLogin_StoreFailure(t *testing.T) {
	e := newEnvWithStore(t, brokenStore{err: errDown}, Options{})

	status, body := e.login("ana", "pw")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Error en el servidor", body["message"])
}

func TestLogin_InvalidJSON(t *testing.T) {
	e := newEnv(t, Options{})

	resp, err := http.Post(e.srv.URL+"/api/login", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
