package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolstack/sms-api/internal/models"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
}

func (v stubValidator) ValidateToken(string) (*models.JWTClaims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

func runJWT(t *testing.T, validator tokenValidator, authHeader string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	JWT(validator)(c)
	return rec, c
}

func TestJWTSetsClaims(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}
	rec, c := runJWT(t, stubValidator{claims: claims}, "Bearer good-token")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, c.IsAborted())
	stored, ok := c.Get(ContextUserKey)
	require.True(t, ok)
	assert.Equal(t, claims, stored)
}

func TestJWTMissingHeader(t *testing.T) {
	rec, c := runJWT(t, stubValidator{}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, c.IsAborted())
}

func TestJWTMalformedHeader(t *testing.T) {
	rec, c := runJWT(t, stubValidator{}, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, c.IsAborted())
}

func TestJWTInvalidToken(t *testing.T) {
	validator := stubValidator{err: appErrors.Wrap(errors.New("expired"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")}
	rec, c := runJWT(t, validator, "Bearer bad-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, c.IsAborted())
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(role models.UserRole, withClaims bool, allowed ...models.UserRole) (*httptest.ResponseRecorder, *gin.Context) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/admin", nil)
		if withClaims {
			c.Set(ContextUserKey, &models.JWTClaims{UserID: "u1", Role: role})
		}
		RequireRoles(allowed...)(c)
		return rec, c
	}

	rec, c := run(models.RoleAdmin, true, models.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, c.IsAborted())

	rec, c = run(models.RoleStudent, true, models.RoleAdmin, models.RoleTeacher)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, c.IsAborted())

	rec, c = run(models.RoleAdmin, false, models.RoleAdmin)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, c.IsAborted())
}
