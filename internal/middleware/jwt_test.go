package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostfound-id/lostfound-api/internal/models"
)

type validatorStub struct {
	claims *models.JWTClaims
	err    error
}

func (v *validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

func performRequest(t *testing.T, auth tokenValidator, header string, required bool) (*httptest.ResponseRecorder, *models.JWTClaims) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var seen *models.JWTClaims
	r := gin.New()
	guard := OptionalJWT(auth)
	if required {
		guard = JWT(auth)
	}
	r.GET("/probe", guard, func(c *gin.Context) {
		seen = CurrentUser(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/probe", nil)
	require.NoError(t, err)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w, seen
}

func TestJWTRejectsMissingToken(t *testing.T) {
	w, _ := performRequest(t, &validatorStub{}, "", true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	w, _ := performRequest(t, &validatorStub{claims: &models.JWTClaims{UserID: "u1"}}, "Token abc", true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsInvalidToken(t *testing.T) {
	w, _ := performRequest(t, &validatorStub{err: errors.New("expired")}, "Bearer bad", true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTStoresClaims(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleUser}
	w, seen := performRequest(t, &validatorStub{claims: claims}, "Bearer good", true)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.UserID)
}

func TestOptionalJWTAllowsAnonymous(t *testing.T) {
	w, seen := performRequest(t, &validatorStub{err: errors.New("bad")}, "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, seen)
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleUser})
		c.Next()
	}, RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
