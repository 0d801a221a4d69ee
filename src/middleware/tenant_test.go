package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

type identity struct {
	tenantID uuid.UUID
	userID   *uuid.UUID
}

func newEngine(seen *identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TenantAuth(secret))
	r.GET("/whoami", func(c *gin.Context) {
		seen.tenantID, seen.userID = TenantID(c), UserID(c)
		c.JSON(http.StatusOK, gin.H{"tenant_id": TenantID(c)})
	})
	return r
}

func call(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTenantAuth(t *testing.T) {
	tenantID, userID := uuid.New(), uuid.New()

	t.Run("valid token sets tenant and user", func(t *testing.T) {
		var seen identity
		r := newEngine(&seen)
		token, err := GenerateToken(secret, tenantID, &userID, time.Hour)
		require.NoError(t, err)

		w := call(r, "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), tenantID.String())
		assert.Equal(t, tenantID, seen.tenantID)
		require.NotNil(t, seen.userID)
		assert.Equal(t, userID, *seen.userID)
	})

	t.Run("user is optional", func(t *testing.T) {
		var seen identity
		r := newEngine(&seen)
		token, err := GenerateToken(secret, tenantID, nil, time.Hour)
		require.NoError(t, err)

		require.Equal(t, http.StatusOK, call(r, "bearer "+token).Code)
		assert.Nil(t, seen.userID)
	})

	t.Run("rejections", func(t *testing.T) {
		var seen identity
		r := newEngine(&seen)

		noTenant, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &TenantClaims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		}).SignedString([]byte(secret))
		require.NoError(t, err)

		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &TenantClaims{TenantID: tenantID.String()}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		for name, header := range map[string]string{
			"missing":    "",
			"not bearer": "Basic abc",
			"garbage":    "Bearer not-a-token",
			"no tenant":  "Bearer " + noTenant,
			"alg none":   "Bearer " + none,
		} {
			w := call(r, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code, name)
			assert.Contains(t, w.Body.String(), `"error"`, name)
		}
	})
}

func TestTenantIDWithoutAuth(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, uuid.Nil, TenantID(c))
	assert.Nil(t, UserID(c))
}
