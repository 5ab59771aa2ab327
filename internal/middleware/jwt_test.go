package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/models"
	"github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/internal/service"
	appErrors "github.com/Hugo1860/Hospital-Research-Analytics-Platform-sub003/pkg/errors"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	claims := models.JWTClaims{
		UserID:   "user-1",
		Username: "mchen",
		Role:     models.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(expiresAt.Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newProtectedRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := service.NewAuthService(nil, nil, nil, service.AuthConfig{Secret: testSecret})

	r := gin.New()
	r.Use(JWT(svc))
	r.GET("/protected", func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.String(http.StatusOK, claims.Username)
	})
	return r
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.NotNil(t, envelope.Error)
	return envelope.Error.Code
}

func TestJWTMissingHeader(t *testing.T) {
	r := newProtectedRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, appErrors.ErrTokenMissing.Code, errorCode(t, w.Body.Bytes()))
}

func TestJWTMalformedHeader(t *testing.T) {
	r := newProtectedRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, appErrors.ErrTokenMissing.Code, errorCode(t, w.Body.Bytes()))
}

func TestJWTGarbageToken(t *testing.T) {
	r := newProtectedRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, appErrors.ErrTokenInvalid.Code, errorCode(t, w.Body.Bytes()))
}

func TestJWTExpiredToken(t *testing.T) {
	r := newProtectedRouter(t)
	token := signToken(t, testSecret, time.Now().Add(-time.Minute))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, appErrors.ErrTokenExpired.Code, errorCode(t, w.Body.Bytes()))
}

func TestJWTValidTokenReachesHandler(t *testing.T) {
	r := newProtectedRouter(t)
	token := signToken(t, testSecret, time.Now().Add(time.Hour))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mchen", w.Body.String())
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Basic dXNlcg==", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		c.Request = req

		token, ok := BearerToken(c)
		assert.Equal(t, tc.ok, ok, tc.header)
		if tc.ok {
			assert.Equal(t, tc.token, token, tc.header)
		}
	}
}
