package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guess-who-arena/internal/middleware"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signed(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func authRouter(required bool) *gin.Engine {
	r := gin.New()
	r.GET("/who", middleware.Auth(secret, required), func(c *gin.Context) {
		id, ok := c.Get("user_id")
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r
}

func call(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	valid := signed(t, secret, jwt.MapClaims{"user_id": 42, "exp": time.Now().Add(time.Hour).Unix()})
	expired := signed(t, secret, jwt.MapClaims{"user_id": 42, "exp": time.Now().Add(-time.Hour).Unix()})
	forged := signed(t, "other-secret", jwt.MapClaims{"user_id": 42})
	noUser := signed(t, secret, jwt.MapClaims{"sub": "x"})

	cases := []struct {
		name     string
		required bool
		path     string
		header   string
		status   int
		body     string
	}{
		{"bearer header", true, "/who", "Bearer " + valid, http.StatusOK, `{"user_id":42}`},
		{"query token", true, "/who?token=" + valid, "", http.StatusOK, `{"user_id":42}`},
		{"missing required", true, "/who", "", http.StatusUnauthorized, ""},
		{"missing optional", false, "/who", "", http.StatusOK, "anonymous"},
		{"malformed header", false, "/who", "Token " + valid, http.StatusUnauthorized, ""},
		{"expired", false, "/who", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong signature", true, "/who", "Bearer " + forged, http.StatusUnauthorized, ""},
		{"missing user claim", true, "/who", "Bearer " + noUser, http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := call(authRouter(tc.required), tc.path, tc.header)
			assert.Equal(t, tc.status, w.Code)
			if tc.body == "anonymous" {
				assert.Equal(t, "anonymous", w.Body.String())
			} else if tc.body != "" {
				assert.JSONEq(t, tc.body, w.Body.String())
			}
		})
	}
}

func TestAuth_PanicsWithoutSecret(t *testing.T) {
	assert.Panics(t, func() { middleware.Auth("", true) })
}

func TestRateLimit_Validation(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	assert.Panics(t, func() { middleware.RateLimit(nil, "gw:", 10, time.Minute) })
	assert.Panics(t, func() { middleware.RateLimit(client, "gw:", 0, time.Minute) })
	assert.Panics(t, func() { middleware.RateLimit(client, "gw:", 10, 0) })
}

func TestRateLimit_RedisUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer client.Close()

	r := gin.New()
	r.GET("/limited", middleware.RateLimit(client, "gw:", 10, time.Minute), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	w := call(r, "/limited", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
