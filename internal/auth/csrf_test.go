package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/entities"
)

var testCSRFSecret = []byte("0123456789abcdef0123456789abcdef")

type staticTokens map[string]*entities.User

func (s staticTokens) ValidateToken(_ context.Context, token string) (*entities.User, error) {
	if user, ok := s[token]; ok {
		return user, nil
	}
	return nil, ErrInvalidToken
}

func newCSRFRouter(tokens TokenValidator) *gin.Engine {
	router := gin.New()
	router.Use(CSRFMiddleware(testCSRFSecret, false, tokens))
	router.GET("/csrf", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"token": GetCSRFToken(c)})
	})
	router.POST("/write", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestCSRFMiddleware_SkipsRequestsWithoutSession(t *testing.T) {
	router := newCSRFRouter(nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/write", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestCSRFMiddleware_SkipsValidBearer(t *testing.T) {
	router := newCSRFRouter(staticTokens{"good": {ID: "u1"}})

	req := httptest.NewRequest(http.MethodPost, "/write", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "abc"})
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestCSRFMiddleware_BlocksSessionWriteWithoutToken(t *testing.T) {
	router := newCSRFRouter(staticTokens{"good": {ID: "u1"}})

	req := httptest.NewRequest(http.MethodPost, "/write", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "abc"})
	req.Header.Set("Authorization", "Bearer forged")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"CSRF token invalid or missing"}`, rr.Body.String())
}

func TestCSRFMiddleware_AcceptsEchoedToken(t *testing.T) {
	router := newCSRFRouter(nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/csrf", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)

	req := httptest.NewRequest(http.MethodPost, "/write", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "abc"})
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	req.Header.Set(CSRFTokenHeader, body.Token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestGetCSRFToken_NoToken(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, GetCSRFToken(c))
}
