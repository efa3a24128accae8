package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himilaisan-astr/elts-backend/internal/models"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
)

type fakeGate struct {
	users map[string]*models.User
	calls int
}

func (g *fakeGate) ResolveCurrentUser(ctx context.Context, token string) (*models.User, error) {
	g.calls++
	user, ok := g.users[token]
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return user, nil
}

func (g *fakeGate) RequireAdmin(user *models.User) (*models.User, error) {
	if !user.IsAdmin {
		return nil, appErrors.ErrForbidden
	}
	return user, nil
}

func newGateRouter(gate Gate, level Access) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/resource", Authorize(gate, level), func(c *gin.Context) {
		user := CurrentUser(c)
		id := ""
		if user != nil {
			id = user.ID
		}
		c.JSON(http.StatusOK, gin.H{"user": id})
	})
	return r
}

func doGet(r http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestAuthorizeLevels(t *testing.T) {
	gate := &fakeGate{users: map[string]*models.User{
		"admin-token": {ID: "u-admin", IsAdmin: true},
		"staff-token": {ID: "u-staff"},
	}}

	cases := []struct {
		name   string
		level  Access
		header string
		status int
		code   string
	}{
		{"public without token", Public, "", http.StatusOK, ""},
		{"authenticated without token", Authenticated, "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"authenticated wrong scheme", Authenticated, "Basic staff-token", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"authenticated bad token", Authenticated, "Bearer nope", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"authenticated staff", Authenticated, "Bearer staff-token", http.StatusOK, ""},
		{"authenticated lowercase scheme", Authenticated, "bearer staff-token", http.StatusOK, ""},
		{"admin with staff", AdminOnly, "Bearer staff-token", http.StatusForbidden, "FORBIDDEN"},
		{"admin with admin", AdminOnly, "Bearer admin-token", http.StatusOK, ""},
		{"undeclared level", Access(0), "Bearer admin-token", http.StatusForbidden, "FORBIDDEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doGet(newGateRouter(gate, tc.level), tc.header)
			assert.Equal(t, tc.status, rec.Code)
			if tc.code != "" {
				assert.Equal(t, tc.code, errorCode(t, rec))
			}
			if tc.status == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestAuthorizeStoresUser(t *testing.T) {
	gate := &fakeGate{users: map[string]*models.User{"admin-token": {ID: "u-admin", IsAdmin: true}}}
	rec := doGet(newGateRouter(gate, AdminOnly), "Bearer admin-token")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"u-admin"}`, rec.Body.String())
	assert.Equal(t, 1, gate.calls)
}

func TestPublicSkipsResolution(t *testing.T) {
	gate := &fakeGate{}
	rec := doGet(newGateRouter(gate, Public), "Bearer whatever")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, gate.calls)
}

func TestAccessString(t *testing.T) {
	assert.Equal(t, "public", Public.String())
	assert.Equal(t, "admin", AdminOnly.String())
	assert.Equal(t, "undeclared", Access(0).String())
}
