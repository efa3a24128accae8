package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himilaisan-astr/elts-backend/internal/models"
)

type recordingAudit struct {
	entries []models.AuditLog
	err     error
}

func (r *recordingAudit) Create(ctx context.Context, log *models.AuditLog) error {
	r.entries = append(r.entries, *log)
	return r.err
}

func TestAuditRecordsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &recordingAudit{}
	r := gin.New()
	r.DELETE("/students/:id", func(c *gin.Context) {
		c.Set(ContextUserKey, &models.User{ID: "u-admin"})
		c.Next()
	}, Audit(recorder, nil, models.AuditActionDelete, "students"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.POST("/students", Audit(recorder, nil, models.AuditActionCreate, "students"), func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/students/s-1", nil))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/students", nil))

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, models.AuditActionDelete, entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "u-admin", *entry.UserID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "s-1", *entry.ResourceID)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.NewValues, &payload))
	assert.Equal(t, "/students/:id", payload["path"])
	assert.EqualValues(t, http.StatusNoContent, payload["status"])
}

func TestAuditFailureDoesNotAffectResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/courses", Audit(&recordingAudit{err: errors.New("db down")}, nil, models.AuditActionCreate, "courses"), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/courses", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAuditRecordsCreatedResourceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &recordingAudit{}
	r := gin.New()
	r.POST("/enrollments", Audit(recorder, nil, models.AuditActionCreate, "enrollments"), func(c *gin.Context) {
		SetAuditResourceID(c, "e-42")
		c.Status(http.StatusCreated)
	})
	r.POST("/students", Audit(recorder, nil, models.AuditActionCreate, "students"), func(c *gin.Context) {
		SetAuditResourceID(c, "")
		c.Status(http.StatusCreated)
	})

	for _, path := range []string{"/enrollments", "/students"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	require.Len(t, recorder.entries, 2)
	require.NotNil(t, recorder.entries[0].ResourceID)
	assert.Equal(t, "e-42", *recorder.entries[0].ResourceID)
	assert.Nil(t, recorder.entries[1].ResourceID)
}
