package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	"github.com/himilaisan-astr/elts-backend/internal/middleware"
	"github.com/himilaisan-astr/elts-backend/internal/models"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
	"github.com/himilaisan-astr/elts-backend/pkg/response"
)

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

// pathID returns the :id parameter. Ids that are not UUIDs cannot exist, so
// they answer with notFound.
func pathID(c *gin.Context, notFound *appErrors.Error) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		response.Error(c, notFound)
		return "", false
	}
	return id, true
}

// created answers 201 and tags the audit entry with the new row id.
func created(c *gin.Context, id string, body interface{}) {
	middleware.SetAuditResourceID(c, id)
	response.Created(c, body)
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

func queryBool(c *gin.Context, key string) *bool {
	switch strings.ToLower(c.Query(key)) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

func pageParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(models.DefaultPageSize)))
	return page, size
}

type bulkToggleFunc func(ctx context.Context, ids []string, active bool) (int64, error)

type bulkDeleteFunc func(ctx context.Context, ids []string) (int64, error)

func bulkToggle(c *gin.Context, fn bulkToggleFunc, active bool) {
	var req dto.BulkIDsRequest
	if !bindJSON(c, &req) {
		return
	}
	updated, err := fn(c.Request.Context(), req.IDs, active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.BulkUpdateResponse{Updated: updated}, nil)
}

func bulkDelete(c *gin.Context, fn bulkDeleteFunc) {
	var req dto.BulkIDsRequest
	if !bindJSON(c, &req) {
		return
	}
	deleted, err := fn(c.Request.Context(), req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.BulkDeleteResponse{Deleted: deleted}, nil)
}
