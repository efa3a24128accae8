package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	"github.com/himilaisan-astr/elts-backend/internal/models"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
	"github.com/himilaisan-astr/elts-backend/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error)
	Register(ctx context.Context, req dto.RegisterUserRequest) (*models.User, error)
}

// AuthHandler exposes token and account endpoints.
type AuthHandler struct {
	auth authService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth authService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Token godoc
// @Summary Exchange credentials for a bearer token
// @Tags Auth
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	token, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, token, nil)
}

// Register godoc
// @Summary Register a staff account
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.RegisterUserRequest true "Account"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Me godoc
// @Summary Current user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
