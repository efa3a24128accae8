package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	"github.com/himilaisan-astr/elts-backend/internal/models"
	"github.com/himilaisan-astr/elts-backend/internal/repository"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
	"github.com/himilaisan-astr/elts-backend/pkg/security"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	SetAdmin(ctx context.Context, id string, admin bool) error
}

type auditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type passwordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, stored string) bool
}

type tokenManager interface {
	Issue(subject string) (string, time.Time, error)
	Verify(token string) (string, error)
	TTL() time.Duration
}

// AuthService implements login, registration and the request authentication gate.
type AuthService struct {
	repo      authUserRepository
	audit     auditRecorder
	hasher    passwordHasher
	tokens    tokenManager
	validator *validator.Validate
	logger    *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, audit auditRecorder, hasher passwordHasher, tokens tokenManager, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{repo: repo, audit: audit, hasher: hasher, tokens: tokens, validator: validate, logger: logger}
}

// Authenticate checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.hasher.Verify(password, s.dummy())
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, appErrors.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates a user and issues a bearer token whose subject is the user id.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, appErrors.ErrInactiveAccount
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.record(ctx, &models.AuditLog{
		UserID:     &user.ID,
		Action:     models.AuditActionLogin,
		Resource:   "auth",
		ResourceID: &user.ID,
		NewValues:  []byte(`{"status":"success"}`),
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	})
	s.logger.Info("user logged in", zap.String("user_id", user.ID))

	return &models.TokenResponse{
		AccessToken: token,
		TokenType:   models.TokenTypeBearer,
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

// ResolveCurrentUser maps a bearer token to an active user.
func (s *AuthService) ResolveCurrentUser(ctx context.Context, token string) (*models.User, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, appErrors.ErrUnauthorized.Message)
	}
	user, err := s.repo.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.Active {
		return nil, appErrors.ErrInactiveAccount
	}
	return user, nil
}

// RequireAdmin passes the user through only when it holds the admin flag.
func (s *AuthService) RequireAdmin(user *models.User) (*models.User, error) {
	if user == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !user.IsAdmin {
		return nil, appErrors.ErrForbidden
	}
	return user, nil
}

// Register creates an active, non-admin account.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	return s.createUser(ctx, req, false)
}

// EnsureAdmin creates an admin account, or promotes the existing account with
// the same email.
func (s *AuthService) EnsureAdmin(ctx context.Context, req dto.RegisterUserRequest) (*models.User, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}
	existing, err := s.repo.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		if err := s.repo.SetAdmin(ctx, existing.ID, true); err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to promote user")
		}
		existing.IsAdmin = true
		existing.Active = true
		return existing, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	user, err := s.createUser(ctx, req, true)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *AuthService) createUser(ctx context.Context, req dto.RegisterUserRequest, admin bool) (*models.User, error) {
	// validator counts runes; bcrypt limits bytes.
	if len(req.Password) > security.MaxPasswordBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password must be at most 72 bytes")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.ErrDuplicateEmail
	}
	exists, err = s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate username")
	}
	if exists {
		return nil, appErrors.ErrDuplicateUsername
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user := &models.User{
		Email:        email,
		Username:     req.Username,
		FullName:     req.FullName,
		PasswordHash: hash,
		Active:       true,
		IsAdmin:      admin,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, appErrors.ErrDuplicateEmail
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, appErrors.ErrDuplicateUsername
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	return user, nil
}

func (s *AuthService) record(ctx context.Context, entry *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}

// dummy returns a real hash so unknown emails cost one bcrypt comparison.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("elts-timing-equaliser")
		if err != nil {
			s.logger.Warn("failed to prepare dummy hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

var (
	_ passwordHasher = (*security.PasswordHasher)(nil)
	_ tokenManager   = (*security.TokenManager)(nil)
)

