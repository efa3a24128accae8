// Command create-admin provisions an administrator account. An existing
// account with the same email is promoted instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	"github.com/himilaisan-astr/elts-backend/internal/models"
	"github.com/himilaisan-astr/elts-backend/internal/repository"
	"github.com/himilaisan-astr/elts-backend/internal/service"
	"github.com/himilaisan-astr/elts-backend/pkg/config"
	"github.com/himilaisan-astr/elts-backend/pkg/database"
	"github.com/himilaisan-astr/elts-backend/pkg/logger"
	"github.com/himilaisan-astr/elts-backend/pkg/security"
)

// readPassword is replaced in tests.
var readPassword = func() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("-password is required when stdin is not a terminal")
	}
	return term.ReadPassword(fd)
}

type adminEnsurer interface {
	EnsureAdmin(ctx context.Context, req dto.RegisterUserRequest) (*models.User, bool, error)
}

func main() {
	req, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("create-admin: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.DB); err != nil {
		logr.Fatal("failed to apply migrations", zap.Error(err))
	}

	users := repository.NewUserRepository(db)
	auth := service.NewAuthService(
		users,
		repository.NewAuditRepository(db),
		security.NewPasswordHasher(cfg.Security.BcryptCost),
		security.NewTokenManager(security.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.Expiration}),
		validator.New(),
		logr,
	)

	if err := run(ctx, auth, req, os.Stdout); err != nil {
		logr.Fatal("create-admin failed", zap.Error(err))
	}
}

func parseFlags(args []string, stderr io.Writer) (dto.RegisterUserRequest, error) {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var req dto.RegisterUserRequest
	fs.StringVar(&req.Email, "email", "", "admin email (required)")
	fs.StringVar(&req.Username, "username", "", "admin username (defaults to the email local part)")
	fs.StringVar(&req.FullName, "name", "", "full name")
	fs.StringVar(&req.Password, "password", "", "password; prompted for when omitted")
	if err := fs.Parse(args); err != nil {
		return req, err
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return req, errors.New("-email is required")
	}
	if req.Username == "" {
		req.Username, _, _ = strings.Cut(req.Email, "@")
	}
	if req.Password == "" {
		fmt.Fprint(stderr, "Password: ")
		pw, err := readPassword()
		fmt.Fprintln(stderr)
		if err != nil {
			return req, err
		}
		req.Password = string(pw)
	}
	return req, nil
}

func run(ctx context.Context, auth adminEnsurer, req dto.RegisterUserRequest, out io.Writer) error {
	user, created, err := auth.EnsureAdmin(ctx, req)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "admin %s created (id %s)\n", user.Email, user.ID)
		return nil
	}
	fmt.Fprintf(out, "existing user %s promoted to admin\n", user.Email)
	return nil
}
