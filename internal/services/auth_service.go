package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"padelcentar/internal/models"
	"padelcentar/internal/repositories"

	log "github.com/sirupsen/logrus"
)

// AuthService handles admin login, token-based authorization and the
// bootstrap admin account.
type AuthService struct {
	adminRepo repositories.AdminRepository
	hasher    *Hasher
	tokens    *TokenService
}

// NewAuthService creates a new AuthService.
func NewAuthService(adminRepo repositories.AdminRepository, hasher *Hasher, tokens *TokenService) *AuthService {
	return &AuthService{
		adminRepo: adminRepo,
		hasher:    hasher,
		tokens:    tokens,
	}
}

// Login checks the admin credentials and returns a signed session token.
// Unknown usernames and wrong passwords both yield ErrUnauthenticated.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrUnauthenticated
		}
		return "", fmt.Errorf("failed to look up admin: %w", err)
	}

	if !s.hasher.Verify(password, admin.Password) {
		return "", ErrUnauthenticated
	}

	token, err := s.tokens.Issue(admin.ID)
	if err != nil {
		return "", err
	}
	return token, nil
}

// BearerToken extracts the token from an Authorization header of the form
// "Bearer <token>". It returns "" when the header is absent or malformed.
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Authorize resolves the admin behind an Authorization header value.
// Every denial, whatever its cause, is reported as ErrUnauthenticated.
func (s *AuthService) Authorize(ctx context.Context, authorizationHeader string) (*models.Admin, error) {
	token := BearerToken(authorizationHeader)
	if token == "" {
		return nil, fmt.Errorf("%w: no token provided", ErrUnauthenticated)
	}

	adminID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.WithError(err).Error("admin lookup failed during authorization")
		}
		return nil, fmt.Errorf("%w: unknown admin", ErrUnauthenticated)
	}
	return admin, nil
}

// EnsureBootstrapAdmin creates the admin account named username unless it
// already exists. It is safe to call on every startup.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, username, password string) (*models.Admin, bool, error) {
	existing, err := s.adminRepo.GetByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to check bootstrap admin: %w", err)
	}
	if password == "" {
		return nil, false, newValidationError("bootstrap admin password is empty")
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.Admin{Username: username, Password: digest}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// Another instance created it between the check and the insert.
			existing, getErr := s.adminRepo.GetByUsername(ctx, username)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to reload bootstrap admin: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	return admin, true, nil
}
