package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"padelcentar/internal/models"
	"padelcentar/internal/repositories"
	"padelcentar/pkg/rabbitmq"

	log "github.com/sirupsen/logrus"
)

// EventPublisher publishes user lifecycle events. *rabbitmq.Client satisfies it.
type EventPublisher interface {
	PublishUserEvent(event rabbitmq.UserEvent) error
}

// RegisterInput carries the fields of a self-registration.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	BirthDate       string
	Gender          models.Gender
	PadelExperience models.PadelExperience
}

// UpdateInput carries a partial user update. Nil fields are left unchanged.
type UpdateInput struct {
	Name            *string
	Email           *string
	Password        *string
	BirthDate       *string
	Gender          *models.Gender
	PadelExperience *models.PadelExperience
}

// UserService handles business logic for registered users.
type UserService struct {
	userRepo  repositories.UserRepository
	hasher    *Hasher
	publisher EventPublisher
	now       func() time.Time
}

// NewUserService creates a new UserService. publisher may be nil, in which
// case no events are published.
func NewUserService(userRepo repositories.UserRepository, hasher *Hasher, publisher EventPublisher) *UserService {
	return &UserService{
		userRepo:  userRepo,
		hasher:    hasher,
		publisher: publisher,
		now:       time.Now,
	}
}

// NormalizeEmail trims and lowercases an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseBirthDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseBirthDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid birth date %q", value)
	}
	// Keep the calendar day as written, whatever the offset.
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Register validates and stores a new user.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fieldError("name", "Name is required")
	}
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, fieldError("email", "Email is required")
	}
	if in.Password == "" {
		return nil, fieldError("password", "Password is required")
	}
	birthDate, err := ParseBirthDate(in.BirthDate)
	if err != nil {
		return nil, fieldError("birthDate", "Birth date is invalid")
	}
	if !in.Gender.Valid() {
		return nil, fieldError("gender", "Gender must be one of male, female, other")
	}
	if !in.PadelExperience.Valid() {
		return nil, fieldError("padelExperience", "Padel experience must be one of beginner, intermediate, pro")
	}

	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, fieldError("email", "Email is already registered")
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:            name,
		Email:           email,
		Password:        digest,
		BirthDate:       birthDate,
		Gender:          in.Gender,
		PadelExperience: in.PadelExperience,
		CreatedAt:       s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fieldError("email", "Email is already registered")
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.publish(rabbitmq.EventUserRegistered, user)
	return user, nil
}

// List returns every user, newest first.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

// Count returns the number of registered users.
func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.userRepo.Count(ctx)
}

// GetByEmail looks up a user by email, ignoring case and surrounding whitespace.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// Login checks a user's email and password. Unknown emails and wrong
// passwords both yield ErrUnauthenticated.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.Password) {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// Update applies the non-nil fields of in to the user with the given id.
func (s *UserService) Update(ctx context.Context, id string, in UpdateInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fieldError("name", "Name is required")
		}
		user.Name = name
	}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if email == "" {
			return nil, fieldError("email", "Email is required")
		}
		user.Email = email
	}
	if in.BirthDate != nil {
		birthDate, err := ParseBirthDate(*in.BirthDate)
		if err != nil {
			return nil, fieldError("birthDate", "Birth date is invalid")
		}
		user.BirthDate = birthDate
	}
	if in.Gender != nil {
		if !in.Gender.Valid() {
			return nil, fieldError("gender", "Gender must be one of male, female, other")
		}
		user.Gender = *in.Gender
	}
	if in.PadelExperience != nil {
		if !in.PadelExperience.Valid() {
			return nil, fieldError("padelExperience", "Padel experience must be one of beginner, intermediate, pro")
		}
		user.PadelExperience = *in.PadelExperience
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, fieldError("password", "Password is required")
		}
		digest, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = digest
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, fieldError("email", "Email is already registered")
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}

	s.publish(rabbitmq.EventUserUpdated, user)
	return user, nil
}

// Delete removes the user with the given id.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	s.publish(rabbitmq.EventUserDeleted, &models.User{ID: id})
	return nil
}

// publish is best effort: a broker failure never fails the request.
func (s *UserService) publish(eventType string, user *models.User) {
	if s.publisher == nil {
		log.WithField("event", eventType).Debug("event publisher not configured, skipping")
		return
	}
	event := rabbitmq.UserEvent{
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.PublishUserEvent(event); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"event":   eventType,
			"user_id": user.ID,
		}).Warn("failed to publish user event")
	}
}
