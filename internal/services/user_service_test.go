package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"padelcentar/internal/models"
	"padelcentar/internal/repositories"
	"padelcentar/internal/services"
	"padelcentar/pkg/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPublisher records published user events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishUserEvent(event rabbitmq.UserEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func validRegistration() services.RegisterInput {
	return services.RegisterInput{
		Name:            "  Ana Marić ",
		Email:           " Ana@Example.com ",
		Password:        "password123",
		BirthDate:       "2000-01-15",
		Gender:          models.GenderFemale,
		PadelExperience: models.ExperienceBeginner,
	}
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	publisher := new(MockPublisher)
	svc := services.NewUserService(mockRepo, services.NewHasher(bcrypt.MinCost), publisher)

	mockRepo.On("GetByEmail", ctx, "ana@example.com").Return(nil, fmt.Errorf("x: %w", repositories.ErrNotFound)).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = "user-1"
	}).Once()
	publisher.On("PublishUserEvent", mock.MatchedBy(func(e rabbitmq.UserEvent) bool {
		return e.Type == rabbitmq.EventUserRegistered && e.UserID == "user-1"
	})).Return(nil).Once()

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "Ana Marić", user.Name)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, time.Date(2000, 1, 15, 0, 0, 0, 0, time.UTC), user.BirthDate)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))

	body, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), user.Password)

	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestUserService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := services.NewUserService(new(MockUserRepository), services.NewHasher(bcrypt.MinCost), nil)

	cases := map[string]func(*services.RegisterInput){
		"name":            func(in *services.RegisterInput) { in.Name = "   " },
		"email":           func(in *services.RegisterInput) { in.Email = "" },
		"password":        func(in *services.RegisterInput) { in.Password = "" },
		"birthDate":       func(in *services.RegisterInput) { in.BirthDate = "15.01.2000" },
		"gender":          func(in *services.RegisterInput) { in.Gender = "robot" },
		"padelExperience": func(in *services.RegisterInput) { in.PadelExperience = "legend" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := validRegistration()
			mutate(&in)
			_, err := svc.Register(ctx, in)
			require.ErrorIs(t, err, services.ErrValidation)
			var ve *services.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Fields, field)
		})
	}
}

func TestUserService_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	svc := services.NewUserService(mockRepo, services.NewHasher(bcrypt.MinCost), nil)

	mockRepo.On("GetByEmail", ctx, "ana@example.com").Return(&models.User{ID: "user-1"}, nil).Once()
	_, err := svc.Register(ctx, validRegistration())
	assert.ErrorIs(t, err, services.ErrValidation)

	// Lost the race against a concurrent registration
	mockRepo.On("GetByEmail", ctx, "ana@example.com").Return(nil, fmt.Errorf("x: %w", repositories.ErrNotFound)).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(fmt.Errorf("x: %w", repositories.ErrDuplicate)).Once()
	_, err = svc.Register(ctx, validRegistration())
	assert.ErrorIs(t, err, services.ErrValidation)

	mockRepo.AssertExpectations(t)
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	hasher := services.NewHasher(bcrypt.MinCost)
	svc := services.NewUserService(mockRepo, hasher, nil)

	digest, err := hasher.Hash("password123")
	require.NoError(t, err)
	user := &models.User{ID: "user-1", Email: "ana@example.com", Password: digest}

	mockRepo.On("GetByEmail", ctx, "ana@example.com").Return(user, nil).Twice()
	got, err := svc.Login(ctx, "ANA@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)

	_, err = svc.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, services.ErrUnauthenticated)

	mockRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, fmt.Errorf("x: %w", repositories.ErrNotFound)).Once()
	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, services.ErrUnauthenticated)

	mockRepo.AssertExpectations(t)
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	publisher := new(MockPublisher)
	svc := services.NewUserService(mockRepo, services.NewHasher(bcrypt.MinCost), publisher)

	existing := &models.User{
		ID:              "user-1",
		Name:            "Ana Marić",
		Email:           "ana@example.com",
		Password:        "old-digest",
		Gender:          models.GenderFemale,
		PadelExperience: models.ExperienceBeginner,
	}
	mockRepo.On("GetByID", ctx, "user-1").Return(existing, nil).Once()
	mockRepo.On("Update", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.PadelExperience == models.ExperiencePro && u.Name == "Ana Horvat" && u.Password != "old-digest"
	})).Return(nil).Once()
	publisher.On("PublishUserEvent", mock.MatchedBy(func(e rabbitmq.UserEvent) bool {
		return e.Type == rabbitmq.EventUserUpdated
	})).Return(errors.New("broker down")).Once()

	name := " Ana Horvat "
	exp := models.ExperiencePro
	password := "new-password"
	updated, err := svc.Update(ctx, "user-1", services.UpdateInput{Name: &name, PadelExperience: &exp, Password: &password})
	require.NoError(t, err, "publish failures must not fail the update")
	assert.Equal(t, "Ana Horvat", updated.Name)
	assert.Equal(t, models.GenderFemale, updated.Gender)

	mockRepo.On("GetByID", ctx, "missing").Return(nil, fmt.Errorf("x: %w", repositories.ErrNotFound)).Once()
	_, err = svc.Update(ctx, "missing", services.UpdateInput{Name: &name})
	assert.ErrorIs(t, err, services.ErrNotFound)

	bad := models.Gender("robot")
	mockRepo.On("GetByID", ctx, "user-1").Return(existing, nil).Once()
	_, err = svc.Update(ctx, "user-1", services.UpdateInput{Gender: &bad})
	assert.ErrorIs(t, err, services.ErrValidation)

	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	svc := services.NewUserService(mockRepo, services.NewHasher(bcrypt.MinCost), nil)

	mockRepo.On("Delete", ctx, "user-1").Return(nil).Once()
	assert.NoError(t, svc.Delete(ctx, "user-1"))

	mockRepo.On("Delete", ctx, "user-2").Return(fmt.Errorf("x: %w", repositories.ErrNotFound)).Once()
	assert.ErrorIs(t, svc.Delete(ctx, "user-2"), services.ErrNotFound)

	mockRepo.On("Delete", ctx, "user-3").Return(errors.New("disk full")).Once()
	err := svc.Delete(ctx, "user-3")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrNotFound)

	mockRepo.AssertExpectations(t)
}

func TestUserService_GetByEmail(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	svc := services.NewUserService(mockRepo, services.NewHasher(bcrypt.MinCost), nil)

	mockRepo.On("GetByEmail", ctx, "ana@example.com").Return(&models.User{ID: "user-1"}, nil).Once()
	user, err := svc.GetByEmail(ctx, " ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	mockRepo.On("GetByEmail", ctx, "x@example.com").Return(nil, fmt.Errorf("x: %w", repositories.ErrNotFound)).Once()
	_, err = svc.GetByEmail(ctx, "x@example.com")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestParseBirthDate(t *testing.T) {
	d, err := services.ParseBirthDate("2000-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2000, 1, 15, 0, 0, 0, 0, time.UTC), d)

	d, err = services.ParseBirthDate("2000-01-15T00:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, 15, d.Day())

	for _, withOffset := range []string{
		"2000-01-15T00:00:00+02:00",
		"2000-01-15T23:30:00-05:00",
	} {
		d, err = services.ParseBirthDate(withOffset)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2000, 1, 15, 0, 0, 0, 0, time.UTC), d, withOffset)
	}

	_, err = services.ParseBirthDate("yesterday")
	assert.Error(t, err)
}
