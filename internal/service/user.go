package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/studyshare/backend/internal/model"
	"github.com/studyshare/backend/internal/repository"
	"github.com/studyshare/backend/internal/validation"
)

type UserService struct {
	userRepository repository.UserRepository
	now            func() time.Time
}

func NewUserService(userRepository repository.UserRepository) *UserService {
	return &UserService{
		userRepository: userRepository,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

type CreateUserInput struct {
	ID    string // Optional: identity-provider subject, generated when empty
	Email string
	Name  *string
}

// UpdateUserInput merges into the stored user. NameSet distinguishes an
// explicit null (clear the name) from an absent field.
type UpdateUserInput struct {
	Email   *string
	Name    *string
	NameSet bool
}

// authorizeAccount allows an account to be changed only by the principal it
// belongs to, and only with the email address that principal signed in with.
func authorizeAccount(principal *model.Principal, id string, email *string) error {
	if principal == nil || principal.ID == "" {
		return newError(KindUnauthenticated, "Unauthorized", nil)
	}
	if principal.ID != id {
		return newError(KindForbidden, "You do not have permission to modify this user", nil)
	}
	if email != nil && *email != validation.NormalizeEmail(principal.Email) {
		return newError(KindForbidden, "Email must match the signed-in account", nil)
	}
	return nil
}

// Create registers the principal's own account. The id defaults to the
// principal's subject and the email must be the one it signed in with.
func (s *UserService) Create(ctx context.Context, principal *model.Principal, in CreateUserInput) (*model.User, error) {
	email := validation.NormalizeEmail(in.Email)
	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, validationError("Invalid user data", err)
	}

	id := strings.TrimSpace(in.ID)
	if id == "" && principal != nil {
		id = principal.ID
	}
	err = authorizeAccount(principal, id, &email)
	if err != nil {
		return nil, err
	}

	return s.create(ctx, CreateUserInput{ID: id, Email: email, Name: in.Name})
}

func (s *UserService) create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	email := validation.NormalizeEmail(in.Email)
	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, validationError("Invalid user data", err)
	}

	name := trimName(in.Name)
	err = validation.ValidateName(name)
	if err != nil {
		return nil, validationError("Invalid user data", err)
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.New().String()
	}

	user := &model.User{
		ID:        id,
		Email:     email,
		Name:      name,
		CreatedAt: s.now(),
	}

	err = s.userRepository.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateUser) {
		return nil, newError(KindConflict, "User already exists", err)
	}
	if err != nil {
		return nil, internal("Failed to create user", err)
	}

	slog.Info("user created", "user_id", user.ID)
	return user, nil
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, notFound("User not found", err)
	}
	if err != nil {
		return nil, internal("Failed to fetch user", err)
	}
	return user, nil
}

func (s *UserService) ByEmail(ctx context.Context, email string) (*model.User, error) {
	email = validation.NormalizeEmail(email)
	if email == "" {
		return nil, validationError("email is required", nil)
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, notFound("User not found", err)
	}
	if err != nil {
		return nil, internal("Failed to fetch user", err)
	}
	return user, nil
}

// All returns every user ordered by email.
func (s *UserService) All(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepository.All(ctx)
	if err != nil {
		return nil, internal("Failed to fetch users", err)
	}
	return users, nil
}

func (s *UserService) Update(ctx context.Context, principal *model.Principal, id string, in UpdateUserInput) (*model.User, error) {
	var email *string
	if in.Email != nil {
		normalized := validation.NormalizeEmail(*in.Email)
		err := validation.ValidateEmail(normalized)
		if err != nil {
			return nil, validationError("Invalid user data", err)
		}
		email = &normalized
	}

	err := authorizeAccount(principal, id, email)
	if err != nil {
		return nil, err
	}

	user, err := s.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if email != nil {
		user.Email = *email
	}

	if in.NameSet {
		name := trimName(in.Name)
		err = validation.ValidateName(name)
		if err != nil {
			return nil, validationError("Invalid user data", err)
		}
		user.Name = name
	}

	err = s.userRepository.Update(ctx, user)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return nil, notFound("User not found", err)
	case errors.Is(err, repository.ErrDuplicateUser):
		return nil, newError(KindConflict, "Email already in use", err)
	case err != nil:
		return nil, internal("Failed to update user", err)
	}

	return user, nil
}

func (s *UserService) Delete(ctx context.Context, principal *model.Principal, id string) (*model.User, error) {
	err := authorizeAccount(principal, id, nil)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepository.Delete(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, notFound("User not found", err)
	}
	if err != nil {
		return nil, internal("Failed to delete user", err)
	}

	slog.Info("user deleted", "user_id", id)
	return user, nil
}

// EnsureOAuthUser returns the user with email, creating it on first sign-in.
// A name from the provider fills in a missing one but never overwrites.
func (s *UserService) EnsureOAuthUser(ctx context.Context, email, name, provider string) (*model.User, error) {
	email = validation.NormalizeEmail(email)

	user, err := s.userRepository.ByEmail(ctx, email)
	if err == nil {
		if user.Name == nil && strings.TrimSpace(name) != "" {
			trimmed := strings.TrimSpace(name)
			user.Name = &trimmed
			err = s.userRepository.Update(ctx, user)
			if err != nil {
				slog.Warn("failed to store provider name", "error", err, "user_id", user.ID)
			}
		}
		slog.Info("user authenticated via OAuth", "user_id", user.ID, "provider", provider)
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, internal("Failed to lookup user", err)
	}

	var namePtr *string
	if strings.TrimSpace(name) != "" {
		namePtr = &name
	}

	user, err = s.create(ctx, CreateUserInput{Email: email, Name: namePtr})
	if KindOf(err) == KindConflict {
		// Created concurrently by another sign-in
		return s.ByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("new OAuth user created", "user_id", user.ID, "provider", provider)
	return user, nil
}

func trimName(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	return &trimmed
}
