package services

import (
	"errors"
	"fmt"

	"inkpost/app/models"
	"inkpost/app/repositories"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(digest, password string) bool
}

// registerAttempts bounds how often Register retries a unit of work that lost
// a race with another registration.
const registerAttempts = 3

// UserService handles registration and credential checks
type UserService struct {
	store  repositories.Store
	hasher PasswordHasher
}

// NewUserService creates a new UserService
func NewUserService(store repositories.Store, hasher PasswordHasher) *UserService {
	return &UserService{
		store:  store,
		hasher: hasher,
	}
}

// Register creates an account. The first account ever created becomes the
// administrator. An address that is already registered yields ErrEmailTaken
// and leaves the existing account untouched.
func (s *UserService) Register(email, password, name string) (*models.User, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalid)
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        models.NormalizeEmail(email),
		Name:         name,
		PasswordHash: digest,
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	for attempt := 1; ; attempt++ {
		user.ID = 0
		err = s.store.Update(func(tx repositories.Tx) error {
			users := tx.Users()
			if _, err := users.GetByEmail(user.Email); err == nil {
				return ErrEmailTaken
			} else if !errors.Is(err, repositories.ErrNotFound) {
				return err
			}

			count, err := users.Count()
			if err != nil {
				return err
			}
			user.IsAdmin = count == 0
			return users.Create(user)
		})

		switch {
		case err == nil:
			return user, nil
		case errors.Is(err, ErrEmailTaken):
			return nil, ErrEmailTaken
		case errors.Is(err, repositories.ErrDuplicate), errors.Is(err, repositories.ErrConflict):
			if s.emailExists(user.Email) {
				return nil, ErrEmailTaken
			}
			// A concurrent registration won the admin slot; count again.
			if attempt < registerAttempts {
				continue
			}
		}
		return nil, fmt.Errorf("failed to register %q: %w", user.Email, err)
	}
}

// Authenticate returns the account matching email and password.
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	var user *models.User
	err := s.store.View(func(tx repositories.Tx) error {
		var err error
		user, err = tx.Users().GetByEmail(email)
		return err
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUnknownEmail
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %q: %w", email, err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, ErrWrongPassword
	}
	return user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(id int) (*models.User, error) {
	var user *models.User
	err := s.store.View(func(tx repositories.Tx) error {
		var err error
		user, err = tx.Users().GetByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) emailExists(email string) bool {
	err := s.store.View(func(tx repositories.Tx) error {
		_, err := tx.Users().GetByEmail(email)
		return err
	})
	return err == nil
}
