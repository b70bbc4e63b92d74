package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hongminglow/lapse-be/internal/auth"
	"github.com/hongminglow/lapse-be/internal/logger"
	"github.com/hongminglow/lapse-be/internal/models"
	"github.com/hongminglow/lapse-be/internal/storage"
)

// RegisterInput is the data accepted when creating an account.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Image    string `json:"image" validate:"max=512"`
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token string
	User  models.User
}

// UserService owns account registration, login and profile management.
type UserService struct {
	users  storage.UserStore
	tokens *auth.TokenManager
}

// NewUserService wires the service to its store and token manager.
func NewUserService(users storage.UserStore, tokens *auth.TokenManager) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// Register creates a standard account. Username uniqueness is checked
// before email uniqueness.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	in.Image = strings.TrimSpace(in.Image)
	if err := check(in); err != nil {
		return models.User{}, err
	}

	if err := s.ensureUsernameFree(ctx, 0, in.Username); err != nil {
		return models.User{}, err
	}
	if err := s.ensureEmailFree(ctx, 0, in.Email); err != nil {
		return models.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		if auth.IsPasswordTooLong(err) {
			return models.User{}, invalidf("password must be at most 72 bytes")
		}
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.CreateUser(ctx, models.User{
		Username:     in.Username,
		Email:        in.Email,
		Role:         models.RoleStandard,
		Image:        in.Image,
		PasswordHash: hash,
	})
	if err != nil {
		return models.User{}, translateUserErr(err)
	}
	logger.Infof("user registered: id=%d username=%s", created.ID, created.Username)
	return created, nil
}

// Login checks credentials and issues a token. An unknown email still costs
// one bcrypt comparison.
func (s *UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, invalidf("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			auth.BurnPasswordCheck(password)
			return LoginResult{}, ErrUserNotFound
		}
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return LoginResult{}, err
	}
	logger.Infof("user logged in: id=%d", user.ID)
	return LoginResult{Token: token, User: user}, nil
}

// Profile returns the caller's own account.
func (s *UserService) Profile(ctx context.Context, callerID int64) (models.User, error) {
	u, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return models.User{}, translateUserErr(err)
	}
	return u, nil
}

// UpdateProfile applies the present fields of patch to the caller's account.
func (s *UserService) UpdateProfile(ctx context.Context, callerID int64, patch models.UserPatch) (models.User, error) {
	if patch.Empty() {
		return models.User{}, ErrNoFields
	}

	cur, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return models.User{}, translateUserErr(err)
	}

	if patch.Username.Set {
		name := strings.TrimSpace(patch.Username.Value)
		if patch.Username.Null || name == "" {
			return models.User{}, invalidf("username is required")
		}
		if err := checkVar("username", name, "max=64"); err != nil {
			return models.User{}, err
		}
		if err := s.ensureUsernameFree(ctx, cur.ID, name); err != nil {
			return models.User{}, err
		}
		cur.Username = name
	}
	if patch.Email.Set {
		email := normalizeEmail(patch.Email.Value)
		if patch.Email.Null || email == "" {
			return models.User{}, invalidf("email is required")
		}
		if err := checkVar("email", email, "email,max=254"); err != nil {
			return models.User{}, err
		}
		if err := s.ensureEmailFree(ctx, cur.ID, email); err != nil {
			return models.User{}, err
		}
		cur.Email = email
	}
	if patch.Image.Set {
		image := strings.TrimSpace(patch.Image.Value)
		if err := checkVar("image", image, "max=512"); err != nil {
			return models.User{}, err
		}
		cur.Image = image
	}

	updated, err := s.users.UpdateUser(ctx, cur)
	if err != nil {
		return models.User{}, translateUserErr(err)
	}
	return updated, nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, callerID int64, current, next string) error {
	if err := checkVar("new_password", next, "required,min=8,max=72"); err != nil {
		return err
	}
	u, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return translateUserErr(err)
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		if auth.IsPasswordTooLong(err) {
			return invalidf("new_password must be at most 72 bytes")
		}
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, callerID, hash); err != nil {
		return translateUserErr(err)
	}
	logger.Infof("password changed: id=%d", callerID)
	return nil
}

// List returns every account. Callers must already be authorized as admin.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.ListUsers(ctx)
}

// Get returns one account to its owner or to an admin.
func (s *UserService) Get(ctx context.Context, caller auth.Claims, id int64) (models.User, error) {
	if caller.UserID != id && !caller.IsAdmin() {
		return models.User{}, ErrForbidden
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return models.User{}, translateUserErr(err)
	}
	return u, nil
}

// Delete removes an account and, by cascade, its tasks. Users may delete
// themselves; admins may delete anyone.
func (s *UserService) Delete(ctx context.Context, caller auth.Claims, id int64) error {
	if caller.UserID != id && !caller.IsAdmin() {
		return ErrForbidden
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return translateUserErr(err)
	}
	logger.Infof("user deleted: id=%d by=%d", id, caller.UserID)
	return nil
}

// EnsureAdmin creates the admin account, or promotes an existing account
// with the same email.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (models.User, error) {
	existing, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return existing, nil
		}
		existing.Role = models.RoleAdmin
		promoted, err := s.users.UpdateUser(ctx, existing)
		if err != nil {
			return models.User{}, translateUserErr(err)
		}
		logger.Infof("promoted %s to admin", promoted.Email)
		return promoted, nil
	case !errors.Is(err, storage.ErrNotFound):
		return models.User{}, fmt.Errorf("find admin: %w", err)
	}

	created, err := s.Register(ctx, RegisterInput{Username: username, Email: email, Password: password})
	if err != nil {
		return models.User{}, err
	}
	created.Role = models.RoleAdmin
	admin, err := s.users.UpdateUser(ctx, created)
	if err != nil {
		return models.User{}, translateUserErr(err)
	}
	logger.Infof("seeded admin account %s", admin.Email)
	return admin, nil
}

func (s *UserService) ensureUsernameFree(ctx context.Context, selfID int64, username string) error {
	u, err := s.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("find by username: %w", err)
	case u.ID != selfID:
		return ErrUsernameTaken
	}
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, selfID int64, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("find by email: %w", err)
	case u.ID != selfID:
		return ErrEmailTaken
	}
	return nil
}

// normalizeEmail trims and lowercases so one mailbox maps to one account.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func translateUserErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrUsernameExists):
		return ErrUsernameTaken
	case errors.Is(err, storage.ErrEmailExists):
		return ErrEmailTaken
	case errors.Is(err, storage.ErrAlreadyExists):
		return classed(ErrConflict, "user already exists")
	case errors.Is(err, storage.ErrNotFound):
		return ErrUserNotFound
	}
	return err
}
