// Package identity implements user and group administration. Reads and
// membership edits go to the directory; account mutations go through the
// administration tool.
package identity

import (
	"context"
	"net/mail"

	"sentinel/internal/domain"
)

// UserService provides user account operations.
type UserService struct {
	dir         domain.AccountDirectory
	admin       domain.AccountAdmin
	minPassword int
}

// NewUserService creates a new UserService.
func NewUserService(dir domain.AccountDirectory, admin domain.AccountAdmin, minPassword int) *UserService {
	if minPassword <= 0 {
		minPassword = domain.DefaultPasswordMin
	}
	return &UserService{dir: dir, admin: admin, minPassword: minPassword}
}

// List returns all user accounts.
func (s *UserService) List(ctx context.Context) ([]domain.Entry, error) {
	return s.dir.ListUsers(ctx)
}

// Get returns a single account by sAMAccountName.
func (s *UserService) Get(ctx context.Context, username string) (*domain.Entry, error) {
	if err := domain.ValidateAccountName(username); err != nil {
		return nil, err
	}
	return s.dir.GetUserByAccountName(ctx, username)
}

// Create validates and creates a new account.
func (s *UserService) Create(ctx context.Context, u domain.NewUser) (domain.CommandResult, error) {
	if err := domain.ValidateAccountName(u.Username); err != nil {
		return domain.CommandResult{}, err
	}
	if err := domain.ValidatePassword(u.Password, s.minPassword); err != nil {
		return domain.CommandResult{}, err
	}
	if u.Email != "" {
		if _, err := mail.ParseAddress(u.Email); err != nil {
			return domain.CommandResult{}, domain.ErrValidation("invalid email address")
		}
	}
	for field, v := range map[string]string{"given name": u.GivenName, "surname": u.Surname} {
		if err := domain.ValidateFreeText(field, v); err != nil {
			return domain.CommandResult{}, err
		}
	}
	return s.admin.CreateUser(ctx, u)
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, username string) (domain.CommandResult, error) {
	return s.mutate(ctx, username, s.admin.DeleteUser)
}

// Disable disables an account.
func (s *UserService) Disable(ctx context.Context, username string) (domain.CommandResult, error) {
	return s.mutate(ctx, username, s.admin.DisableUser)
}

// Enable re-enables an account.
func (s *UserService) Enable(ctx context.Context, username string) (domain.CommandResult, error) {
	return s.mutate(ctx, username, s.admin.EnableUser)
}

// Unlock clears an account lockout.
func (s *UserService) Unlock(ctx context.Context, username string) (domain.CommandResult, error) {
	return s.mutate(ctx, username, s.admin.UnlockUser)
}

// SetPassword sets a new password for the account.
func (s *UserService) SetPassword(ctx context.Context, username, password string) (domain.CommandResult, error) {
	if err := s.checkPassword(username, password); err != nil {
		return domain.CommandResult{}, err
	}
	return s.admin.SetPassword(ctx, username, password)
}

// ResetPassword sets a temporary password that must be changed at next login.
func (s *UserService) ResetPassword(ctx context.Context, username, password string) (domain.CommandResult, error) {
	if err := s.checkPassword(username, password); err != nil {
		return domain.CommandResult{}, err
	}
	return s.admin.ResetPassword(ctx, username, password)
}

// ListComputers returns computer account names.
func (s *UserService) ListComputers(ctx context.Context) ([]string, error) {
	return s.admin.ListComputers(ctx)
}

func (s *UserService) checkPassword(username, password string) error {
	if err := domain.ValidateAccountName(username); err != nil {
		return err
	}
	return domain.ValidatePassword(password, s.minPassword)
}

func (s *UserService) mutate(ctx context.Context, username string, fn func(context.Context, string) (domain.CommandResult, error)) (domain.CommandResult, error) {
	if err := domain.ValidateAccountName(username); err != nil {
		return domain.CommandResult{}, err
	}
	return fn(ctx, username)
}
