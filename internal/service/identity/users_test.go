package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/domain"
	"sentinel/internal/testutil"
)

func TestUserService_Get(t *testing.T) {
	dir := &testutil.MockAccountDirectory{
		GetUserByAccountNameFn: func(_ context.Context, username string) (*domain.Entry, error) {
			e := domain.Entry{DN: "cn=" + username + ",dc=example,dc=test"}
			e.Set("sAMAccountName", username)
			return &e, nil
		},
	}
	svc := NewUserService(dir, &testutil.MockAccountAdmin{}, 8)

	e, err := svc.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", e.String("sAMAccountName"))

	_, err = svc.Get(context.Background(), "a*")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestUserService_Create(t *testing.T) {
	tests := []struct {
		name    string
		user    domain.NewUser
		wantErr bool
	}{
		{"valid", domain.NewUser{Username: "bob", Password: "Initial-Pass1", Email: "bob@example.test"}, false},
		{"no email", domain.NewUser{Username: "bob", Password: "Initial-Pass1"}, false},
		{"bad username", domain.NewUser{Username: "bob smith", Password: "Initial-Pass1"}, true},
		{"short password", domain.NewUser{Username: "bob", Password: "short"}, true},
		{"bad email", domain.NewUser{Username: "bob", Password: "Initial-Pass1", Email: "not-an-email"}, true},
		{"control in surname", domain.NewUser{Username: "bob", Password: "Initial-Pass1", Surname: "B\x00"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admin := &testutil.MockAccountAdmin{}
			svc := NewUserService(&testutil.MockAccountDirectory{}, admin, 8)

			_, err := svc.Create(context.Background(), tt.user)
			if tt.wantErr {
				var ve *domain.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Zero(t, admin.CallCount(), "nothing executed on invalid input")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"CreateUser"}, admin.Calls)
		})
	}
}

func TestUserService_Mutations(t *testing.T) {
	admin := &testutil.MockAccountAdmin{}
	svc := NewUserService(&testutil.MockAccountDirectory{}, admin, 8)
	ctx := context.Background()

	_, err := svc.Delete(ctx, "bob")
	require.NoError(t, err)
	_, err = svc.Disable(ctx, "bob")
	require.NoError(t, err)
	_, err = svc.Enable(ctx, "bob")
	require.NoError(t, err)
	_, err = svc.Unlock(ctx, "bob")
	require.NoError(t, err)
	_, err = svc.SetPassword(ctx, "bob", "N3w-Passw0rd")
	require.NoError(t, err)
	_, err = svc.ResetPassword(ctx, "bob", "N3w-Passw0rd")
	require.NoError(t, err)

	assert.Equal(t, []string{"DeleteUser", "DisableUser", "EnableUser", "UnlockUser", "SetPassword", "ResetPassword"}, admin.Calls)
}

func TestUserService_RejectsBeforeExecuting(t *testing.T) {
	admin := &testutil.MockAccountAdmin{}
	svc := NewUserService(&testutil.MockAccountDirectory{}, admin, 12)
	ctx := context.Background()

	_, err := svc.Delete(ctx, "--remove-all")
	require.Error(t, err)
	_, err = svc.SetPassword(ctx, "bob", "elevenchars")
	require.Error(t, err, "configured minimum is 12")
	_, err = svc.ResetPassword(ctx, "bob;id", "N3w-Passw0rd!")
	require.Error(t, err)

	assert.Zero(t, admin.CallCount())
}

func TestUserService_PropagatesCommandErrors(t *testing.T) {
	admin := &testutil.MockAccountAdmin{
		DisableUserFn: func(context.Context, string) (domain.CommandResult, error) {
			return domain.CommandResult{}, &domain.CommandExecutionError{Command: "user disable -- bob", ExitCode: 255, Stderr: "no such user"}
		},
	}
	_, err := NewUserService(&testutil.MockAccountDirectory{}, admin, 8).Disable(context.Background(), "bob")
	var ce *domain.CommandExecutionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 255, ce.ExitCode)
}
