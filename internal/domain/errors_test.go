package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructors(t *testing.T) {
	assert.Equal(t, "user bob not found", ErrNotFound("user %s not found", "bob").Error())
	assert.Equal(t, "not authorized", ErrAuthorization("not authorized").Error())
	assert.Equal(t, "invalid credential", ErrAuthentication("invalid credential").Error())
	assert.Equal(t, "bad input", ErrValidation("bad %s", "input").Error())
	assert.Equal(t, "bob is already a member of Staff", ErrConflict("%s is already a member of %s", "bob", "Staff").Error())
}

func TestDirectoryError_Unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("list users: %w", ErrDirectory("search", cause))

	var de *DirectoryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "search", de.Op)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "list users: directory search: connection refused", err.Error())
}

func TestCommandExecutionError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *CommandExecutionError
		want string
	}{
		{
			name: "timeout",
			err:  &CommandExecutionError{Command: "user disable -- bob", Reason: "timed out"},
			want: `command "user disable -- bob" failed: timed out`,
		},
		{
			name: "exit code and stderr",
			err: &CommandExecutionError{
				Command: "user add -- bob ********", Reason: "exit status 255",
				ExitCode: 255, Stderr: "ERROR: already exists\n",
			},
			want: `command "user add -- bob ********" failed: exit status 255 (exit code 255): ERROR: already exists`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCommandSpec_Redacted(t *testing.T) {
	spec := CommandSpec{
		Category: CategoryUser,
		Action:   "setpassword",
		Argv:     []string{"user", "setpassword", "--newpassword=Secr3t!!", "--", "bob"},
		Secret:   map[int]bool{2: true},
	}
	assert.Equal(t, []string{"user", "setpassword", "--newpassword=" + RedactedArg, "--", "bob"}, spec.Redacted())
	assert.NotContains(t, spec.String(), "Secr3t")
	assert.Equal(t, "Secr3t!!", spec.Argv[2][len("--newpassword="):], "argv itself is untouched")

	positional := CommandSpec{Argv: []string{"user", "add", "--", "bob", "Secr3t!!"}, Secret: map[int]bool{4: true}}
	assert.Equal(t, "user add -- bob "+RedactedArg, positional.String())
}

func TestPageRequest(t *testing.T) {
	tests := []struct {
		in         PageRequest
		wantLimit  int
		wantOffset int
	}{
		{PageRequest{}, DefaultPageLimit, 0},
		{PageRequest{Limit: 10, Offset: 20}, 10, 20},
		{PageRequest{Limit: 10000, Offset: -5}, MaxPageLimit, 0},
		{PageRequest{Limit: -1}, DefaultPageLimit, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wantLimit, tt.in.EffectiveLimit())
		assert.Equal(t, tt.wantOffset, tt.in.EffectiveOffset())
	}
}

func TestActorFromContext(t *testing.T) {
	ctx := t.Context()
	assert.Equal(t, "unknown", ActorFromContext(ctx))

	ctx = WithPrincipal(ctx, ContextPrincipal{Username: "alice", DN: "CN=alice"})
	assert.Equal(t, "alice", ActorFromContext(ctx))
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "CN=alice", p.DN)
}
