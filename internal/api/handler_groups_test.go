package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/domain"
)

const staffDN = "cn=Staff,ou=Groups,dc=example,dc=test"

func TestAPI_GroupReads(t *testing.T) {
	env := newTestEnv(t)
	staff := domain.Group{Name: "Staff", DN: staffDN, Description: "Everyone", Members: []string{userDN("bob")}}
	env.accounts.ListGroupsFn = func(context.Context) ([]domain.Group, error) {
		return []domain.Group{staff, {Name: "Empty", DN: "cn=Empty", Members: []string{}}}, nil
	}
	env.accounts.GetGroupInfoFn = func(_ context.Context, name string) (*domain.Group, error) {
		if name != "Staff" {
			return nil, domain.ErrNotFound("group %s not found", name)
		}
		return &staff, nil
	}
	env.accounts.GetGroupMembersFn = func(context.Context, string) ([]string, error) {
		return staff.Members, nil
	}
	tok := env.token(t, "alice")

	status, body := env.do(t, http.MethodGet, "/groups", tok, "")
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, float64(2), body["count"], 0.001)

	status, body = env.do(t, http.MethodGet, "/groups/Staff", tok, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, staffDN, body["distinguishedName"])
	assert.Equal(t, "Everyone", body["description"])

	status, _ = env.do(t, http.MethodGet, "/groups/Nobody", tok, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.do(t, http.MethodGet, "/groups/Staff/members", tok, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{userDN("bob")}, body["values"])
}

func TestAPI_CreateGroup(t *testing.T) {
	env := newTestEnv(t)
	env.accounts.CreateGroupFn = func(_ context.Context, name, description string) (*domain.Group, error) {
		return &domain.Group{Name: name, DN: "cn=" + name + ",ou=Groups,dc=example,dc=test", Description: description, Members: []string{}}, nil
	}

	status, body := env.do(t, http.MethodPost, "/groups", env.token(t, "alice"), `{"name":"Helpdesk","description":"Tier 1"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "cn=Helpdesk,ou=Groups,dc=example,dc=test", body["distinguishedName"])
	assert.Equal(t, []any{}, body["members"])

	entries := env.waitForAudit(t, 1)
	assert.Equal(t, "create_group", entries[0].Action)
	assert.Equal(t, "Helpdesk", *entries[0].Target)
}

func TestAPI_CreateGroupInvalidName(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.do(t, http.MethodPost, "/groups", env.token(t, "alice"), `{"name":"evil)(cn=*"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_DeleteGroup(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodDelete, "/groups/Staff", env.token(t, "alice"), "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []string{"DeleteGroup"}, env.admin.CallNames())

	entries := env.waitForAudit(t, 1)
	assert.Equal(t, "delete_group", entries[0].Action)
}

func TestAPI_GroupMembership(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		changed    bool
		wantStatus int
		action     string
		wantMsg    string
	}{
		{"add", http.MethodPut, true, http.StatusOK, "add_group_member", ""},
		{"add no-op", http.MethodPut, false, http.StatusConflict, "add_group_member", "bob is already a member of Staff"},
		{"remove", http.MethodDelete, true, http.StatusOK, "remove_group_member", ""},
		{"remove no-op", http.MethodDelete, false, http.StatusConflict, "remove_group_member", "bob is not a member of Staff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			edit := func(_ context.Context, group, username string) (domain.MembershipResult, error) {
				return domain.MembershipResult{GroupDN: "cn=" + group, UserDN: userDN(username), Changed: tt.changed}, nil
			}
			env.accounts.AddMemberFn = edit
			env.accounts.RemoveMemberFn = edit

			status, body := env.do(t, tt.method, "/groups/Staff/members/bob", env.token(t, "alice"), "")
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.changed, body["success"])
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body["message"])
			} else {
				assert.Equal(t, userDN("bob"), body["userDN"])
			}

			entries := env.waitForAudit(t, 1)
			assert.Equal(t, tt.action, entries[0].Action)
			assert.Equal(t, "Staff", *entries[0].Target)
			assert.Equal(t, "bob", entries[0].Details["member"])
		})
	}
}
