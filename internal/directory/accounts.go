package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"sentinel/internal/domain"
)

// UserAttributes are returned for user reads.
var UserAttributes = []string{
	"cn", "name", "displayName", "givenName", "sn", "mail",
	"sAMAccountName", "userPrincipalName", "distinguishedName",
	"memberOf", "objectSid", "objectGUID", "userAccountControl",
	"logonCount", "lastLogonTimestamp", "lockoutTime", "pwdLastSet", "whenCreated",
}

var groupAttributes = []string{"cn", "description", "member"}

const (
	userFilter  = "(&(objectClass=user)(!(objectClass=computer)))"
	groupFilter = "(objectClass=group)"
)

func accountFilter(username string) string {
	return fmt.Sprintf("(&(objectClass=user)(sAMAccountName=%s))", ldap.EscapeFilter(username))
}

func groupNameFilter(name string) string {
	return fmt.Sprintf("(&%s(cn=%s))", groupFilter, ldap.EscapeFilter(name))
}

// ListUsers returns every user account under the search base.
func (c *Client) ListUsers(ctx context.Context) ([]domain.Entry, error) {
	return c.Search(ctx, c.cfg.SearchBase, userFilter, domain.ScopeSubtree, UserAttributes)
}

// GetUserByAccountName returns the single user whose sAMAccountName matches.
// Zero matches is a NotFoundError, more than one a ConflictError.
func (c *Client) GetUserByAccountName(ctx context.Context, username string) (*domain.Entry, error) {
	if err := domain.ValidateAccountName(username); err != nil {
		return nil, err
	}
	entries, err := c.Search(ctx, c.cfg.SearchBase, accountFilter(username), domain.ScopeSubtree, UserAttributes)
	if err != nil {
		return nil, err
	}
	switch len(entries) {
	case 0:
		return nil, domain.ErrNotFound("user %q not found", username)
	case 1:
		return &entries[0], nil
	default:
		return nil, domain.ErrConflict("account name %q is ambiguous", username)
	}
}

// FindUserDN resolves an account name to its distinguished name.
func (c *Client) FindUserDN(ctx context.Context, username string) (string, error) {
	if err := domain.ValidateAccountName(username); err != nil {
		return "", err
	}
	entries, err := c.search(ctx, c.cfg.SearchBase, accountFilter(username), domain.ScopeSubtree, []string{"distinguishedName"})
	if err != nil {
		return "", err
	}
	switch len(entries) {
	case 0:
		return "", domain.ErrNotFound("user %q not found", username)
	case 1:
		return entries[0].DN, nil
	default:
		return "", domain.ErrConflict("account name %q is ambiguous", username)
	}
}

// IsMember reports whether userDN is a direct member of groupDN.
func (c *Client) IsMember(ctx context.Context, userDN, groupDN string) (bool, error) {
	filter := fmt.Sprintf("(member=%s)", ldap.EscapeFilter(userDN))
	entries, err := c.search(ctx, groupDN, filter, domain.ScopeBase, []string{"cn"})
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return false, domain.ErrDirectory("membership check", fmt.Errorf("group %q does not exist", groupDN))
		}
		return false, err
	}
	return len(entries) > 0, nil
}

// ListGroups returns the groups in the group container.
func (c *Client) ListGroups(ctx context.Context) ([]domain.Group, error) {
	entries, err := c.Search(ctx, c.cfg.GroupBaseDN, groupFilter, domain.ScopeSubtree, groupAttributes)
	if err != nil {
		return nil, err
	}
	groups := make([]domain.Group, 0, len(entries))
	for _, e := range entries {
		groups = append(groups, entryToGroup(e))
	}
	return groups, nil
}

// GetGroupInfo looks a group up by its common name.
func (c *Client) GetGroupInfo(ctx context.Context, name string) (*domain.Group, error) {
	if err := domain.ValidateGroupName(name); err != nil {
		return nil, err
	}
	entries, err := c.Search(ctx, c.cfg.GroupBaseDN, groupNameFilter(name), domain.ScopeSubtree, groupAttributes)
	if err != nil {
		return nil, err
	}
	switch len(entries) {
	case 0:
		return nil, domain.ErrNotFound("group %q not found", name)
	case 1:
		g := entryToGroup(entries[0])
		return &g, nil
	default:
		return nil, domain.ErrConflict("group name %q is ambiguous", name)
	}
}

// GetGroupMembers returns the member DNs of a group.
func (c *Client) GetGroupMembers(ctx context.Context, name string) ([]string, error) {
	g, err := c.GetGroupInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	return g.Members, nil
}

// CreateGroup adds a global security group under the group container.
func (c *Client) CreateGroup(ctx context.Context, name, description string) (*domain.Group, error) {
	if err := domain.ValidateGroupName(name); err != nil {
		return nil, err
	}
	if err := domain.ValidateFreeText("description", description); err != nil {
		return nil, err
	}
	dn := fmt.Sprintf("cn=%s,%s", ldap.EscapeDN(name), c.cfg.GroupBaseDN)
	attrs := map[string][]string{
		"objectClass":    {"top", "group"},
		"cn":             {name},
		"sAMAccountName": {name},
	}
	if description != "" {
		attrs["description"] = []string{description}
	}
	if err := c.Add(ctx, dn, attrs); err != nil {
		return nil, err
	}
	c.logger.Info("group created", "group", name, "dn", dn)
	return &domain.Group{Name: name, DN: dn, Description: description, Members: []string{}}, nil
}

// AddMember adds username to groupName. If the user is already a member the
// directory is left untouched and Changed is false.
func (c *Client) AddMember(ctx context.Context, groupName, username string) (domain.MembershipResult, error) {
	return c.editMembership(ctx, groupName, username, true)
}

// RemoveMember removes username from groupName. If the user is not a member
// the directory is left untouched and Changed is false.
func (c *Client) RemoveMember(ctx context.Context, groupName, username string) (domain.MembershipResult, error) {
	return c.editMembership(ctx, groupName, username, false)
}

func (c *Client) editMembership(ctx context.Context, groupName, username string, add bool) (domain.MembershipResult, error) {
	if err := domain.ValidateGroupName(groupName); err != nil {
		return domain.MembershipResult{}, err
	}
	if err := domain.ValidateAccountName(username); err != nil {
		return domain.MembershipResult{}, err
	}
	group, err := c.GetGroupInfo(ctx, groupName)
	if err != nil {
		return domain.MembershipResult{}, err
	}
	userDN, err := c.FindUserDN(ctx, username)
	if err != nil {
		return domain.MembershipResult{}, err
	}

	res := domain.MembershipResult{GroupDN: group.DN, UserDN: userDN}
	present := containsDN(group.Members, userDN)
	if present == add {
		return res, nil
	}

	op := domain.ModifyOp{Kind: domain.ModifyDelete, Attribute: "member", Values: []string{userDN}}
	if add {
		op.Kind = domain.ModifyAdd
	}
	if err := c.Modify(ctx, group.DN, []domain.ModifyOp{op}); err != nil {
		return domain.MembershipResult{}, err
	}
	res.Changed = true
	c.logger.Info("group membership changed", "group", groupName, "user", username, "op", op.Kind)
	return res, nil
}

func containsDN(dns []string, dn string) bool {
	want := normalizeDN(dn)
	for _, d := range dns {
		if normalizeDN(d) == want {
			return true
		}
	}
	return false
}

// normalizeDN lower-cases a DN and strips spaces around RDN separators.
func normalizeDN(dn string) string {
	parts := strings.Split(dn, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.ToLower(strings.Join(parts, ","))
}
