package identity

import (
	"context"

	"sentinel/internal/domain"
)

// GroupService provides group operations.
type GroupService struct {
	dir   domain.AccountDirectory
	admin domain.AccountAdmin
}

// NewGroupService creates a new GroupService.
func NewGroupService(dir domain.AccountDirectory, admin domain.AccountAdmin) *GroupService {
	return &GroupService{dir: dir, admin: admin}
}

// List returns all groups in the group container.
func (s *GroupService) List(ctx context.Context) ([]domain.Group, error) {
	return s.dir.ListGroups(ctx)
}

// Get returns a group by name.
func (s *GroupService) Get(ctx context.Context, name string) (*domain.Group, error) {
	if err := domain.ValidateGroupName(name); err != nil {
		return nil, err
	}
	return s.dir.GetGroupInfo(ctx, name)
}

// Members returns the member DNs of a group.
func (s *GroupService) Members(ctx context.Context, name string) ([]string, error) {
	if err := domain.ValidateGroupName(name); err != nil {
		return nil, err
	}
	return s.dir.GetGroupMembers(ctx, name)
}

// Create adds a group to the group container.
func (s *GroupService) Create(ctx context.Context, name, description string) (*domain.Group, error) {
	if err := domain.ValidateGroupName(name); err != nil {
		return nil, err
	}
	if err := domain.ValidateFreeText("description", description); err != nil {
		return nil, err
	}
	return s.dir.CreateGroup(ctx, name, description)
}

// Delete removes a group.
func (s *GroupService) Delete(ctx context.Context, name string) (domain.CommandResult, error) {
	if err := domain.ValidateGroupName(name); err != nil {
		return domain.CommandResult{}, err
	}
	return s.admin.DeleteGroup(ctx, name)
}

// AddMember adds a user to a group. Changed=false means it already was one.
func (s *GroupService) AddMember(ctx context.Context, group, username string) (domain.MembershipResult, error) {
	if err := validateMembership(group, username); err != nil {
		return domain.MembershipResult{}, err
	}
	return s.dir.AddMember(ctx, group, username)
}

// RemoveMember removes a user from a group. Changed=false means it was not
// a member.
func (s *GroupService) RemoveMember(ctx context.Context, group, username string) (domain.MembershipResult, error) {
	if err := validateMembership(group, username); err != nil {
		return domain.MembershipResult{}, err
	}
	return s.dir.RemoveMember(ctx, group, username)
}

func validateMembership(group, username string) error {
	if err := domain.ValidateGroupName(group); err != nil {
		return err
	}
	return domain.ValidateAccountName(username)
}
