package domain

import "context"

// IdentityDirectory is the slice of the directory used to authenticate
// principals and check group membership.
type IdentityDirectory interface {
	FindUserDN(ctx context.Context, username string) (string, error)
	Bind(ctx context.Context, dn, password string) error
	IsMember(ctx context.Context, userDN, groupDN string) (bool, error)
}

// AccountDirectory provides directory reads and the mutations that are
// performed over LDAP rather than through the administration tool.
type AccountDirectory interface {
	ListUsers(ctx context.Context) ([]Entry, error)
	GetUserByAccountName(ctx context.Context, username string) (*Entry, error)
	ListGroups(ctx context.Context) ([]Group, error)
	GetGroupInfo(ctx context.Context, name string) (*Group, error)
	GetGroupMembers(ctx context.Context, name string) ([]string, error)
	CreateGroup(ctx context.Context, name, description string) (*Group, error)
	AddMember(ctx context.Context, groupName, username string) (MembershipResult, error)
	RemoveMember(ctx context.Context, groupName, username string) (MembershipResult, error)
}

// NewUser holds the parameters for creating a domain account.
type NewUser struct {
	Username              string
	Password              string
	GivenName             string
	Surname               string
	Email                 string
	MustChangeAtNextLogin bool
}

// AccountAdmin performs account mutations on the domain controller.
type AccountAdmin interface {
	CreateUser(ctx context.Context, u NewUser) (CommandResult, error)
	DeleteUser(ctx context.Context, username string) (CommandResult, error)
	DisableUser(ctx context.Context, username string) (CommandResult, error)
	EnableUser(ctx context.Context, username string) (CommandResult, error)
	UnlockUser(ctx context.Context, username string) (CommandResult, error)
	SetPassword(ctx context.Context, username, password string) (CommandResult, error)
	ResetPassword(ctx context.Context, username, password string) (CommandResult, error)
	DeleteGroup(ctx context.Context, name string) (CommandResult, error)
	ListComputers(ctx context.Context) ([]string, error)
}

// SystemProbe reports domain controller health. Probes never return errors.
type SystemProbe interface {
	Health(ctx context.Context) HealthReport
	DomainInfo(ctx context.Context) InfoReport
	DomainLevel(ctx context.Context) InfoReport
}
