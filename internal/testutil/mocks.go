// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"

	"sentinel/internal/domain"
)

// === Audit Repository Mock ===

// MockAuditRepo implements domain.AuditRepository for testing.
type MockAuditRepo struct {
	mu       sync.Mutex
	InsertFn func(ctx context.Context, e *domain.AuditEntry) error
	ListFn   func(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error)
	GetFn    func(ctx context.Context, id string) (*domain.AuditEntry, error)
	Entries  []*domain.AuditEntry // collected entries for assertions
}

// Insert implements the interface method for testing.
func (m *MockAuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, e)
	return nil
}

// List implements the interface method for testing.
func (m *MockAuditRepo) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	panic("unexpected call to MockAuditRepo.List")
}

// Get implements the interface method for testing.
func (m *MockAuditRepo) Get(ctx context.Context, id string) (*domain.AuditEntry, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	panic("unexpected call to MockAuditRepo.Get")
}

// Snapshot returns a copy of the collected entries.
func (m *MockAuditRepo) Snapshot() []*domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuditEntry(nil), m.Entries...)
}

// LastEntry returns the last collected audit entry, or nil if none.
func (m *MockAuditRepo) LastEntry() *domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Entries) == 0 {
		return nil
	}
	return m.Entries[len(m.Entries)-1]
}

// HasAction returns true if any collected entry has the given action.
func (m *MockAuditRepo) HasAction(action string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Entries {
		if e.Action == action {
			return true
		}
	}
	return false
}

// === Identity Directory Mock ===

// MockIdentityDirectory implements domain.IdentityDirectory for testing.
type MockIdentityDirectory struct {
	FindUserDNFn func(ctx context.Context, username string) (string, error)
	BindFn       func(ctx context.Context, dn, password string) error
	IsMemberFn   func(ctx context.Context, userDN, groupDN string) (bool, error)

	mu    sync.Mutex
	Calls []string // method names in call order
}

func (m *MockIdentityDirectory) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
}

// FindUserDN implements the interface method for testing.
func (m *MockIdentityDirectory) FindUserDN(ctx context.Context, username string) (string, error) {
	m.record("FindUserDN")
	if m.FindUserDNFn != nil {
		return m.FindUserDNFn(ctx, username)
	}
	panic("unexpected call to MockIdentityDirectory.FindUserDN")
}

// Bind implements the interface method for testing.
func (m *MockIdentityDirectory) Bind(ctx context.Context, dn, password string) error {
	m.record("Bind")
	if m.BindFn != nil {
		return m.BindFn(ctx, dn, password)
	}
	panic("unexpected call to MockIdentityDirectory.Bind")
}

// IsMember implements the interface method for testing.
func (m *MockIdentityDirectory) IsMember(ctx context.Context, userDN, groupDN string) (bool, error) {
	m.record("IsMember")
	if m.IsMemberFn != nil {
		return m.IsMemberFn(ctx, userDN, groupDN)
	}
	panic("unexpected call to MockIdentityDirectory.IsMember")
}

// CallCount returns how many times the named method was called.
func (m *MockIdentityDirectory) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

// === Account Directory Mock ===

// MockAccountDirectory implements domain.AccountDirectory for testing.
type MockAccountDirectory struct {
	ListUsersFn            func(ctx context.Context) ([]domain.Entry, error)
	GetUserByAccountNameFn func(ctx context.Context, username string) (*domain.Entry, error)
	ListGroupsFn           func(ctx context.Context) ([]domain.Group, error)
	GetGroupInfoFn         func(ctx context.Context, name string) (*domain.Group, error)
	GetGroupMembersFn      func(ctx context.Context, name string) ([]string, error)
	CreateGroupFn          func(ctx context.Context, name, description string) (*domain.Group, error)
	AddMemberFn            func(ctx context.Context, groupName, username string) (domain.MembershipResult, error)
	RemoveMemberFn         func(ctx context.Context, groupName, username string) (domain.MembershipResult, error)
}

// ListUsers implements the interface method for testing.
func (m *MockAccountDirectory) ListUsers(ctx context.Context) ([]domain.Entry, error) {
	if m.ListUsersFn != nil {
		return m.ListUsersFn(ctx)
	}
	panic("unexpected call to MockAccountDirectory.ListUsers")
}

// GetUserByAccountName implements the interface method for testing.
func (m *MockAccountDirectory) GetUserByAccountName(ctx context.Context, username string) (*domain.Entry, error) {
	if m.GetUserByAccountNameFn != nil {
		return m.GetUserByAccountNameFn(ctx, username)
	}
	panic("unexpected call to MockAccountDirectory.GetUserByAccountName")
}

// ListGroups implements the interface method for testing.
func (m *MockAccountDirectory) ListGroups(ctx context.Context) ([]domain.Group, error) {
	if m.ListGroupsFn != nil {
		return m.ListGroupsFn(ctx)
	}
	panic("unexpected call to MockAccountDirectory.ListGroups")
}

// GetGroupInfo implements the interface method for testing.
func (m *MockAccountDirectory) GetGroupInfo(ctx context.Context, name string) (*domain.Group, error) {
	if m.GetGroupInfoFn != nil {
		return m.GetGroupInfoFn(ctx, name)
	}
	panic("unexpected call to MockAccountDirectory.GetGroupInfo")
}

// GetGroupMembers implements the interface method for testing.
func (m *MockAccountDirectory) GetGroupMembers(ctx context.Context, name string) ([]string, error) {
	if m.GetGroupMembersFn != nil {
		return m.GetGroupMembersFn(ctx, name)
	}
	panic("unexpected call to MockAccountDirectory.GetGroupMembers")
}

// CreateGroup implements the interface method for testing.
func (m *MockAccountDirectory) CreateGroup(ctx context.Context, name, description string) (*domain.Group, error) {
	if m.CreateGroupFn != nil {
		return m.CreateGroupFn(ctx, name, description)
	}
	panic("unexpected call to MockAccountDirectory.CreateGroup")
}

// AddMember implements the interface method for testing.
func (m *MockAccountDirectory) AddMember(ctx context.Context, groupName, username string) (domain.MembershipResult, error) {
	if m.AddMemberFn != nil {
		return m.AddMemberFn(ctx, groupName, username)
	}
	panic("unexpected call to MockAccountDirectory.AddMember")
}

// RemoveMember implements the interface method for testing.
func (m *MockAccountDirectory) RemoveMember(ctx context.Context, groupName, username string) (domain.MembershipResult, error) {
	if m.RemoveMemberFn != nil {
		return m.RemoveMemberFn(ctx, groupName, username)
	}
	panic("unexpected call to MockAccountDirectory.RemoveMember")
}

// === Account Admin Mock ===

// MockAccountAdmin implements domain.AccountAdmin for testing. Calls made
// without a matching function field succeed with an empty result.
type MockAccountAdmin struct {
	CreateUserFn    func(ctx context.Context, u domain.NewUser) (domain.CommandResult, error)
	DeleteUserFn    func(ctx context.Context, username string) (domain.CommandResult, error)
	DisableUserFn   func(ctx context.Context, username string) (domain.CommandResult, error)
	EnableUserFn    func(ctx context.Context, username string) (domain.CommandResult, error)
	UnlockUserFn    func(ctx context.Context, username string) (domain.CommandResult, error)
	SetPasswordFn   func(ctx context.Context, username, password string) (domain.CommandResult, error)
	ResetPasswordFn func(ctx context.Context, username, password string) (domain.CommandResult, error)
	DeleteGroupFn   func(ctx context.Context, name string) (domain.CommandResult, error)
	ListComputersFn func(ctx context.Context) ([]string, error)

	mu    sync.Mutex
	Calls []string
}

func (m *MockAccountAdmin) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
}

// CreateUser implements the interface method for testing.
func (m *MockAccountAdmin) CreateUser(ctx context.Context, u domain.NewUser) (domain.CommandResult, error) {
	m.record("CreateUser")
	if m.CreateUserFn != nil {
		return m.CreateUserFn(ctx, u)
	}
	return domain.CommandResult{}, nil
}

// DeleteUser implements the interface method for testing.
func (m *MockAccountAdmin) DeleteUser(ctx context.Context, username string) (domain.CommandResult, error) {
	m.record("DeleteUser")
	if m.DeleteUserFn != nil {
		return m.DeleteUserFn(ctx, username)
	}
	return domain.CommandResult{}, nil
}

// DisableUser implements the interface method for testing.
func (m *MockAccountAdmin) DisableUser(ctx context.Context, username string) (domain.CommandResult, error) {
	m.record("DisableUser")
	if m.DisableUserFn != nil {
		return m.DisableUserFn(ctx, username)
	}
	return domain.CommandResult{}, nil
}

// EnableUser implements the interface method for testing.
func (m *MockAccountAdmin) EnableUser(ctx context.Context, username string) (domain.CommandResult, error) {
	m.record("EnableUser")
	if m.EnableUserFn != nil {
		return m.EnableUserFn(ctx, username)
	}
	return domain.CommandResult{}, nil
}

// UnlockUser implements the interface method for testing.
func (m *MockAccountAdmin) UnlockUser(ctx context.Context, username string) (domain.CommandResult, error) {
	m.record("UnlockUser")
	if m.UnlockUserFn != nil {
		return m.UnlockUserFn(ctx, username)
	}
	return domain.CommandResult{}, nil
}

// SetPassword implements the interface method for testing.
func (m *MockAccountAdmin) SetPassword(ctx context.Context, username, password string) (domain.CommandResult, error) {
	m.record("SetPassword")
	if m.SetPasswordFn != nil {
		return m.SetPasswordFn(ctx, username, password)
	}
	return domain.CommandResult{}, nil
}

// ResetPassword implements the interface method for testing.
func (m *MockAccountAdmin) ResetPassword(ctx context.Context, username, password string) (domain.CommandResult, error) {
	m.record("ResetPassword")
	if m.ResetPasswordFn != nil {
		return m.ResetPasswordFn(ctx, username, password)
	}
	return domain.CommandResult{}, nil
}

// DeleteGroup implements the interface method for testing.
func (m *MockAccountAdmin) DeleteGroup(ctx context.Context, name string) (domain.CommandResult, error) {
	m.record("DeleteGroup")
	if m.DeleteGroupFn != nil {
		return m.DeleteGroupFn(ctx, name)
	}
	return domain.CommandResult{}, nil
}

// ListComputers implements the interface method for testing.
func (m *MockAccountAdmin) ListComputers(ctx context.Context) ([]string, error) {
	m.record("ListComputers")
	if m.ListComputersFn != nil {
		return m.ListComputersFn(ctx)
	}
	return []string{}, nil
}

// CallNames returns a copy of the recorded method names in call order.
func (m *MockAccountAdmin) CallNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls...)
}

// CallCount returns the total number of calls made.
func (m *MockAccountAdmin) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// === System Probe Mock ===

// MockSystemProbe implements domain.SystemProbe for testing.
type MockSystemProbe struct {
	HealthFn      func(ctx context.Context) domain.HealthReport
	DomainInfoFn  func(ctx context.Context) domain.InfoReport
	DomainLevelFn func(ctx context.Context) domain.InfoReport
	DNSFn         func(ctx context.Context) (domain.CommandResult, error)
}

// Health implements the interface method for testing.
func (m *MockSystemProbe) Health(ctx context.Context) domain.HealthReport {
	if m.HealthFn != nil {
		return m.HealthFn(ctx)
	}
	return domain.HealthReport{Status: domain.StatusHealthy}
}

// DomainInfo implements the interface method for testing.
func (m *MockSystemProbe) DomainInfo(ctx context.Context) domain.InfoReport {
	if m.DomainInfoFn != nil {
		return m.DomainInfoFn(ctx)
	}
	return domain.InfoReport{Status: domain.StatusHealthy}
}

// DomainLevel implements the interface method for testing.
func (m *MockSystemProbe) DomainLevel(ctx context.Context) domain.InfoReport {
	if m.DomainLevelFn != nil {
		return m.DomainLevelFn(ctx)
	}
	return domain.InfoReport{Status: domain.StatusHealthy}
}

// DNSServerInfo implements system.DNSReporter for testing.
func (m *MockSystemProbe) DNSServerInfo(ctx context.Context) (domain.CommandResult, error) {
	if m.DNSFn != nil {
		return m.DNSFn(ctx)
	}
	return domain.CommandResult{DryRun: true}, nil
}
