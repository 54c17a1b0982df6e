package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-ldap/ldap/v3"
)

const (
	testBase      = "dc=example,dc=test"
	testGroupBase = "ou=Groups,dc=example,dc=test"
	testBindDN    = "cn=svc,dc=example,dc=test"
	testBindPW    = "svc-secret"
)

// fakeDirectory is an in-memory directory server shared by fake connections.
type fakeDirectory struct {
	mu        sync.Mutex
	entries   []*ldap.Entry
	passwords map[string]string // lower(dn) -> password
	dials     int
	closes    int
	filters   []string
	modifies  int
	dialErr   error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{passwords: map[string]string{strings.ToLower(testBindDN): testBindPW}}
}

func (f *fakeDirectory) put(dn string, attrs map[string][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, ldap.NewEntry(dn, attrs))
}

func (f *fakeDirectory) putRaw(e *ldap.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
}

func (f *fakeDirectory) find(dn string) *ldap.Entry {
	for _, e := range f.entries {
		if strings.EqualFold(e.DN, dn) {
			return e
		}
	}
	return nil
}

func (f *fakeDirectory) dial(_ context.Context, _ string, _ time.Duration) (Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	f.dials++
	return &fakeConn{dir: f}, nil
}

func (f *fakeDirectory) newClient() *Client {
	return NewWithDialer(Config{
		URL:          "ldap://fake",
		BindDN:       testBindDN,
		BindPassword: testBindPW,
		SearchBase:   testBase,
		GroupBaseDN:  testGroupBase,
	}, f.dial, slog.New(slog.DiscardHandler))
}

func (f *fakeDirectory) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials
}

type fakeConn struct {
	dir    *fakeDirectory
	bound  bool
	closed bool
}

func (c *fakeConn) Bind(dn, password string) error {
	c.dir.mu.Lock()
	defer c.dir.mu.Unlock()
	if pw, ok := c.dir.passwords[strings.ToLower(dn)]; ok && pw == password {
		c.bound = true
		return nil
	}
	return ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))
}

func (c *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	c.dir.mu.Lock()
	defer c.dir.mu.Unlock()
	if !c.bound {
		return nil, ldap.NewError(ldap.LDAPResultInsufficientAccessRights, errors.New("not bound"))
	}
	c.dir.filters = append(c.dir.filters, req.Filter)
	match, err := compileFilter(req.Filter)
	if err != nil {
		return nil, ldap.NewError(ldap.LDAPResultOther, err)
	}

	res := &ldap.SearchResult{}
	if req.Scope == ldap.ScopeBaseObject {
		e := c.dir.find(req.BaseDN)
		if e == nil {
			return nil, ldap.NewError(ldap.LDAPResultNoSuchObject, fmt.Errorf("no such object %s", req.BaseDN))
		}
		if match(e) {
			res.Entries = append(res.Entries, e)
		}
		return res, nil
	}
	suffix := "," + strings.ToLower(req.BaseDN)
	for _, e := range c.dir.entries {
		if !strings.HasSuffix(strings.ToLower(e.DN), suffix) {
			continue
		}
		if req.Scope == ldap.ScopeSingleLevel && strings.Contains(strings.TrimSuffix(strings.ToLower(e.DN), suffix), ",") {
			continue
		}
		if match(e) {
			res.Entries = append(res.Entries, e)
		}
	}
	return res, nil
}

func (c *fakeConn) SearchWithPaging(req *ldap.SearchRequest, _ uint32) (*ldap.SearchResult, error) {
	return c.Search(req)
}

func (c *fakeConn) Add(req *ldap.AddRequest) error {
	c.dir.mu.Lock()
	defer c.dir.mu.Unlock()
	if !c.bound {
		return ldap.NewError(ldap.LDAPResultInsufficientAccessRights, errors.New("not bound"))
	}
	if c.dir.find(req.DN) != nil {
		return ldap.NewError(ldap.LDAPResultEntryAlreadyExists, errors.New("exists"))
	}
	attrs := map[string][]string{}
	for _, a := range req.Attributes {
		attrs[a.Type] = a.Vals
	}
	c.dir.entries = append(c.dir.entries, ldap.NewEntry(req.DN, attrs))
	return nil
}

func (c *fakeConn) Modify(req *ldap.ModifyRequest) error {
	c.dir.mu.Lock()
	defer c.dir.mu.Unlock()
	if !c.bound {
		return ldap.NewError(ldap.LDAPResultInsufficientAccessRights, errors.New("not bound"))
	}
	e := c.dir.find(req.DN)
	if e == nil {
		return ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("no such object"))
	}
	c.dir.modifies++
	for _, ch := range req.Changes {
		attr := attribute(e, ch.Modification.Type)
		switch ch.Operation {
		case ldap.AddAttribute:
			attr.Values = append(attr.Values, ch.Modification.Vals...)
		case ldap.DeleteAttribute:
			kept := attr.Values[:0]
			for _, v := range attr.Values {
				drop := false
				for _, d := range ch.Modification.Vals {
					if strings.EqualFold(v, d) {
						drop = true
					}
				}
				if !drop {
					kept = append(kept, v)
				}
			}
			attr.Values = kept
		case ldap.ReplaceAttribute:
			attr.Values = append([]string(nil), ch.Modification.Vals...)
		}
	}
	return nil
}

func (c *fakeConn) Del(req *ldap.DelRequest) error {
	c.dir.mu.Lock()
	defer c.dir.mu.Unlock()
	if !c.bound {
		return ldap.NewError(ldap.LDAPResultInsufficientAccessRights, errors.New("not bound"))
	}
	for i, e := range c.dir.entries {
		if strings.EqualFold(e.DN, req.DN) {
			c.dir.entries = append(c.dir.entries[:i], c.dir.entries[i+1:]...)
			return nil
		}
	}
	return ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("no such object"))
}

func (c *fakeConn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.dir.mu.Lock()
	c.dir.closes++
	c.dir.mu.Unlock()
	return nil
}

func attribute(e *ldap.Entry, name string) *ldap.EntryAttribute {
	for _, a := range e.Attributes {
		if strings.EqualFold(a.Name, name) {
			return a
		}
	}
	a := &ldap.EntryAttribute{Name: name}
	e.Attributes = append(e.Attributes, a)
	return a
}

// compileFilter understands the subset of RFC 4515 the client emits:
// &, |, !, equality and presence.
func compileFilter(s string) (func(*ldap.Entry) bool, error) {
	m, rest, err := parseFilter(s)
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("trailing data %q", rest)
	}
	return m, nil
}

func parseFilter(s string) (func(*ldap.Entry) bool, string, error) {
	if !strings.HasPrefix(s, "(") {
		return nil, "", fmt.Errorf("expected ( in %q", s)
	}
	s = s[1:]
	switch {
	case strings.HasPrefix(s, "&"), strings.HasPrefix(s, "|"):
		and := s[0] == '&'
		s = s[1:]
		var subs []func(*ldap.Entry) bool
		for strings.HasPrefix(s, "(") {
			m, rest, err := parseFilter(s)
			if err != nil {
				return nil, "", err
			}
			subs = append(subs, m)
			s = rest
		}
		if !strings.HasPrefix(s, ")") {
			return nil, "", fmt.Errorf("unterminated set")
		}
		return func(e *ldap.Entry) bool {
			for _, m := range subs {
				if m(e) != and {
					return !and
				}
			}
			return and
		}, s[1:], nil
	case strings.HasPrefix(s, "!"):
		m, rest, err := parseFilter(s[1:])
		if err != nil {
			return nil, "", err
		}
		if !strings.HasPrefix(rest, ")") {
			return nil, "", fmt.Errorf("unterminated not")
		}
		return func(e *ldap.Entry) bool { return !m(e) }, rest[1:], nil
	default:
		end := strings.Index(s, ")")
		if end < 0 {
			return nil, "", fmt.Errorf("unterminated item")
		}
		name, value, ok := strings.Cut(s[:end], "=")
		if !ok {
			return nil, "", fmt.Errorf("bad item %q", s[:end])
		}
		rest := s[end+1:]
		if value == "*" {
			return func(e *ldap.Entry) bool {
				for _, a := range e.Attributes {
					if strings.EqualFold(a.Name, name) && len(a.Values) > 0 {
						return true
					}
				}
				return false
			}, rest, nil
		}
		want, err := unescapeFilterValue(value)
		if err != nil {
			return nil, "", err
		}
		return func(e *ldap.Entry) bool {
			for _, a := range e.Attributes {
				if !strings.EqualFold(a.Name, name) {
					continue
				}
				for _, v := range a.Values {
					if strings.EqualFold(v, want) {
						return true
					}
				}
			}
			return false
		}, rest, nil
	}
}

func unescapeFilterValue(v string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] != '\\' {
			sb.WriteByte(v[i])
			continue
		}
		if i+2 >= len(v) {
			return "", fmt.Errorf("bad escape in %q", v)
		}
		b, err := strconv.ParseUint(v[i+1:i+3], 16, 8)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte(b))
		i += 2
	}
	return sb.String(), nil
}

func seedDirectory(t *testing.T) *fakeDirectory {
	t.Helper()
	f := newFakeDirectory()
	f.put("cn=Alice Admin,cn=Users,"+testBase, map[string][]string{
		"objectClass":    {"top", "person", "organizationalPerson", "user"},
		"cn":             {"Alice Admin"},
		"sAMAccountName": {"alice"},
		"memberOf":       {"cn=Admins," + testGroupBase, "cn=Staff," + testGroupBase},
	})
	f.put("cn=Bob,cn=Users,"+testBase, map[string][]string{
		"objectClass":    {"top", "person", "organizationalPerson", "user"},
		"cn":             {"Bob"},
		"sAMAccountName": {"bob"},
	})
	f.put("cn=WS01,cn=Computers,"+testBase, map[string][]string{
		"objectClass":    {"top", "person", "organizationalPerson", "user", "computer"},
		"cn":             {"WS01"},
		"sAMAccountName": {"WS01$"},
	})
	f.put("cn=Admins,"+testGroupBase, map[string][]string{
		"objectClass": {"top", "group"},
		"cn":          {"Admins"},
		"description": {"Directory administrators"},
		"member":      {"CN=Alice Admin,CN=Users," + strings.ToUpper(testBase)},
	})
	f.put("cn=Staff,"+testGroupBase, map[string][]string{
		"objectClass": {"top", "group"},
		"cn":          {"Staff"},
	})
	f.passwords[strings.ToLower("cn=Alice Admin,cn=Users,"+testBase)] = "alice-pass"
	return f
}
