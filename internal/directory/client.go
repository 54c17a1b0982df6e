// Package directory is the LDAP client for the domain controller. Every
// operation opens its own connection, binds, does its work and closes.
package directory

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sort"
	"time"

	"github.com/go-ldap/ldap/v3"

	"sentinel/internal/domain"
)

// DefaultTimeout bounds dialing and each request on a connection.
const DefaultTimeout = 10 * time.Second

// pageSize is used for subtree searches that may exceed the server's
// MaxPageSize (1000 on Active Directory).
const pageSize = 500

// Config holds connection and naming settings.
type Config struct {
	URL          string
	BindDN       string
	BindPassword string
	SearchBase   string
	GroupBaseDN  string
	Timeout      time.Duration
}

// Conn is the subset of *ldap.Conn used by the client.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	SearchWithPaging(req *ldap.SearchRequest, pagingSize uint32) (*ldap.SearchResult, error)
	Add(req *ldap.AddRequest) error
	Modify(req *ldap.ModifyRequest) error
	Del(req *ldap.DelRequest) error
	Close() error
}

// Dialer opens a new connection to url.
type Dialer func(ctx context.Context, url string, timeout time.Duration) (Conn, error)

type ldapConn struct {
	conn *ldap.Conn
}

func (c ldapConn) Bind(username, password string) error { return c.conn.Bind(username, password) }
func (c ldapConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	return c.conn.Search(req)
}
func (c ldapConn) SearchWithPaging(req *ldap.SearchRequest, size uint32) (*ldap.SearchResult, error) {
	return c.conn.SearchWithPaging(req, size)
}
func (c ldapConn) Add(req *ldap.AddRequest) error       { return c.conn.Add(req) }
func (c ldapConn) Modify(req *ldap.ModifyRequest) error { return c.conn.Modify(req) }
func (c ldapConn) Del(req *ldap.DelRequest) error       { return c.conn.Del(req) }
func (c ldapConn) Close() error {
	c.conn.Close()
	return nil
}

// DialLDAP is the production Dialer.
func DialLDAP(ctx context.Context, url string, timeout time.Duration) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := ldap.DialURL(url, ldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
	if err != nil {
		return nil, err
	}
	conn.SetTimeout(timeout)
	return ldapConn{conn: conn}, nil
}

// Client talks to the directory server. It is safe for concurrent use;
// connections are never shared between operations.
type Client struct {
	cfg    Config
	dial   Dialer
	logger *slog.Logger
}

// New creates a Client using the production dialer.
func New(cfg Config, logger *slog.Logger) *Client {
	return NewWithDialer(cfg, DialLDAP, logger)
}

// NewWithDialer creates a Client with a custom dialer.
func NewWithDialer(cfg Config, dial Dialer, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.GroupBaseDN == "" {
		cfg.GroupBaseDN = cfg.SearchBase
	}
	return &Client{cfg: cfg, dial: dial, logger: logger.With("component", "directory")}
}

// open dials a connection that is torn down if ctx is cancelled mid-request.
func (c *Client) open(ctx context.Context) (Conn, func(), error) {
	conn, err := c.dial(ctx, c.cfg.URL, c.cfg.Timeout)
	if err != nil {
		return nil, nil, domain.ErrDirectory("connect", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	return conn, func() {
		stop()
		_ = conn.Close()
	}, nil
}

// withServiceConn runs fn on a fresh connection bound as the service account.
func (c *Client) withServiceConn(ctx context.Context, fn func(Conn) error) error {
	conn, done, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	if err := conn.Bind(c.cfg.BindDN, c.cfg.BindPassword); err != nil {
		c.logger.Error("service bind failed", "bind_dn", c.cfg.BindDN, "error", err)
		return domain.ErrDirectory("bind", errors.New("service account bind failed"))
	}
	return fn(conn)
}

// Bind verifies password for dn on a dedicated connection. Empty passwords
// are rejected locally: most servers treat them as an anonymous bind that
// succeeds for any DN.
func (c *Client) Bind(ctx context.Context, dn, password string) error {
	if dn == "" || password == "" {
		return domain.ErrAuthentication("invalid credential")
	}
	conn, done, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	if err := conn.Bind(dn, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return domain.ErrAuthentication("invalid credential")
		}
		return domain.ErrDirectory("bind", err)
	}
	return nil
}

func ldapScope(s domain.SearchScope) (int, error) {
	switch s {
	case domain.ScopeBase:
		return ldap.ScopeBaseObject, nil
	case domain.ScopeOne:
		return ldap.ScopeSingleLevel, nil
	case domain.ScopeSubtree, "":
		return ldap.ScopeWholeSubtree, nil
	default:
		return 0, domain.ErrValidation("unsupported search scope %q", s)
	}
}

// Search runs a search as the service account and returns normalized entries.
// A base-scope search on a missing object yields a NotFoundError.
func (c *Client) Search(ctx context.Context, baseDN, filter string, scope domain.SearchScope, attrs []string) ([]domain.Entry, error) {
	raw, err := c.search(ctx, baseDN, filter, scope, attrs)
	if err != nil {
		return nil, err
	}
	return normalizeEntries(raw), nil
}

func (c *Client) search(ctx context.Context, baseDN, filter string, scope domain.SearchScope, attrs []string) ([]*ldap.Entry, error) {
	ls, err := ldapScope(scope)
	if err != nil {
		return nil, err
	}
	req := ldap.NewSearchRequest(baseDN, ls, ldap.NeverDerefAliases, 0, 0, false, filter, attrs, nil)

	var entries []*ldap.Entry
	err = c.withServiceConn(ctx, func(conn Conn) error {
		var res *ldap.SearchResult
		var err error
		if ls == ldap.ScopeWholeSubtree {
			res, err = conn.SearchWithPaging(req, pageSize)
		} else {
			res, err = conn.Search(req)
		}
		if err != nil {
			if ls == ldap.ScopeBaseObject && ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
				return domain.ErrNotFound("entry %q not found", baseDN)
			}
			return domain.ErrDirectory("search", err)
		}
		entries = res.Entries
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Add creates dn with the given attributes.
func (c *Client) Add(ctx context.Context, dn string, attrs map[string][]string) error {
	req := ldap.NewAddRequest(dn, nil)
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		req.Attribute(name, attrs[name])
	}
	return c.withServiceConn(ctx, func(conn Conn) error {
		if err := conn.Add(req); err != nil {
			if ldap.IsErrorWithCode(err, ldap.LDAPResultEntryAlreadyExists) {
				return domain.ErrConflict("entry %q already exists", dn)
			}
			return domain.ErrDirectory("add", err)
		}
		return nil
	})
}

// Modify applies changes to dn in a single request.
func (c *Client) Modify(ctx context.Context, dn string, changes []domain.ModifyOp) error {
	if len(changes) == 0 {
		return domain.ErrValidation("modify requires at least one change")
	}
	req := ldap.NewModifyRequest(dn, nil)
	for _, ch := range changes {
		switch ch.Kind {
		case domain.ModifyAdd:
			req.Add(ch.Attribute, ch.Values)
		case domain.ModifyDelete:
			req.Delete(ch.Attribute, ch.Values)
		case domain.ModifyReplace:
			req.Replace(ch.Attribute, ch.Values)
		default:
			return domain.ErrValidation("unsupported modify operation %q", ch.Kind)
		}
	}
	return c.withServiceConn(ctx, func(conn Conn) error {
		if err := conn.Modify(req); err != nil {
			if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
				return domain.ErrNotFound("entry %q not found", dn)
			}
			return domain.ErrDirectory("modify", err)
		}
		return nil
	})
}

// Delete removes dn.
func (c *Client) Delete(ctx context.Context, dn string) error {
	return c.withServiceConn(ctx, func(conn Conn) error {
		if err := conn.Del(ldap.NewDelRequest(dn, nil)); err != nil {
			if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
				return domain.ErrNotFound("entry %q not found", dn)
			}
			return domain.ErrDirectory("delete", err)
		}
		return nil
	})
}

// Ping binds as the service account and closes. Used by readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.withServiceConn(ctx, func(Conn) error { return nil })
}
