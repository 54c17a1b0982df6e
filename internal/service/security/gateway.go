// Package security authenticates directory principals and issues access
// tokens.
package security

import (
	"context"
	"errors"
	"log/slog"

	"sentinel/internal/domain"
)

// Gateway turns directory credentials into access tokens. Group membership
// is looked up on every authentication and never cached.
type Gateway struct {
	dir     domain.IdentityDirectory
	tokens  *TokenIssuer
	groupDN string
	logger  *slog.Logger
}

// NewGateway creates a Gateway that admits members of authorizedGroupDN.
func NewGateway(dir domain.IdentityDirectory, tokens *TokenIssuer, authorizedGroupDN string, logger *slog.Logger) *Gateway {
	return &Gateway{
		dir:     dir,
		tokens:  tokens,
		groupDN: authorizedGroupDN,
		logger:  logger.With("component", "auth"),
	}
}

// Authenticate resolves username, verifies password with a bind as that
// identity, checks membership of the authorized group and issues a token.
func (g *Gateway) Authenticate(ctx context.Context, username, password string) (*domain.IssuedToken, error) {
	p, err := g.resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := g.dir.Bind(ctx, p.DN, password); err != nil {
		var authErr *domain.AuthenticationError
		if errors.As(err, &authErr) {
			g.logger.Warn("login rejected", "user", username, "reason", "invalid credential")
			return nil, domain.ErrAuthentication("invalid credential")
		}
		return nil, err
	}
	if err := g.Reauthorize(ctx, p.DN); err != nil {
		var authzErr *domain.AuthorizationError
		if errors.As(err, &authzErr) {
			g.logger.Warn("login rejected", "user", username, "reason", "not in authorized group")
		}
		return nil, err
	}

	tok, err := g.tokens.Issue(p.Username, p.DN)
	if err != nil {
		return nil, err
	}
	g.logger.Info("login succeeded", "user", username)
	return tok, nil
}

func (g *Gateway) resolve(ctx context.Context, username string) (*domain.Principal, error) {
	if domain.ValidateAccountName(username) != nil {
		return nil, domain.ErrAuthentication("not found")
	}
	dn, err := g.dir.FindUserDN(ctx, username)
	if err != nil {
		var nf *domain.NotFoundError
		var conflict *domain.ConflictError
		if errors.As(err, &nf) || errors.As(err, &conflict) {
			g.logger.Warn("login rejected", "user", username, "reason", "unknown or ambiguous account")
			return nil, domain.ErrAuthentication("not found")
		}
		return nil, err
	}
	return &domain.Principal{Username: username, DN: dn}, nil
}

// Reauthorize checks that dn is still a member of the authorized group.
func (g *Gateway) Reauthorize(ctx context.Context, dn string) error {
	ok, err := g.dir.IsMember(ctx, dn, g.groupDN)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAuthorization("not authorized")
	}
	return nil
}

// VerifyToken validates an access token and returns its claims.
func (g *Gateway) VerifyToken(token string) (*domain.TokenClaims, error) {
	return g.tokens.Verify(token)
}
