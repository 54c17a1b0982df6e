package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Replaced in tests.
var (
	stdin         io.Reader = os.Stdin
	isTerminal              = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	readPassword            = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }
	now                     = time.Now
	errNoTerminal           = errors.New("stdin is not a terminal: use --password-stdin")
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	ExpiresIn   int64     `json:"expiresIn"`
}

func newLoginCmd(client *Client, profile *string) *cobra.Command {
	var (
		username      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save an access token to the active profile",
		Long: `Exchange directory credentials for a gateway access token. Only members
of the administrators group can sign in. The token is saved to the active
profile together with the host it was issued by.`,
		Example: `  sentinel login --username alice
  echo "$PASSWORD" | sentinel login -u alice --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := newStdinReader()
			if username == "" {
				_, _ = fmt.Fprint(os.Stderr, "Username: ")
				line, err := readLine(in)
				if err != nil {
					return fmt.Errorf("read username: %w", err)
				}
				username = line
			}
			if username == "" {
				return errors.New("username is required")
			}

			password, err := promptPassword(in, passwordStdin)
			if err != nil {
				return err
			}

			var tok loginResponse
			err = client.Call(http.MethodPost, "/auth/token", nil, loginRequest{Username: username, Password: password}, &tok)
			if err != nil {
				return err
			}

			host := client.BaseURL
			name, err := updateProfile(*profile, func(p *Profile) {
				p.Host = host
				p.Username = username
				p.Token = tok.AccessToken
			})
			if err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]interface{}{
					"status":    "ok",
					"profile":   name,
					"username":  username,
					"expiresAt": tok.ExpiresAt,
				})
			}
			_, _ = fmt.Fprintf(os.Stdout, "Logged in as %s (profile %q, token expires %s)\n",
				username, name, tok.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account name (sAMAccountName)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")

	return cmd
}

// promptPassword reads the password from stdin or, interactively, without
// echo.
func promptPassword(in *bufio.Reader, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := readLine(in)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		if line == "" {
			return "", errors.New("password is required")
		}
		return line, nil
	}
	if !isTerminal() {
		return "", errNoTerminal
	}
	_, _ = fmt.Fprint(os.Stderr, "Password: ")
	pw, err := readPassword()
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(pw) == 0 {
		return "", errors.New("password is required")
	}
	return string(pw), nil
}

func newStdinReader() *bufio.Reader {
	return bufio.NewReader(stdin)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(profile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved token from the active profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := updateProfile(*profile, func(p *Profile) { p.Token = "" })
			if err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]string{"status": "ok", "profile": name})
			}
			_, _ = fmt.Fprintf(os.Stdout, "Token removed from profile %q\n", name)
			return nil
		},
	}
}

func newAuthCmd(profile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication helpers",
	}
	cmd.AddCommand(newAuthStatusCmd(profile))
	return cmd
}

// tokenStatus is what can be learned from a token without its signing key.
type tokenStatus struct {
	Profile   string    `json:"profile"`
	Subject   string    `json:"subject"`
	DN        string    `json:"dn,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	Expired   bool      `json:"expired"`
}

// inspectToken decodes the claims of an access token. The signature is not
// checked; only the gateway holds the key.
func inspectToken(raw string) (tokenStatus, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return tokenStatus{}, fmt.Errorf("decode token: %w", err)
	}
	var st tokenStatus
	st.Subject, _ = claims.GetSubject()
	if dn, ok := claims["dn"].(string); ok {
		st.DN = dn
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return tokenStatus{}, errors.New("decode token: missing exp claim")
	}
	st.ExpiresAt = exp.Time
	st.Expired = !now().Before(exp.Time)
	return st, nil
}

func newAuthStatusCmd(profile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who the saved token belongs to and when it expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, _ := cmd.Root().PersistentFlags().GetString("token")
			cfg := loadOrNewUserConfig()
			name := cfg.profileName(*profile)
			if tok == "" {
				p, err := cfg.ActiveProfile(*profile)
				if err != nil {
					return err
				}
				tok = p.Token
			}
			if tok == "" {
				return fmt.Errorf("not logged in: run 'sentinel login' (profile %q)", name)
			}

			st, err := inspectToken(tok)
			if err != nil {
				return err
			}
			st.Profile = name

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, st)
			}
			PrintDetail(os.Stdout, map[string]interface{}{
				"profile":    st.Profile,
				"subject":    st.Subject,
				"dn":         st.DN,
				"expires_at": st.ExpiresAt.Local().Format(time.RFC1123),
				"expired":    st.Expired,
			})
			return nil
		},
	}
}
