package cli

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage gateway connection profiles",
	}
	cmd.AddCommand(
		newConfigViewCmd(),
		newConfigSetProfileCmd(),
		newConfigUseProfileCmd(),
		newConfigDeleteProfileCmd(),
	)
	return cmd
}

func newConfigViewCmd() *cobra.Command {
	var reveal, raw bool

	cmd := &cobra.Command{
		Use:     "view",
		Aliases: []string{"show"},
		Short:   "List profiles and the state of their saved tokens",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no profiles saved yet, run 'sentinel login' first: %w", err)
			}
			shown := cfg
			if !reveal {
				shown = redactTokens(cfg)
			}

			switch {
			case getOutputFormat(cmd) == "json":
				return PrintJSON(os.Stdout, shown)
			case raw:
				data, err := yaml.Marshal(shown)
				if err != nil {
					return fmt.Errorf("marshal config: %w", err)
				}
				_, _ = os.Stdout.Write(data)
				return nil
			}

			names := make([]string, 0, len(cfg.Profiles))
			for name := range cfg.Profiles {
				names = append(names, name)
			}
			sort.Strings(names)
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				p := cfg.Profiles[name]
				current := ""
				if name == cfg.CurrentProfile {
					current = "*"
				}
				token := tokenState(p.Token)
				if reveal && p.Token != "" {
					token = p.Token
				}
				rows = append(rows, []string{current, name, p.Host, p.Username, token})
			}
			PrintTable(os.Stdout, []string{"current", "name", "host", "username", "token"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print saved tokens in full")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the config file as YAML")
	return cmd
}

// tokenState summarizes a saved token without exposing it.
func tokenState(raw string) string {
	if raw == "" {
		return "-"
	}
	st, err := inspectToken(raw)
	if err != nil {
		return "unreadable"
	}
	if st.Expired {
		return "expired"
	}
	return "valid until " + st.ExpiresAt.UTC().Format(time.RFC3339)
}

// redactTokens returns a copy of cfg whose tokens are replaced by their
// state summary.
func redactTokens(cfg *UserConfig) *UserConfig {
	out := &UserConfig{
		CurrentProfile: cfg.CurrentProfile,
		Profiles:       make(map[string]Profile, len(cfg.Profiles)),
	}
	for name, p := range cfg.Profiles {
		if p.Token != "" {
			p.Token = "<" + tokenState(p.Token) + ">"
		}
		out.Profiles[name] = p
	}
	return out
}

// normalizeGatewayURL accepts a gateway base URL with or without the API
// prefix and returns it without a trailing slash or prefix.
func normalizeGatewayURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid host %q: use http(s)://host[:port]", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return "", fmt.Errorf("invalid host %q: no credentials, query or fragment allowed", raw)
	}
	u.Path = strings.TrimSuffix(strings.TrimRight(u.Path, "/"), apiPrefix)
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}

func newConfigSetProfileCmd() *cobra.Command {
	var (
		name     string
		host     string
		username string
		output   string
		activate bool
	)

	cmd := &cobra.Command{
		Use:   "set-profile",
		Short: "Create or update a gateway profile",
		Example: `  sentinel config set-profile --name prod --host https://sentinel.example.test --username alice --activate
  sentinel -p prod login`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("output") {
				if err := validateOutputFormat(output); err != nil {
					return err
				}
			}
			if flags.Changed("username") && username != "" {
				if err := validateUsername(username); err != nil {
					return err
				}
			}

			cfg := loadOrNewUserConfig()
			p, existed := cfg.Profiles[name]
			if flags.Changed("host") {
				h, err := normalizeGatewayURL(host)
				if err != nil {
					return err
				}
				if existed && p.Host != h {
					// A token is only valid against the gateway that issued it.
					p.Token = ""
				}
				p.Host = h
			}
			if flags.Changed("username") {
				if p.Username != username {
					p.Token = ""
				}
				p.Username = username
			}
			if flags.Changed("output") {
				p.Output = output
			}
			cfg.Profiles[name] = p
			if activate || len(cfg.Profiles) == 1 {
				cfg.CurrentProfile = name
			}

			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]interface{}{
					"profile": name,
					"created": !existed,
					"current": cfg.CurrentProfile == name,
					"path":    ConfigPath(),
				})
			}
			verb := "updated"
			if !existed {
				verb = "created"
			}
			_, _ = fmt.Fprintf(os.Stdout, "Profile %q %s in %s\n", name, verb, ConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Profile name (required)")
	cmd.Flags().StringVar(&host, "host", "", "Gateway base URL, e.g. https://sentinel.example.test")
	cmd.Flags().StringVar(&username, "username", "", "Directory account used by 'sentinel login'")
	cmd.Flags().StringVar(&output, "output", "", "Default output format for this profile")
	cmd.Flags().BoolVar(&activate, "activate", false, "Make this the current profile")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,19}$`)

// validateUsername applies the gateway's account-name rule locally so a
// typo fails before a login round trip.
func validateUsername(name string) error {
	if !usernamePattern.MatchString(name) {
		return fmt.Errorf("invalid username %q", name)
	}
	return nil
}

func newConfigUseProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-profile <name>",
		Short: "Switch the current profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no profiles saved yet: %w", err)
			}
			name := args[0]
			p, ok := cfg.Profiles[name]
			if !ok {
				return fmt.Errorf("profile %q not found", name)
			}
			cfg.CurrentProfile = name
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]string{
					"current": name,
					"host":    p.Host,
					"token":   tokenState(p.Token),
				})
			}
			_, _ = fmt.Fprintf(os.Stdout, "Now using %q (%s), token %s\n", name, p.Host, tokenState(p.Token))
			return nil
		},
	}
}

func newConfigDeleteProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-profile <name>",
		Short: "Remove a profile and its saved token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no profiles saved yet: %w", err)
			}
			name := args[0]
			if _, ok := cfg.Profiles[name]; !ok {
				return fmt.Errorf("profile %q not found", name)
			}
			delete(cfg.Profiles, name)
			if cfg.CurrentProfile == name {
				cfg.CurrentProfile = "default"
			}
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]string{"deleted": name, "current": cfg.CurrentProfile})
			}
			_, _ = fmt.Fprintf(os.Stdout, "Profile %q deleted; current profile is %q\n", name, cfg.CurrentProfile)
			return nil
		},
	}
}
