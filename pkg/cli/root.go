package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]interface{}{
				"error": err.Error(),
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
				errObj["code"] = apiErr.Code
				if apiErr.Stderr != "" {
					errObj["stderr"] = apiErr.Stderr
				}
			}
			_ = PrintJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		host    string
		token   string
		output  string
		profile string
	)

	client := NewClient(host, token)

	rootCmd := &cobra.Command{
		Use:           "sentinel",
		Short:         "Directory administration gateway CLI",
		Long:          "Command-line interface for the sentinel directory administration gateway.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadOrNewUserConfig()
			p, err := cfg.ActiveProfile(profile)
			if err != nil {
				return err
			}

			// Apply precedence: flag > env > profile > default
			flags := cmd.Flags()
			resolve(flags, "host", "SENTINEL_HOST", p.Host, &host)
			resolve(flags, "token", "SENTINEL_TOKEN", p.Token, &token)
			resolve(flags, "output", "SENTINEL_OUTPUT", p.Output, &output)
			if err := validateOutputFormat(output); err != nil {
				return err
			}

			client.BaseURL = host
			client.Token = token
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "Gateway base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token (defaults to the profile's saved token)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Config profile to use")

	rootCmd.AddCommand(newLoginCmd(client, &profile))
	rootCmd.AddCommand(newLogoutCmd(&profile))
	rootCmd.AddCommand(newAuthCmd(&profile))
	rootCmd.AddCommand(newUsersCmd(client))
	rootCmd.AddCommand(newGroupsCmd(client))
	rootCmd.AddCommand(newComputersCmd(client))
	rootCmd.AddCommand(newAuditCmd(client))
	rootCmd.AddCommand(newSystemCmd(client))
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// resolve fills *target from env, then the profile, unless the flag was
// given explicitly.
func resolve(flags *pflag.FlagSet, name, env, profileValue string, target *string) {
	if flags.Changed(name) {
		return
	}
	if v := os.Getenv(env); v != "" {
		*target = v
	} else if profileValue != "" {
		*target = profileValue
	}
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
