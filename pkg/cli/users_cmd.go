package cli

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// entryList is the {count, values} envelope of list endpoints.
type entryList struct {
	Count  int                      `json:"count"`
	Values []map[string]interface{} `json:"values"`
}

type stringList struct {
	Count  int      `json:"count"`
	Values []string `json:"values"`
}

// commandResult is the body returned by samba-tool backed mutations.
type commandResult struct {
	Success bool   `json:"success"`
	Out     string `json:"out"`
	DryRun  bool   `json:"dryRun,omitempty"`
}

const uacAccountDisable = 0x2

// accountState reads the disabled bit of userAccountControl.
func accountState(entry map[string]interface{}) string {
	raw := formatValue(entry["userAccountControl"])
	uac, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ""
	}
	if uac&uacAccountDisable != 0 {
		return "disabled"
	}
	return "enabled"
}

func printCommandResult(cmd *cobra.Command, res commandResult, done string) error {
	if getOutputFormat(cmd) == "json" {
		return PrintJSON(os.Stdout, res)
	}
	if res.DryRun {
		_, _ = fmt.Fprintf(os.Stdout, "[dry-run] %s\n", done)
	} else {
		_, _ = fmt.Fprintln(os.Stdout, done)
	}
	if res.Out != "" {
		_, _ = fmt.Fprint(os.Stdout, res.Out)
		if res.Out[len(res.Out)-1] != '\n' {
			_, _ = fmt.Fprintln(os.Stdout)
		}
	}
	return nil
}

func newUsersCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage user accounts",
	}

	cmd.AddCommand(newUsersListCmd(client))
	cmd.AddCommand(newUsersGetCmd(client))
	cmd.AddCommand(newUsersCreateCmd(client))
	cmd.AddCommand(newUserActionCmd(client, "delete", "Delete a user account", http.MethodDelete, "", "deleted"))
	cmd.AddCommand(newUserActionCmd(client, "disable", "Disable a user account", http.MethodPost, "/disable", "disabled"))
	cmd.AddCommand(newUserActionCmd(client, "enable", "Enable a user account", http.MethodPost, "/enable", "enabled"))
	cmd.AddCommand(newUserActionCmd(client, "unlock", "Clear an account lockout", http.MethodPost, "/unlock", "unlocked"))
	cmd.AddCommand(newUsersPasswordCmd(client, "setpassword", "Set a user's password", "/setpassword", "password"))
	cmd.AddCommand(newUsersPasswordCmd(client, "resetpassword", "Reset a user's password", "/resetpassword", "newPassword"))

	return cmd
}

func newUsersListCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var list entryList
			if err := client.Call(http.MethodGet, "/users", nil, nil, &list); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, list)
			}
			rows := make([][]string, 0, len(list.Values))
			for _, u := range list.Values {
				rows = append(rows, []string{
					formatValue(u["sAMAccountName"]),
					formatValue(u["displayName"]),
					formatValue(u["mail"]),
					accountState(u),
					formatValue(u["dn"]),
				})
			}
			PrintTable(os.Stdout, []string{"username", "display_name", "mail", "state", "dn"}, rows)
			return nil
		},
	}
}

func newUsersGetCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get <username>",
		Short: "Show a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entry map[string]interface{}
			if err := client.Call(http.MethodGet, pathf("/users/%s", args[0]), nil, nil, &entry); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, entry)
			}
			PrintDetail(os.Stdout, entry)
			return nil
		},
	}
}

type createUserRequest struct {
	Username              string `json:"username"`
	Password              string `json:"password"`
	GivenName             string `json:"givenName,omitempty"`
	Surname               string `json:"surname,omitempty"`
	Email                 string `json:"email,omitempty"`
	MustChangeAtNextLogin bool   `json:"mustChangeAtNextLogin"`
}

func newUsersCreateCmd(client *Client) *cobra.Command {
	var (
		req           createUserRequest
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user account",
		Example: `  sentinel users create bob --given-name Bob --surname Smith --email bob@example.test
  echo "$INITIAL_PW" | sentinel users create bob --password-stdin --must-change`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Username = args[0]
			pw, err := promptPassword(newStdinReader(), passwordStdin)
			if err != nil {
				return err
			}
			req.Password = pw

			var res commandResult
			if err := client.Call(http.MethodPost, "/users", nil, req, &res); err != nil {
				return err
			}
			return printCommandResult(cmd, res, fmt.Sprintf("User %s created", req.Username))
		},
	}

	cmd.Flags().StringVar(&req.GivenName, "given-name", "", "Given name")
	cmd.Flags().StringVar(&req.Surname, "surname", "", "Surname")
	cmd.Flags().StringVar(&req.Email, "email", "", "E-mail address")
	cmd.Flags().BoolVar(&req.MustChangeAtNextLogin, "must-change", false, "Require a password change at next logon")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the initial password from stdin")

	return cmd
}

func newUserActionCmd(client *Client, use, short, method, suffix, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res commandResult
			if err := client.Call(method, pathf("/users/%s", args[0])+suffix, nil, nil, &res); err != nil {
				return err
			}
			return printCommandResult(cmd, res, fmt.Sprintf("User %s %s", args[0], done))
		},
	}
}

func newUsersPasswordCmd(client *Client, use, short, suffix, field string) *cobra.Command {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := promptPassword(newStdinReader(), passwordStdin)
			if err != nil {
				return err
			}
			var res commandResult
			body := map[string]string{field: pw}
			if err := client.Call(http.MethodPost, pathf("/users/%s", args[0])+suffix, nil, body, &res); err != nil {
				return err
			}
			return printCommandResult(cmd, res, fmt.Sprintf("Password for %s updated", args[0]))
		},
	}

	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the new password from stdin")

	return cmd
}

func newComputersCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "computers",
		Short: "List computer accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var list stringList
			if err := client.Call(http.MethodGet, "/computers", nil, nil, &list); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, list)
			}
			rows := make([][]string, 0, len(list.Values))
			for _, c := range list.Values {
				rows = append(rows, []string{c})
			}
			PrintTable(os.Stdout, []string{"name"}, rows)
			return nil
		},
	}
}
