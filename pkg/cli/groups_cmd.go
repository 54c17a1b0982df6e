package cli

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

type group struct {
	Name        string   `json:"name"`
	DN          string   `json:"distinguishedName"`
	Description string   `json:"description,omitempty"`
	Members     []string `json:"members"`
}

type groupList struct {
	Count  int     `json:"count"`
	Values []group `json:"values"`
}

type membershipResult struct {
	Success bool   `json:"success"`
	Changed bool   `json:"changed"`
	GroupDN string `json:"groupDN"`
	UserDN  string `json:"userDN"`
}

func newGroupsCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group"},
		Short:   "Manage groups and membership",
	}

	cmd.AddCommand(newGroupsListCmd(client))
	cmd.AddCommand(newGroupsGetCmd(client))
	cmd.AddCommand(newGroupsCreateCmd(client))
	cmd.AddCommand(newGroupsDeleteCmd(client))
	cmd.AddCommand(newGroupsMembersCmd(client))
	cmd.AddCommand(newGroupsMemberCmd(client, "add-member", "Add a user to a group", http.MethodPut, "added to"))
	cmd.AddCommand(newGroupsMemberCmd(client, "remove-member", "Remove a user from a group", http.MethodDelete, "removed from"))

	return cmd
}

func newGroupsListCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var list groupList
			if err := client.Call(http.MethodGet, "/groups", nil, nil, &list); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, list)
			}
			rows := make([][]string, 0, len(list.Values))
			for _, g := range list.Values {
				rows = append(rows, []string{g.Name, strconv.Itoa(len(g.Members)), g.Description})
			}
			PrintTable(os.Stdout, []string{"name", "members", "description"}, rows)
			return nil
		},
	}
}

func newGroupsGetCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get <group>",
		Short: "Show a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var g group
			if err := client.Call(http.MethodGet, pathf("/groups/%s", args[0]), nil, nil, &g); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, g)
			}
			PrintDetail(os.Stdout, map[string]interface{}{
				"name":        g.Name,
				"dn":          g.DN,
				"description": g.Description,
				"members":     strings.Join(g.Members, "; "),
			})
			return nil
		},
	}
}

func newGroupsCreateCmd(client *Client) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <group>",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var g group
			body := map[string]string{"name": args[0], "description": description}
			if err := client.Call(http.MethodPost, "/groups", nil, body, &g); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, g)
			}
			_, _ = fmt.Fprintf(os.Stdout, "Group %s created (%s)\n", g.Name, g.DN)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Group description")

	return cmd
}

func newGroupsDeleteCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <group>",
		Short: "Delete a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res commandResult
			if err := client.Call(http.MethodDelete, pathf("/groups/%s", args[0]), nil, nil, &res); err != nil {
				return err
			}
			return printCommandResult(cmd, res, fmt.Sprintf("Group %s deleted", args[0]))
		},
	}
}

func newGroupsMembersCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "members <group>",
		Short: "List the direct members of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var list stringList
			if err := client.Call(http.MethodGet, pathf("/groups/%s/members", args[0]), nil, nil, &list); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, list)
			}
			rows := make([][]string, 0, len(list.Values))
			for _, m := range list.Values {
				rows = append(rows, []string{m})
			}
			PrintTable(os.Stdout, []string{"member"}, rows)
			return nil
		},
	}
}

func newGroupsMemberCmd(client *Client, use, short, method, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <group> <username>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res membershipResult
			if err := client.Call(method, pathf("/groups/%s/members/%s", args[0], args[1]), nil, nil, &res); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, res)
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s %s %s\n", args[1], done, args[0])
			return nil
		},
	}
}
