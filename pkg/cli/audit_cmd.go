package cli

import (
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

type auditEntry struct {
	ID        string                 `json:"id"`
	Actor     string                 `json:"actor"`
	Action    string                 `json:"action"`
	Target    *string                `json:"target"`
	Details   map[string]interface{} `json:"details"`
	IP        *string                `json:"ip"`
	UserAgent *string                `json:"userAgent"`
	CreatedAt time.Time              `json:"createdAt"`
}

type auditList struct {
	Total  int64        `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
	Values []auditEntry `json:"values"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func newAuditCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the audit trail",
	}
	cmd.AddCommand(newAuditListCmd(client))
	cmd.AddCommand(newAuditGetCmd(client))
	return cmd
}

func newAuditListCmd(client *Client) *cobra.Command {
	var (
		actor, action string
		from, to      string
		limit, offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit entries, newest first",
		Example: `  sentinel audit list --actor alice --limit 20
  sentinel audit list --action create_user --from 2024-03-01 --to 2024-03-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			setIf := func(k, v string) {
				if v != "" {
					q.Set(k, v)
				}
			}
			setIf("actor", actor)
			setIf("action", action)
			setIf("date_from", from)
			setIf("date_to", to)
			if cmd.Flags().Changed("limit") {
				q.Set("limit", strconv.Itoa(limit))
			}
			if cmd.Flags().Changed("offset") {
				q.Set("offset", strconv.Itoa(offset))
			}

			var list auditList
			if err := client.Call(http.MethodGet, "/audit", q, nil, &list); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, list)
			}
			rows := make([][]string, 0, len(list.Values))
			for _, e := range list.Values {
				rows = append(rows, []string{
					e.CreatedAt.Local().Format(time.DateTime),
					e.Actor,
					e.Action,
					deref(e.Target),
					formatValue(e.Details["statusCode"]),
					e.ID,
				})
			}
			PrintTable(os.Stdout, []string{"time", "actor", "action", "target", "status", "id"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "Filter by actor")
	cmd.Flags().StringVar(&action, "action", "", "Filter by action")
	cmd.Flags().StringVar(&from, "from", "", "Earliest time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Latest time (RFC3339 or YYYY-MM-DD, whole day)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Entries to skip")

	return cmd
}

func newAuditGetCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one audit entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var e auditEntry
			if err := client.Call(http.MethodGet, pathf("/audit/%s", args[0]), nil, nil, &e); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, e)
			}
			PrintDetail(os.Stdout, map[string]interface{}{
				"id":         e.ID,
				"created_at": e.CreatedAt.Format(time.RFC3339),
				"actor":      e.Actor,
				"action":     e.Action,
				"target":     deref(e.Target),
				"ip":         deref(e.IP),
				"user_agent": deref(e.UserAgent),
				"details":    e.Details,
			})
			return nil
		},
	}
}
