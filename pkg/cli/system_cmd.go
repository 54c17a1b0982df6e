package cli

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type probeReport struct {
	Status  string            `json:"status"`
	Checked int               `json:"checked,omitempty"`
	Errors  int               `json:"errors,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Raw     string            `json:"raw,omitempty"`
	Message string            `json:"message,omitempty"`
}

type scheduledCheck struct {
	probeReport
	At time.Time `json:"at"`
}

type systemStatus struct {
	Status    string          `json:"status"`
	Directory *probeReport    `json:"directory,omitempty"`
	Health    probeReport     `json:"health"`
	Domain    probeReport     `json:"domain"`
	Level     probeReport     `json:"level"`
	Scheduled *scheduledCheck `json:"scheduled,omitempty"`
	CheckedAt time.Time       `json:"checkedAt"`
}

func newSystemCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system",
		Short: "Gateway and domain controller status",
	}
	cmd.AddCommand(newSystemInfoCmd(client))
	cmd.AddCommand(newSystemStatusCmd(client))
	cmd.AddCommand(newSystemDNSCmd(client))
	return cmd
}

func newSystemInfoCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show gateway build and runtime information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var info map[string]interface{}
			if err := client.Call(http.MethodGet, "/system/info", nil, nil, &info); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, info)
			}
			PrintDetail(os.Stdout, info)
			return nil
		},
	}
}

func newSystemStatusCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Run the domain controller health probes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var st systemStatus
			if err := client.Call(http.MethodGet, "/system/status", nil, nil, &st); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, st)
			}
			_, _ = fmt.Fprintf(os.Stdout, "Overall: %s (checked %s)\n\n", st.Status, st.CheckedAt.Local().Format(time.RFC1123))
			var rows [][]string
			if st.Directory != nil {
				rows = append(rows, []string{"directory", st.Directory.Status, probeDetail(*st.Directory)})
			}
			rows = append(rows,
				[]string{"health", st.Health.Status, probeDetail(st.Health)},
				[]string{"domain", st.Domain.Status, probeDetail(st.Domain)},
				[]string{"level", st.Level.Status, probeDetail(st.Level)},
			)
			PrintTable(os.Stdout, []string{"probe", "status", "detail"}, rows)
			if sc := st.Scheduled; sc != nil {
				_, _ = fmt.Fprintf(os.Stdout, "\nLast scheduled check: %s at %s\n", sc.Status, sc.At.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func newSystemDNSCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "dns",
		Short: "Show the DNS server report of the domain controller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var res commandResult
			if err := client.Call(http.MethodGet, "/system/dns", nil, nil, &res); err != nil {
				return err
			}
			return printCommandResult(cmd, res, "DNS server report:")
		},
	}
}

func probeDetail(r probeReport) string {
	switch {
	case r.Message != "":
		return r.Message
	case r.Checked > 0:
		return fmt.Sprintf("%d checked, %d errors", r.Checked, r.Errors)
	case len(r.Fields) > 0:
		return formatValue(r.Fields)
	}
	return ""
}
