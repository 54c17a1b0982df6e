package domain

import "strings"

// CommandCategory is the first word of an administration tool invocation.
type CommandCategory string

const (
	CategoryUser     CommandCategory = "user"
	CategoryGroup    CommandCategory = "group"
	CategoryComputer CommandCategory = "computer"
	CategoryDNS      CommandCategory = "dns"
	CategoryDomain   CommandCategory = "domain"
	CategoryDBCheck  CommandCategory = "dbcheck"
)

// RedactedArg replaces secret argument values in rendered commands.
const RedactedArg = "********"

// CommandSpec is a validated, allow-listed invocation of the
// administration tool. Argv is the complete argument vector after the
// executable; Secret marks positions that must never be logged.
type CommandSpec struct {
	Category CommandCategory
	Action   string
	Argv     []string
	Secret   map[int]bool
}

// Redacted returns the argument vector with secret positions masked.
func (c CommandSpec) Redacted() []string {
	out := make([]string, len(c.Argv))
	for i, a := range c.Argv {
		if c.Secret[i] {
			if k, _, ok := strings.Cut(a, "="); ok && strings.HasPrefix(a, "--") {
				out[i] = k + "=" + RedactedArg
				continue
			}
			out[i] = RedactedArg
			continue
		}
		out[i] = a
	}
	return out
}

// String renders the redacted command for logs and error messages.
func (c CommandSpec) String() string {
	return strings.Join(c.Redacted(), " ")
}

// CommandResult is the captured output of a completed invocation.
type CommandResult struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr,omitempty"`
	DryRun bool   `json:"dryRun"`
}

// Probe status values. Probes never fail; they degrade to one of these.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusUnknown  = "unknown"
	StatusError    = "error"
)

// HealthReport is the parsed result of a database consistency check.
type HealthReport struct {
	Status  string `json:"status"`
	Checked int    `json:"checked,omitempty"`
	Errors  int    `json:"errors,omitempty"`
	Raw     string `json:"raw,omitempty"`
	Message string `json:"message,omitempty"`
}

// InfoReport is a key/value report parsed from tool output.
type InfoReport struct {
	Status  string            `json:"status"`
	Fields  map[string]string `json:"fields,omitempty"`
	Raw     string            `json:"raw,omitempty"`
	Message string            `json:"message,omitempty"`
}
