package sambatool

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"sentinel/internal/domain"
)

var dbcheckSummary = regexp.MustCompile(`Checked (\d+) objects \((\d+) errors?\)`)

// Health runs a database consistency check. It never returns an error:
// tool failures and unrecognized output degrade the reported status.
func (e *Executor) Health(ctx context.Context) domain.HealthReport {
	res, err := e.Execute(ctx, domain.CategoryDBCheck, "check")
	if err != nil {
		return domain.HealthReport{Status: domain.StatusError, Message: err.Error(), Raw: failureOutput(err)}
	}
	if res.DryRun {
		return domain.HealthReport{Status: domain.StatusUnknown, Message: "dry-run mode", Raw: res.Stdout}
	}
	return ParseDBCheck(res.Stdout)
}

// ParseDBCheck extracts object and error counts from dbcheck output.
func ParseDBCheck(out string) domain.HealthReport {
	m := dbcheckSummary.FindStringSubmatch(out)
	if m == nil {
		return domain.HealthReport{Status: domain.StatusUnknown, Message: "unrecognized dbcheck output", Raw: out}
	}
	checked, _ := strconv.Atoi(m[1])
	errs, _ := strconv.Atoi(m[2])
	status := domain.StatusHealthy
	if errs > 0 {
		status = domain.StatusDegraded
	}
	return domain.HealthReport{Status: status, Checked: checked, Errors: errs, Raw: out}
}

// DomainInfo reports domain information from the configured DC.
func (e *Executor) DomainInfo(ctx context.Context) domain.InfoReport {
	return e.infoProbe(ctx, "info", e.cfg.DCHost)
}

// DomainLevel reports the domain and forest functional levels.
func (e *Executor) DomainLevel(ctx context.Context) domain.InfoReport {
	return e.infoProbe(ctx, "level")
}

func (e *Executor) infoProbe(ctx context.Context, action string, args ...string) domain.InfoReport {
	res, err := e.Execute(ctx, domain.CategoryDomain, action, args...)
	if err != nil {
		return domain.InfoReport{Status: domain.StatusError, Message: err.Error(), Raw: failureOutput(err)}
	}
	if res.DryRun {
		return domain.InfoReport{Status: domain.StatusUnknown, Message: "dry-run mode", Raw: res.Stdout}
	}
	return ParseKeyValues(res.Stdout)
}

// ParseKeyValues parses "Key : value" lines. Lines without a separator are
// ignored; output with no pairs at all yields status unknown.
func ParseKeyValues(out string) domain.InfoReport {
	fields := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		fields[k] = strings.TrimSpace(v)
	}
	if len(fields) == 0 {
		return domain.InfoReport{Status: domain.StatusUnknown, Message: "unrecognized output", Raw: out}
	}
	return domain.InfoReport{Status: domain.StatusHealthy, Fields: fields, Raw: out}
}

func failureOutput(err error) string {
	var ce *domain.CommandExecutionError
	if errors.As(err, &ce) {
		return strings.TrimSpace(ce.Stdout + "\n" + ce.Stderr)
	}
	return ""
}
