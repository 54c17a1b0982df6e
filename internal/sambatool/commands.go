package sambatool

import (
	"regexp"
	"strings"

	"sentinel/internal/domain"
)

type argKind int

const (
	argAccount    argKind = iota // positional account name
	argGroup                     // positional group name
	argHost                      // positional host name or address
	argCredential                // secret; positional or --option=value
	argText                      // --option=value, free text
	argFlag                      // --option when the value is "true"
)

type param struct {
	name     string
	kind     argKind
	option   string // empty for positional operands
	optional bool
}

type commandDef struct {
	argv   []string
	params []param
}

// commands is the allow-list. Anything not named here is rejected before
// any argument is looked at.
var commands = map[domain.CommandCategory]map[string]commandDef{
	domain.CategoryUser: {
		"create": {argv: []string{"user", "create"}, params: []param{
			{name: "username", kind: argAccount},
			{name: "password", kind: argCredential},
			{name: "given name", kind: argText, option: "--given-name", optional: true},
			{name: "surname", kind: argText, option: "--surname", optional: true},
			{name: "email", kind: argText, option: "--mail-address", optional: true},
			{name: "must change at next login", kind: argFlag, option: "--must-change-at-next-login", optional: true},
		}},
		"delete":  {argv: []string{"user", "delete"}, params: []param{{name: "username", kind: argAccount}}},
		"disable": {argv: []string{"user", "disable"}, params: []param{{name: "username", kind: argAccount}}},
		"enable":  {argv: []string{"user", "enable"}, params: []param{{name: "username", kind: argAccount}}},
		"unlock":  {argv: []string{"user", "unlock"}, params: []param{{name: "username", kind: argAccount}}},
		"setpassword": {argv: []string{"user", "setpassword"}, params: []param{
			{name: "username", kind: argAccount},
			{name: "password", kind: argCredential, option: "--newpassword"},
			{name: "must change at next login", kind: argFlag, option: "--must-change-at-next-login", optional: true},
		}},
	},
	domain.CategoryGroup: {
		"delete": {argv: []string{"group", "delete"}, params: []param{{name: "group", kind: argGroup}}},
	},
	domain.CategoryComputer: {
		"list": {argv: []string{"computer", "list"}},
	},
	domain.CategoryDNS: {
		"serverinfo": {argv: []string{"dns", "serverinfo"}, params: []param{{name: "server", kind: argHost}}},
	},
	domain.CategoryDomain: {
		"info":  {argv: []string{"domain", "info"}, params: []param{{name: "server", kind: argHost}}},
		"level": {argv: []string{"domain", "level", "show"}},
	},
	domain.CategoryDBCheck: {
		"check": {argv: []string{"dbcheck"}},
	},
}

var hostPattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9.-]{0,252}[A-Za-z0-9])?$`)

// buildSpec validates category, action and arguments in that order and
// assembles the argument vector: subcommand, options, "--", operands.
func buildSpec(category domain.CommandCategory, action string, args []string, minPassword int) (domain.CommandSpec, error) {
	actions, ok := commands[category]
	if !ok {
		return domain.CommandSpec{}, domain.ErrValidation("command category %q is not allowed", category)
	}
	def, ok := actions[action]
	if !ok {
		return domain.CommandSpec{}, domain.ErrValidation("action %q is not allowed for %s", action, category)
	}
	if len(args) > len(def.params) {
		return domain.CommandSpec{}, domain.ErrValidation("%s %s takes at most %d arguments", category, action, len(def.params))
	}

	spec := domain.CommandSpec{Category: category, Action: action, Secret: map[int]bool{}}
	argv := append([]string(nil), def.argv...)
	type operand struct {
		value  string
		secret bool
	}
	var operands []operand

	for i, p := range def.params {
		var v string
		if i < len(args) {
			v = args[i]
		}
		if v == "" {
			if p.optional {
				continue
			}
			return domain.CommandSpec{}, domain.ErrValidation("%s is required", p.name)
		}
		if err := validateArg(p, v, minPassword); err != nil {
			return domain.CommandSpec{}, err
		}
		switch {
		case p.kind == argFlag:
			if v == "true" {
				argv = append(argv, p.option)
			}
		case p.option != "":
			if p.kind == argCredential {
				spec.Secret[len(argv)] = true
			}
			argv = append(argv, p.option+"="+v)
		default:
			operands = append(operands, operand{value: v, secret: p.kind == argCredential})
		}
	}

	if len(operands) > 0 {
		argv = append(argv, "--")
		for _, op := range operands {
			if op.secret {
				spec.Secret[len(argv)] = true
			}
			argv = append(argv, op.value)
		}
	}
	spec.Argv = argv
	return spec, nil
}

func validateArg(p param, v string, minPassword int) error {
	switch p.kind {
	case argAccount:
		return domain.ValidateAccountName(v)
	case argGroup:
		return domain.ValidateGroupName(v)
	case argHost:
		if !hostPattern.MatchString(v) {
			return domain.ErrValidation("invalid %s %q", p.name, v)
		}
	case argCredential:
		return domain.ValidatePassword(v, minPassword)
	case argText:
		if strings.HasPrefix(v, "-") {
			return domain.ErrValidation("%s must not start with '-'", p.name)
		}
		return domain.ValidateFreeText(p.name, v)
	case argFlag:
		if v != "true" && v != "false" {
			return domain.ErrValidation("%s must be true or false", p.name)
		}
	}
	return nil
}
