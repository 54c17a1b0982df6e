package directory

import (
	"strings"

	"github.com/go-ldap/ldap/v3"

	"sentinel/internal/domain"
)

// normalizeEntry flattens an LDAP entry: a single value becomes a string,
// several values become a []string, and binary identifiers are decoded.
// Values that fail to decode are dropped rather than exposed as raw bytes.
func normalizeEntry(e *ldap.Entry) domain.Entry {
	out := domain.Entry{DN: e.DN}
	for _, attr := range e.Attributes {
		var values []string
		switch strings.ToLower(attr.Name) {
		case "objectsid", "securityidentifier":
			values = decodeAll(attr.ByteValues, DecodeSID)
		case "objectguid":
			values = decodeAll(attr.ByteValues, DecodeGUID)
		default:
			values = attr.Values
		}
		switch len(values) {
		case 0:
			continue
		case 1:
			out.Attributes = append(out.Attributes, domain.EntryAttribute{Name: attr.Name, Value: values[0]})
		default:
			vs := make([]string, len(values))
			copy(vs, values)
			out.Attributes = append(out.Attributes, domain.EntryAttribute{Name: attr.Name, Value: vs})
		}
	}
	return out
}

func decodeAll(raw [][]byte, decode func([]byte) (string, error)) []string {
	out := make([]string, 0, len(raw))
	for _, b := range raw {
		s, err := decode(b)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

func normalizeEntries(entries []*ldap.Entry) []domain.Entry {
	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, normalizeEntry(e))
	}
	return out
}

// entryToGroup maps a normalized group entry to a domain.Group.
func entryToGroup(e domain.Entry) domain.Group {
	members := e.Strings("member")
	if members == nil {
		members = []string{}
	}
	return domain.Group{
		Name:        e.String("cn"),
		DN:          e.DN,
		Description: e.String("description"),
		Members:     members,
	}
}
