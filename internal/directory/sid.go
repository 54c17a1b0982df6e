package directory

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Binary SID layout: revision (1 byte), sub-authority count (1 byte),
// identifier authority (6 bytes, big-endian), then count little-endian
// uint32 sub-authorities.
const (
	sidHeaderLen      = 8
	maxSubAuthorities = 15
)

// DecodeSID converts a binary security identifier into its canonical
// S-R-I-S-S... form.
func DecodeSID(b []byte) (string, error) {
	if len(b) < sidHeaderLen {
		return "", fmt.Errorf("sid too short: %d bytes", len(b))
	}
	revision := b[0]
	count := int(b[1])
	if count > maxSubAuthorities {
		return "", fmt.Errorf("sid has %d sub-authorities, max %d", count, maxSubAuthorities)
	}
	if len(b) != sidHeaderLen+4*count {
		return "", fmt.Errorf("sid length %d does not match %d sub-authorities", len(b), count)
	}

	var authority uint64
	for i := 2; i < sidHeaderLen; i++ {
		authority = authority<<8 | uint64(b[i])
	}

	var sb strings.Builder
	sb.WriteString("S-")
	sb.WriteString(strconv.FormatUint(uint64(revision), 10))
	sb.WriteByte('-')
	sb.WriteString(strconv.FormatUint(authority, 10))
	for i := 0; i < count; i++ {
		sub := binary.LittleEndian.Uint32(b[sidHeaderLen+4*i:])
		sb.WriteByte('-')
		sb.WriteString(strconv.FormatUint(uint64(sub), 10))
	}
	return sb.String(), nil
}

// EncodeSID converts a canonical SID string into its binary form.
func EncodeSID(s string) ([]byte, error) {
	parts := strings.Split(s, "-")
	if len(parts) < 3 || parts[0] != "S" {
		return nil, fmt.Errorf("invalid sid %q", s)
	}
	revision, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid sid revision in %q: %w", s, err)
	}
	authority, err := strconv.ParseUint(parts[2], 10, 48)
	if err != nil {
		return nil, fmt.Errorf("invalid sid authority in %q: %w", s, err)
	}
	subs := parts[3:]
	if len(subs) > maxSubAuthorities {
		return nil, fmt.Errorf("sid %q has too many sub-authorities", s)
	}

	b := make([]byte, sidHeaderLen+4*len(subs))
	b[0] = byte(revision)
	b[1] = byte(len(subs))
	for i := 7; i >= 2; i-- {
		b[i] = byte(authority)
		authority >>= 8
	}
	for i, part := range subs {
		v, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid sid sub-authority %q: %w", part, err)
		}
		binary.LittleEndian.PutUint32(b[sidHeaderLen+4*i:], uint32(v))
	}
	return b, nil
}

// DecodeGUID converts an Active Directory objectGUID (mixed-endian) into
// its canonical textual form.
func DecodeGUID(b []byte) (string, error) {
	if len(b) != 16 {
		return "", fmt.Errorf("guid must be 16 bytes, got %d", len(b))
	}
	ordered := []byte{
		b[3], b[2], b[1], b[0],
		b[5], b[4],
		b[7], b[6],
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15],
	}
	id, err := uuid.FromBytes(ordered)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
