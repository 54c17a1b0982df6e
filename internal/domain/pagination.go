package domain

// DefaultPageLimit is the default page size when none is specified.
const DefaultPageLimit = 50

// MaxPageLimit is the maximum allowed page size.
const MaxPageLimit = 500

// PageRequest holds offset pagination parameters for list operations.
type PageRequest struct {
	Limit  int
	Offset int
}

// EffectiveLimit returns the page size clamped to [1, MaxPageLimit].
func (p PageRequest) EffectiveLimit() int {
	if p.Limit <= 0 {
		return DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		return MaxPageLimit
	}
	return p.Limit
}

// EffectiveOffset returns the offset, treating negatives as zero.
func (p PageRequest) EffectiveOffset() int {
	if p.Offset < 0 {
		return 0
	}
	return p.Offset
}
