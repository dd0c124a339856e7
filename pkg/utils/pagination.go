package utils

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ClampLimit keeps a page size inside 1..MaxPageLimit, falling back to DefaultPageLimit.
func ClampLimit(limit int) int {
	if limit < 1 {
		return DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}

func ClampSkip(skip int) int {
	if skip < 0 {
		return 0
	}
	return skip
}
