package domain

import "time"

// State is the session-wide age-verification record. The zero value is
// an unverified session.
type State struct {
	Verified  bool      `json:"verified"`
	Timestamp time.Time `json:"timestamp"`
}

// Proof is what the visitor submits to pass the gate.
type Proof struct {
	DateOfBirth time.Time `json:"date_of_birth"`
}

// Age returns full years elapsed at the given instant.
func (p Proof) Age(now time.Time) int {
	years := now.Year() - p.DateOfBirth.Year()
	anniversary := p.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// PagePolicy is the per-page gate setting. Pages require verification
// unless they explicitly opt out.
type PagePolicy struct {
	RequireAgeVerification bool
}

func DefaultPolicy() PagePolicy {
	return PagePolicy{RequireAgeVerification: true}
}
