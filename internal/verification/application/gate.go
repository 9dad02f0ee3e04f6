package application

import (
	"context"
	"errors"
	"time"

	"github.com/avelar/storefront/internal/verification/domain"
)

var ErrInvalidProof = errors.New("proof does not satisfy minimum age")

// StateStore keeps one State per session for the session's lifetime.
type StateStore interface {
	Get(ctx context.Context, sessionID string) (domain.State, error)
	Put(ctx context.Context, sessionID string, s domain.State) error
}

// Gate guards commerce pages behind age verification.
type Gate struct {
	store  StateStore
	minAge int
	now    func() time.Time
}

func NewGate(store StateStore, minAge int) *Gate {
	return &Gate{store: store, minAge: minAge, now: time.Now}
}

// IsRequired reports whether the page's content must stay hidden from
// unverified visitors. Pure function of the page policy.
func (g *Gate) IsRequired(p domain.PagePolicy) bool {
	return p.RequireAgeVerification
}

func (g *Gate) Current(ctx context.Context, sessionID string) (domain.State, error) {
	return g.store.Get(ctx, sessionID)
}

// Verify checks the proof against the minimum-age predicate and marks
// the session verified. Re-verifying a verified session returns the
// stored state unchanged; a failed proof leaves state untouched.
func (g *Gate) Verify(ctx context.Context, sessionID string, proof domain.Proof) (domain.State, error) {
	current, err := g.store.Get(ctx, sessionID)
	if err != nil {
		return domain.State{}, err
	}
	if current.Verified {
		return current, nil
	}

	if proof.DateOfBirth.IsZero() || proof.Age(g.now().UTC()) < g.minAge {
		return domain.State{}, ErrInvalidProof
	}

	s := domain.State{Verified: true, Timestamp: g.now().UTC()}
	if err := g.store.Put(ctx, sessionID, s); err != nil {
		return domain.State{}, err
	}
	return s, nil
}
