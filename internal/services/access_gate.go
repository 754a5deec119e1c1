package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tinytitans-bjj/community-backend/internal/identity"
	"github.com/tinytitans-bjj/community-backend/internal/models"
	"github.com/tinytitans-bjj/community-backend/internal/repository"
)

// VerifyResult is the outcome of a PIN verification or grant check.
type VerifyResult struct {
	Verified   bool          `json:"verified"`
	ExpiresAt  *time.Time    `json:"expires_at,omitempty"`
	RetryAfter time.Duration `json:"-"`
}

// AccessGate guards every community operation behind a per-location PIN.
// Administrators are verified for every location without a PIN.
type AccessGate struct {
	store    repository.Store
	policy   *identity.AdministratorPolicy
	throttle *PinThrottle
	grantTTL time.Duration
	clock    Clock
}

func NewAccessGate(store repository.Store, policy *identity.AdministratorPolicy, throttle *PinThrottle, grantTTL time.Duration, clock Clock) *AccessGate {
	if clock == nil {
		clock = RealClock{}
	}
	return &AccessGate{
		store:    store,
		policy:   policy,
		throttle: throttle,
		grantTTL: grantTTL,
		clock:    clock,
	}
}

// ActiveLocation looks up a location by slug; inactive locations are NotFound.
func (g *AccessGate) ActiveLocation(ctx context.Context, slug string) (*models.Location, error) {
	loc, err := g.store.GetLocationBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, storeErr(err, "location")
	}
	if !loc.IsActive {
		return nil, notFound("location")
	}
	return loc, nil
}

func throttleKey(p identity.Principal, loc *models.Location) string {
	return p.ID + "|" + loc.ID.String()
}

// Verify checks pin against the location's PIN and records a grant on success.
// A wrong PIN is not an error: the result reports Verified=false.
func (g *AccessGate) Verify(ctx context.Context, p identity.Principal, slug, pin string) (*VerifyResult, error) {
	if p.IsZero() {
		return nil, ErrForbidden
	}
	loc, err := g.ActiveLocation(ctx, slug)
	if err != nil {
		return nil, err
	}
	if g.policy.IsAdmin(p) {
		return &VerifyResult{Verified: true}, nil
	}

	key := throttleKey(p, loc)
	if g.throttle != nil {
		if wait, ok := g.throttle.Reserve(key); !ok {
			return &VerifyResult{RetryAfter: wait}, ErrTooManyAttempts
		}
	}

	if bcrypt.CompareHashAndPassword([]byte(loc.PinHash), []byte(strings.TrimSpace(pin))) != nil {
		var lock time.Duration
		if g.throttle != nil {
			lock = g.throttle.Lockout(key)
		}
		slog.Warn("incorrect location PIN", "location", loc.Slug, "principal_id", p.ID, "lockout", lock.String())
		return &VerifyResult{Verified: false, RetryAfter: lock}, nil
	}
	if g.throttle != nil {
		g.throttle.Success(key)
	}

	expiresAt := g.clock.Now().Add(g.grantTTL)
	grant := &models.AccessGrant{
		PrincipalID: p.ID,
		LocationID:  loc.ID,
		ExpiresAt:   expiresAt,
	}
	if err := g.store.UpsertGrant(ctx, grant); err != nil {
		return nil, err
	}
	slog.Info("location PIN verified", "location", loc.Slug, "principal_id", p.ID)
	return &VerifyResult{Verified: true, ExpiresAt: &expiresAt}, nil
}

// CheckVerified reports whether p currently holds a live grant for the location.
func (g *AccessGate) CheckVerified(ctx context.Context, p identity.Principal, slug string) (*VerifyResult, error) {
	loc, err := g.ActiveLocation(ctx, slug)
	if err != nil {
		return nil, err
	}
	if g.policy.IsAdmin(p) {
		return &VerifyResult{Verified: true}, nil
	}
	grant, err := g.liveGrant(ctx, p, loc)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return &VerifyResult{Verified: false}, nil
	}
	expiresAt := grant.ExpiresAt
	return &VerifyResult{Verified: true, ExpiresAt: &expiresAt}, nil
}

// Authorize returns an *UnverifiedError unless p may act at loc.
func (g *AccessGate) Authorize(ctx context.Context, p identity.Principal, loc *models.Location) error {
	if g.policy.IsAdmin(p) {
		return nil
	}
	if p.IsZero() {
		return &UnverifiedError{Slug: loc.Slug}
	}
	if !loc.IsActive {
		return notFound("location")
	}
	grant, err := g.liveGrant(ctx, p, loc)
	if err != nil {
		return err
	}
	if grant == nil {
		return &UnverifiedError{Slug: loc.Slug}
	}
	return nil
}

func (g *AccessGate) liveGrant(ctx context.Context, p identity.Principal, loc *models.Location) (*models.AccessGrant, error) {
	if p.IsZero() {
		return nil, nil
	}
	grant, err := g.store.GetGrant(ctx, p.ID, loc.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !g.clock.Now().Before(grant.ExpiresAt) {
		return nil, nil
	}
	return grant, nil
}

func (g *AccessGate) IsAdmin(p identity.Principal) bool {
	return g.policy.IsAdmin(p)
}
