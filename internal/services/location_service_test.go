package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tinytitans-bjj/community-backend/internal/config"
)

func TestLocationService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		locName string
		slug    string
		pin     string
		wantErr error
	}{
		{"valid", "Beta Kids", "beta-kids", "5678", nil},
		{"uppercase slug normalized", "Gamma", "Gamma-Room", "abcd", nil},
		{"duplicate slug", "Acme Again", "acme-daycare", "1234", ErrSlugTaken},
		{"bad slug", "Bad", "bad slug!", "1234", ErrInvalidInput},
		{"short pin", "Short", "short-pin", "12", ErrInvalidInput},
		{"missing name", "  ", "no-name", "1234", ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := f.locations.Create(ctx, tt.locName, tt.slug, tt.pin)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !loc.IsActive {
				t.Error("new location should be active")
			}
			if loc.PinHash == tt.pin {
				t.Error("PIN stored in clear text")
			}
		})
	}
}

func TestLocationService_RotatePIN(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pin := "4321"
	if _, err := f.locations.Update(ctx, "acme-daycare", LocationChanges{PIN: &pin}); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	res, err := f.gate.Verify(ctx, f.author, "acme-daycare", "1234")
	if err != nil {
		t.Fatalf("verify old pin: %v", err)
	}
	if res.Verified {
		t.Error("old PIN still accepted after rotation")
	}
	f.mustVerify(t, f.author, "acme-daycare", "4321")
}

func TestLocationService_Seed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seeds := []config.LocationSeed{
		{Name: "Acme Daycare", Slug: "acme-daycare", PIN: "0000"},
		{Name: "Beta Kids", Slug: "beta-kids", PIN: "5678"},
	}
	created, err := f.locations.Seed(ctx, seeds)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if created != 1 {
		t.Errorf("expected 1 created, got %d", created)
	}
	// The existing location keeps its PIN.
	f.mustVerify(t, f.author, "acme-daycare", "1234")

	created, err = f.locations.Seed(ctx, seeds)
	if err != nil || created != 0 {
		t.Errorf("second seed should be a no-op, got %d, %v", created, err)
	}
}
