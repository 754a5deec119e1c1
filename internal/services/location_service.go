package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tinytitans-bjj/community-backend/internal/config"
	"github.com/tinytitans-bjj/community-backend/internal/models"
	"github.com/tinytitans-bjj/community-backend/internal/repository"
)

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	pinPattern  = regexp.MustCompile(`^[A-Za-z0-9]{4,12}$`)

	ErrSlugTaken = errors.New("location slug already in use")
)

type LocationChanges struct {
	Name     *string
	PIN      *string
	IsActive *bool
}

// LocationService manages daycare locations. Callers are trusted operators:
// HTTP routes sit behind the admin middleware and the CLI has direct database access.
type LocationService struct {
	store   repository.Store
	pinCost int
}

func NewLocationService(store repository.Store, pinCost int) *LocationService {
	if pinCost == 0 {
		pinCost = bcrypt.DefaultCost
	}
	return &LocationService{store: store, pinCost: pinCost}
}

func (s *LocationService) hashPIN(pin string) (string, error) {
	pin = strings.TrimSpace(pin)
	if !pinPattern.MatchString(pin) {
		return "", invalid("PIN must be 4-12 letters or digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.pinCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash PIN: %w", err)
	}
	return string(hash), nil
}

func (s *LocationService) Create(ctx context.Context, name, slug, pin string) (*models.Location, error) {
	name = strings.TrimSpace(name)
	slug = strings.ToLower(strings.TrimSpace(slug))
	if name == "" || len(name) > 200 {
		return nil, invalid("name is required and must be at most 200 characters")
	}
	if !slugPattern.MatchString(slug) || len(slug) > 100 {
		return nil, invalid("slug must be lowercase letters, digits and dashes")
	}
	hash, err := s.hashPIN(pin)
	if err != nil {
		return nil, err
	}

	loc := &models.Location{Name: name, Slug: slug, PinHash: hash, IsActive: true}
	if err := s.store.CreateLocation(ctx, loc); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	slog.Info("location created", "location", slug)
	return loc, nil
}

func (s *LocationService) Get(ctx context.Context, slug string) (*models.Location, error) {
	loc, err := s.store.GetLocationBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, storeErr(err, "location")
	}
	return loc, nil
}

func (s *LocationService) List(ctx context.Context) ([]models.Location, error) {
	return s.store.ListLocations(ctx)
}

// Update renames, rotates the PIN of, or (de)activates a location. Locations
// are never deleted. Rotating the PIN leaves existing grants in place.
func (s *LocationService) Update(ctx context.Context, slug string, changes LocationChanges) (*models.Location, error) {
	loc, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}

	var upd repository.LocationUpdate
	if changes.Name != nil {
		name := strings.TrimSpace(*changes.Name)
		if name == "" || len(name) > 200 {
			return nil, invalid("name is required and must be at most 200 characters")
		}
		upd.Name = &name
	}
	if changes.PIN != nil {
		hash, err := s.hashPIN(*changes.PIN)
		if err != nil {
			return nil, err
		}
		upd.PinHash = &hash
	}
	upd.IsActive = changes.IsActive

	if err := s.store.UpdateLocation(ctx, loc.ID, upd); err != nil {
		return nil, storeErr(err, "location")
	}
	slog.Info("location updated", "location", loc.Slug,
		"pin_rotated", changes.PIN != nil, "active_changed", changes.IsActive != nil)
	return s.Get(ctx, loc.Slug)
}

// Seed creates every location whose slug does not exist yet. Existing
// locations are left untouched.
func (s *LocationService) Seed(ctx context.Context, seeds []config.LocationSeed) (int, error) {
	created := 0
	for _, seed := range seeds {
		_, err := s.store.GetLocationBySlug(ctx, strings.ToLower(strings.TrimSpace(seed.Slug)))
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return created, err
		}
		if _, err := s.Create(ctx, seed.Name, seed.Slug, seed.PIN); err != nil {
			return created, fmt.Errorf("seed %q: %w", seed.Slug, err)
		}
		created++
	}
	return created, nil
}
