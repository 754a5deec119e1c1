package services

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tinytitans-bjj/community-backend/internal/identity"
	"github.com/tinytitans-bjj/community-backend/internal/models"
	"github.com/tinytitans-bjj/community-backend/internal/repository"
	"github.com/tinytitans-bjj/community-backend/internal/storage"
)

// stubClock returns a fixed time until advanced. Safe for concurrent use.
type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStubClock() *stubClock {
	return &stubClock{now: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store       *repository.MemoryStore
	objects     *storage.MemoryStore
	clock       *stubClock
	policy      *identity.AdministratorPolicy
	gate        *AccessGate
	locations   *LocationService
	discussions *DiscussionService
	moderation  *ModerationService

	acme   *models.Location
	author identity.Principal
	other  identity.Principal
	admin  identity.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   repository.NewMemoryStore(),
		objects: storage.NewMemoryStore("https://cdn.test"),
		clock:   newStubClock(),
		policy:  identity.NewAdministratorPolicy([]string{"coach@tinytitans.test"}, nil),
		author:  identity.Principal{ID: "user_author", Email: "parent@example.com"},
		other:   identity.Principal{ID: "user_other", Email: "other@example.com"},
		admin:   identity.Principal{ID: "user_admin", Email: "coach@tinytitans.test"},
	}
	throttle := NewPinThrottle(5, 30*time.Second, time.Hour, f.clock)
	f.gate = NewAccessGate(f.store, f.policy, throttle, 30*24*time.Hour, f.clock)
	f.locations = NewLocationService(f.store, bcrypt.MinCost)
	f.discussions = NewDiscussionService(f.store, f.gate, f.policy, f.objects,
		NewContentFilter(BannedWords), f.clock, DiscussionConfig{MaxImageBytes: 1 << 20})
	f.moderation = NewModerationService(f.store, f.policy, f.discussions)

	f.acme = f.mustLocation(t, "Acme Daycare", "acme-daycare", "1234")
	return f
}

func (f *fixture) mustLocation(t *testing.T, name, slug, pin string) *models.Location {
	t.Helper()
	loc, err := f.locations.Create(context.Background(), name, slug, pin)
	if err != nil {
		t.Fatalf("create location %s: %v", slug, err)
	}
	return loc
}

func (f *fixture) mustVerify(t *testing.T, p identity.Principal, slug, pin string) {
	t.Helper()
	res, err := f.gate.Verify(context.Background(), p, slug, pin)
	if err != nil {
		t.Fatalf("verify %s: %v", slug, err)
	}
	if !res.Verified {
		t.Fatalf("verify %s: expected verified", slug)
	}
}

// mustThread verifies p at acme and creates a thread.
func (f *fixture) mustThread(t *testing.T, p identity.Principal, title string) *models.Thread {
	t.Helper()
	if !f.policy.IsAdmin(p) {
		f.mustVerify(t, p, "acme-daycare", "1234")
	}
	thread, err := f.discussions.CreateThread(context.Background(), p, "acme-daycare",
		CreateThreadInput{Title: title, Content: "Body of " + title})
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	f.clock.Advance(time.Minute)
	return thread
}

func (f *fixture) mustReply(t *testing.T, p identity.Principal, threadID uuid.UUID, content string) *models.Reply {
	t.Helper()
	reply, err := f.discussions.CreateReply(context.Background(), p, threadID, content)
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	f.clock.Advance(time.Minute)
	return reply
}

var (
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	mp4Header  = []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00}
)

// fileBody returns size bytes starting with header.
func fileBody(header []byte, size int) []byte {
	b := make([]byte, size)
	copy(b, header)
	return b
}

func imageUpload(name string, size int) Upload {
	return Upload{
		FileName:    name,
		ContentType: "image/jpeg",
		Size:        int64(size),
		Body:        bytes.NewReader(fileBody(jpegHeader, size)),
	}
}
