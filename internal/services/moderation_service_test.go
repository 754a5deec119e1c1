package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tinytitans-bjj/community-backend/internal/models"
)

func TestModerationService_AdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	thread := f.mustThread(t, f.author, "Console")

	if _, _, err := f.moderation.ListAllThreads(ctx, f.author, Page{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("list all: expected ErrForbidden, got %v", err)
	}
	if _, _, err := f.moderation.ListReports(ctx, f.author, "", Page{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("list reports: expected ErrForbidden, got %v", err)
	}
	if _, err := f.moderation.DeleteThread(ctx, f.author, thread.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("console delete by author: expected ErrForbidden, got %v", err)
	}
	locked := true
	if _, err := f.moderation.ModerateThread(ctx, f.author, thread.ID, ThreadModeration{IsLocked: &locked}); !errors.Is(err, ErrForbidden) {
		t.Errorf("moderate: expected ErrForbidden, got %v", err)
	}
}

func TestModerationService_ListAllThreadsAcrossLocations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustLocation(t, "Beta Kids", "beta-kids", "5678")

	first := f.mustThread(t, f.author, "At acme")
	f.mustVerify(t, f.other, "beta-kids", "5678")
	second, err := f.discussions.CreateThread(ctx, f.other, "beta-kids", CreateThreadInput{Title: "At beta", Content: "hi"})
	if err != nil {
		t.Fatalf("create at beta: %v", err)
	}
	f.mustReply(t, f.author, first.ID, "one")

	threads, total, err := f.moderation.ListAllThreads(ctx, f.admin, Page{Limit: 10})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if total != 2 || len(threads) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(threads))
	}
	if threads[0].ID != second.ID || threads[0].LocationName != "Beta Kids" {
		t.Errorf("newest first expected beta thread, got %+v", threads[0])
	}
	if threads[1].ID != first.ID || threads[1].ReplyCount != 1 || threads[1].LocationSlug != "acme-daycare" {
		t.Errorf("unexpected acme summary: %+v", threads[1])
	}
}

func TestModerationService_ModerateThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	thread := f.mustThread(t, f.author, "Needs review")

	title := "Reviewed"
	pinned, locked, hidden := true, true, true
	reason := "parent request"
	got, err := f.moderation.ModerateThread(ctx, f.admin, thread.ID, ThreadModeration{
		Title:        &title,
		IsPinned:     &pinned,
		IsLocked:     &locked,
		IsHidden:     &hidden,
		HiddenReason: &reason,
	})
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}
	if got.Title != title || !got.IsPinned || !got.IsLocked || !got.IsHidden || got.HiddenReason != reason {
		t.Errorf("unexpected thread: %+v", got)
	}
	if _, err := f.moderation.ModerateThread(ctx, f.admin, thread.ID, ThreadModeration{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty moderation: expected ErrInvalidInput, got %v", err)
	}

	unhide, other := false, "changed my mind"
	for name, m := range map[string]ThreadModeration{
		"reason alone":       {HiddenReason: &other},
		"reason with unhide": {IsHidden: &unhide, HiddenReason: &other},
		"reason with unlock": {IsLocked: &unhide, HiddenReason: &other},
	} {
		if _, err := f.moderation.ModerateThread(ctx, f.admin, thread.ID, m); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
	after, err := f.store.GetThread(ctx, thread.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !after.IsLocked || !after.IsHidden || after.HiddenReason != reason {
		t.Errorf("rejected moderation changed the thread: %+v", after)
	}

	slug, err := f.moderation.DeleteThread(ctx, f.admin, thread.ID)
	if err != nil || slug != "acme-daycare" {
		t.Errorf("console delete: slug=%q err=%v", slug, err)
	}
}

func TestModerationService_Reports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	thread := f.mustThread(t, f.author, "Reported")

	first, err := f.discussions.ReportContent(ctx, f.author, models.OwnerThread, thread.ID, "spam", "")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	f.clock.Advance(1)
	if _, err := f.discussions.ReportContent(ctx, f.author, models.OwnerThread, thread.ID, "safety", ""); err != nil {
		t.Fatalf("report: %v", err)
	}
	if _, err := f.moderation.ResolveReport(ctx, f.admin, first.ID, models.ReportResolved, "handled"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	pending, err := f.moderation.ListPendingReports(ctx, f.admin, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Reason != "safety" {
		t.Errorf("expected only the safety report pending, got %d", len(pending))
	}

	all, total, err := f.moderation.ListReports(ctx, f.admin, "all", Page{})
	if err != nil || total != 2 || len(all) != 2 {
		t.Errorf("all reports: total=%d err=%v", total, err)
	}
	if _, _, err := f.moderation.ListReports(ctx, f.admin, "archived", Page{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad status: expected ErrInvalidInput, got %v", err)
	}
}
