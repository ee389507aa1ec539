package sync

import (
	"testing"
	"time"

	"github.com/castkeep/castkeep-api/internal/models"
	"github.com/castkeep/castkeep-api/internal/services/feed"
	"github.com/castkeep/castkeep-api/internal/services/inventory"
)

func ts(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestReconcile(t *testing.T) {
	eps := []FeedEpisode{
		{ID: "aaaaaaaaaaaa", Item: feed.Item{Title: "Newest", Published: ts("2024-05-01"), EnclosureURL: "https://e/a.mp3"}},
		{ID: "bbbbbbbbbbbb", Item: feed.Item{Title: "Older", Published: ts("2024-04-01"), EnclosureURL: "https://e/b.mp3"}},
		{ID: "cccccccccccc", Item: feed.Item{Title: "Undated", EnclosureURL: "https://e/c.mp3"}},
	}
	inv := map[string]inventory.FileEntry{
		"bbbbbbbbbbbb": {Filename: "bbbbbbbbbbbb.mp3"},
		"dddddddddddd": {Filename: "dddddddddddd.mp3"}, // orphan
	}

	got := Reconcile(eps, inv, "USB/Podcasts/Show")

	if len(got) != 4 {
		t.Fatalf("expected 4 episodes, got %d", len(got))
	}

	// Dated feed items first, newest on top
	if got[0].ID != "aaaaaaaaaaaa" || got[1].ID != "bbbbbbbbbbbb" {
		t.Errorf("order = %s, %s", got[0].ID, got[1].ID)
	}

	// Downloaded state joined from inventory
	if got[0].Downloaded {
		t.Error("aaaaaaaaaaaa is not on disk")
	}
	if !got[1].Downloaded || got[1].Filename != "bbbbbbbbbbbb.mp3" {
		t.Errorf("bbbbbbbbbbbb must be marked downloaded: %+v", got[1])
	}
	if got[1].LibraryPath != "USB/Podcasts/Show/bbbbbbbbbbbb.mp3" {
		t.Errorf("LibraryPath = %s", got[1].LibraryPath)
	}
	if got[1].Key != "id:bbbbbbbbbbbb" {
		t.Errorf("Key = %s", got[1].Key)
	}
	if got[1].Date != "2024-04-01" {
		t.Errorf("Date = %s", got[1].Date)
	}

	// Undated feed item and orphan sort last, title order between them
	var orphan *models.Episode
	for i := range got {
		if got[i].ID == "dddddddddddd" {
			orphan = &got[i]
		}
	}
	if orphan == nil {
		t.Fatal("orphan missing from reconciled view")
	}
	if orphan.Title != models.OrphanTitle {
		t.Errorf("orphan Title = %q", orphan.Title)
	}
	if !orphan.Downloaded || orphan.InFeed {
		t.Errorf("orphan flags wrong: %+v", orphan)
	}
	if orphan.Published != nil {
		t.Error("orphan must have no published time")
	}
}

func TestReconcile_EmptyInputs(t *testing.T) {
	if got := Reconcile(nil, map[string]inventory.FileEntry{}, "P"); len(got) != 0 {
		t.Errorf("expected empty view, got %v", got)
	}
}

func TestInstallCandidates(t *testing.T) {
	episodes := []models.Episode{
		{ID: "aaaaaaaaaaaa", InFeed: true, EnclosureURL: "https://e/a.mp3"},
		{ID: "bbbbbbbbbbbb", InFeed: true, Downloaded: true, EnclosureURL: "https://e/b.mp3"},
		{ID: "cccccccccccc", InFeed: true, EnclosureURL: "https://e/c.mp3"},
		{ID: "dddddddddddd", InFeed: false, Downloaded: true}, // orphan
		{ID: "eeeeeeeeeeee", InFeed: true},                    // no enclosure
		{ID: "ffffffffffff", InFeed: true, EnclosureURL: "https://e/f.mp3"},
	}

	// The window is the newest n enclosure-bearing feed items; an
	// already-installed episode occupies its slot rather than letting an
	// older item slide in
	got := InstallCandidates(episodes, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].ID != "aaaaaaaaaaaa" || got[1].ID != "bbbbbbbbbbbb" {
		t.Errorf("candidates = %s, %s", got[0].ID, got[1].ID)
	}

	// n <= 0 means no cap; orphans and enclosure-less items never qualify
	if got := InstallCandidates(episodes, 0); len(got) != 4 {
		t.Errorf("uncapped candidates = %d, want 4", len(got))
	}
}

func TestFormatDate(t *testing.T) {
	if got := formatDate(nil); got != "" {
		t.Errorf("formatDate(nil) = %q", got)
	}
	when := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)
	if got := formatDate(&when); got != "2024-05-01" {
		t.Errorf("formatDate() = %s", got)
	}
}
