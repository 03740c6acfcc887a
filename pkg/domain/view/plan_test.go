package view

import (
	"testing"

	"github.com/felixgeelhaar/feedback/pkg/domain/feedback"
	"github.com/felixgeelhaar/feedback/pkg/domain/session"
)

func sampleItems() []feedback.Item {
	return []feedback.Item{
		{ID: 1, Text: "love it", Category: feedback.CategoryGeneral, Sentiment: feedback.SentimentPositive, UserName: "ann"},
		{ID: 2, Text: "meh", Category: feedback.CategoryGeneral, Sentiment: feedback.SentimentNeutral},
		{ID: 3, Text: "crash", Category: feedback.CategoryBug, Sentiment: feedback.SentimentNegative},
		{ID: 4, Text: "no sentiment", Category: feedback.CategoryBug},
		{ID: 5, Text: "odd", Category: feedback.CategoryFeatureRequest, Sentiment: "Mixed"},
	}
}

func TestCompose_RoleGating(t *testing.T) {
	tests := []struct {
		role       session.Role
		wantForm   bool
		wantExport bool
		wantLogout LogoutControl
		wantBanner string
	}{
		{session.RoleAdmin, false, true, LogoutAdmin, "Logged in as Admin"},
		{session.RoleUser, true, false, LogoutUser, "Logged in as User"},
		{session.RoleAnonymous, true, false, LogoutNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			plan := Compose(tt.role, sampleItems(), feedback.Stats{}, nil)
			if plan.ShowSubmitForm != tt.wantForm {
				t.Errorf("ShowSubmitForm = %v, want %v", plan.ShowSubmitForm, tt.wantForm)
			}
			if plan.ShowExport() != tt.wantExport {
				t.Errorf("ShowExport = %v, want %v", plan.ShowExport(), tt.wantExport)
			}
			if plan.Logout != tt.wantLogout {
				t.Errorf("Logout = %q, want %q", plan.Logout, tt.wantLogout)
			}
			if plan.Banner != tt.wantBanner {
				t.Errorf("Banner = %q, want %q", plan.Banner, tt.wantBanner)
			}
			if tt.role.IsAdmin() {
				if plan.Flat != nil {
					t.Error("admin plan should not carry a flat list")
				}
			} else {
				if plan.Buckets != nil {
					t.Error("non-admin plan should not carry buckets")
				}
				if len(plan.Flat) != len(sampleItems()) {
					t.Errorf("flat list has %d cards, want %d", len(plan.Flat), len(sampleItems()))
				}
				for _, c := range plan.Flat {
					if c.CanDelete || c.CanSummarize {
						t.Errorf("card %d exposes admin controls", c.ID)
					}
				}
			}
		})
	}
}

func TestCompose_AdminBucketsDisjointSubset(t *testing.T) {
	items := sampleItems()
	plan := Compose(session.RoleAdmin, items, feedback.Stats{}, nil)

	if len(plan.Buckets) != 3 {
		t.Fatalf("got %d buckets, want 3", len(plan.Buckets))
	}
	want := []feedback.Sentiment{feedback.SentimentPositive, feedback.SentimentNeutral, feedback.SentimentNegative}
	seen := map[int]feedback.Sentiment{}
	for i, b := range plan.Buckets {
		if b.Sentiment != want[i] {
			t.Errorf("bucket %d = %s, want %s", i, b.Sentiment, want[i])
		}
		for _, c := range b.Cards {
			if prev, dup := seen[c.ID]; dup {
				t.Errorf("card %d in both %s and %s", c.ID, prev, b.Sentiment)
			}
			seen[c.ID] = b.Sentiment
			if !c.CanDelete || !c.CanSummarize {
				t.Errorf("admin card %d missing controls", c.ID)
			}
		}
	}

	ids := map[int]bool{}
	for _, item := range items {
		ids[item.ID] = true
	}
	for id := range seen {
		if !ids[id] {
			t.Errorf("bucketed card %d not in source list", id)
		}
	}
	for _, excluded := range []int{4, 5} {
		if _, ok := seen[excluded]; ok {
			t.Errorf("item %d with unrecognised sentiment should be excluded", excluded)
		}
	}
	if plan.CardCount() != 3 {
		t.Errorf("CardCount = %d, want 3", plan.CardCount())
	}
}

func TestCompose_SummariesOnlyOnAdminCards(t *testing.T) {
	summaries := map[int]string{1: "short", 3: "Loading summary..."}

	admin := Compose(session.RoleAdmin, sampleItems(), feedback.Stats{}, summaries)
	if got := admin.Buckets[0].Cards[0].Summary; got != "short" {
		t.Errorf("positive card summary = %q", got)
	}
	if got := admin.Buckets[2].Cards[0].Summary; got != "Loading summary..." {
		t.Errorf("negative card summary = %q", got)
	}
	if got := admin.Buckets[1].Cards[0].Summary; got != "" {
		t.Errorf("neutral card summary = %q, want empty", got)
	}

	user := Compose(session.RoleUser, sampleItems(), feedback.Stats{}, summaries)
	for _, c := range user.Flat {
		if c.Summary != "" {
			t.Errorf("user card %d shows summary %q", c.ID, c.Summary)
		}
	}
}

func TestCompose_AnonymousAuthorFallback(t *testing.T) {
	plan := Compose(session.RoleAnonymous, sampleItems(), feedback.Stats{}, nil)
	if plan.Flat[0].Author != "ann" {
		t.Errorf("author = %q, want ann", plan.Flat[0].Author)
	}
	if plan.Flat[1].Author != feedback.AnonymousAuthor {
		t.Errorf("author = %q, want %q", plan.Flat[1].Author, feedback.AnonymousAuthor)
	}
}

func TestCompose_StatsWithoutSentiment(t *testing.T) {
	stats := feedback.Stats{Total: 5, ByCategory: map[string]int{"Bug": 3, "General": 2}}

	plan := Compose(session.RoleAnonymous, nil, stats, nil)
	if plan.Stats.Total != 5 {
		t.Errorf("total = %d", plan.Stats.Total)
	}
	if len(plan.Stats.ByCategory) != 2 || plan.Stats.ByCategory[0].Label != "Bug" || plan.Stats.ByCategory[0].Value != 3 {
		t.Errorf("unexpected category panel: %+v", plan.Stats.ByCategory)
	}
	if plan.Stats.BySentiment == nil || len(plan.Stats.BySentiment) != 0 {
		t.Errorf("sentiment panel should be empty, got %+v", plan.Stats.BySentiment)
	}
	if plan.Flat == nil || len(plan.Flat) != 0 {
		t.Errorf("flat list should be empty and non-nil")
	}
}
