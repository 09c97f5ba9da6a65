package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/reshetovitsme/fn-news-bridge/internal/modules/news/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		rules    IgnoreRules
		previous []domain.Item
		current  []domain.Item
		want     []domain.Item
	}{
		{
			name:     "new id is reported",
			previous: []domain.Item{{ID: "1", Title: "A"}},
			current:  []domain.Item{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}},
			want:     []domain.Item{{ID: "2", Title: "B"}},
		},
		{
			name:     "nothing new",
			previous: []domain.Item{{ID: "1", Title: "A"}},
			current:  []domain.Item{{ID: "1", Title: "A changed"}},
			want:     []domain.Item{},
		},
		{
			name:     "items without id are never new",
			previous: []domain.Item{},
			current:  []domain.Item{{Title: "no id"}, {ID: "3", Title: "C"}},
			want:     []domain.Item{{ID: "3", Title: "C"}},
		},
		{
			name:     "old items without id do not suppress",
			previous: []domain.Item{{Title: "B"}},
			current:  []domain.Item{{ID: "2", Title: "B"}},
			want:     []domain.Item{{ID: "2", Title: "B"}},
		},
		{
			name:     "original order is kept",
			previous: []domain.Item{{ID: "2"}},
			current:  []domain.Item{{ID: "5"}, {ID: "2"}, {ID: "1"}, {ID: "9"}},
			want:     []domain.Item{{ID: "5"}, {ID: "1"}, {ID: "9"}},
		},
		{
			name:     "ignored title skips only that item",
			rules:    IgnoreRules{Titles: []string{"Item Shop"}},
			previous: []domain.Item{},
			current:  []domain.Item{{ID: "1", Title: "Item Shop"}, {ID: "2", Title: "Patch Notes"}},
			want:     []domain.Item{{ID: "2", Title: "Patch Notes"}},
		},
		{
			name:     "ignored title must match exactly",
			rules:    IgnoreRules{Titles: []string{"Item Shop"}},
			previous: []domain.Item{},
			current:  []domain.Item{{ID: "1", Title: "item shop"}},
			want:     []domain.Item{{ID: "1", Title: "item shop"}},
		},
		{
			name:     "ignored body is case insensitive substring",
			rules:    IgnoreRules{Bodies: []string{"SUPPORT-A-CREATOR"}},
			previous: []domain.Item{},
			current: []domain.Item{
				{ID: "1", Title: "A", Body: "Use code in the Support-a-Creator program"},
				{ID: "2", Title: "B", Body: "Something else"},
			},
			want: []domain.Item{{ID: "2", Title: "B", Body: "Something else"}},
		},
		{
			name:     "ignored body stops the batch when asked",
			rules:    IgnoreRules{Bodies: []string{"creator"}, StopOnIgnoredBody: true},
			previous: []domain.Item{},
			current: []domain.Item{
				{ID: "1", Title: "A", Body: "first"},
				{ID: "2", Title: "B", Body: "Creator code"},
				{ID: "3", Title: "C", Body: "never reached"},
			},
			want: []domain.Item{{ID: "1", Title: "A", Body: "first"}},
		},
		{
			name:     "empty ignored body never matches",
			rules:    IgnoreRules{Bodies: []string{""}},
			previous: []domain.Item{},
			current:  []domain.Item{{ID: "1", Body: "text"}},
			want:     []domain.Item{{ID: "1", Body: "text"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDiffer(tt.rules, quietLogger())
			got := d.Diff(domain.ModeBattleRoyale, tt.previous, tt.current)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiff_Idempotent(t *testing.T) {
	d := NewDiffer(IgnoreRules{Titles: []string{"skip"}}, quietLogger())
	previous := []domain.Item{{ID: "1"}, {Title: "x"}}
	current := []domain.Item{{ID: "1"}, {ID: "2"}, {ID: "3", Title: "skip"}, {ID: "4"}}

	first := d.Diff(domain.ModeCreative, previous, current)
	second := d.Diff(domain.ModeCreative, previous, current)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second Diff() differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff([]domain.Item{{ID: "2"}, {ID: "4"}}, first); diff != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
	}
}
