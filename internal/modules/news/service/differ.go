package service

import (
	"log/slog"
	"strings"

	"github.com/reshetovitsme/fn-news-bridge/internal/modules/news/domain"
	"github.com/samber/lo"
)

// IgnoreRules suppress otherwise new items.
type IgnoreRules struct {
	// Titles are matched exactly.
	Titles []string
	// Bodies are matched as case-insensitive substrings.
	Bodies []string
	// StopOnIgnoredBody makes an ignored body end the batch instead of
	// skipping only that item.
	StopOnIgnoredBody bool
}

// Differ finds the qualifying items of a fetch relative to a snapshot
type Differ struct {
	rules  IgnoreRules
	bodies []string
	logger *slog.Logger
}

// NewDiffer creates a Differ applying rules
func NewDiffer(rules IgnoreRules, logger *slog.Logger) *Differ {
	if logger == nil {
		logger = slog.Default()
	}
	bodies := lo.FilterMap(rules.Bodies, func(b string, _ int) (string, bool) {
		return strings.ToLower(b), b != ""
	})
	return &Differ{
		rules:  rules,
		bodies: bodies,
		logger: logger,
	}
}

// Diff returns the items of current that are identifiable, absent from
// previous and not suppressed by an ignore rule, in current's order.
func (d *Differ) Diff(mode domain.Mode, previous, current []domain.Item) []domain.Item {
	known := lo.SliceToMap(
		lo.Filter(previous, func(item domain.Item, _ int) bool { return item.Identifiable() }),
		func(item domain.Item) (string, struct{}) { return item.ID, struct{}{} },
	)

	qualifying := make([]domain.Item, 0)
	for _, item := range current {
		if !item.Identifiable() {
			continue
		}
		if _, ok := known[item.ID]; ok {
			continue
		}

		if lo.Contains(d.rules.Titles, item.Title) {
			d.logger.Info("Ignoring news item, title is ignored", "mode", mode, "item_id", item.ID, "title", item.Title)
			continue
		}

		if d.ignoredBody(item.Body) {
			if d.rules.StopOnIgnoredBody {
				d.logger.Info("Ignoring remaining news items, body is ignored", "mode", mode, "item_id", item.ID, "title", item.Title)
				break
			}
			d.logger.Info("Ignoring news item, body is ignored", "mode", mode, "item_id", item.ID, "title", item.Title)
			continue
		}

		qualifying = append(qualifying, item)
	}

	return qualifying
}

func (d *Differ) ignoredBody(body string) bool {
	lower := strings.ToLower(body)
	return lo.SomeBy(d.bodies, func(b string) bool {
		return strings.Contains(lower, b)
	})
}
