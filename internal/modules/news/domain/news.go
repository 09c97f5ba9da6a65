package domain

import (
	sharedErrors "github.com/reshetovitsme/fn-news-bridge/internal/shared/errors"
	"github.com/samber/oops"
)

// News is the decoded response of the news endpoint.
type News struct {
	Status int                 `json:"status"`
	Data   map[string]*Section `json:"data"`
}

// Section is the per-mode part of the payload.
type Section struct {
	Hash  string `json:"hash"`
	Date  string `json:"date"`
	Image string `json:"image"`
	Motds []Item `json:"motds"`
}

// Items returns the current items published for mode.
func (n *News) Items(mode Mode) ([]Item, error) {
	if !mode.IsValid() {
		return nil, oops.With("mode", mode).Wrap(sharedErrors.ErrUnknownMode)
	}

	section, ok := n.Data[mode.PayloadKey()]
	if !ok || section == nil {
		return nil, oops.
			With("mode", mode, "key", mode.PayloadKey()).
			Errorf("news payload has no section for mode %s", mode)
	}

	if section.Motds == nil {
		return []Item{}, nil
	}
	return section.Motds, nil
}
