package domain

import (
	"fmt"

	newsDomain "github.com/reshetovitsme/fn-news-bridge/internal/modules/news/domain"
)

// FeedInfo describes the RSS channel published for one feed mode
type FeedInfo struct {
	Mode        newsDomain.Mode `json:"mode"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
}

var titles = map[newsDomain.Mode]string{
	newsDomain.ModeBattleRoyale: "Battle Royale",
	newsDomain.ModeCreative:     "Creative",
}

// InfoFor returns the channel metadata for mode
func InfoFor(mode newsDomain.Mode) FeedInfo {
	title, ok := titles[mode]
	if !ok {
		title = mode.String()
	}
	return FeedInfo{
		Mode:        mode,
		Title:       fmt.Sprintf("Fortnite %s News", title),
		Description: fmt.Sprintf("Fortnite %s message of the day items as last seen by the news bridge", title),
	}
}
