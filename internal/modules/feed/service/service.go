package service

import (
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/gorilla/feeds"
	"github.com/microcosm-cc/bluemonday"
	feedDomain "github.com/reshetovitsme/fn-news-bridge/internal/modules/feed/domain"
	"github.com/reshetovitsme/fn-news-bridge/internal/modules/news/domain"
	newsRepo "github.com/reshetovitsme/fn-news-bridge/internal/modules/news/repository"
	postService "github.com/reshetovitsme/fn-news-bridge/internal/modules/post/service"
	"github.com/samber/oops"
)

const titleLimit = 100

// Service renders RSS feeds from the stored snapshots
type Service struct {
	repo     newsRepo.Repository
	hashtags []string
	strict   *bluemonday.Policy
	ugc      *bluemonday.Policy
	logger   *slog.Logger
}

// New creates a new feed service
func New(repo newsRepo.Repository, hashtags []string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		hashtags: hashtags,
		strict:   bluemonday.StrictPolicy(),
		ugc:      bluemonday.UGCPolicy(),
		logger:   logger,
	}
}

// GenerateFeed builds the feed for mode from its last saved snapshot
func (s *Service) GenerateFeed(mode domain.Mode, baseURL string) (*feeds.Feed, error) {
	items, err := s.repo.Read(mode)
	if err != nil {
		return nil, oops.In("feed").With("mode", mode).Wrapf(err, "read snapshot")
	}

	updated, err := s.repo.Updated(mode)
	if err != nil {
		s.logger.Warn("Snapshot modification time unavailable", "mode", mode, "error", err)
		updated = time.Now()
	}

	info := feedDomain.InfoFor(mode)
	link := fmt.Sprintf("%s/rss/%s", baseURL, mode)

	feed := &feeds.Feed{
		Title:       info.Title,
		Link:        &feeds.Link{Href: link},
		Description: info.Description,
		Author:      &feeds.Author{Name: "Fortnite News Bridge"},
		Created:     updated,
		Updated:     updated,
	}

	feed.Items = make([]*feeds.Item, 0, len(items))
	for i, item := range items {
		feed.Items = append(feed.Items, s.toFeedItem(mode, i, item, link, updated))
	}

	return feed, nil
}

func (s *Service) toFeedItem(mode domain.Mode, index int, item domain.Item, link string, updated time.Time) *feeds.Item {
	title := s.plain(item.Title)
	if title == "" {
		title = "Untitled"
	}
	if item.AdSpace != "" {
		title = fmt.Sprintf("[%s] %s", s.plain(item.AdSpace), title)
	}

	description := s.plain(postService.FormatBody(item, s.hashtags))

	content := fmt.Sprintf("<p>%s</p>", html.EscapeString(s.plain(item.Body)))
	if item.Image != "" {
		content += fmt.Sprintf(`<p><img src="%s" alt="%s"></p>`, html.EscapeString(item.Image), html.EscapeString(title))
	}

	id := item.ID
	if id == "" {
		id = fmt.Sprintf("index-%d", index)
	}

	return &feeds.Item{
		Title:       postService.Truncate(title, titleLimit),
		Link:        &feeds.Link{Href: fmt.Sprintf("%s#%s", link, id)},
		Description: description,
		Content:     s.ugc.Sanitize(content),
		Id:          fmt.Sprintf("%s-%s", mode, id),
		Created:     updated,
	}
}

// plain strips markup from upstream text and leaves it unescaped, the feed
// encoder does the escaping.
func (s *Service) plain(text string) string {
	return html.UnescapeString(s.strict.Sanitize(text))
}
