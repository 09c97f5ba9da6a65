package service

import (
	"strings"
	"unicode/utf8"

	"github.com/reshetovitsme/fn-news-bridge/internal/modules/news/domain"
)

// Ellipsis marks a truncated body.
const Ellipsis = "..."

// FormatBody renders item as "title\nbody", labels it with the ad space when
// there is one, then hashtags the first occurrence of every configured tag.
func FormatBody(item domain.Item, hashtags []string) string {
	title := item.Title
	if adSpace := strings.TrimSpace(item.AdSpace); adSpace != "" {
		title = "[" + adSpace + "] " + title
	}
	body := title + "\n" + item.Body

	for _, tag := range hashtags {
		hashtagged := strings.Join(strings.Fields(tag), "")
		if hashtagged == "" {
			continue
		}
		body = strings.Replace(body, tag, "#"+hashtagged, 1)
	}

	return body
}

// Truncate shortens s to at most limit characters, ending in Ellipsis when
// anything was cut.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	keep := limit - utf8.RuneCountInString(Ellipsis)
	if keep < 0 {
		// no room for the ellipsis
		return string(runes[:limit])
	}
	return string(runes[:keep]) + Ellipsis
}

// FormatPost is FormatBody followed by Truncate to the publisher's budget.
func FormatPost(item domain.Item, hashtags []string, limit int) string {
	return Truncate(FormatBody(item, hashtags), limit)
}
