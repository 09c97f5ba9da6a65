// Package publisher submits formatted posts to social platforms.
package publisher

import (
	"context"

	"github.com/reshetovitsme/fn-news-bridge/internal/modules/post/domain"
)

// Publisher is a posting target.
type Publisher interface {
	// Name identifies the publisher in logs and metrics.
	Name() string
	// Limit is the character budget of a post body.
	Limit() int
	// Authenticate verifies the stored credentials.
	Authenticate(ctx context.Context) error
	// Publish submits a single post.
	Publish(ctx context.Context, post domain.Post) error
}
