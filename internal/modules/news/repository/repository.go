package repository

import (
	"time"

	"github.com/reshetovitsme/fn-news-bridge/internal/modules/news/domain"
)

// Repository defines snapshot persistence, one snapshot per feed mode.
type Repository interface {
	// Read returns errors.ErrSnapshotNotFound when no snapshot exists yet.
	Read(mode domain.Mode) ([]domain.Item, error)
	// Write replaces the snapshot wholesale.
	Write(mode domain.Mode, items []domain.Item) error
	// Updated reports when the snapshot was last written.
	Updated(mode domain.Mode) (time.Time, error)
}
