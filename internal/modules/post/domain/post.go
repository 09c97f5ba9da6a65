package domain

// Image references the picture attached to a post. Path wins over URL.
type Image struct {
	Path string
	URL  string
}

// IsZero reports whether no image is attached.
func (i Image) IsZero() bool {
	return i.Path == "" && i.URL == ""
}

// Post is a formatted body ready for a publisher.
type Post struct {
	ItemID string
	Body   string
	Image  Image
}
