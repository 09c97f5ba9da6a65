package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Item is a single news entry ("message of the day") from the feed.
type Item struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Image   string `json:"image,omitempty"`
	AdSpace string `json:"adspace,omitempty"`

	// Extra holds the fields this bridge does not interpret so a snapshot
	// keeps the payload as it was fetched.
	Extra map[string]json.RawMessage `json:"-"`
}

var itemKeys = []string{"id", "title", "body", "image", "adspace"}

// Identifiable reports whether the item can take part in a diff.
func (i Item) Identifiable() bool {
	return i.ID != ""
}

// UnmarshalJSON accepts any JSON type for id. Strings are used as is and
// numbers by their literal text; anything else leaves the item without an id.
// A non-string id is kept verbatim in Extra.
func (i *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	var p struct {
		*plain
		ID json.RawMessage `json:"id"`
	}
	p.plain = (*plain)(&Item{})
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key := range fields {
		if isItemKey(key) {
			delete(fields, key)
		}
	}

	*i = Item(*p.plain)
	id, keep := parseID(p.ID)
	i.ID = id
	if keep {
		fields["id"] = p.ID
	}

	if len(fields) == 0 {
		return nil
	}

	i.Extra = make(map[string]json.RawMessage, len(fields))
	for key, value := range fields {
		var buf bytes.Buffer
		if err := json.Compact(&buf, value); err != nil {
			return err
		}
		i.Extra[key] = buf.Bytes()
	}
	return nil
}

// parseID returns the id text and whether the raw value must be kept because
// it was not a JSON string.
func parseID(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	if bytes.Equal(raw, []byte("null")) {
		return "", true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, false
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", true
}

// isItemKey matches the way encoding/json assigns keys to fields.
func isItemKey(key string) bool {
	for _, known := range itemKeys {
		if strings.EqualFold(key, known) {
			return true
		}
	}
	return false
}

func (i Item) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(i.Extra)+len(itemKeys))
	for key, value := range i.Extra {
		out[key] = value
	}
	if _, kept := i.Extra["id"]; !kept && i.ID != "" {
		out["id"] = i.ID
	}
	out["title"] = i.Title
	out["body"] = i.Body
	if i.Image != "" {
		out["image"] = i.Image
	}
	if i.AdSpace != "" {
		out["adspace"] = i.AdSpace
	}
	return json.Marshal(out)
}
