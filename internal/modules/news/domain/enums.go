//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// Mode is a category of news content tracked with its own snapshot
// ENUM(battleRoyale,creative)
type Mode string

// PayloadKey returns the key the news API files this mode's section under.
func (x Mode) PayloadKey() string {
	switch x {
	case ModeBattleRoyale:
		return "br"
	default:
		return string(x)
	}
}
