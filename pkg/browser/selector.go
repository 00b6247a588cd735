package browser

import (
	"fmt"
	"strconv"
)

// By identifies how a Selector's value is matched.
type By int

const (
	ByCSS By = iota
	ByID
	ByName
	ByTag
)

func (b By) String() string {
	switch b {
	case ByCSS:
		return "css"
	case ByID:
		return "id"
	case ByName:
		return "name"
	case ByTag:
		return "tag"
	default:
		return "By(" + strconv.Itoa(int(b)) + ")"
	}
}

// Selector identifies a page element.
type Selector struct {
	By    By
	Value string
}

func CSS(s string) Selector  { return Selector{By: ByCSS, Value: s} }
func ID(s string) Selector   { return Selector{By: ByID, Value: s} }
func Name(s string) Selector { return Selector{By: ByName, Value: s} }
func Tag(s string) Selector  { return Selector{By: ByTag, Value: s} }

// CSS returns the equivalent CSS selector, which every driver accepts.
func (s Selector) CSS() string {
	switch s.By {
	case ByID:
		return "#" + cssEscape(s.Value)
	case ByName:
		return "[name=" + strconv.Quote(s.Value) + "]"
	default:
		return s.Value
	}
}

func (s Selector) String() string {
	return fmt.Sprintf("%s=%s", s.By, s.Value)
}

// cssEscape escapes an identifier for use after '#'. Only the characters
// that commonly appear in ids are handled; others pass through.
func cssEscape(ident string) string {
	out := make([]byte, 0, len(ident))
	for i := 0; i < len(ident); i++ {
		c := ident[i]
		switch {
		case c == '-' || c == '_' || c >= 0x80,
			c >= '0' && c <= '9' && i > 0,
			c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			out = append(out, c)
		case c >= '0' && c <= '9':
			out = append(out, fmt.Sprintf(`\3%c `, c)...)
		default:
			out = append(out, '\\', c)
		}
	}
	return string(out)
}
