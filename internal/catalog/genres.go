package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

var errNotList = errors.New("genres field is not a list of tagged objects")

// ParseGenres extracts the "name" of every object in a serialized tag list
// such as [{"id": 28, "name": "Action"}]. Python literal syntax (single
// quotes, True/False/None) is accepted as well. On any malformed input it
// returns an empty, non-nil slice together with the error.
func ParseGenres(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	names, err := decodeTagNames(s)
	if err != nil && strings.ContainsRune(s, '\'') {
		if converted, ok := pythonLiteralToJSON(s); ok {
			if retried, rerr := decodeTagNames(converted); rerr == nil {
				return retried, nil
			}
		}
	}
	if err != nil {
		return []string{}, err
	}
	return names, nil
}

func decodeTagNames(s string) ([]string, error) {
	var tags []map[string]any
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, fmt.Errorf("%w: %v", errNotList, err)
	}
	if tags == nil {
		return nil, errNotList
	}
	names := make([]string, 0, len(tags))
	for i, t := range tags {
		name, ok := t["name"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: element %d has no string name", errNotList, i)
		}
		names = append(names, name)
	}
	return names, nil
}

// pythonLiteralToJSON rewrites single-quoted strings and the Python
// constants into their JSON spelling. It reports false on an unterminated
// string.
func pythonLiteralToJSON(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' || c == '"':
			quote := c
			b.WriteByte('"')
			i++
			for ; i < len(s) && s[i] != quote; i++ {
				switch {
				case s[i] == '\\' && i+1 < len(s):
					i++
					if s[i] == '\'' {
						b.WriteByte('\'')
					} else {
						b.WriteByte('\\')
						b.WriteByte(s[i])
					}
				case s[i] == '"':
					b.WriteString(`\"`)
				default:
					b.WriteByte(s[i])
				}
			}
			if i >= len(s) {
				return "", false
			}
			b.WriteByte('"')
		case isIdentByte(c):
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			switch word := s[i:j]; word {
			case "True":
				b.WriteString("true")
			case "False":
				b.WriteString("false")
			case "None":
				b.WriteString("null")
			default:
				b.WriteString(word)
			}
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), true
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
