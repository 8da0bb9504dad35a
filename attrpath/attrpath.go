// Package attrpath parses the dotted + bracketed attribute path syntax used
// by getAttribute (the relationship resolver records its paths in the same
// form but builds them itself, without this package): tokens separated
// by '.', with '[N]' selecting an array index. A '.' inside '[...]' would be
// literal, but the grammar only ever places a decimal index there.
package attrpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/globaltype/gts/jsonval"
)

// TokenKind distinguishes a field-name step from an array-index step.
type TokenKind int

const (
	Field TokenKind = iota
	Index
)

// Token is one step of a parsed path.
type Token struct {
	Kind TokenKind
	Name string // set when Kind == Field
	Idx  int    // set when Kind == Index
}

// SplitIDAndPath splits the combined "id@path" syntax on the first '@'. If
// there is no '@', the whole string is the id and the path is empty.
func SplitIDAndPath(s string) (id string, path string) {
	if i := strings.IndexByte(s, '@'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// Parse decomposes a path string into tokens. An empty path yields no
// tokens (the root value itself).
func Parse(path string) ([]Token, error) {
	var tokens []Token
	if path == "" {
		return tokens, nil
	}
	i := 0
	n := len(path)
	for i < n {
		switch path[i] {
		case '.':
			i++
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("attrpath: unterminated '[' in %q", path)
			}
			numText := path[i+1 : i+end]
			idx, err := strconv.Atoi(numText)
			if err != nil {
				return nil, fmt.Errorf("attrpath: invalid array index %q in %q", numText, path)
			}
			tokens = append(tokens, Token{Kind: Index, Idx: idx})
			i += end + 1
		default:
			start := i
			for i < n && path[i] != '.' && path[i] != '[' {
				i++
			}
			name := path[start:i]
			if name == "" {
				return nil, fmt.Errorf("attrpath: empty field name in %q", path)
			}
			tokens = append(tokens, Token{Kind: Field, Name: name})
		}
	}
	return tokens, nil
}

// Get walks root following tokens, returning the resolved value and whether
// the full path resolved.
func Get(root jsonval.Value, tokens []Token) (jsonval.Value, bool) {
	cur := root
	for _, tok := range tokens {
		switch tok.Kind {
		case Field:
			obj, ok := cur.Object()
			if !ok {
				return jsonval.Value{}, false
			}
			v, ok := obj.Get(tok.Name)
			if !ok {
				return jsonval.Value{}, false
			}
			cur = v
		case Index:
			items, ok := cur.Items()
			if !ok || tok.Idx < 0 || tok.Idx >= len(items) {
				return jsonval.Value{}, false
			}
			cur = items[tok.Idx]
		}
	}
	return cur, true
}

// String renders tokens back into dotted + bracketed form, for diagnostics.
func String(tokens []Token) string {
	var b strings.Builder
	for i, tok := range tokens {
		switch tok.Kind {
		case Field:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(tok.Name)
		case Index:
			fmt.Fprintf(&b, "[%d]", tok.Idx)
		}
	}
	return b.String()
}
