// Package sqltext finds placeholders in SQL text while skipping string
// literals, quoted identifiers, comments and dollar-quoted bodies.
package sqltext

import (
	"strings"
)

// Kind classifies a placeholder token.
type Kind int

const (
	// Named is a :name replacement.
	Named Kind = iota + 1
	// DollarNamed is a $name bind reference.
	DollarNamed
	// DollarPositional is a $1 bind reference.
	DollarPositional
	// Question is a ? positional placeholder.
	Question
)

// Placeholder is one token found in SQL text. Start and End are byte
// offsets of the whole token, sigil included.
type Placeholder struct {
	Kind  Kind
	Name  string
	Start int
	End   int
}

// Text returns the placeholder as written.
func (p Placeholder) Text() string {
	switch p.Kind {
	case Named:
		return ":" + p.Name
	case Question:
		return "?"
	}
	return "$" + p.Name
}

// Options controls lexing of dialect-specific quoting.
type Options struct {
	// BackslashEscapes makes \ escape the next character inside strings.
	BackslashEscapes bool
	// BracketIdentifiers treats [ ... ] as a quoted identifier.
	BracketIdentifiers bool
}

// Scan returns every placeholder outside quoted regions, in order.
func Scan(sql string, opts Options) []Placeholder {
	var out []Placeholder
	n := len(sql)
	for i := 0; i < n; {
		c := sql[i]
		switch {
		case c == '\'':
			i = skipQuoted(sql, i, '\'', opts.BackslashEscapes)
		case c == '"' || c == '`':
			i = skipQuoted(sql, i, c, false)
		case c == '[' && opts.BracketIdentifiers:
			i = skipQuoted(sql, i, ']', false)
		case c == '-' && i+1 < n && sql[i+1] == '-':
			i = skipLine(sql, i)
		case c == '/' && i+1 < n && sql[i+1] == '*':
			i = skipBlock(sql, i)
		case c == ':':
			if i+1 < n && sql[i+1] == ':' {
				i += 2
				continue
			}
			end := scanIdent(sql, i+1)
			if end > i+1 && !isDigit(sql[i+1]) && (i == 0 || !isIdentByte(sql[i-1])) {
				out = append(out, Placeholder{Kind: Named, Name: sql[i+1 : end], Start: i, End: end})
				i = end
				continue
			}
			i++
		case c == '$':
			if tagEnd, ok := dollarQuoteTag(sql, i); ok {
				i = skipDollarQuoted(sql, i, tagEnd)
				continue
			}
			end := scanIdent(sql, i+1)
			if end == i+1 || (i > 0 && isIdentByte(sql[i-1])) {
				i++
				continue
			}
			name := sql[i+1 : end]
			kind := DollarNamed
			if allDigits(name) {
				kind = DollarPositional
			}
			out = append(out, Placeholder{Kind: kind, Name: name, Start: i, End: end})
			i = end
		case c == '?':
			out = append(out, Placeholder{Kind: Question, Start: i, End: i + 1})
			i++
		default:
			i++
		}
	}
	return out
}

// Replace rewrites the given placeholders of sql using fn. Placeholders must
// come from Scan over the same text.
func Replace(sql string, phs []Placeholder, fn func(Placeholder) (string, error)) (string, error) {
	if len(phs) == 0 {
		return sql, nil
	}
	var b strings.Builder
	b.Grow(len(sql))
	last := 0
	for _, ph := range phs {
		repl, err := fn(ph)
		if err != nil {
			return "", err
		}
		b.WriteString(sql[last:ph.Start])
		b.WriteString(repl)
		last = ph.End
	}
	b.WriteString(sql[last:])
	return b.String(), nil
}

func skipQuoted(sql string, start int, closing byte, backslash bool) int {
	n := len(sql)
	for i := start + 1; i < n; i++ {
		c := sql[i]
		if backslash && c == '\\' {
			i++
			continue
		}
		if c == closing {
			if i+1 < n && sql[i+1] == closing {
				i++
				continue
			}
			return i + 1
		}
	}
	return n
}

func skipLine(sql string, start int) int {
	if idx := strings.IndexByte(sql[start:], '\n'); idx >= 0 {
		return start + idx + 1
	}
	return len(sql)
}

func skipBlock(sql string, start int) int {
	if idx := strings.Index(sql[start+2:], "*/"); idx >= 0 {
		return start + 2 + idx + 2
	}
	return len(sql)
}

// dollarQuoteTag recognises $$ and $tag$ openers and returns the index just
// past the opening tag.
func dollarQuoteTag(sql string, start int) (int, bool) {
	if start+1 < len(sql) && sql[start+1] == '$' {
		return start + 2, true
	}
	end := scanIdent(sql, start+1)
	if end == start+1 || isDigit(sql[start+1]) {
		return 0, false
	}
	if end < len(sql) && sql[end] == '$' {
		return end + 1, true
	}
	return 0, false
}

func skipDollarQuoted(sql string, start, tagEnd int) int {
	tag := sql[start:tagEnd]
	if idx := strings.Index(sql[tagEnd:], tag); idx >= 0 {
		return tagEnd + idx + len(tag)
	}
	return len(sql)
}

func scanIdent(sql string, start int) int {
	i := start
	for i < len(sql) && isIdentByte(sql[i]) {
		i++
	}
	return i
}

func isIdentByte(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}
