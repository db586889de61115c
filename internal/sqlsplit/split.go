// sqlsplit breaks SQL source text into individual statements and recognizes
// the handful of statement shapes that matter when ordering schema
// definitions. It is a scanner, not a parser: it understands quoting,
// comments, dollar-quoted bodies, and trigger bodies well enough to find
// statement boundaries, and nothing else.
package sqlsplit

import "strings"

// Split returns the statements in text, in order, without their terminating
// semicolons. Leading comments and surrounding whitespace are trimmed from each
// statement, and statements that contain nothing but comments are dropped.
//
// A semicolon ends a statement unless it appears inside a string, a quoted
// identifier, a comment, a dollar-quoted body ($$ ... $$ or $tag$ ... $tag$),
// or the BEGIN ... END body of a CREATE TRIGGER statement.
func Split(text string) []string {
	s := &splitter{text: text}
	s.run()
	return s.statements
}

type splitter struct {
	text       string
	statements []string
	start      int
	// per-statement state used to recognize trigger bodies.
	words   int
	create  bool
	trigger bool
	depth   int
}

func (s *splitter) run() {
	text := s.text
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '-' && peek(text, i+1) == '-':
			i = skipLineComment(text, i)
		case c == '/' && peek(text, i+1) == '*':
			i = skipBlockComment(text, i)
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(text, i, c, c)
		case c == '[':
			i = skipQuoted(text, i, '[', ']')
		case c == '$':
			i = skipDollarQuoted(text, i)
		case isWordStart(c):
			j := i + 1
			for j < len(text) && isWordPart(text[j]) {
				j++
			}
			s.word(text[i:j])
			i = j
		case c == ';' && s.depth == 0:
			s.emit(i)
			i++
			s.start = i
		default:
			i++
		}
	}
	s.emit(len(text))
}

func (s *splitter) word(w string) {
	upper := strings.ToUpper(w)
	s.words++
	switch {
	case s.words == 1:
		s.create = upper == "CREATE"
	case s.create && !s.trigger && s.words <= 4 && upper == "TRIGGER":
		s.trigger = true
	case s.trigger && (upper == "BEGIN" || upper == "CASE"):
		s.depth++
	case s.trigger && upper == "END" && s.depth > 0:
		s.depth--
	}
}

func (s *splitter) emit(end int) {
	if stmt := TrimComments(s.text[s.start:end]); stmt != "" {
		s.statements = append(s.statements, stmt)
	}
	s.words = 0
	s.create = false
	s.trigger = false
	s.depth = 0
}

// TrimComments removes surrounding whitespace and any comments that appear
// before the first token of a statement.
func TrimComments(stmt string) string {
	for {
		stmt = strings.TrimSpace(stmt)
		switch {
		case strings.HasPrefix(stmt, "--"):
			stmt = stmt[skipLineComment(stmt, 0):]
		case strings.HasPrefix(stmt, "/*"):
			stmt = stmt[skipBlockComment(stmt, 0):]
		default:
			return stmt
		}
	}
}

func peek(text string, i int) byte {
	if i < len(text) {
		return text[i]
	}
	return 0
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordPart(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9')
}

// skipLineComment returns the index just past the newline ending the comment
// that starts at i.
func skipLineComment(text string, i int) int {
	end := strings.IndexByte(text[i:], '\n')
	if end == -1 {
		return len(text)
	}
	return i + end + 1
}

// skipBlockComment returns the index just past the comment that starts at i.
// Block comments nest, as they do in postgres.
func skipBlockComment(text string, i int) int {
	depth := 0
	for i < len(text) {
		switch {
		case text[i] == '/' && peek(text, i+1) == '*':
			depth++
			i += 2
		case text[i] == '*' && peek(text, i+1) == '/':
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return len(text)
}

// skipQuoted returns the index just past the quoted run that starts at i. A
// doubled closing character inside the run is an escaped literal.
func skipQuoted(text string, i int, open, closing byte) int {
	i++
	for i < len(text) {
		if text[i] == closing {
			if open == closing && peek(text, i+1) == closing {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(text)
}

// skipDollarQuoted returns the index just past the dollar-quoted body that
// starts at i, or i+1 if the '$' does not open one (for instance a $1
// placeholder).
func skipDollarQuoted(text string, i int) int {
	j := i + 1
	if j < len(text) && text[j] != '$' {
		if !isWordStart(text[j]) {
			return i + 1
		}
		for j < len(text) && isWordPart(text[j]) {
			j++
		}
		if j >= len(text) || text[j] != '$' {
			return i + 1
		}
	}
	if j >= len(text) {
		return len(text)
	}
	tag := text[i : j+1]
	end := strings.Index(text[j+1:], tag)
	if end == -1 {
		return len(text)
	}
	return j + 1 + end + len(tag)
}
