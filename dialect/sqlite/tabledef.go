package sqlite

import (
	"sort"
	"strings"

	"github.com/peterldowns/migverify/catalog"
)

// tableDefinition holds what the pragmas do not report about a table, read
// from its CREATE TABLE text in sqlite_schema.
type tableDefinition struct {
	Checks     []string          // normalized expressions, sorted
	Collations map[string]string // column name => upper-cased collation
}

// parseTableDefinition scans a CREATE TABLE statement for CHECK constraints
// (column and table level) and per-column COLLATE clauses. BINARY is SQLite's
// default collation and is reported as no collation.
func parseTableDefinition(sql string) tableDefinition {
	def := tableDefinition{Collations: map[string]string{}}
	var body string
	for _, tok := range tokenize(sql) {
		if tok.group {
			body = tok.text[1 : len(tok.text)-1]
			break
		}
	}
	for _, element := range splitElements(tokenize(body)) {
		if len(element) == 0 {
			continue
		}
		column := ""
		switch strings.ToUpper(element[0].text) {
		case "CONSTRAINT", "PRIMARY", "UNIQUE", "CHECK", "FOREIGN":
		default:
			column = unquote(element[0].text)
		}
		for i := 0; i < len(element)-1; i++ {
			next := element[i+1]
			switch strings.ToUpper(element[i].text) {
			case "CHECK":
				if next.group {
					def.Checks = append(def.Checks, catalog.NormalizeSQL(next.text[1:len(next.text)-1]))
				}
			case "COLLATE":
				if column != "" && !next.group {
					if collation := strings.ToUpper(unquote(next.text)); collation != "BINARY" {
						def.Collations[column] = collation
					}
				}
			}
		}
	}
	sort.Strings(def.Checks)
	return def
}

type token struct {
	text  string
	group bool // a parenthesized group, including its parentheses
}

// tokenize splits SQL into words, quoted names and strings, parenthesized
// groups, and single punctuation characters. Comments are dropped.
func tokenize(sql string) []token {
	var tokens []token
	for i := 0; i < len(sql); {
		c := sql[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '-' && peek(sql, i+1) == '-':
			i = skipLineComment(sql, i)
		case c == '/' && peek(sql, i+1) == '*':
			i = skipBlockComment(sql, i)
		case c == '(':
			end := skipGroup(sql, i)
			tokens = append(tokens, token{text: sql[i:end], group: true})
			i = end
		case c == '\'' || c == '"' || c == '`':
			end := skipQuoted(sql, i, c)
			tokens = append(tokens, token{text: sql[i:end]})
			i = end
		case c == '[':
			end := skipQuoted(sql, i, ']')
			tokens = append(tokens, token{text: sql[i:end]})
			i = end
		case isWordPart(c):
			end := i
			for end < len(sql) && isWordPart(sql[end]) {
				end++
			}
			tokens = append(tokens, token{text: sql[i:end]})
			i = end
		default:
			tokens = append(tokens, token{text: sql[i : i+1]})
			i++
		}
	}
	return tokens
}

// splitElements splits the tokens of a table body on its top-level commas.
func splitElements(tokens []token) [][]token {
	var elements [][]token
	var current []token
	for _, tok := range tokens {
		if !tok.group && tok.text == "," {
			elements = append(elements, current)
			current = nil
			continue
		}
		current = append(current, tok)
	}
	return append(elements, current)
}

func unquote(name string) string {
	if len(name) < 2 {
		return name
	}
	switch first, last := name[0], name[len(name)-1]; {
	case first == '"' && last == '"':
		return strings.ReplaceAll(name[1:len(name)-1], `""`, `"`)
	case first == '`' && last == '`':
		return strings.ReplaceAll(name[1:len(name)-1], "``", "`")
	case first == '[' && last == ']':
		return name[1 : len(name)-1]
	case first == '\'' && last == '\'':
		return strings.ReplaceAll(name[1:len(name)-1], `''`, `'`)
	}
	return name
}

func peek(sql string, i int) byte {
	if i < len(sql) {
		return sql[i]
	}
	return 0
}

func isWordPart(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func skipLineComment(sql string, i int) int {
	if end := strings.IndexByte(sql[i:], '\n'); end != -1 {
		return i + end + 1
	}
	return len(sql)
}

func skipBlockComment(sql string, i int) int {
	if end := strings.Index(sql[i+2:], "*/"); end != -1 {
		return i + 2 + end + 2
	}
	return len(sql)
}

// skipQuoted returns the index just past the closing character, treating a
// doubled closing character as an escape.
func skipQuoted(sql string, i int, closing byte) int {
	for j := i + 1; j < len(sql); j++ {
		if sql[j] != closing {
			continue
		}
		if closing != ']' && peek(sql, j+1) == closing {
			j++
			continue
		}
		return j + 1
	}
	return len(sql)
}

// skipGroup returns the index just past the parenthesis that closes the one
// at i.
func skipGroup(sql string, i int) int {
	depth := 0
	for j := i; j < len(sql); {
		switch c := sql[j]; {
		case c == '(':
			depth++
			j++
		case c == ')':
			depth--
			j++
			if depth == 0 {
				return j
			}
		case c == '\'' || c == '"' || c == '`':
			j = skipQuoted(sql, j, c)
		case c == '[':
			j = skipQuoted(sql, j, ']')
		case c == '-' && peek(sql, j+1) == '-':
			j = skipLineComment(sql, j)
		case c == '/' && peek(sql, j+1) == '*':
			j = skipBlockComment(sql, j)
		default:
			j++
		}
	}
	return len(sql)
}
