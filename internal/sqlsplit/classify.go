package sqlsplit

import (
	"regexp"
	"strings"
)

// Kind is the shape of a schema definition statement.
type Kind string

const (
	KindTable   Kind = "table"
	KindView    Kind = "view"
	KindIndex   Kind = "index"
	KindTrigger Kind = "trigger"
	KindOther   Kind = "other"

	// Objects that tables, views, and triggers may use.
	KindSchema    Kind = "schema"
	KindExtension Kind = "extension"
	KindType      Kind = "type"
	KindDomain    Kind = "domain"
	KindSequence  Kind = "sequence"
	KindFunction  Kind = "function"
)

// IsPrerequisite reports whether objects of kind must exist before the tables
// that use them are created.
func (k Kind) IsPrerequisite() bool {
	switch k {
	case KindSchema, KindExtension, KindType, KindDomain, KindSequence, KindFunction:
		return true
	}
	return false
}

// modifiers that may appear between CREATE and the object keyword.
var createModifiers = map[string]bool{
	"OR":           true,
	"REPLACE":      true,
	"TEMP":         true,
	"TEMPORARY":    true,
	"UNLOGGED":     true,
	"VIRTUAL":      true,
	"UNIQUE":       true,
	"MATERIALIZED": true,
	"RECURSIVE":    true,
	"CONSTRAINT":   true,
}

var objectKinds = map[string]Kind{
	"TABLE":   KindTable,
	"VIEW":    KindView,
	"INDEX":   KindIndex,
	"TRIGGER": KindTrigger,

	"SCHEMA":    KindSchema,
	"EXTENSION": KindExtension,
	"TYPE":      KindType,
	"DOMAIN":    KindDomain,
	"SEQUENCE":  KindSequence,
	"FUNCTION":  KindFunction,
	"PROCEDURE": KindFunction,
}

// Classify reports the kind of object a CREATE statement defines and the name
// it defines, unquoted and lower-cased. Any other statement is [KindOther]
// with an empty name.
func Classify(stmt string) (Kind, string) {
	tokens := tokenize(TrimComments(stmt), 12)
	if len(tokens) == 0 || strings.ToUpper(tokens[0]) != "CREATE" {
		return KindOther, ""
	}
	i := 1
	for i < len(tokens) && createModifiers[strings.ToUpper(tokens[i])] {
		i++
	}
	if i >= len(tokens) {
		return KindOther, ""
	}
	kind, ok := objectKinds[strings.ToUpper(tokens[i])]
	if !ok {
		return KindOther, ""
	}
	i++
	if i+2 < len(tokens) &&
		strings.ToUpper(tokens[i]) == "IF" &&
		strings.ToUpper(tokens[i+1]) == "NOT" &&
		strings.ToUpper(tokens[i+2]) == "EXISTS" {
		i += 3
	}
	if i >= len(tokens) {
		return kind, ""
	}
	return kind, NormalizeName(tokens[i])
}

// Label splits a labeled query ("selectAll:\nSELECT ...") into its label and
// the statement that follows it. Unlabeled statements return an empty label
// and the statement unchanged.
func Label(stmt string) (string, string) {
	stmt = TrimComments(stmt)
	match := labelPattern.FindStringSubmatchIndex(stmt)
	if match == nil {
		return "", stmt
	}
	colon := match[3] + strings.IndexByte(stmt[match[3]:], ':')
	return stmt[match[2]:match[3]], strings.TrimSpace(stmt[colon+1:])
}

var labelPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*:(?:[^:=]|$)`)

var (
	referencesPattern = regexp.MustCompile(`(?i)\bREFERENCES\s+("[^"]+"|[A-Za-z_][\w.$]*)`)
	sourcesPattern    = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+("[^"]+"|[A-Za-z_][\w.$]*)`)
)

// References returns the names of the tables a CREATE TABLE statement points
// at with foreign keys, in order of appearance and without duplicates.
func References(stmt string) []string {
	return uniqueMatches(referencesPattern, stmt)
}

// Sources returns the names that appear after FROM or JOIN in a statement,
// which for a view are the relations it selects from.
func Sources(stmt string) []string {
	return uniqueMatches(sourcesPattern, stmt)
}

// NormalizeName unquotes a possibly-quoted, possibly schema-qualified name
// and lower-cases it when it was not quoted.
func NormalizeName(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		if strings.HasPrefix(part, `"`) && strings.HasSuffix(part, `"`) && len(part) >= 2 {
			parts[i] = strings.ReplaceAll(part[1:len(part)-1], `""`, `"`)
		} else {
			parts[i] = strings.ToLower(part)
		}
	}
	return strings.Join(parts, ".")
}

func uniqueMatches(pattern *regexp.Regexp, stmt string) []string {
	var out []string
	seen := map[string]bool{}
	for _, match := range pattern.FindAllStringSubmatch(stmt, -1) {
		name := NormalizeName(strings.TrimRight(match[1], "("))
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// tokenize returns up to limit leading tokens of stmt. Quoted identifiers are
// kept as single tokens, including their quotes; a name followed directly by
// "(" ends at the parenthesis.
func tokenize(stmt string, limit int) []string {
	var tokens []string
	i := 0
	for i < len(stmt) && len(tokens) < limit {
		c := stmt[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '"' || c == '`' || c == '[':
			closing := c
			if c == '[' {
				closing = ']'
			}
			end := skipQuoted(stmt, i, c, closing)
			token := stmt[i:end]
			if c != '"' && len(token) >= 2 {
				token = `"` + token[1:len(token)-1] + `"`
			}
			// a quoted schema may be followed by ".name".
			for end < len(stmt) && stmt[end] == '.' {
				next := end + 1
				for next < len(stmt) && (isWordPart(stmt[next]) || stmt[next] == '"') {
					next++
				}
				token += stmt[end:next]
				end = next
			}
			tokens = append(tokens, token)
			i = end
		case c == '(' || c == ')' || c == ',' || c == ';':
			tokens = append(tokens, string(c))
			i++
		default:
			j := i
			for j < len(stmt) && !strings.ContainsRune(" \t\n\r(),;", rune(stmt[j])) {
				j++
			}
			tokens = append(tokens, stmt[i:j])
			i = j
		}
	}
	return tokens
}
