package migverify

import (
	"github.com/peterldowns/migverify/internal/sqlsplit"
	"github.com/peterldowns/migverify/internal/toposort"
)

// InitializationStatements returns the statements that create a fresh database
// from the unlabeled definitions in files. Labeled definitions are queries and
// are ignored.
//
// Statements are returned in groups: prerequisites (schemas, extensions,
// types, domains, sequences, and functions), then tables, then views, then
// indexes and triggers, then everything else. Within each group, statements keep their
// declaration order except where a dependency requires otherwise:
//
//   - views are created after any views that they select from.
//   - if allowReferenceCycles is false, tables are created after any tables
//     that they reference with a foreign key.
func InitializationStatements(files []SourceFile, allowReferenceCycles bool) []Statement {
	var prerequisites, tables, views, creators, misc []Statement
	for _, file := range files {
		for _, def := range file.Definitions {
			if def.Label != "" {
				continue
			}
			kind, _ := sqlsplit.Classify(def.SQL)
			switch {
			case kind.IsPrerequisite():
				prerequisites = append(prerequisites, def.Statement)
			case kind == sqlsplit.KindTable:
				tables = append(tables, def.Statement)
			case kind == sqlsplit.KindView:
				views = append(views, def.Statement)
			case kind == sqlsplit.KindIndex, kind == sqlsplit.KindTrigger:
				creators = append(creators, def.Statement)
			default:
				misc = append(misc, def.Statement)
			}
		}
	}
	if !allowReferenceCycles {
		tables = orderByDependencies(tables, sqlsplit.References)
	}
	views = orderByDependencies(views, sqlsplit.Sources)

	result := make([]Statement, 0, len(prerequisites)+len(tables)+len(views)+len(creators)+len(misc))
	result = append(result, prerequisites...)
	result = append(result, tables...)
	result = append(result, views...)
	result = append(result, creators...)
	result = append(result, misc...)
	return result
}

// statementNode is keyed by declaration position so that statements with no
// dependency between them keep their original order.
type statementNode struct {
	position  int
	dependsOn []int
	statement Statement
}

func (n statementNode) SortKey() int {
	return n.position
}

func (n statementNode) DependsOn() []int {
	return n.dependsOn
}

func orderByDependencies(stmts []Statement, dependencies func(string) []string) []Statement {
	positions := make(map[string]int, len(stmts))
	for i, stmt := range stmts {
		_, name := sqlsplit.Classify(stmt.SQL)
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}
	nodes := make([]statementNode, 0, len(stmts))
	for i, stmt := range stmts {
		node := statementNode{position: i, statement: stmt}
		for _, dep := range dependencies(stmt.SQL) {
			if pos, ok := positions[dep]; ok && pos != i {
				node.dependsOn = append(node.dependsOn, pos)
			}
		}
		nodes = append(nodes, node)
	}
	ordered := make([]Statement, 0, len(stmts))
	for _, node := range toposort.Sort[int](nodes) {
		ordered = append(ordered, node.statement)
	}
	return ordered
}
