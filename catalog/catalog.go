// Package catalog is an engine-independent description of a database schema:
// the tables, columns, indexes, constraints, views, triggers, and enum types
// that a database build produced. Objects are keyed by name so that two
// catalogs can be compared without regard to the order in which their objects
// were created.
package catalog

import (
	"fmt"
	"strings"
)

// Catalog is the structural schema of a single database. It is created by a
// dialect's engine and is never modified after it is returned.
type Catalog struct {
	Tables   map[string]*Table   `yaml:"tables,omitempty"`
	Views    map[string]*View    `yaml:"views,omitempty"`
	Triggers map[string]*Trigger `yaml:"triggers,omitempty"`
	Enums    map[string]*Enum    `yaml:"enums,omitempty"`
}

// New returns an empty Catalog with all of its maps initialized.
func New() *Catalog {
	return &Catalog{
		Tables:   map[string]*Table{},
		Views:    map[string]*View{},
		Triggers: map[string]*Trigger{},
		Enums:    map[string]*Enum{},
	}
}

type Table struct {
	Name string `yaml:"-"`
	// Columns are in declaration order, which is part of a table's shape.
	Columns     []Column          `yaml:"columns"`
	PrimaryKey  []string          `yaml:"primary_key,omitempty"`
	Uniques     [][]string        `yaml:"uniques,omitempty"`
	Checks      []string          `yaml:"checks,omitempty"`
	ForeignKeys []ForeignKey      `yaml:"foreign_keys,omitempty"`
	Indexes     map[string]*Index `yaml:"indexes,omitempty"`
}

type Column struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	NotNull   bool   `yaml:"not_null,omitempty"`
	Default   string `yaml:"default,omitempty"`
	Collation string `yaml:"collation,omitempty"`
	Identity  string `yaml:"identity,omitempty"`
	Generated string `yaml:"generated,omitempty"`
}

type ForeignKey struct {
	Columns    []string `yaml:"columns"`
	RefTable   string   `yaml:"ref_table"`
	RefColumns []string `yaml:"ref_columns,omitempty"`
	OnUpdate   string   `yaml:"on_update,omitempty"`
	OnDelete   string   `yaml:"on_delete,omitempty"`
}

type Index struct {
	Name      string   `yaml:"-"`
	Unique    bool     `yaml:"unique,omitempty"`
	Columns   []string `yaml:"columns"`
	Predicate string   `yaml:"predicate,omitempty"`
}

type View struct {
	Name         string   `yaml:"-"`
	Materialized bool     `yaml:"materialized,omitempty"`
	Columns      []Column `yaml:"columns,omitempty"`
	Definition   string   `yaml:"definition"`
}

type Trigger struct {
	Name       string `yaml:"-"`
	Table      string `yaml:"table"`
	Definition string `yaml:"definition"`
}

type Enum struct {
	Name   string   `yaml:"-"`
	Values []string `yaml:"values"`
}

// SortKey and DependsOn let tables be ordered and checked for cycles by
// their foreign keys.
func (t *Table) SortKey() string {
	return t.Name
}

func (t *Table) DependsOn() []string {
	deps := make([]string, 0, len(t.ForeignKeys))
	for _, fk := range t.ForeignKeys {
		deps = append(deps, fk.RefTable)
	}
	return deps
}

// AddTable, AddView, AddTrigger and AddEnum register objects by name. Adding
// two objects with the same name is a programming error in the engine.
func (c *Catalog) AddTable(t *Table) {
	if t.Indexes == nil {
		t.Indexes = map[string]*Index{}
	}
	mustBeNew(c.Tables, "table", t.Name)
	c.Tables[t.Name] = t
}

func (c *Catalog) AddView(v *View) {
	mustBeNew(c.Views, "view", v.Name)
	c.Views[v.Name] = v
}

func (c *Catalog) AddTrigger(t *Trigger) {
	mustBeNew(c.Triggers, "trigger", t.Name)
	c.Triggers[t.Name] = t
}

func (c *Catalog) AddEnum(e *Enum) {
	mustBeNew(c.Enums, "enum", e.Name)
	c.Enums[e.Name] = e
}

func mustBeNew[T any](objects map[string]T, kind, name string) {
	if _, exists := objects[name]; exists {
		panic(fmt.Sprintf("catalog: duplicate %s %q", kind, name))
	}
}

// NormalizeSQL collapses runs of whitespace so that object definitions that
// differ only in formatting compare equal.
func NormalizeSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
