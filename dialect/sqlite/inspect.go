package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/peterldowns/migverify/catalog"
)

// Querier is satisfied by *sql.DB, *sql.Conn, and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type schemaObject struct {
	Type  string
	Name  string
	Table string
	SQL   string
}

// Inspect reads the catalog of the database through q.
func Inspect(ctx context.Context, q Querier) (*catalog.Catalog, error) {
	objects, err := loadObjects(ctx, q)
	if err != nil {
		return nil, err
	}
	cat := catalog.New()
	for _, obj := range objects {
		switch obj.Type {
		case "table":
			table, err := loadTable(ctx, q, obj.Name, obj.SQL)
			if err != nil {
				return nil, fmt.Errorf("inspect table %s: %w", obj.Name, err)
			}
			cat.AddTable(table)
		case "view":
			columns, err := loadColumns(ctx, q, obj.Name)
			if err != nil {
				return nil, fmt.Errorf("inspect view %s: %w", obj.Name, err)
			}
			cat.AddView(&catalog.View{
				Name:       obj.Name,
				Columns:    columns,
				Definition: catalog.NormalizeSQL(obj.SQL),
			})
		case "trigger":
			cat.AddTrigger(&catalog.Trigger{
				Name:       obj.Name,
				Table:      obj.Table,
				Definition: catalog.NormalizeSQL(obj.SQL),
			})
		}
	}
	return cat, nil
}

func loadObjects(ctx context.Context, q Querier) ([]schemaObject, error) {
	rows, err := q.QueryContext(ctx, objectsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var objects []schemaObject
	for rows.Next() {
		var obj schemaObject
		if err := rows.Scan(&obj.Type, &obj.Name, &obj.Table, &obj.SQL); err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, rows.Err()
}

var objectsQuery = query(`--sql
select type, name, tbl_name, coalesce(sql, '')
from sqlite_schema
where type in ('table', 'view', 'trigger')
  and name not like 'sqlite\_%' escape '\'
order by type, name
`)

func loadTable(ctx context.Context, q Querier, name, definition string) (*catalog.Table, error) {
	def := parseTableDefinition(definition)
	table := &catalog.Table{Name: name, Checks: def.Checks, Indexes: map[string]*catalog.Index{}}

	rows, err := q.QueryContext(ctx, tableColumnsQuery, name)
	if err != nil {
		return nil, err
	}
	type pkColumn struct {
		position int
		name     string
	}
	var pk []pkColumn
	for rows.Next() {
		var column catalog.Column
		var position, hidden int
		if err := rows.Scan(&column.Name, &column.Type, &column.NotNull, &column.Default, &position, &hidden); err != nil {
			rows.Close()
			return nil, err
		}
		switch hidden {
		case 1: // virtual table internals
			continue
		case 2:
			column.Generated = "virtual"
		case 3:
			column.Generated = "stored"
		}
		column.Type = strings.ToUpper(column.Type)
		column.Collation = def.Collations[column.Name]
		if position > 0 {
			pk = append(pk, pkColumn{position: position, name: column.Name})
		}
		table.Columns = append(table.Columns, column)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(pk, func(i, j int) bool { return pk[i].position < pk[j].position })
	for _, c := range pk {
		table.PrimaryKey = append(table.PrimaryKey, c.name)
	}

	if err := loadIndexes(ctx, q, table); err != nil {
		return nil, err
	}
	if err := loadForeignKeys(ctx, q, table); err != nil {
		return nil, err
	}
	return table, nil
}

var tableColumnsQuery = query(`--sql
select name, type, "notnull", coalesce(dflt_value, ''), pk, hidden
from pragma_table_xinfo(?)
order by cid
`)

func loadColumns(ctx context.Context, q Querier, name string) ([]catalog.Column, error) {
	rows, err := q.QueryContext(ctx, viewColumnsQuery, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var columns []catalog.Column
	for rows.Next() {
		var column catalog.Column
		if err := rows.Scan(&column.Name, &column.Type); err != nil {
			return nil, err
		}
		column.Type = strings.ToUpper(column.Type)
		columns = append(columns, column)
	}
	return columns, rows.Err()
}

var viewColumnsQuery = query(`--sql
select name, type
from pragma_table_info(?)
order by cid
`)

type indexEntry struct {
	Name    string
	Unique  bool
	Origin  string
	Partial bool
	SQL     string
}

func loadIndexes(ctx context.Context, q Querier, table *catalog.Table) error {
	rows, err := q.QueryContext(ctx, indexesQuery, table.Name)
	if err != nil {
		return err
	}
	var entries []indexEntry
	for rows.Next() {
		var entry indexEntry
		if err := rows.Scan(&entry.Name, &entry.Unique, &entry.Origin, &entry.Partial, &entry.SQL); err != nil {
			rows.Close()
			return err
		}
		entries = append(entries, entry)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, entry := range entries {
		columns, err := loadIndexColumns(ctx, q, entry.Name)
		if err != nil {
			return fmt.Errorf("index %s: %w", entry.Name, err)
		}
		switch entry.Origin {
		case "pk":
			// already described by the primary key
		case "u":
			table.Uniques = append(table.Uniques, columns)
		default:
			index := &catalog.Index{Name: entry.Name, Unique: entry.Unique, Columns: columns}
			if entry.Partial {
				index.Predicate = predicate(entry.SQL)
			}
			table.Indexes[entry.Name] = index
		}
	}
	sort.Slice(table.Uniques, func(i, j int) bool {
		return strings.Join(table.Uniques[i], ",") < strings.Join(table.Uniques[j], ",")
	})
	return nil
}

var indexesQuery = query(`--sql
select il.name, il."unique", il.origin, il.partial, coalesce(s.sql, '')
from pragma_index_list(?) il
left join sqlite_schema s on s.type = 'index' and s.name = il.name
order by il.name
`)

func loadIndexColumns(ctx context.Context, q Querier, index string) ([]string, error) {
	rows, err := q.QueryContext(ctx, indexColumnsQuery, index)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

// Expression columns have no name.
var indexColumnsQuery = query(`--sql
select coalesce(name, '<expression>')
from pragma_index_info(?)
order by seqno
`)

// predicate returns the WHERE clause of a partial index definition.
func predicate(sql string) string {
	normalized := catalog.NormalizeSQL(sql)
	upper := strings.ToUpper(normalized)
	if i := strings.LastIndex(upper, " WHERE "); i != -1 {
		return normalized[i+len(" WHERE "):]
	}
	return ""
}

func loadForeignKeys(ctx context.Context, q Querier, table *catalog.Table) error {
	rows, err := q.QueryContext(ctx, foreignKeysQuery, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()
	byID := map[int]*catalog.ForeignKey{}
	var ids []int
	for rows.Next() {
		var id int
		var refTable, from, to, onUpdate, onDelete string
		if err := rows.Scan(&id, &refTable, &from, &to, &onUpdate, &onDelete); err != nil {
			return err
		}
		fk, ok := byID[id]
		if !ok {
			fk = &catalog.ForeignKey{RefTable: refTable, OnUpdate: onUpdate, OnDelete: onDelete}
			byID[id] = fk
			ids = append(ids, id)
		}
		fk.Columns = append(fk.Columns, from)
		if to != "" {
			fk.RefColumns = append(fk.RefColumns, to)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		table.ForeignKeys = append(table.ForeignKeys, *byID[id])
	}
	sort.SliceStable(table.ForeignKeys, func(i, j int) bool {
		return fkKey(table.ForeignKeys[i]) < fkKey(table.ForeignKeys[j])
	})
	return nil
}

func fkKey(fk catalog.ForeignKey) string {
	return fk.RefTable + "(" + strings.Join(fk.Columns, ",") + ")"
}

var foreignKeysQuery = query(`--sql
select id, "table", "from", coalesce("to", ''), on_update, on_delete
from pragma_foreign_key_list(?)
order by id, seq
`)

// query trims the "--sql" marker that editor extensions use to highlight
// inline SQL.
func query(x string) string {
	return strings.TrimSpace(strings.TrimPrefix(x, "--sql"))
}
