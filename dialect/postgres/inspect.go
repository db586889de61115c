package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"

	"github.com/peterldowns/migverify/catalog"
)

// Querier is satisfied by *sql.DB, *sql.Conn, and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Inspect reads the catalog of every object in schemas through q. Objects in
// the "public" schema are named without a schema; all other objects are named
// "schema.name".
func Inspect(ctx context.Context, q Querier, schemas []string) (*catalog.Catalog, error) {
	cat := catalog.New()
	for _, load := range []struct {
		name string
		fn   func(context.Context, Querier, []string, *catalog.Catalog) error
	}{
		{"tables", loadTables},
		{"constraints", loadConstraints},
		{"indexes", loadIndexes},
		{"views", loadViews},
		{"triggers", loadTriggers},
		{"enums", loadEnums},
	} {
		if err := load.fn(ctx, q, schemas, cat); err != nil {
			return nil, fmt.Errorf("inspect %s: %w", load.name, err)
		}
	}
	for _, table := range cat.Tables {
		sort.Slice(table.Uniques, func(i, j int) bool {
			return strings.Join(table.Uniques[i], ",") < strings.Join(table.Uniques[j], ",")
		})
		sort.Strings(table.Checks)
		sort.SliceStable(table.ForeignKeys, func(i, j int) bool {
			return fkKey(table.ForeignKeys[i]) < fkKey(table.ForeignKeys[j])
		})
	}
	return cat, nil
}

func qualify(schema, name string) string {
	if schema == DefaultSchema {
		return name
	}
	return schema + "." + name
}

func fkKey(fk catalog.ForeignKey) string {
	return fk.RefTable + "(" + strings.Join(fk.Columns, ",") + ")"
}

func loadTables(ctx context.Context, q Querier, schemas []string, cat *catalog.Catalog) error {
	rows, err := q.QueryContext(ctx, tablesQuery, schemas)
	if err != nil {
		return err
	}
	defer rows.Close()
	var current *catalog.Table
	for rows.Next() {
		var schema, name string
		var column catalog.Column
		var columnName, dataType sql.NullString
		var notNull sql.NullBool
		if err := rows.Scan(
			&schema,
			&name,
			&columnName,
			&notNull,
			&dataType,
			&column.Identity,
			&column.Generated,
			&column.Default,
			&column.Collation,
		); err != nil {
			return err
		}
		key := qualify(schema, name)
		if current == nil || current.Name != key {
			current = &catalog.Table{Name: key}
			cat.AddTable(current)
		}
		if !columnName.Valid { // a table without columns
			continue
		}
		column.Name = columnName.String
		column.Type = dataType.String
		column.NotNull = notNull.Bool
		if column.Generated != "" {
			column.Generated = "stored " + column.Default
			column.Default = ""
		}
		current.Columns = append(current.Columns, column)
	}
	return rows.Err()
}

var tablesQuery = query(`--sql
with r as (
	select
		c.oid as oid,
		c.relname as name,
		n.nspname as schema
	from
		pg_catalog.pg_class c
		inner join pg_catalog.pg_namespace n
		  on n.oid = c.relnamespace
	where c.relkind in ('r', 'p')
	and n.nspname = any($1)
)
select
	r.schema as "table_schema",
	r.name as "table_name",
	a.attname as "name",
	a.attnotnull as "not_null",
	format_type(a.atttypid, a.atttypmod) as "data_type",
	case a.attidentity
		when 'a' then 'always'
		when 'd' then 'by default'
		else ''
	end as "identity",
	coalesce(a.attgenerated::text, '') as "generated",
	coalesce(pg_get_expr(ad.adbin, ad.adrelid), '') as "default_def",
	coalesce(case when a.attcollation <> ty.typcollation then co.collname::text end, '') as "collation"
from
	r
	left join pg_catalog.pg_attribute a
		on r.oid = a.attrelid
		and a.attnum > 0
		and not a.attisdropped
	left join pg_catalog.pg_attrdef ad
		on a.attrelid = ad.adrelid
		and a.attnum = ad.adnum
	left join pg_catalog.pg_type ty
		on ty.oid = a.atttypid
	left join pg_catalog.pg_collation co
		on co.oid = a.attcollation
order by
	"table_schema",
	"table_name",
	a.attnum
`)

func loadConstraints(ctx context.Context, q Querier, schemas []string, cat *catalog.Catalog) error {
	rows, err := q.QueryContext(ctx, constraintsQuery, schemas)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schema, tableName, kind, definition string
		var refSchema, refTable, onUpdate, onDelete string
		var columns, refColumns []string
		if err := rows.Scan(
			&schema,
			&tableName,
			&kind,
			&definition,
			pq.Array(&columns),
			&refSchema,
			&refTable,
			pq.Array(&refColumns),
			&onUpdate,
			&onDelete,
		); err != nil {
			return err
		}
		table, ok := cat.Tables[qualify(schema, tableName)]
		if !ok {
			continue
		}
		switch kind {
		case "p":
			table.PrimaryKey = columns
		case "u":
			table.Uniques = append(table.Uniques, columns)
		case "c":
			table.Checks = append(table.Checks, definition)
		case "f":
			table.ForeignKeys = append(table.ForeignKeys, catalog.ForeignKey{
				Columns:    columns,
				RefTable:   qualify(refSchema, refTable),
				RefColumns: refColumns,
				OnUpdate:   onUpdate,
				OnDelete:   onDelete,
			})
		}
	}
	return rows.Err()
}

// Constraint names are not compared: postgres generates them from the order
// in which constraints are added.
var constraintsQuery = query(`--sql
select
	n.nspname as "schema",
	cls.relname as "table_name",
	con.contype::text as "type",
	pg_get_constraintdef(con.oid) as "definition",
	coalesce((
		select array_agg(a.attname order by k.n)
		from unnest(con.conkey) with ordinality k(attnum, n)
		join pg_catalog.pg_attribute a
			on a.attrelid = con.conrelid and a.attnum = k.attnum
	), '{}') as "columns",
	coalesce(fn.nspname, '') as "foreign_schema",
	coalesce(fcls.relname, '') as "foreign_table",
	coalesce((
		select array_agg(a.attname order by k.n)
		from unnest(con.confkey) with ordinality k(attnum, n)
		join pg_catalog.pg_attribute a
			on a.attrelid = con.confrelid and a.attnum = k.attnum
	), '{}') as "foreign_columns",
	case con.confupdtype
		when 'r' then 'RESTRICT'
		when 'c' then 'CASCADE'
		when 'n' then 'SET NULL'
		when 'd' then 'SET DEFAULT'
		when 'a' then 'NO ACTION'
		else ''
	end as "on_update",
	case con.confdeltype
		when 'r' then 'RESTRICT'
		when 'c' then 'CASCADE'
		when 'n' then 'SET NULL'
		when 'd' then 'SET DEFAULT'
		when 'a' then 'NO ACTION'
		else ''
	end as "on_delete"
from
	pg_catalog.pg_constraint con
	join pg_catalog.pg_class cls on cls.oid = con.conrelid
	join pg_catalog.pg_namespace n on n.oid = cls.relnamespace
	left join pg_catalog.pg_class fcls on fcls.oid = con.confrelid
	left join pg_catalog.pg_namespace fn on fn.oid = fcls.relnamespace
where
	n.nspname = any($1)
	and con.contype in ('p', 'u', 'c', 'f')
order by
	"schema",
	"table_name",
	"definition"
`)

func loadIndexes(ctx context.Context, q Querier, schemas []string, cat *catalog.Catalog) error {
	rows, err := q.QueryContext(ctx, indexesQuery, schemas)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schema, tableName string
		index := &catalog.Index{}
		if err := rows.Scan(
			&schema,
			&tableName,
			&index.Name,
			&index.Unique,
			pq.Array(&index.Columns),
			&index.Predicate,
		); err != nil {
			return err
		}
		if table, ok := cat.Tables[qualify(schema, tableName)]; ok {
			table.Indexes[index.Name] = index
		}
	}
	return rows.Err()
}

// Indexes that back a constraint are described by that constraint.
var indexesQuery = query(`--sql
select
	n.nspname as "schema",
	c.relname as "table_name",
	i.relname as "name",
	x.indisunique as "is_unique",
	coalesce((
		select array_agg(coalesce(a.attname, '<expression>') order by k.n)
		from unnest(x.indkey) with ordinality k(attnum, n)
		left join pg_catalog.pg_attribute a
			on a.attrelid = x.indrelid and a.attnum = k.attnum
	), '{}') as "index_columns",
	coalesce(pg_get_expr(x.indpred, x.indrelid), '') as "predicate"
from
	pg_catalog.pg_index x
	join pg_catalog.pg_class c on c.oid = x.indrelid
	join pg_catalog.pg_class i on i.oid = x.indexrelid
	join pg_catalog.pg_namespace n on n.oid = c.relnamespace
where
	n.nspname = any($1)
	and c.relkind in ('r', 'p', 'm')
	and not exists (
		select 1 from pg_catalog.pg_constraint con
		where con.conindid = x.indexrelid and con.contype in ('p', 'u', 'x')
	)
order by
	"schema",
	"table_name",
	"name"
`)

func loadViews(ctx context.Context, q Querier, schemas []string, cat *catalog.Catalog) error {
	rows, err := q.QueryContext(ctx, viewsQuery, schemas)
	if err != nil {
		return err
	}
	defer rows.Close()
	var current *catalog.View
	for rows.Next() {
		var schema, name, definition string
		var materialized bool
		var column catalog.Column
		if err := rows.Scan(
			&schema,
			&name,
			&materialized,
			&definition,
			&column.Name,
			&column.Type,
		); err != nil {
			return err
		}
		key := qualify(schema, name)
		if current == nil || current.Name != key {
			current = &catalog.View{
				Name:         key,
				Materialized: materialized,
				Definition:   catalog.NormalizeSQL(definition),
			}
			cat.AddView(current)
		}
		current.Columns = append(current.Columns, column)
	}
	return rows.Err()
}

var viewsQuery = query(`--sql
select
	n.nspname as "view_schema",
	c.relname as "view_name",
	c.relkind = 'm' as "view_is_materialized",
	pg_get_viewdef(c.oid) as "view_definition",
	a.attname as "name",
	format_type(a.atttypid, a.atttypmod) as "data_type"
from
	pg_catalog.pg_class c
	join pg_catalog.pg_namespace n on n.oid = c.relnamespace
	join pg_catalog.pg_attribute a
		on a.attrelid = c.oid
		and a.attnum > 0
		and not a.attisdropped
where
	c.relkind in ('m', 'v')
	and n.nspname = any($1)
order by
	"view_schema",
	"view_name",
	a.attnum
`)

func loadTriggers(ctx context.Context, q Querier, schemas []string, cat *catalog.Catalog) error {
	rows, err := q.QueryContext(ctx, triggersQuery, schemas)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schema, name, tableName, definition string
		if err := rows.Scan(&schema, &name, &tableName, &definition); err != nil {
			return err
		}
		cat.AddTrigger(&catalog.Trigger{
			Name:       qualify(schema, tableName) + "." + name,
			Table:      qualify(schema, tableName),
			Definition: catalog.NormalizeSQL(definition),
		})
	}
	return rows.Err()
}

// Trigger names are only unique per table.
var triggersQuery = query(`--sql
select
	n.nspname as "schema",
	tg.tgname as "name",
	cls.relname as "table_name",
	pg_get_triggerdef(tg.oid) as "definition"
from
	pg_catalog.pg_trigger tg
	join pg_catalog.pg_class cls on cls.oid = tg.tgrelid
	join pg_catalog.pg_namespace n on n.oid = cls.relnamespace
where
	not tg.tgisinternal
	and n.nspname = any($1)
order by
	"schema",
	"table_name",
	"name"
`)

func loadEnums(ctx context.Context, q Querier, schemas []string, cat *catalog.Catalog) error {
	rows, err := q.QueryContext(ctx, enumsQuery, schemas)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schema, name string
		enum := &catalog.Enum{}
		if err := rows.Scan(&schema, &name, pq.Array(&enum.Values)); err != nil {
			return err
		}
		enum.Name = qualify(schema, name)
		cat.AddEnum(enum)
	}
	return rows.Err()
}

var enumsQuery = query(`--sql
select
	n.nspname as "schema",
	t.typname as "name",
	array(
		select e.enumlabel
		from pg_catalog.pg_enum e
		where e.enumtypid = t.oid
		order by e.enumsortorder
	)::text[] as "elements"
from
	pg_catalog.pg_type t
	join pg_catalog.pg_namespace n on n.oid = t.typnamespace
where
	t.typtype = 'e'
	and n.nspname = any($1)
order by
	"schema",
	"name"
`)

// query is a helper for writing sql queries that look nice in vscode when using
// the "Inline SQL for go" extension by @jhnj, which gives syntax highlighting
// for strings that begin with `--sql`.
func query(x string) string {
	return strings.TrimSpace(strings.TrimPrefix(x, "--sql"))
}
