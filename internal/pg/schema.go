package pg

import (
	"fmt"
	"sort"
	"strings"

	"modelc/internal/dsl"
)

type OnDeletePolicy string

const (
	OnDeleteRestrict OnDeletePolicy = "RESTRICT"
	OnDeleteSetNull  OnDeletePolicy = "SET NULL"
	OnDeleteCascade  OnDeletePolicy = "CASCADE"
)

// ключи карты DDL; ApplyDDL исполняет их по порядку сортировки
const (
	KeyTables      = "000_schemas_and_tables"
	KeyComments    = "100_comments"
	KeyForeignKeys = "200_foreign_keys"
)

var reserved = map[string]struct{}{
	"user": {}, "select": {}, "table": {}, "insert": {}, "update": {}, "delete": {},
	"where": {}, "join": {}, "group": {}, "order": {}, "limit": {}, "offset": {},
	"primary": {}, "foreign": {}, "key": {}, "constraint": {}, "default": {},
	"from": {}, "into": {}, "values": {}, "unique": {}, "index": {}, "create": {},
	"drop": {}, "alter": {}, "schema": {}, "grant": {}, "revoke": {},
}

func isReserved(s string) bool { _, ok := reserved[strings.ToLower(s)]; return ok }

// элементарная плюрализация (достаточно для books, authors, ...)
func plural(s string) string {
	s = strings.ToLower(s)
	if strings.HasSuffix(s, "s") {
		return s
	}
	return s + "s"
}

// table = @DbTable или plural(entity) с защитой keyword'ов
func tableName(e *dsl.Entity) string {
	if a, ok := e.Annotations.Get("DbTable"); ok && strings.TrimSpace(a.Str()) != "" {
		return strings.TrimSpace(a.Str())
	}
	t := plural(e.Name)
	if isReserved(t) {
		// помечаем «опасное» имя префиксом
		t = "e_" + t
	}
	return t
}

func schemaName(e *dsl.Entity, fallback string) string {
	if a, ok := e.Annotations.Get("DbSchema"); ok && strings.TrimSpace(a.Str()) != "" {
		return strings.TrimSpace(a.Str())
	}
	return fallback
}

func columnName(f *dsl.Field) string {
	if a, ok := f.Annotations.Get("DbName"); ok && strings.TrimSpace(a.Str()) != "" {
		return strings.TrimSpace(a.Str())
	}
	return f.Name
}

func sqlIdent(s string) string { return `"` + strings.ReplaceAll(strings.ToLower(s), `"`, `""`) + `"` }

func sqlString(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }

// size: @DbSize, для строк ещё @SizeMax
func columnSize(f *dsl.Field) (dsl.Size, bool) {
	if a, ok := f.Annotations.Get("DbSize"); ok {
		return a.Size(), true
	}
	if f.NeutralType == "string" {
		if a, ok := f.Annotations.Get("SizeMax"); ok && a.Int() > 0 {
			return dsl.Size{Precision: a.Int()}, true
		}
	}
	return dsl.Size{}, false
}

func mapType(f *dsl.Field) (string, error) {
	if a, ok := f.Annotations.Get("DbType"); ok && strings.TrimSpace(a.Str()) != "" {
		return strings.TrimSpace(a.Str()), nil
	}
	size, sized := columnSize(f)
	switch f.NeutralType {
	case "string":
		if f.Annotations.Has("LongText") || !sized {
			return "text", nil
		}
		return fmt.Sprintf("varchar(%d)", size.Precision), nil
	case "byte", "short":
		return "smallint", nil
	case "int":
		return "integer", nil
	case "long":
		return "bigint", nil
	case "decimal":
		if sized {
			return "numeric(" + size.String() + ")", nil
		}
		return "numeric", nil
	case "float":
		return "real", nil
	case "double":
		return "double precision", nil
	case "boolean":
		return "boolean", nil
	case "date":
		return "date", nil
	case "time":
		return "time", nil
	case "timetz":
		return "time with time zone", nil
	case "timestamp", "datetime":
		return "timestamp", nil
	case "datetimetz":
		return "timestamp with time zone", nil
	case "uuid":
		return "uuid", nil
	case "binary":
		return "bytea", nil
	default:
		return "", fmt.Errorf("unknown type: %s", f.NeutralType)
	}
}

// #OnDelete(set_null|cascade) на первом атрибуте FK
func onDeletePolicy(f *dsl.Field) OnDeletePolicy {
	t, ok := f.Tags.Get("OnDelete")
	if !ok {
		return OnDeleteRestrict
	}
	switch strings.ToLower(strings.TrimSpace(t.Param)) {
	case "set_null":
		return OnDeleteSetNull
	case "cascade":
		return OnDeleteCascade
	default:
		return OnDeleteRestrict
	}
}

func qualified(schema, table string) string {
	return sqlIdent(schema) + "." + sqlIdent(table)
}

// GenerateDDL возвращает карту ключ -> SQL (CREATE TABLE + индексы, комментарии, FK).
// Модель должна быть разрешена (dsl.Resolve), иначе FK не попадут в DDL.
func GenerateDDL(m *dsl.Model, defaultSchema string) (map[string]string, error) {
	if defaultSchema == "" {
		defaultSchema = "public"
	}
	out := make(map[string]string, 3)

	// стабильный порядок сущностей
	entities := append([]*dsl.Entity(nil), m.Entities...)
	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })

	// --- Phase A: schemas + tables + unique ---
	var phaseASb, commentsSb strings.Builder
	seenSchemas := map[string]struct{}{}

	for _, e := range entities {
		schema := schemaName(e, defaultSchema)
		tbl := tableName(e)
		fq := qualified(schema, tbl)

		if _, ok := seenSchemas[schema]; !ok && schema != "public" {
			fmt.Fprintf(&phaseASb, "create schema if not exists %s;\n", sqlIdent(schema))
		}
		seenSchemas[schema] = struct{}{}

		var cols, pk []string
		seen := map[string]string{}
		for _, f := range e.Attributes() {
			if f.Annotations.Has("Transient") {
				continue
			}
			col := columnName(f)
			key := strings.ToLower(col)
			if other, exists := seen[key]; exists {
				return nil, fmt.Errorf("%s.%s: column %q duplicates field %s", e.Name, f.Name, col, other)
			}
			seen[key] = f.Name

			typ, err := mapType(f)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", e.Name, f.Name, err)
			}
			def := sqlIdent(col) + " " + typ
			if f.Annotations.Has("AutoIncremented") && (f.NeutralType == "int" || f.NeutralType == "long" || f.NeutralType == "short") {
				def += " generated by default as identity"
			}
			if f.IsID() || f.Annotations.Has("NotNull") {
				def += " not null"
			}
			if a, ok := f.Annotations.Get("DbDefaultValue"); ok && strings.TrimSpace(a.Str()) != "" {
				def += " default " + strings.TrimSpace(a.Str())
			}
			cols = append(cols, def)
			if f.IsID() {
				pk = append(pk, sqlIdent(col))
			}
			if a, ok := f.Annotations.Get("DbComment"); ok {
				fmt.Fprintf(&commentsSb, "comment on column %s.%s is %s;\n", fq, sqlIdent(col), sqlString(a.Str()))
			}
		}
		if len(cols) == 0 {
			return nil, fmt.Errorf("%s: no columns", e.Name)
		}
		if len(pk) > 0 {
			cols = append(cols, "primary key ("+strings.Join(pk, ", ")+")")
		}

		// CREATE TABLE
		fmt.Fprintf(&phaseASb, "create table if not exists %s (\n  %s\n);\n", fq, strings.Join(cols, ",\n  "))

		// UNIQUE по полям
		for _, f := range e.Attributes() {
			if f.Annotations.Has("Unique") && !f.Annotations.Has("Transient") {
				col := columnName(f)
				fmt.Fprintf(&phaseASb, "create unique index if not exists %s on %s(%s);\n",
					sqlIdent(strings.ToLower(tbl+"_"+col+"_uq")), fq, sqlIdent(col))
			}
		}
		if a, ok := e.Annotations.Get("DbComment"); ok {
			fmt.Fprintf(&commentsSb, "comment on table %s is %s;\n", fq, sqlString(a.Str()))
		}
	}
	out[KeyTables] = phaseASb.String()
	if commentsSb.Len() > 0 {
		out[KeyComments] = commentsSb.String()
	}

	// --- Phase B: foreign keys (после создания всех таблиц) ---
	var phaseBSb strings.Builder
	for _, fk := range m.ForeignKeys {
		origin, ok := m.Entity(fk.Origin)
		if !ok {
			return nil, fmt.Errorf("foreign key %s: %w: %s", fk.Name, dsl.ErrEntityNotFound, fk.Origin)
		}
		ref, ok := m.Entity(fk.Referenced)
		if !ok {
			return nil, fmt.Errorf("foreign key %s: %w: %s", fk.Name, dsl.ErrEntityNotFound, fk.Referenced)
		}
		var from, to []string
		policy := OnDeleteRestrict
		for i, pair := range fk.Attributes {
			of, _ := origin.Field(pair.Origin)
			rf, _ := ref.Field(pair.Referenced)
			if of == nil || rf == nil {
				return nil, fmt.Errorf("foreign key %s: unresolved attribute pair %s -> %s", fk.Name, pair.Origin, pair.Referenced)
			}
			from = append(from, sqlIdent(columnName(of)))
			to = append(to, sqlIdent(columnName(rf)))
			if i == 0 {
				policy = onDeletePolicy(of)
			}
		}
		fmt.Fprintf(&phaseBSb,
			"alter table %s add constraint %s foreign key (%s) references %s(%s) on delete %s;\n",
			qualified(schemaName(origin, defaultSchema), tableName(origin)),
			sqlIdent(fk.Name),
			strings.Join(from, ", "),
			qualified(schemaName(ref, defaultSchema), tableName(ref)),
			strings.Join(to, ", "),
			policy,
		)
	}
	if phaseBSb.Len() > 0 {
		out[KeyForeignKeys] = phaseBSb.String()
	}

	return out, nil
}

// Script склеивает карту DDL в один текст в порядке исполнения
func Script(ddl map[string]string) string {
	keys := make([]string, 0, len(ddl))
	for k := range ddl {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		if s := strings.TrimSpace(ddl[k]); s != "" {
			fmt.Fprintf(&sb, "-- %s\n%s\n", k, s)
		}
	}
	return sb.String()
}
