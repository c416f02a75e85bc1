package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// коды SQLSTATE, при которых объект уже создан
const (
	codeDuplicateObject = "42710"
	codeDuplicateTable  = "42P07"
)

// ApplyDDL выполняет map[key]sql в порядке ключей. Ожидается idempotent DDL (create ... if not exists).
func ApplyDDL(ctx context.Context, db *sql.DB, ddl map[string]string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	keys := make([]string, 0, len(ddl))
	for k := range ddl {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		sqlText := strings.TrimSpace(ddl[k])
		if sqlText == "" {
			continue
		}
		for _, stmt := range splitStatements(sqlText) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				// pgx/stdlib возвращает *pgconn.PgError
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && (pgErr.Code == codeDuplicateObject || pgErr.Code == codeDuplicateTable) {
					log.Info("DDL skipped, already exists", "step", k, "object", pgErr.ConstraintName, "message", strings.TrimSpace(pgErr.Message))
					continue
				}
				return fmt.Errorf("DDL apply failed (%s): %w", k, err)
			}
		}
		log.Debug("DDL step applied", "step", k)
	}
	return nil
}

// splitStatements режет скрипт по ';' в конце строки.
// Генератор не пишет ';' внутри строк, кроме комментариев в кавычках — их не режем.
func splitStatements(script string) []string {
	var out []string
	var cur strings.Builder
	for _, line := range strings.Split(script, "\n") {
		cur.WriteString(line)
		cur.WriteString("\n")
		if strings.HasSuffix(strings.TrimSpace(line), ";") && balancedQuotes(cur.String()) {
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func balancedQuotes(s string) bool { return strings.Count(s, "'")%2 == 0 }
