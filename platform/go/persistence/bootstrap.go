package persistence

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	sqlassets "github.com/ruidolp/newposter-sub002/database"
)

// BootstrapSchema applies the embedded DDL files in lexical order inside a
// single transaction. Every statement is idempotent so the helper can run on
// each deploy and in tests.
func BootstrapSchema(ctx context.Context, pool txBeginner) error {
	if pool == nil {
		return fmt.Errorf("bootstrap schema: pool is required")
	}

	statements, err := schemaStatements(sqlassets.Schema, sqlassets.SchemaDir)
	if err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func schemaStatements(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var statements []string
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		statements = append(statements, splitStatements(string(raw))...)
	}
	return statements, nil
}

// splitStatements splits on semicolons. The embedded DDL carries no function
// bodies, so no dollar quoting needs to be honored.
func splitStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if stmt := strings.TrimSpace(p); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
