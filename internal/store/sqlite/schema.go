package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) ensureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS entities (
		ordinal     INTEGER PRIMARY KEY,
		id          TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		CONSTRAINT uq_entity_id UNIQUE (id)
	);

	-- object_value is left untyped so numbers stay numbers.
	CREATE TABLE IF NOT EXISTS triples (
		seq          INTEGER PRIMARY KEY AUTOINCREMENT,
		subject      INTEGER NOT NULL REFERENCES entities(ordinal),
		relation     TEXT NOT NULL,
		object_ref   INTEGER REFERENCES entities(ordinal),
		object_value,
		object_type  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entities_type ON entities (entity_type);
	CREATE INDEX IF NOT EXISTS idx_triples_subject ON triples (subject);
	CREATE INDEX IF NOT EXISTS idx_triples_relation ON triples (relation);
	CREATE INDEX IF NOT EXISTS idx_triples_object_ref ON triples (object_ref);
	CREATE INDEX IF NOT EXISTS idx_triples_subject_relation ON triples (subject, relation);

	-- Text-valued triples, keyed by triples.seq.
	CREATE VIRTUAL TABLE IF NOT EXISTS triples_fts USING fts5(
		relation,
		text
	);
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	statements := splitStatements(ddl)
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}

	return statements
}
