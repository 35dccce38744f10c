// Package index implements full-text search over hive documents.
//
// It uses SQLite with FTS5 to index plan, task spec/report, and context
// documents. The index is derived state: it is rebuilt wholesale from
// the document store and can always be deleted safely. It is an
// optional subsystem — if SQLite fails to open, the server runs without
// search.
package index

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/openchamber/hive/internal/hive"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Doc kinds indexed per feature.
const (
	KindPlan    = "plan"
	KindSpec    = "spec"
	KindReport  = "report"
	KindContext = "context"
)

// Result is one search hit. Name is the task folder or context filename
// the content came from (empty for plans).
type Result struct {
	Feature string  `json:"feature"`
	Kind    string  `json:"kind"`
	Name    string  `json:"name,omitempty"`
	Snippet string  `json:"snippet"`
	Rank    float64 `json:"rank"`
}

// Index is the FTS5-backed document index.
type Index struct {
	db *sql.DB
}

// Open creates or opens the index database at path. Use ":memory:" for
// a throwaway index.
func Open(path string) (*Index, error) {
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("index: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("index: pragma %q: %w", p, err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS docs (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			feature TEXT NOT NULL,
			kind    TEXT NOT NULL,
			name    TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL
		);

		CREATE VIRTUAL TABLE IF NOT EXISTS docs_fts USING fts5(
			feature,
			kind,
			name,
			content,
			content='docs',
			content_rowid='id'
		);

		CREATE TRIGGER IF NOT EXISTS docs_fts_insert AFTER INSERT ON docs BEGIN
			INSERT INTO docs_fts(rowid, feature, kind, name, content)
			VALUES (new.id, new.feature, new.kind, new.name, new.content);
		END;
		CREATE TRIGGER IF NOT EXISTS docs_fts_delete AFTER DELETE ON docs BEGIN
			INSERT INTO docs_fts(docs_fts, rowid, feature, kind, name, content)
			VALUES ('delete', old.id, old.feature, old.kind, old.name, old.content);
		END;
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("index: schema: %w", err)
	}

	return &Index{db: db}, nil
}

// Close closes the underlying database connection.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Rebuild replaces the entire index with the current contents of the
// hive at root. Features or documents that fail to read are skipped —
// the index is best-effort derived state.
func (ix *Index) Rebuild(root string, store *hive.Store) error {
	tx, err := ix.db.Begin()
	if err != nil {
		return fmt.Errorf("index: begin rebuild: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM docs"); err != nil {
		return fmt.Errorf("index: clear: %w", err)
	}

	insert := func(feature, kind, name, content string) error {
		if strings.TrimSpace(content) == "" {
			return nil
		}
		_, err := tx.Exec(
			"INSERT INTO docs (feature, kind, name, content) VALUES (?, ?, ?, ?)",
			feature, kind, name, content,
		)
		return err
	}

	for _, feature := range store.ListFeatures(root) {
		if plan := store.GetPlan(root, feature.Name); plan != nil {
			if err := insert(feature.Name, KindPlan, "", plan.Content); err != nil {
				return fmt.Errorf("index: plan for %s: %w", feature.Name, err)
			}
		}

		for _, task := range store.ListTasks(root, feature.Name) {
			detail, err := store.GetTask(root, feature.Name, task.Folder)
			if err != nil {
				continue
			}
			if detail.Spec != nil {
				if err := insert(feature.Name, KindSpec, task.Folder, *detail.Spec); err != nil {
					return fmt.Errorf("index: spec for %s/%s: %w", feature.Name, task.Folder, err)
				}
			}
			if detail.Report != nil {
				if err := insert(feature.Name, KindReport, task.Folder, *detail.Report); err != nil {
					return fmt.Errorf("index: report for %s/%s: %w", feature.Name, task.Folder, err)
				}
			}
		}

		for _, file := range store.ListContextFiles(root, feature.Name) {
			content, ok := store.GetContextFile(root, feature.Name, file.Name)
			if !ok {
				continue
			}
			if err := insert(feature.Name, KindContext, file.Name, content); err != nil {
				return fmt.Errorf("index: context %s/%s: %w", feature.Name, file.Name, err)
			}
		}
	}

	return tx.Commit()
}

// Search runs an FTS5 match over the index and returns up to limit
// results ordered by rank. An empty query returns no results.
func (ix *Index) Search(query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		return []Result{}, nil
	}

	rows, err := ix.db.Query(`
		SELECT d.feature, d.kind, d.name,
		       snippet(docs_fts, 3, '', '', '…', 16),
		       fts.rank
		FROM docs_fts fts
		JOIN docs d ON d.id = fts.rowid
		WHERE docs_fts MATCH ?
		ORDER BY fts.rank
		LIMIT ?
	`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := []Result{}
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Feature, &r.Kind, &r.Name, &r.Snippet, &r.Rank); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// sanitizeFTS quotes each term so user input cannot inject FTS5 query
// syntax.
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		w = strings.Trim(w, `"`)
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " ")
}
