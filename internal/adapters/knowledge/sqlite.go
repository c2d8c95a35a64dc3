// internal/adapters/knowledge/sqlite.go
package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"paperflow/internal/core/domain"
	"paperflow/internal/core/ports"
	"paperflow/internal/platform/errors"
)

// MemoryPath abre una base SQLite en memoria.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS papers (
	paper_id   TEXT PRIMARY KEY,
	arxiv_id   TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL,
	abstract   TEXT NOT NULL DEFAULT '',
	year       INTEGER NOT NULL DEFAULT 0,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_papers_arxiv ON papers(arxiv_id);
`

// SQLiteStore guarda papers ya descargados sobre SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.KnowledgeStore = (*SQLiteStore)(nil)

// OpenSQLite abre o crea la base en path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	const op = "knowledge.open"

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.E(errors.KindInternal, op, "create knowledge dir", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.E(errors.KindInternal, op, "open sqlite", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.E(errors.KindInternal, op, "create schema", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Insert implementa ports.KnowledgeStore. Un paper existente se reemplaza.
func (s *SQLiteStore) Insert(ctx context.Context, paper domain.Paper) error {
	const op = "knowledge.insert"

	if err := validatePaper(paper); err != nil {
		return err
	}

	data, err := json.Marshal(paper)
	if err != nil {
		return errors.E(errors.KindInternal, op, "encode paper", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO papers(paper_id, arxiv_id, title, abstract, year, data, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET
		   arxiv_id = excluded.arxiv_id,
		   title = excluded.title,
		   abstract = excluded.abstract,
		   year = excluded.year,
		   data = excluded.data,
		   updated_at = excluded.updated_at`,
		paper.PaperID, arxivKey(paper.ArxivID), paper.Title, paper.Abstract, paper.Year,
		string(data), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errors.E(errors.KindInternal, op, "upsert paper", err)
	}
	return nil
}

// Lookup implementa ports.KnowledgeStore.
func (s *SQLiteStore) Lookup(ctx context.Context, id string) (domain.Paper, bool, error) {
	const op = "knowledge.lookup"

	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Paper{}, false, nil
	}

	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM papers WHERE paper_id = ? OR (arxiv_id != '' AND arxiv_id = ?)
		 ORDER BY updated_at DESC LIMIT 1`,
		id, arxivKey(id),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Paper{}, false, nil
	}
	if err != nil {
		return domain.Paper{}, false, errors.E(errors.KindInternal, op, "query paper", err)
	}

	var p domain.Paper
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return domain.Paper{}, false, errors.E(errors.KindInternal, op, "decode paper", err)
	}
	return p, true, nil
}

// Search implementa ports.KnowledgeStore. Coincidencia parcial en título o
// abstract, sin distinguir mayúsculas; los más recientes primero.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]domain.Paper, error) {
	const op = "knowledge.search"

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM papers
		 WHERE title LIKE ? ESCAPE '\' OR abstract LIKE ? ESCAPE '\'
		 ORDER BY year DESC, title LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, errors.E(errors.KindInternal, op, "query papers", err)
	}
	defer rows.Close()

	var papers []domain.Paper
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, errors.E(errors.KindInternal, op, "scan paper", err)
		}
		var p domain.Paper
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, errors.E(errors.KindInternal, op, "decode paper", err)
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.E(errors.KindInternal, op, "iterate papers", err)
	}
	return papers, nil
}

// Close implementa ports.KnowledgeStore.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
