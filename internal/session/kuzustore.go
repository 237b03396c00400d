//go:build cgo

package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/dusk-indust/surveynotes/internal/notes"
)

// KuzuStore implements Store on KuzuDB. Sessions and their sections are
// separate node tables joined by HAS_SECTION edges that carry the section
// position. It requires CGO because go-kuzu wraps KuzuDB's C library.
type KuzuStore struct {
	mu   sync.Mutex
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// kuzuDDL is executed on open. Node tables must precede relationship tables.
var kuzuDDL = []string{
	`CREATE NODE TABLE IF NOT EXISTS Session(
		id STRING,
		name STRING,
		transcript STRING,
		revision INT64,
		seq INT64,
		created_at STRING,
		updated_at STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Section(
		key STRING,
		name STRING,
		plain_text STRING,
		natural_language STRING,
		PRIMARY KEY(key)
	)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_SECTION(FROM Session TO Section, position INT64)`,
}

// NewKuzuStore opens a KuzuDB database at path (":memory:" for in-memory)
// and creates the schema if needed. KuzuDB creates the leaf directory itself.
func NewKuzuStore(path string) (*KuzuStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
		}
	}
	db, err := kuzu.OpenDatabase(path, kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}

	s := &KuzuStore{db: db, conn: conn}
	for _, stmt := range kuzuDDL {
		if _, err := s.query(stmt, nil); err != nil {
			s.Close()
			return nil, fmt.Errorf("kuzu: init schema: %w", err)
		}
	}
	return s, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

func (s *KuzuStore) Create(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.exists(sess.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrExists
	}
	return s.write(sess, false)
}

func (s *KuzuStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.query(
		`MATCH (s:Session {id: $id})
		 RETURN s.id, s.name, s.transcript, s.revision, s.created_at, s.updated_at`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	sess := rowToSession(rows[0])
	if sess.Sections, err = s.sections(id); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *KuzuStore) Put(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.exists(sess.ID)
	if err != nil {
		return err
	}
	return s.write(sess, exists)
}

func (s *KuzuStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.exists(id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	if err := s.deleteSections(id); err != nil {
		return err
	}
	return s.exec(`MATCH (s:Session {id: $id}) DETACH DELETE s`, map[string]any{"id": id})
}

func (s *KuzuStore) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.query(
		`MATCH (s:Session)
		 RETURN s.id, s.name, s.transcript, s.revision, s.created_at, s.updated_at
		 ORDER BY s.seq`,
		nil,
	)
	if err != nil {
		return nil, err
	}

	all := make([]Session, 0, len(rows))
	for _, r := range rows {
		sess := rowToSession(r)
		if sess.Sections, err = s.sections(sess.ID); err != nil {
			return nil, err
		}
		all = append(all, *sess)
	}
	return paginate(all, opts)
}

// write stores the session node and replaces its sections. Callers hold mu.
func (s *KuzuStore) write(sess Session, exists bool) error {
	params := map[string]any{
		"id":         sess.ID,
		"name":       sess.Name,
		"transcript": sess.Transcript,
		"revision":   int64(sess.Revision),
		"created":    formatTime(sess.CreatedAt),
		"updated":    formatTime(sess.UpdatedAt),
	}

	if exists {
		if err := s.exec(
			`MATCH (s:Session {id: $id})
			 SET s.name = $name, s.transcript = $transcript, s.revision = $revision,
			     s.created_at = $created, s.updated_at = $updated`,
			params,
		); err != nil {
			return err
		}
		if err := s.deleteSections(sess.ID); err != nil {
			return err
		}
	} else {
		seq, err := s.nextSeq()
		if err != nil {
			return err
		}
		params["seq"] = seq
		if err := s.exec(
			`CREATE (s:Session {id: $id, name: $name, transcript: $transcript, revision: $revision,
			                    seq: $seq, created_at: $created, updated_at: $updated})`,
			params,
		); err != nil {
			return err
		}
	}

	for i, sec := range sess.Sections {
		if err := s.exec(
			`MATCH (s:Session {id: $id})
			 CREATE (s)-[:HAS_SECTION {position: $pos}]->(:Section {key: $key, name: $name, plain_text: $plain, natural_language: $natural})`,
			map[string]any{
				"id":      sess.ID,
				"pos":     int64(i),
				"key":     fmt.Sprintf("%s/%d", sess.ID, i),
				"name":    sec.Name,
				"plain":   sec.PlainText,
				"natural": sec.NaturalLanguage,
			},
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *KuzuStore) sections(id string) ([]notes.Section, error) {
	rows, err := s.query(
		`MATCH (s:Session {id: $id})-[r:HAS_SECTION]->(x:Section)
		 RETURN x.name, x.plain_text, x.natural_language
		 ORDER BY r.position`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	out := make([]notes.Section, 0, len(rows))
	for _, r := range rows {
		out = append(out, notes.Section{
			Name:            toString(r[0]),
			PlainText:       toString(r[1]),
			NaturalLanguage: toString(r[2]),
		})
	}
	return out, nil
}

func (s *KuzuStore) deleteSections(id string) error {
	return s.exec(
		`MATCH (s:Session {id: $id})-[:HAS_SECTION]->(x:Section) DETACH DELETE x`,
		map[string]any{"id": id},
	)
}

func (s *KuzuStore) exists(id string) (bool, error) {
	rows, err := s.query(`MATCH (s:Session {id: $id}) RETURN s.id`, map[string]any{"id": id})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (s *KuzuStore) nextSeq() (int64, error) {
	rows, err := s.query(`MATCH (s:Session) RETURN count(s), max(s.seq)`, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || toInt(rows[0][0]) == 0 {
		return 1, nil
	}
	return int64(toInt(rows[0][1])) + 1, nil
}

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a Cypher statement and collects all result rows. Each row is a
// []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func rowToSession(r []any) *Session {
	return &Session{
		ID:         toString(r[0]),
		Name:       toString(r[1]),
		Transcript: toString(r[2]),
		Revision:   toInt(r[3]),
		CreatedAt:  parseTime(toString(r[4])),
		UpdatedAt:  parseTime(toString(r[5])),
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
