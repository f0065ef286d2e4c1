package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/coursemap/internal/apperrors"
	"github.com/dgallion1/coursemap/internal/knowledge"
	"github.com/dgallion1/coursemap/internal/structure"
)

// Document is an uploaded source document.
type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	FileType    string    `json:"fileType"`
	ContentHash string    `json:"contentHash"`
	PageCount   int       `json:"pageCount"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Ref is the document reference carried by knowledge maps.
func (d Document) Ref() knowledge.DocRef {
	return knowledge.DocRef{ID: d.ID, Name: d.Name, UploadedAt: d.UploadedAt}
}

const documentColumns = `id, name, file_type, content_hash, page_count, uploaded_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) SaveDocument(ctx context.Context, d Document) error {
	return insertDocument(ctx, s.db, d)
}

func insertDocument(ctx context.Context, ex execer, d Document) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.FileType, d.ContentHash, d.PageCount, formatTime(d.UploadedAt))
	if isConstraint(err) {
		return fmt.Errorf("document %q: %w", d.ID, apperrors.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var d Document
	var uploaded string
	if err := row.Scan(&d.ID, &d.Name, &d.FileType, &d.ContentHash, &d.PageCount, &uploaded); err != nil {
		return Document{}, err
	}
	t, err := parseTime(uploaded)
	if err != nil {
		return Document{}, err
	}
	d.UploadedAt = t
	return d, nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (Document, error) {
	d, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("document %q: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// FindDocumentByHash returns the earliest document with the given content hash.
func (s *Store) FindDocumentByHash(ctx context.Context, hash string) (Document, error) {
	d, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE content_hash = ? ORDER BY uploaded_at LIMIT 1`, hash))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("document with hash %s: %w", hash, apperrors.ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("find document: %w", err)
	}
	return d, nil
}

// ListDocuments returns documents newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY uploaded_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document and everything derived from it.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %q: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// SaveStructure stores (or replaces) the analysis result for a document.
func (s *Store) SaveStructure(ctx context.Context, docID string, res structure.Result, at time.Time) error {
	return upsertStructure(ctx, s.db, docID, res, at)
}

// SaveAnalysis stores a new document together with its analysis result in
// one transaction. Either both rows are written or neither is.
func (s *Store) SaveAnalysis(ctx context.Context, d Document, res structure.Result, at time.Time) error {
	return s.RunTx(ctx, func(tx *Tx) error {
		if err := insertDocument(ctx, tx.tx, d); err != nil {
			return err
		}
		return upsertStructure(ctx, tx.tx, d.ID, res, at)
	})
}

func upsertStructure(ctx context.Context, ex execer, docID string, res structure.Result, at time.Time) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal structure: %w", err)
	}
	_, err = ex.ExecContext(ctx,
		`INSERT INTO structures (document_id, result, fallback_used, analyzed_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(document_id) DO UPDATE SET result = excluded.result,
		   fallback_used = excluded.fallback_used, analyzed_at = excluded.analyzed_at`,
		docID, string(raw), res.Metadata.FallbackUsed, formatTime(at))
	if isConstraint(err) {
		return fmt.Errorf("document %q: %w", docID, apperrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("save structure: %w", err)
	}
	return nil
}

func (s *Store) GetStructure(ctx context.Context, docID string) (structure.Result, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT result FROM structures WHERE document_id = ?`, docID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return structure.Result{}, fmt.Errorf("structure for %q: %w", docID, apperrors.ErrNotFound)
	}
	if err != nil {
		return structure.Result{}, fmt.Errorf("get structure: %w", err)
	}
	var res structure.Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return structure.Result{}, fmt.Errorf("decode structure: %w", err)
	}
	return res, nil
}
