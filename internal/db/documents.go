package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Document statuses
const (
	StatusProcessing = "Processing"
	StatusCompleted  = "Completed"
	StatusFailed     = "Failed"
)

// ErrNotFound is returned when a document does not exist
var ErrNotFound = errors.New("document not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id                UUID PRIMARY KEY,
	original_filename TEXT,
	stored_path       TEXT,
	upload_time       TIMESTAMPTZ NOT NULL DEFAULT now(),
	status            TEXT NOT NULL DEFAULT 'pending',
	error             TEXT
);
CREATE TABLE IF NOT EXISTS ocr_results (
	id             UUID PRIMARY KEY,
	document_id    UUID REFERENCES documents(id) ON DELETE CASCADE,
	extracted_text TEXT,
	confidence     DOUBLE PRECISION,
	page_count     INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	status         TEXT NOT NULL DEFAULT 'Extracted'
);
CREATE TABLE IF NOT EXISTS translations (
	id              UUID PRIMARY KEY,
	document_id     UUID REFERENCES documents(id) ON DELETE CASCADE,
	translated_text TEXT,
	model_used      TEXT,
	degraded_pages  INTEGER[] NOT NULL DEFAULT '{}',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	status          TEXT NOT NULL DEFAULT 'Completed'
);
CREATE INDEX IF NOT EXISTS idx_ocr_results_document ON ocr_results(document_id);
CREATE INDEX IF NOT EXISTS idx_translations_document ON translations(document_id);
`

// Document is a row of the documents table
type Document struct {
	ID               uuid.UUID `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	StoredPath       string    `json:"stored_path"`
	UploadTime       time.Time `json:"upload_time"`
	Status           string    `json:"status"`
	Error            string    `json:"error,omitempty"`
}

// OCRResult is a row of the ocr_results table
type OCRResult struct {
	ID            uuid.UUID `json:"id"`
	DocumentID    uuid.UUID `json:"document_id"`
	ExtractedText string    `json:"extracted_text"`
	Confidence    *float64  `json:"confidence,omitempty"`
	PageCount     int       `json:"page_count"`
	CreatedAt     time.Time `json:"created_at"`
	Status        string    `json:"status"`
}

// Translation is a row of the translations table
type Translation struct {
	ID             uuid.UUID `json:"id"`
	DocumentID     uuid.UUID `json:"document_id"`
	TranslatedText string    `json:"translated_text"`
	ModelUsed      string    `json:"model_used"`
	DegradedPages  []int32   `json:"degraded_pages"`
	CreatedAt      time.Time `json:"created_at"`
	Status         string    `json:"status"`
}

// DocumentDetail is a document with its latest OCR result and translation
type DocumentDetail struct {
	Document
	OCR         *OCRResult   `json:"ocr_result,omitempty"`
	Translation *Translation `json:"translation,omitempty"`
}

// EnsureSchema creates the tables if they are missing
func EnsureSchema(ctx context.Context) error {
	if _, err := Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// CreateDocument inserts a document in Processing state
func CreateDocument(ctx context.Context, doc *Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = StatusProcessing
	}
	query := `
		INSERT INTO documents (id, original_filename, stored_path, status)
		VALUES ($1, $2, $3, $4)
		RETURNING upload_time
	`
	return Pool.QueryRow(ctx, query,
		doc.ID, doc.OriginalFilename, doc.StoredPath, doc.Status,
	).Scan(&doc.UploadTime)
}

// UpdateDocumentStatus sets the status and, for failures, the error message
func UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status, errMsg string) error {
	tag, err := Pool.Exec(ctx,
		"UPDATE documents SET status = $1, error = NULLIF($2, '') WHERE id = $3",
		status, errMsg, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SaveResults stores the OCR result, the translation and the Completed
// document status in one transaction.
func SaveResults(ctx context.Context, res *OCRResult, tr *Translation) error {
	return pgx.BeginFunc(ctx, Pool, func(tx pgx.Tx) error {
		if err := insertOCRResult(ctx, tx, res); err != nil {
			return fmt.Errorf("insert ocr result: %w", err)
		}
		if err := insertTranslation(ctx, tx, tr); err != nil {
			return fmt.Errorf("insert translation: %w", err)
		}
		if _, err := tx.Exec(ctx, "UPDATE documents SET status = $1 WHERE id = $2", StatusCompleted, res.DocumentID); err != nil {
			return fmt.Errorf("update document status: %w", err)
		}
		return nil
	})
}

func insertOCRResult(ctx context.Context, q rowQuerier, res *OCRResult) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if res.Status == "" {
		res.Status = "Extracted"
	}
	query := `
		INSERT INTO ocr_results (id, document_id, extracted_text, confidence, page_count, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	return q.QueryRow(ctx, query,
		res.ID, res.DocumentID, res.ExtractedText, res.Confidence, res.PageCount, res.Status,
	).Scan(&res.CreatedAt)
}

func insertTranslation(ctx context.Context, q rowQuerier, tr *Translation) error {
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}
	if tr.Status == "" {
		tr.Status = StatusCompleted
	}
	if tr.DegradedPages == nil {
		tr.DegradedPages = []int32{}
	}
	query := `
		INSERT INTO translations (id, document_id, translated_text, model_used, degraded_pages, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	return q.QueryRow(ctx, query,
		tr.ID, tr.DocumentID, tr.TranslatedText, tr.ModelUsed, tr.DegradedPages, tr.Status,
	).Scan(&tr.CreatedAt)
}

// GetDocuments returns a page of documents, newest first, and the total count
func GetDocuments(ctx context.Context, limit, offset int) ([]Document, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := Pool.QueryRow(ctx, "SELECT COUNT(*) FROM documents").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := Pool.Query(ctx, `
		SELECT id, COALESCE(original_filename, ''), COALESCE(stored_path, ''),
		       upload_time, status, COALESCE(error, '')
		FROM documents
		ORDER BY upload_time DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.OriginalFilename, &d.StoredPath, &d.UploadTime, &d.Status, &d.Error); err != nil {
			return nil, 0, err
		}
		docs = append(docs, d)
	}
	return docs, total, rows.Err()
}

// GetDocument retrieves a single document row
func GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	var d Document
	err := Pool.QueryRow(ctx, `
		SELECT id, COALESCE(original_filename, ''), COALESCE(stored_path, ''),
		       upload_time, status, COALESCE(error, '')
		FROM documents WHERE id = $1
	`, id).Scan(&d.ID, &d.OriginalFilename, &d.StoredPath, &d.UploadTime, &d.Status, &d.Error)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDocumentDetail retrieves a document with its latest results
func GetDocumentDetail(ctx context.Context, id uuid.UUID) (*DocumentDetail, error) {
	doc, err := GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &DocumentDetail{Document: *doc}

	var res OCRResult
	err = Pool.QueryRow(ctx, `
		SELECT id, document_id, COALESCE(extracted_text, ''), confidence, page_count, created_at, status
		FROM ocr_results WHERE document_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, id).Scan(&res.ID, &res.DocumentID, &res.ExtractedText, &res.Confidence, &res.PageCount, &res.CreatedAt, &res.Status)
	switch {
	case err == nil:
		detail.OCR = &res
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, err
	}

	var tr Translation
	err = Pool.QueryRow(ctx, `
		SELECT id, document_id, COALESCE(translated_text, ''), COALESCE(model_used, ''),
		       degraded_pages, created_at, status
		FROM translations WHERE document_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, id).Scan(&tr.ID, &tr.DocumentID, &tr.TranslatedText, &tr.ModelUsed, &tr.DegradedPages, &tr.CreatedAt, &tr.Status)
	switch {
	case err == nil:
		detail.Translation = &tr
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, err
	}

	return detail, nil
}

// DeleteDocument removes a document; results go with it via ON DELETE CASCADE
func DeleteDocument(ctx context.Context, id uuid.UUID) error {
	tag, err := Pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
