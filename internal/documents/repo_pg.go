package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"receipt-backend/internal/shared/storage/db"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var documentColumns = []string{
	"d.id",
	"d.owner_id",
	"d.title",
	"d.file_name",
	"d.mime_type",
	"d.extension",
	"d.category",
	"d.tags",
	"d.description",
	"d.latest_version_id",
	"d.created_at",
	"d.updated_at",
}

const versionColumns = `id, document_id, storage_key, checksum, size_bytes, extracted_text, extraction_meta, extracted_at, created_at`

const insertVersion = `
INSERT INTO document_versions (id, document_id, storage_key, checksum, size_bytes, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// CreateWithVersion inserts the document, its first version and the owner row
// in one transaction. The document row is written before the version so the
// foreign keys in both directions are satisfied.
func (r *PGRepo) CreateWithVersion(ctx context.Context, doc Document, version Version) error {
	if version.DocumentID != doc.ID || doc.LatestVersionID == nil || *doc.LatestVersionID != version.ID {
		return ErrInvalidInput
	}
	return db.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx db.DBTX) error {
		const insertDoc = `
INSERT INTO documents (id, owner_id, title, file_name, mime_type, extension, category, tags, description, latest_version_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL, $10, $11)`
		if _, err := tx.ExecContext(ctx, insertDoc,
			doc.ID,
			doc.OwnerID,
			doc.Title,
			doc.FileName,
			doc.MimeType,
			doc.Extension,
			nullString(doc.Category),
			doc.Tags,
			doc.Description,
			doc.CreatedAt,
			doc.UpdatedAt,
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertVersion,
			version.ID,
			version.DocumentID,
			version.StorageKey,
			version.Checksum,
			version.SizeBytes,
			version.CreatedAt,
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE documents SET latest_version_id = $2 WHERE id = $1`,
			doc.ID, version.ID,
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO user_documents (user_id, document_id, role, created_at) VALUES ($1, $2, $3, $4)`,
			doc.OwnerID, doc.ID, RoleOwner, doc.CreatedAt,
		)
		return err
	})
}

func (r *PGRepo) AddVersion(ctx context.Context, version Version) error {
	return db.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx db.DBTX) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id = $1 FOR UPDATE`, version.DocumentID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertVersion,
			version.ID,
			version.DocumentID,
			version.StorageKey,
			version.Checksum,
			version.SizeBytes,
			version.CreatedAt,
		); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE documents SET latest_version_id = $2, updated_at = $3 WHERE id = $1`,
			version.DocumentID, version.ID, version.CreatedAt,
		)
		return err
	})
}

func (r *PGRepo) Get(ctx context.Context, documentID string) (Document, error) {
	query, args, err := psql.Select(documentColumns...).
		From("documents d").
		Where(sq.Eq{"d.id": documentID}).
		ToSql()
	if err != nil {
		return Document{}, err
	}
	return scanDocument(r.DB.QueryRowContext(ctx, query, args...))
}

func (r *PGRepo) GetForOwner(ctx context.Context, ownerID, documentID string) (Document, error) {
	query, args, err := psql.Select(documentColumns...).
		From("documents d").
		Where(sq.Eq{"d.id": documentID, "d.owner_id": ownerID}).
		ToSql()
	if err != nil {
		return Document{}, err
	}
	return scanDocument(r.DB.QueryRowContext(ctx, query, args...))
}

func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	builder := psql.Select(documentColumns...).
		From("documents d").
		Where(sq.Eq{"d.owner_id": ownerID}).
		OrderBy("d.updated_at DESC", "d.created_at DESC")
	return r.queryDocuments(ctx, page(builder, limit, offset))
}

func (r *PGRepo) ListAll(ctx context.Context, limit, offset int) ([]Document, error) {
	builder := psql.Select(documentColumns...).
		From("documents d").
		OrderBy("d.created_at DESC")
	return r.queryDocuments(ctx, page(builder, limit, offset))
}

// Search matches against the latest version's extracted text only.
func (r *PGRepo) Search(ctx context.Context, ownerID string, filter SearchFilter) ([]Document, error) {
	filter = filter.Normalize()
	builder := psql.Select(documentColumns...).
		From("documents d").
		LeftJoin("document_versions v ON v.id = d.latest_version_id").
		Where(sq.Eq{"d.owner_id": ownerID})
	if filter.Category != "" {
		builder = builder.Where(sq.Eq{"d.category": filter.Category})
	}
	if filter.Tag != "" {
		builder = builder.Where(sq.ILike{"d.tags": likePattern(filter.Tag)})
	}
	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		builder = builder.Where(sq.Or{
			sq.ILike{"d.title": pattern},
			sq.Expr("COALESCE(d.category, '') ILIKE ?", pattern),
			sq.ILike{"d.tags": pattern},
			sq.Expr("COALESCE(v.extracted_text, '') ILIKE ?", pattern),
		})
	}
	builder = builder.OrderBy("d.updated_at DESC", "d.created_at DESC")
	return r.queryDocuments(ctx, page(builder, filter.Limit, filter.Offset))
}

func (r *PGRepo) Delete(ctx context.Context, documentID string) ([]Version, error) {
	var removed []Version
	err := db.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx db.DBTX) error {
		versions, err := listVersions(ctx, tx, documentID)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		removed = versions
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *PGRepo) GetVersion(ctx context.Context, versionID string) (Version, error) {
	query := `SELECT ` + versionColumns + ` FROM document_versions WHERE id = $1`
	var v Version
	err := scanVersion(r.DB.QueryRowContext(ctx, query, versionID), &v)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, ErrVersionNotFound
	}
	return v, err
}

func (r *PGRepo) ListVersions(ctx context.Context, documentID string) ([]Version, error) {
	return listVersions(ctx, r.DB, documentID)
}

func (r *PGRepo) RecordExtraction(ctx context.Context, versionID, text string, meta map[string]any, at time.Time) error {
	var encoded []byte
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		encoded = b
	}
	const query = `
UPDATE document_versions
SET extracted_text = $2, extraction_meta = $3, extracted_at = $4
WHERE id = $1 AND extracted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, versionID, text, encoded, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil || n > 0 {
		return err
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM document_versions WHERE id = $1)`, versionID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrVersionNotFound
	}
	return ErrAlreadyExtracted
}

func (r *PGRepo) SetCategory(ctx context.Context, documentID, category string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE documents SET category = $2, updated_at = $3 WHERE id = $1`,
		documentID, category, at,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Ownerships(ctx context.Context, documentID string) ([]Ownership, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT user_id, document_id, role, created_at FROM user_documents WHERE document_id = $1 ORDER BY created_at`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ownership
	for rows.Next() {
		var o Ownership
		if err := rows.Scan(&o.UserID, &o.DocumentID, &o.Role, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PGRepo) queryDocuments(ctx context.Context, builder sq.SelectBuilder) ([]Document, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func listVersions(ctx context.Context, q db.DBTX, documentID string) ([]Version, error) {
	query := `SELECT ` + versionColumns + ` FROM document_versions WHERE document_id = $1 ORDER BY created_at DESC`
	rows, err := q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Version{}
	for rows.Next() {
		var v Version
		if err := scanVersion(rows, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var doc Document
	var category sql.NullString
	var latest sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.Title,
		&doc.FileName,
		&doc.MimeType,
		&doc.Extension,
		&category,
		&doc.Tags,
		&doc.Description,
		&latest,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if category.Valid {
		doc.Category = &category.String
	}
	if latest.Valid {
		doc.LatestVersionID = &latest.String
	}
	return doc, nil
}

func scanVersion(row scanner, v *Version) error {
	var text sql.NullString
	var meta []byte
	var extractedAt sql.NullTime
	if err := row.Scan(
		&v.ID,
		&v.DocumentID,
		&v.StorageKey,
		&v.Checksum,
		&v.SizeBytes,
		&text,
		&meta,
		&extractedAt,
		&v.CreatedAt,
	); err != nil {
		return err
	}
	if text.Valid {
		v.ExtractedText = &text.String
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &v.ExtractionMeta); err != nil {
			return err
		}
	}
	if extractedAt.Valid {
		v.ExtractedAt = &extractedAt.Time
	}
	return nil
}

func page(builder sq.SelectBuilder, limit, offset int) sq.SelectBuilder {
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}
	return builder
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps term for a substring ILIKE, escaping wildcards.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
