// Package media provides the PostgreSQL-backed catalog store. Base
// attributes live in columns, the type-specific payload in a JSONB document.
package media

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediashelf/internal/common"
	"github.com/dmitrijs2005/mediashelf/internal/dbx"
	"github.com/dmitrijs2005/mediashelf/internal/server/models"
	"github.com/google/uuid"
)

const selectColumns = `id, owner_id, title, media_type, creator, formats, genre, release_year, user_rating, details, created_at, updated_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts item and fills in the generated id and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, item *models.MediaItem) (*models.MediaItem, error) {
	formats, details, err := encodeDocuments(item)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO media (owner_id, title, media_type, creator, formats, genre, release_year, user_rating, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		item.OwnerID, item.Title, string(item.Type), item.Creator, formats,
		item.Genre, item.ReleaseYear, item.UserRating, details,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

// GetByID returns the item with the given id regardless of owner. Ids that
// are not UUIDs cannot exist and yield common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.MediaItem, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM media WHERE id = $1`, id)
}

// GetForUpdate is GetByID with a row lock; use it inside a transaction.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.MediaItem, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM media WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, id string) (*models.MediaItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

// Update writes every mutable attribute of item. The row must belong to
// item.OwnerID, otherwise common.ErrorNotFound is returned.
func (r *PostgresRepository) Update(ctx context.Context, item *models.MediaItem) (*models.MediaItem, error) {
	formats, details, err := encodeDocuments(item)
	if err != nil {
		return nil, err
	}

	query :=
		`UPDATE media
		 SET title = $1, media_type = $2, creator = $3, formats = $4, genre = $5,
		     release_year = $6, user_rating = $7, details = $8, updated_at = now()
		 WHERE id = $9 AND owner_id = $10
		 RETURNING updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		item.Title, string(item.Type), item.Creator, formats, item.Genre,
		item.ReleaseYear, item.UserRating, details, item.ID, item.OwnerID,
	).Scan(&item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

// Delete removes the item only if it belongs to ownerID. Nothing deleted
// yields common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// Search returns the owner's items of the given type, oldest first. A
// non-empty term narrows the result to items whose title, creator or genre
// contains it, ignoring case. The result is never nil.
func (r *PostgresRepository) Search(ctx context.Context, ownerID string, mediaType models.MediaType, term string) ([]*models.MediaItem, error) {
	query := `SELECT ` + selectColumns + ` FROM media WHERE owner_id = $1 AND media_type = $2`
	args := []any{ownerID, string(mediaType)}

	if term != "" {
		query += ` AND (title ILIKE $3 ESCAPE '\' OR creator ILIKE $3 ESCAPE '\' OR genre ILIKE $3 ESCAPE '\')`
		args = append(args, "%"+EscapeLike(term)+"%")
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.MediaItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes s match literally inside a LIKE pattern.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.MediaItem, error) {
	var (
		item      models.MediaItem
		mediaType string
		formats   []byte
		details   []byte
	)
	if err := s.Scan(
		&item.ID, &item.OwnerID, &item.Title, &mediaType, &item.Creator, &formats,
		&item.Genre, &item.ReleaseYear, &item.UserRating, &details, &item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return nil, err
	}

	item.Type = models.MediaType(mediaType)
	if err := json.Unmarshal(formats, &item.Formats); err != nil {
		return nil, fmt.Errorf("decode formats: %w", err)
	}
	if item.Formats == nil {
		item.Formats = []string{}
	}
	d, extra, err := models.DecodeDetails(item.Type, details)
	if err != nil {
		return nil, err
	}
	item.Details, item.Extra = d, extra

	return &item, nil
}

func encodeDocuments(item *models.MediaItem) (string, string, error) {
	f := item.Formats
	if f == nil {
		f = []string{}
	}
	formats, err := json.Marshal(f)
	if err != nil {
		return "", "", fmt.Errorf("encode formats: %w", err)
	}
	details, err := models.EncodeDetails(item.Details, item.Extra)
	if err != nil {
		return "", "", fmt.Errorf("encode details: %w", err)
	}
	return string(formats), string(details), nil
}
