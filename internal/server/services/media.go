package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediashelf/internal/common"
	"github.com/dmitrijs2005/mediashelf/internal/dbx"
	"github.com/dmitrijs2005/mediashelf/internal/logging"
	"github.com/dmitrijs2005/mediashelf/internal/server/cache"
	"github.com/dmitrijs2005/mediashelf/internal/server/models"
	"github.com/dmitrijs2005/mediashelf/internal/server/repositories/repomanager"
)

// MediaInput carries every attribute of a new item. Attributes that do not
// belong to MediaType are kept in the item's Extra.
type MediaInput struct {
	Title          string   `json:"title" validate:"required"`
	MediaType      string   `json:"mediaType" validate:"required"`
	Creator        string   `json:"creator" validate:"required"`
	Formats        []string `json:"formats"`
	Genre          string   `json:"genre"`
	ReleaseYear    int      `json:"releaseYear" validate:"gte=0"`
	UserRating     float64  `json:"userRating"`
	ISBN           string   `json:"isbn"`
	PageCount      int      `json:"pageCount" validate:"gte=0"`
	RunTimeMinutes int      `json:"runTimeMinutes" validate:"gte=0"`
	Platform       string   `json:"platform"`
	Developer      string   `json:"developer"`
}

// MediaPatch is a partial update; nil fields keep their stored value.
type MediaPatch struct {
	Title          *string   `json:"title"`
	MediaType      *string   `json:"mediaType"`
	Creator        *string   `json:"creator"`
	Formats        *[]string `json:"formats"`
	Genre          *string   `json:"genre"`
	ReleaseYear    *int      `json:"releaseYear"`
	UserRating     *float64  `json:"userRating"`
	ISBN           *string   `json:"isbn"`
	PageCount      *int      `json:"pageCount"`
	RunTimeMinutes *int      `json:"runTimeMinutes"`
	Platform       *string   `json:"platform"`
	Developer      *string   `json:"developer"`
}

// MediaService is the owner-scoped catalog. Every operation takes the
// caller id established by the access gate; ids from request bodies are
// never consulted.
type MediaService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       cache.SearchCache
	log         logging.Logger
}

func NewMediaService(db *sql.DB, m repomanager.RepositoryManager, c cache.SearchCache, log logging.Logger) *MediaService {
	if c == nil {
		c = cache.Nop{}
	}
	return &MediaService{db: db, repomanager: m, cache: c, log: log.With("module", "media")}
}

// Add stores a new item owned by ownerID.
func (s *MediaService) Add(ctx context.Context, ownerID string, in MediaInput) (*models.MediaItem, error) {
	f, err := in.fields()
	if err != nil {
		return nil, err
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, validationError("owner does not exist")
		}
		return nil, fmt.Errorf("error loading owner: %w", err)
	}

	item := &models.MediaItem{OwnerID: ownerID}
	item.Apply(f)

	created, err := s.repomanager.Media(s.db).Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("error creating media: %w", err)
	}

	s.invalidate(ctx, ownerID)
	s.log.Info(ctx, "media added", "media_id", created.ID, "owner_id", ownerID)
	return created, nil
}

// Get returns one item of the caller.
func (s *MediaService) Get(ctx context.Context, mediaID, callerID string) (*models.MediaItem, error) {
	if strings.TrimSpace(mediaID) == "" {
		return nil, validationError("mediaId is required")
	}
	return s.owned(ctx, s.db, mediaID, callerID, false)
}

// Delete removes one item of the caller. Deleting an item twice yields
// common.ErrorNotFound the second time.
func (s *MediaService) Delete(ctx context.Context, mediaID, callerID string) error {
	if strings.TrimSpace(mediaID) == "" {
		return validationError("mediaId is required")
	}
	if _, err := s.owned(ctx, s.db, mediaID, callerID, false); err != nil {
		return err
	}

	if err := s.repomanager.Media(s.db).Delete(ctx, mediaID, callerID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: media not found", common.ErrorNotFound)
		}
		return fmt.Errorf("error deleting media: %w", err)
	}

	s.invalidate(ctx, callerID)
	s.log.Info(ctx, "media deleted", "media_id", mediaID, "owner_id", callerID)
	return nil
}

// Update applies patch to one item of the caller inside a transaction that
// holds the row lock. On any error the stored item is left untouched.
func (s *MediaService) Update(ctx context.Context, mediaID, callerID string, patch MediaPatch) (*models.MediaItem, error) {
	if strings.TrimSpace(mediaID) == "" {
		return nil, validationError("mediaId is required")
	}

	var updated *models.MediaItem
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		item, err := s.owned(ctx, tx, mediaID, callerID, true)
		if err != nil {
			return err
		}

		in := inputFromFields(item.Fields())
		patch.overlay(&in)
		f, err := in.fields()
		if err != nil {
			return err
		}
		item.Apply(f)

		updated, err = s.repomanager.Media(tx).Update(ctx, item)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: media not found", common.ErrorNotFound)
			}
			return fmt.Errorf("error updating media: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, callerID)
	s.log.Info(ctx, "media updated", "media_id", mediaID, "owner_id", callerID)
	return updated, nil
}

// Search lists the caller's items of one type, optionally narrowed by a
// case-insensitive substring of title, creator or genre.
func (s *MediaService) Search(ctx context.Context, callerID, mediaType, term string) ([]*models.MediaItem, error) {
	if strings.TrimSpace(mediaType) == "" {
		return nil, validationError("mediaType is required")
	}
	t, ok := models.ParseMediaType(mediaType)
	if !ok {
		return nil, validationError(fmt.Sprintf("unknown mediaType %q", mediaType))
	}
	term = strings.TrimSpace(term)

	key, err := s.cache.SearchKey(ctx, callerID, t, term)
	if err != nil {
		s.log.Warn(ctx, "search cache unavailable", "error", err)
		key = ""
	}
	if key != "" {
		items, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn(ctx, "search cache read failed", "error", err)
		} else if hit {
			return items, nil
		}
	}

	items, err := s.repomanager.Media(s.db).Search(ctx, callerID, t, term)
	if err != nil {
		return nil, fmt.Errorf("error searching media: %w", err)
	}
	if items == nil {
		items = []*models.MediaItem{}
	}

	if key != "" {
		if err := s.cache.Put(ctx, key, items); err != nil {
			s.log.Warn(ctx, "search cache write failed", "error", err)
		}
	}
	return items, nil
}

// owned loads an item and checks it belongs to callerID.
func (s *MediaService) owned(ctx context.Context, db dbx.DBTX, mediaID, callerID string, lock bool) (*models.MediaItem, error) {
	repo := s.repomanager.Media(db)

	var (
		item *models.MediaItem
		err  error
	)
	if lock {
		item, err = repo.GetForUpdate(ctx, mediaID)
	} else {
		item, err = repo.GetByID(ctx, mediaID)
	}
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: media not found", common.ErrorNotFound)
		}
		return nil, fmt.Errorf("error loading media: %w", err)
	}

	if item.OwnerID != callerID {
		return nil, fmt.Errorf("%w: media belongs to another user", common.ErrorForbidden)
	}
	return item, nil
}

// invalidate bumps the owner's cache generation. On failure the write stands
// and searches may serve pre-write results until SearchCacheTTL runs out.
func (s *MediaService) invalidate(ctx context.Context, ownerID string) {
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.log.Warn(ctx, "search cache invalidation failed", "owner_id", ownerID, "error", err)
	}
}

// fields validates the input and normalises it.
func (in MediaInput) fields() (models.Fields, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Creator = strings.TrimSpace(in.Creator)
	in.MediaType = strings.TrimSpace(in.MediaType)
	if err := validateStruct(in); err != nil {
		return models.Fields{}, err
	}

	t, ok := models.ParseMediaType(in.MediaType)
	if !ok {
		return models.Fields{}, validationError(fmt.Sprintf("unknown mediaType %q", in.MediaType))
	}

	formats := make([]string, 0, len(in.Formats))
	for _, f := range in.Formats {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}

	return models.Fields{
		Title:          in.Title,
		Type:           t,
		Creator:        in.Creator,
		Formats:        formats,
		Genre:          strings.TrimSpace(in.Genre),
		ReleaseYear:    in.ReleaseYear,
		UserRating:     in.UserRating,
		ISBN:           strings.TrimSpace(in.ISBN),
		PageCount:      in.PageCount,
		RunTimeMinutes: in.RunTimeMinutes,
		Platform:       strings.TrimSpace(in.Platform),
		Developer:      strings.TrimSpace(in.Developer),
	}, nil
}

func inputFromFields(f models.Fields) MediaInput {
	return MediaInput{
		Title:          f.Title,
		MediaType:      string(f.Type),
		Creator:        f.Creator,
		Formats:        f.Formats,
		Genre:          f.Genre,
		ReleaseYear:    f.ReleaseYear,
		UserRating:     f.UserRating,
		ISBN:           f.ISBN,
		PageCount:      f.PageCount,
		RunTimeMinutes: f.RunTimeMinutes,
		Platform:       f.Platform,
		Developer:      f.Developer,
	}
}

func (p MediaPatch) overlay(in *MediaInput) {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}

	setString(&in.Title, p.Title)
	setString(&in.MediaType, p.MediaType)
	setString(&in.Creator, p.Creator)
	setString(&in.Genre, p.Genre)
	setString(&in.ISBN, p.ISBN)
	setString(&in.Platform, p.Platform)
	setString(&in.Developer, p.Developer)
	setInt(&in.ReleaseYear, p.ReleaseYear)
	setInt(&in.PageCount, p.PageCount)
	setInt(&in.RunTimeMinutes, p.RunTimeMinutes)
	if p.Formats != nil {
		in.Formats = *p.Formats
	}
	if p.UserRating != nil {
		in.UserRating = *p.UserRating
	}
}
