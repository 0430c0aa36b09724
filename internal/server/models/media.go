package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MediaType tags the variant of a MediaItem.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeGame  MediaType = "game"
	MediaTypeMusic MediaType = "music"
	MediaTypeBook  MediaType = "book"
)

// ParseMediaType normalises user input to a canonical tag. Matching is case
// insensitive and accepts the labels used by the legacy web frontend
// ("Book", "Movie", "Music", "Video Game").
func ParseMediaType(s string) (MediaType, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch key {
	case "movie":
		return MediaTypeMovie, true
	case "game", "videogame":
		return MediaTypeGame, true
	case "music":
		return MediaTypeMusic, true
	case "book":
		return MediaTypeBook, true
	}
	return "", false
}

// Details is the type-specific payload of a MediaItem.
type Details interface {
	Kind() MediaType
}

type BookDetails struct {
	ISBN      string `json:"isbn,omitempty"`
	PageCount int    `json:"pageCount,omitempty"`
}

type MovieDetails struct {
	RunTimeMinutes int `json:"runTimeMinutes,omitempty"`
}

type MusicDetails struct {
	RunTimeMinutes int `json:"runTimeMinutes,omitempty"`
}

type GameDetails struct {
	Platform  string `json:"platform,omitempty"`
	Developer string `json:"developer,omitempty"`
}

func (BookDetails) Kind() MediaType  { return MediaTypeBook }
func (MovieDetails) Kind() MediaType { return MediaTypeMovie }
func (MusicDetails) Kind() MediaType { return MediaTypeMusic }
func (GameDetails) Kind() MediaType  { return MediaTypeGame }

// Fields is the flat view of every attribute a client may send for a media
// item, regardless of its type.
type Fields struct {
	Title          string
	Type           MediaType
	Creator        string
	Formats        []string
	Genre          string
	ReleaseYear    int
	UserRating     float64
	ISBN           string
	PageCount      int
	RunTimeMinutes int
	Platform       string
	Developer      string
}

// NewDetails picks the attributes of f that belong to type t. Unknown types
// yield nil.
func NewDetails(t MediaType, f Fields) Details {
	switch t {
	case MediaTypeBook:
		return BookDetails{ISBN: f.ISBN, PageCount: f.PageCount}
	case MediaTypeMovie:
		return MovieDetails{RunTimeMinutes: f.RunTimeMinutes}
	case MediaTypeMusic:
		return MusicDetails{RunTimeMinutes: f.RunTimeMinutes}
	case MediaTypeGame:
		return GameDetails{Platform: f.Platform, Developer: f.Developer}
	}
	return nil
}

// Extra holds type-specific attributes sent for an item whose type does not
// own them. They are stored and returned as given, and move back into
// Details when the item changes to a type that owns them.
type Extra struct {
	ISBN           string `json:"isbn,omitempty"`
	PageCount      int    `json:"pageCount,omitempty"`
	RunTimeMinutes int    `json:"runTimeMinutes,omitempty"`
	Platform       string `json:"platform,omitempty"`
	Developer      string `json:"developer,omitempty"`
}

func (e Extra) IsZero() bool { return e == Extra{} }

// NewExtra picks the attributes of f that type t does not own.
func NewExtra(t MediaType, f Fields) Extra {
	e := Extra{
		ISBN:           f.ISBN,
		PageCount:      f.PageCount,
		RunTimeMinutes: f.RunTimeMinutes,
		Platform:       f.Platform,
		Developer:      f.Developer,
	}
	switch t {
	case MediaTypeBook:
		e.ISBN, e.PageCount = "", 0
	case MediaTypeMovie, MediaTypeMusic:
		e.RunTimeMinutes = 0
	case MediaTypeGame:
		e.Platform, e.Developer = "", ""
	}
	return e
}

// detailsDoc is the stored form of the details column: the attributes of
// the item's own type at the top level, everything else under "extra".
type detailsDoc struct {
	ISBN           string `json:"isbn,omitempty"`
	PageCount      int    `json:"pageCount,omitempty"`
	RunTimeMinutes int    `json:"runTimeMinutes,omitempty"`
	Platform       string `json:"platform,omitempty"`
	Developer      string `json:"developer,omitempty"`
	Extra          *Extra `json:"extra,omitempty"`
}

// DecodeDetails parses a stored details document for type t.
func DecodeDetails(t MediaType, raw []byte) (Details, Extra, error) {
	if NewDetails(t, Fields{}) == nil {
		return nil, Extra{}, fmt.Errorf("unknown media type %q", t)
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var doc detailsDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, Extra{}, fmt.Errorf("decode %s details: %w", t, err)
	}

	d := NewDetails(t, Fields{
		ISBN:           doc.ISBN,
		PageCount:      doc.PageCount,
		RunTimeMinutes: doc.RunTimeMinutes,
		Platform:       doc.Platform,
		Developer:      doc.Developer,
	})
	var extra Extra
	if doc.Extra != nil {
		extra = *doc.Extra
	}
	return d, extra, nil
}

// EncodeDetails renders d and extra for storage; nil details and an empty
// extra encode as an empty object.
func EncodeDetails(d Details, extra Extra) ([]byte, error) {
	var doc detailsDoc
	switch v := d.(type) {
	case BookDetails:
		doc.ISBN, doc.PageCount = v.ISBN, v.PageCount
	case MovieDetails:
		doc.RunTimeMinutes = v.RunTimeMinutes
	case MusicDetails:
		doc.RunTimeMinutes = v.RunTimeMinutes
	case GameDetails:
		doc.Platform, doc.Developer = v.Platform, v.Developer
	}
	if !extra.IsZero() {
		doc.Extra = &extra
	}
	return json.Marshal(doc)
}

// MediaItem is a catalog record owned by exactly one user.
type MediaItem struct {
	ID          string
	OwnerID     string
	Title       string
	Type        MediaType
	Creator     string
	Formats     []string
	Genre       string
	ReleaseYear int
	UserRating  float64
	Details     Details
	Extra       Extra
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Fields flattens the item, including its type-specific details and the
// attributes kept in Extra.
func (m *MediaItem) Fields() Fields {
	f := Fields{
		Title:          m.Title,
		Type:           m.Type,
		Creator:        m.Creator,
		Formats:        m.Formats,
		Genre:          m.Genre,
		ReleaseYear:    m.ReleaseYear,
		UserRating:     m.UserRating,
		ISBN:           m.Extra.ISBN,
		PageCount:      m.Extra.PageCount,
		RunTimeMinutes: m.Extra.RunTimeMinutes,
		Platform:       m.Extra.Platform,
		Developer:      m.Extra.Developer,
	}
	switch d := m.Details.(type) {
	case BookDetails:
		f.ISBN, f.PageCount = d.ISBN, d.PageCount
	case MovieDetails:
		f.RunTimeMinutes = d.RunTimeMinutes
	case MusicDetails:
		f.RunTimeMinutes = d.RunTimeMinutes
	case GameDetails:
		f.Platform, f.Developer = d.Platform, d.Developer
	}
	return f
}

// Apply overwrites every attribute from f. Attributes owned by f.Type go to
// Details, the rest to Extra.
func (m *MediaItem) Apply(f Fields) {
	m.Title = f.Title
	m.Type = f.Type
	m.Creator = f.Creator
	m.Formats = f.Formats
	m.Genre = f.Genre
	m.ReleaseYear = f.ReleaseYear
	m.UserRating = f.UserRating
	m.Details = NewDetails(f.Type, f)
	m.Extra = NewExtra(f.Type, f)
}

type mediaItemJSON struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"ownerId"`
	Title          string    `json:"title"`
	Type           MediaType `json:"mediaType"`
	Creator        string    `json:"creator"`
	Formats        []string  `json:"formats"`
	Genre          string    `json:"genre,omitempty"`
	ReleaseYear    int       `json:"releaseYear,omitempty"`
	UserRating     float64   `json:"userRating,omitempty"`
	ISBN           string    `json:"isbn,omitempty"`
	PageCount      int       `json:"pageCount,omitempty"`
	RunTimeMinutes int       `json:"runTimeMinutes,omitempty"`
	Platform       string    `json:"platform,omitempty"`
	Developer      string    `json:"developer,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// MarshalJSON renders the flat wire form used by the HTTP API.
func (m MediaItem) MarshalJSON() ([]byte, error) {
	f := m.Fields()
	formats := f.Formats
	if formats == nil {
		formats = []string{}
	}
	return json.Marshal(mediaItemJSON{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		Title:          f.Title,
		Type:           f.Type,
		Creator:        f.Creator,
		Formats:        formats,
		Genre:          f.Genre,
		ReleaseYear:    f.ReleaseYear,
		UserRating:     f.UserRating,
		ISBN:           f.ISBN,
		PageCount:      f.PageCount,
		RunTimeMinutes: f.RunTimeMinutes,
		Platform:       f.Platform,
		Developer:      f.Developer,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	})
}

func (m *MediaItem) UnmarshalJSON(b []byte) error {
	var v mediaItemJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	m.ID = v.ID
	m.OwnerID = v.OwnerID
	m.CreatedAt = v.CreatedAt
	m.UpdatedAt = v.UpdatedAt
	m.Apply(Fields{
		Title:          v.Title,
		Type:           v.Type,
		Creator:        v.Creator,
		Formats:        v.Formats,
		Genre:          v.Genre,
		ReleaseYear:    v.ReleaseYear,
		UserRating:     v.UserRating,
		ISBN:           v.ISBN,
		PageCount:      v.PageCount,
		RunTimeMinutes: v.RunTimeMinutes,
		Platform:       v.Platform,
		Developer:      v.Developer,
	})
	return nil
}
