// Package store is the channel repository on Postgres. Each channel is one
// row; its episode list is a single jsonb document owned wholesale by the
// updater.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // The database driver

	"casterd/internal/apperr"
	"casterd/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS channels (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL DEFAULT '',
	url              TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	summary          TEXT NOT NULL DEFAULT '',
	thumbnail        TEXT NOT NULL DEFAULT '',
	author           TEXT NOT NULL DEFAULT '',
	copyright        TEXT NOT NULL DEFAULT '',
	owner            JSONB,
	language         TEXT NOT NULL DEFAULT '',
	type             TEXT NOT NULL DEFAULT '',
	category         TEXT,
	content_type     TEXT,
	publisher        TEXT,
	host             TEXT,
	tags             TEXT[] NOT NULL DEFAULT '{}',
	external_rss_url TEXT NOT NULL DEFAULT '',
	added_at         TIMESTAMPTZ NOT NULL,
	last_update      TIMESTAMPTZ,
	videos           JSONB NOT NULL DEFAULT '[]'
)`

const channelColumns = `id, title, url, description, summary, thumbnail, author, copyright,
	owner, language, type, category, content_type, publisher, host, tags,
	external_rss_url, added_at, last_update, videos`

// Store wraps the database handle with channel repository operations.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// New wraps an existing connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open connects to Postgres, verifies the connection and ensures the schema.
func Open(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return New(db), nil
}

// Get returns the channel with the given id.
func (s *Store) Get(ctx context.Context, id string) (*models.Channel, error) {
	var ch models.Channel
	err := s.db.GetContext(ctx, &ch, `SELECT `+channelColumns+` FROM channels WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{Kind: "channel", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetAll returns every channel, most recently added first.
func (s *Store) GetAll(ctx context.Context) ([]models.Channel, error) {
	var channels []models.Channel
	err := s.db.SelectContext(ctx, &channels,
		`SELECT `+channelColumns+` FROM channels ORDER BY added_at DESC`)
	if err != nil {
		return nil, err
	}
	return channels, nil
}

// InsertIfAbsent creates the channel unless one with the same id already
// exists, and returns the stored record either way. Re-adding an existing id
// is a no-op returning the existing record, which makes concurrent duplicate
// adds converge on the first writer.
func (s *Store) InsertIfAbsent(ctx context.Context, ch *models.Channel) (*models.Channel, error) {
	if ch.ID == "" {
		return nil, &apperr.ValidationError{Field: "id", Reason: "must not be empty"}
	}
	addedAt := ch.AddedAt
	if addedAt.IsZero() {
		addedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channels (`+channelColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO NOTHING`,
		ch.ID, ch.Title, ch.URL, ch.Description, ch.Summary, ch.Thumbnail,
		ch.Author, ch.Copyright, ownerValue(ch.Owner), ch.Language, ch.Type,
		ch.Category, ch.ContentType, ch.Publisher, ch.Host, ch.Tags,
		ch.ExternalRSSURL, addedAt, nil, ch.Videos)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, ch.ID)
}

// ReplaceEpisodes overwrites the channel's episode list and stamps
// last_update.
func (s *Store) ReplaceEpisodes(ctx context.Context, id string, episodes []models.Episode) (*models.Channel, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE channels SET videos = $1, last_update = $2 WHERE id = $3`,
		models.EpisodeList(episodes), s.now().UTC(), id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &apperr.NotFoundError{Kind: "channel", ID: id}
	}
	return s.Get(ctx, id)
}

// Delete removes the channel. It reports false when the id was unknown.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM channels WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ownerValue keeps a nil owner as SQL NULL instead of the string "null".
func ownerValue(o *models.Owner) interface{} {
	if o == nil {
		return nil
	}
	return *o
}
