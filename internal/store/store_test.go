package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casterd/internal/apperr"
	"casterd/internal/models"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { mockDb.Close() })
	return New(sqlx.NewDb(mockDb, "sqlmock")), mock
}

func channelRow(id string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "url", "description", "summary", "thumbnail", "author", "copyright",
		"owner", "language", "type", "category", "content_type", "publisher", "host", "tags",
		"external_rss_url", "added_at", "last_update", "videos",
	}).AddRow(
		id, "My Show", "https://example.com", "", "", "", "Alice", "",
		nil, "ko", models.TypePodbbang, nil, nil, nil, nil, []byte("{}"),
		"", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil, []byte(`[{"id":"ep1","title":"One","url":"","duration":0}]`),
	)
}

func TestGet(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectQuery(`(?s)SELECT .+ FROM channels WHERE id = \$1`).
		WithArgs("podbbang_123").
		WillReturnRows(channelRow("podbbang_123"))

	ch, err := st.Get(context.Background(), "podbbang_123")
	require.NoError(t, err)
	assert.Equal(t, "My Show", ch.Title)
	require.Len(t, ch.Videos, 1)
	assert.Equal(t, "ep1", ch.Videos[0].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_UnknownID(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectQuery(`(?s)SELECT .+ FROM channels WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := st.Get(context.Background(), "missing")
	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.ID)
}

func TestInsertIfAbsent_EmptyID(t *testing.T) {
	st, _ := newTestStore(t)

	_, err := st.InsertIfAbsent(context.Background(), &models.Channel{})
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "id", validation.Field)
}

func TestInsertIfAbsent_ReturnsStoredRecord(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectExec(`INSERT INTO channels`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)SELECT .+ FROM channels WHERE id = \$1`).
		WithArgs("podbbang_123").
		WillReturnRows(channelRow("podbbang_123"))

	ch, err := st.InsertIfAbsent(context.Background(), &models.Channel{
		ID:    "podbbang_123",
		Title: "My Show",
		Type:  models.TypePodbbang,
	})
	require.NoError(t, err)
	assert.Equal(t, "podbbang_123", ch.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIfAbsent_ExistingIDWins(t *testing.T) {
	st, mock := newTestStore(t)

	// conflicting insert touches no rows; the first writer's record comes back
	mock.ExpectExec(`INSERT INTO channels`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`(?s)SELECT .+ FROM channels WHERE id = \$1`).
		WithArgs("podbbang_123").
		WillReturnRows(channelRow("podbbang_123"))

	ch, err := st.InsertIfAbsent(context.Background(), &models.Channel{
		ID:    "podbbang_123",
		Title: "A Different Title",
	})
	require.NoError(t, err)
	assert.Equal(t, "My Show", ch.Title)
}

func TestReplaceEpisodes(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE channels SET videos = \$1, last_update = \$2 WHERE id = \$3`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "podbbang_123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)SELECT .+ FROM channels WHERE id = \$1`).
		WithArgs("podbbang_123").
		WillReturnRows(channelRow("podbbang_123"))

	_, err := st.ReplaceEpisodes(context.Background(), "podbbang_123", []models.Episode{{ID: "ep1", Title: "One"}})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceEpisodes_UnknownChannel(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE channels SET videos = \$1, last_update = \$2 WHERE id = \$3`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := st.ReplaceEpisodes(context.Background(), "missing", nil)
	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDelete(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectExec(`DELETE FROM channels WHERE id = \$1`).
		WithArgs("podbbang_123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := st.Delete(context.Background(), "podbbang_123")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestDelete_UnknownID(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectExec(`DELETE FROM channels WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := st.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
}
