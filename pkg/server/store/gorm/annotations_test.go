package gorm

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/memexhq/memex/pkg/annotation"
	"github.com/memexhq/memex/pkg/server/store"
	"github.com/memexhq/memex/pkg/types"
)

func newMockStore(t *testing.T) (*AnnotationsStore, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{
			Conn:                 mockDB,
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		},
	)
	require.NoError(t, err)

	return NewAnnotationsStore(gormDB), mock
}

func annotationColumns() []string {
	return []string{
		"id", "created", "updated", "userid", "groupid",
		"text", "text_rendered", "tags", "shared",
		"target_uri", "target_uri_normalized", "target_selectors",
		"references", "extra", "deleted", "document_id",
	}
}

func TestFetchAnnotation(t *testing.T) {
	t.Run("hydrates a stored row without recomputing derived fields", func(t *testing.T) {
		s, mock := newMockStore(t)

		id := types.NewID()
		now := time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(annotationColumns()).AddRow(
			id.UUID(), now, now, "acct:alice@example.com", "__world__",
			"raw text", "<p>stored render</p>", "{go,testing}", true,
			"https://example.com/a", "https://example.com/a", []byte(`[{"type":"TextQuoteSelector"}]`),
			nil, []byte(`{"source":"import"}`), false, int64(3),
		)
		mock.ExpectQuery(`SELECT \* FROM "annotation" WHERE id = \$1`).
			WithArgs(id, 1).
			WillReturnRows(rows)

		a, err := s.FetchAnnotation(id)
		require.NoError(t, err)

		assert.Equal(t, id, a.ID())
		assert.Equal(t, "raw text", a.Text())
		// The stored render is trusted as-is.
		assert.Equal(t, "<p>stored render</p>", a.TextRendered())
		assert.Equal(t, []string{"go", "testing"}, a.Tags())
		assert.True(t, a.Shared())
		assert.Equal(t, []map[string]any{{"type": "TextQuoteSelector"}}, a.TargetSelectors())
		assert.Equal(t, map[string]any{"source": "import"}, a.Extra())
		assert.Equal(t, int64(3), a.DocumentID())
		assert.Empty(t, a.Changes())

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps a missing row to ErrNotFound", func(t *testing.T) {
		s, mock := newMockStore(t)

		id := types.NewID()
		mock.ExpectQuery(`SELECT \* FROM "annotation" WHERE id = \$1`).
			WithArgs(id, 1).
			WillReturnRows(sqlmock.NewRows(annotationColumns()))

		_, err := s.FetchAnnotation(id)
		assert.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateAnnotationNoChanges(t *testing.T) {
	s, mock := newMockStore(t)

	a := annotation.FromSnapshot(annotation.Snapshot{
		ID:     types.NewID(),
		UserID: "acct:alice@example.com",
	})

	// Nothing marked dirty, so no SQL is issued at all.
	require.NoError(t, s.UpdateAnnotation(a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAnnotationUnsaved(t *testing.T) {
	s, _ := newMockStore(t)

	a := annotation.New("acct:alice@example.com")
	require.NoError(t, a.SetText("pending"))

	err := s.UpdateAnnotation(a)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateAnnotationWritesDirtyColumnsAndBumpsUpdated(t *testing.T) {
	s, mock := newMockStore(t)

	storedAt := time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
	a := annotation.FromSnapshot(annotation.Snapshot{
		ID:      types.NewID(),
		Created: storedAt,
		Updated: storedAt,
		UserID:  "acct:alice@example.com",
	})
	require.NoError(t, a.SetText("edited body"))

	// Only the dirty columns plus the updated timestamp are written.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "annotation" SET "text"=\$1,"text_rendered"=\$2,"updated"=\$3 WHERE id = \$4`).
		WithArgs("edited body", sqlmock.AnyArg(), sqlmock.AnyArg(), a.ID()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.UpdateAnnotation(a))
	assert.Empty(t, a.Changes())
	assert.True(t, a.Updated().After(storedAt))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAnnotationMissingRow(t *testing.T) {
	s, mock := newMockStore(t)

	a := annotation.FromSnapshot(annotation.Snapshot{
		ID:     types.NewID(),
		UserID: "acct:alice@example.com",
	})
	a.SetShared(true)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "annotation" SET "shared"=\$1,"updated"=\$2 WHERE id = \$3`).
		WithArgs(true, sqlmock.AnyArg(), a.ID()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.UpdateAnnotation(a)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSoftDeleteAnnotationBumpsUpdated(t *testing.T) {
	s, mock := newMockStore(t)

	id := types.NewID()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "annotation" SET "deleted"=\$1,"updated"=\$2 WHERE id = \$3`).
		WithArgs(true, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.SoftDeleteAnnotation(id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSoftDeleteAnnotationMissingRow(t *testing.T) {
	s, mock := newMockStore(t)

	id := types.NewID()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "annotation" SET "deleted"=\$1,"updated"=\$2 WHERE id = \$3`).
		WithArgs(true, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.SoftDeleteAnnotation(id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchAnnotationsSQL(t *testing.T) {
	t.Run("anonymous searches see shared annotations only", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery(`SELECT \* FROM "annotation" WHERE deleted = \$1 AND shared = \$2`).
			WithArgs(false, true).
			WillReturnRows(sqlmock.NewRows(annotationColumns()))

		results, err := s.SearchAnnotations(store.SearchQuery{})
		require.NoError(t, err)
		assert.Empty(t, results)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("viewer also sees their own private annotations", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery(`shared = \$2 OR userid = \$3`).
			WithArgs(false, true, "acct:alice@example.com").
			WillReturnRows(sqlmock.NewRows(annotationColumns()))

		_, err := s.SearchAnnotations(store.SearchQuery{Viewer: "acct:alice@example.com"})
		require.NoError(t, err)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tag filter uses array containment", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery(`tags @> ARRAY\[\$3\]::text\[\]`).
			WithArgs(false, true, "climate").
			WillReturnRows(sqlmock.NewRows(annotationColumns()))

		_, err := s.SearchAnnotations(store.SearchQuery{Tag: "climate"})
		require.NoError(t, err)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("uri filter normalizes before matching", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery(`target_uri_normalized = \$3`).
			WithArgs(false, true, "http://example.com/page?a=1&b=2").
			WillReturnRows(sqlmock.NewRows(annotationColumns()))

		_, err := s.SearchAnnotations(store.SearchQuery{URI: "HTTP://Example.COM/page/?b=2&a=1&utm_source=x"})
		require.NoError(t, err)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("document filter matches the owning document", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery(`document_id = \$3`).
			WithArgs(false, true, int64(7)).
			WillReturnRows(sqlmock.NewRows(annotationColumns()))

		_, err := s.SearchAnnotations(store.SearchQuery{DocumentID: 7})
		require.NoError(t, err)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}
