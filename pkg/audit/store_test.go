package audit

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStoreSaveCreateEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	event := CreateEvent{
		UserID:       "acct:foo@example.com",
		ClientIP:     "10.0.0.1",
		AnnotationID: "gibberish-id-token",
		GroupID:      "__world__",
		TargetURI:    "https://example.com/article",
		Shared:       true,
		Success:      true,
	}

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(
			FacilityUser,      // facility
			int(SeverityInfo), // severity
			sqlmock.AnyArg(),  // timestamp
			sqlmock.AnyArg(),  // hostname
			"memex",           // appname
			sqlmock.AnyArg(),  // procid
			"create",          // msgid
			sqlmock.AnyArg(),  // sdata (JSON)
			sqlmock.AnyArg(),  // message
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Save(event)
	if err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreSaveFailedDeleteEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	event := DeleteEvent{
		UserID:       "acct:foo@example.com",
		ClientIP:     "192.168.1.1",
		AnnotationID: "gibberish-id-token",
		Success:      false,
		ErrorMessage: "not owner",
	}

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(
			FacilityUser,
			int(SeverityWarning),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			"memex",
			sqlmock.AnyArg(),
			"delete",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Save(event)
	if err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreSaveNilDB(t *testing.T) {
	store := NewStoreWithDB(nil)
	if err := store.Save(CreateEvent{}); err != nil {
		t.Errorf("Save() with nil db should be a no-op, got %v", err)
	}
}
