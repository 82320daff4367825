package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/intake/internal/domain"
)

const (
	pgCreateVolunteers = `CREATE TABLE IF NOT EXISTS "volunteers" ("id" BIGSERIAL PRIMARY KEY, "timestamp" TEXT NOT NULL, ` +
		`"name" TEXT NOT NULL DEFAULT '', "email" TEXT NOT NULL DEFAULT '', "phone" TEXT NOT NULL DEFAULT '', ` +
		`"city" TEXT NOT NULL DEFAULT '', "availability" TEXT NOT NULL DEFAULT '', "interests" TEXT NOT NULL DEFAULT '')`
	pgInsertVolunteers = `INSERT INTO "volunteers" ("timestamp", "name", "email", "phone", "city", "availability", "interests") ` +
		`VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING "id"`
	pgListVolunteers = `SELECT "id", COALESCE("timestamp", ''), COALESCE("name", ''), COALESCE("email", ''), ` +
		`COALESCE("phone", ''), COALESCE("city", ''), COALESCE("availability", ''), COALESCE("interests", '') ` +
		`FROM "volunteers" ORDER BY "id" DESC`
)

func TestBuildStatements_Postgres(t *testing.T) {
	schema, _ := domain.SchemaFor(domain.KindVolunteer)
	st := buildStatements(Postgres, schema)

	assert.Equal(t, pgCreateVolunteers, st.create)
	assert.Equal(t, pgInsertVolunteers, st.insert)
	assert.Equal(t, pgListVolunteers, st.list)
}

func TestBuildStatements_SQLite(t *testing.T) {
	schema, _ := domain.SchemaFor(domain.KindFacility)
	st := buildStatements(SQLite, schema)

	assert.Contains(t, st.create, `"id" INTEGER PRIMARY KEY AUTOINCREMENT`)
	assert.Contains(t, st.create, `"facilityName" TEXT NOT NULL DEFAULT ''`)
	assert.Contains(t, st.insert, `VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING "id"`)
	assert.Contains(t, st.list, `FROM "facilities" ORDER BY "id" DESC`)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, Postgres), mock
}

func TestStore_EnsureSchema(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "facilities"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "providers"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(pgCreateVolunteers)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_EnsureSchemaError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "facilities"`)).
		WillReturnError(errors.New("permission denied"))

	err := store.EnsureSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "facilities")
	assert.Contains(t, err.Error(), "permission denied")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Insert(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(pgInsertVolunteers)).
		WithArgs("2026-01-01T00:00:00Z", "Jane Doe", "jane@example.com", "", "Austin", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := store.Insert(context.Background(), domain.KindVolunteer, domain.Record{
		Timestamp: "2026-01-01T00:00:00Z",
		Fields: map[string]string{
			"name":  "Jane Doe",
			"email": "jane@example.com",
			"city":  "Austin",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InsertError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(pgInsertVolunteers)).
		WillReturnError(errors.New("database is locked"))

	_, err := store.Insert(context.Background(), domain.KindVolunteer, domain.Record{Fields: map[string]string{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_List(t *testing.T) {
	store, mock := newMockStore(t)

	cols := []string{"id", "timestamp", "name", "email", "phone", "city", "availability", "interests"}
	mock.ExpectQuery(regexp.QuoteMeta(pgListVolunteers)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(2, "2026-01-02T00:00:00Z", "Bo", "bo@x.test", "", "Waco", "weekends", "").
			AddRow(1, "2026-01-01T00:00:00Z", "Al", "al@x.test", "555", "", "", "driving"))

	recs, err := store.List(context.Background(), domain.KindVolunteer)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, int64(2), recs[0].ID)
	assert.Equal(t, "Bo", recs[0].Fields["name"])
	assert.Equal(t, "weekends", recs[0].Fields["availability"])
	assert.Equal(t, int64(1), recs[1].ID)
	assert.Equal(t, "driving", recs[1].Fields["interests"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListEmptyIsNotNil(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(pgListVolunteers)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "timestamp", "name", "email", "phone", "city", "availability", "interests"}))

	recs, err := store.List(context.Background(), domain.KindVolunteer)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestStore_UnknownKind(t *testing.T) {
	store, _ := newMockStore(t)

	_, err := store.Insert(context.Background(), domain.Kind("donor"), domain.Record{})
	assert.Error(t, err)
	_, err = store.List(context.Background(), domain.Kind("donor"))
	assert.Error(t, err)
}

func TestStore_MissingTables_Postgres(t *testing.T) {
	store, mock := newMockStore(t)

	q := regexp.QuoteMeta("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1")
	mock.ExpectQuery(q).WithArgs("facilities").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(q).WithArgs("providers").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(q).WithArgs("volunteers").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	missing, err := store.MissingTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"volunteers"}, missing)
	require.NoError(t, mock.ExpectationsWereMet())
}
