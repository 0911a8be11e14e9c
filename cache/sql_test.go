package cache

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockSQLStore(t *testing.T, dialect Dialect) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := NewSQLStore(db, dialect)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s, mock
}

func TestSQLStore_Init(t *testing.T) {
	s, mock := newMockSQLStore(t, DialectPostgres)

	mock.ExpectExec("(?s)CREATE TABLE IF NOT EXISTS translation_store .*BYTEA").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestSQLStore_Load(t *testing.T) {
	s, mock := newMockSQLStore(t, DialectSQLite)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM translation_store WHERE store_key = $1")).
		WithArgs("app_language").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte("bn")))

	got, err := s.Load(context.Background(), "app_language")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != "bn" {
		t.Errorf("Load() = %q, want bn", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestSQLStore_Load_Missing(t *testing.T) {
	s, mock := newMockSQLStore(t, DialectSQLite)

	mock.ExpectQuery("SELECT payload").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	if _, err := s.Load(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestSQLStore_Update_Postgres(t *testing.T) {
	s, mock := newMockSQLStore(t, DialectPostgres)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (store_key) DO NOTHING")).
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM translation_store WHERE store_key = $1 FOR UPDATE")).
		WithArgs("k").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte("old")))
	mock.ExpectExec("(?s)INSERT INTO translation_store .* ON CONFLICT").
		WithArgs("k", []byte("old+new"), int64(1700000000000)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.Update(context.Background(), "k", func(old []byte) ([]byte, error) {
		return append(old, "+new"...), nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestSQLStore_Update_NewKey(t *testing.T) {
	s, mock := newMockSQLStore(t, DialectSQLite)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT payload").
		WithArgs("k").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO translation_store").
		WithArgs("k", []byte("first"), int64(1700000000000)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.Update(context.Background(), "k", func(old []byte) ([]byte, error) {
		if old != nil {
			t.Errorf("new key should see nil, got %q", old)
		}
		return []byte("first"), nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestSQLStore_Update_PostgresFirstWriteLocksPlaceholder(t *testing.T) {
	s, mock := newMockSQLStore(t, DialectPostgres)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (store_key) DO NOTHING")).
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(1, 1))
	// The freshly reserved row is empty and reads as a missing key.
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("k").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte{}))
	mock.ExpectExec(regexp.QuoteMeta("DO UPDATE SET payload")).
		WithArgs("k", []byte("first"), int64(1700000000000)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.Update(context.Background(), "k", func(old []byte) ([]byte, error) {
		if old != nil {
			t.Errorf("new key should see nil, got %q", old)
		}
		return []byte("first"), nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestSQLStore_Update_PostgresReserveErrorRollsBack(t *testing.T) {
	s, mock := newMockSQLStore(t, DialectPostgres)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (store_key) DO NOTHING")).
		WithArgs("k").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.Update(context.Background(), "k", func([]byte) ([]byte, error) {
		t.Error("fn must not run when the row cannot be reserved")
		return nil, nil
	})
	if err == nil {
		t.Error("Expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestSQLStore_Update_FuncErrorRollsBack(t *testing.T) {
	s, mock := newMockSQLStore(t, DialectSQLite)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT payload").
		WithArgs("k").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := s.Update(context.Background(), "k", func([]byte) ([]byte, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("Update() error = %v, want %v", err, boom)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestSQLStore_Delete(t *testing.T) {
	s, mock := newMockSQLStore(t, DialectSQLite)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM translation_store WHERE store_key = $1")).
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Delete(context.Background(), "k"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestOpenSQLStore_SQLite(t *testing.T) {
	ctx := context.Background()
	dsn := t.TempDir() + "/cache.db"

	s, err := OpenSQLStore(ctx, DialectSQLite, dsn)
	if err != nil {
		t.Fatalf("OpenSQLStore failed: %v", err)
	}
	defer s.Close()

	c := NewTranslationCache(s)
	c.Put("bn", "Hello", "হ্যালো")
	if err := c.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := NewTranslationCache(s)
	reloaded.Load(ctx)
	if val, ok := reloaded.Get("bn", "Hello"); !ok || val != "হ্যালো" {
		t.Errorf("Get() = %q, %v", val, ok)
	}
}
