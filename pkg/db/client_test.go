package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:db_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := NewFromGorm(db)

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	client := NewFromGorm(db)

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			tx.Create(&testModel{Name: "panicky"})
			panic("boom")
		})
	}()

	var count int64
	db.Model(&testModel{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected panic rollback to leave 0 records, got %d", count)
	}
}

func TestPing(t *testing.T) {
	client := NewFromGorm(newTestDB(t))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := newTestDB(t)
	if err := db.Create(&testModel{Name: "dup"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := db.Create(&testModel{Name: "dup"}).Error
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected sqlite unique violation, got %v", err)
	}

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
	if !IsUniqueViolation(pgErr, "orders_order_number_key") {
		t.Fatal("expected pg unique violation to match constraint")
	}
	if IsUniqueViolation(pgErr, "cart_items_user_product_key") {
		t.Fatal("expected other constraint not to match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatal("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil is not a violation")
	}
}

func TestIsUniqueViolationMatchesSQLiteColumns(t *testing.T) {
	db := newTestDB(t)
	if err := db.Create(&testModel{Name: "dup"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := db.Create(&testModel{Name: "dup"}).Error
	if err == nil {
		t.Fatal("expected duplicate insert to fail")
	}

	if !IsUniqueViolation(err, "idx_test_models_name", "test_models.name") {
		t.Fatalf("expected column list to match, got %v", err)
	}
	if IsUniqueViolation(err, "orders_order_number_key", "orders.order_number") {
		t.Fatal("expected other columns not to match")
	}
	if IsUniqueViolation(err, "orders_order_number_key") {
		t.Fatal("expected named constraint without columns not to match")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: orders.order_number (2067)"), "orders_order_number_key", "orders.order_number") {
		t.Fatal("expected extended result code to be ignored")
	}
}

func TestForUpdateSkipsSQLite(t *testing.T) {
	db := newTestDB(t)
	var rows []testModel
	if err := ForUpdate(db).Find(&rows).Error; err != nil {
		t.Fatalf("expected sqlite query without lock clause to succeed: %v", err)
	}
}
