package purchase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/irsalhamdi/course-market/core/apperr"
	"github.com/irsalhamdi/course-market/core/purchase"
	"github.com/irsalhamdi/course-market/database/dbtest"
	"github.com/irsalhamdi/course-market/validate"
)

func TestCreate(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	now := time.Now().UTC()

	courseID := validate.GenerateID()
	const q = `INSERT INTO courses (course_id, title, created_at, updated_at) VALUES ($1, $2, $3, $3)`
	if _, err := db.ExecContext(ctx, q, courseID, "Bought twice", now); err != nil {
		t.Fatalf("inserting course: %v", err)
	}

	p := purchase.Purchase{
		ID:        validate.GenerateID(),
		CourseID:  courseID,
		UserID:    "user_buyer",
		CreatedAt: now,
	}
	if err := purchase.Create(ctx, db, p); err != nil {
		t.Fatalf("creating purchase: %v", err)
	}

	p.ID = validate.GenerateID()
	if err := purchase.Create(ctx, db, p); !errors.Is(err, apperr.ErrPurchaseAlreadyExists) {
		t.Fatalf("expected ErrPurchaseAlreadyExists, got %v", err)
	}

	n, err := purchase.Count(ctx, db, courseID, "user_buyer")
	if err != nil {
		t.Fatalf("counting purchases: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected a single purchase, got %d", n)
	}

	if n, _ := purchase.Count(ctx, db, courseID, "user_other"); n != 0 {
		t.Fatalf("other users own nothing, got %d", n)
	}
}
