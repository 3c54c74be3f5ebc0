package store

import (
	"context"
	"errors"
	"testing"

	"github.com/storeforge/storeforge/internal/builder"
	"github.com/storeforge/storeforge/internal/testutil"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	db, cleanup := testutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	if err := Migrate(db.ConnStr); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewWithPool(db.Pool)
}

func TestLoadMissingSession(t *testing.T) {
	s := setupStore(t)

	_, err := s.Load(context.Background(), "no-such-session")
	if !errors.Is(err, builder.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestUpsertThenLoad(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	cfg := builder.NewConfiguration("sess-1")
	cfg.BrandName = "TeaTime"
	cfg.AppendTurn("user", "I want to sell tea")

	if err := s.Upsert(ctx, cfg); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := s.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.BrandName != "TeaTime" {
		t.Errorf("BrandName = %q, want %q", got.BrandName, "TeaTime")
	}
	if len(got.History) != 1 {
		t.Errorf("len(History) = %d, want 1", len(got.History))
	}
	if got.Phase != builder.PhaseStart {
		t.Errorf("Phase = %q, want %q", got.Phase, builder.PhaseStart)
	}
}

func TestUpsertReplacesSnapshot(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	cfg := builder.NewConfiguration("sess-2")
	cfg.BrandName = "First"
	if err := s.Upsert(ctx, cfg); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	cfg.BrandName = "Second"
	cfg.Products = append(cfg.Products, builder.Product{
		Name: "Green Tea", Price: 25, Image: builder.DefaultProductImage,
	})
	if err := s.Upsert(ctx, cfg); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := s.Load(ctx, "sess-2")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.BrandName != "Second" {
		t.Errorf("BrandName = %q, want %q", got.BrandName, "Second")
	}
	if len(got.Products) != 1 {
		t.Errorf("len(Products) = %d, want 1", len(got.Products))
	}
}

func TestDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	cfg := builder.NewConfiguration("sess-3")
	if err := s.Upsert(ctx, cfg); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := s.Delete(ctx, "sess-3"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Load(ctx, "sess-3"); !errors.Is(err, builder.ErrNotFound) {
		t.Errorf("Load() after Delete error = %v, want ErrNotFound", err)
	}

	// deleting again is not an error
	if err := s.Delete(ctx, "sess-3"); err != nil {
		t.Errorf("Delete() on missing session error = %v", err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	if err := Migrate(db.ConnStr); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}
	if err := Migrate(db.ConnStr); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}
