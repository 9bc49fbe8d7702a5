package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/maquirent/rental-api/internal/model"
)

func newCartRepo(t *testing.T) (*CartRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCartRepo(rdb, 30*24*time.Hour), mr
}

func drillLine() model.CartItem {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return model.CartItem{
		Product: model.ProductSnapshot{
			ID: 3, Nombre: "taladro percutor", Categoria: "herramientas",
			PrecioDiario: 19.99, Deposito: 50, Imagenes: []string{},
		},
		RentalDays: 3,
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 2),
	}
}

func TestCartSaveRoundTrip(t *testing.T) {
	repo, mr := newCartRepo(t)
	ctx := context.Background()

	cart := &model.Cart{Items: []model.CartItem{drillLine()}}
	if err := repo.Save(ctx, 7, cart); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !mr.Exists("cart:7") {
		t.Fatal("cart:7 key not written")
	}
	if ttl := mr.TTL("cart:7"); ttl <= 0 {
		t.Fatalf("cart key has no expiry, ttl = %v", ttl)
	}

	got, err := repo.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Product.ID != 3 || got.Items[0].RentalDays != 3 {
		t.Fatalf("round-tripped cart = %+v", got)
	}
	if !got.Items[0].StartDate.Equal(cart.Items[0].StartDate) {
		t.Fatalf("start date = %v, want %v", got.Items[0].StartDate, cart.Items[0].StartDate)
	}
}

func TestCartSaveEmptyDeletesKey(t *testing.T) {
	repo, mr := newCartRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, 7, &model.Cart{Items: []model.CartItem{drillLine()}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !mr.Exists("cart:7") {
		t.Fatal("precondition: cart:7 key missing")
	}

	// Removing the last line must remove the key itself, not leave an
	// empty list behind.
	if err := repo.Save(ctx, 7, &model.Cart{Items: []model.CartItem{}}); err != nil {
		t.Fatalf("Save empty: %v", err)
	}
	if mr.Exists("cart:7") {
		t.Fatal("cart:7 key still present after saving an empty cart")
	}

	if err := repo.Save(ctx, 7, nil); err != nil {
		t.Fatalf("Save nil: %v", err)
	}
	if mr.Exists("cart:7") {
		t.Fatal("cart:7 key present after saving a nil cart")
	}
}

func TestCartGetMissingKeyIsEmptyCart(t *testing.T) {
	repo, _ := newCartRepo(t)

	got, err := repo.Get(context.Background(), 404)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Items == nil || len(got.Items) != 0 {
		t.Fatalf("missing key should yield an empty cart, got %+v", got)
	}
}

func TestCartClearRemovesKey(t *testing.T) {
	repo, mr := newCartRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, 7, &model.Cart{Items: []model.CartItem{drillLine()}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Clear(ctx, 7); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if mr.Exists("cart:7") {
		t.Fatal("cart:7 key still present after Clear")
	}

	// Clearing a cart that never existed is not an error.
	if err := repo.Clear(ctx, 404); err != nil {
		t.Fatalf("Clear missing: %v", err)
	}
}

func TestCartRemoveLastItemThroughStore(t *testing.T) {
	repo, mr := newCartRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, 7, &model.Cart{Items: []model.CartItem{drillLine()}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cart, err := repo.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !cart.Remove(3) {
		t.Fatal("Remove(3) found nothing to remove")
	}
	if err := repo.Save(ctx, 7, cart); err != nil {
		t.Fatalf("Save after remove: %v", err)
	}
	if mr.Exists("cart:7") {
		t.Fatal("cart:7 key still present after removing the last line")
	}
}
