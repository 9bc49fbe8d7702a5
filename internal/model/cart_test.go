package model

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRentalDays(t *testing.T) {
	cases := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{"same day", "2026-09-01", "2026-09-01", 1},
		{"consecutive days", "2026-09-01", "2026-09-02", 2},
		{"one week inclusive", "2026-09-01", "2026-09-07", 7},
		{"across month boundary", "2026-08-30", "2026-09-02", 4},
		{"end before start clamps to one", "2026-09-05", "2026-09-01", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RentalDays(day(tc.start), day(tc.end)); got != tc.want {
				t.Fatalf("RentalDays(%s, %s) = %d, want %d", tc.start, tc.end, got, tc.want)
			}
		})
	}
}

func TestRentalDaysIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2026, 9, 1, 23, 30, 0, 0, time.UTC)
	end := time.Date(2026, 9, 2, 0, 15, 0, 0, time.UTC)
	if got := RentalDays(start, end); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
}

func item(productID uint64, precio float64, days int) CartItem {
	return CartItem{
		Product:    ProductSnapshot{ID: productID, Nombre: "taladro", PrecioDiario: precio},
		RentalDays: days,
		StartDate:  day("2026-09-01"),
		EndDate:    day("2026-09-01").AddDate(0, 0, days-1),
	}
}

func TestCartUpsertReplacesSameProduct(t *testing.T) {
	var c Cart
	c.Upsert(item(1, 10, 2))
	c.Upsert(item(2, 5, 1))
	c.Upsert(item(1, 10, 5)) // same product, new date range

	if c.ItemCount() != 2 {
		t.Fatalf("ItemCount = %d, want 2", c.ItemCount())
	}
	// The replaced line keeps its position.
	if c.Items[0].Product.ID != 1 || c.Items[0].RentalDays != 5 {
		t.Fatalf("line 0 = product %d days %d, want product 1 days 5", c.Items[0].Product.ID, c.Items[0].RentalDays)
	}
	if c.Items[1].Product.ID != 2 {
		t.Fatalf("line 1 = product %d, want 2", c.Items[1].Product.ID)
	}
}

func TestCartRemove(t *testing.T) {
	var c Cart
	c.Upsert(item(1, 10, 2))
	c.Upsert(item(2, 5, 1))

	if !c.Remove(1) {
		t.Fatal("Remove(1) = false, want true")
	}
	if c.Remove(99) {
		t.Fatal("Remove(99) = true for absent product")
	}
	if c.ItemCount() != 1 || c.Items[0].Product.ID != 2 {
		t.Fatalf("unexpected cart after remove: %+v", c.Items)
	}
}

func TestCartTotalPrice(t *testing.T) {
	var c Cart
	if got := c.TotalPrice(); got != 0 {
		t.Fatalf("empty cart total = %v, want 0", got)
	}
	c.Upsert(item(1, 12.50, 4)) // 50
	c.Upsert(item(2, 7, 3))     // 21
	if got := c.TotalPrice(); got != 71 {
		t.Fatalf("TotalPrice = %v, want 71", got)
	}
}
