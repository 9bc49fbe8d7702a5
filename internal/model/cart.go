package model

import "time"

// ProductSnapshot captures the catalog fields of a product at the
// moment it was added to a cart.  The snapshot is for display only;
// checkout and the webhook always re-read authoritative prices from
// the productos table.
type ProductSnapshot struct {
	ID           uint64   `json:"id"`
	Nombre       string   `json:"nombre"`
	Categoria    string   `json:"categoria"`
	PrecioDiario float64  `json:"precio_diario"`
	Deposito     float64  `json:"deposito"`
	Imagenes     []string `json:"imagenes"`
}

// CartItem is one pending rental line: a product snapshot plus the
// requested date range.  RentalDays is derived from the range and
// kept consistent by the cart store on every write.
type CartItem struct {
	Product    ProductSnapshot `json:"product"`
	RentalDays int             `json:"rental_days"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
}

// Cart is the ordered list of pending rental lines for one user.
// A cart holds at most one entry per product id; adding the same
// product again replaces the existing line.
type Cart struct {
	Items []CartItem `json:"items"`
}

// RentalDays returns the inclusive day count of a rental window:
// max(1, daysBetween(end, start) + 1).  Both endpoints count as
// rental days, and a same-day rental is one day.
func RentalDays(start, end time.Time) int {
	s := start.UTC().Truncate(24 * time.Hour)
	e := end.UTC().Truncate(24 * time.Hour)
	days := int(e.Sub(s).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// Upsert adds an item to the cart, replacing any existing line for
// the same product id.  Order of unrelated lines is preserved.
func (c *Cart) Upsert(item CartItem) {
	for i, it := range c.Items {
		if it.Product.ID == item.Product.ID {
			c.Items[i] = item
			return
		}
	}
	c.Items = append(c.Items, item)
}

// Remove deletes the line for the given product id.  It reports
// whether a line was removed.
func (c *Cart) Remove(productID uint64) bool {
	for i, it := range c.Items {
		if it.Product.ID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// TotalPrice folds the current lines into the displayed cart total:
// sum of precio_diario * rental_days per line.  Deposits are charged
// at checkout, not shown in the cart total.
func (c *Cart) TotalPrice() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.Product.PrecioDiario * float64(it.RentalDays)
	}
	return total
}

// ItemCount returns the number of lines in the cart.
func (c *Cart) ItemCount() int {
	return len(c.Items)
}
