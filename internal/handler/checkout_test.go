package handler

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/maquirent/rental-api/internal/config"
	"github.com/maquirent/rental-api/internal/model"
	"github.com/maquirent/rental-api/internal/payment"
	"github.com/maquirent/rental-api/internal/repository"
)

type fakeProducts struct {
	byID map[uint64]*model.Product
}

func (f *fakeProducts) GetByID(_ context.Context, id uint64) (*model.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

type fakeReservations struct {
	overlaps map[uint64]int
	rows     []repository.ReservationDetail
	reads    int
	// rows become visible only from this read attempt (1-based); 0 = always.
	visibleFrom int
}

func (f *fakeReservations) CountOverlapping(_ context.Context, productID uint64, _, _ time.Time) (int, error) {
	return f.overlaps[productID], nil
}

func (f *fakeReservations) ListBySessionForUser(_ context.Context, _ string, _ uint64) ([]repository.ReservationDetail, error) {
	f.reads++
	if f.visibleFrom > 0 && f.reads < f.visibleFrom {
		return nil, nil
	}
	return f.rows, nil
}

type fakeCarts struct {
	cleared []uint64
}

func (f *fakeCarts) Clear(_ context.Context, userID uint64) error {
	f.cleared = append(f.cleared, userID)
	return nil
}

type fakeGateway struct {
	lastReq payment.SessionRequest
	sess    payment.Session
	err     error
	calls   int
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, req payment.SessionRequest) (payment.Session, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return payment.Session{}, f.err
	}
	return f.sess, nil
}

func testConfig() config.Config {
	return config.Config{
		CheckoutCurrency:   "eur",
		CheckoutSuccessURL: "https://shop.example/gracias",
		CheckoutCancelURL:  "https://shop.example/carrito",
		ConfirmMaxAttempts: 3,
		ConfirmInitialWait: time.Millisecond,
		ConfirmRetryWait:   time.Millisecond,
	}
}

func availableProduct(id uint64, precio float64) *model.Product {
	return &model.Product{ID: id, Nombre: "taladro percutor", PrecioDiario: precio, Deposito: 50, Disponible: true}
}

func newCheckout(products *fakeProducts, res *fakeReservations, carts *fakeCarts, gw *fakeGateway) *CheckoutHandler {
	return NewCheckoutHandler(testConfig(), products, res, carts, gw)
}

func postJSON(t *testing.T, h echo.HandlerFunc, path, body string, userID interface{}) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != nil {
		c.Set("user_id", userID)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

const validLine = `{"product_id":1,"rental_days":3,"start_date":"2026-09-01","end_date":"2026-09-03"}`

func TestCheckoutCreateSuccess(t *testing.T) {
	products := &fakeProducts{byID: map[uint64]*model.Product{1: availableProduct(1, 19.99)}}
	gw := &fakeGateway{sess: payment.Session{ID: "cs_test_1", URL: "https://pay.example/cs_test_1"}}
	h := newCheckout(products, &fakeReservations{}, &fakeCarts{}, gw)

	body := `{"cart_items":[` + validLine + `],"customer_email":"ana@example.com"}`
	rec := postJSON(t, h.Create, "/v1/checkout", body, uint64(7))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if resp["session_id"] != "cs_test_1" || resp["url"] == "" {
		t.Fatalf("response = %v", resp)
	}

	li := gw.lastReq.LineItems
	if len(li) != 1 {
		t.Fatalf("line items = %d, want 1", len(li))
	}
	wantCents := int64(math.Round(19.99 * 100))
	if li[0].UnitAmount != wantCents || li[0].Quantity != 3 {
		t.Fatalf("line = %+v, want unit %d quantity 3", li[0], wantCents)
	}
	if gw.lastReq.Metadata["user_id"] != "7" {
		t.Fatalf("metadata user_id = %q", gw.lastReq.Metadata["user_id"])
	}
	var metaLines []metadataLine
	if err := json.Unmarshal([]byte(gw.lastReq.Metadata["cart_items"]), &metaLines); err != nil {
		t.Fatalf("cart_items metadata not JSON: %v", err)
	}
	if len(metaLines) != 1 || metaLines[0].ProductID != 1 || metaLines[0].RentalDays != 3 {
		t.Fatalf("metadata lines = %+v", metaLines)
	}
}

func TestCheckoutCreateValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty cart", `{"cart_items":[],"customer_email":"ana@example.com"}`},
		{"missing email", `{"cart_items":[` + validLine + `]}`},
		{"bad email", `{"cart_items":[` + validLine + `],"customer_email":"not-an-email"}`},
		{"zero rental days", `{"cart_items":[{"product_id":1,"rental_days":0,"start_date":"2026-09-01","end_date":"2026-09-03"}],"customer_email":"ana@example.com"}`},
		{"rental days over a year", `{"cart_items":[{"product_id":1,"rental_days":366,"start_date":"2026-09-01","end_date":"2027-09-01"}],"customer_email":"ana@example.com"}`},
		{"fractional rental days", `{"cart_items":[{"product_id":1,"rental_days":2.5,"start_date":"2026-09-01","end_date":"2026-09-03"}],"customer_email":"ana@example.com"}`},
		{"days do not match range", `{"cart_items":[{"product_id":1,"rental_days":5,"start_date":"2026-09-01","end_date":"2026-09-03"}],"customer_email":"ana@example.com"}`},
		{"bad start date", `{"cart_items":[{"product_id":1,"rental_days":3,"start_date":"01/09/2026","end_date":"2026-09-03"}],"customer_email":"ana@example.com"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			products := &fakeProducts{byID: map[uint64]*model.Product{1: availableProduct(1, 10)}}
			gw := &fakeGateway{}
			h := newCheckout(products, &fakeReservations{}, &fakeCarts{}, gw)
			rec := postJSON(t, h.Create, "/v1/checkout", tc.body, uint64(7))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
			if gw.calls != 0 {
				t.Fatal("gateway called despite invalid request")
			}
		})
	}
}

func TestCheckoutCreateUnknownProduct(t *testing.T) {
	h := newCheckout(&fakeProducts{byID: map[uint64]*model.Product{}}, &fakeReservations{}, &fakeCarts{}, &fakeGateway{})
	body := `{"cart_items":[` + validLine + `],"customer_email":"ana@example.com"}`
	rec := postJSON(t, h.Create, "/v1/checkout", body, uint64(7))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCheckoutCreateUnavailableProduct(t *testing.T) {
	p := availableProduct(1, 10)
	p.Disponible = false
	h := newCheckout(&fakeProducts{byID: map[uint64]*model.Product{1: p}}, &fakeReservations{}, &fakeCarts{}, &fakeGateway{})
	body := `{"cart_items":[` + validLine + `],"customer_email":"ana@example.com"}`
	rec := postJSON(t, h.Create, "/v1/checkout", body, uint64(7))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCheckoutCreateOverlappingReservation(t *testing.T) {
	products := &fakeProducts{byID: map[uint64]*model.Product{1: availableProduct(1, 10)}}
	res := &fakeReservations{overlaps: map[uint64]int{1: 2}}
	gw := &fakeGateway{}
	h := newCheckout(products, res, &fakeCarts{}, gw)
	body := `{"cart_items":[` + validLine + `],"customer_email":"ana@example.com"}`
	rec := postJSON(t, h.Create, "/v1/checkout", body, uint64(7))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if gw.calls != 0 {
		t.Fatal("gateway called for overlapping booking")
	}
}

func TestCheckoutCreateRequiresUser(t *testing.T) {
	h := newCheckout(&fakeProducts{byID: map[uint64]*model.Product{}}, &fakeReservations{}, &fakeCarts{}, &fakeGateway{})
	rec := postJSON(t, h.Create, "/v1/checkout", `{}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func getConfirm(t *testing.T, h echo.HandlerFunc, sessionID string, userID interface{}) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	target := "/v1/checkout/confirm"
	if sessionID != "" {
		target += "?session_id=" + sessionID
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != nil {
		c.Set("user_id", userID)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestConfirmFindsReservations(t *testing.T) {
	res := &fakeReservations{
		rows:        []repository.ReservationDetail{{ID: 11, Estado: model.EstadoPendiente}},
		visibleFrom: 2, // first read misses, second hits
	}
	carts := &fakeCarts{}
	h := newCheckout(&fakeProducts{}, res, carts, &fakeGateway{})

	rec := getConfirm(t, h.Confirm, "cs_test_1", uint64(7))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Status       string                         `json:"status"`
		Reservations []repository.ReservationDetail `json:"reservations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Status != "confirmed" || len(resp.Reservations) != 1 {
		t.Fatalf("response = %+v", resp)
	}
	if len(carts.cleared) != 1 || carts.cleared[0] != 7 {
		t.Fatalf("cart cleared = %v, want [7]", carts.cleared)
	}
	if res.reads != 2 {
		t.Fatalf("reads = %d, want 2", res.reads)
	}
}

func TestConfirmExhaustsRetriesAsPending(t *testing.T) {
	res := &fakeReservations{} // never returns rows
	h := newCheckout(&fakeProducts{}, res, &fakeCarts{}, &fakeGateway{})

	rec := getConfirm(t, h.Confirm, "cs_test_1", uint64(7))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Status != "pending" {
		t.Fatalf("status = %q, want pending", resp.Status)
	}
	if res.reads != 3 {
		t.Fatalf("reads = %d, want 3 attempts", res.reads)
	}
}

func TestConfirmRequiresSessionID(t *testing.T) {
	h := newCheckout(&fakeProducts{}, &fakeReservations{}, &fakeCarts{}, &fakeGateway{})
	rec := getConfirm(t, h.Confirm, "", uint64(7))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestConfirmAbandonedPollIsNotAnError(t *testing.T) {
	res := &fakeReservations{}
	h := newCheckout(&fakeProducts{}, res, &fakeCarts{}, &fakeGateway{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/checkout/confirm?session_id=cs_test_1", nil)
	ctx, cancel := context.WithCancel(req.Context())
	cancel() // client disconnected before the first wait elapsed
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))

	if err := h.Confirm(c); err != nil {
		t.Fatalf("abandoned poll reported as server error: %v", err)
	}
	if res.reads != 0 {
		t.Fatalf("reads = %d after disconnect, want 0", res.reads)
	}
}

func TestCheckoutCreateIgnoresClientSuppliedPrice(t *testing.T) {
	// The stored daily price is 19.99; the request body claims the
	// product costs one cent in several shapes. None of them bind.
	products := &fakeProducts{byID: map[uint64]*model.Product{1: availableProduct(1, 19.99)}}
	gw := &fakeGateway{sess: payment.Session{ID: "cs_test_1", URL: "https://pay.example/cs_test_1"}}
	h := newCheckout(products, &fakeReservations{}, &fakeCarts{}, gw)

	body := `{"cart_items":[{"product_id":1,"rental_days":3,"start_date":"2026-09-01","end_date":"2026-09-03",` +
		`"precio_diario":0.01,"unit_amount":1,"price":0.01}],"customer_email":"ana@example.com"}`
	rec := postJSON(t, h.Create, "/v1/checkout", body, uint64(7))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(gw.lastReq.LineItems) != 1 {
		t.Fatalf("line items = %d, want 1", len(gw.lastReq.LineItems))
	}
	if got := gw.lastReq.LineItems[0].UnitAmount; got != 1999 {
		t.Fatalf("unit amount = %d, want 1999 from the product table", got)
	}
}
