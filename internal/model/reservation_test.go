package model

import "testing"

func TestValidEstado(t *testing.T) {
	for _, s := range []string{EstadoPendiente, EstadoConfirmada, EstadoActiva, EstadoCompletada, EstadoCancelada} {
		if !ValidEstado(s) {
			t.Errorf("ValidEstado(%q) = false", s)
		}
	}
	for _, s := range []string{"", "PENDIENTE", "reservada", "done"} {
		if ValidEstado(s) {
			t.Errorf("ValidEstado(%q) = true", s)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]string]bool{
		{EstadoPendiente, EstadoConfirmada}: true,
		{EstadoPendiente, EstadoCancelada}:  true,
		{EstadoConfirmada, EstadoActiva}:    true,
		{EstadoConfirmada, EstadoCancelada}: true,
		{EstadoActiva, EstadoCompletada}:    true,
	}
	states := []string{EstadoPendiente, EstadoConfirmada, EstadoActiva, EstadoCompletada, EstadoCancelada}
	for _, from := range states {
		for _, to := range states {
			want := allowed[[2]string{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransitionUnknownState(t *testing.T) {
	if CanTransition("nope", EstadoConfirmada) {
		t.Fatal("transition from unknown state allowed")
	}
}

func TestPrecioTotal(t *testing.T) {
	cases := []struct {
		diario   float64
		days     int
		deposito float64
		want     float64
	}{
		{10, 3, 50, 80},
		{12.5, 4, 0, 50},
		{9.99, 1, 20, 29.99},
	}
	for _, tc := range cases {
		if got := PrecioTotal(tc.diario, tc.days, tc.deposito); got != tc.want {
			t.Errorf("PrecioTotal(%v, %d, %v) = %v, want %v", tc.diario, tc.days, tc.deposito, got, tc.want)
		}
	}
}
