package enums

import "testing"

func TestParseClientStatusCaseInsensitive(t *testing.T) {
	got, err := ParseClientStatus(" inactive ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ClientStatusInactive {
		t.Fatalf("expected Inactive, got %q", got)
	}
	if _, err := ParseClientStatus("archived"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseProductStatus(t *testing.T) {
	got, err := ParseProductStatus("DISCONTINUED")
	if err != nil || got != ProductStatusDiscontinued {
		t.Fatalf("unexpected parse result %q err=%v", got, err)
	}
	if ProductStatus("active").IsValid() {
		t.Fatal("IsValid expects canonical spelling")
	}
}

func TestParseInvoiceStatus(t *testing.T) {
	for _, raw := range []string{"pending", "Paid", "OVERDUE"} {
		got, err := ParseInvoiceStatus(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !got.IsValid() {
			t.Fatalf("parsed %q should be valid", got)
		}
	}
	if _, err := ParseInvoiceStatus("Cancelled"); err == nil {
		t.Fatal("expected error for unknown invoice status")
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	cases := map[OrderStatus]bool{
		"Open":       false,
		"Processing": false,
		"Shipped":    true,
		"completed":  true,
		" CLOSED ":   true,
		"On Hold":    false,
	}
	for status, want := range cases {
		if got := status.IsTerminal(); got != want {
			t.Fatalf("IsTerminal(%q) = %v, want %v", status, got, want)
		}
	}
}

func TestNormalizeOrderStatus(t *testing.T) {
	if got := NormalizeOrderStatus("  shipped"); got != OrderStatusShipped {
		t.Fatalf("expected canonical Shipped, got %q", got)
	}
	if got := NormalizeOrderStatus(" Awaiting Parts "); got != "Awaiting Parts" {
		t.Fatalf("unknown statuses should pass through trimmed, got %q", got)
	}
}
