package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestCustomerValidate(t *testing.T) {
	good := Customer{FlatNumber: "A-1", Name: "Ali", Rate: FromUnits(30)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		c    Customer
		want error
	}{
		{Customer{FlatNumber: " ", Name: "Ali", Rate: FromUnits(30)}, ErrEmptyFlatNumber},
		{Customer{FlatNumber: "A-1", Name: "", Rate: FromUnits(30)}, ErrEmptyName},
		{Customer{FlatNumber: "A-1", Name: "Ali"}, ErrInvalidRate},
	}
	for i, tc := range bads {
		if err := tc.c.Validate(); err != tc.want {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestDeliveryValidate(t *testing.T) {
	good := Delivery{Date: NewDate(2025, 1, 1), FlatNumber: "A-1", Bottles: 2}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Delivery{
		{FlatNumber: "A-1", Bottles: 2},                                  // zero date
		{Date: NewDate(2025, 1, 1), Bottles: 2},                          // no flat
		{Date: NewDate(2025, 1, 1), FlatNumber: "A-1"},                   // no bottles
		{Date: NewDate(2025, 1, 1), FlatNumber: "A-1", Bottles: 1, Empties: -1},
	}
	for i, d := range bads {
		if err := d.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestPaymentValidate(t *testing.T) {
	good := Payment{Date: NewDate(2025, 1, 1), FlatNumber: "A-1", AmountReceived: FromUnits(100), Method: MethodCash}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.Method = "cheque"
	if err := bad.Validate(); err != ErrInvalidMethod {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
	bad = good
	bad.AmountReceived = Money{}
	if err := bad.Validate(); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Date:        NewDate(2025, 1, 1),
		Category:    CategoryFuel,
		Description: "diesel",
		Amount:      Money{Cents: 100},
		Method:      MethodCash,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Category: CategoryFuel, Description: "a", Amount: Money{Cents: 1}, Method: MethodCash},                              // zero date
		{Date: NewDate(2025, 1, 1), Category: "snacks", Description: "a", Amount: Money{Cents: 1}, Method: MethodCash},       // bad category
		{Date: NewDate(2025, 1, 1), Category: CategoryFuel, Description: "", Amount: Money{Cents: 1}, Method: MethodCash},    // no description
		{Date: NewDate(2025, 1, 1), Category: CategoryFuel, Description: "a", Amount: Money{Cents: 0}, Method: MethodCash},   // no amount
		{Date: NewDate(2025, 1, 1), Category: CategoryFuel, Description: "a", Amount: Money{Cents: 1}, Method: "barter"},     // bad method
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSameFlat(t *testing.T) {
	if !SameFlat("a-101", " A-101 ") {
		t.Fatalf("expected case-insensitive match")
	}
	if SameFlat("A-101", "A-102") {
		t.Fatalf("expected different flats")
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, 2, 29)
	b, err := json.Marshal(d)
	if err != nil || string(b) != `"2024-02-29"` {
		t.Fatalf("unexpected marshal %s (err=%v)", b, err)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("expected %v, got %v", d, back)
	}
	if err := json.Unmarshal([]byte(`"29/02/2024"`), &back); err == nil {
		t.Fatalf("expected error for bad layout")
	}
}

func TestDateOfUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("PKT", 5*3600)
	// 2025-03-01 02:00 in +05:00 is still 2025-02-28 in UTC.
	now := time.Date(2025, 3, 1, 2, 0, 0, 0, loc)
	if got := DateOf(now).String(); got != "2025-03-01" {
		t.Fatalf("expected local day 2025-03-01, got %s", got)
	}
}

func TestCollectionsNormalize(t *testing.T) {
	c := Collections{}.Normalize()
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"customers":[],"deliveries":[],"payments":[],"expenses":[],"lastSaved":"0001-01-01T00:00:00Z"}`
	if string(b) != want {
		t.Fatalf("unexpected json %s", b)
	}
}

func TestSlugAndDigits(t *testing.T) {
	cases := map[string]string{
		"Blue Drop Water Co.": "blue-drop-water-co",
		"  --Aqua__Pure-- ":   "aqua-pure",
		"":                    "",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Fatalf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
	if got := Digits("+92 (300) 123-4567"); got != "923001234567" {
		t.Fatalf("unexpected digits %q", got)
	}
}
