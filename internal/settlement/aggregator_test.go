package settlement

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBuildDebtMatrix(t *testing.T) {
	payments := []Payment{
		{Payer: "H", Amount: dec("12"), Description: "Groceries"},
		{Payer: "A", Amount: dec("18"), Description: "Internet"},
		{Payer: "V", Amount: dec("36"), Description: "Electricity"},
	}

	m, err := BuildDebtMatrix([]string{"H", "A", "V"}, payments)
	if err != nil {
		t.Fatalf("BuildDebtMatrix() error = %v", err)
	}

	tests := []struct {
		debtor, creditor string
		want             string
	}{
		{"H", "V", "12"},
		{"A", "V", "12"},
		{"V", "H", "4"},
		{"V", "A", "6"},
		{"H", "A", "6"},
		{"A", "H", "4"},
		{"H", "H", "0"},
		{"H", "nobody", "0"},
	}
	for _, tt := range tests {
		got := m.Amount(tt.debtor, tt.creditor)
		if !got.Equal(dec(tt.want)) {
			t.Errorf("Amount(%s, %s) = %s, want %s", tt.debtor, tt.creditor, got, tt.want)
		}
	}

	if got := m.Owes("V"); !got.Equal(dec("10")) {
		t.Errorf("Owes(V) = %s, want 10", got)
	}
	if got := m.Owed("V"); !got.Equal(dec("24")) {
		t.Errorf("Owed(V) = %s, want 24", got)
	}
	if got := m.Net("H"); !got.Equal(dec("-10")) {
		t.Errorf("Net(H) = %s, want -10", got)
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name          string
		participants  []string
		payments      []Payment
		wantDebtors   map[string]string
		wantCreditors map[string]string
	}{
		{
			name:         "uneven payments across three",
			participants: []string{"H", "A", "V"},
			payments: []Payment{
				{Payer: "H", Amount: dec("12")},
				{Payer: "A", Amount: dec("18")},
				{Payer: "V", Amount: dec("36")},
			},
			wantDebtors:   map[string]string{"H": "10", "A": "4"},
			wantCreditors: map[string]string{"V": "14"},
		},
		{
			name:          "one of two pays",
			participants:  []string{"P", "Q"},
			payments:      []Payment{{Payer: "P", Amount: dec("20")}},
			wantDebtors:   map[string]string{"Q": "10"},
			wantCreditors: map[string]string{"P": "10"},
		},
		{
			name:         "everyone pays the average",
			participants: []string{"A", "B", "C"},
			payments: []Payment{
				{Payer: "A", Amount: dec("30")},
				{Payer: "B", Amount: dec("30")},
				{Payer: "C", Amount: dec("30")},
			},
		},
		{
			name:         "single participant",
			participants: []string{"solo"},
			payments: []Payment{
				{Payer: "solo", Amount: dec("50")},
				{Payer: "solo", Amount: dec("7.25")},
			},
		},
		{
			name:         "no participants and no payments",
			participants: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aggregate(tt.participants, tt.payments)
			if err != nil {
				t.Fatalf("Aggregate() error = %v", err)
			}
			assertAmounts(t, "debtors", got.Debtors, tt.wantDebtors)
			assertAmounts(t, "creditors", got.Creditors, tt.wantCreditors)
		})
	}
}

func assertAmounts(t *testing.T, label string, got map[string]decimal.Decimal, want map[string]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s: got %d entries %v, want %d", label, len(got), got, len(want))
		return
	}
	for id, w := range want {
		g, ok := got[id]
		if !ok {
			t.Errorf("%s: missing %s", label, id)
			continue
		}
		if g.Sub(dec(w)).Abs().GreaterThan(Epsilon) {
			t.Errorf("%s[%s] = %s, want %s", label, id, g, w)
		}
	}
}

func TestAggregateInvalidInput(t *testing.T) {
	tests := []struct {
		name         string
		participants []string
		payments     []Payment
	}{
		{
			name:     "payments without participants",
			payments: []Payment{{Payer: "A", Amount: dec("10")}},
		},
		{
			name:         "zero amount",
			participants: []string{"A", "B"},
			payments:     []Payment{{Payer: "A", Amount: decimal.Zero}},
		},
		{
			name:         "negative amount",
			participants: []string{"A", "B"},
			payments:     []Payment{{Payer: "A", Amount: dec("-5")}},
		},
		{
			name:         "payer outside the group",
			participants: []string{"A", "B"},
			payments:     []Payment{{Payer: "Z", Amount: dec("5")}},
		},
		{
			name:         "duplicate participant",
			participants: []string{"A", "B", "A"},
		},
		{
			name:         "empty participant id",
			participants: []string{"A", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aggregate(tt.participants, tt.payments)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Aggregate() error = %v, want ErrInvalidInput", err)
			}
			if got != nil {
				t.Errorf("Aggregate() returned balances %+v alongside an error", got)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "12.50", want: "12.5"},
		{in: " 7 ", want: "7"},
		{in: "0.01", want: "0.01"},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-3.20", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ParseAmount(%q) error = %v, want ErrInvalidInput", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(dec(tt.want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

// Net balances always sum to zero, even when shares do not divide evenly.
func TestAggregateConservation(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for round := 0; round < 200; round++ {
		n := 1 + rng.IntN(9)
		participants := make([]string, n)
		for i := range participants {
			participants[i] = fmt.Sprintf("member-%d", i)
		}

		payments := make([]Payment, rng.IntN(15))
		for i := range payments {
			payments[i] = Payment{
				Payer:  participants[rng.IntN(n)],
				Amount: decimal.New(int64(1+rng.IntN(50000)), -2),
			}
		}

		b, err := Aggregate(participants, payments)
		if err != nil {
			t.Fatalf("round %d: Aggregate() error = %v", round, err)
		}

		total := decimal.Zero
		for _, p := range participants {
			total = total.Add(b.Net(p))
		}
		if total.Abs().GreaterThan(Epsilon) {
			t.Errorf("round %d: balances sum to %s, want 0", round, total)
		}
		if diff := b.TotalDebt().Sub(b.TotalCredit()).Abs(); diff.GreaterThan(Epsilon) {
			t.Errorf("round %d: debt and credit differ by %s", round, diff)
		}
	}
}
