package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Payment is an expense paid in full by Payer on behalf of the whole group.
// It is split evenly across every participant, the payer included.
type Payment struct {
	Payer       string
	Amount      decimal.Decimal
	Description string
}

// Balances holds the participants left unsettled after aggregation.
// Debtors owe money, Creditors are owed money. All amounts are positive.
type Balances struct {
	Debtors   map[string]decimal.Decimal
	Creditors map[string]decimal.Decimal
}

// TotalDebt sums what all debtors owe.
func (b *Balances) TotalDebt() decimal.Decimal {
	return sum(b.Debtors)
}

// TotalCredit sums what all creditors are owed.
func (b *Balances) TotalCredit() decimal.Decimal {
	return sum(b.Creditors)
}

// Settled reports whether nobody owes anything.
func (b *Balances) Settled() bool {
	return len(b.Debtors) == 0 && len(b.Creditors) == 0
}

// Net returns a participant's signed balance: positive when owed money,
// negative when owing, zero when settled or unknown.
func (b *Balances) Net(participant string) decimal.Decimal {
	if amount, ok := b.Creditors[participant]; ok {
		return amount
	}
	if amount, ok := b.Debtors[participant]; ok {
		return amount.Neg()
	}
	return decimal.Zero
}

func sum(amounts map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}

// DebtMatrix records how much each participant owes every other participant.
// Cell [i][j] is the amount participant i owes participant j.
type DebtMatrix struct {
	Participants []string

	index map[string]int
	cells [][]decimal.Decimal
}

// BuildDebtMatrix spreads every payment evenly over the participants.
// Each non-payer owes the payer amount/N for every payment they made.
func BuildDebtMatrix(participants []string, payments []Payment) (*DebtMatrix, error) {
	if len(participants) == 0 && len(payments) > 0 {
		return nil, fmt.Errorf("%w: %d payments but no participants", ErrInvalidInput, len(payments))
	}

	index := make(map[string]int, len(participants))
	for i, p := range participants {
		if p == "" {
			return nil, fmt.Errorf("%w: participant %d has an empty id", ErrInvalidInput, i)
		}
		if _, dup := index[p]; dup {
			return nil, fmt.Errorf("%w: duplicate participant %q", ErrInvalidInput, p)
		}
		index[p] = i
	}

	n := len(participants)
	cells := make([][]decimal.Decimal, n)
	for i := range cells {
		cells[i] = make([]decimal.Decimal, n)
	}

	count := decimal.NewFromInt(int64(n))
	for k, payment := range payments {
		if !payment.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: payment %d (%q) amount must be positive, got %s",
				ErrInvalidInput, k, payment.Description, payment.Amount)
		}
		payer, ok := index[payment.Payer]
		if !ok {
			return nil, fmt.Errorf("%w: payment %d (%q) payer %q is not a participant",
				ErrInvalidInput, k, payment.Description, payment.Payer)
		}

		share := payment.Amount.Div(count)
		for i := 0; i < n; i++ {
			// The payer's own share is not owed to themselves.
			if i == payer {
				continue
			}
			cells[i][payer] = cells[i][payer].Add(share)
		}
	}

	return &DebtMatrix{
		Participants: append([]string(nil), participants...),
		index:        index,
		cells:        cells,
	}, nil
}

// Amount returns how much debtor owes creditor before netting.
func (m *DebtMatrix) Amount(debtor, creditor string) decimal.Decimal {
	i, ok := m.index[debtor]
	if !ok {
		return decimal.Zero
	}
	j, ok := m.index[creditor]
	if !ok {
		return decimal.Zero
	}
	return m.cells[i][j]
}

// Owes sums the participant's row: everything they owe others.
func (m *DebtMatrix) Owes(participant string) decimal.Decimal {
	i, ok := m.index[participant]
	if !ok {
		return decimal.Zero
	}
	total := decimal.Zero
	for j := range m.cells[i] {
		total = total.Add(m.cells[i][j])
	}
	return total
}

// Owed sums the participant's column: everything others owe them.
func (m *DebtMatrix) Owed(participant string) decimal.Decimal {
	j, ok := m.index[participant]
	if !ok {
		return decimal.Zero
	}
	total := decimal.Zero
	for i := range m.cells {
		total = total.Add(m.cells[i][j])
	}
	return total
}

// Net is Owed minus Owes.
func (m *DebtMatrix) Net(participant string) decimal.Decimal {
	return m.Owed(participant).Sub(m.Owes(participant))
}

// Aggregate nets the debt matrix into debtors and creditors.
// Participants whose balance is within Epsilon of zero appear in neither map.
func Aggregate(participants []string, payments []Payment) (*Balances, error) {
	matrix, err := BuildDebtMatrix(participants, payments)
	if err != nil {
		return nil, err
	}

	balances := &Balances{
		Debtors:   make(map[string]decimal.Decimal),
		Creditors: make(map[string]decimal.Decimal),
	}
	negEpsilon := Epsilon.Neg()
	for _, p := range matrix.Participants {
		net := matrix.Net(p)
		switch {
		case net.GreaterThan(Epsilon):
			balances.Creditors[p] = net
		case net.LessThan(negEpsilon):
			balances.Debtors[p] = net.Neg()
		}
	}
	return balances, nil
}
