package settlement

import "slices"

// Greedy settles balances by repeatedly matching the largest remaining debt
// with the largest remaining credit. It is not guaranteed to find the fewest
// transfers and is kept as a baseline for Solve.
func Greedy(b *Balances) ([]Transfer, error) {
	if err := checkConsistent(b); err != nil {
		return nil, err
	}
	l, start, err := newLedger(b)
	if err != nil {
		return nil, err
	}

	remaining := slices.Clone(start)
	var moves []move
	for {
		d := largest(remaining, 0, l.debtors)
		c := largest(remaining, l.debtors, len(remaining))
		if d < 0 || c < 0 {
			break
		}

		// Amount to settle is the minimum of what the debtor owes and the creditor is owed
		amount := min(remaining[d], remaining[c])
		moves = append(moves, move{debtor: d, creditor: c, amount: amount})

		remaining[d] = snap(remaining[d] - amount)
		remaining[c] = snap(remaining[c] - amount)
	}
	return l.transfers(moves), nil
}

// largest returns the index of the biggest non-zero amount in state[from:to],
// preferring the lower index on ties, or -1 when all are zero.
func largest(state []int64, from, to int) int {
	best := -1
	for i := from; i < to; i++ {
		if state[i] == 0 {
			continue
		}
		if best < 0 || state[i] > state[best] {
			best = i
		}
	}
	return best
}
