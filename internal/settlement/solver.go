package settlement

import (
	"context"
	"encoding/binary"
	"fmt"
	"slices"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"
)

// Transfer is one instruction: From pays To the given Amount.
type Transfer struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// ledger fixes the order of participants inside a search state.
// Debtors come first, then creditors, each sorted by id.
type ledger struct {
	ids     []string
	debtors int
}

// move is one hypothetical payment between two ledger positions.
type move struct {
	debtor   int
	creditor int
	amount   int64
}

// newLedger validates the balances and converts them to micro-units.
func newLedger(b *Balances) (ledger, []int64, error) {
	if b == nil {
		return ledger{}, nil, nil
	}

	debtors := sortedIDs(b.Debtors)
	creditors := sortedIDs(b.Creditors)
	for _, id := range debtors {
		if _, ok := b.Creditors[id]; ok {
			return ledger{}, nil, fmt.Errorf("%w: %q is both a debtor and a creditor", ErrInvalidInput, id)
		}
	}

	l := ledger{
		ids:     append(debtors, creditors...),
		debtors: len(debtors),
	}
	state := make([]int64, len(l.ids))
	for i, id := range l.ids {
		amount, ok := b.Debtors[id]
		if i >= l.debtors {
			amount, ok = b.Creditors[id]
		}
		if !ok || !amount.IsPositive() {
			return ledger{}, nil, fmt.Errorf("%w: balance for %q must be positive, got %s", ErrInvalidInput, id, amount)
		}
		m, err := toMicros(amount)
		if err != nil {
			return ledger{}, nil, err
		}
		state[i] = m
	}
	l.rebalance(state)
	return l, state, nil
}

// rebalance makes debts and credits sum to the same number of micro-units.
// Converting each balance separately can leave the totals a few units apart,
// more than snap absorbs; the difference goes to the last debtor or creditor.
func (l ledger) rebalance(state []int64) {
	if l.debtors == 0 || l.debtors == len(state) {
		return
	}
	var diff int64
	for i, m := range state {
		if i < l.debtors {
			diff += m
		} else {
			diff -= m
		}
	}
	switch {
	case diff > 0:
		state[len(state)-1] += diff
	case diff < 0:
		state[l.debtors-1] -= diff
	}
}

func sortedIDs(amounts map[string]decimal.Decimal) []string {
	ids := make([]string, 0, len(amounts))
	for id := range amounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// settled reports whether no further transfer is possible. Totals are
// rebalanced and each snap zeroes a participant for good, so whatever is left
// on the other side is at most Epsilon per participant.
func (l ledger) settled(state []int64) bool {
	return allZero(state[:l.debtors]) || allZero(state[l.debtors:])
}

func allZero(amounts []int64) bool {
	for _, m := range amounts {
		if m != 0 {
			return false
		}
	}
	return true
}

// transfers turns moves into cent-rounded transfers.
// A move that rounds to zero cents is dust and is dropped.
func (l ledger) transfers(moves []move) []Transfer {
	var out []Transfer
	for _, mv := range moves {
		amount := RoundCents(fromMicros(mv.amount))
		if !amount.IsPositive() {
			continue
		}
		out = append(out, Transfer{
			From:   l.ids[mv.debtor],
			To:     l.ids[mv.creditor],
			Amount: amount,
		})
	}
	return out
}

// checkConsistent fails when debts and credits differ by more than Epsilon.
func checkConsistent(b *Balances) error {
	if b == nil {
		return nil
	}
	debt, credit := b.TotalDebt(), b.TotalCredit()
	if debt.Sub(credit).Abs().GreaterThan(Epsilon) {
		return fmt.Errorf("%w: debtors owe %s but creditors are owed %s", ErrInconsistent, debt, credit)
	}
	return nil
}

// Solve returns the shortest list of transfers that settles every balance.
//
// The search is breadth-first over states of remaining amounts. Every edge
// pays min(debtor, creditor) between one debtor and one creditor, so each
// level of the search is one more transfer and the first settled state found
// uses the fewest transfers. States reached by different orderings are
// visited once. Debtors are tried in id order, then creditors in id order;
// among equally short answers the first one found in that order wins.
func Solve(b *Balances) ([]Transfer, error) {
	return SolveContext(context.Background(), b)
}

// SolveContext is Solve with a deadline. The search checks ctx periodically
// and gives up with ErrSearchAborted once it is done.
func SolveContext(ctx context.Context, b *Balances) ([]Transfer, error) {
	if err := checkConsistent(b); err != nil {
		return nil, err
	}
	l, start, err := newLedger(b)
	if err != nil {
		return nil, err
	}

	moves, err := l.search(ctx, start)
	if err != nil {
		return nil, err
	}
	return l.transfers(moves), nil
}

// node is one explored state. parent indexes the node it was reached from.
type node struct {
	state  []int64
	parent int
	move   move
}

// checkEvery is how many nodes the search expands between context checks.
const checkEvery = 4096

func (l ledger) search(ctx context.Context, start []int64) ([]move, error) {
	if l.settled(start) {
		return nil, nil
	}

	seen := newStateSet()
	seen.add(start)
	nodes := []node{{state: start, parent: -1}}

	for head := 0; head < len(nodes); head++ {
		if head%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w after %d states: %w", ErrSearchAborted, len(nodes), err)
			}
		}
		cur := nodes[head].state
		for d := 0; d < l.debtors; d++ {
			if cur[d] == 0 {
				continue
			}
			for c := l.debtors; c < len(cur); c++ {
				if cur[c] == 0 {
					continue
				}

				amount := min(cur[d], cur[c])
				next := slices.Clone(cur)
				next[d] = snap(next[d] - amount)
				next[c] = snap(next[c] - amount)
				if !seen.add(next) {
					continue
				}

				nodes = append(nodes, node{
					state:  next,
					parent: head,
					move:   move{debtor: d, creditor: c, amount: amount},
				})
				if l.settled(next) {
					return path(nodes, len(nodes)-1), nil
				}
			}
		}
	}

	return nil, fmt.Errorf("%w: no sequence of transfers settles every creditor", ErrInconsistent)
}

// path walks parent links back to the start and returns the moves in order.
func path(nodes []node, last int) []move {
	var moves []move
	for i := last; nodes[i].parent >= 0; i = nodes[i].parent {
		moves = append(moves, nodes[i].move)
	}
	slices.Reverse(moves)
	return moves
}

// stateSet is the search memo. States are hashed with xxhash and compared
// element-wise on collision, so equality is structural.
type stateSet struct {
	buckets map[uint64][][]int64
	buf     []byte
}

func newStateSet() *stateSet {
	return &stateSet{buckets: make(map[uint64][][]int64)}
}

// add records state and reports whether it was not seen before.
func (s *stateSet) add(state []int64) bool {
	h := s.hash(state)
	for _, other := range s.buckets[h] {
		if slices.Equal(other, state) {
			return false
		}
	}
	s.buckets[h] = append(s.buckets[h], state)
	return true
}

func (s *stateSet) hash(state []int64) uint64 {
	s.buf = s.buf[:0]
	for _, m := range state {
		s.buf = binary.LittleEndian.AppendUint64(s.buf, uint64(m))
	}
	return xxhash.Sum64(s.buf)
}

// Len is the number of distinct states recorded.
func (s *stateSet) Len() int {
	n := 0
	for _, bucket := range s.buckets {
		n += len(bucket)
	}
	return n
}
