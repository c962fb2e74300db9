package settlement

import "context"

// Settle computes the transfers that settle a group: payments are netted into
// balances, then the fewest transfers zeroing those balances are returned.
//
// Settle is a pure function of its inputs. Callers must serialize reading the
// payments and recording the result so the snapshot does not go stale.
func Settle(participants []string, payments []Payment) ([]Transfer, error) {
	return SettleContext(context.Background(), participants, payments)
}

// SettleContext is Settle with a deadline on the search.
func SettleContext(ctx context.Context, participants []string, payments []Payment) ([]Transfer, error) {
	balances, err := Aggregate(participants, payments)
	if err != nil {
		return nil, err
	}
	return SolveContext(ctx, balances)
}
