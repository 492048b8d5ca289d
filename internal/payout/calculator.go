package payout

import "math/big"

var thousand = big.NewInt(1000)

// Terms are the campaign economics a payout is computed against. All
// values are base-unit integers read from finalized chain state.
type Terms struct {
	MinViews               *big.Int
	PayoutPerThousandViews *big.Int
	BudgetRemaining        *big.Int
}

// Compute returns the payout owed for viewCount under terms.
//
// Views below the minimum earn nothing. Otherwise the amount is
// floor(viewCount * payoutPerThousandViews / 1000), clamped to the
// remaining budget. Pure integer arithmetic; no side effects.
func Compute(viewCount *big.Int, terms Terms) *big.Int {
	if viewCount.Cmp(terms.MinViews) < 0 {
		return big.NewInt(0)
	}

	amount := new(big.Int).Mul(viewCount, terms.PayoutPerThousandViews)
	amount.Quo(amount, thousand)

	if amount.Cmp(terms.BudgetRemaining) > 0 {
		return new(big.Int).Set(terms.BudgetRemaining)
	}
	return amount
}
