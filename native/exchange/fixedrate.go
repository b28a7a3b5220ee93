package exchange

import (
	"fmt"
	"math/big"

	"nftmarket/core/types"
	"nftmarket/native/common"
)

// AccountState is the account storage the exchange settles swaps against.
type AccountState interface {
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// FixedRate is a deployment adapter for the price-quoting exchange
// collaborator: a static rate table quoting pairs as numerator/denominator of
// accounting units per currency unit. Swaps debit the recipient's source
// balance and credit the destination balance at the quoted rate, mirroring
// what an external AMM settlement would leave behind.
type FixedRate struct {
	state AccountState
	rates map[string]Rate
}

// Rate prices one pair: amountOut = amountIn * Num / Den.
type Rate struct {
	Num *big.Int
	Den *big.Int
}

// NewFixedRate constructs an exchange with the given pair rates, keyed by
// "FROM/TO".
func NewFixedRate(state AccountState, rates map[string]Rate) *FixedRate {
	table := make(map[string]Rate, len(rates))
	for pair, rate := range rates {
		table[pair] = rate
	}
	return &FixedRate{state: state, rates: table}
}

func pairKey(path []string) (string, error) {
	if len(path) != 2 || path[0] == "" || path[1] == "" {
		return "", fmt.Errorf("exchange: swap path must name two currencies: %w", common.ErrInvalidInput)
	}
	return path[0] + "/" + path[1], nil
}

func (x *FixedRate) rate(path []string) (Rate, error) {
	key, err := pairKey(path)
	if err != nil {
		return Rate{}, err
	}
	rate, ok := x.rates[key]
	if !ok {
		return Rate{}, fmt.Errorf("exchange: no quote for pair %s: %w", key, common.ErrNotFound)
	}
	if rate.Num == nil || rate.Den == nil || rate.Num.Sign() <= 0 || rate.Den.Sign() <= 0 {
		return Rate{}, fmt.Errorf("exchange: malformed rate for pair %s: %w", key, common.ErrInvalidInput)
	}
	return rate, nil
}

// QuoteAmountIn returns the smallest input amount whose swap realizes at
// least amountOut along the path.
func (x *FixedRate) QuoteAmountIn(amountOut *big.Int, path []string) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, fmt.Errorf("exchange: amount out must be positive: %w", common.ErrInvalidInput)
	}
	rate, err := x.rate(path)
	if err != nil {
		return nil, err
	}
	// ceil(amountOut * Den / Num)
	in := new(big.Int).Mul(amountOut, rate.Den)
	in.Add(in, new(big.Int).Sub(rate.Num, big.NewInt(1)))
	in.Div(in, rate.Num)
	return in, nil
}

// Swap converts amountIn along the path inside the recipient's account and
// returns the amount realized.
func (x *FixedRate) Swap(amountIn *big.Int, path []string, recipient [20]byte) (*big.Int, error) {
	if x.state == nil {
		return nil, fmt.Errorf("exchange: state not configured")
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("exchange: amount in must be positive: %w", common.ErrInvalidInput)
	}
	rate, err := x.rate(path)
	if err != nil {
		return nil, err
	}
	out := new(big.Int).Mul(amountIn, rate.Num)
	out.Div(out, rate.Den)

	acc, err := x.state.GetAccount(recipient)
	if err != nil {
		return nil, err
	}
	if acc.Balance(path[0]).Cmp(amountIn) < 0 {
		return nil, fmt.Errorf("exchange: insufficient %s balance: %w", path[0], common.ErrInsufficientFunds)
	}
	acc.SetBalance(path[0], new(big.Int).Sub(acc.Balance(path[0]), amountIn))
	acc.SetBalance(path[1], new(big.Int).Add(acc.Balance(path[1]), out))
	if err := x.state.PutAccount(recipient, acc); err != nil {
		return nil, err
	}
	return out, nil
}
