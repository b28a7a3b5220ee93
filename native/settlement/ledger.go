package settlement

import (
	"errors"
	"fmt"
	"math/big"

	"nftmarket/core/events"
	"nftmarket/core/types"
	"nftmarket/native/common"
	"nftmarket/native/registry"
)

var (
	errNilState          = errors.New("settlement: state not configured")
	errNilExchange       = errors.New("settlement: exchange not configured")
	ErrNoPendingRevenue  = errors.New("settlement: no pending revenue")
	errSenderNotAllowed  = fmt.Errorf("settlement: sender not allowed: %w", common.ErrAccessDenied)
	errTokenNotAllowed   = fmt.Errorf("settlement: token not allowed: %w", common.ErrAccessDenied)
	errNotEnoughFunds    = fmt.Errorf("settlement: not enough funds: %w", common.ErrInsufficientFunds)
	errOwnerOnly         = fmt.Errorf("settlement: caller is not the owner: %w", common.ErrAccessDenied)
	errZeroTreasury      = fmt.Errorf("settlement: treasury address(0) is not allowed: %w", common.ErrInvalidInput)
	errNonPositiveAmount = fmt.Errorf("settlement: amount must be positive: %w", common.ErrInvalidInput)
)

const feeDenominator = 10_000

// State abstracts the account storage the ledger settles against. The vault
// address holds every escrowed balance; pending revenue is pure bookkeeping
// against value already sitting in the vault.
type State interface {
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	PendingRevenueGet(addr [20]byte) (*big.Int, error)
	PendingRevenuePut(addr [20]byte, amount *big.Int) error
}

// Exchange quotes and executes conversions from approved payment currencies
// into the accounting currency. Only the foreign-currency paths consult it.
type Exchange interface {
	QuoteAmountIn(amountOut *big.Int, path []string) (*big.Int, error)
	Swap(amountIn *big.Int, path []string, recipient [20]byte) (*big.Int, error)
}

// Ledger is the shared settlement service behind the sale engines. It escrows
// funds in its vault account, converts approved currencies through the
// exchange, extracts the per-collection fee and credits pull-style balances.
type Ledger struct {
	state    State
	exchange Exchange
	emitter  events.Emitter

	owner      [20]byte
	vault      [20]byte
	treasury   [20]byte
	accounting string

	authorized *registry.List[[20]byte, struct{}]
	currencies *registry.List[string, struct{}]
}

// NewLedger constructs a settlement ledger. The treasury starts at the owner
// address until SetTreasury moves it.
func NewLedger(owner, vault [20]byte, accounting string) (*Ledger, error) {
	normalized, err := NormalizeCurrency(accounting)
	if err != nil {
		return nil, err
	}
	if vault == ([20]byte{}) {
		return nil, fmt.Errorf("settlement: vault address(0) is not allowed: %w", common.ErrInvalidInput)
	}
	return &Ledger{
		emitter:    events.NoopEmitter{},
		owner:      owner,
		vault:      vault,
		treasury:   owner,
		accounting: normalized,
		authorized: registry.NewList[[20]byte, struct{}](),
		currencies: registry.NewList[string, struct{}](),
	}, nil
}

// SetState configures the account storage backend.
func (l *Ledger) SetState(state State) { l.state = state }

// SetExchange configures the price-quoting exchange collaborator.
func (l *Ledger) SetExchange(exchange Exchange) { l.exchange = exchange }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// AccountingCurrency returns the symbol every settlement is denominated in.
func (l *Ledger) AccountingCurrency() string { return l.accounting }

// Vault returns the address holding escrowed funds.
func (l *Ledger) Vault() [20]byte { return l.vault }

func (l *Ledger) emit(evt *types.Event) {
	if l == nil || l.emitter == nil || evt == nil {
		return
	}
	l.emitter.Emit(ledgerEvent{evt: evt})
}

func (l *Ledger) requireAuthorized(caller [20]byte) error {
	if !l.authorized.Contains(caller) {
		return errSenderNotAllowed
	}
	return nil
}

func splitFee(price *big.Int, feeBps uint32) (net, fee *big.Int) {
	fee = new(big.Int).Mul(price, new(big.Int).SetUint64(uint64(feeBps)))
	fee.Div(fee, big.NewInt(feeDenominator))
	net = new(big.Int).Sub(price, fee)
	return net, fee
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balances: make(map[string]*big.Int)}
	}
	if acc.Balances == nil {
		acc.Balances = make(map[string]*big.Int)
	}
	return acc
}

// transfer moves amount of currency between two accounts through state.
func (l *Ledger) transfer(from, to [20]byte, currency string, amount *big.Int) error {
	if l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() < 0 {
		return errNonPositiveAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	fromAcc, err := l.state.GetAccount(from)
	if err != nil {
		return err
	}
	toAcc, err := l.state.GetAccount(to)
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	toAcc = ensureAccount(toAcc)
	if fromAcc.Balance(currency).Cmp(amount) < 0 {
		return errNotEnoughFunds
	}
	fromAcc.SetBalance(currency, new(big.Int).Sub(fromAcc.Balance(currency), amount))
	toAcc.SetBalance(currency, new(big.Int).Add(toAcc.Balance(currency), amount))
	if err := l.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return l.state.PutAccount(to, toAcc)
}

func (l *Ledger) creditPending(addr [20]byte, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	current, err := l.state.PendingRevenueGet(addr)
	if err != nil {
		return err
	}
	if current == nil {
		current = big.NewInt(0)
	}
	return l.state.PendingRevenuePut(addr, new(big.Int).Add(current, amount))
}

// settle splits price by feeBps, credits the beneficiary with the net amount
// and the current treasury with the fee. Funds backing the credits must
// already sit in the vault.
func (l *Ledger) settle(beneficiary [20]byte, price *big.Int, feeBps uint32) error {
	net, fee := splitFee(price, feeBps)
	if err := l.creditPending(beneficiary, net); err != nil {
		return err
	}
	return l.creditPending(l.treasury, fee)
}

// ApprovePayment settles an accounting-currency payment: it pulls exactly
// price from the payer into the vault and credits the fee split. The amount
// consumed is returned so callers can refund any overpayment.
func (l *Ledger) ApprovePayment(caller, payer, beneficiary [20]byte, price *big.Int, feeBps uint32, supplied *big.Int) (*big.Int, error) {
	if l.state == nil {
		return nil, errNilState
	}
	if err := l.requireAuthorized(caller); err != nil {
		return nil, err
	}
	if price == nil || price.Sign() <= 0 {
		return nil, errNonPositiveAmount
	}
	if supplied == nil || supplied.Cmp(price) < 0 {
		return nil, errNotEnoughFunds
	}
	if err := l.transfer(payer, l.vault, l.accounting, price); err != nil {
		return nil, err
	}
	if err := l.settle(beneficiary, price, feeBps); err != nil {
		return nil, err
	}
	l.emit(newPaymentEvent(EventTypePaymentApproved, payer, beneficiary, l.accounting, price, feeBps))
	return new(big.Int).Set(price), nil
}

// ApprovePaymentToken settles a payment made in an approved foreign currency.
// It quotes the currency amount needed to realize price in the accounting
// currency, pulls it from the payer, swaps through the exchange and credits
// the fee split on the realized price. The quoted amount-in is returned so
// callers can refund the unspent remainder of supplied.
func (l *Ledger) ApprovePaymentToken(caller, payer, beneficiary [20]byte, currency string, supplied, price *big.Int, feeBps uint32) (*big.Int, error) {
	amountIn, err := l.escrowForeign(caller, payer, currency, supplied, price)
	if err != nil {
		return nil, err
	}
	if err := l.settle(beneficiary, price, feeBps); err != nil {
		return nil, err
	}
	l.emit(newPaymentEvent(EventTypePaymentApproved, payer, beneficiary, currency, price, feeBps))
	return amountIn, nil
}

// escrowForeign realizes price of the accounting currency inside the vault
// from a foreign-currency payment and returns the currency amount consumed.
func (l *Ledger) escrowForeign(caller, payer [20]byte, currency string, supplied, price *big.Int) (*big.Int, error) {
	if l.state == nil {
		return nil, errNilState
	}
	if l.exchange == nil {
		return nil, errNilExchange
	}
	if err := l.requireAuthorized(caller); err != nil {
		return nil, err
	}
	if price == nil || price.Sign() <= 0 {
		return nil, errNonPositiveAmount
	}
	normalized, err := NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}
	if !l.currencies.Contains(normalized) {
		return nil, errTokenNotAllowed
	}
	path := []string{normalized, l.accounting}
	amountIn, err := l.exchange.QuoteAmountIn(price, path)
	if err != nil {
		return nil, err
	}
	if supplied == nil || supplied.Cmp(amountIn) < 0 {
		return nil, errNotEnoughFunds
	}
	if err := l.transfer(payer, l.vault, normalized, amountIn); err != nil {
		return nil, err
	}
	realized, err := l.exchange.Swap(amountIn, path, l.vault)
	if err != nil {
		return nil, err
	}
	if realized.Cmp(price) < 0 {
		return nil, errNotEnoughFunds
	}
	return amountIn, nil
}

// DepositEscrow realizes amount of the accounting currency inside the vault
// without crediting anyone. Used by the auction engine for bids and by the
// offer engine at offer creation; foreign currencies convert at deposit time
// so later refunds and settlements are uniformly denominated. Returns the
// amount of the payment currency consumed.
func (l *Ledger) DepositEscrow(caller, payer [20]byte, currency string, supplied, amount *big.Int) (*big.Int, error) {
	if l.state == nil {
		return nil, errNilState
	}
	if err := l.requireAuthorized(caller); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, errNonPositiveAmount
	}
	normalized, err := NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}
	if normalized == l.accounting {
		if supplied == nil || supplied.Cmp(amount) < 0 {
			return nil, errNotEnoughFunds
		}
		if err := l.transfer(payer, l.vault, l.accounting, amount); err != nil {
			return nil, err
		}
		l.emit(newEscrowEvent(EventTypeEscrowDeposited, payer, amount))
		return new(big.Int).Set(amount), nil
	}
	amountIn, err := l.escrowForeign(caller, payer, normalized, supplied, amount)
	if err != nil {
		return nil, err
	}
	l.emit(newEscrowEvent(EventTypeEscrowDeposited, payer, amount))
	return amountIn, nil
}

// RefundEscrow returns previously escrowed accounting-currency funds from the
// vault to the recipient. The amount is credited back, not re-settled.
func (l *Ledger) RefundEscrow(caller, recipient [20]byte, amount *big.Int) error {
	if l.state == nil {
		return errNilState
	}
	if err := l.requireAuthorized(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return errNonPositiveAmount
	}
	if err := l.transfer(l.vault, recipient, l.accounting, amount); err != nil {
		return err
	}
	l.emit(newEscrowEvent(EventTypeEscrowRefunded, recipient, amount))
	return nil
}

// UnlockPendingRevenue applies the fee split to an amount the vault already
// holds, typically an auction's collected winning bid or an accepted offer's
// escrow. No external transfer happens.
func (l *Ledger) UnlockPendingRevenue(caller, beneficiary [20]byte, amount *big.Int, feeBps uint32) error {
	if l.state == nil {
		return errNilState
	}
	if err := l.requireAuthorized(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return errNonPositiveAmount
	}
	if err := l.settle(beneficiary, amount, feeBps); err != nil {
		return err
	}
	l.emit(newPaymentEvent(EventTypeRevenueUnlocked, l.vault, beneficiary, l.accounting, amount, feeBps))
	return nil
}

// RetrievePendingRevenue withdraws the caller's entire pending balance. The
// balance is zeroed before the vault pays out so a reentrant call observes an
// empty balance.
func (l *Ledger) RetrievePendingRevenue(caller [20]byte) (*big.Int, error) {
	if l.state == nil {
		return nil, errNilState
	}
	balance, err := l.state.PendingRevenueGet(caller)
	if err != nil {
		return nil, err
	}
	if balance == nil || balance.Sign() == 0 {
		return nil, ErrNoPendingRevenue
	}
	withdrawn := new(big.Int).Set(balance)
	if err := l.state.PendingRevenuePut(caller, big.NewInt(0)); err != nil {
		return nil, err
	}
	if err := l.transfer(l.vault, caller, l.accounting, withdrawn); err != nil {
		return nil, err
	}
	l.emit(newEscrowEvent(EventTypeRevenueRetrieved, caller, withdrawn))
	return withdrawn, nil
}

// PendingRevenue reports an account's withdrawable balance.
func (l *Ledger) PendingRevenue(addr [20]byte) (*big.Int, error) {
	if l.state == nil {
		return nil, errNilState
	}
	balance, err := l.state.PendingRevenueGet(addr)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

// AddAuthorizedCaller registers a sale engine allowed to move money through
// the ledger. Owner-gated.
func (l *Ledger) AddAuthorizedCaller(caller, engine [20]byte) error {
	if caller != l.owner {
		return errOwnerOnly
	}
	return l.authorized.Put(engine, struct{}{})
}

// RemoveAuthorizedCaller revokes an engine's settlement access. Owner-gated.
func (l *Ledger) RemoveAuthorizedCaller(caller, engine [20]byte) error {
	if caller != l.owner {
		return errOwnerOnly
	}
	_, err := l.authorized.Delete(engine)
	return err
}

// AuthorizedCallers enumerates the registered engines.
func (l *Ledger) AuthorizedCallers() [][20]byte {
	return l.authorized.Keys()
}

// AddApprovedCurrency whitelists a payment currency for conversion.
// Owner-gated.
func (l *Ledger) AddApprovedCurrency(caller [20]byte, currency string) error {
	if caller != l.owner {
		return errOwnerOnly
	}
	normalized, err := NormalizeCurrency(currency)
	if err != nil {
		return err
	}
	return l.currencies.Put(normalized, struct{}{})
}

// RemoveApprovedCurrency removes a payment currency. Owner-gated.
func (l *Ledger) RemoveApprovedCurrency(caller [20]byte, currency string) error {
	if caller != l.owner {
		return errOwnerOnly
	}
	normalized, err := NormalizeCurrency(currency)
	if err != nil {
		return err
	}
	_, err = l.currencies.Delete(normalized)
	return err
}

// ApprovedCurrencies enumerates the accepted payment currencies.
func (l *Ledger) ApprovedCurrencies() []string {
	return l.currencies.Keys()
}

// IsApprovedCurrency reports whether a currency may be used for payment.
func (l *Ledger) IsApprovedCurrency(currency string) bool {
	normalized, err := NormalizeCurrency(currency)
	if err != nil {
		return false
	}
	return normalized == l.accounting || l.currencies.Contains(normalized)
}

// SetTreasury moves the fee recipient. Credits already granted to the old
// treasury stay where they are. Owner-gated; the zero address is rejected.
func (l *Ledger) SetTreasury(caller, treasury [20]byte) error {
	if caller != l.owner {
		return errOwnerOnly
	}
	if treasury == ([20]byte{}) {
		return errZeroTreasury
	}
	l.treasury = treasury
	return nil
}

// Treasury returns the current fee recipient.
func (l *Ledger) Treasury() [20]byte { return l.treasury }
