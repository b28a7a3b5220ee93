package offers

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"nftmarket/core/types"
	"nftmarket/native/assets"
	"nftmarket/native/collections"
	"nftmarket/native/common"
	"nftmarket/native/exchange"
	"nftmarket/native/settlement"
)

const accounting = "WETH"

type mockAccounts struct {
	accounts map[[20]byte]*types.Account
	pending  map[[20]byte]*big.Int
}

func newMockAccounts() *mockAccounts {
	return &mockAccounts{
		accounts: make(map[[20]byte]*types.Account),
		pending:  make(map[[20]byte]*big.Int),
	}
}

func (m *mockAccounts) GetAccount(addr [20]byte) (*types.Account, error) {
	acc, ok := m.accounts[addr]
	if !ok {
		return &types.Account{Balances: make(map[string]*big.Int)}, nil
	}
	return acc.Clone(), nil
}

func (m *mockAccounts) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("nil account")
	}
	m.accounts[addr] = account.Clone()
	return nil
}

func (m *mockAccounts) PendingRevenueGet(addr [20]byte) (*big.Int, error) {
	bal, ok := m.pending[addr]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

func (m *mockAccounts) PendingRevenuePut(addr [20]byte, amount *big.Int) error {
	m.pending[addr] = new(big.Int).Set(amount)
	return nil
}

func (m *mockAccounts) fund(addr [20]byte, currency string, amount int64) {
	acc, _ := m.GetAccount(addr)
	acc.SetBalance(currency, big.NewInt(amount))
	m.accounts[addr] = acc
}

func (m *mockAccounts) balance(addr [20]byte, currency string) *big.Int {
	acc, _ := m.GetAccount(addr)
	return acc.Balance(currency)
}

type mockOfferStore struct {
	offers map[string]*Offer
}

func newMockOfferStore() *mockOfferStore {
	return &mockOfferStore{offers: make(map[string]*Offer)}
}

func offerKey(collection [20]byte, assetID uint64, offeror [20]byte) string {
	return fmt.Sprintf("%x/%d/%x", collection, assetID, offeror)
}

func (m *mockOfferStore) OfferPut(offer *Offer) error {
	m.offers[offerKey(offer.Collection, offer.AssetID, offer.Offeror)] = offer.Clone()
	return nil
}

func (m *mockOfferStore) OfferDelete(collection [20]byte, assetID uint64, offeror [20]byte) error {
	delete(m.offers, offerKey(collection, assetID, offeror))
	return nil
}

func addr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

type fixture struct {
	owner      [20]byte
	collection [20]byte
	holder     [20]byte
	offerorA   [20]byte
	offerorB   [20]byte
	vault      [20]byte

	engine   *Engine
	accounts *mockAccounts
	store    *mockOfferStore
	assets   *assets.Ledger
	policy   *collections.Manager
	ledger   *settlement.Ledger
	switches *common.Switchboard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		owner:      addr(0x01),
		collection: addr(0xC1),
		holder:     addr(0xA1),
		offerorA:   addr(0xB1),
		offerorB:   addr(0xB2),
		vault:      addr(0xEE),
	}
	engineAddr := addr(0x30)

	f.accounts = newMockAccounts()
	f.store = newMockOfferStore()
	f.assets = assets.NewLedger()
	f.policy = collections.NewManager(f.owner)
	f.switches = common.NewSwitchboard(f.owner)

	ledger, err := settlement.NewLedger(f.owner, f.vault, accounting)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	ledger.SetState(f.accounts)
	ledger.SetExchange(exchange.NewFixedRate(f.accounts, map[string]exchange.Rate{
		"DAI/" + accounting: {Num: big.NewInt(1), Den: big.NewInt(2)},
	}))
	if err := ledger.AddAuthorizedCaller(f.owner, engineAddr); err != nil {
		t.Fatalf("authorize engine: %v", err)
	}
	if err := ledger.AddApprovedCurrency(f.owner, "DAI"); err != nil {
		t.Fatalf("approve currency: %v", err)
	}
	f.ledger = ledger

	f.engine = NewEngine(engineAddr)
	f.engine.SetState(f.store)
	f.engine.SetAssets(f.assets)
	f.engine.SetPolicy(f.policy)
	f.engine.SetLedger(ledger)
	f.engine.SetPauses(f.switches)

	if err := f.policy.SetWhitelisted(f.owner, f.collection, true); err != nil {
		t.Fatalf("whitelist: %v", err)
	}
	if err := f.policy.SetFeeBps(f.owner, f.collection, 1_000); err != nil {
		t.Fatalf("set fee: %v", err)
	}
	if err := f.assets.Register(f.collection, 0, f.holder); err != nil {
		t.Fatalf("register asset: %v", err)
	}
	return f
}

func (f *fixture) offer(t *testing.T, offeror [20]byte, amount int64) *Offer {
	t.Helper()
	offer, err := f.engine.CreateOffer(offeror, f.collection, 0, accounting, big.NewInt(amount), big.NewInt(amount))
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	return offer
}

func TestCreateOfferPaused(t *testing.T) {
	f := newFixture(t)
	if err := f.switches.SetPaused(f.owner, "offers", true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	_, err := f.engine.CreateOffer(f.offerorA, f.collection, 0, accounting, big.NewInt(100), big.NewInt(100))
	if !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
}

func TestCreateOfferNotWhitelisted(t *testing.T) {
	f := newFixture(t)
	other := addr(0xC2)
	_, err := f.engine.CreateOffer(f.offerorA, other, 0, accounting, big.NewInt(100), big.NewInt(100))
	if !errors.Is(err, common.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestCreateOfferZeroAmount(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.CreateOffer(f.offerorA, f.collection, 0, accounting, big.NewInt(0), big.NewInt(0))
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateOfferEscrowsFunds(t *testing.T) {
	f := newFixture(t)
	f.accounts.fund(f.offerorA, accounting, 1_000)
	offer := f.offer(t, f.offerorA, 100)
	if offer.Amount.Cmp(big.NewInt(100)) != 0 || offer.Currency != accounting {
		t.Fatalf("unexpected offer %+v", offer)
	}
	if bal := f.accounts.balance(f.offerorA, accounting); bal.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("offeror balance = %s, want 900", bal)
	}
	if bal := f.accounts.balance(f.vault, accounting); bal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("vault balance = %s, want 100", bal)
	}
}

func TestCreateOfferDuplicate(t *testing.T) {
	f := newFixture(t)
	f.accounts.fund(f.offerorA, accounting, 1_000)
	f.offer(t, f.offerorA, 100)
	_, err := f.engine.CreateOffer(f.offerorA, f.collection, 0, accounting, big.NewInt(150), big.NewInt(150))
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for duplicate offer, got %v", err)
	}
	// The offeror keeps their single standing offer and escrow is untouched.
	if f.engine.CountForOfferor(f.offerorA) != 1 {
		t.Fatalf("offeror count = %d, want 1", f.engine.CountForOfferor(f.offerorA))
	}
	if bal := f.accounts.balance(f.offerorA, accounting); bal.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("offeror balance = %s, want 900", bal)
	}
}

func TestCreateOfferForeignCurrency(t *testing.T) {
	f := newFixture(t)
	// Rate is 2 DAI per accounting unit, so a 100-unit offer needs 200 DAI.
	f.accounts.fund(f.offerorA, "DAI", 1_000)
	if _, err := f.engine.CreateOffer(f.offerorA, f.collection, 0, "DAI", big.NewInt(199), big.NewInt(100)); !errors.Is(err, common.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds below quote, got %v", err)
	}
	offer, err := f.engine.CreateOffer(f.offerorA, f.collection, 0, "DAI", big.NewInt(200), big.NewInt(100))
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	// The stored offer is denominated in the accounting currency.
	if offer.Amount.Cmp(big.NewInt(100)) != 0 || offer.Currency != accounting {
		t.Fatalf("unexpected offer %+v", offer)
	}
}

// Two offerors hold independent offers of 1.0 and 1.5 units on the same
// asset; both stay enumerable from the item view and their own views.
func TestIndependentOffersPerAsset(t *testing.T) {
	f := newFixture(t)
	unit := int64(1_000_000)
	f.accounts.fund(f.offerorA, accounting, 2*unit)
	f.accounts.fund(f.offerorB, accounting, 2*unit)

	f.offer(t, f.offerorA, unit)
	f.offer(t, f.offerorB, unit*3/2)

	if f.engine.CountForItem(f.collection, 0) != 2 {
		t.Fatalf("item offer count = %d, want 2", f.engine.CountForItem(f.collection, 0))
	}
	if f.engine.CountForOfferor(f.offerorA) != 1 || f.engine.CountForOfferor(f.offerorB) != 1 {
		t.Fatalf("offeror counts wrong")
	}
	first, err := f.engine.ForItemByIndex(f.collection, 0, 0)
	if err != nil || first.Offeror != f.offerorA {
		t.Fatalf("index 0 offer = %+v err = %v", first, err)
	}
	second, err := f.engine.ForItemByIndex(f.collection, 0, 1)
	if err != nil || second.Offeror != f.offerorB {
		t.Fatalf("index 1 offer = %+v err = %v", second, err)
	}
	mine, err := f.engine.ForOfferorByIndex(f.offerorB, 0)
	if err != nil || mine.Amount.Cmp(big.NewInt(unit*3/2)) != 0 {
		t.Fatalf("offeror view offer = %+v err = %v", mine, err)
	}
	if _, err := f.engine.ForOfferorByIndex(f.offerorA, 1); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound past end of offeror view, got %v", err)
	}
}

func TestCancelOffer(t *testing.T) {
	f := newFixture(t)
	f.accounts.fund(f.offerorA, accounting, 1_000)
	f.offer(t, f.offerorA, 100)

	if err := f.engine.CancelOffer(f.offerorB, f.collection, 0); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent offer, got %v", err)
	}
	if err := f.engine.CancelOffer(f.offerorA, f.collection, 0); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if bal := f.accounts.balance(f.offerorA, accounting); bal.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("escrow not refunded, balance = %s", bal)
	}
	if f.engine.CountForItem(f.collection, 0) != 0 || f.engine.CountForOfferor(f.offerorA) != 0 {
		t.Fatalf("offer still enumerable after cancel")
	}
	if len(f.store.offers) != 0 {
		t.Fatalf("persisted offer not deleted")
	}
	if err := f.engine.CancelOffer(f.offerorA, f.collection, 0); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat cancel, got %v", err)
	}
}

func TestAcceptOfferOnlyOwner(t *testing.T) {
	f := newFixture(t)
	f.accounts.fund(f.offerorA, accounting, 1_000)
	f.offer(t, f.offerorA, 100)
	if err := f.engine.AcceptOffer(f.offerorB, f.collection, 0, f.offerorA); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := f.engine.AcceptOffer(f.holder, f.collection, 0, f.offerorB); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent offeror, got %v", err)
	}
}

// Accepting one of several standing offers settles only that offer; the
// others remain active even though the asset changed hands.
func TestAcceptOfferSettlesAndTransfers(t *testing.T) {
	f := newFixture(t)
	unit := int64(1_000_000)
	f.accounts.fund(f.offerorA, accounting, 2*unit)
	f.accounts.fund(f.offerorB, accounting, 2*unit)
	f.offer(t, f.offerorA, unit)
	f.offer(t, f.offerorB, unit*3/2)

	if err := f.engine.AcceptOffer(f.holder, f.collection, 0, f.offerorA); err != nil {
		t.Fatalf("accept: %v", err)
	}

	holderPending, _ := f.ledger.PendingRevenue(f.holder)
	treasuryPending, _ := f.ledger.PendingRevenue(f.ledger.Treasury())
	if holderPending.Cmp(big.NewInt(unit*9/10)) != 0 {
		t.Fatalf("holder pending = %s, want %d", holderPending, unit*9/10)
	}
	if treasuryPending.Cmp(big.NewInt(unit/10)) != 0 {
		t.Fatalf("treasury pending = %s, want %d", treasuryPending, unit/10)
	}
	owner, err := f.assets.OwnerOf(f.collection, 0)
	if err != nil || owner != f.offerorA {
		t.Fatalf("asset owner = %x err = %v", owner, err)
	}

	// Offeror B's offer survives the transfer and stays withdrawable.
	if f.engine.CountForItem(f.collection, 0) != 1 {
		t.Fatalf("item offer count = %d, want 1", f.engine.CountForItem(f.collection, 0))
	}
	if _, ok := f.engine.GetOffer(f.collection, 0, f.offerorB); !ok {
		t.Fatalf("offeror B's standing offer vanished")
	}
	if err := f.engine.CancelOffer(f.offerorB, f.collection, 0); err != nil {
		t.Fatalf("cancel stale offer: %v", err)
	}
	if bal := f.accounts.balance(f.offerorB, accounting); bal.Cmp(big.NewInt(2*unit)) != 0 {
		t.Fatalf("offeror B balance = %s, want %d", bal, 2*unit)
	}
}
