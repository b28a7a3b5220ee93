package state

import (
	"math/big"
	"testing"

	"nftmarket/native/auction"
	"nftmarket/native/collections"
	"nftmarket/native/market"
	"nftmarket/native/offers"
	"nftmarket/storage"
)

func addr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

func newManager() *Manager {
	return NewManager(storage.NewMemDB())
}

func TestAccountRoundTrip(t *testing.T) {
	m := newManager()
	owner := addr(0xA1)

	account, err := m.GetAccount(owner)
	if err != nil {
		t.Fatalf("get absent account: %v", err)
	}
	if account.Nonce != 0 || len(account.Balances) != 0 {
		t.Fatalf("absent account not empty: %+v", account)
	}

	account.Nonce = 3
	account.SetBalance("WETH", big.NewInt(1_000))
	account.SetBalance("DAI", big.NewInt(250))
	if err := m.PutAccount(owner, account); err != nil {
		t.Fatalf("put account: %v", err)
	}

	loaded, err := m.GetAccount(owner)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if loaded.Nonce != 3 {
		t.Fatalf("nonce = %d, want 3", loaded.Nonce)
	}
	if loaded.Balance("WETH").Cmp(big.NewInt(1_000)) != 0 || loaded.Balance("DAI").Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("balances = %v", loaded.Balances)
	}
}

func TestAccountRejectsNil(t *testing.T) {
	m := newManager()
	if err := m.PutAccount(addr(0x01), nil); err == nil {
		t.Fatalf("expected error for nil account")
	}
}

func TestPendingRevenueRoundTrip(t *testing.T) {
	m := newManager()
	seller := addr(0xA2)

	bal, err := m.PendingRevenueGet(seller)
	if err != nil || bal.Sign() != 0 {
		t.Fatalf("absent balance = %s err = %v", bal, err)
	}
	if err := m.PendingRevenuePut(seller, big.NewInt(900)); err != nil {
		t.Fatalf("put: %v", err)
	}
	bal, err = m.PendingRevenueGet(seller)
	if err != nil || bal.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("balance = %s err = %v", bal, err)
	}
	if err := m.PendingRevenuePut(seller, big.NewInt(-1)); err == nil {
		t.Fatalf("expected error for negative balance")
	}
}

func TestMarketItemRoundTrip(t *testing.T) {
	m := newManager()
	collection := addr(0xC1)
	item := &market.Item{
		Collection: collection,
		AssetID:    7,
		Seller:     addr(0xA1),
		Price:      big.NewInt(100),
		Currency:   "WETH",
	}
	if err := m.MarketItemPut(item); err != nil {
		t.Fatalf("put: %v", err)
	}

	var loaded []*market.Item
	if err := m.MarketItems(func(it *market.Item) error {
		loaded = append(loaded, it)
		return nil
	}); err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded %d items, want 1", len(loaded))
	}
	got := loaded[0]
	if got.Collection != collection || got.AssetID != 7 || got.Seller != item.Seller ||
		got.Price.Cmp(item.Price) != 0 || got.Currency != "WETH" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := m.MarketItemDelete(collection, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	count := 0
	_ = m.MarketItems(func(*market.Item) error { count++; return nil })
	if count != 0 {
		t.Fatalf("item survived delete")
	}
}

func TestAuctionItemRoundTrip(t *testing.T) {
	m := newManager()
	item := &auction.Item{
		Collection:    addr(0xC1),
		AssetID:       1,
		Seller:        addr(0xA1),
		CurrentBid:    big.NewInt(150),
		CurrentBidder: addr(0xB1),
		EndsAt:        1_700_086_400,
		Currency:      "WETH",
	}
	if err := m.AuctionItemPut(item); err != nil {
		t.Fatalf("put: %v", err)
	}
	var got *auction.Item
	if err := m.AuctionItems(func(it *auction.Item) error {
		got = it
		return nil
	}); err != nil {
		t.Fatalf("walk: %v", err)
	}
	if got == nil || got.EndsAt != item.EndsAt || got.CurrentBidder != item.CurrentBidder ||
		got.CurrentBid.Cmp(item.CurrentBid) != 0 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestOfferRoundTripPerOfferor(t *testing.T) {
	m := newManager()
	collection := addr(0xC1)
	a := &offers.Offer{Collection: collection, AssetID: 1, Offeror: addr(0xB1), Amount: big.NewInt(100), Currency: "WETH"}
	b := &offers.Offer{Collection: collection, AssetID: 1, Offeror: addr(0xB2), Amount: big.NewInt(150), Currency: "WETH"}
	if err := m.OfferPut(a); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if err := m.OfferPut(b); err != nil {
		t.Fatalf("put b: %v", err)
	}

	count := 0
	_ = m.Offers(func(*offers.Offer) error { count++; return nil })
	if count != 2 {
		t.Fatalf("loaded %d offers, want 2", count)
	}

	if err := m.OfferDelete(collection, 1, a.Offeror); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var rest []*offers.Offer
	_ = m.Offers(func(o *offers.Offer) error { rest = append(rest, o); return nil })
	if len(rest) != 1 || rest[0].Offeror != b.Offeror {
		t.Fatalf("wrong offer deleted: %+v", rest)
	}
}

func TestPolicyRoundTrip(t *testing.T) {
	m := newManager()
	p := collections.Policy{
		Collection:  addr(0xC1),
		Whitelisted: true,
		FeeBps:      1_000,
		FloorPrice:  big.NewInt(5),
	}
	if err := m.PolicyPut(p); err != nil {
		t.Fatalf("put: %v", err)
	}
	var got collections.Policy
	if err := m.Policies(func(loaded collections.Policy) error {
		got = loaded
		return nil
	}); err != nil {
		t.Fatalf("walk: %v", err)
	}
	if got.Collection != p.Collection || !got.Whitelisted || got.FeeBps != 1_000 ||
		got.FloorPrice.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

// The manager backs the settlement ledger's account state directly.
func TestLedgerSettingsRoundTrip(t *testing.T) {
	m := newManager()

	if _, _, ok, err := m.LedgerSettings(); err != nil || ok {
		t.Fatalf("expected no record, got ok=%v err=%v", ok, err)
	}

	treasury := addr(0x99)
	if err := m.LedgerSettingsPut(treasury, []string{"USDC", "DAI"}); err != nil {
		t.Fatalf("put settings: %v", err)
	}
	gotTreasury, currencies, ok, err := m.LedgerSettings()
	if err != nil || !ok {
		t.Fatalf("load settings: ok=%v err=%v", ok, err)
	}
	if gotTreasury != treasury {
		t.Fatalf("treasury = %x, want %x", gotTreasury, treasury)
	}
	if len(currencies) != 2 || currencies[0] != "DAI" || currencies[1] != "USDC" {
		t.Fatalf("currencies = %v, want sorted [DAI USDC]", currencies)
	}
}

func TestManagerSatisfiesLedgerState(t *testing.T) {
	m := newManager()
	buyer := addr(0xB1)
	account, _ := m.GetAccount(buyer)
	account.SetBalance("WETH", big.NewInt(1_000))
	if err := m.PutAccount(buyer, account); err != nil {
		t.Fatalf("put account: %v", err)
	}
	reloaded, err := m.GetAccount(buyer)
	if err != nil || reloaded.Balance("WETH").Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("balance = %s err = %v", reloaded.Balance("WETH"), err)
	}
}
