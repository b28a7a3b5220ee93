package state

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"nftmarket/core/types"
	"nftmarket/native/auction"
	"nftmarket/native/collections"
	"nftmarket/native/market"
	"nftmarket/native/offers"
	"nftmarket/storage"
)

// Manager is the persistence layer shared by every engine: accounts and
// pending-revenue balances for the settlement ledger, active sale records for
// the market, auction and offer engines, and collection policies. Records are
// RLP encoded into a flat key-value store.
type Manager struct {
	db storage.Database
}

// NewManager wraps a key-value backend.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

type storedBalance struct {
	Currency string
	Amount   *big.Int
}

type storedAccount struct {
	Nonce    uint64
	Balances []storedBalance
}

// GetAccount loads an account, returning a fresh empty one for unknown
// addresses so callers never observe nil.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	raw, err := m.db.Get(addrKey(prefixAccount, addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return &types.Account{Balances: make(map[string]*big.Int)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: load account: %w", err)
	}
	var stored storedAccount
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	account := &types.Account{Nonce: stored.Nonce, Balances: make(map[string]*big.Int, len(stored.Balances))}
	for _, bal := range stored.Balances {
		account.SetBalance(bal.Currency, bal.Amount)
	}
	return account, nil
}

// PutAccount stores an account. Balances encode in sorted currency order so
// equal accounts always serialize identically.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	currencies := make([]string, 0, len(account.Balances))
	for currency := range account.Balances {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)
	stored := storedAccount{Nonce: account.Nonce, Balances: make([]storedBalance, 0, len(currencies))}
	for _, currency := range currencies {
		stored.Balances = append(stored.Balances, storedBalance{Currency: currency, Amount: account.Balance(currency)})
	}
	raw, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		return fmt.Errorf("state: encode account: %w", err)
	}
	return m.db.Put(addrKey(prefixAccount, addr), raw)
}

// PendingRevenueGet loads an address's withdrawable balance; unknown
// addresses report zero.
func (m *Manager) PendingRevenueGet(addr [20]byte) (*big.Int, error) {
	raw, err := m.db.Get(addrKey(prefixRevenue, addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: load pending revenue: %w", err)
	}
	amount := new(big.Int)
	if err := rlp.DecodeBytes(raw, amount); err != nil {
		return nil, fmt.Errorf("state: decode pending revenue: %w", err)
	}
	return amount, nil
}

// PendingRevenuePut stores an address's withdrawable balance.
func (m *Manager) PendingRevenuePut(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: pending revenue must be non-negative")
	}
	raw, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return fmt.Errorf("state: encode pending revenue: %w", err)
	}
	return m.db.Put(addrKey(prefixRevenue, addr), raw)
}

type storedMarketItem struct {
	Collection [20]byte
	AssetID    uint64
	Seller     [20]byte
	Price      *big.Int
	Currency   string
}

// MarketItemPut persists an active fixed-price listing.
func (m *Manager) MarketItemPut(item *market.Item) error {
	if item == nil {
		return fmt.Errorf("state: nil market item")
	}
	stored := storedMarketItem{
		Collection: item.Collection,
		AssetID:    item.AssetID,
		Seller:     item.Seller,
		Price:      item.Price,
		Currency:   item.Currency,
	}
	raw, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		return fmt.Errorf("state: encode market item: %w", err)
	}
	return m.db.Put(assetKey(prefixMarket, item.Collection, item.AssetID), raw)
}

// MarketItemDelete removes a listing record.
func (m *Manager) MarketItemDelete(collection [20]byte, assetID uint64) error {
	return m.db.Delete(assetKey(prefixMarket, collection, assetID))
}

// MarketItems walks every persisted listing, for boot restore.
func (m *Manager) MarketItems(fn func(*market.Item) error) error {
	return m.db.Iterate(prefixMarket, func(_, value []byte) error {
		var stored storedMarketItem
		if err := rlp.DecodeBytes(value, &stored); err != nil {
			return fmt.Errorf("state: decode market item: %w", err)
		}
		return fn(&market.Item{
			Collection: stored.Collection,
			AssetID:    stored.AssetID,
			Seller:     stored.Seller,
			Price:      stored.Price,
			Currency:   stored.Currency,
		})
	})
}

type storedAuctionItem struct {
	Collection    [20]byte
	AssetID       uint64
	Seller        [20]byte
	CurrentBid    *big.Int
	CurrentBidder [20]byte
	EndsAt        uint64
	Currency      string
}

// AuctionItemPut persists an open auction.
func (m *Manager) AuctionItemPut(item *auction.Item) error {
	if item == nil {
		return fmt.Errorf("state: nil auction item")
	}
	if item.EndsAt < 0 {
		return fmt.Errorf("state: negative auction deadline")
	}
	stored := storedAuctionItem{
		Collection:    item.Collection,
		AssetID:       item.AssetID,
		Seller:        item.Seller,
		CurrentBid:    item.CurrentBid,
		CurrentBidder: item.CurrentBidder,
		EndsAt:        uint64(item.EndsAt),
		Currency:      item.Currency,
	}
	raw, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		return fmt.Errorf("state: encode auction item: %w", err)
	}
	return m.db.Put(assetKey(prefixAuction, item.Collection, item.AssetID), raw)
}

// AuctionItemDelete removes an auction record.
func (m *Manager) AuctionItemDelete(collection [20]byte, assetID uint64) error {
	return m.db.Delete(assetKey(prefixAuction, collection, assetID))
}

// AuctionItems walks every persisted auction, for boot restore.
func (m *Manager) AuctionItems(fn func(*auction.Item) error) error {
	return m.db.Iterate(prefixAuction, func(_, value []byte) error {
		var stored storedAuctionItem
		if err := rlp.DecodeBytes(value, &stored); err != nil {
			return fmt.Errorf("state: decode auction item: %w", err)
		}
		return fn(&auction.Item{
			Collection:    stored.Collection,
			AssetID:       stored.AssetID,
			Seller:        stored.Seller,
			CurrentBid:    stored.CurrentBid,
			CurrentBidder: stored.CurrentBidder,
			EndsAt:        int64(stored.EndsAt),
			Currency:      stored.Currency,
		})
	})
}

type storedOffer struct {
	Collection [20]byte
	AssetID    uint64
	Offeror    [20]byte
	Amount     *big.Int
	Currency   string
}

// OfferPut persists a standing offer.
func (m *Manager) OfferPut(offer *offers.Offer) error {
	if offer == nil {
		return fmt.Errorf("state: nil offer")
	}
	stored := storedOffer{
		Collection: offer.Collection,
		AssetID:    offer.AssetID,
		Offeror:    offer.Offeror,
		Amount:     offer.Amount,
		Currency:   offer.Currency,
	}
	raw, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		return fmt.Errorf("state: encode offer: %w", err)
	}
	return m.db.Put(offerKey(offer.Collection, offer.AssetID, offer.Offeror), raw)
}

// OfferDelete removes a standing offer record.
func (m *Manager) OfferDelete(collection [20]byte, assetID uint64, offeror [20]byte) error {
	return m.db.Delete(offerKey(collection, assetID, offeror))
}

// Offers walks every persisted offer, for boot restore.
func (m *Manager) Offers(fn func(*offers.Offer) error) error {
	return m.db.Iterate(prefixOffer, func(_, value []byte) error {
		var stored storedOffer
		if err := rlp.DecodeBytes(value, &stored); err != nil {
			return fmt.Errorf("state: decode offer: %w", err)
		}
		return fn(&offers.Offer{
			Collection: stored.Collection,
			AssetID:    stored.AssetID,
			Offeror:    stored.Offeror,
			Amount:     stored.Amount,
			Currency:   stored.Currency,
		})
	})
}

type storedPolicy struct {
	Collection  [20]byte
	Whitelisted bool
	FeeBps      uint32
	FloorPrice  *big.Int
}

// PolicyPut persists one collection's policy entry.
func (m *Manager) PolicyPut(p collections.Policy) error {
	stored := storedPolicy{
		Collection:  p.Collection,
		Whitelisted: p.Whitelisted,
		FeeBps:      p.FeeBps,
		FloorPrice:  p.FloorPrice,
	}
	if stored.FloorPrice == nil {
		stored.FloorPrice = big.NewInt(0)
	}
	raw, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		return fmt.Errorf("state: encode policy: %w", err)
	}
	return m.db.Put(addrKey(prefixPolicy, p.Collection), raw)
}

type storedLedgerSettings struct {
	Treasury   [20]byte
	Currencies []string
}

// LedgerSettingsPut records the treasury address and approved currency set so
// admin mutations outlive a restart.
func (m *Manager) LedgerSettingsPut(treasury [20]byte, currencies []string) error {
	stored := storedLedgerSettings{
		Treasury:   treasury,
		Currencies: append([]string(nil), currencies...),
	}
	sort.Strings(stored.Currencies)
	raw, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		return fmt.Errorf("state: encode ledger settings: %w", err)
	}
	return m.db.Put(keyLedgerSettings, raw)
}

// LedgerSettings loads the persisted treasury and currency set; ok reports
// false when no admin mutation was ever recorded.
func (m *Manager) LedgerSettings() (treasury [20]byte, currencies []string, ok bool, err error) {
	raw, err := m.db.Get(keyLedgerSettings)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return treasury, nil, false, nil
	}
	if err != nil {
		return treasury, nil, false, fmt.Errorf("state: load ledger settings: %w", err)
	}
	var stored storedLedgerSettings
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return treasury, nil, false, fmt.Errorf("state: decode ledger settings: %w", err)
	}
	return stored.Treasury, stored.Currencies, true, nil
}

// Policies walks every persisted collection policy, for boot restore.
func (m *Manager) Policies(fn func(collections.Policy) error) error {
	return m.db.Iterate(prefixPolicy, func(_, value []byte) error {
		var stored storedPolicy
		if err := rlp.DecodeBytes(value, &stored); err != nil {
			return fmt.Errorf("state: decode policy: %w", err)
		}
		return fn(collections.Policy{
			Collection:  stored.Collection,
			Whitelisted: stored.Whitelisted,
			FeeBps:      stored.FeeBps,
			FloorPrice:  stored.FloorPrice,
		})
	})
}
