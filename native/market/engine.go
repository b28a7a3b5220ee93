package market

import (
	"errors"
	"fmt"
	"math/big"

	"nftmarket/core/events"
	"nftmarket/core/types"
	"nftmarket/native/assets"
	"nftmarket/native/collections"
	"nftmarket/native/common"
	"nftmarket/native/registry"
	"nftmarket/native/settlement"
)

const moduleName = "market"

var (
	errNilState        = errors.New("market: state not configured")
	errNilAssets       = errors.New("market: asset registry not configured")
	errNilPolicy       = errors.New("market: policy store not configured")
	errNilLedger       = errors.New("market: settlement ledger not configured")
	errNotWhitelisted  = fmt.Errorf("market: contract is not whitelisted: %w", common.ErrAccessDenied)
	errZeroPrice       = fmt.Errorf("market: price must be at least 1 wei: %w", common.ErrInvalidInput)
	errItemNotFound    = fmt.Errorf("market: item not found: %w", common.ErrNotFound)
	errOnlySeller      = fmt.Errorf("market: only seller allowed: %w", common.ErrUnauthorized)
	errSellerNotBuyer  = fmt.Errorf("market: seller not allowed: %w", common.ErrUnauthorized)
	errNotOwnerOrAgent = fmt.Errorf("market: transfer caller is not owner nor approved: %w", common.ErrUnauthorized)
)

// Settlement is the slice of the settlement ledger the marketplace needs.
type Settlement interface {
	ApprovePayment(caller, payer, beneficiary [20]byte, price *big.Int, feeBps uint32, supplied *big.Int) (*big.Int, error)
	ApprovePaymentToken(caller, payer, beneficiary [20]byte, currency string, supplied, price *big.Int, feeBps uint32) (*big.Int, error)
	AccountingCurrency() string
}

// State persists active listings so the registry can be rebuilt at boot.
type State interface {
	MarketItemPut(item *Item) error
	MarketItemDelete(collection [20]byte, assetID uint64) error
}

// Engine is the fixed-price sale engine. It takes custody of the asset on
// listing, settles through the shared ledger on purchase and keeps its items
// enumerable through the dual-indexed registry store.
type Engine struct {
	self [20]byte

	state   State
	assets  assets.Registry
	policy  collections.View
	ledger  Settlement
	items   *registry.Store[*Item]
	emitter events.Emitter
	pauses  common.PauseView
}

// NewEngine constructs a marketplace engine whose settlement identity is
// self: the address registered with the ledger's authorized callers and the
// custody holder for listed assets.
func NewEngine(self [20]byte) *Engine {
	return &Engine{
		self:    self,
		items:   registry.NewStore[*Item](),
		emitter: events.NoopEmitter{},
	}
}

// SetState configures the persistence backend.
func (e *Engine) SetState(state State) { e.state = state }

// SetAssets configures the asset-ownership collaborator.
func (e *Engine) SetAssets(reg assets.Registry) { e.assets = reg }

// SetPolicy configures the collection policy store.
func (e *Engine) SetPolicy(policy collections.View) { e.policy = policy }

// SetLedger configures the settlement ledger.
func (e *Engine) SetLedger(ledger Settlement) { e.ledger = ledger }

// SetPauses configures the panic switch consulted by every mutating call.
func (e *Engine) SetPauses(p common.PauseView) { e.pauses = p }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Self returns the engine's settlement identity.
func (e *Engine) Self() [20]byte { return e.self }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(marketEvent{evt: evt})
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.assets == nil {
		return errNilAssets
	}
	if e.policy == nil {
		return errNilPolicy
	}
	if e.ledger == nil {
		return errNilLedger
	}
	return nil
}

// CreateItem lists an asset at a fixed price and takes custody of it.
func (e *Engine) CreateItem(caller [20]byte, collection [20]byte, assetID uint64, price *big.Int) (*Item, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if !e.policy.IsWhitelisted(collection) {
		return nil, errNotWhitelisted
	}
	if price == nil || price.Sign() <= 0 {
		return nil, errZeroPrice
	}
	if err := e.requireCustodyRights(caller, collection, assetID); err != nil {
		return nil, err
	}
	item := &Item{
		Collection: collection,
		AssetID:    assetID,
		Seller:     caller,
		Price:      new(big.Int).Set(price),
		Currency:   e.ledger.AccountingCurrency(),
	}
	if err := e.items.Insert(collection, assetID, caller, item); err != nil {
		return nil, err
	}
	if err := e.state.MarketItemPut(item); err != nil {
		return nil, err
	}
	if err := e.assets.TransferCustody(collection, assetID, caller, e.self); err != nil {
		return nil, err
	}
	e.emit(newItemEvent(EventTypeItemCreated, item))
	return item.Clone(), nil
}

// requireCustodyRights checks that the caller owns the asset and has granted
// the engine operator approval, matching the external registry's transfer
// rules before any state is touched.
func (e *Engine) requireCustodyRights(caller [20]byte, collection [20]byte, assetID uint64) error {
	owns, err := e.assets.IsOwner(collection, assetID, caller)
	if err != nil {
		return err
	}
	if !owns {
		return errNotOwnerOrAgent
	}
	approved, err := e.assets.ApprovalGranted(collection, caller, e.self)
	if err != nil {
		return err
	}
	if !approved {
		return errNotOwnerOrAgent
	}
	return nil
}

// UpdateItem changes the listing price. Only the seller may update.
func (e *Engine) UpdateItem(caller [20]byte, collection [20]byte, assetID uint64, price *big.Int) (*Item, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	item, ok := e.items.Get(collection, assetID)
	if !ok {
		return nil, errItemNotFound
	}
	if item.Seller != caller {
		return nil, errOnlySeller
	}
	if price == nil || price.Sign() <= 0 {
		return nil, errZeroPrice
	}
	updated := item.Clone()
	updated.Price = new(big.Int).Set(price)
	if err := e.items.Update(collection, assetID, updated); err != nil {
		return nil, err
	}
	if err := e.state.MarketItemPut(updated); err != nil {
		return nil, err
	}
	e.emit(newItemEvent(EventTypeItemUpdated, updated))
	return updated.Clone(), nil
}

// CancelItem delists the asset and returns custody to the seller.
func (e *Engine) CancelItem(caller [20]byte, collection [20]byte, assetID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	item, ok := e.items.Get(collection, assetID)
	if !ok {
		return errItemNotFound
	}
	if item.Seller != caller {
		return errOnlySeller
	}
	// Registry removal first so a reentrant read cannot see the item as
	// still active while the asset is in flight.
	if _, err := e.items.Remove(collection, assetID); err != nil {
		return err
	}
	if err := e.state.MarketItemDelete(collection, assetID); err != nil {
		return err
	}
	if err := e.assets.TransferCustody(collection, assetID, e.self, item.Seller); err != nil {
		return err
	}
	e.emit(newItemEvent(EventTypeItemCancelled, item))
	return nil
}

// Buy settles the listing in the given payment currency and hands the asset
// to the buyer. Returns the amount of the payment currency consumed so the
// caller can refund any unspent remainder of supplied.
func (e *Engine) Buy(caller [20]byte, collection [20]byte, assetID uint64, currency string, supplied *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	item, ok := e.items.Get(collection, assetID)
	if !ok {
		return nil, errItemNotFound
	}
	if item.Seller == caller {
		return nil, errSellerNotBuyer
	}
	feeBps, err := e.policy.FeeBps(collection)
	if err != nil {
		return nil, err
	}
	if currency != "" {
		normalized, err := settlement.NormalizeCurrency(currency)
		if err != nil {
			return nil, err
		}
		currency = normalized
	}
	var consumed *big.Int
	if currency == "" || currency == e.ledger.AccountingCurrency() {
		consumed, err = e.ledger.ApprovePayment(e.self, caller, item.Seller, item.Price, feeBps, supplied)
	} else {
		consumed, err = e.ledger.ApprovePaymentToken(e.self, caller, item.Seller, currency, supplied, item.Price, feeBps)
	}
	if err != nil {
		return nil, err
	}
	if _, err := e.items.Remove(collection, assetID); err != nil {
		return nil, err
	}
	if err := e.state.MarketItemDelete(collection, assetID); err != nil {
		return nil, err
	}
	if err := e.assets.TransferCustody(collection, assetID, e.self, caller); err != nil {
		return nil, err
	}
	e.emit(newSaleEvent(item, caller))
	return consumed, nil
}

// GetItem returns the active listing for the key, if any.
func (e *Engine) GetItem(collection [20]byte, assetID uint64) (*Item, bool) {
	item, ok := e.items.Get(collection, assetID)
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

// Count returns the number of active listings in a collection.
func (e *Engine) Count(collection [20]byte) int { return e.items.Count(collection) }

// ByIndex returns the listing at position i of the collection's global view.
func (e *Engine) ByIndex(collection [20]byte, i int) (*Item, error) {
	item, err := e.items.ByIndex(collection, i)
	if err != nil {
		return nil, err
	}
	return item.Clone(), nil
}

// CountOf returns the number of a seller's active listings in a collection.
func (e *Engine) CountOf(seller, collection [20]byte) int {
	return e.items.CountOf(seller, collection)
}

// OfOwnerByIndex returns the listing at position i of a seller's view.
func (e *Engine) OfOwnerByIndex(seller, collection [20]byte, i int) (*Item, error) {
	item, err := e.items.OfOwnerByIndex(seller, collection, i)
	if err != nil {
		return nil, err
	}
	return item.Clone(), nil
}

// Restore reloads a persisted listing into the registry at boot.
func (e *Engine) Restore(item *Item) error {
	if item == nil {
		return fmt.Errorf("market: nil item: %w", common.ErrInvalidInput)
	}
	return e.items.Insert(item.Collection, item.AssetID, item.Seller, item.Clone())
}
