package auction

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"nftmarket/core/events"
	"nftmarket/core/types"
	"nftmarket/native/assets"
	"nftmarket/native/collections"
	"nftmarket/native/common"
	"nftmarket/native/registry"
)

const (
	moduleName     = "auction"
	defaultMaxDays = 7
	secondsPerDay  = 24 * 60 * 60
)

var (
	errNilState        = errors.New("auction: state not configured")
	errNilAssets       = errors.New("auction: asset registry not configured")
	errNilPolicy       = errors.New("auction: policy store not configured")
	errNilLedger       = errors.New("auction: settlement ledger not configured")
	errNotWhitelisted  = fmt.Errorf("auction: contract is not whitelisted: %w", common.ErrAccessDenied)
	errZeroFloor       = fmt.Errorf("auction: floor price must be > 0: %w", common.ErrInvalidInput)
	errDurationBounds  = fmt.Errorf("auction: duration out of bounds: %w", common.ErrInvalidInput)
	errItemNotFound    = fmt.Errorf("auction: item not found: %w", common.ErrNotFound)
	errSellerBids      = fmt.Errorf("auction: seller is not authorized: %w", common.ErrUnauthorized)
	errBidderRepeats   = fmt.Errorf("auction: current bidder is not authorized: %w", common.ErrUnauthorized)
	errAuctionOver     = fmt.Errorf("auction: timestamp out of range: %w", common.ErrTimeWindow)
	errBelowFloor      = fmt.Errorf("auction: your bid must be >= than floor price: %w", common.ErrInsufficientFunds)
	errBelowLastBid    = fmt.Errorf("auction: your bid must be higher than last bid: %w", common.ErrInsufficientFunds)
	errNotParticipant  = fmt.Errorf("auction: only auction participants allowed: %w", common.ErrUnauthorized)
	errStillRunning    = fmt.Errorf("auction: auction must be finished: %w", common.ErrTimeWindow)
	errNotOwnerOrAgent = fmt.Errorf("auction: transfer caller is not owner nor approved: %w", common.ErrUnauthorized)
)

// Settlement is the slice of the settlement ledger the auction engine needs:
// bid escrow in, outbid refunds out, and the fee split of the collected
// winning bid at finish.
type Settlement interface {
	DepositEscrow(caller, payer [20]byte, currency string, supplied, amount *big.Int) (*big.Int, error)
	RefundEscrow(caller, recipient [20]byte, amount *big.Int) error
	UnlockPendingRevenue(caller, beneficiary [20]byte, amount *big.Int, feeBps uint32) error
	AccountingCurrency() string
}

// State persists active auctions so the registry can be rebuilt at boot.
type State interface {
	AuctionItemPut(item *Item) error
	AuctionItemDelete(collection [20]byte, assetID uint64) error
}

// Engine is the timed-bidding sale engine. Bids escrow through the shared
// ledger and ratchet strictly upward between distinct bidders; the auction
// window is fixed at creation.
type Engine struct {
	self    [20]byte
	maxDays uint32

	state   State
	assets  assets.Registry
	policy  collections.View
	ledger  Settlement
	items   *registry.Store[*Item]
	emitter events.Emitter
	pauses  common.PauseView
	nowFn   func() int64
}

// NewEngine constructs an auction engine with the given settlement identity
// and maximum auction duration in days (0 selects the default of 7).
func NewEngine(self [20]byte, maxDays uint32) *Engine {
	if maxDays == 0 {
		maxDays = defaultMaxDays
	}
	return &Engine{
		self:    self,
		maxDays: maxDays,
		items:   registry.NewStore[*Item](),
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
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

// SetNowFunc overrides the time source. Primarily intended for tests to
// provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// Self returns the engine's settlement identity.
func (e *Engine) Self() [20]byte { return e.self }

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(auctionEvent{evt: evt})
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

// CreateItem opens an auction: custody moves to the engine and the window is
// fixed at now + durationDays. Later bids never move EndsAt.
func (e *Engine) CreateItem(caller [20]byte, collection [20]byte, assetID uint64, floorPrice *big.Int, durationDays uint32) (*Item, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if !e.policy.IsWhitelisted(collection) {
		return nil, errNotWhitelisted
	}
	if floorPrice == nil || floorPrice.Sign() <= 0 {
		return nil, errZeroFloor
	}
	if durationDays < 1 || durationDays > e.maxDays {
		return nil, errDurationBounds
	}
	owns, err := e.assets.IsOwner(collection, assetID, caller)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, errNotOwnerOrAgent
	}
	approved, err := e.assets.ApprovalGranted(collection, caller, e.self)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, errNotOwnerOrAgent
	}
	item := &Item{
		Collection: collection,
		AssetID:    assetID,
		Seller:     caller,
		CurrentBid: new(big.Int).Set(floorPrice),
		EndsAt:     e.now() + int64(durationDays)*secondsPerDay,
		Currency:   e.ledger.AccountingCurrency(),
	}
	if err := e.items.Insert(collection, assetID, caller, item); err != nil {
		return nil, err
	}
	if err := e.state.AuctionItemPut(item); err != nil {
		return nil, err
	}
	if err := e.assets.TransferCustody(collection, assetID, caller, e.self); err != nil {
		return nil, err
	}
	e.emit(newItemEvent(EventTypeAuctionCreated, item))
	return item.Clone(), nil
}

// Bid escrows amount (denominated in the accounting currency, converted from
// the payment currency when foreign) and records the caller as current
// bidder. The previous bidder's escrow is released back once the new deposit
// is secured; the auction window is left untouched.
func (e *Engine) Bid(caller [20]byte, collection [20]byte, assetID uint64, currency string, supplied, amount *big.Int) (*Item, error) {
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
	if caller == item.Seller {
		return nil, errSellerBids
	}
	if item.HasBid() && caller == item.CurrentBidder {
		return nil, errBidderRepeats
	}
	if e.now() > item.EndsAt {
		return nil, errAuctionOver
	}
	if amount == nil {
		return nil, errBelowFloor
	}
	if item.HasBid() {
		if amount.Cmp(item.CurrentBid) <= 0 {
			return nil, errBelowLastBid
		}
	} else if amount.Cmp(item.CurrentBid) < 0 {
		return nil, errBelowFloor
	}
	if _, err := e.ledger.DepositEscrow(e.self, caller, currency, supplied, amount); err != nil {
		return nil, err
	}
	if item.HasBid() {
		if err := e.ledger.RefundEscrow(e.self, item.CurrentBidder, item.CurrentBid); err != nil {
			return nil, err
		}
	}
	updated := item.Clone()
	updated.CurrentBid = new(big.Int).Set(amount)
	updated.CurrentBidder = caller
	if err := e.items.Update(collection, assetID, updated); err != nil {
		return nil, err
	}
	if err := e.state.AuctionItemPut(updated); err != nil {
		return nil, err
	}
	e.emit(newItemEvent(EventTypeAuctionBid, updated))
	return updated.Clone(), nil
}

// FinishAuction closes the window: the asset goes to the current bidder and
// the collected winning bid is split between seller and treasury, or the
// asset returns to the seller when nobody ever bid. Only participants may
// finish.
func (e *Engine) FinishAuction(caller [20]byte, collection [20]byte, assetID uint64) error {
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
	if caller != item.Seller && (!item.HasBid() || caller != item.CurrentBidder) {
		return errNotParticipant
	}
	if e.now() < item.EndsAt {
		return errStillRunning
	}
	// Registry removal and the revenue split are finalized before the
	// asset leaves custody.
	if _, err := e.items.Remove(collection, assetID); err != nil {
		return err
	}
	if err := e.state.AuctionItemDelete(collection, assetID); err != nil {
		return err
	}
	if !item.HasBid() {
		if err := e.assets.TransferCustody(collection, assetID, e.self, item.Seller); err != nil {
			return err
		}
		e.emit(newItemEvent(EventTypeAuctionReturned, item))
		return nil
	}
	feeBps, err := e.policy.FeeBps(collection)
	if err != nil {
		return err
	}
	if err := e.ledger.UnlockPendingRevenue(e.self, item.Seller, item.CurrentBid, feeBps); err != nil {
		return err
	}
	if err := e.assets.TransferCustody(collection, assetID, e.self, item.CurrentBidder); err != nil {
		return err
	}
	e.emit(newItemEvent(EventTypeAuctionFinished, item))
	return nil
}

// GetItem returns the active auction for the key, if any.
func (e *Engine) GetItem(collection [20]byte, assetID uint64) (*Item, bool) {
	item, ok := e.items.Get(collection, assetID)
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

// Count returns the number of active auctions in a collection.
func (e *Engine) Count(collection [20]byte) int { return e.items.Count(collection) }

// ByIndex returns the auction at position i of the collection's global view.
func (e *Engine) ByIndex(collection [20]byte, i int) (*Item, error) {
	item, err := e.items.ByIndex(collection, i)
	if err != nil {
		return nil, err
	}
	return item.Clone(), nil
}

// CountOf returns the number of a seller's active auctions in a collection.
func (e *Engine) CountOf(seller, collection [20]byte) int {
	return e.items.CountOf(seller, collection)
}

// OfOwnerByIndex returns the auction at position i of a seller's view.
func (e *Engine) OfOwnerByIndex(seller, collection [20]byte, i int) (*Item, error) {
	item, err := e.items.OfOwnerByIndex(seller, collection, i)
	if err != nil {
		return nil, err
	}
	return item.Clone(), nil
}

// Restore reloads a persisted auction into the registry at boot.
func (e *Engine) Restore(item *Item) error {
	if item == nil {
		return fmt.Errorf("auction: nil item: %w", common.ErrInvalidInput)
	}
	return e.items.Insert(item.Collection, item.AssetID, item.Seller, item.Clone())
}
