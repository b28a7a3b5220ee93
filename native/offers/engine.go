package offers

import (
	"errors"
	"fmt"
	"math/big"

	"nftmarket/core/events"
	"nftmarket/core/types"
	"nftmarket/native/assets"
	"nftmarket/native/collections"
	"nftmarket/native/common"
)

const moduleName = "offers"

var (
	errNilState       = errors.New("offers: state not configured")
	errNilAssets      = errors.New("offers: asset registry not configured")
	errNilPolicy      = errors.New("offers: policy store not configured")
	errNilLedger      = errors.New("offers: settlement ledger not configured")
	errNotWhitelisted = fmt.Errorf("offers: contract is not whitelisted: %w", common.ErrAccessDenied)
	errZeroAmount     = fmt.Errorf("offers: bid must be at least 1 wei: %w", common.ErrInvalidInput)
	errDuplicateOffer = fmt.Errorf("offers: you already have an offer for this item: %w", common.ErrInvalidInput)
	errNotSeller      = fmt.Errorf("offers: only seller allowed: %w", common.ErrUnauthorized)
)

// Settlement is the slice of the settlement ledger the offer engine needs.
type Settlement interface {
	DepositEscrow(caller, payer [20]byte, currency string, supplied, amount *big.Int) (*big.Int, error)
	RefundEscrow(caller, recipient [20]byte, amount *big.Int) error
	UnlockPendingRevenue(caller, beneficiary [20]byte, amount *big.Int, feeBps uint32) error
	AccountingCurrency() string
}

// State persists standing offers so the book can be rebuilt at boot.
type State interface {
	OfferPut(offer *Offer) error
	OfferDelete(collection [20]byte, assetID uint64, offeror [20]byte) error
}

// Engine manages standing buy offers. Offer funds are escrowed up front;
// acceptance settles the escrow through the shared ledger and moves the
// asset, cancellation refunds it.
type Engine struct {
	self [20]byte

	state   State
	assets  assets.Registry
	policy  collections.View
	ledger  Settlement
	offers  *book
	emitter events.Emitter
	pauses  common.PauseView
}

// NewEngine constructs an offer engine with the given settlement identity.
func NewEngine(self [20]byte) *Engine {
	return &Engine{
		self:    self,
		offers:  newBook(),
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
	e.emitter.Emit(offerEvent{evt: evt})
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

// CreateOffer escrows amount (converted to the accounting currency when paid
// in a foreign one) and records a standing offer. At most one active offer
// per offeror and asset.
func (e *Engine) CreateOffer(caller [20]byte, collection [20]byte, assetID uint64, currency string, supplied, amount *big.Int) (*Offer, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if !e.policy.IsWhitelisted(collection) {
		return nil, errNotWhitelisted
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, errZeroAmount
	}
	if _, exists := e.offers.get(collection, assetID, caller); exists {
		return nil, errDuplicateOffer
	}
	if _, err := e.ledger.DepositEscrow(e.self, caller, currency, supplied, amount); err != nil {
		return nil, err
	}
	offer := &Offer{
		Collection: collection,
		AssetID:    assetID,
		Offeror:    caller,
		Amount:     new(big.Int).Set(amount),
		Currency:   e.ledger.AccountingCurrency(),
	}
	if err := e.offers.insert(offer); err != nil {
		return nil, err
	}
	if err := e.state.OfferPut(offer); err != nil {
		return nil, err
	}
	e.emit(newOfferEvent(EventTypeOfferCreated, offer))
	return offer.Clone(), nil
}

// CancelOffer withdraws the caller's standing offer and refunds its escrow.
func (e *Engine) CancelOffer(caller [20]byte, collection [20]byte, assetID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	offer, err := e.offers.remove(collection, assetID, caller)
	if err != nil {
		return err
	}
	if err := e.state.OfferDelete(collection, assetID, caller); err != nil {
		return err
	}
	if err := e.ledger.RefundEscrow(e.self, caller, offer.Amount); err != nil {
		return err
	}
	e.emit(newOfferEvent(EventTypeOfferCancelled, offer))
	return nil
}

// AcceptOffer lets the asset's current owner take a standing offer: the
// escrowed amount is split between the owner and the treasury and the asset
// moves to the offeror. Only the accepted entry is removed; other standing
// offers on the asset stay active until their offerors cancel them.
func (e *Engine) AcceptOffer(caller [20]byte, collection [20]byte, assetID uint64, offeror [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	owns, err := e.assets.IsOwner(collection, assetID, caller)
	if err != nil {
		return err
	}
	if !owns {
		return errNotSeller
	}
	offer, err := e.offers.remove(collection, assetID, offeror)
	if err != nil {
		return err
	}
	if err := e.state.OfferDelete(collection, assetID, offeror); err != nil {
		return err
	}
	feeBps, err := e.policy.FeeBps(collection)
	if err != nil {
		return err
	}
	if err := e.ledger.UnlockPendingRevenue(e.self, caller, offer.Amount, feeBps); err != nil {
		return err
	}
	if err := e.assets.TransferCustody(collection, assetID, caller, offeror); err != nil {
		return err
	}
	e.emit(newOfferEvent(EventTypeOfferAccepted, offer))
	return nil
}

// GetOffer returns the offeror's standing offer on an asset, if any.
func (e *Engine) GetOffer(collection [20]byte, assetID uint64, offeror [20]byte) (*Offer, bool) {
	offer, ok := e.offers.get(collection, assetID, offeror)
	if !ok {
		return nil, false
	}
	return offer.Clone(), true
}

// CountForItem returns the number of standing offers on an asset.
func (e *Engine) CountForItem(collection [20]byte, assetID uint64) int {
	return e.offers.countForItem(collection, assetID)
}

// ForItemByIndex returns the offer at position i of an asset's offer list.
func (e *Engine) ForItemByIndex(collection [20]byte, assetID uint64, i int) (*Offer, error) {
	offer, err := e.offers.forItemByIndex(collection, assetID, i)
	if err != nil {
		return nil, err
	}
	return offer.Clone(), nil
}

// CountForOfferor returns the number of an offeror's standing offers.
func (e *Engine) CountForOfferor(offeror [20]byte) int {
	return e.offers.countForOfferor(offeror)
}

// ForOfferorByIndex returns the offer at position i of an offeror's list.
func (e *Engine) ForOfferorByIndex(offeror [20]byte, i int) (*Offer, error) {
	offer, err := e.offers.forOfferorByIndex(offeror, i)
	if err != nil {
		return nil, err
	}
	return offer.Clone(), nil
}

// Restore reloads a persisted offer into the book at boot.
func (e *Engine) Restore(offer *Offer) error {
	if offer == nil {
		return fmt.Errorf("offers: nil offer: %w", common.ErrInvalidInput)
	}
	return e.offers.insert(offer.Clone())
}
