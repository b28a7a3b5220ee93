package collections

import (
	"errors"
	"fmt"
	"math/big"

	"nftmarket/native/common"
	"nftmarket/native/registry"
)

// Policy engines consult before touching an item. Fee basis points are bound
// to [0, 5000] here so the settlement ledger can trust caller-supplied rates.
const maxFeeBps = 5_000

var (
	errOwnerOnly   = fmt.Errorf("collections: caller is not the owner: %w", common.ErrAccessDenied)
	errUnknown     = fmt.Errorf("collections: collection does not exist in marketplace: %w", common.ErrNotFound)
	errFeeTooHigh  = fmt.Errorf("collections: can't set fee higher than 50.00%%: %w", common.ErrInvalidInput)
	errZeroFloor   = fmt.Errorf("collections: floor price must be at least 1 wei: %w", common.ErrInvalidInput)
	errNilManager  = errors.New("collections: manager not initialised")
	errZeroAddress = fmt.Errorf("collections: collection address(0) is not allowed: %w", common.ErrInvalidInput)
)

type entry struct {
	Whitelisted bool
	FeeBps      uint32
	FloorPrice  *big.Int
}

// Manager is the collection policy store: whitelist membership, per-collection
// fee rate and floor price. It sits outside the money path; engines read it
// through the View interface.
type Manager struct {
	owner   [20]byte
	entries *registry.List[[20]byte, *entry]
}

// View is the read surface the sale engines consume.
type View interface {
	IsWhitelisted(collection [20]byte) bool
	FeeBps(collection [20]byte) (uint32, error)
	FloorPrice(collection [20]byte) (*big.Int, error)
}

// NewManager constructs a policy store administered by owner.
func NewManager(owner [20]byte) *Manager {
	return &Manager{owner: owner, entries: registry.NewList[[20]byte, *entry]()}
}

func (m *Manager) load(collection [20]byte) (*entry, error) {
	if m == nil {
		return nil, errNilManager
	}
	e, ok := m.entries.Get(collection)
	if !ok {
		return nil, errUnknown
	}
	return e, nil
}

// SetWhitelisted adds the collection to the marketplace (registering it on
// first touch) or flips its whitelist bit. Owner-gated.
func (m *Manager) SetWhitelisted(caller, collection [20]byte, whitelisted bool) error {
	if m == nil {
		return errNilManager
	}
	if caller != m.owner {
		return errOwnerOnly
	}
	if collection == ([20]byte{}) {
		return errZeroAddress
	}
	if e, ok := m.entries.Get(collection); ok {
		e.Whitelisted = whitelisted
		return nil
	}
	return m.entries.Put(collection, &entry{Whitelisted: whitelisted, FloorPrice: big.NewInt(0)})
}

// SetFeeBps records the marketplace fee for a collection. Owner-gated; the
// rate may not exceed 50.00%.
func (m *Manager) SetFeeBps(caller, collection [20]byte, feeBps uint32) error {
	if m == nil {
		return errNilManager
	}
	if caller != m.owner {
		return errOwnerOnly
	}
	if feeBps > maxFeeBps {
		return errFeeTooHigh
	}
	e, err := m.load(collection)
	if err != nil {
		return err
	}
	e.FeeBps = feeBps
	return nil
}

// SetFloorPrice records the minimum sale price for a collection. Owner-gated.
func (m *Manager) SetFloorPrice(caller, collection [20]byte, floor *big.Int) error {
	if m == nil {
		return errNilManager
	}
	if caller != m.owner {
		return errOwnerOnly
	}
	if floor == nil || floor.Sign() < 1 {
		return errZeroFloor
	}
	e, err := m.load(collection)
	if err != nil {
		return err
	}
	e.FloorPrice = new(big.Int).Set(floor)
	return nil
}

// IsWhitelisted reports whitelist membership; unknown collections are not
// whitelisted.
func (m *Manager) IsWhitelisted(collection [20]byte) bool {
	if m == nil {
		return false
	}
	e, ok := m.entries.Get(collection)
	return ok && e.Whitelisted
}

// FeeBps returns the fee rate for a known collection.
func (m *Manager) FeeBps(collection [20]byte) (uint32, error) {
	e, err := m.load(collection)
	if err != nil {
		return 0, err
	}
	return e.FeeBps, nil
}

// FloorPrice returns the floor price for a known collection.
func (m *Manager) FloorPrice(collection [20]byte) (*big.Int, error) {
	e, err := m.load(collection)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(e.FloorPrice), nil
}

// Collections enumerates every registered collection.
func (m *Manager) Collections() [][20]byte {
	if m == nil {
		return nil
	}
	return m.entries.Keys()
}

// Policy is the externalized form of one collection's entry, used to persist
// the store and rebuild it at boot.
type Policy struct {
	Collection  [20]byte
	Whitelisted bool
	FeeBps      uint32
	FloorPrice  *big.Int
}

// Snapshot exports every registered collection's policy.
func (m *Manager) Snapshot() []Policy {
	if m == nil {
		return nil
	}
	keys := m.entries.Keys()
	policies := make([]Policy, 0, len(keys))
	for _, collection := range keys {
		e, ok := m.entries.Get(collection)
		if !ok {
			continue
		}
		p := Policy{Collection: collection, Whitelisted: e.Whitelisted, FeeBps: e.FeeBps}
		if e.FloorPrice != nil {
			p.FloorPrice = new(big.Int).Set(e.FloorPrice)
		}
		policies = append(policies, p)
	}
	return policies
}

// Restore reloads a persisted policy entry at boot. Not owner-gated; callers
// feed it trusted storage contents only.
func (m *Manager) Restore(p Policy) error {
	if m == nil {
		return errNilManager
	}
	if p.Collection == ([20]byte{}) {
		return errZeroAddress
	}
	floor := big.NewInt(0)
	if p.FloorPrice != nil {
		floor = new(big.Int).Set(p.FloorPrice)
	}
	e := &entry{Whitelisted: p.Whitelisted, FeeBps: p.FeeBps, FloorPrice: floor}
	if m.entries.Contains(p.Collection) {
		return m.entries.Update(p.Collection, e)
	}
	return m.entries.Put(p.Collection, e)
}
