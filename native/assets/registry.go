package assets

import (
	"fmt"
	"sync"

	"nftmarket/native/common"
)

// Registry is the asset-ownership collaborator the sale engines consume.
// Minting and metadata stay with the external registry; the engines only move
// custody and check ownership and operator approval.
type Registry interface {
	IsOwner(collection [20]byte, assetID uint64, owner [20]byte) (bool, error)
	ApprovalGranted(collection [20]byte, owner, operator [20]byte) (bool, error)
	TransferCustody(collection [20]byte, assetID uint64, from, to [20]byte) error
}

type assetKey struct {
	Collection [20]byte
	AssetID    uint64
}

type approvalKey struct {
	Collection [20]byte
	Owner      [20]byte
	Operator   [20]byte
}

// Ledger is the in-process Registry implementation used by the daemon and
// tests. Assets enter it through Register (seeded at boot or by an external
// bridge), never through a minting surface of its own.
type Ledger struct {
	mu        sync.RWMutex
	owners    map[assetKey][20]byte
	approvals map[approvalKey]bool
}

// NewLedger returns an empty custody ledger.
func NewLedger() *Ledger {
	return &Ledger{
		owners:    make(map[assetKey][20]byte),
		approvals: make(map[approvalKey]bool),
	}
}

// Register records an asset and its current owner. Registering the same asset
// twice is an error; custody afterwards moves only via TransferCustody.
func (l *Ledger) Register(collection [20]byte, assetID uint64, owner [20]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := assetKey{Collection: collection, AssetID: assetID}
	if _, ok := l.owners[key]; ok {
		return fmt.Errorf("assets: asset already registered: %w", common.ErrInvalidInput)
	}
	l.owners[key] = owner
	return nil
}

// OwnerOf returns the asset's current owner.
func (l *Ledger) OwnerOf(collection [20]byte, assetID uint64) ([20]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	owner, ok := l.owners[assetKey{Collection: collection, AssetID: assetID}]
	if !ok {
		return [20]byte{}, fmt.Errorf("assets: unknown asset: %w", common.ErrNotFound)
	}
	return owner, nil
}

// IsOwner implements Registry.
func (l *Ledger) IsOwner(collection [20]byte, assetID uint64, owner [20]byte) (bool, error) {
	current, err := l.OwnerOf(collection, assetID)
	if err != nil {
		return false, err
	}
	return current == owner, nil
}

// SetApprovalForAll grants or revokes an operator's right to move every asset
// the owner holds in the collection.
func (l *Ledger) SetApprovalForAll(collection [20]byte, owner, operator [20]byte, approved bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := approvalKey{Collection: collection, Owner: owner, Operator: operator}
	if approved {
		l.approvals[key] = true
		return
	}
	delete(l.approvals, key)
}

// ApprovalGranted implements Registry.
func (l *Ledger) ApprovalGranted(collection [20]byte, owner, operator [20]byte) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.approvals[approvalKey{Collection: collection, Owner: owner, Operator: operator}], nil
}

// TransferCustody implements Registry. The from address must be the asset's
// current owner.
func (l *Ledger) TransferCustody(collection [20]byte, assetID uint64, from, to [20]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := assetKey{Collection: collection, AssetID: assetID}
	owner, ok := l.owners[key]
	if !ok {
		return fmt.Errorf("assets: unknown asset: %w", common.ErrNotFound)
	}
	if owner != from {
		return fmt.Errorf("assets: transfer from non-owner: %w", common.ErrUnauthorized)
	}
	if to == ([20]byte{}) {
		return fmt.Errorf("assets: transfer to the zero address: %w", common.ErrInvalidInput)
	}
	l.owners[key] = to
	return nil
}
