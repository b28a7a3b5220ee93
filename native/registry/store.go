package registry

import (
	"fmt"

	"nftmarket/native/common"
)

// Key identifies a sale item inside one engine.
type Key struct {
	Collection [20]byte
	AssetID    uint64
}

type sellerKey struct {
	Seller     [20]byte
	Collection [20]byte
}

// Store is the enumerable item store shared by the sale engines. Every item
// is indexed twice: in the global per-collection list and in the seller's
// per-collection list. Both views use swap-delete removal, so position maps
// and backing arrays stay mutually consistent and at most one unrelated item
// is reordered per removal.
type Store[T any] struct {
	global map[[20]byte]*List[Key, T]
	owned  map[sellerKey]*List[Key, Key]
	seller map[Key][20]byte
}

// NewStore returns an empty store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{
		global: make(map[[20]byte]*List[Key, T]),
		owned:  make(map[sellerKey]*List[Key, Key]),
		seller: make(map[Key][20]byte),
	}
}

// Insert records the item under both views. At most one active item may exist
// per key.
func (s *Store[T]) Insert(collection [20]byte, assetID uint64, seller [20]byte, item T) error {
	key := Key{Collection: collection, AssetID: assetID}
	if _, ok := s.seller[key]; ok {
		return fmt.Errorf("registry: item already active: %w", common.ErrInvalidInput)
	}
	global, ok := s.global[collection]
	if !ok {
		global = NewList[Key, T]()
		s.global[collection] = global
	}
	if err := global.Put(key, item); err != nil {
		return err
	}
	sk := sellerKey{Seller: seller, Collection: collection}
	owned, ok := s.owned[sk]
	if !ok {
		owned = NewList[Key, Key]()
		s.owned[sk] = owned
	}
	if err := owned.Put(key, key); err != nil {
		// Roll back the global insert so failure leaves no partial state.
		_, _ = global.Delete(key)
		return err
	}
	s.seller[key] = seller
	return nil
}

// Update replaces the stored item without touching either index.
func (s *Store[T]) Update(collection [20]byte, assetID uint64, item T) error {
	key := Key{Collection: collection, AssetID: assetID}
	global, ok := s.global[collection]
	if !ok {
		return fmt.Errorf("registry: item not active: %w", common.ErrNotFound)
	}
	return global.Update(key, item)
}

// Remove swap-deletes the item from both views and returns it.
func (s *Store[T]) Remove(collection [20]byte, assetID uint64) (T, error) {
	key := Key{Collection: collection, AssetID: assetID}
	seller, ok := s.seller[key]
	if !ok {
		var zero T
		return zero, fmt.Errorf("registry: item not active: %w", common.ErrNotFound)
	}
	global := s.global[collection]
	item, err := global.Delete(key)
	if err != nil {
		var zero T
		return zero, err
	}
	sk := sellerKey{Seller: seller, Collection: collection}
	if owned, ok := s.owned[sk]; ok {
		_, _ = owned.Delete(key)
		if owned.Len() == 0 {
			delete(s.owned, sk)
		}
	}
	if global.Len() == 0 {
		delete(s.global, collection)
	}
	delete(s.seller, key)
	return item, nil
}

// Get returns the active item for the key, if any.
func (s *Store[T]) Get(collection [20]byte, assetID uint64) (T, bool) {
	key := Key{Collection: collection, AssetID: assetID}
	global, ok := s.global[collection]
	if !ok {
		var zero T
		return zero, false
	}
	return global.Get(key)
}

// SellerOf returns the seller recorded for an active item.
func (s *Store[T]) SellerOf(collection [20]byte, assetID uint64) ([20]byte, bool) {
	seller, ok := s.seller[Key{Collection: collection, AssetID: assetID}]
	return seller, ok
}

// Count returns the number of active items in the collection's global view.
func (s *Store[T]) Count(collection [20]byte) int {
	global, ok := s.global[collection]
	if !ok {
		return 0
	}
	return global.Len()
}

// ByIndex returns the item at position i of the collection's global view.
func (s *Store[T]) ByIndex(collection [20]byte, i int) (T, error) {
	global, ok := s.global[collection]
	if !ok {
		var zero T
		return zero, fmt.Errorf("registry: index %d out of bounds: %w", i, common.ErrNotFound)
	}
	return global.ByIndex(i)
}

// CountOf returns the number of the seller's active items in the collection.
func (s *Store[T]) CountOf(seller [20]byte, collection [20]byte) int {
	owned, ok := s.owned[sellerKey{Seller: seller, Collection: collection}]
	if !ok {
		return 0
	}
	return owned.Len()
}

// OfOwnerByIndex returns the item at position i of the seller's view.
func (s *Store[T]) OfOwnerByIndex(seller [20]byte, collection [20]byte, i int) (T, error) {
	owned, ok := s.owned[sellerKey{Seller: seller, Collection: collection}]
	if !ok {
		var zero T
		return zero, fmt.Errorf("registry: index %d out of bounds: %w", i, common.ErrNotFound)
	}
	key, err := owned.ByIndex(i)
	if err != nil {
		var zero T
		return zero, err
	}
	item, ok := s.global[collection].Get(key)
	if !ok {
		var zero T
		return zero, fmt.Errorf("registry: index %d out of bounds: %w", i, common.ErrNotFound)
	}
	return item, nil
}

// Keys returns the active keys of the collection's global view in enumeration
// order. Used to restore persisted items at boot.
func (s *Store[T]) Keys(collection [20]byte) []Key {
	global, ok := s.global[collection]
	if !ok {
		return nil
	}
	return global.Keys()
}
