package offers

import (
	"fmt"

	"nftmarket/native/common"
	"nftmarket/native/registry"
)

// book tracks standing offers in two enumerable views: per asset keyed by
// offeror, and per offeror keyed by asset. Both views are kept consistent by
// every mutation.
type book struct {
	byItem    map[registry.Key]*registry.List[[20]byte, *Offer]
	byOfferor map[[20]byte]*registry.List[registry.Key, registry.Key]
}

func newBook() *book {
	return &book{
		byItem:    make(map[registry.Key]*registry.List[[20]byte, *Offer]),
		byOfferor: make(map[[20]byte]*registry.List[registry.Key, registry.Key]),
	}
}

func (b *book) insert(offer *Offer) error {
	key := registry.Key{Collection: offer.Collection, AssetID: offer.AssetID}
	itemList, ok := b.byItem[key]
	if !ok {
		itemList = registry.NewList[[20]byte, *Offer]()
		b.byItem[key] = itemList
	}
	if err := itemList.Put(offer.Offeror, offer); err != nil {
		return err
	}
	offerorList, ok := b.byOfferor[offer.Offeror]
	if !ok {
		offerorList = registry.NewList[registry.Key, registry.Key]()
		b.byOfferor[offer.Offeror] = offerorList
	}
	if err := offerorList.Put(key, key); err != nil {
		if _, rollback := itemList.Delete(offer.Offeror); rollback != nil {
			return fmt.Errorf("offers: rollback failed: %v: %w", rollback, err)
		}
		return err
	}
	return nil
}

func (b *book) remove(collection [20]byte, assetID uint64, offeror [20]byte) (*Offer, error) {
	key := registry.Key{Collection: collection, AssetID: assetID}
	itemList, ok := b.byItem[key]
	if !ok {
		return nil, fmt.Errorf("offers: no active offer found: %w", common.ErrNotFound)
	}
	offer, err := itemList.Delete(offeror)
	if err != nil {
		return nil, fmt.Errorf("offers: no active offer found: %w", common.ErrNotFound)
	}
	if itemList.Len() == 0 {
		delete(b.byItem, key)
	}
	if offerorList, ok := b.byOfferor[offeror]; ok {
		if _, err := offerorList.Delete(key); err != nil {
			return nil, err
		}
		if offerorList.Len() == 0 {
			delete(b.byOfferor, offeror)
		}
	}
	return offer, nil
}

func (b *book) get(collection [20]byte, assetID uint64, offeror [20]byte) (*Offer, bool) {
	key := registry.Key{Collection: collection, AssetID: assetID}
	itemList, ok := b.byItem[key]
	if !ok {
		return nil, false
	}
	return itemList.Get(offeror)
}

func (b *book) countForItem(collection [20]byte, assetID uint64) int {
	itemList, ok := b.byItem[registry.Key{Collection: collection, AssetID: assetID}]
	if !ok {
		return 0
	}
	return itemList.Len()
}

func (b *book) forItemByIndex(collection [20]byte, assetID uint64, i int) (*Offer, error) {
	itemList, ok := b.byItem[registry.Key{Collection: collection, AssetID: assetID}]
	if !ok {
		return nil, fmt.Errorf("offers: index %d out of bounds: %w", i, common.ErrNotFound)
	}
	return itemList.ByIndex(i)
}

func (b *book) countForOfferor(offeror [20]byte) int {
	offerorList, ok := b.byOfferor[offeror]
	if !ok {
		return 0
	}
	return offerorList.Len()
}

func (b *book) forOfferorByIndex(offeror [20]byte, i int) (*Offer, error) {
	offerorList, ok := b.byOfferor[offeror]
	if !ok {
		return nil, fmt.Errorf("offers: user bid index out of bounds: %w", common.ErrNotFound)
	}
	key, err := offerorList.KeyByIndex(i)
	if err != nil {
		return nil, fmt.Errorf("offers: user bid index out of bounds: %w", common.ErrNotFound)
	}
	offer, ok := b.get(key.Collection, key.AssetID, offeror)
	if !ok {
		return nil, fmt.Errorf("offers: user bid index out of bounds: %w", common.ErrNotFound)
	}
	return offer, nil
}
