package collections

import (
	"errors"
	"math/big"
	"testing"

	"nftmarket/native/common"
)

func addr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

func TestWhitelistLifecycle(t *testing.T) {
	owner := addr(0x01)
	col := addr(0xC1)
	m := NewManager(owner)

	if m.IsWhitelisted(col) {
		t.Fatalf("unknown collection reported whitelisted")
	}
	if err := m.SetWhitelisted(addr(0x02), col, true); !errors.Is(err, common.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for non-owner, got %v", err)
	}
	if err := m.SetWhitelisted(owner, col, true); err != nil {
		t.Fatalf("whitelist: %v", err)
	}
	if !m.IsWhitelisted(col) {
		t.Fatalf("collection not whitelisted after set")
	}
	if err := m.SetWhitelisted(owner, col, false); err != nil {
		t.Fatalf("unwhitelist: %v", err)
	}
	if m.IsWhitelisted(col) {
		t.Fatalf("collection still whitelisted after unset")
	}
	if got := m.Collections(); len(got) != 1 || got[0] != col {
		t.Fatalf("unexpected enumeration: %v", got)
	}
}

func TestFeeBounds(t *testing.T) {
	owner := addr(0x01)
	col := addr(0xC1)
	m := NewManager(owner)
	if err := m.SetWhitelisted(owner, col, true); err != nil {
		t.Fatalf("whitelist: %v", err)
	}
	if err := m.SetFeeBps(owner, col, 5_001); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput above 50%%, got %v", err)
	}
	if err := m.SetFeeBps(owner, col, 5_000); err != nil {
		t.Fatalf("set max fee: %v", err)
	}
	fee, err := m.FeeBps(col)
	if err != nil || fee != 5_000 {
		t.Fatalf("fee = %d err = %v", fee, err)
	}
	if _, err := m.FeeBps(addr(0xC2)); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown collection, got %v", err)
	}
}

func TestFloorPrice(t *testing.T) {
	owner := addr(0x01)
	col := addr(0xC1)
	m := NewManager(owner)
	if err := m.SetWhitelisted(owner, col, true); err != nil {
		t.Fatalf("whitelist: %v", err)
	}
	if err := m.SetFloorPrice(owner, col, big.NewInt(0)); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero floor, got %v", err)
	}
	if err := m.SetFloorPrice(owner, col, big.NewInt(1)); err != nil {
		t.Fatalf("set floor: %v", err)
	}
	floor, err := m.FloorPrice(col)
	if err != nil || floor.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("floor = %s err = %v", floor, err)
	}
}
