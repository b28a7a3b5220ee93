package registry

import (
	"errors"
	"testing"

	"nftmarket/native/common"
)

func checkListInvariant(t *testing.T, l *List[int, string]) {
	t.Helper()
	if len(l.entries) != len(l.positions) {
		t.Fatalf("entries/positions size mismatch: %d vs %d", len(l.entries), len(l.positions))
	}
	for i, entry := range l.entries {
		pos, ok := l.positions[entry.key]
		if !ok {
			t.Fatalf("entry at %d has no recorded position", i)
		}
		if pos != i {
			t.Fatalf("entry %v reports position %d but occupies %d", entry.key, pos, i)
		}
	}
}

func TestListPutDuplicate(t *testing.T) {
	l := NewList[int, string]()
	if err := l.Put(1, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := l.Put(1, "b")
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	checkListInvariant(t, l)
}

func TestListSwapDelete(t *testing.T) {
	l := NewList[int, string]()
	for i, v := range []string{"a", "b", "c", "d"} {
		if err := l.Put(i, v); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}
	removed, err := l.Delete(1)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != "b" {
		t.Fatalf("unexpected removed value %q", removed)
	}
	checkListInvariant(t, l)
	if l.Len() != 3 {
		t.Fatalf("unexpected length %d", l.Len())
	}
	// The previously-last entry must occupy the freed slot.
	got, err := l.ByIndex(1)
	if err != nil {
		t.Fatalf("byIndex: %v", err)
	}
	if got != "d" {
		t.Fatalf("expected swapped entry at slot 1, got %q", got)
	}
}

func TestListDeleteLast(t *testing.T) {
	l := NewList[int, string]()
	if err := l.Put(7, "x"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := l.Delete(7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if l.Len() != 0 {
		t.Fatalf("expected empty list, got %d", l.Len())
	}
	if _, err := l.Delete(7); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	checkListInvariant(t, l)
}

func TestListByIndexOutOfRange(t *testing.T) {
	l := NewList[int, string]()
	if _, err := l.ByIndex(0); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := l.ByIndex(-1); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListInvariantUnderChurn(t *testing.T) {
	l := NewList[int, string]()
	for i := 0; i < 64; i++ {
		if err := l.Put(i, "v"); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}
	// Remove every third key, then re-add half of them, checking the
	// position map after every mutation.
	for i := 0; i < 64; i += 3 {
		if _, err := l.Delete(i); err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
		checkListInvariant(t, l)
	}
	for i := 0; i < 64; i += 6 {
		if err := l.Put(i, "again"); err != nil {
			t.Fatalf("re-put %d: %v", i, err)
		}
		checkListInvariant(t, l)
	}
}
