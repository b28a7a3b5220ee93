package storage

import (
	"bytes"
	"errors"
	"testing"
)

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := db.Put([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get([]byte("a"))
	if err != nil || !bytes.Equal(got, []byte("1")) {
		t.Fatalf("get = %q err = %v", got, err)
	}
	ok, err := db.Has([]byte("a"))
	if err != nil || !ok {
		t.Fatalf("has = %v err = %v", ok, err)
	}
	if err := db.Delete([]byte("a")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := db.Has([]byte("a")); ok {
		t.Fatalf("key survived delete")
	}
}

func TestMemDBIteratePrefix(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	entries := map[string]string{
		"item/2": "b",
		"item/1": "a",
		"acct/1": "x",
		"item/3": "c",
	}
	for k, v := range entries {
		if err := db.Put([]byte(k), []byte(v)); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}

	var keys []string
	err := db.Iterate([]byte("item/"), func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	want := []string{"item/1", "item/2", "item/3"}
	if len(keys) != len(want) {
		t.Fatalf("visited %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("visited %v, want %v", keys, want)
		}
	}
}

func TestMemDBIterateStopsOnError(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	_ = db.Put([]byte("k1"), []byte("v"))
	_ = db.Put([]byte("k2"), []byte("v"))

	boom := errors.New("boom")
	visited := 0
	err := db.Iterate([]byte("k"), func(key, value []byte) error {
		visited++
		return boom
	})
	if !errors.Is(err, boom) || visited != 1 {
		t.Fatalf("err = %v visited = %d", err, visited)
	}
}
