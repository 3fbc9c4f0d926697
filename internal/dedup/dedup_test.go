package dedup

import (
	"context"
	"testing"
	"time"
)

func TestNewWithEmptyAddrIsDisabled(t *testing.T) {
	store, err := New("", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if store != nil {
		t.Fatal("expected a nil, disabled store for an empty address")
	}
}

func TestDisabledStoreSeenAndRememberAreNoops(t *testing.T) {
	var store *Store
	if _, found := store.Seen(context.Background(), "delivery-1"); found {
		t.Fatal("expected a nil store to never report a delivery as seen")
	}
	// Must not panic.
	store.Remember(context.Background(), "delivery-1", 200)
}

func TestKeyIsNamespaced(t *testing.T) {
	if got := key("abc"); got != "fisher:delivery:abc" {
		t.Fatalf("unexpected key: %s", got)
	}
}
