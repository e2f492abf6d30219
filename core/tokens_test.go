package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryAccessTokenStore_PutGetDelete(t *testing.T) {
	store := NewMemoryAccessTokenStore()
	key := AccessTokenKey{Connector: "globalpay", MerchantConnectorAccountID: "mca_1"}

	if _, ok, err := store.Get(context.Background(), key); err != nil || ok {
		t.Fatalf("expected empty store, ok=%t err=%v", ok, err)
	}

	token := AccessToken{Token: NewSecret("bearer_1"), ExpiresIn: time.Hour}
	if err := store.Put(context.Background(), key, token); err != nil {
		t.Fatalf("put token: %v", err)
	}

	got, ok, err := store.Get(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("expected cached token, ok=%t err=%v", ok, err)
	}
	if got.Token.Expose() != "bearer_1" {
		t.Fatalf("unexpected token value")
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("put must stamp CreatedAt")
	}

	if err := store.Delete(context.Background(), key); err != nil {
		t.Fatalf("delete token: %v", err)
	}
	if _, ok, _ := store.Get(context.Background(), key); ok {
		t.Fatalf("expected token to be deleted")
	}
}

func TestMemoryAccessTokenStore_ExpiredTokensEvicted(t *testing.T) {
	store := NewMemoryAccessTokenStore()
	store.now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	key := AccessTokenKey{Connector: "globalpay", MerchantConnectorAccountID: "mca_1"}
	stale := AccessToken{
		Token:     NewSecret("stale"),
		ExpiresIn: time.Minute,
		CreatedAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
	}
	if err := store.Put(context.Background(), key, stale); err != nil {
		t.Fatalf("put token: %v", err)
	}
	if _, ok, _ := store.Get(context.Background(), key); ok {
		t.Fatalf("expired token must not be returned")
	}
}

func TestMemoryAccessTokenStore_KeyValidation(t *testing.T) {
	store := NewMemoryAccessTokenStore()
	bad := AccessTokenKey{Connector: "globalpay"}
	if err := store.Put(context.Background(), bad, AccessToken{Token: NewSecret("t")}); err == nil {
		t.Fatalf("expected key validation error")
	}
	good := AccessTokenKey{Connector: "globalpay", MerchantConnectorAccountID: "mca_1"}
	if err := store.Put(context.Background(), good, AccessToken{}); err == nil {
		t.Fatalf("expected empty token error")
	}
}

func TestMemoryAccessTokenStore_UnrelatedKeysDoNotContend(t *testing.T) {
	store := NewMemoryAccessTokenStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := AccessTokenKey{
				Connector:                  "checkout",
				MerchantConnectorAccountID: string(rune('a' + id)),
			}
			for j := 0; j < 50; j++ {
				_ = store.Put(context.Background(), key, AccessToken{Token: NewSecret("t"), ExpiresIn: time.Hour})
				_, _, _ = store.Get(context.Background(), key)
			}
		}(i)
	}
	wg.Wait()
}
