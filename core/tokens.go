package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryAccessTokenStore is the default in-process token cache. Entries
// live in a sync.Map so a writer refreshing one connector's token never
// blocks readers of unrelated keys.
type MemoryAccessTokenStore struct {
	entries sync.Map
	now     func() time.Time
}

func NewMemoryAccessTokenStore() *MemoryAccessTokenStore {
	return &MemoryAccessTokenStore{
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryAccessTokenStore) Get(_ context.Context, key AccessTokenKey) (AccessToken, bool, error) {
	if s == nil {
		return AccessToken{}, false, fmt.Errorf("core: access token store is nil")
	}
	if err := validateTokenKey(key); err != nil {
		return AccessToken{}, false, err
	}
	value, ok := s.entries.Load(key)
	if !ok {
		return AccessToken{}, false, nil
	}
	token, ok := value.(AccessToken)
	if !ok {
		return AccessToken{}, false, nil
	}
	if token.IsExpired(s.clock()) {
		s.entries.Delete(key)
		return AccessToken{}, false, nil
	}
	return token, true, nil
}

func (s *MemoryAccessTokenStore) Put(_ context.Context, key AccessTokenKey, token AccessToken) error {
	if s == nil {
		return fmt.Errorf("core: access token store is nil")
	}
	if err := validateTokenKey(key); err != nil {
		return err
	}
	if token.Token.IsEmpty() {
		return fmt.Errorf("core: access token value is required")
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = s.clock()
	}
	s.entries.Store(key, token)
	return nil
}

func (s *MemoryAccessTokenStore) Delete(_ context.Context, key AccessTokenKey) error {
	if s == nil {
		return fmt.Errorf("core: access token store is nil")
	}
	if err := validateTokenKey(key); err != nil {
		return err
	}
	s.entries.Delete(key)
	return nil
}

func (s *MemoryAccessTokenStore) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

func validateTokenKey(key AccessTokenKey) error {
	if normalizeID(key.Connector) == "" {
		return fmt.Errorf("core: access token key requires a connector")
	}
	if normalizeID(key.MerchantConnectorAccountID) == "" {
		return fmt.Errorf("core: access token key requires a merchant connector account id")
	}
	return nil
}

var _ AccessTokenStore = (*MemoryAccessTokenStore)(nil)
