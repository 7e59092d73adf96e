// Package kvstore keeps profile documents as JSON values in a kv.Store.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pliu/newsportal/internal/kv"
	"github.com/pliu/newsportal/internal/models"
	"github.com/pliu/newsportal/internal/store"
)

// KVStore is the Store of a single profile.
type KVStore struct {
	kv kv.Store
}

var _ store.Store = (*KVStore)(nil)

func New(s kv.Store) *KVStore {
	return &KVStore{kv: s}
}

// Profiles namespaces one shared kv.Store by profile id.
type Profiles struct {
	KV kv.Store
}

var _ store.Profiles = Profiles{}

func (p Profiles) Profile(profileID string) store.Store {
	return New(kv.WithPrefix(p.KV, "profile:"+profileID+":"))
}

func (s *KVStore) GetUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.load(ctx, store.UserKey, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *KVStore) SaveUser(ctx context.Context, user models.User) error {
	return s.save(ctx, store.UserKey, user)
}

func (s *KVStore) DeleteUser(ctx context.Context) error {
	return s.kv.Delete(ctx, store.UserKey)
}

func (s *KVStore) GetMessages(ctx context.Context) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	if err := s.load(ctx, store.ChatMessagesKey, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *KVStore) SaveMessages(ctx context.Context, messages []models.ChatMessage) error {
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return s.save(ctx, store.ChatMessagesKey, messages)
}

func (s *KVStore) load(ctx context.Context, key string, v any) error {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w: %v", key, store.ErrCorrupt, err)
	}
	return nil
}

func (s *KVStore) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
