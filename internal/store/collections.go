package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ReadList loads a collection for display. A missing key is an empty list;
// undecodable data is logged and also treated as empty.
func ReadList[T any](ctx context.Context, s Store, key Key, log *zap.Logger) []T {
	data, err := s.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && log != nil {
			log.Warn("failed to read collection", zap.String("key", string(key)), zap.Error(err))
		}
		return []T{}
	}
	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		if log != nil {
			log.Warn("failed to parse collection, treating as empty", zap.String("key", string(key)), zap.Error(err))
		}
		return []T{}
	}
	if list == nil {
		list = []T{}
	}
	return list
}

// DecodeList loads a collection inside an Update. Unlike ReadList it refuses
// corrupt data so a write never replaces it with a truncated list.
func DecodeList[T any](tx Tx, key Key) ([]T, error) {
	data, err := tx.Get(key)
	if errors.Is(err, ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrCorrupt, key, err)
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

func EncodeList[T any](tx Tx, key Key, list []T) error {
	if list == nil {
		list = []T{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return tx.Put(key, data)
}

// WriteList replaces a whole collection outside of a transaction.
func WriteList[T any](ctx context.Context, s Store, key Key, list []T) error {
	if list == nil {
		list = []T{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}

// Initialize writes every seed collection whose key is absent and returns the
// keys it wrote. Existing data is never touched.
func Initialize(ctx context.Context, s Store, seed map[Key][]byte) ([]Key, error) {
	var written []Key
	for _, key := range Collections {
		data, ok := seed[key]
		if !ok {
			data = []byte("[]")
		}
		_, err := s.Get(ctx, key)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return written, fmt.Errorf("check %s: %w", key, err)
		}
		if err := s.Put(ctx, key, data); err != nil {
			return written, fmt.Errorf("seed %s: %w", key, err)
		}
		written = append(written, key)
	}
	return written, nil
}

// Reset overwrites every collection with the seed.
func Reset(ctx context.Context, s Store, seed map[Key][]byte) error {
	return s.Update(ctx, Collections, func(tx Tx) error {
		for _, key := range Collections {
			data, ok := seed[key]
			if !ok {
				data = []byte("[]")
			}
			if err := tx.Put(key, data); err != nil {
				return err
			}
		}
		return nil
	})
}
