// Package store defines the durable key-value port the board repository
// persists through. Every key holds one whole collection as JSON; there are
// no partial updates, transactions or versions.
package store

import (
	"context"
	"fmt"
	"regexp"

	"github.com/bytedance/sonic"
)

// Keys of the durable collections.
const (
	KeyBoards  = "boards"
	KeyColumns = "columns"
	KeyTasks   = "tasks"
)

// Store is implemented by jsonstore and redisstore.
type Store interface {
	// Save serializes value and overwrites whatever key held before.
	Save(ctx context.Context, key string, value any) error
	// Load decodes the value saved under key into dst. found is false when
	// nothing was saved or the stored content does not parse into dst; the
	// content of dst is unspecified in that case. err is reserved for an
	// unavailable backend.
	Load(ctx context.Context, key string, dst any) (found bool, err error)
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// CheckKey rejects keys that cannot be used as a file name or key suffix.
func CheckKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid store key %q", key)
	}
	return nil
}

// Marshal is the codec shared by the adapters.
func Marshal(v any) ([]byte, error) {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return b, nil
}

// Unmarshal decodes data produced by Marshal.
func Unmarshal(data []byte, v any) error {
	if err := sonic.ConfigStd.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}
