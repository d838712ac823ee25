// Package redisstore keeps the board collections in Redis, one string value
// per collection key.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/kanban/internal/store"
)

// DefaultPrefix namespaces the collection keys.
const DefaultPrefix = "kanban:"

type Store struct {
	client *redis.Client
	prefix string
	log    logrus.FieldLogger
}

// New wraps an existing client.
func New(client *redis.Client, prefix string, log logrus.FieldLogger) *Store {
	if client == nil {
		panic("redisstore.New: client is nil")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{client: client, prefix: prefix, log: log}
}

// Open connects using a redis:// URL or a bare "host:port[,password=...]"
// connection string and pings the server.
func Open(ctx context.Context, conn, prefix string, log logrus.FieldLogger) (*Store, error) {
	opts, err := parseConn(conn)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(client, prefix, log), nil
}

func parseConn(conn string) (*redis.Options, error) {
	conn = strings.TrimSpace(conn)
	if conn == "" {
		return nil, errors.New("redis connection string is empty")
	}
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts, nil
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "user", "username":
			opts.Username = kv[1]
		}
	}
	return opts, nil
}

// Close releases the client.
func (s *Store) Close() error { return s.client.Close() }

func (s *Store) redisKey(key string) (string, error) {
	if err := store.CheckKey(key); err != nil {
		return "", err
	}
	return s.prefix + key, nil
}

func (s *Store) Load(ctx context.Context, key string, dst any) (bool, error) {
	k, err := s.redisKey(key)
	if err != nil {
		return false, err
	}
	data, err := s.client.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get %s: %w", k, err)
	}
	if err := store.Unmarshal(data, dst); err != nil {
		s.log.WithField("key", k).WithError(err).Warn("stored collection is not parseable, treating as absent")
		return false, nil
	}
	return true, nil
}

func (s *Store) Save(ctx context.Context, key string, value any) error {
	k, err := s.redisKey(key)
	if err != nil {
		return err
	}
	data, err := store.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, k, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	s.log.WithFields(logrus.Fields{"key": k, "bytes": len(data)}).Debug("collection saved")
	return nil
}
