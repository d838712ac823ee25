package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v4"
)

// EnvToken overrides the session file when set.
const EnvToken = "KANBAN_TOKEN"

// DefaultTTL matches the lifetime of the original jwtToken cookie.
const DefaultTTL = 7 * 24 * time.Hour

type Session struct {
	Token     string    `json:"jwtToken"`
	Source    string    `json:"source"`     // "env" | "file"
	CreatedAt time.Time `json:"created_at"` // when Set wrote the file
	ExpiresAt time.Time `json:"expires_at"` // zero for env tokens
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionStore keeps the token in a 0600 JSON file. Its presence gates every
// board command.
type SessionStore struct {
	path   string
	ttl    time.Duration
	now    func() time.Time
	getenv func(string) string
}

func NewSessionStore(path string, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionStore{path: path, ttl: ttl, now: time.Now, getenv: os.Getenv}
}

// Path of the session file.
func (s *SessionStore) Path() string { return s.path }

// Current returns the active session, or nil when logged out. An expired
// session file is removed, like a cookie the browser dropped.
func (s *SessionStore) Current() (*Session, error) {
	// 1) env override
	if env := strings.TrimSpace(s.getenv(EnvToken)); env != "" {
		return &Session{Token: stripBearer(env), Source: "env"}, nil
	}

	// 2) file
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // not logged in
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := sonic.ConfigStd.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	sess.Token = stripBearer(strings.TrimSpace(sess.Token))
	if sess.Token == "" || sess.Expired(s.now()) {
		if err := s.Delete(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &sess, nil
}

// Set stores token. The session expires after the store's TTL, or earlier if
// the token is a JWT whose exp claim comes first.
func (s *SessionStore) Set(token string) (*Session, error) {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return nil, errors.New("empty token")
	}
	now := s.now()
	sess := &Session{
		Token:     token,
		Source:    "file",
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if exp, ok := TokenExpiry(token); ok && exp.Before(sess.ExpiresAt) {
		sess.ExpiresAt = exp
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	b, err := sonic.ConfigStd.MarshalIndent(sess, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	return sess, nil
}

// Delete removes the session file. Removing a missing file is not an error.
func (s *SessionStore) Delete() error {
	if err := os.Remove(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// Claims decodes the payload of a JWT without verifying its signature. It is
// only meant for showing who is logged in.
func Claims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// TokenExpiry returns the exp claim of a JWT, if it has one.
func TokenExpiry(token string) (time.Time, bool) {
	claims, err := Claims(token)
	if err != nil {
		return time.Time{}, false
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(int64(exp), 0), true
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
