package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

type otpEntry struct {
	code    string
	expires time.Time
}

// OTPStore holds one-time codes keyed by e-mail. Expiry is checked on every
// read and a sweeper evicts whatever nobody came back for.
type OTPStore struct {
	mu      sync.Mutex
	entries map[string]otpEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewOTPStore(ttl time.Duration) *OTPStore {
	return &OTPStore{entries: map[string]otpEntry{}, ttl: ttl, now: time.Now}
}

// Issue replaces any previous code for key
func (s *OTPStore) Issue(key string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64()+100000)

	s.mu.Lock()
	s.entries[key] = otpEntry{code: code, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return code, nil
}

// Verify consumes the code on success. Expired codes are evicted.
func (s *OTPStore) Verify(key, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, key)
		return false
	}
	if e.code != code {
		return false
	}
	delete(s.entries, key)
	return true
}

// Sweep removes expired entries and returns how many it removed
func (s *OTPStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

func (s *OTPStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run sweeps every interval until ctx is done
func (s *OTPStore) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}
