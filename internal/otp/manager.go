// Package otp issues and verifies short-lived, single-use numeric codes
// bound to a recipient (an email address).
//
// Lifecycle per recipient:
//
//	NONE -> ISSUED -> CONSUMED (deleted on the first matching Verify)
//	              \-> EXPIRED  (deleted when an expired challenge is looked up)
//
// Issue may be called in any state and overwrites whatever was there.
package otp

import (
	"context"
	"crypto/subtle"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/credvault/internal/common"
)

// Defaults for NewManager.
const (
	DefaultValidity  = 5 * time.Minute
	DefaultRetention = time.Hour
)

const lockStripes = 64

// Challenge is one live code for one recipient.
type Challenge struct {
	Recipient string    `cbor:"1,keyasint"`
	Code      string    `cbor:"2,keyasint"`
	IssuedAt  time.Time `cbor:"3,keyasint"`
	ExpiresAt time.Time `cbor:"4,keyasint"`
}

// Expired reports whether the challenge can no longer be redeemed at now.
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Store keeps at most one challenge per recipient. Entries are kept for
// the ttl passed to Put; the Manager picks a ttl longer than the challenge
// validity so that expired challenges can still be reported as expired.
type Store interface {
	Put(ctx context.Context, recipient string, ch Challenge, ttl time.Duration) error
	Get(ctx context.Context, recipient string) (Challenge, bool, error)
	Delete(ctx context.Context, recipient string) error
	// Consume deletes the challenge of recipient only if it still carries
	// code, and reports whether it did. Of several concurrent callers at
	// most one gets true, even across processes sharing the store.
	Consume(ctx context.Context, recipient, code string) (bool, error)
}

// Manager issues and verifies challenges. Every Issue and Verify for one
// recipient runs under that recipient's lock. Locks are process-local;
// redemption goes through Store.Consume, so a code held in a shared store is
// redeemed at most once across processes too.
type Manager struct {
	store     Store
	validity  time.Duration
	retention time.Duration
	digits    int
	now       func() time.Time
	newCode   func(digits int) (string, error)

	locks [lockStripes]sync.Mutex
}

// Option customizes a Manager.
type Option func(*Manager)

// WithValidity sets how long an issued code can be redeemed.
func WithValidity(d time.Duration) Option {
	return func(m *Manager) { m.validity = d }
}

// WithRetention sets how long an expired challenge stays observable.
func WithRetention(d time.Duration) Option {
	return func(m *Manager) { m.retention = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithCodeGenerator replaces the crypto/rand code source.
func WithCodeGenerator(gen func(digits int) (string, error)) Option {
	return func(m *Manager) { m.newCode = gen }
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		validity:  DefaultValidity,
		retention: DefaultRetention,
		digits:    common.OTPDigits,
		now:       time.Now,
		newCode:   common.MakeNumericCode,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Validity is the redemption window of new challenges.
func (m *Manager) Validity() time.Duration {
	return m.validity
}

// NormalizeRecipient trims and lower-cases an address so that it can be
// used as a store key.
func NormalizeRecipient(recipient string) string {
	return strings.ToLower(strings.TrimSpace(recipient))
}

func (m *Manager) lock(recipient string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return &m.locks[h.Sum32()%lockStripes]
}

// Issue creates a fresh code for recipient, replacing any previous one, and
// returns it for delivery. The Manager never delivers codes itself.
func (m *Manager) Issue(ctx context.Context, recipient string) (string, error) {
	recipient = NormalizeRecipient(recipient)

	code, err := m.newCode(m.digits)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	now := m.now()
	ch := Challenge{
		Recipient: recipient,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.validity),
	}

	mu := m.lock(recipient)
	mu.Lock()
	defer mu.Unlock()

	if err := m.store.Put(ctx, recipient, ch, m.validity+m.retention); err != nil {
		return "", fmt.Errorf("store challenge: %w", err)
	}
	return code, nil
}

// Verify redeems code for recipient. It returns common.ErrOTPInvalid when
// there is no challenge or the code does not match (the challenge is kept
// for another try), and common.ErrOTPExpired when the challenge is past its
// deadline (the challenge is dropped). A matching code succeeds once and
// consumes the challenge.
func (m *Manager) Verify(ctx context.Context, recipient, code string) error {
	recipient = NormalizeRecipient(recipient)

	mu := m.lock(recipient)
	mu.Lock()
	defer mu.Unlock()

	ch, ok, err := m.store.Get(ctx, recipient)
	if err != nil {
		return fmt.Errorf("load challenge: %w", err)
	}
	if !ok {
		return common.ErrOTPInvalid
	}

	if ch.Expired(m.now()) {
		if err := m.store.Delete(ctx, recipient); err != nil {
			return fmt.Errorf("drop expired challenge: %w", err)
		}
		return common.ErrOTPExpired
	}

	if subtle.ConstantTimeCompare([]byte(ch.Code), []byte(code)) != 1 {
		return common.ErrOTPInvalid
	}

	consumed, err := m.store.Consume(ctx, recipient, ch.Code)
	if err != nil {
		return fmt.Errorf("consume challenge: %w", err)
	}
	if !consumed {
		// redeemed or replaced by another process since the read
		return common.ErrOTPInvalid
	}
	return nil
}
