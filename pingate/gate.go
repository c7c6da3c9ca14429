/*
Package pingate is the authorization collaborator in front of the ledger.

PURPOSE:
  Mutating ledger operations (settlement, adjustments, config changes)
  must only be invoked after this gate grants a time-boxed session. The
  gate mints an opaque capability token on a correct PIN; callers present
  the token with each guarded call. The ledger itself never checks
  credentials - it trusts whoever holds a valid token.

CREDENTIAL STORAGE:
  The gate does not store credentials. It reads and writes the opaque PIN
  fields through the Credentials interface (backed by the ledger config),
  so the persisted document stays the single source of truth.

RECOVERY:
  A forgotten PIN is reset through the recovery question: the answer is
  compared case-insensitively after trimming, matching how it was set.
*/
package pingate

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an unlock lasts before relocking.
const DefaultSessionTTL = 5 * time.Minute

var (
	// ErrWrongPIN is returned for an unlock attempt with a bad PIN.
	ErrWrongPIN = errors.New("wrong pin")

	// ErrWrongAnswer is returned for a failed recovery attempt.
	ErrWrongAnswer = errors.New("wrong recovery answer")

	// ErrNotAuthorized is returned for a missing, unknown, or expired token.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNoRecovery is returned when no recovery answer was ever configured.
	ErrNoRecovery = errors.New("no recovery question configured")
)

// Credentials is the gate's view of the stored PIN fields. The ledger
// implements it over its config.
type Credentials interface {
	PINData() (pin, hint, question, answer string)
	SetPINData(pin, hint, question, answer string) error
}

// Token is the capability handed to callers of guarded operations.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Gate issues and validates session tokens.
type Gate struct {
	mu      sync.Mutex
	creds   Credentials
	ttl     time.Duration
	now     func() time.Time
	session *Token
}

func New(creds Credentials) *Gate {
	return &Gate{creds: creds, ttl: DefaultSessionTTL, now: time.Now}
}

// NewWithClock injects session length and clock, for tests.
func NewWithClock(creds Credentials, ttl time.Duration, now func() time.Time) *Gate {
	return &Gate{creds: creds, ttl: ttl, now: now}
}

// Unlock checks the PIN and, on success, mints a fresh session token.
// Any previous session is replaced.
func (g *Gate) Unlock(pin string) (Token, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	stored, _, _, _ := g.creds.PINData()
	if pin != stored {
		return Token{}, ErrWrongPIN
	}
	tok := Token{Value: uuid.NewString(), ExpiresAt: g.now().Add(g.ttl)}
	g.session = &tok
	return tok, nil
}

// Authorize validates a presented token value against the active session.
func (g *Gate) Authorize(tokenValue string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session == nil || tokenValue == "" || tokenValue != g.session.Value {
		return ErrNotAuthorized
	}
	if g.now().After(g.session.ExpiresAt) {
		g.session = nil
		return ErrNotAuthorized
	}
	return nil
}

// Relock ends the active session immediately.
func (g *Gate) Relock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = nil
}

// Hint returns the stored PIN hint for the lock screen.
func (g *Gate) Hint() string {
	_, hint, _, _ := g.creds.PINData()
	return hint
}

// RecoveryQuestion returns the stored question, or "" when recovery was
// never configured.
func (g *Gate) RecoveryQuestion() string {
	_, _, question, _ := g.creds.PINData()
	return question
}

// ChangePIN replaces the credential fields. Requires an authorized session.
func (g *Gate) ChangePIN(tokenValue, newPIN, hint, question, answer string) error {
	if err := g.Authorize(tokenValue); err != nil {
		return err
	}
	return g.creds.SetPINData(newPIN, hint, question, answer)
}

// Recover resets the PIN via the recovery answer. The comparison is
// case-insensitive and whitespace-trimmed. Recovery does not open a
// session; the caller unlocks with the new PIN afterwards.
func (g *Gate) Recover(answer, newPIN string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, hint, question, stored := g.creds.PINData()
	if stored == "" {
		return ErrNoRecovery
	}
	if normalizeAnswer(answer) != normalizeAnswer(stored) {
		return ErrWrongAnswer
	}
	return g.creds.SetPINData(newPIN, hint, question, stored)
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
