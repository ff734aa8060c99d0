// Package verification holds pending verification codes and single-use
// intermediate tokens entirely in memory. A process restart invalidates all
// open workflows, which is acceptable given their 15-30 minute lifetimes.
package verification

import (
	"sync"
	"time"
)

// Workflow identifies which multi-step state machine a code or token
// belongs to.
type Workflow string

const (
	WorkflowRegistration  Workflow = "registration"
	WorkflowPasswordReset Workflow = "password_reset"
)

const (
	codeTTL = 15 * time.Minute
	maxAttempts = 5
)

// CheckResult is the outcome of a CheckCode call.
type CheckResult int

const (
	// CheckMatch means the supplied code matched; the entry has been removed.
	CheckMatch CheckResult = iota
	// CheckMismatch means the supplied code did not match; the entry survives
	// with its attempt counter incremented.
	CheckMismatch
	// CheckNotFound means no pending code exists for this key.
	CheckNotFound
	// CheckExpired means the entry existed but its TTL had passed; it has
	// been removed.
	CheckExpired
	// CheckTooManyAttempts means the attempt cap was already reached; the
	// entry has been removed.
	CheckTooManyAttempts
)

// TokenResult is the outcome of a ConsumeToken call.
type TokenResult int

const (
	TokenConsumed TokenResult = iota
	TokenNotFound
	TokenExpired
	TokenAlreadyUsed
	TokenEmailMismatch
)

type codeKey struct {
	email    string
	workflow Workflow
}

type codeEntry struct {
	mu        sync.Mutex
	code      string
	expiresAt time.Time
	attempts  int
}

type tokenEntry struct {
	mu        sync.Mutex
	email     string
	expiresAt time.Time
	used      bool
}

// Store holds pending verification codes keyed by (email, workflow) and
// single-use intermediate tokens keyed by the token string. Every mutation
// on a given key is serialized through that key's own mutex, mirroring the
// sharded-concurrent-map approach of the original prototype's DashMap
// tables: two operations on different keys never contend, and two on the
// same key always observe a total order.
type Store struct {
	codes  sync.Map // codeKey -> *codeEntry
	tokens sync.Map // string -> *tokenEntry
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{}
}

// PutCode overwrites any prior pending code for (email, workflow) with a
// freshly created one, resetting the attempt counter and TTL.
func (s *Store) PutCode(email string, workflow Workflow, code string) {
	s.codes.Store(codeKey{email: email, workflow: workflow}, &codeEntry{
		code:      code,
		expiresAt: time.Now().Add(codeTTL),
	})
}

// CheckCode performs an atomic read-modify-write against the pending code
// for (email, workflow): a missing, expired, or attempt-exhausted entry is
// removed and reported; otherwise the attempt counter advances and a match
// removes the entry while a mismatch leaves it in place for the next try.
func (s *Store) CheckCode(email string, workflow Workflow, supplied string) CheckResult {
	key := codeKey{email: email, workflow: workflow}
	v, ok := s.codes.Load(key)
	if !ok {
		return CheckNotFound
	}
	entry := v.(*codeEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if time.Now().After(entry.expiresAt) {
		s.codes.CompareAndDelete(key, entry)
		return CheckExpired
	}
	if entry.attempts >= maxAttempts {
		s.codes.CompareAndDelete(key, entry)
		return CheckTooManyAttempts
	}

	entry.attempts++
	if supplied == entry.code {
		s.codes.CompareAndDelete(key, entry)
		return CheckMatch
	}
	return CheckMismatch
}

// PutToken stores a fresh intermediate token bound to email, with a 15
// minute TTL and used=false.
func (s *Store) PutToken(token, email string) {
	s.tokens.Store(token, &tokenEntry{
		email:     email,
		expiresAt: time.Now().Add(codeTTL),
	})
}

// ConsumeToken performs an atomic read-modify-write against the token
// record: expired entries are removed, an already-used entry is left in
// place (so replay remains visible until natural expiry), an email mismatch
// leaves the entry untouched, and a clean consumption flips used to true
// without removing the entry — removal is a separate, explicit step via
// Invalidate, matching the two-call shape of the completing operation.
func (s *Store) ConsumeToken(token, email string) TokenResult {
	v, ok := s.tokens.Load(token)
	if !ok {
		return TokenNotFound
	}
	entry := v.(*tokenEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if time.Now().After(entry.expiresAt) {
		s.tokens.CompareAndDelete(token, entry)
		return TokenExpired
	}
	if entry.used {
		return TokenAlreadyUsed
	}
	if entry.email != email {
		return TokenEmailMismatch
	}
	entry.used = true
	return TokenConsumed
}

// Invalidate removes a token record outright, regardless of its used state.
func (s *Store) Invalidate(token string) {
	s.tokens.Delete(token)
}

// sweep drops every code entry past its expiry and every token entry that
// is either past expiry or already used. Called by the background sweeper.
func (s *Store) sweep(now time.Time) {
	s.codes.Range(func(key, value any) bool {
		entry := value.(*codeEntry)
		entry.mu.Lock()
		expired := now.After(entry.expiresAt)
		entry.mu.Unlock()
		if expired {
			s.codes.CompareAndDelete(key, entry)
		}
		return true
	})
	s.tokens.Range(func(key, value any) bool {
		entry := value.(*tokenEntry)
		entry.mu.Lock()
		drop := now.After(entry.expiresAt) || entry.used
		entry.mu.Unlock()
		if drop {
			s.tokens.CompareAndDelete(key, entry)
		}
		return true
	})
}
