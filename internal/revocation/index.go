// Package revocation maintains the durable set of revoked credential
// identifiers, backed by Postgres, with an in-process read-through cache for
// the hot is-revoked check every Access/Refresh decode performs.
package revocation

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Jeffreasy/mimo-auth/internal/auth"
)

// dbtx is the slice of *pgxpool.Pool this package depends on, declared as an
// interface so tests can substitute a fake without a real Postgres
// connection. The method signatures match pgxpool.Pool's exactly.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Index is the durable revocation set. Revoke, IsRevoked, and PruneExpired
// correspond exactly to the spec's contract; the cache is purely an
// acceleration layer with no bearing on correctness.
type Index struct {
	db    dbtx
	cache *ristretto.Cache[string, struct{}]
}

// New constructs an Index against db (typically a *pgxpool.Pool). A
// positive-only cache is built internally: entries are only ever written
// after a confirmed "revoked" answer, so a cache hit can never turn a true
// revocation into a false negative, and a cache miss always falls through
// to Postgres — the single source of truth other workers write to.
func New(db dbtx) (*Index, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters: 1e6,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, auth.Wrap(auth.Internal, "revocation: constructing cache", err)
	}
	return &Index{db: db, cache: cache}, nil
}

// Revoke inserts jti into the durable index with the credential's original
// expiry. Revoking an already-revoked jti is a no-op (ON CONFLICT DO
// NOTHING): logout is idempotent per spec.
func (idx *Index) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := idx.db.Exec(ctx,
		`INSERT INTO revocations (jti, expires_at, revoked_at) VALUES ($1, $2, now())
		 ON CONFLICT (jti) DO NOTHING`,
		jti, expiresAt,
	)
	if err != nil {
		return auth.Wrap(auth.Internal, "revocation: inserting revocation entry", err)
	}
	idx.cache.Set(jti, struct{}{}, 1)
	return nil
}

// IsRevoked reports whether jti has been revoked. A cache hit short-circuits
// the Postgres round trip; a cache miss always consults Postgres, so a
// revoke that just landed on another worker is observed immediately
// (read-your-write across workers).
func (idx *Index) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if _, hit := idx.cache.Get(jti); hit {
		return true, nil
	}

	var exists bool
	err := idx.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM revocations WHERE jti = $1)`, jti,
	).Scan(&exists)
	if err != nil && err != pgx.ErrNoRows {
		return false, auth.Wrap(auth.Internal, "revocation: querying revocation entry", err)
	}
	if exists {
		idx.cache.Set(jti, struct{}{}, 1)
	}
	return exists, nil
}

// PruneExpired deletes every revocation entry whose expires_at has passed.
// Called by the background pruner every 3 days and once at startup.
func (idx *Index) PruneExpired(ctx context.Context) error {
	_, err := idx.db.Exec(ctx, `DELETE FROM revocations WHERE expires_at < now()`)
	if err != nil {
		return auth.Wrap(auth.Internal, "revocation: pruning expired entries", err)
	}
	return nil
}
