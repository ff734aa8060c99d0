package revocation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/Jeffreasy/mimo-auth/internal/revocation"
)

// fakeDB is a minimal in-memory stand-in for *pgxpool.Pool satisfying the
// package's unexported dbtx interface structurally: same method set, same
// signatures, no real Postgres required.
type fakeDB struct {
	mu   sync.Mutex
	jtis map[string]bool
}

func newFakeDB() *fakeDB { return &fakeDB{jtis: map[string]bool{}} }

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	jti := args[0].(string)
	f.jtis[jti] = true
	return pgconn.CommandTag{}, nil
}

type fakeRow struct {
	exists bool
}

func (r fakeRow) Scan(dest ...any) error {
	*(dest[0].(*bool)) = r.exists
	return nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	jti := args[0].(string)
	return fakeRow{exists: f.jtis[jti]}
}

func TestIndex_RevokeThenIsRevoked(t *testing.T) {
	idx, err := revocation.New(newFakeDB())
	require.NoError(t, err)

	ctx := context.Background()
	revoked, err := idx.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, idx.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = idx.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestIndex_IsRevokedTrueRightAfterRevoke(t *testing.T) {
	idx, err := revocation.New(newFakeDB())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, idx.Revoke(ctx, "jti-2", time.Now().Add(time.Hour)))

	revoked, err := idx.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	require.True(t, revoked)
}
