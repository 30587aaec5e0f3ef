package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockConnector hands out connections that grant every advisory lock query
type lockConnector struct{}

func (lockConnector) Connect(context.Context) (driver.Conn, error) { return lockConn{}, nil }
func (lockConnector) Driver() driver.Driver                        { return lockDriver{} }

type lockDriver struct{}

func (lockDriver) Open(string) (driver.Conn, error) { return lockConn{}, nil }

type lockConn struct{}

func (lockConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("prepare not supported") }
func (lockConn) Close() error                        { return nil }
func (lockConn) Begin() (driver.Tx, error)           { return nil, errors.New("transactions not supported") }

func (lockConn) QueryContext(context.Context, string, []driver.NamedValue) (driver.Rows, error) {
	return &trueRows{}, nil
}

type trueRows struct{ done bool }

func (*trueRows) Columns() []string { return []string{"result"} }
func (*trueRows) Close() error      { return nil }

func (r *trueRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	r.done = true
	dest[0] = true
	return nil
}

// newSingleConnLock returns a lock over a pool of one connection
func newSingleConnLock(t *testing.T) (*AdvisoryLock, *sql.DB) {
	t.Helper()
	db := sql.OpenDB(lockConnector{})
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return NewAdvisoryLock(&DB{DB: db}), db
}

func (l *AdvisoryLock) isReserved(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[name]
	return ok
}

func TestHashLockName(t *testing.T) {
	a := hashLockName("document:1")
	b := hashLockName("document:2")

	assert.Equal(t, a, hashLockName("document:1"), "hash must be stable")
	assert.NotEqual(t, a, b)
}

func TestAdvisoryLock_AcquireRelease(t *testing.T) {
	l, _ := newSingleConnLock(t)
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "document:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Acquire(ctx, "document:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held name must not be granted twice")

	require.NoError(t, l.Extend(ctx, "document:1", time.Minute))
	require.NoError(t, l.Release(ctx, "document:1"))
	assert.False(t, l.isReserved("document:1"))
	assert.Error(t, l.Extend(ctx, "document:1", time.Minute))

	ok, err = l.Acquire(ctx, "document:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Release(ctx, "document:1"))
}

func TestAdvisoryLock_ReleaseNotBlockedByPoolWait(t *testing.T) {
	l, db := newSingleConnLock(t)
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "document:a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	type result struct {
		ok  bool
		err error
	}
	waiting := make(chan result, 1)
	go func() {
		ok, err := l.Acquire(ctx, "document:b", time.Minute)
		waiting <- result{ok, err}
	}()

	// The only connection is pinned by document:a
	require.Eventually(t, func() bool { return db.Stats().WaitCount > 0 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, l.isReserved("document:b"))

	ok, err = l.Acquire(ctx, "document:b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "reserved name must not be granted")
	require.NoError(t, l.Release(ctx, "document:b"), "releasing a pending name is a no-op")
	assert.True(t, l.isReserved("document:b"))

	released := make(chan error, 1)
	go func() { released <- l.Release(ctx, "document:a") }()

	select {
	case err := <-released:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Release blocked behind an Acquire waiting for a connection")
	}

	select {
	case r := <-waiting:
		require.NoError(t, r.err)
		assert.True(t, r.ok)
	case <-time.After(2 * time.Second):
		t.Fatal("waiting Acquire never got the released connection")
	}
	require.NoError(t, l.Release(ctx, "document:b"))
}

func TestAdvisoryLock_AcquireTimesOutOnExhaustedPool(t *testing.T) {
	l, _ := newSingleConnLock(t)
	l.timeout = 50 * time.Millisecond
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "document:a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Acquire(ctx, "document:b", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ok)
	assert.False(t, l.isReserved("document:b"), "failed acquire must drop its reservation")

	require.NoError(t, l.Release(ctx, "document:a"))
}

func TestAdvisoryLock_ExpireFreesConnection(t *testing.T) {
	l, _ := newSingleConnLock(t)
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "document:a", 20*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool { return !l.isReserved("document:a") }, 2*time.Second, 5*time.Millisecond)

	ok, err = l.Acquire(ctx, "document:b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Release(ctx, "document:b"))
}
