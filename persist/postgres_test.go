package persist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	value []byte
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*[]byte) = r.value
	return nil
}

// fakeConn is an in-memory pgConn keyed like the expansion_state table.
type fakeConn struct {
	rows    map[string][]byte
	execs   []string
	execErr error
}

func (c *fakeConn) QueryRow(_ context.Context, sql string, args ...any) pgRow {
	value, ok := c.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: value}
}

func (c *fakeConn) Exec(_ context.Context, sql string, args ...any) error {
	c.execs = append(c.execs, sql)
	if c.execErr != nil {
		return c.execErr
	}
	if strings.HasPrefix(strings.TrimSpace(sql), "INSERT") {
		c.rows[args[0].(string)] = args[1].([]byte)
	}
	return nil
}

func TestPostgresStore_WithFakeConn(t *testing.T) {
	conn := &fakeConn{rows: make(map[string][]byte)}
	s := &PostgresStore{db: conn}

	require.NoError(t, s.Migrate(context.Background()))
	assert.Contains(t, conn.execs[0], "CREATE TABLE IF NOT EXISTS expansion_state")

	exerciseStore(t, s)
}

func TestPostgresStore_Errors(t *testing.T) {
	boom := errors.New("connection reset")
	conn := &fakeConn{rows: map[string][]byte{}, execErr: boom}
	s := &PostgresStore{db: conn}

	err := s.SaveExpanded(context.Background(), "k", []byte(`[]`))
	assert.ErrorIs(t, err, boom)

	s.db = &errConn{err: boom}
	_, err = s.LoadExpanded(context.Background(), "k")
	assert.ErrorIs(t, err, boom)
}

type errConn struct{ err error }

func (c *errConn) QueryRow(context.Context, string, ...any) pgRow { return fakeRow{err: c.err} }
func (c *errConn) Exec(context.Context, string, ...any) error     { return c.err }
