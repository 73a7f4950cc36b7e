package server

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltdb/sqlitescan/pkg/engine"
	"github.com/cobaltdb/sqlitescan/pkg/logging"
	"github.com/cobaltdb/sqlitescan/pkg/wire"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

func openSample(t *testing.T) *engine.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sample.db")
	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	for _, stmt := range []string{
		"CREATE TABLE apples (id integer primary key autoincrement, name text, color text)",
		"INSERT INTO apples (name, color) VALUES ('Granny Smith', 'Light Green'), ('Fuji', 'Red')",
	} {
		_, err := raw.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, raw.Close())

	db, err := engine.Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// startServer serves db on a loopback port and returns a connected client
func startServer(t *testing.T, db *engine.DB) (*Server, *wire.Client, string) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Logger = logging.Discard()
	srv, err := New(db, cfg)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(listener) }()
	t.Cleanup(func() {
		srv.Close()
		assert.NoError(t, <-done)
	})

	client, err := wire.Dial(context.Background(), listener.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return srv, client, listener.Addr().String()
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Address != ":4200" {
		t.Errorf("Expected address ':4200', got %q", config.Address)
	}
}

func TestNewServerNeedsDatabase(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestPingAndInfo(t *testing.T) {
	_, client, _ := startServer(t, openSample(t))

	require.NoError(t, client.Ping())

	info, err := client.Info()
	require.NoError(t, err)
	assert.Equal(t, uint32(4096), info.PageSize)
	assert.Equal(t, 2, info.TableCount)
	assert.Equal(t, []string{"apples"}, info.Tables)
}

func TestQuery(t *testing.T) {
	_, client, _ := startServer(t, openSample(t))

	result, err := client.Query("SELECT id, name FROM apples WHERE color = 'Red'")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, result.Columns)
	assert.Equal(t, int64(1), result.Count)
	require.Len(t, result.Rows, 1)
	assert.EqualValues(t, 2, result.Rows[0][0])
	assert.Equal(t, "Fuji", result.Rows[0][1])
}

func TestQueryErrorCodes(t *testing.T) {
	_, client, _ := startServer(t, openSample(t))

	tests := []struct {
		sql  string
		code int
	}{
		{"SELECT name FROM pears", wire.CodeTableNotFound},
		{"SELECT weight FROM apples", wire.CodeColumnNotFound},
		{"SELECT name FROM apples WHERE name = 1", wire.CodeTypeMismatch},
		{"DROP TABLE apples", wire.CodeQuery},
	}
	for _, tt := range tests {
		_, err := client.Query(tt.sql)
		var msg *wire.ErrorMessage
		require.True(t, errors.As(err, &msg), "%s: %v", tt.sql, err)
		assert.Equal(t, tt.code, msg.Code, tt.sql)
	}

	// the connection survives failed queries
	require.NoError(t, client.Ping())
}

func TestUnknownMessage(t *testing.T) {
	_, _, addr := startServer(t, openSample(t))

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, wire.WriteFrame(conn, wire.MsgType(0x7f), nil))
	msgType, payload, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, wire.MsgError, msgType)

	var msg wire.ErrorMessage
	require.NoError(t, wire.Decode(payload, &msg))
	assert.Equal(t, wire.CodeUnknownMessage, msg.Code)
}

func TestBadPayload(t *testing.T) {
	_, _, addr := startServer(t, openSample(t))

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	// a msgpack string where a map is expected
	require.NoError(t, wire.WriteFrame(conn, wire.MsgQuery, "SELECT 1"))
	msgType, payload, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, wire.MsgError, msgType)

	var msg wire.ErrorMessage
	require.NoError(t, wire.Decode(payload, &msg))
	assert.Equal(t, wire.CodeDecode, msg.Code)
}

func TestServerClose(t *testing.T) {
	srv, client, addr := startServer(t, openSample(t))
	require.NoError(t, client.Ping())
	assert.Equal(t, addr, srv.Addr().String())

	require.NoError(t, srv.Close())
	require.NoError(t, srv.Close())
	assert.Error(t, client.Ping())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.ErrorIs(t, srv.Serve(listener), ErrServerClosed)
}
