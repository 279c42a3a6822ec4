package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseResults(t *testing.T, out []byte) map[string]pollResult {
	t.Helper()
	results := map[string]pollResult{}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		var r pollResult
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		results[r.TxID] = r
	}
	require.NoError(t, sc.Err())
	return results
}

func TestWatchAll(t *testing.T) {
	srv := newLedgerServer(t)
	conn := newTestConnection(srv.BasePath())

	var buf bytes.Buffer
	err := watchAll(context.Background(), quietLogger(), conn, []string{"tx1", "tx2", "tx3"}, 2, &buf)
	require.NoError(t, err)

	results := parseResults(t, buf.Bytes())
	require.Len(t, results, 3)
	for _, id := range []string{"tx1", "tx2", "tx3"} {
		r := results[id]
		assert.True(t, r.Valid, id)
		assert.NotEmpty(t, r.SessionID, id)
		assert.JSONEq(t, `{"id":"`+id+`"}`, string(r.Transaction))
		assert.Empty(t, r.Error, id)
	}
}

func TestWatchAll_FailureDoesNotStopOthers(t *testing.T) {
	srv := newLedgerServer(t)
	conn := newTestConnection(srv.BasePath())

	var buf bytes.Buffer
	err := watchAll(context.Background(), quietLogger(), conn, []string{"tx1", "missing"}, 1, &buf)
	require.EqualError(t, err, "1 of 2 transactions did not become valid")

	results := parseResults(t, buf.Bytes())
	require.Len(t, results, 2)
	assert.True(t, results["tx1"].Valid)

	missing := results["missing"]
	assert.False(t, missing.Valid)
	assert.Equal(t, 1, missing.Attempts)
	assert.Contains(t, missing.Error, "not found")
	assert.Empty(t, missing.Transaction)
}

func TestWatchAll_Cancelled(t *testing.T) {
	srv := newLedgerServer(t)
	conn := newTestConnection(srv.BasePath())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := watchAll(ctx, quietLogger(), conn, []string{"tx1", "tx2"}, 2, &buf)
	require.EqualError(t, err, "2 of 2 transactions did not become valid")

	results := parseResults(t, buf.Bytes())
	for _, r := range results {
		assert.False(t, r.Valid)
		assert.Contains(t, r.Error, "context canceled")
	}
}
