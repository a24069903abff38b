package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryRow(id int, txnType TxnType, amount string) *LedgerEntryRow {
	return &LedgerEntryRow{
		ID:        id,
		TxnType:   txnType,
		Amount:    decimal.RequireFromString(amount),
		EntryDate: time.Date(2026, 1, id, 10, 0, 0, 0, time.UTC),
	}
}

func TestRunningBalances_ReverseWalk(t *testing.T) {
	// Newest first: +500, -200, +1000. Current net is 1300.
	entries := []*LedgerEntryRow{
		entryRow(3, TxnTypeIn, "500"),
		entryRow(2, TxnTypeOut, "200"),
		entryRow(1, TxnTypeIn, "1000"),
	}
	currentNet := decimal.RequireFromString("1300")

	rows := RunningBalances(entries, currentNet)

	require.Len(t, rows, 3)
	assert.True(t, rows[0].BalanceBefore.Equal(decimal.RequireFromString("800")))
	assert.True(t, rows[1].BalanceBefore.Equal(decimal.RequireFromString("1000")))
	assert.True(t, rows[2].BalanceBefore.IsZero())
}

func TestRunningBalances_ForwardReplayLandsOnCurrentNet(t *testing.T) {
	entries := []*LedgerEntryRow{
		entryRow(4, TxnTypeOut, "75.25"),
		entryRow(3, TxnTypeIn, "300"),
		entryRow(2, TxnTypeOut, "120.75"),
		entryRow(1, TxnTypeIn, "96"),
	}
	currentNet := decimal.RequireFromString("200")

	rows := RunningBalances(entries, currentNet)
	require.Len(t, rows, 4)

	// Replay oldest to newest from the oldest row's starting balance.
	balance := rows[len(rows)-1].BalanceBefore
	for i := len(rows) - 1; i >= 0; i-- {
		balance = balance.Add(signedAmount(rows[i].Entry))
	}
	assert.True(t, balance.Equal(currentNet), "forward replay got %s, want %s", balance, currentNet)
}

func TestRunningBalances_Empty(t *testing.T) {
	rows := RunningBalances(nil, decimal.RequireFromString("42"))
	assert.Empty(t, rows)
}
