package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "checksummed address is lowercased",
			input:    "0x5FbDB2315678afecb367f032d93F642f64180aa3",
			expected: "0x5fbdb2315678afecb367f032d93f642f64180aa3",
		},
		{
			name:     "already lowercase is unchanged",
			input:    "0x5fbdb2315678afecb367f032d93f642f64180aa3",
			expected: "0x5fbdb2315678afecb367f032d93f642f64180aa3",
		},
		{
			name:     "surrounding whitespace is trimmed",
			input:    "  0xABCD  ",
			expected: "0xabcd",
		},
		{
			name:     "empty string stays empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeAddress(tt.input))
		})
	}
}

func TestSameAddress(t *testing.T) {
	assert.True(t, SameAddress(
		"0x5FbDB2315678afecb367f032d93F642f64180aa3",
		"0x5fbdb2315678afecb367f032d93f642f64180aa3",
	))
	assert.False(t, SameAddress("0xaaaa", "0xbbbb"))
}

func TestIsValidDiscrepancyStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   DiscrepancyStatus
		expected bool
	}{
		{name: "missing payment", status: DiscrepancyMissingPayment, expected: true},
		{name: "unconfirmed payment", status: DiscrepancyUnconfirmedPayment, expected: true},
		{name: "amount mismatch", status: DiscrepancyAmountMismatch, expected: true},
		{name: "hash mismatch", status: DiscrepancyHashMismatch, expected: true},
		{name: "resolved", status: DiscrepancyResolved, expected: true},
		{name: "orphaned", status: DiscrepancyOrphaned, expected: true},
		{name: "empty", status: DiscrepancyStatus(""), expected: false},
		{name: "unknown", status: DiscrepancyStatus("BOGUS"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidDiscrepancyStatus(tt.status))
		})
	}
}

func TestConnectivityError(t *testing.T) {
	base := errors.New("dial tcp: connection refused")
	err := NewConnectivityError("CurrentHeight", base)

	assert.True(t, IsConnectivityError(err))
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "CurrentHeight")

	wrapped := fmt.Errorf("session failed: %w", err)
	assert.True(t, IsConnectivityError(wrapped))

	assert.False(t, IsConnectivityError(errors.New("plain")))
	assert.False(t, IsDecodeError(err))
}

func TestDecodeError(t *testing.T) {
	err := NewDecodeError("0xdeadbeef", "unexpected topic count %d", 2)

	assert.True(t, IsDecodeError(err))
	assert.Contains(t, err.Error(), "0xdeadbeef")
	assert.Contains(t, err.Error(), "unexpected topic count 2")
	assert.False(t, IsConnectivityError(err))
}
