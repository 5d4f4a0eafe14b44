// SPDX-License-Identifier: MIT

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/aether3d/capturecore/internal/log"
	"github.com/stretchr/testify/require"
)

func testSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner([]byte("test-signing-key-material"))
	require.NoError(t, err)
	return s
}

func TestNewSignerRejectsEmptyKey(t *testing.T) {
	_, err := NewSigner(nil)
	require.Error(t, err)
}

func TestSignerVerifyAcceptsOwnSignature(t *testing.T) {
	s := testSigner(t)
	event := Event{
		Timestamp: time.Unix(1000, 0),
		Type:      EventAppend,
		Actor:     "capture-daemon",
		Action:    "appended WAL entry",
		Resource:  "42",
		Result:    "success",
	}
	sig := s.Sign(event)
	require.NoError(t, s.Verify(event, sig))
}

func TestSignerVerifyRejectsTamperedEvent(t *testing.T) {
	s := testSigner(t)
	event := Event{
		Timestamp: time.Unix(1000, 0),
		Type:      EventCommit,
		Actor:     "capture-daemon",
		Action:    "committed WAL entry",
		Resource:  "42",
		Result:    "success",
	}
	sig := s.Sign(event)

	tampered := event
	tampered.Result = "failure"
	require.ErrorIs(t, s.Verify(tampered, sig), ErrSignatureMismatch)
}

func TestSignerVerifyRejectsWrongKey(t *testing.T) {
	a := testSigner(t)
	b, err := NewSigner([]byte("a-different-key"))
	require.NoError(t, err)

	event := Event{Type: EventRecover, Actor: "system", Result: "success"}
	sig := a.Sign(event)
	require.ErrorIs(t, b.Verify(event, sig), ErrSignatureMismatch)
}

func TestSignIsOrderIndependentOverDetails(t *testing.T) {
	s := testSigner(t)
	e1 := Event{Type: EventAppend, Details: map[string]string{"a": "1", "b": "2"}}
	e2 := Event{Type: EventAppend, Details: map[string]string{"b": "2", "a": "1"}}
	require.Equal(t, s.Sign(e1), s.Sign(e2))
}

func TestLoggerAppendReturnsVerifiableSignature(t *testing.T) {
	s := testSigner(t)
	logger := NewLogger(s)

	signed := logger.Append("system", 7, "success")
	require.Equal(t, EventAppend, signed.Event.Type)
	require.NoError(t, s.Verify(signed.Event, signed.Signature))
}

func TestLoggerCommit(t *testing.T) {
	s := testSigner(t)
	logger := NewLogger(s)

	signed := logger.Commit("system", 7, "success")
	require.Equal(t, EventCommit, signed.Event.Type)
	require.Equal(t, "7", signed.Event.Resource)
}

func TestLoggerRecover(t *testing.T) {
	s := testSigner(t)
	logger := NewLogger(s)

	signed := logger.Recover("system", 3)
	require.Equal(t, EventRecover, signed.Event.Type)
	require.Equal(t, "3", signed.Event.Details["replayed_entries"])
}

func TestLoggerRecoveryFailedNamesReason(t *testing.T) {
	s := testSigner(t)
	logger := NewLogger(s)

	signed := logger.RecoveryFailed("system", "hash length mismatch")
	require.Equal(t, EventRecoveryFailed, signed.Event.Type)
	require.Equal(t, "failure", signed.Event.Result)
	require.Equal(t, "hash length mismatch", signed.Event.Details["reason"])
}

func TestLoggerLogFromContextFillsRequestID(t *testing.T) {
	s := testSigner(t)
	logger := NewLogger(s)

	ctx := log.ContextWithRequestID(context.Background(), "req-42")
	signed := logger.LogFromContext(ctx, Event{Type: EventAppend, Actor: "system", Result: "success"})
	require.Equal(t, EventAppend, signed.Event.Type)
	require.Equal(t, "req-42", signed.Event.RequestID)
}

func TestEventTimestampAutoSet(t *testing.T) {
	s := testSigner(t)
	logger := NewLogger(s)

	before := time.Now()
	signed := logger.Log(Event{Type: EventAppend, Actor: "system", Result: "success"})
	after := time.Now()

	require.False(t, signed.Event.Timestamp.Before(before))
	require.False(t, signed.Event.Timestamp.After(after))
}

func TestFormatHelpers(t *testing.T) {
	require.Equal(t, "0", formatInt(0))
	require.Equal(t, "42", formatInt(42))
	require.Equal(t, "-10", formatInt(-10))
	require.Equal(t, "0", formatUint64(0))
	require.Equal(t, "18446744073709551615", formatUint64(18446744073709551615))
}
