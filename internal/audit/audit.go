// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package audit provides the write-ahead log's signed audit trail: every
// append, commit, and recovery event is recorded WHO/WHAT/WHEN and signed
// with HMAC-SHA256 so a reader of the trail can detect tampering without
// trusting the storage backend it rode in on.
package audit

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/aether3d/capturecore/internal/log"
	"github.com/rs/zerolog"
)

// EventType enumerates the WAL lifecycle events this package signs. The
// set is closed: callers cannot invent new event types, since the
// signature covers the type string and an unrecognized one would fail
// verification against no known semantics anyway.
type EventType string

const (
	EventAppend         EventType = "wal.append"
	EventCommit         EventType = "wal.commit"
	EventRecover        EventType = "wal.recover"
	EventRecoveryFailed EventType = "wal.recovery_failed"
)

// Event represents a structured audit event in the WHO/WHAT/WHEN pattern.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"type"`
	Actor     string            `json:"actor"`              // WHO: principal or "system"
	Action    string            `json:"action"`              // WHAT: human-readable description
	Resource  string            `json:"resource"`            // resource affected (e.g. entry_id)
	Result    string            `json:"result"`              // success, failure, denied
	RequestID string            `json:"request_id"`          // correlation ID
	Details   map[string]string `json:"details,omitempty"`   // additional context
}

// ErrSignatureMismatch is returned by Verify when a signature does not
// match the event it is presented with.
var ErrSignatureMismatch = errors.New("audit: signature mismatch")

// Signer computes and verifies HMAC-SHA256 signatures over audit events.
// The key is never logged or exposed through any exported accessor.
type Signer struct {
	key []byte
}

// NewSigner returns a Signer keyed with key. The key must be non-empty;
// an empty key would make every signature predictable to an attacker who
// can observe the signed bytes.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) == 0 {
		return nil, errors.New("audit: signing key must not be empty")
	}
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)
	return &Signer{key: keyCopy}, nil
}

func (s *Signer) canonicalBytes(event Event) []byte {
	var buf []byte
	buf = append(buf, event.Timestamp.UTC().Format(time.RFC3339Nano)...)
	buf = append(buf, '\n')
	buf = append(buf, event.Type...)
	buf = append(buf, '\n')
	buf = append(buf, event.Actor...)
	buf = append(buf, '\n')
	buf = append(buf, event.Action...)
	buf = append(buf, '\n')
	buf = append(buf, event.Resource...)
	buf = append(buf, '\n')
	buf = append(buf, event.Result...)
	buf = append(buf, '\n')
	for _, k := range sortedDetailKeys(event.Details) {
		buf = append(buf, k...)
		buf = append(buf, '=')
		buf = append(buf, event.Details[k]...)
		buf = append(buf, '\n')
	}
	return buf
}

// Sign returns the HMAC-SHA256 signature of event over its canonical
// byte form, computed identically regardless of Go map iteration order.
func (s *Signer) Sign(event Event) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(s.canonicalBytes(event))
	return mac.Sum(nil)
}

// Verify reports whether sig is the correct signature of event.
func (s *Signer) Verify(event Event, sig []byte) error {
	want := s.Sign(event)
	if !hmac.Equal(want, sig) {
		return ErrSignatureMismatch
	}
	return nil
}

func sortedDetailKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Simple insertion sort: detail maps are tiny (a handful of fields).
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// SignedEvent pairs an Event with its signature, the unit that gets
// appended to the durable audit trail.
type SignedEvent struct {
	Event     Event
	Signature []byte
}

// Logger writes signed audit events to a dedicated zerolog sink and
// returns the signed form so callers can persist it alongside a WAL
// record.
type Logger struct {
	logger zerolog.Logger
	signer *Signer
}

// NewLogger creates an audit logger that signs every event with signer.
func NewLogger(signer *Signer) *Logger {
	return &Logger{
		logger: log.WithComponent("audit").With().Str("log_type", "audit").Logger(),
		signer: signer,
	}
}

// Log signs and writes event, returning the SignedEvent for durable
// storage by the caller (typically the WAL's storage backend).
func (l *Logger) Log(event Event) SignedEvent {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	sig := l.signer.Sign(event)

	logEvent := l.logger.Info().
		Time("timestamp", event.Timestamp).
		Str("event_type", string(event.Type)).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("resource", event.Resource).
		Str("result", event.Result)

	if event.RequestID != "" {
		logEvent.Str("request_id", event.RequestID)
	}
	for key, value := range event.Details {
		logEvent.Str(key, value)
	}
	logEvent.Msg("audit event")

	return SignedEvent{Event: event, Signature: sig}
}

// LogFromContext logs event after filling RequestID from ctx when unset.
func (l *Logger) LogFromContext(ctx context.Context, event Event) SignedEvent {
	if event.RequestID == "" {
		if reqID := log.RequestIDFromContext(ctx); reqID != "" {
			event.RequestID = reqID
		}
	}
	return l.Log(event)
}

// Append records a WAL append event for entryID.
func (l *Logger) Append(actor string, entryID uint64, result string) SignedEvent {
	return l.Log(Event{
		Type:     EventAppend,
		Actor:    actor,
		Action:   "appended WAL entry",
		Resource: formatUint64(entryID),
		Result:   result,
	})
}

// Commit records a WAL commit event for entryID.
func (l *Logger) Commit(actor string, entryID uint64, result string) SignedEvent {
	return l.Log(Event{
		Type:     EventCommit,
		Actor:    actor,
		Action:   "committed WAL entry",
		Resource: formatUint64(entryID),
		Result:   result,
	})
}

// Recover records a successful recovery pass over the WAL.
func (l *Logger) Recover(actor string, replayedEntries int) SignedEvent {
	return l.Log(Event{
		Type:     EventRecover,
		Actor:    actor,
		Action:   "recovered WAL state",
		Resource: "wal",
		Result:   "success",
		Details: map[string]string{
			"replayed_entries": formatInt(replayedEntries),
		},
	})
}

// RecoveryFailed records a fail-closed recovery abort, naming the reason
// without exposing any partial state recovered up to the failure point.
func (l *Logger) RecoveryFailed(actor, reason string) SignedEvent {
	return l.Log(Event{
		Type:     EventRecoveryFailed,
		Actor:    actor,
		Action:   "WAL recovery aborted",
		Resource: "wal",
		Result:   "failure",
		Details: map[string]string{
			"reason": reason,
		},
	})
}

func formatInt(i int) string {
	return formatInt64(int64(i))
}

func formatUint64(u uint64) string {
	if u == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for u > 0 {
		pos--
		buf[pos] = byte('0' + u%10)
		u /= 10
	}
	return string(buf[pos:])
}

func formatInt64(i int64) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
