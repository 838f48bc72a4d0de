package nats

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/resilience"
)

// AllCollections is the corpus-changed payload that asks every API instance to
// rebuild from all configured collections.
const AllCollections = "*"

var errInvalidEvent = errors.New("invalid event payload")

// validateDocumentEvent accepts the ids minted by document ingestion.
func validateDocumentEvent(payload string) error {
	if _, err := uuid.Parse(payload); err != nil {
		return fmt.Errorf("%w: document id %q: %v", errInvalidEvent, payload, err)
	}
	return nil
}

// validateCorpusEvent accepts a collection name or AllCollections.
func validateCorpusEvent(payload string) error {
	if payload == "" || strings.ContainsAny(payload, " \t\r\n") {
		return fmt.Errorf("%w: collection %q", errInvalidEvent, payload)
	}
	return nil
}

func classifyNATSError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	switch {
	case errors.Is(err, nats.ErrNoServers),
		errors.Is(err, nats.ErrTimeout),
		errors.Is(err, nats.ErrConnectionClosed),
		errors.Is(err, nats.ErrDisconnected),
		errors.Is(err, nats.ErrConnectionReconnecting),
		errors.Is(err, nats.ErrReconnectBufExceeded):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case errors.Is(err, errInvalidEvent),
		errors.Is(err, nats.ErrBadSubject),
		errors.Is(err, nats.ErrMaxPayload):
		// The broker is healthy; the same publish would fail again.
		return resilience.ErrorClassification{}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

// wrapQueueError maps publish failures onto domain kinds. Malformed events are
// ErrInvalidInput, a misconfigured subject is ErrUnavailable and broker outages
// are ErrTemporary.
func wrapQueueError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	switch {
	case errors.Is(err, errInvalidEvent), errors.Is(err, nats.ErrMaxPayload):
		return domain.WrapError(domain.ErrInvalidInput, operation, err)
	case errors.Is(err, nats.ErrBadSubject):
		return domain.WrapError(domain.ErrUnavailable, operation, err)
	}
	if classifyNATSError(err).Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
