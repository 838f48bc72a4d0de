package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

func TestClassifyNATSError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "no servers", err: fmt.Errorf("publish: %w", nats.ErrNoServers), retryable: true, record: true},
		{name: "timeout", err: nats.ErrTimeout, retryable: true, record: true},
		{name: "reconnect buffer full", err: nats.ErrReconnectBufExceeded, retryable: true, record: true},
		{name: "canceled", err: context.Canceled, retryable: false, record: false},
		{name: "bad subject", err: nats.ErrBadSubject, retryable: false, record: false},
		{name: "payload too large", err: nats.ErrMaxPayload, retryable: false, record: false},
		{name: "invalid event", err: validateCorpusEvent(""), retryable: false, record: false},
		{name: "unknown", err: errors.New("boom"), retryable: false, record: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyNATSError(tt.err)
			if got.Retryable != tt.retryable || got.RecordFailure != tt.record {
				t.Fatalf("unexpected classification %+v", got)
			}
		})
	}
}

func TestWrapQueueError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{name: "connection closed", err: nats.ErrConnectionClosed, kind: domain.ErrTemporary},
		{name: "malformed document id", err: validateDocumentEvent("not-a-uuid"), kind: domain.ErrInvalidInput},
		{name: "payload too large", err: nats.ErrMaxPayload, kind: domain.ErrInvalidInput},
		{name: "bad subject", err: nats.ErrBadSubject, kind: domain.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := wrapQueueError("nats.publish_ingested", tt.err); !domain.IsKind(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
		})
	}

	permanent := errors.New("payload rejected")
	if got := wrapQueueError("nats.publish_ingested", permanent); got != permanent {
		t.Fatalf("expected permanent error unchanged, got %v", got)
	}
}

func TestValidateEvents(t *testing.T) {
	if err := validateDocumentEvent("7d9f3c1e-2b4a-4f6e-9c3d-1a2b3c4d5e6f"); err != nil {
		t.Fatalf("document id rejected: %v", err)
	}
	if err := validateDocumentEvent(""); !errors.Is(err, errInvalidEvent) {
		t.Fatalf("expected invalid event for empty id, got %v", err)
	}
	for _, collection := range []string{"fta_compliance_guide", AllCollections} {
		if err := validateCorpusEvent(collection); err != nil {
			t.Fatalf("collection %q rejected: %v", collection, err)
		}
	}
	if err := validateCorpusEvent("historical audits"); !errors.Is(err, errInvalidEvent) {
		t.Fatalf("expected invalid event for spaced name, got %v", err)
	}
}

func TestPublishRejectsInvalidEventBeforeBroker(t *testing.T) {
	q := &Queue{ingestSubject: "documents.ingest", corpusSubject: "corpus.changed"}

	if err := q.PublishDocumentIngested(context.Background(), "../etc/passwd"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := q.PublishCorpusChanged(context.Background(), ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
