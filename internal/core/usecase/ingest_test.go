package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

var testCollections = []string{"fta_compliance_guide", "historical_audits"}

func TestIngestUploadSuccess(t *testing.T) {
	repo := &repoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue, testCollections)

	doc, err := uc.Upload(context.Background(), "audit 2023.xlsx", "application/vnd.ms-excel", "historical_audits", bytes.NewBufferString("rows"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.Status != domain.StatusUploaded || doc.Collection != "historical_audits" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if !strings.HasSuffix(storage.key, "_audit_2023.xlsx") || storage.data != "rows" {
		t.Fatalf("unexpected stored object %q/%q", storage.key, storage.data)
	}
	if repo.created == nil || repo.created.ID != doc.ID {
		t.Fatalf("expected metadata row for %s", doc.ID)
	}
	if len(queue.ingested) != 1 || queue.ingested[0] != doc.ID {
		t.Fatalf("expected ingestion event, got %v", queue.ingested)
	}
}

func TestIngestUploadDefaultsCollection(t *testing.T) {
	uc := NewIngestDocumentUseCase(&repoFake{}, &storageFake{}, &queueFake{}, testCollections)

	doc, err := uc.Upload(context.Background(), "guide.pdf", "application/pdf", " ", strings.NewReader("pdf"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.Collection != "fta_compliance_guide" {
		t.Fatalf("expected first collection, got %q", doc.Collection)
	}
}

func TestIngestUploadRejectsUnknownCollection(t *testing.T) {
	storage := &storageFake{}
	uc := NewIngestDocumentUseCase(&repoFake{}, storage, &queueFake{}, testCollections)

	_, err := uc.Upload(context.Background(), "guide.pdf", "application/pdf", "other", strings.NewReader("pdf"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if storage.key != "" {
		t.Fatalf("nothing must be stored for a rejected upload")
	}
}

func TestIngestUploadStorageError(t *testing.T) {
	repo := &repoFake{}
	uc := NewIngestDocumentUseCase(repo, &storageFake{err: errors.New("disk full")}, &queueFake{}, testCollections)

	if _, err := uc.Upload(context.Background(), "guide.pdf", "application/pdf", "", strings.NewReader("pdf")); err == nil {
		t.Fatalf("expected error")
	}
	if repo.created != nil {
		t.Fatalf("metadata must not be written when storage fails")
	}
}

func TestIngestUploadPublishError(t *testing.T) {
	uc := NewIngestDocumentUseCase(&repoFake{}, &storageFake{}, &queueFake{publishErr: errors.New("nats down")}, testCollections)

	if _, err := uc.Upload(context.Background(), "guide.pdf", "application/pdf", "", strings.NewReader("pdf")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd":  "passwd",
		"Audit Report.xlsx": "Audit_Report.xlsx",
		"отчет.pdf":         "_____.pdf",
		"":                  "document.bin",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
