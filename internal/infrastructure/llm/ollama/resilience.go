package ollama

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ollama status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// ModelNotFoundError is the host's 404 for a model that has not been pulled.
// Every call fails the same way until an operator pulls it.
type ModelNotFoundError struct {
	Operation string
	Model     string
	Message   string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("ollama %s: model %q is not available on the host: %s", e.Operation, e.Model, e.Message)
}

// DecodeError is a 2xx reply whose body is not the object the endpoint documents.
type DecodeError struct {
	Operation string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode ollama %s response: %v", e.Operation, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// newStatusError tells a missing model apart from other 404s (a wrong base URL
// answers with a plain-text page, not the JSON error object).
func newStatusError(operation, model string, resp *http.Response, body string) error {
	if resp.StatusCode == http.StatusNotFound {
		message := gjson.Get(body, "error").String()
		lowered := strings.ToLower(message)
		if strings.Contains(lowered, "model") && strings.Contains(lowered, "not found") {
			return &ModelNotFoundError{Operation: operation, Model: model, Message: message}
		}
	}
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}
}

func classifyOllamaError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	// A missing model is configuration, not load: opening the breaker would
	// only replace the actionable message with "circuit open".
	var missing *ModelNotFoundError
	if errors.As(err, &missing) {
		return resilience.ErrorClassification{}
	}

	// A body cut off mid-stream is a transport fault; any other decode failure
	// means the host speaks a different API version.
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return resilience.ErrorClassification{
			Retryable:     errors.Is(err, io.ErrUnexpectedEOF),
			RecordFailure: true,
		}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		retryable := isRetryableHTTPStatus(statusErr.StatusCode)
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

// wrapOllamaError maps adapter failures onto domain kinds. A missing model is
// ErrUnavailable; retryable transport and server faults are ErrTemporary.
func wrapOllamaError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrUnavailable) {
		return err
	}

	var missing *ModelNotFoundError
	if errors.As(err, &missing) {
		return domain.WrapError(domain.ErrUnavailable, operation, err)
	}
	if classifyOllamaError(err).Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

// Ollama answers 500 while a model is still loading into memory.
func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
