package extractor

import (
	"fmt"
	"unicode/utf8"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

func extractPlaintext(raw []byte, filename string) (string, error) {
	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract plaintext", fmt.Errorf("unsupported binary format: %s", filename))
	}
	return string(raw), nil
}
