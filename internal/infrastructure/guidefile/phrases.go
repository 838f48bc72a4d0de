package guidefile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

// LoadPhraseMap reads a YAML mapping of phrase -> identifier list, e.g.
//
//	title vi: [TVI1, TVI2]
//	charter: [CR1]
func LoadPhraseMap(path string) (domain.PhraseMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read phrase file: %w", err)
	}
	return ParsePhraseMap(raw)
}

// ParsePhraseMap walks the YAML node tree so duplicate keys are reported
// instead of silently keeping the last one.
func ParsePhraseMap(raw []byte) (domain.PhraseMap, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse phrase map", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse phrase map", errors.New("top level must be a mapping"))
	}
	root := doc.Content[0]

	var errs []error
	out := make(domain.PhraseMap, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		phrase := keyNode.Value
		if _, dup := out[phrase]; dup {
			errs = append(errs, fmt.Errorf("line %d: duplicate phrase %q", keyNode.Line, phrase))
			continue
		}

		var codes []string
		if err := valueNode.Decode(&codes); err != nil {
			errs = append(errs, fmt.Errorf("line %d: phrase %q: %w", valueNode.Line, phrase, err))
			continue
		}
		ids := make([]domain.Identifier, 0, len(codes))
		for _, code := range codes {
			if id := domain.CanonicalIdentifier(code); id != "" {
				ids = append(ids, id)
			}
		}
		if strings.TrimSpace(phrase) == "" {
			errs = append(errs, fmt.Errorf("line %d: empty phrase", keyNode.Line))
			continue
		}
		out[phrase] = ids
	}
	if len(errs) > 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse phrase map", errors.Join(errs...))
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
