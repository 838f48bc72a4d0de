package chunking

import (
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/compliance-assistant/internal/core/routing"
)

// Splitter cuts guide text into chunks of at most ChunkSize runes. Cuts fall
// before lines that open with a question code, so one chunk rarely spans two
// questions; a single question longer than ChunkSize is windowed with Overlap.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	var (
		out     []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			out = append(out, chunk)
		}
		current.Reset()
		size = 0
	}

	for _, block := range identifierBlocks(text) {
		n := utf8.RuneCountInString(block)
		if n > s.ChunkSize {
			flush()
			out = append(out, s.window(block)...)
			continue
		}
		if size > 0 && size+1+n > s.ChunkSize {
			flush()
		}
		if size > 0 {
			current.WriteString("\n")
			size++
		}
		current.WriteString(block)
		size += n
	}
	flush()
	return out
}

// identifierBlocks groups lines so every block starts at a question-code header.
// Text before the first header forms its own block.
func identifierBlocks(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var (
		blocks []string
		cur    []string
	)
	for _, line := range lines {
		if routing.IsIdentifierHeader(line) && len(cur) > 0 {
			blocks = append(blocks, strings.TrimSpace(strings.Join(cur, "\n")))
			cur = cur[:0]
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		blocks = append(blocks, strings.TrimSpace(strings.Join(cur, "\n")))
	}

	out := blocks[:0]
	for _, b := range blocks {
		if b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (s *Splitter) window(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
