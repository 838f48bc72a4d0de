package usecase

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

const answerSystemPrompt = `You are an expert transit compliance assistant.

Answer questions using only the provided context from the compliance guide and historical audit records.

Rules:
1. Use ONLY information from the provided sources
2. Cite specific sources using [Source N] notation in your answer
3. If sources mention the topic but lack complete details, give what IS available and note what is missing
4. Extract and synthesize relevant information from the sources even if it is partial
5. Reference the specific compliance requirements, regulations or review areas named in the sources
6. Rate your confidence: "high" if sources directly answer the question, "medium" if they are relevant but incomplete, "low" if they barely mention the topic

Format your response as valid JSON (do NOT wrap in markdown code blocks):
{
  "answer": "Your detailed answer with [Source N] citations.",
  "confidence": "low|medium|high",
  "reasoning": "Brief explanation of confidence level"
}`

const (
	reasoningUnparsable   = "Failed to parse structured response"
	reasoningMissingField = "Invalid response format"
)

type generatedAnswer struct {
	Answer     string
	Confidence domain.ConfidenceTier
	Reasoning  string
}

func buildContext(chunks []domain.EvidenceChunk, charLimit int) string {
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		category := chunk.MetadataString("category")
		if category == "" {
			category = "Unknown"
		}
		parts = append(parts, fmt.Sprintf("[Source %d] Category: %s, ID: %s\n%s\n",
			i+1, category, chunk.ID, truncateRunes(chunk.Text, charLimit)))
	}
	return strings.Join(parts, "\n---\n")
}

func buildUserPrompt(question, contextText string, history []domain.ConversationTurn) string {
	var b strings.Builder
	b.WriteString("Context from the compliance guide:\n\n")
	b.WriteString(contextText)
	b.WriteString("\n\n---\n\n")
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range history {
			role := strings.TrimSpace(turn.Role)
			if role == "" {
				role = "user"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, strings.TrimSpace(turn.Content))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	b.WriteString("Provide your answer as a valid JSON object (raw JSON, no markdown formatting).")
	return b.String()
}

// parseGeneratedAnswer never fails: output that is not a JSON object with an
// "answer" field becomes the answer itself at low confidence.
func parseGeneratedAnswer(raw string) generatedAnswer {
	content := stripCodeFence(strings.TrimSpace(raw))

	if !gjson.Valid(content) {
		return generatedAnswer{Answer: content, Confidence: domain.ConfidenceLow, Reasoning: reasoningUnparsable}
	}
	parsed := gjson.Parse(content)
	answer := parsed.Get("answer")
	if !parsed.IsObject() || !answer.Exists() {
		return generatedAnswer{Answer: content, Confidence: domain.ConfidenceLow, Reasoning: reasoningMissingField}
	}
	return generatedAnswer{
		Answer:     answer.String(),
		Confidence: domain.ParseConfidenceTier(strings.ToLower(parsed.Get("confidence").String())),
		Reasoning:  parsed.Get("reasoning").String(),
	}
}

func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) > 2 {
		content = strings.Join(lines[1:len(lines)-1], "\n")
	}
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")
	return strings.TrimSpace(content)
}

func documentSources(chunks []domain.EvidenceChunk) []domain.Source {
	out := make([]domain.Source, 0, len(chunks))
	for _, chunk := range chunks {
		category := chunk.MetadataString("category")
		if category == "" {
			category = "Unknown"
		}
		out = append(out, domain.Source{
			Type:       domain.SourceTypeDocument,
			ChunkID:    chunk.ID,
			Category:   category,
			Excerpt:    truncateRunes(chunk.Text, 300) + "...",
			Score:      round(chunk.FusedScore, 3),
			FilePath:   chunk.MetadataString("file_path"),
			PageRange:  chunk.MetadataString("page_range"),
			Collection: chunk.Collection,
		})
	}
	return out
}
