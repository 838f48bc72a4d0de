package consolidate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// sectionHeader matches bold, code-led headings such as "**TVI3**: Notice",
// "**TVI3: Notice**" or "- **ADA-GEN2 - Service animals**".
var sectionHeader = regexp.MustCompile(
	`^\s*(?:[-*]\s+|#+\s+)?\*\*\s*((?i:TVI\d+(?:-\d+)?|ADA-(?:GEN|CPT)\d+|TC-(?:PjM|AM|PrgM)\d+|[A-Z]{1,6}\d+|\d{4}:\d+))\b\s*[:.\-]?\s*([^*]*)\*\*\s*[:.\-]?\s*(.*)$`,
)

var letteredItem = regexp.MustCompile(`^[a-z]\.(?:\s|$)`)

var leadingCount = regexp.MustCompile(`There are (\*\*)?(\d+)`)

const titlePrefixLen = 30

// ReconcileAnswer drops repeated section blocks from generated text and rewrites
// the first "There are N" with the number of lettered items that remain.
// Applying it twice gives the same text as applying it once.
func ReconcileAnswer(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	seen := make(map[string]struct{})
	skipping := false

	for _, line := range lines {
		if key, ok := headerKey(line); ok {
			if _, dup := seen[key]; dup {
				skipping = true
				continue
			}
			seen[key] = struct{}{}
			skipping = false
			kept = append(kept, line)
			continue
		}
		if skipping {
			continue
		}
		kept = append(kept, line)
	}

	items := CountLetteredItems(kept)
	out := strings.Join(kept, "\n")
	if items == 0 {
		return out
	}
	return rewriteLeadingCount(out, items)
}

// CountLetteredItems counts lines that start with a lowercase letter and a period.
func CountLetteredItems(lines []string) int {
	n := 0
	for _, line := range lines {
		if letteredItem.MatchString(line) {
			n++
		}
	}
	return n
}

func headerKey(line string) (string, bool) {
	m := sectionHeader.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	title := normalizeTitle(m[2] + " " + m[3])
	if runes := []rune(title); len(runes) > titlePrefixLen {
		title = string(runes[:titlePrefixLen])
	}
	return strings.ToUpper(m[1]) + "|" + title, true
}

func normalizeTitle(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

func rewriteLeadingCount(text string, n int) string {
	loc := leadingCount.FindStringSubmatchIndex(text)
	if loc == nil {
		return text
	}
	// loc[4]:loc[5] is the digit group.
	return text[:loc[4]] + strconv.Itoa(n) + text[loc[5]:]
}
