package routing

import (
	"fmt"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

func codeRange(prefix string, from, to int) []domain.Identifier {
	out := make([]domain.Identifier, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, domain.CanonicalIdentifier(fmt.Sprintf("%s%d", prefix, i)))
	}
	return out
}

func procurementCodes() []domain.Identifier {
	// P3 was retired from the guide.
	out := codeRange("P", 1, 2)
	return append(out, codeRange("P", 4, 21)...)
}

// DefaultPhraseMap returns the built-in section-name vocabulary.
//
// The bare abbreviation "ada" is deliberately absent: as a substring phrase it
// would turn every general accessibility question into a 14-identifier hybrid
// lookup. "ada general", "ada paratransit" and the spelled-out names still map.
func DefaultPhraseMap() domain.PhraseMap {
	legal := codeRange("L", 1, 3)
	financial := codeRange("F", 1, 9)
	award := codeRange("TC-AM", 1, 5)
	program := codeRange("TC-PrgM", 1, 7)
	project := codeRange("TC-PjM", 1, 4)
	tam := codeRange("TAM", 1, 8)
	scc := codeRange("SCC", 1, 13)
	maintenance := codeRange("M", 1, 5)
	procurement := procurementCodes()
	dbe := codeRange("DBE", 1, 13)
	titleVI := codeRange("TVI", 1, 10)
	adaGeneral := codeRange("ADA-GEN", 1, 14)
	paratransit := codeRange("ADA-CPT", 1, 8)
	eeo := codeRange("EEO", 1, 5)
	schoolBus := codeRange("SB", 1, 4)
	charter := codeRange("CB", 1, 3)
	dfwa := codeRange("DFWA", 1, 3)
	drugAlcohol := codeRange("DA", 1, 5)
	s5307 := codeRange("5307:", 1, 5)
	s5310 := codeRange("5310:", 1, 5)
	s5311 := codeRange("5311:", 1, 4)
	ptasp := codeRange("PTASP", 1, 6)
	cyber := codeRange("C", 1, 1)

	return domain.PhraseMap{
		"legal":              legal,
		"law":                legal,
		"legal matters":      legal,
		"legal requirements": legal,

		"financial":            financial,
		"finance":              financial,
		"financial management": financial,
		"financial capacity":   financial,
		"budget":               financial,

		"technical capacity award": award,
		"award management":         award,
		"tc award":                 award,

		"technical capacity program": program,
		"program management":         program,
		"subrecipient oversight":     program,

		"technical capacity project": project,
		"project management":         project,
		"tc project":                 project,

		"transit asset":    tam,
		"asset management": tam,
		"tam":              tam,

		"continuing control":   scc,
		"scc":                  scc,
		"satisfactory control": scc,

		"maintenance":         maintenance,
		"vehicle maintenance": maintenance,

		"procurement": procurement,
		"purchasing":  procurement,
		"contracting": procurement,

		"dbe":                    dbe,
		"disadvantaged business": dbe,
		"dbe program":            dbe,

		"title vi":          titleVI,
		"title 6":           titleVI,
		"civil rights":      titleVI,
		"nondiscrimination": titleVI,

		"ada general":                 adaGeneral,
		"americans with disabilities": adaGeneral,
		"accessibility":               adaGeneral,
		"disabilities":                adaGeneral,

		"paratransit":               paratransit,
		"ada paratransit":           paratransit,
		"complementary paratransit": paratransit,

		"eeo":                    eeo,
		"equal employment":       eeo,
		"employment opportunity": eeo,

		"school bus":            schoolBus,
		"school transportation": schoolBus,

		"charter bus":        charter,
		"charter service":    charter,
		"charter operations": charter,

		"drug free":           dfwa,
		"drug-free workplace": dfwa,
		"dfwa":                dfwa,

		"drug and alcohol":     drugAlcohol,
		"drug alcohol program": drugAlcohol,
		"substance abuse":      drugAlcohol,

		"5307":           s5307,
		"section 5307":   s5307,
		"urbanized area": s5307,

		"5310":                 s5310,
		"section 5310":         s5310,
		"elderly and disabled": s5310,

		"5311":          s5311,
		"section 5311":  s5311,
		"rural area":    s5311,
		"rural transit": s5311,

		"ptasp":              ptasp,
		"safety plan":        ptasp,
		"agency safety plan": ptasp,

		"cybersecurity":        cyber,
		"cyber security":       cyber,
		"information security": cyber,
	}
}
