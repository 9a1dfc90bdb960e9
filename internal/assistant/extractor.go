package assistant

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	dosageRE         = regexp.MustCompile(`(?i)\d+\s*(?:mg|ml|g|tablet|pill|capsule|dose)?`)
	dosageWithUnitRE = regexp.MustCompile(`(?i)\b\d+\s*(?:mg|ml|g|tablets?|pills?|capsules?|doses?)\b`)
	frequencyRE      = regexp.MustCompile(`(?i)\b(?:twice|once|thrice|daily|weekly|every\s+\d+\s+hours?)\b`)
	fallbackNameRE   = regexp.MustCompile(`(?i)\b(?:medicine|medication)\s+([a-z0-9]+)`)
)

var frequencyWords = map[string]struct{}{
	"twice": {}, "once": {}, "thrice": {}, "daily": {}, "weekly": {}, "every": {},
}

const (
	maxNameTokens = 3
	minNameLength = 3
)

// Extraction is the structured result of parsing a record request.
type Extraction struct {
	Name string
	// Dosage carries the frequency phrase as a suffix ("500mg twice daily").
	Dosage    string
	Frequency string
}

// Extractor pulls a medicine name, dosage and frequency out of free text.
type Extractor struct {
	recordKeywords []string
	medicineNouns  []string
}

// NewExtractor builds an extractor from the record keywords and medicine
// nouns of table.
func NewExtractor(table Table) *Extractor {
	return &Extractor{
		recordKeywords: append([]string(nil), table.RecordKeywords...),
		medicineNouns:  append([]string(nil), table.MedicineNouns...),
	}
}

// Extract parses utterance. ok is false when no usable name was found.
func (e *Extractor) Extract(utterance string) (Extraction, bool) {
	text := strings.TrimSpace(utterance)
	lower := strings.ToLower(text)
	// Offsets found in lower can be reused on text only when lower-casing kept
	// every byte in place.
	if len(lower) != len(text) {
		text = lower
	}

	var out Extraction
	for _, kw := range e.recordKeywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}
		fragment := strings.TrimSpace(text[idx+len(kw):])
		out.Name = e.candidateName(fragment)
		out.Dosage = strings.TrimSpace(dosageRE.FindString(fragment))
		if freq := frequencyRE.FindAllString(fragment, -1); len(freq) > 0 {
			out.Frequency = strings.Join(freq, " ")
			out.Dosage = joinNonEmpty(out.Dosage, out.Frequency)
		}
		break
	}

	if out.Name == "" && (strings.Contains(lower, "medicine") || strings.Contains(lower, "medication")) {
		if m := fallbackNameRE.FindStringSubmatch(text); len(m) == 2 {
			out.Name = strings.TrimSpace(m[1])
		}
	}

	if utf8.RuneCountInString(out.Name) < minNameLength {
		return Extraction{}, false
	}
	return out, true
}

// LooksLikeRecordRequest reports whether lower (already normalized) pairs a
// record keyword with a medicine noun or with a dosage that carries a unit.
func (e *Extractor) LooksLikeRecordRequest(lower string) bool {
	if !containsAny(lower, e.recordKeywords) {
		return false
	}
	return containsAny(lower, e.medicineNouns) || dosageWithUnitRE.MatchString(lower)
}

// candidateName takes up to three leading tokens of fragment, stopping at
// the first dosage or frequency token, then drops a leading medicine noun.
// The noun counts toward the three.
func (e *Extractor) candidateName(fragment string) string {
	name := make([]string, 0, maxNameTokens)
	for _, tok := range strings.Fields(fragment) {
		if len(name) == maxNameTokens || startsDosageOrFrequency(tok) {
			break
		}
		name = append(name, tok)
	}
	if len(name) > 0 && e.isMedicineNoun(name[0]) {
		name = name[1:]
	}
	return strings.Join(name, " ")
}

func (e *Extractor) isMedicineNoun(tok string) bool {
	tok = strings.ToLower(tok)
	for _, n := range e.medicineNouns {
		if tok == n {
			return true
		}
	}
	return false
}

func startsDosageOrFrequency(tok string) bool {
	if tok[0] >= '0' && tok[0] <= '9' {
		return true
	}
	_, ok := frequencyWords[strings.ToLower(tok)]
	return ok
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
