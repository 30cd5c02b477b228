package prompt

import (
	"strings"

	"labqc/pkg/core/report"
)

// Template tokens. Stored templates depend on these exact spellings.
const (
	TokenFullName     = "{{fullname}}"
	TokenAge          = "{{age}}"
	TokenGender       = "{{gender}}"
	TokenClinicalInfo = "{{clinical_info}}"
	TokenTestResults  = "{{test_results}}"
)

const (
	noHistory      = "None"
	noClinicalInfo = "None provided"
)

// Compile substitutes report data into template. Every occurrence of a known
// token is replaced; unknown {{...}} tokens pass through verbatim. A nil
// report compiles as an empty one.
func Compile(template string, r *report.Report) string {
	if r == nil {
		r = &report.Report{}
	}

	clinical := r.ClinicalInfo
	if clinical == "" {
		clinical = noClinicalInfo
	}

	// Single pass so substituted values are never rescanned for tokens.
	replacer := strings.NewReplacer(
		TokenFullName, r.Fullname,
		TokenAge, r.Age,
		TokenGender, r.Gender,
		TokenClinicalInfo, clinical,
		TokenTestResults, TestResults(r),
	)
	return replacer.Replace(template)
}

// TestResults renders the {{test_results}} block.
//
//	[TEST: Complete Blood Count (CBC)]
//	- Hemoglobin (HB): Result=9.1, Range=12-16, History=11.8
func TestResults(r *report.Report) string {
	if r == nil {
		return ""
	}
	blocks := make([]string, 0, len(r.TestReqest))
	for _, t := range r.TestReqest {
		var b strings.Builder
		b.WriteString("\n[TEST: ")
		b.WriteString(t.TestName)
		b.WriteString(" (")
		b.WriteString(t.TestCode)
		b.WriteString(")]\n")
		for _, p := range t.Testparameters {
			history := noHistory
			if p.HasHistory() {
				history = p.HistoryValue
			}
			b.WriteString("- ")
			b.WriteString(p.ParameterName)
			b.WriteString(" (")
			b.WriteString(p.ParameterCode)
			b.WriteString("): Result=")
			b.WriteString(p.Value)
			b.WriteString(", Range=")
			b.WriteString(p.NormalRange)
			b.WriteString(", History=")
			b.WriteString(history)
			b.WriteString("\n")
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}
