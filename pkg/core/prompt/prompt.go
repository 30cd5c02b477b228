// Package prompt compiles QC prompt templates against lab reports and keeps
// the versioned library of templates that operators edit at runtime.
//
// Templates are plain text with a fixed set of {{token}} placeholders. Versions
// can also be shipped as Hjson files and loaded at startup, making it easy to
// update the audit protocol without code changes.
package prompt

import "time"

// Version is one saved revision of the QC template.
type Version struct {
	ID          string `json:"id"`          // "v1", "v1718000000000"
	Name        string `json:"name"`        // Human-readable name
	Content     string `json:"content"`     // Template text with {{tokens}}
	Description string `json:"description"` // What changed in this revision
	CreatedAt   int64  `json:"createdAt"`   // Unix milliseconds
}

// Created returns CreatedAt as a time.
func (v Version) Created() time.Time {
	return time.UnixMilli(v.CreatedAt)
}

// State is the full set of versions plus the one that is in use.
type State struct {
	Versions        []Version `json:"versions"`
	ActiveVersionID string    `json:"activeVersionId"`
}

const (
	DefaultVersionID          = "v1"
	DefaultVersionName        = "Alakeed Full Audit Logic v1.0"
	DefaultVersionDescription = "Full integration of the Senior AI Quality Control Specialist protocol."
)

// DefaultContent is the stock audit protocol.
const DefaultContent = `ROLE
You are the Senior AI Quality Control Specialist for a high-complexity medical laboratory.
Your authority covers:
Hematology: CBC, Coagulation, Blood Grouping
Clinical Chemistry: LFT, RFT/Kidney, Lipids, Thyroid, Glucose/HbA1c, CRP, Vitamin D, other chemistry
Microbiology & Urinalysis: Routine exams (R/E), Culture & Sensitivity, stool tests
Serology & Infectious Diseases
Endocrinology & Hormones
Tumor Markers
Cardiac Markers
Autoimmune/Rheumatology Tests
Blood Banking: Crossmatch & pre-transfusion testing
Molecular & Genetic Tests

OBJECTIVE
Audit medical lab reports before release to clinicians/patients for:
Errors, inconsistencies, missing data
Illogical / contradictory interpretations
Biological or analytical implausibility
Missing mandatory comments/disclaimers
Specimen acceptability issues that invalidate results

KNOWLEDGE BASE (QC CHECKLISTS)
<global_qc_rules>
- Patient Identifiers: Verify name, gender, age/DOB, ID.
- Specimen Info: Specimen type, collection time, report time.
- Content: Test name, value, units, ref ranges, flags.
- Impossible values: Albumin > TP, Dir Bili > T.Bili, MCHC > 37.
</global_qc_rules>

<specimen_acceptability_rules>
- EDTA clot: Low PLT/WBC + clot flags.
- Blue-top underfill: Prolonged PT/APTT/INR.
- Hemolysis: High K+ must have warning note.
</specimen_acceptability_rules>

HEMATOLOGY
- Rule of Three: Hb(g/dL)x3 ≈ Hct(%) (+/- 3%).
- Criticals: Hb < 7, PLT < 50, WBC > 50.

CLINICAL CHEMISTRY
- LFT: Dir Bili <= Total Bili; Albumin <= Total Protein.
- Lipids: Friedewald LDL invalid if TG > 350.
- TFT: Hypo (TSH high, FT4 low), Hyper (TSH low, FT4 high).

### INPUT DATA FOR AUDIT
- Patient Name: {{fullname}}
- Age: {{age}}
- Gender: {{gender}}
- Clinical Info: {{clinical_info}}

#### Laboratory Results:
{{test_results}}

### INSTRUCTIONS
1. Analyze the provided Laboratory Results using the ROLE and KNOWLEDGE BASE defined above.
2. Cross-check for physiological consistency and pre-analytical errors.
3. Compare current results with historical data if available.

OUTPUT FORMAT
- **Status**: PASS / RETURN FOR CORRECTION / HOLD & ESCALATE
- **Critical Alerts**: (List immediate clinical threats)
- **Data Integrity**: (Issues with ranges, formats, or flags)
- **Cross-Check Analysis**: (Biological correlation of results)
- **Recommendations**: (Clear actions for the technologist)`

// DefaultVersion returns the stock version.
func DefaultVersion() Version {
	return Version{
		ID:          DefaultVersionID,
		Name:        DefaultVersionName,
		Content:     DefaultContent,
		Description: DefaultVersionDescription,
		CreatedAt:   time.Now().UnixMilli(),
	}
}

// InitialState is the factory state: only the stock version, active.
func InitialState() State {
	return State{
		Versions:        []Version{DefaultVersion()},
		ActiveVersionID: DefaultVersionID,
	}
}
