// Package report models the lab report payload served by the upstream
// laboratory information system and fetches it by lab identifier.
//
// Field names follow the upstream JSON verbatim (including the misspelled
// "TestReqest"), so a payload decodes without a mapping layer.
package report

// Parameter is a single measured analyte inside a test panel.
type Parameter struct {
	TestCode         string  `json:"TestCode"`
	ParameterCode    string  `json:"ParameterCode"`
	ParameterName    string  `json:"ParameterName"`
	Value            string  `json:"Value"`
	NormalRange      string  `json:"NormalRange"`
	ParameterComment *string `json:"ParameterComment"`
	Interference     *string `json:"interference"`
	HistoryValue     string  `json:"HistoryValue"`
	HistoryDate      string  `json:"HistoryDate"`
}

// HasHistory reports whether a prior value was recorded.
func (p Parameter) HasHistory() bool {
	return p.HistoryValue != ""
}

// Test is a named panel (e.g. CBC) with its parameters in source order.
type Test struct {
	TestCode       string      `json:"TestCode"`
	TestName       string      `json:"TestName"`
	Duration       string      `json:"Duration"`
	Testparameters []Parameter `json:"Testparameters"`
}

// Report is one patient's lab record. It is read-only to this module.
type Report struct {
	LabID        string `json:"LabID"`
	PatientID    string `json:"PatientID"`
	Fullname     string `json:"Fullname"`
	Age          string `json:"Age"`
	Gender       string `json:"Gender"`
	Phone        string `json:"Phone"`
	Sender       string `json:"Sender"`
	ClinicalInfo string `json:"ClinicalInfo"`
	SampleOut    string `json:"SampleOut"`
	Comment      string `json:"Comment"`
	TestReqest   []Test `json:"TestReqest"`
}

// ParameterCount returns the number of parameters across all tests.
func (r *Report) ParameterCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, t := range r.TestReqest {
		n += len(t.Testparameters)
	}
	return n
}
