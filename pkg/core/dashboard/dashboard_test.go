package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labqc/pkg/core/store"
)

func at(day string, hour int) time.Time {
	t, _ := time.Parse(DayLayout, day)
	return t.Add(time.Duration(hour) * time.Hour)
}

func TestAttention(t *testing.T) {
	assert.Equal(t, StatusPass, Attention("All values consistent. Status: PASS"))
	assert.Equal(t, StatusAttention, Attention("CRITICAL potassium value"))
	assert.Equal(t, StatusAttention, Attention("Clinical info Missing"))
	assert.Equal(t, StatusAttention, Attention("Key findings: none"))
	assert.Equal(t, StatusAttention, Attention("delta discrepancy on HB"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name, in string
		want     Verdict
	}{
		{"bold label", "## Final Decision\n- **Status**: PASS\n- **Confidence**: High", VerdictPass},
		{"plain", "Status: RETURN FOR CORRECTION", VerdictReturn},
		{"bold value", "Status: **HOLD & ESCALATE**", VerdictEscalate},
		{"escaped ampersand", "Status: HOLD &amp; ESCALATE", VerdictEscalate},
		{"lower case", "status: pass", VerdictPass},
		{"no status", "Looks fine overall.", VerdictUnknown},
		{"unrecognised value", "Status: pending", VerdictUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in))
		})
	}
}

func TestLatestPerLab(t *testing.T) {
	records := []store.AIReport{
		{LabID: "2510014360", Analysis: "old", CreatedAt: at("2024-06-01", 8)},
		{LabID: "2510014361", Analysis: "only", CreatedAt: at("2024-06-01", 9)},
		{LabID: "2510014360", Analysis: "new", CreatedAt: at("2024-06-02", 8)},
	}
	got := LatestPerLab(records)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].Analysis)
	assert.Equal(t, "only", got[1].Analysis)
}

func TestSummarizeAndFilter(t *testing.T) {
	records := []store.AIReport{
		{LabID: "2510014360", Analysis: "Status: PASS", Provider: "google", CreatedAt: at("2024-06-02", 8)},
		{LabID: "2510014361", Analysis: "Critical value. Status: HOLD & ESCALATE", Provider: "cerebras", CreatedAt: at("2024-06-02", 9)},
		{LabID: "2510014362", Analysis: "Status: PASS", Provider: "google", CreatedAt: at("2024-06-01", 9)},
		{LabID: "2510014362", Analysis: "missing history", Provider: "google", CreatedAt: at("2024-05-30", 9)},
	}
	entries := Entries(records, time.UTC)
	require.Len(t, entries, 3)

	s := Summarize(entries, "2024-06-02")
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Pass)
	assert.Equal(t, 1, s.Attention)
	assert.Equal(t, 67, s.QualityScore)
	assert.Equal(t, 2, s.DayTotal)
	assert.Equal(t, 1, s.DayAttention)
	assert.Equal(t, 2, s.ProviderCounts["google"])

	assert.Len(t, Filter(entries, "2024-06-02", StatusAll, ""), 2)
	assert.Len(t, Filter(entries, "2024-06-02", StatusAttention, ""), 1)
	assert.Len(t, Filter(entries, "", StatusPass, ""), 2)
	got := Filter(entries, "", StatusAll, "  4362 ")
	require.Len(t, got, 1)
	assert.Equal(t, "2510014362", got[0].LabID)

	assert.Equal(t, 0, Summarize(nil, "2024-06-02").QualityScore)
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusPass, ParseStatus("PASS"))
	assert.Equal(t, StatusAttention, ParseStatus(" attention "))
	assert.Equal(t, StatusAll, ParseStatus("weird"))
}
