package verify

import (
	"strings"
	"testing"

	"github.com/scdesign/factcheck/internal/model"
)

const sampleReport = `<div class="fact-check" lang="en">
    <h2 class="result">MOSTLY ACCURATE</h2>
    <section class="analysis">
        <h3>Conclusion:</h3>
        <p>The main claims are supported by reliable sources, with one exception.</p>
    </section>
    <section class="sources">
        <h3>Sources:</h3>
        <ul>
            <li><a href="https://www.who.int/news/item/example">WHO statement</a></li>
            <li>Peer-reviewed study described without a stable URL</li>
        </ul>
    </section>
    <section class="findings">
        <h3>Findings:</h3>
        <ul>
            <li>
                <strong>Claim 1:</strong>
                <span class="claim-text">The vaccine was approved in 2021.</span> -
                <span class="accuracy">Accurate</span>
                <p class="explanation">Confirmed by the regulator's records.</p>
            </li>
            <li>
                <strong>Claim 2:</strong>
                <span class="claim-text">It was tested on ten people only.</span> -
                <span class="accuracy">Inaccurate</span>
                <p class="explanation">Trial enrollment exceeded 40,000 participants.</p>
            </li>
        </ul>
    </section>
</div>`

func TestParseReport_Complete(t *testing.T) {
	report, err := ParseReport(sampleReport)
	if err != nil {
		t.Fatalf("Expected valid report, got %v", err)
	}

	if report.Verdict != model.VerdictMostlyAccurate {
		t.Errorf("Verdict = %s, want MOSTLY ACCURATE", report.Verdict)
	}
	if report.DetectedLanguage != "en" {
		t.Errorf("DetectedLanguage = %q, want en", report.DetectedLanguage)
	}
	if len(report.Findings) != 2 {
		t.Fatalf("Expected 2 findings, got %d", len(report.Findings))
	}
	if report.Findings[1].Accuracy != model.AccuracyInaccurate {
		t.Errorf("Finding 2 accuracy = %q", report.Findings[1].Accuracy)
	}
	if len(report.Sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(report.Sources))
	}
	if report.Sources[0].URL != "https://www.who.int/news/item/example" {
		t.Errorf("Source 1 URL = %q", report.Sources[0].URL)
	}
	if report.Sources[1].URL != "" {
		t.Errorf("Source without a stable link must have an empty URL, got %q", report.Sources[1].URL)
	}
}

func TestParseReport_MissingPieces(t *testing.T) {
	cases := []struct {
		name string
		html string
	}{
		{"no wrapper", `<p>hello</p>`},
		{"no verdict", `<div class="fact-check"><section class="analysis"><p>x</p></section></div>`},
		{
			"no findings",
			`<div class="fact-check"><h2 class="result">MIXED</h2>
			<section class="analysis"><p>Some conclusion text.</p></section>
			<section class="findings"><ul></ul></section></div>`,
		},
	}

	for _, tc := range cases {
		if _, err := ParseReport(tc.html); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestParseReport_UnknownVerdictNormalizes(t *testing.T) {
	raw := strings.Replace(sampleReport, "MOSTLY ACCURATE", "SOMEWHAT TRUE", 1)
	report, err := ParseReport(raw)
	if err != nil {
		t.Fatalf("Expected valid report, got %v", err)
	}
	if report.Verdict != model.VerdictInconclusive {
		t.Errorf("Unknown heading should normalize to INCONCLUSIVE, got %s", report.Verdict)
	}
}

func TestAppendModelsUsed_PreservesValidatedSections(t *testing.T) {
	used := model.ModelsUsed{FactCheck: "gpt-4o-mini", WebSearch: "gpt-4o-search-preview"}

	out := AppendModelsUsed(sampleReport, used)

	if !strings.Contains(out, `class="models-used"`) {
		t.Fatal("Expected models-used section")
	}
	if !strings.Contains(out, "gpt-4o-mini") {
		t.Error("Expected fact-check model name")
	}
	// The document must still validate with identical content.
	report, err := ParseReport(out)
	if err != nil {
		t.Fatalf("Report no longer parses after attachment: %v", err)
	}
	if len(report.Findings) != 2 {
		t.Errorf("Findings changed after attachment: %d", len(report.Findings))
	}
}

func TestErrorReport_IsWellFormed(t *testing.T) {
	report := ErrorReport("backend unreachable")

	if report.Verdict != model.VerdictError {
		t.Errorf("Verdict = %s, want ERROR", report.Verdict)
	}
	if report.Conclusion == "" || len(report.Findings) == 0 {
		t.Error("Error report must keep the full report shape")
	}
	// Degraded output still satisfies the document contract.
	if _, err := ParseReport(report.HTML); err != nil {
		t.Errorf("Error report HTML does not parse: %v", err)
	}
}
