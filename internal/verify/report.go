package verify

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/scdesign/factcheck/internal/model"
)

// ParseReport parses and validates a report document. Any missing
// required piece (verdict heading, conclusion, at least one finding)
// is an error so the engine can retry the generation.
func ParseReport(raw string) (*model.VerificationReport, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}

	root := doc.Find("div.fact-check").First()
	if root.Length() == 0 {
		return nil, fmt.Errorf("report missing fact-check wrapper")
	}

	heading := strings.TrimSpace(root.Find("h2.result").First().Text())
	if heading == "" {
		return nil, fmt.Errorf("report missing verdict heading")
	}

	conclusion := strings.TrimSpace(root.Find("section.analysis p").First().Text())
	if conclusion == "" {
		return nil, fmt.Errorf("report missing conclusion")
	}

	var sources []model.Source
	root.Find("section.sources li").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a").First()
		if href, ok := link.Attr("href"); ok && href != "" {
			sources = append(sources, model.Source{
				Description: strings.TrimSpace(link.Text()),
				URL:         href,
			})
			return
		}
		if desc := strings.TrimSpace(s.Text()); desc != "" {
			sources = append(sources, model.Source{Description: desc})
		}
	})

	var findings []model.Finding
	root.Find("section.findings li").Each(func(_ int, s *goquery.Selection) {
		claim := strings.TrimSpace(s.Find("span.claim-text").First().Text())
		if claim == "" {
			return
		}
		findings = append(findings, model.Finding{
			Claim:       claim,
			Accuracy:    model.Accuracy(strings.TrimSpace(s.Find("span.accuracy").First().Text())),
			Explanation: strings.TrimSpace(s.Find("p.explanation").First().Text()),
		})
	})
	if len(findings) == 0 {
		return nil, fmt.Errorf("report missing findings")
	}

	langTag, _ := root.Attr("lang")

	return &model.VerificationReport{
		Verdict:          model.ParseVerdict(strings.ToUpper(heading)),
		Conclusion:       conclusion,
		Sources:          sources,
		Findings:         findings,
		HTML:             raw,
		DetectedLanguage: strings.TrimSpace(langTag),
	}, nil
}

// AppendModelsUsed attaches the non-semantic observability section to
// the rendered document. Inserted before the closing wrapper tag so
// the validated sections are untouched.
func AppendModelsUsed(raw string, used model.ModelsUsed) string {
	var b strings.Builder
	b.WriteString(`<section class="models-used"><h3>Models used:</h3><ul>`)
	for _, entry := range []struct{ label, name string }{
		{"Transcription", used.Transcription},
		{"Fact check", used.FactCheck},
		{"Image analysis", used.ImageAnalysis},
		{"Web search", used.WebSearch},
	} {
		if entry.name == "" {
			continue
		}
		fmt.Fprintf(&b, "<li>%s: %s</li>", entry.label, html.EscapeString(entry.name))
	}
	b.WriteString("</ul></section>")

	if i := strings.LastIndex(raw, "</div>"); i >= 0 {
		return raw[:i] + b.String() + raw[i:]
	}
	return raw + b.String()
}

// ErrorReport builds the degraded report returned when verification
// cannot produce a valid document. Same shape as a real report so
// callers always receive parseable structure.
func ErrorReport(reason string) *model.VerificationReport {
	conclusion := fmt.Sprintf("The fact-check could not be completed: %s", reason)
	explanation := "Verification failed. Try again in a few minutes; if the problem persists, check the service configuration and API credentials."

	raw := fmt.Sprintf(`<div class="fact-check" lang="en">
    <h2 class="result">ERROR</h2>
    <section class="analysis">
        <h3>Conclusion:</h3>
        <p>%s</p>
    </section>
    <section class="sources">
        <h3>Sources:</h3>
        <ul></ul>
    </section>
    <section class="findings">
        <h3>Findings:</h3>
        <ul>
            <li>
                <strong>Claim 1:</strong>
                <span class="claim-text">Fact-check processing</span> -
                <span class="accuracy">Unable to verify</span>
                <p class="explanation">%s</p>
            </li>
        </ul>
    </section>
</div>`, html.EscapeString(conclusion), explanation)

	return &model.VerificationReport{
		Verdict:    model.VerdictError,
		Conclusion: conclusion,
		Findings: []model.Finding{{
			Claim:       "Fact-check processing",
			Accuracy:    model.AccuracyUnableToVerify,
			Explanation: explanation,
		}},
		HTML:             raw,
		DetectedLanguage: "en",
	}
}
