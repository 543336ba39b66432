package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/scdesign/factcheck/internal/model"
)

// fakeCapability replays canned responses and records every prompt
type fakeCapability struct {
	responses []string
	calls     int
	prompts   []string
}

func (f *fakeCapability) next(prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.calls >= len(f.responses) {
		f.calls++
		return "", errors.New("no more canned responses")
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

func (f *fakeCapability) Chat(_ context.Context, _, user string) (string, error) {
	return f.next(user)
}

func (f *fakeCapability) ChatImage(_ context.Context, _, user, _ string) (string, error) {
	return f.next(user)
}

func (f *fakeCapability) ChatSearch(_ context.Context, _, user string) (string, error) {
	return f.next(user)
}

func (f *fakeCapability) Transcribe(_ context.Context, _ string) (string, string, error) {
	return "", "", errors.New("not implemented")
}

func (f *fakeCapability) Models() model.ModelsUsed {
	return model.ModelsUsed{FactCheck: "fake-model"}
}

func validDoc(langCode, conclusion string) string {
	return fmt.Sprintf(`<div class="fact-check" lang="%s">
<h2 class="result">MIXED</h2>
<section class="analysis"><h3>Conclusion:</h3><p>%s</p></section>
<section class="sources"><h3>Sources:</h3><ul></ul></section>
<section class="findings"><h3>Findings:</h3><ul>
<li><strong>Claim 1:</strong> <span class="claim-text">Example claim text.</span> -
<span class="accuracy">Partly accurate</span>
<p class="explanation">Example explanation.</p></li>
</ul></section>
</div>`, langCode, conclusion)
}

const missingFindings = `<div class="fact-check" lang="en">
<h2 class="result">MIXED</h2>
<section class="analysis"><h3>Conclusion:</h3><p>Half done response.</p></section>
</div>`

func testVerifyConfig() model.VerifyConfig {
	return model.VerifyConfig{MaxRetries: 3, RetryDelay: time.Millisecond}
}

func TestVerify_RetriesUntilValidDocument(t *testing.T) {
	cap := &fakeCapability{responses: []string{
		missingFindings,
		validDoc("en", "The claims hold up under scrutiny after careful review of sources."),
	}}
	engine := NewEngine(cap, testVerifyConfig())

	report := engine.Verify(context.Background(), Request{
		Modality: model.ModalityText,
		Text:     "some content to check",
	})

	if report.IsError() {
		t.Fatalf("Expected a real report, got ERROR: %s", report.Conclusion)
	}
	if cap.calls != 2 {
		t.Errorf("Expected exactly 2 calls, got %d", cap.calls)
	}
	if report.Verdict != model.VerdictMixed {
		t.Errorf("Verdict = %s, want MIXED", report.Verdict)
	}
}

func TestVerify_ExhaustedRetriesDegradeToErrorReport(t *testing.T) {
	cap := &fakeCapability{responses: []string{"garbage", "garbage", "garbage", "garbage"}}
	engine := NewEngine(cap, testVerifyConfig())

	report := engine.Verify(context.Background(), Request{
		Modality: model.ModalityText,
		Text:     "content",
	})

	if !report.IsError() {
		t.Fatal("Expected ERROR report")
	}
	if cap.calls != 3 {
		t.Errorf("Expected exactly max_retries (3) calls, got %d", cap.calls)
	}
	if _, err := ParseReport(report.HTML); err != nil {
		t.Errorf("Degraded report must still be well-formed: %v", err)
	}
}

func TestVerify_NoCredentialShortCircuits(t *testing.T) {
	engine := NewEngine(nil, testVerifyConfig())

	report := engine.Verify(context.Background(), Request{Modality: model.ModalityText, Text: "x"})

	if !report.IsError() {
		t.Fatal("Expected ERROR report without a credential")
	}
}

func TestVerify_ImageLanguageMismatchEscalatesOnce(t *testing.T) {
	english := validDoc("en", "The image shows a staged scene according to multiple agency reports.")
	french := validDoc("fr", "L'image montre une scène mise en scène selon plusieurs rapports d'agences de presse.")

	cap := &fakeCapability{responses: []string{english, french}}
	engine := NewEngine(cap, testVerifyConfig())

	report := engine.Verify(context.Background(), Request{
		Modality:          model.ModalityImage,
		ImageDataURL:      "data:image/jpeg;base64,xxxx",
		PreferredLanguage: "fr",
	})

	if cap.calls != 2 {
		t.Fatalf("Expected exactly 2 calls (original + escalation), got %d", cap.calls)
	}
	if !strings.Contains(cap.prompts[1], "CRITICAL LANGUAGE REQUIREMENT") {
		t.Error("Second prompt must carry the strengthened language instruction")
	}
	if strings.Contains(cap.prompts[0], "CRITICAL LANGUAGE REQUIREMENT") {
		t.Error("First prompt must not be escalated")
	}
	if report.DetectedLanguage != "fr" {
		t.Errorf("Expected the escalated French report, got lang %q", report.DetectedLanguage)
	}
}

func TestVerify_ImageLanguageMatchNoRetry(t *testing.T) {
	french := validDoc("fr", "L'image correspond aux photographies publiées par les agences de presse cette semaine.")
	cap := &fakeCapability{responses: []string{french}}
	engine := NewEngine(cap, testVerifyConfig())

	report := engine.Verify(context.Background(), Request{
		Modality:          model.ModalityImage,
		ImageDataURL:      "data:image/jpeg;base64,xxxx",
		PreferredLanguage: "fr",
	})

	if cap.calls != 1 {
		t.Errorf("Expected 1 call when language already matches, got %d", cap.calls)
	}
	if report.IsError() {
		t.Errorf("Unexpected ERROR report: %s", report.Conclusion)
	}
}

func TestVerify_AttachesModelsUsed(t *testing.T) {
	cap := &fakeCapability{responses: []string{
		validDoc("en", "Everything checks out against the public record and archives."),
	}}
	engine := NewEngine(cap, testVerifyConfig())

	report := engine.Verify(context.Background(), Request{Modality: model.ModalityText, Text: "x"})

	if report.ModelsUsed.FactCheck != "fake-model" {
		t.Errorf("ModelsUsed not attached: %+v", report.ModelsUsed)
	}
	if !strings.Contains(report.HTML, `class="models-used"`) {
		t.Error("HTML appendix missing")
	}
}
