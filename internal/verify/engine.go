// Package verify produces structured fact-check reports through an
// external reasoning service, enforcing the output schema and output
// language with bounded retries. Verify never fails outright: callers
// always receive a report-shaped document, degraded to verdict ERROR
// when everything else is exhausted.
package verify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scdesign/factcheck/internal/lang"
	"github.com/scdesign/factcheck/internal/llm"
	"github.com/scdesign/factcheck/internal/model"
	"github.com/scdesign/factcheck/internal/retry"
)

// Engine runs the verification validation loop
type Engine struct {
	cap llm.Capability
	cfg model.VerifyConfig
}

// NewEngine creates an engine over a resolved capability. A nil
// capability means no credential was available; Verify then
// short-circuits to the error report without any network call.
func NewEngine(cap llm.Capability, cfg model.VerifyConfig) *Engine {
	return &Engine{cap: cap, cfg: cfg}
}

// Verify produces a validated report for the request
func (e *Engine) Verify(ctx context.Context, req Request) *model.VerificationReport {
	if e.cap == nil {
		return ErrorReport("no API credential available; supply an API key or configure a server default")
	}

	report, err := e.generateValid(ctx, req)
	if err != nil {
		slog.Error("verification exhausted retries", "modality", req.Modality, "error", err)
		return e.attach(ErrorReport(err.Error()))
	}

	// The vision model tends to drift back to English regardless of
	// instructions. Cross-check the response language and escalate once.
	if req.Modality == model.ModalityImage {
		if fixed := e.enforceLanguage(ctx, req, report); fixed != nil {
			report = fixed
		}
	}

	return e.attach(report)
}

// generateValid is the validation loop: call, parse, and retry with a
// fixed delay until the document carries all required sections.
func (e *Engine) generateValid(ctx context.Context, req Request) (*model.VerificationReport, error) {
	var report *model.VerificationReport
	policy := retry.Fixed(e.cfg.MaxRetries, e.cfg.RetryDelay)

	err := policy.Do(ctx, func(attempt int) error {
		raw, err := e.generate(ctx, req)
		if err != nil {
			slog.Warn("verification call failed", "attempt", attempt, "error", err)
			return err
		}
		parsed, err := ParseReport(raw)
		if err != nil {
			slog.Warn("verification response invalid", "attempt", attempt, "error", err)
			return err
		}
		report = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("no valid report after %d attempts: %w", e.cfg.MaxRetries, err)
	}
	return report, nil
}

func (e *Engine) generate(ctx context.Context, req Request) (string, error) {
	system := systemPrompt(req.Modality)
	prompt := buildPrompt(req)

	if req.Modality == model.ModalityImage {
		return e.cap.ChatImage(ctx, system, prompt, req.ImageDataURL)
	}
	return e.cap.Chat(ctx, system, prompt)
}

// enforceLanguage checks the report's self-tagged language against an
// independent detection of the conclusion text. On mismatch it retries
// exactly once with the strengthened instruction; the original report
// is kept if the retry does not improve things.
func (e *Engine) enforceLanguage(ctx context.Context, req Request, report *model.VerificationReport) *model.VerificationReport {
	actual := lang.Detect(report.Conclusion)
	target := req.TargetLanguage()

	if lang.Match(actual, report.DetectedLanguage) && lang.Match(actual, target) {
		return nil
	}

	slog.Info("language mismatch, escalating instruction",
		"tagged", report.DetectedLanguage, "detected", actual, "target", target)

	escalated := req
	escalated.EscalateLanguage = true

	raw, err := e.generate(ctx, escalated)
	if err != nil {
		return nil
	}
	parsed, err := ParseReport(raw)
	if err != nil {
		return nil
	}
	return parsed
}

// attach adds the observability appendix outside the validated sections
func (e *Engine) attach(report *model.VerificationReport) *model.VerificationReport {
	if e.cap == nil {
		return report
	}
	used := e.cap.Models()
	report.ModelsUsed = used
	report.HTML = AppendModelsUsed(report.HTML, used)
	return report
}
