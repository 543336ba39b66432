package model

// Verdict is the overall accuracy classification of a verification report
type Verdict string

const (
	VerdictInconclusive     Verdict = "INCONCLUSIVE"
	VerdictMostlyAccurate   Verdict = "MOSTLY ACCURATE"
	VerdictMostlyInaccurate Verdict = "MOSTLY INACCURATE"
	VerdictMixed            Verdict = "MIXED"
	VerdictAccurate         Verdict = "ACCURATE"
	VerdictInaccurate       Verdict = "INACCURATE"
	VerdictManipulated      Verdict = "MANIPULATED"
	VerdictSatirical        Verdict = "SATIRICAL"
	VerdictUnverifiable     Verdict = "UNVERIFIABLE"
	VerdictError            Verdict = "ERROR"
)

// ParseVerdict maps a report heading to a known verdict.
// Unknown headings normalize to INCONCLUSIVE rather than failing the report.
func ParseVerdict(s string) Verdict {
	for _, v := range []Verdict{
		VerdictMostlyAccurate, VerdictMostlyInaccurate, VerdictInconclusive,
		VerdictMixed, VerdictAccurate, VerdictInaccurate, VerdictManipulated,
		VerdictSatirical, VerdictUnverifiable, VerdictError,
	} {
		if string(v) == s {
			return v
		}
	}
	return VerdictInconclusive
}

// Accuracy is the per-claim classification on a fixed ordinal scale
type Accuracy string

const (
	AccuracyAccurate       Accuracy = "Accurate"
	AccuracyPartlyAccurate Accuracy = "Partly accurate"
	AccuracyInaccurate     Accuracy = "Inaccurate"
	AccuracyMisleading     Accuracy = "Misleading"
	AccuracyUnableToVerify Accuracy = "Unable to verify"
	AccuracyUnknown        Accuracy = "I don't know"
)

// Source is a cited reference. URL is empty when no stable link exists;
// a speculative URL must never be emitted in its place.
type Source struct {
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

// Finding is one fact-checked claim inside a report
type Finding struct {
	Claim       string   `json:"claim"`
	Accuracy    Accuracy `json:"accuracy"`
	Explanation string   `json:"explanation"`
}

// ModelsUsed records which models produced each stage of a report.
// Attached for observability only, never part of validated content.
type ModelsUsed struct {
	Transcription string `json:"transcription,omitempty"`
	FactCheck     string `json:"fact_check,omitempty"`
	ImageAnalysis string `json:"image_analysis,omitempty"`
	WebSearch     string `json:"web_search,omitempty"`
}

// VerificationReport is the structured result of one verification.
// HTML is the canonical rendered document; the remaining fields are
// parsed from it. A successfully produced report always carries at
// least one finding and a non-empty conclusion.
type VerificationReport struct {
	Verdict          Verdict    `json:"verdict"`
	Conclusion       string     `json:"conclusion"`
	Sources          []Source   `json:"sources"`
	Findings         []Finding  `json:"findings"`
	HTML             string     `json:"html"`
	DetectedLanguage string     `json:"detected_language,omitempty"`
	ModelsUsed       ModelsUsed `json:"models_used"`
}

// IsError reports whether this is a degraded error-shaped report
func (r *VerificationReport) IsError() bool {
	return r.Verdict == VerdictError
}
