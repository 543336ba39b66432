package verify

import (
	"fmt"
	"strings"

	"github.com/scdesign/factcheck/internal/lang"
	"github.com/scdesign/factcheck/internal/model"
)

// languageEnforcement is the escalated instruction injected when a
// response comes back in the wrong language
const languageEnforcement = "CRITICAL LANGUAGE REQUIREMENT: Your ENTIRE response, including every heading, claim, and explanation, MUST be written in %s (%s). Do not use any other language anywhere in the response."

const sourceGuidelines = `IMPORTANT SOURCE GUIDELINES:
- Only include source URLs that are from mainstream, established websites that are very likely to remain accessible.
- Verify that the URLs you provide are the main domain or stable article links, not temporary search results or dynamic pages.
- For news sources, prefer stable archive links or permalink URLs when available.
- If you cannot find a reliably stable URL for a source, describe the source without including a URL.
- Only include sources you're highly confident are legitimate, accessible, and will not lead to 404 errors.
- Prefer widely recognized authoritative sources (government agencies, major news outlets, academic institutions).`

const reportFormat = `Respond with HTML in exactly this format, with the lang attribute set to the ISO 639-1 code of the language you respond in:
<div class="fact-check" lang="[LANGUAGE_CODE]">
    <h2 class="result">[INCONCLUSIVE, MOSTLY ACCURATE, MOSTLY INACCURATE, MIXED, ACCURATE, INACCURATE, MANIPULATED, SATIRICAL, or UNVERIFIABLE]</h2>
    <section class="analysis">
        <h3>Conclusion:</h3>
        <p>[Detailed summary of overall accuracy, including any uncertainties or limitations in the fact-checking process]</p>
    </section>
    <section class="sources">
        <h3>Sources:</h3>
        <ul>
            <li><a href="[STABLE_URL]">[Source 1 description]</a></li>
            <li>[Source without URL - description only]</li>
        </ul>
    </section>
    <section class="findings">
        <h3>Findings:</h3>
        <ul>
            <li>
                <strong>Claim 1:</strong>
                <span class="claim-text">[Claim text]</span> -
                <span class="accuracy">[Accurate, Partly accurate, Inaccurate, Misleading, Unable to verify, or I don't know]</span>
                <p class="explanation">[Detailed explanation with reference to sources]</p>
            </li>
        </ul>
    </section>
</div>`

// Request carries one verification job
type Request struct {
	Modality          model.Modality
	Text              string
	ImageDataURL      string
	DetectedLanguage  string
	PreferredLanguage string
	// EscalateLanguage strengthens the language instruction after a
	// mismatched response
	EscalateLanguage bool
}

// TargetLanguage resolves which language the response must be written
// in: the explicit preference wins unless it is auto, else the detected
// input language.
func (r *Request) TargetLanguage() string {
	if r.PreferredLanguage != "" && r.PreferredLanguage != lang.Auto {
		return r.PreferredLanguage
	}
	return r.DetectedLanguage
}

func systemPrompt(modality model.Modality) string {
	base := "Always prioritize accuracy over completeness. If you're unsure about any information, clearly state 'I don't know' or 'Unable to verify'. Use only highly reliable sources for verification. Be extremely careful with URLs - only include stable, permanent links from established websites, and avoid dynamic search results or temporary pages. When in doubt about a URL's permanence, provide the source description without a URL."
	if modality == model.ModalityImage {
		return "You are a meticulous image fact-checker. Analyze images for factual claims and potential misinformation. " + base
	}
	return "You are a meticulous fact-checker. " + base
}

func buildPrompt(req Request) string {
	var b strings.Builder

	if req.Modality == model.ModalityImage {
		b.WriteString(`Analyze the given image with a focus on fact-checking and identifying potential misinformation. Follow these steps:
1. Describe the main elements and context of the image briefly.
2. Identify the main claims (textual or visual), at most ` + fmt.Sprint(model.MaxClaims) + `.
3. For each claim:
   a. Search for reliable sources to verify the claim.
   b. If no reliable sources are found, state "Unable to verify" for that claim.
   c. If reliable sources are found, assess the claim's accuracy.
   d. Provide a brief explanation for your assessment.
4. Analyze the detailed accuracy of the image.
5. If you're unsure about any aspect, clearly state "I don't know" for that part.`)
	} else {
		b.WriteString(`Perform a thorough fact-check on the following text. Follow these steps:
1. Identify the main claims in the text, at most ` + fmt.Sprint(model.MaxClaims) + `.
2. For each claim:
   a. Search for reliable sources to verify the claim.
   b. If no reliable sources are found, state "Unable to verify" for that claim.
   c. If reliable sources are found, assess the claim's accuracy.
   d. Provide a brief explanation for your assessment.
3. Analyze the detailed accuracy of the text.
4. If you're unsure about any aspect, clearly state "I don't know" for that part.`)
	}

	b.WriteString("\n\n")
	b.WriteString(sourceGuidelines)

	if req.Modality != model.ModalityImage {
		b.WriteString("\n\nText to check:\n<text_to_check>\n")
		b.WriteString(req.Text)
		b.WriteString("\n</text_to_check>")
	}

	b.WriteString("\n\n")
	b.WriteString(reportFormat)

	if target := req.TargetLanguage(); target != "" {
		b.WriteString("\n\n")
		if req.EscalateLanguage {
			b.WriteString(fmt.Sprintf(languageEnforcement, lang.Name(target), target))
		} else {
			b.WriteString(fmt.Sprintf("Respond in %s (%s).", lang.Name(target), target))
		}
	} else {
		b.WriteString("\n\nRespond in the same language as the content.")
	}

	return b.String()
}
