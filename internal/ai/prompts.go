package ai

import (
	"strconv"
	"strings"

	"resumefit/internal/analysis"
)

// DefaultSystemPrompts provides the default system instructions per narrative kind
var DefaultSystemPrompts = map[analysis.NarrativeKind]string{
	analysis.KindOverallFeedback: `You are an expert resume reviewer and ATS (Applicant Tracking System) specialist with a strict commitment to honesty and accuracy. Your core principles are:

- NEVER change, reinterpret or contradict the provided scores
- Base every statement on the resume text and the keyword findings you are given
- Keep the tone professional, encouraging and specific`,

	analysis.KindImprovedVersion: `You are an expert resume writer. You suggest concrete edits to an existing resume.

- NEVER invent skills, employers, metrics or achievements that are absent from the resume
- Only recommend adding a keyword when the resume already shows the underlying experience
- Prefer short, actionable bullet points over rewritten paragraphs`,

	analysis.KindInsights: `You are an expert HR analyst producing structured resume insights.

- Strengths and weaknesses are short phrases about the resume itself
- Every suggestion has a category, a priority of high, medium or low, and one actionable sentence
- Do not restate the numeric scores`,
}

// DefaultUserPrompts provides the default user prompt templates.
// Templates use {{resume}}, {{job}}, {{ats_score}}, {{match_score}}, {{matched}} and {{missing}} placeholders.
var DefaultUserPrompts = map[analysis.NarrativeKind]string{
	analysis.KindOverallFeedback: `Write overall feedback for the resume below in at most six short sentences.

**ATS score:** {{ats_score}}/100
**Job match score:** {{match_score}}
**Matched keywords:** {{matched}}
**Missing keywords:** {{missing}}

**Resume:**
-----
{{resume}}
-----

**Job Description:**
-----
{{job}}
-----`,

	analysis.KindImprovedVersion: `Suggest the most valuable improvements to the resume below as a short bulleted list.
Focus on the missing keywords only where the resume already supports them.

**Missing keywords:** {{missing}}

**Resume:**
-----
{{resume}}
-----

**Job Description:**
-----
{{job}}
-----`,

	analysis.KindInsights: `Analyze the resume below and return strengths, weaknesses and prioritized suggestions.

**ATS score:** {{ats_score}}/100
**Job match score:** {{match_score}}
**Matched keywords:** {{matched}}
**Missing keywords:** {{missing}}

**Resume:**
-----
{{resume}}
-----

**Job Description:**
-----
{{job}}
-----`,
}

// resolvePrompt selects the override when set, otherwise the default
func resolvePrompt(override, fromDefault string) string {
	if override != "" {
		return override
	}
	return fromDefault
}

// renderUserPrompt fills the template placeholders from the request
func renderUserPrompt(template string, req analysis.NarrativeRequest) string {
	match := "not applicable (no job provided)"
	if req.MatchScore != nil {
		match = strconv.Itoa(*req.MatchScore) + "/100"
	}
	job := req.JobText
	if strings.TrimSpace(job) == "" {
		job = "(none provided)"
	}

	r := strings.NewReplacer(
		"{{resume}}", req.ResumeText,
		"{{job}}", job,
		"{{ats_score}}", strconv.Itoa(req.ATSScore),
		"{{match_score}}", match,
		"{{matched}}", joinOrNone(req.MatchedKeywords),
		"{{missing}}", joinOrNone(req.MissingKeywords),
	)
	return r.Replace(template)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
