package store

import (
	"encoding/json"
	"strings"

	"resumefit/internal/analysis"
	"resumefit/internal/errors"
)

// cardBlobs holds the JSON text columns of a persisted score card
type cardBlobs struct {
	Keywords         string
	MatchedKeywords  string
	MissingKeywords  string
	Features         string
	GrammarIssues    string
	FormattingIssues string
	Suggestions      string
	Strengths        string
	Weaknesses       string
}

const (
	emptyList   = "[]"
	emptyObject = "{}"
)

// encodeBlob marshals v, writing empty instead of null
func encodeBlob(v any, empty string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(data) == "null" {
		return empty, nil
	}
	return string(data), nil
}

func encodeCard(card analysis.ScoreCard) (cardBlobs, error) {
	var blobs cardBlobs
	fields := []struct {
		dst   *string
		value any
		empty string
	}{
		{&blobs.Keywords, card.Keywords, emptyList},
		{&blobs.MatchedKeywords, card.MatchedKeywords, emptyList},
		{&blobs.MissingKeywords, card.MissingKeywords, emptyList},
		{&blobs.Features, card.Features, emptyObject},
		{&blobs.GrammarIssues, card.GrammarIssues, emptyList},
		{&blobs.FormattingIssues, card.FormattingIssues, emptyList},
		{&blobs.Suggestions, card.Suggestions, emptyList},
		{&blobs.Strengths, card.Strengths, emptyList},
		{&blobs.Weaknesses, card.Weaknesses, emptyList},
	}
	for _, f := range fields {
		encoded, err := encodeBlob(f.value, f.empty)
		if err != nil {
			return cardBlobs{}, err
		}
		*f.dst = encoded
	}
	return blobs, nil
}

// blobDecoder restores card columns, recovering malformed values to empty
type blobDecoder struct {
	recordID string
	logger   *errors.Logger
	failures []string
}

func decodeBlob[T any](d *blobDecoder, column, raw string) T {
	var v T
	if strings.TrimSpace(raw) == "" {
		return v
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		d.failures = append(d.failures, column)
		d.logger.LogError(
			errors.NewStorageError(errors.ErrCodeParseFailure, "Malformed stored column", err).
				WithContext("record_id", d.recordID).
				WithContext("column", column),
			"Recovered stored column to empty")
		var zero T
		return zero
	}
	return v
}

// decodeCard fills the JSON columns of card. It never fails.
func decodeCard(d *blobDecoder, blobs cardBlobs, card *analysis.ScoreCard) {
	card.Keywords = decodeBlob[analysis.KeywordSet](d, "keywords", blobs.Keywords)
	card.MatchedKeywords = decodeBlob[analysis.KeywordSet](d, "matched_keywords", blobs.MatchedKeywords)
	card.MissingKeywords = decodeBlob[analysis.KeywordSet](d, "missing_keywords", blobs.MissingKeywords)
	card.Features = decodeBlob[analysis.StructuralFeatures](d, "features", blobs.Features)
	card.GrammarIssues = decodeBlob[[]analysis.DetectedIssue](d, "grammar_issues", blobs.GrammarIssues)
	card.FormattingIssues = decodeBlob[[]analysis.DetectedIssue](d, "formatting_issues", blobs.FormattingIssues)
	card.Suggestions = decodeBlob[[]analysis.Suggestion](d, "suggestions", blobs.Suggestions)
	card.Strengths = decodeBlob[[]string](d, "strengths", blobs.Strengths)
	card.Weaknesses = decodeBlob[[]string](d, "weaknesses", blobs.Weaknesses)
	card.Normalize()
}
