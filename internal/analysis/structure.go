package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// StructuralFeatures records the presence of the sections and contact details ATS parsers look for.
type StructuralFeatures struct {
	HasEmail             bool `json:"hasEmail"`
	HasPhone             bool `json:"hasPhone"`
	HasContactInfo       bool `json:"hasContactInfo"`
	HasLinks             bool `json:"hasLinks"`
	HasExperienceSection bool `json:"hasExperienceSection"`
	HasEducationSection  bool `json:"hasEducationSection"`
	HasSkillsSection     bool `json:"hasSkillsSection"`
	WordCount            int  `json:"wordCount"`
	CharacterCount       int  `json:"characterCount"`
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[1-9]\d{0,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`)
)

const (
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

var (
	linkMarkers       = []string{"linkedin", "github", "http://", "https://", "www."}
	experienceMarkers = []string{"experience", "work history", "employment", "professional background", "position"}
	educationMarkers  = []string{"education", "university", "college", "degree"}
	skillsMarkers     = []string{"skills", "technical", "proficient"}
)

// DetectStructure evaluates the structural probes over text. Total for any input.
func DetectStructure(text string) StructuralFeatures {
	lower := strings.ToLower(text)

	f := StructuralFeatures{
		HasEmail:             emailPattern.MatchString(text),
		HasPhone:             hasPhone(text),
		HasLinks:             containsAny(lower, linkMarkers),
		HasExperienceSection: containsAny(lower, experienceMarkers),
		HasEducationSection:  containsAny(lower, educationMarkers),
		HasSkillsSection:     containsAny(lower, skillsMarkers),
		WordCount:            len(strings.Fields(text)),
		CharacterCount:       utf8.RuneCountInString(text),
	}
	f.HasContactInfo = f.HasEmail || f.HasPhone
	return f
}

func hasPhone(text string) bool {
	for _, candidate := range phonePattern.FindAllString(text, -1) {
		n := countDigits(candidate)
		if n >= minPhoneDigits && n <= maxPhoneDigits {
			return true
		}
	}
	return false
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}

func containsAny(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
