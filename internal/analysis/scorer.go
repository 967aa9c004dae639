package analysis

import (
	"fmt"
	"math"
)

const (
	MinScore = 0
	MaxScore = 100
)

// Weights are the point values of the additive ATS table and the match score policy.
// All values must be non-negative so that more structure or more keywords never lowers a score.
type Weights struct {
	Base        int
	ContactInfo int
	Email       int
	Phone       int
	Experience  int
	Education   int
	Skills      int

	PerKeyword int
	KeywordCap int

	// Texts below ShortTextThreshold words lose ShortTextPenalty points;
	// texts of at least HealthyMinWords words gain HealthyBonus points.
	ShortTextThreshold int
	ShortTextPenalty   int
	HealthyMinWords    int
	HealthyBonus       int

	// LongTextThreshold does not affect the score; above it the composer reports a weakness.
	LongTextThreshold int

	NeutralMatchScore int
	BreadthBonus      int
}

// DefaultWeights returns the canonical additive table: structural points sum to 55,
// keywords add up to 40.
func DefaultWeights() Weights {
	return Weights{
		Base:               0,
		ContactInfo:        10,
		Email:              5,
		Phone:              5,
		Experience:         15,
		Education:          10,
		Skills:             10,
		PerKeyword:         4,
		KeywordCap:         40,
		ShortTextThreshold: 200,
		ShortTextPenalty:   10,
		HealthyMinWords:    300,
		HealthyBonus:       10,
		LongTextThreshold:  1000,
		NeutralMatchScore:  65,
		BreadthBonus:       5,
	}
}

// Validate rejects weights that would break score monotonicity or leave the score range.
func (w Weights) Validate() error {
	fields := map[string]int{
		"base": w.Base, "contactInfo": w.ContactInfo, "email": w.Email, "phone": w.Phone,
		"experience": w.Experience, "education": w.Education, "skills": w.Skills,
		"perKeyword": w.PerKeyword, "keywordCap": w.KeywordCap,
		"shortTextThreshold": w.ShortTextThreshold, "shortTextPenalty": w.ShortTextPenalty,
		"healthyMinWords": w.HealthyMinWords, "healthyBonus": w.HealthyBonus,
		"longTextThreshold": w.LongTextThreshold, "breadthBonus": w.BreadthBonus,
	}
	for name, v := range fields {
		if v < 0 {
			return fmt.Errorf("weight %s must not be negative, got %d", name, v)
		}
	}
	if w.NeutralMatchScore < MinScore || w.NeutralMatchScore > MaxScore {
		return fmt.Errorf("neutralMatchScore must be within [%d,%d], got %d", MinScore, MaxScore, w.NeutralMatchScore)
	}
	if w.HealthyMinWords < w.ShortTextThreshold {
		return fmt.Errorf("healthyMinWords (%d) must not be below shortTextThreshold (%d)", w.HealthyMinWords, w.ShortTextThreshold)
	}
	return nil
}

// Scorer turns detector output into the ATS and match scores.
type Scorer struct {
	w Weights
}

// NewScorer validates w and returns a scorer.
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{w: w}, nil
}

// Weights returns the scorer's weight table.
func (s *Scorer) Weights() Weights {
	return s.w
}

// ATSScore is job independent: structure, keyword density and length.
func (s *Scorer) ATSScore(f StructuralFeatures, keywordCount int) int {
	w := s.w
	score := w.Base

	score += points(f.HasContactInfo, w.ContactInfo)
	score += points(f.HasEmail, w.Email)
	score += points(f.HasPhone, w.Phone)
	score += points(f.HasExperienceSection, w.Experience)
	score += points(f.HasEducationSection, w.Education)
	score += points(f.HasSkillsSection, w.Skills)

	if keywordCount > 0 {
		score += min(w.KeywordCap, keywordCount*w.PerKeyword)
	}

	switch {
	case f.WordCount < w.ShortTextThreshold:
		score -= w.ShortTextPenalty
	case f.WordCount >= w.HealthyMinWords:
		score += w.HealthyBonus
	}

	return clamp(score)
}

// MatchScore is the share of job keywords the resume covers, as a percentage.
// Without job keywords the neutral score applies. Matched keywords are a subset of
// the job's, so breadth is measured on the resume's full keyword count.
func (s *Scorer) MatchScore(matched, jobKeywords, resumeKeywords int) int {
	if jobKeywords <= 0 {
		return clamp(s.w.NeutralMatchScore)
	}
	score := int(math.Round(100 * float64(matched) / float64(jobKeywords)))
	if resumeKeywords > jobKeywords {
		score += s.w.BreadthBonus
	}
	return clamp(score)
}

func points(present bool, weight int) int {
	if present {
		return weight
	}
	return 0
}

func clamp(score int) int {
	return max(MinScore, min(MaxScore, score))
}
