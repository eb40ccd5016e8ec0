package yakoa

import (
	"math"

	"ipshield/internal/domain"
)

// verifyReply is the upstream wire shape. Scores arrive as JSON numbers that
// may carry a fraction.
type verifyReply struct {
	IsOriginal      bool                `json:"isOriginal"`
	IsInfringing    bool                `json:"isInfringing"`
	IsAuthorized    bool                `json:"isAuthorized"`
	Confidence      float64             `json:"confidence"`
	MatchedBrand    string              `json:"matchedBrand"`
	MatchedOwner    string              `json:"matchedOwner"`
	Infringements   []infringementReply `json:"infringements"`
	Recommendations []string            `json:"recommendations"`
}

type infringementReply struct {
	Type       string  `json:"type"`
	Brand      string  `json:"brand"`
	Similarity float64 `json:"similarity"`
	Source     string  `json:"source"`
}

func (r verifyReply) toResult() domain.VerificationResult {
	out := domain.VerificationResult{
		IsOriginal:      r.IsOriginal,
		IsInfringing:    r.IsInfringing,
		IsAuthorized:    r.IsAuthorized,
		Confidence:      percent(r.Confidence),
		MatchedBrand:    r.MatchedBrand,
		MatchedOwner:    r.MatchedOwner,
		Infringements:   make([]domain.Infringement, 0, len(r.Infringements)),
		Recommendations: r.Recommendations,
	}
	for _, inf := range r.Infringements {
		out.Infringements = append(out.Infringements, domain.Infringement{
			Type:       inf.Type,
			Brand:      inf.Brand,
			Similarity: percent(inf.Similarity),
			Source:     inf.Source,
		})
	}
	return out
}

func percent(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 100 {
		return 100
	}
	return int(math.Round(v))
}
