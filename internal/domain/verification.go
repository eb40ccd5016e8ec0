package domain

import (
	"fmt"
	"strings"
)

type Infringement struct {
	Type       string `json:"type"`
	Brand      string `json:"brand,omitempty"`
	Similarity int    `json:"similarity"`
	Source     string `json:"source,omitempty"`
}

type VerificationResult struct {
	IsOriginal      bool           `json:"isOriginal"`
	IsInfringing    bool           `json:"isInfringing"`
	IsAuthorized    bool           `json:"isAuthorized"`
	Confidence      int            `json:"confidence"`
	MatchedBrand    string         `json:"matchedBrand,omitempty"`
	MatchedOwner    string         `json:"matchedOwner,omitempty"`
	Infringements   []Infringement `json:"infringements"`
	Recommendations []string       `json:"recommendations"`
}

const RetryRecommendation = "Verification service unavailable. Please try again later."

// DeriveStatus maps a verification result onto a content status.
// Order matters: infringement wins over an owner match, which wins over an
// originality flag, even when upstream sets several of them at once.
func DeriveStatus(result VerificationResult) ContentStatus {
	switch {
	case result.IsInfringing:
		return StatusBrandIPDetected
	case strings.TrimSpace(result.MatchedOwner) != "":
		return StatusAlreadyRegistered
	case result.IsOriginal:
		return StatusOriginal
	default:
		return StatusProcessing
	}
}

// Normalize returns a copy in which only the narrative selected by
// DeriveStatus remains set, with percentages clamped into 0..100 and nil
// slices replaced by empty ones.
func (r VerificationResult) Normalize() VerificationResult {
	out := r
	out.Confidence = clampPercent(r.Confidence)
	out.MatchedBrand = strings.TrimSpace(r.MatchedBrand)
	out.MatchedOwner = strings.TrimSpace(r.MatchedOwner)
	out.Infringements = make([]Infringement, 0, len(r.Infringements))
	for _, inf := range r.Infringements {
		inf.Similarity = clampPercent(inf.Similarity)
		out.Infringements = append(out.Infringements, inf)
	}
	out.Recommendations = append(make([]string, 0, len(r.Recommendations)), r.Recommendations...)

	switch DeriveStatus(out) {
	case StatusBrandIPDetected:
		out.IsOriginal = false
		out.IsAuthorized = false
		out.MatchedOwner = ""
		if out.MatchedBrand == "" {
			for _, inf := range out.Infringements {
				if inf.Brand != "" {
					out.MatchedBrand = inf.Brand
					break
				}
			}
		}
	case StatusAlreadyRegistered:
		out.IsOriginal = false
		out.MatchedBrand = ""
	case StatusOriginal:
		out.MatchedBrand = ""
	}
	return out
}

// VerificationOutcome is either a successful result or a transport level
// failure. A failed outcome still renders a degraded result for callers that
// only want something to show.
type VerificationOutcome struct {
	Result VerificationResult
	Failed bool
	Reason string
}

func VerificationOK(result VerificationResult) VerificationOutcome {
	return VerificationOutcome{Result: result.Normalize()}
}

func VerificationFailed(reason string) VerificationOutcome {
	return VerificationOutcome{
		Result: DegradedResult(),
		Failed: true,
		Reason: reason,
	}
}

// Status is the derived status of the carried result. A failed outcome
// carries the degraded result, which derives to PROCESSING.
func (o VerificationOutcome) Status() ContentStatus {
	return DeriveStatus(o.Result)
}

func DegradedResult() VerificationResult {
	return VerificationResult{
		Infringements:   []Infringement{},
		Recommendations: []string{RetryRecommendation},
	}
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

type VerifyInput struct {
	ContentURL  string
	ContentType ContentType
	Title       string
	CreatorID   string
}

func (in *VerifyInput) Validate() error {
	if strings.TrimSpace(in.ContentURL) == "" {
		return fmt.Errorf("%w: contentUrl is required", ErrInvalidArgument)
	}
	contentType, err := ParseContentType(string(in.ContentType))
	if err != nil {
		return err
	}
	in.ContentType = contentType
	return nil
}
