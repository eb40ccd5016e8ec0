package yakoa

import (
	"context"
	"crypto/sha256"
	"log/slog"

	"ipshield/internal/domain"
)

const (
	ModeLive       = "live"
	ModeSimulation = "simulation"
)

// Verifier is the live content verifier. It never returns an error: any
// failure talking to the service becomes a failed outcome.
type Verifier struct {
	client *Client
	logger *slog.Logger
}

func NewVerifier(client *Client, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{client: client, logger: logger.With("component", "yakoa")}
}

func (v *Verifier) Mode() string {
	return ModeLive
}

func (v *Verifier) Verify(ctx context.Context, in domain.VerifyInput) domain.VerificationOutcome {
	result, err := v.client.Verify(ctx, VerifyRequest{
		ContentURL:  in.ContentURL,
		ContentType: string(in.ContentType),
		Title:       in.Title,
		CreatorID:   in.CreatorID,
	})
	if err != nil {
		v.logger.WarnContext(ctx, "verification failed", "url", in.ContentURL, "error", err)
		return domain.VerificationFailed(err.Error())
	}
	return domain.VerificationOK(result)
}

// SimulatedVerifier answers without an API key. Results are stable per URL
// and always classify content as original.
type SimulatedVerifier struct{}

const simulationRecommendation = "Simulation mode: set YAKOA_API_KEY for live fingerprint checks."

func (SimulatedVerifier) Mode() string {
	return ModeSimulation
}

func (SimulatedVerifier) Verify(ctx context.Context, in domain.VerifyInput) domain.VerificationOutcome {
	if err := ctx.Err(); err != nil {
		return domain.VerificationFailed(err.Error())
	}
	sum := sha256.Sum256([]byte(in.ContentURL))
	return domain.VerificationOK(domain.VerificationResult{
		IsOriginal:      true,
		IsAuthorized:    true,
		Confidence:      80 + int(sum[0])%20,
		Infringements:   []domain.Infringement{},
		Recommendations: []string{simulationRecommendation},
	})
}
