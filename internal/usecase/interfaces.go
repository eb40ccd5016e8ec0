package usecase

import (
	"context"

	"ipshield/internal/domain"
)

// ContentVerifier never fails: transport problems come back as a failed
// outcome carrying a degraded result.
type ContentVerifier interface {
	Mode() string
	Verify(ctx context.Context, in domain.VerifyInput) domain.VerificationOutcome
}

type MetadataPublisher interface {
	Mode() string
	PublishAsset(ctx context.Context, ip domain.IPAssetMetadata, nft domain.NFTMetadata) (domain.AssetPublication, error)
}

type IPRegistrar interface {
	Register(ctx context.Context, req domain.RegistrationRequest) domain.RegistrationResult
	Simulated() bool
}

type EligibilityPolicy interface {
	Evaluate(ctx context.Context, input domain.EligibilityInput) (domain.EligibilityDecision, error)
}
