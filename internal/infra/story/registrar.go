package story

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ipshield/internal/config"
	"ipshield/internal/domain"
)

const (
	ModeLive       = "live"
	ModeSimulation = "simulation"

	explorerURLTemplate = "https://aeneid.explorer.story.foundation/ipa/%s"
)

// Registrar registers IP assets. Register never returns an error; failures
// come back as a RegistrationResult with Success false.
type Registrar interface {
	Register(ctx context.Context, req domain.RegistrationRequest) domain.RegistrationResult
	Simulated() bool
}

func ExplorerURL(ipID string) string {
	return fmt.Sprintf(explorerURLTemplate, ipID)
}

// NewRegistrar picks the live registrar when a signing key is configured and
// the simulated one otherwise.
func NewRegistrar(ctx context.Context, cfg config.Config, logger *slog.Logger) (Registrar, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.WalletConfigured() {
		logger.Info("no wallet configured, registrations run in simulation mode", "delay", cfg.SimulationDelay())
		return NewSimulatedRegistrar(cfg.SimulationDelay()), nil
	}
	return DialLiveRegistrar(ctx, LiveConfig{
		RPCURL:                     cfg.StoryRPCURL,
		ChainID:                    cfg.StoryChainID,
		PrivateKeyHex:              cfg.WalletPrivateKey,
		SPGNFTContract:             cfg.SPGNFTContractAddress,
		LicenseAttachmentWorkflows: cfg.LicenseAttachmentWorkflowsAddress,
		RoyaltyPolicy:              cfg.RoyaltyPolicyAddress,
		Currency:                   cfg.CurrencyTokenAddress,
	}, logger)
}

type NetworkInfo struct {
	Network                    string `json:"network"`
	ChainID                    int64  `json:"chainId"`
	RPCURL                     string `json:"rpcUrl"`
	Explorer                   string `json:"explorer"`
	SPGNFTContract             string `json:"spgNftContract,omitempty"`
	LicenseAttachmentWorkflows string `json:"licenseAttachmentWorkflows"`
	RoyaltyPolicy              string `json:"royaltyPolicy"`
	Currency                   string `json:"currency"`
	Mode                       string `json:"mode"`
}

func NetworkInfoFromConfig(cfg config.Config) NetworkInfo {
	mode := ModeSimulation
	if cfg.WalletConfigured() {
		mode = ModeLive
	}
	return NetworkInfo{
		Network:                    cfg.StoryNetworkName,
		ChainID:                    cfg.StoryChainID,
		RPCURL:                     cfg.StoryRPCURL,
		Explorer:                   strings.TrimSuffix(ExplorerURL(""), "/ipa/"),
		SPGNFTContract:             cfg.SPGNFTContractAddress,
		LicenseAttachmentWorkflows: cfg.LicenseAttachmentWorkflowsAddress,
		RoyaltyPolicy:              cfg.RoyaltyPolicyAddress,
		Currency:                   cfg.CurrencyTokenAddress,
		Mode:                       mode,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
