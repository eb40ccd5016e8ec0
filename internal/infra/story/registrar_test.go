package story

import (
	"context"
	"testing"

	"ipshield/internal/config"
)

func TestNewRegistrarWithoutWalletSimulates(t *testing.T) {
	reg, err := NewRegistrar(context.Background(), config.Config{SimulationDelayMillis: 10}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reg.Simulated() {
		t.Fatal("expected simulated registrar")
	}
}

func TestNetworkInfoFromConfig(t *testing.T) {
	cfg := config.Config{
		StoryNetworkName: "aeneid",
		StoryChainID:     1315,
		StoryRPCURL:      "https://aeneid.storyrpc.io",
	}
	info := NetworkInfoFromConfig(cfg)
	if info.Mode != ModeSimulation {
		t.Fatalf("expected simulation mode, got %s", info.Mode)
	}
	if info.Explorer != "https://aeneid.explorer.story.foundation" {
		t.Fatalf("unexpected explorer %q", info.Explorer)
	}
	cfg.WalletPrivateKey = "0x01"
	if NetworkInfoFromConfig(cfg).Mode != ModeLive {
		t.Fatal("expected live mode with a wallet key")
	}
}
