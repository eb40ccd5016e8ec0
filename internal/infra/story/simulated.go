package story

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"ipshield/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

// SimulatedRegistrar stands in for the ledger when no wallet is configured.
// Identifiers are random and carry no on-chain meaning.
type SimulatedRegistrar struct {
	delay  time.Duration
	random io.Reader
	sleep  func(context.Context, time.Duration) error
}

func NewSimulatedRegistrar(delay time.Duration) *SimulatedRegistrar {
	return &SimulatedRegistrar{
		delay:  delay,
		random: rand.Reader,
		sleep:  sleepContext,
	}
}

func (s *SimulatedRegistrar) Simulated() bool {
	return true
}

func (s *SimulatedRegistrar) Register(ctx context.Context, req domain.RegistrationRequest) domain.RegistrationResult {
	if err := s.sleep(ctx, s.delay); err != nil {
		return domain.RegistrationFailure(fmt.Errorf("%w: %v", domain.ErrRegistrationFailed, err))
	}
	var ipID [common.AddressLength]byte
	var txHash [common.HashLength]byte
	if _, err := io.ReadFull(s.random, ipID[:]); err != nil {
		return domain.RegistrationFailure(fmt.Errorf("%w: %v", domain.ErrRegistrationFailed, err))
	}
	if _, err := io.ReadFull(s.random, txHash[:]); err != nil {
		return domain.RegistrationFailure(fmt.Errorf("%w: %v", domain.ErrRegistrationFailed, err))
	}
	id := common.BytesToAddress(ipID[:]).Hex()
	return domain.RegistrationResult{
		Success:     true,
		IPID:        id,
		TxHash:      common.BytesToHash(txHash[:]).Hex(),
		ExplorerURL: ExplorerURL(id),
		Simulated:   true,
	}
}
