package story

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"ipshield/internal/domain"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// revShareScale converts a whole percentage into the on-chain representation
// where 100% is 100_000_000.
const revShareScale = 1_000_000

// Backend is the subset of an RPC client the live registrar needs.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

type LiveConfig struct {
	RPCURL                     string
	ChainID                    int64
	PrivateKeyHex              string
	SPGNFTContract             string
	LicenseAttachmentWorkflows string
	RoyaltyPolicy              string
	Currency                   string
}

type LiveRegistrar struct {
	backend   Backend
	contract  *bind.BoundContract
	abi       abi.ABI
	key       *ecdsa.PrivateKey
	chainID   *big.Int
	from      common.Address
	spgNFT    common.Address
	royalty   common.Address
	currency  common.Address
	logger    *slog.Logger
	closeFunc func()
}

func DialLiveRegistrar(ctx context.Context, cfg LiveConfig, logger *slog.Logger) (*LiveRegistrar, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial story rpc: %w", err)
	}
	reg, err := NewLiveRegistrar(client, cfg, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	reg.closeFunc = client.Close
	return reg, nil
}

func NewLiveRegistrar(backend Backend, cfg LiveConfig, logger *slog.Logger) (*LiveRegistrar, error) {
	if logger == nil {
		logger = slog.Default()
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid wallet private key", domain.ErrInvalidArgument)
	}
	addresses := map[string]string{
		"spg nft contract":             cfg.SPGNFTContract,
		"license attachment workflows": cfg.LicenseAttachmentWorkflows,
		"royalty policy":               cfg.RoyaltyPolicy,
		"currency token":               cfg.Currency,
	}
	for name, value := range addresses {
		if !common.IsHexAddress(value) {
			return nil, fmt.Errorf("%w: %s address %q", domain.ErrNotConfigured, name, value)
		}
	}
	parsed, err := parseWorkflowsABI()
	if err != nil {
		return nil, err
	}
	workflows := common.HexToAddress(cfg.LicenseAttachmentWorkflows)
	return &LiveRegistrar{
		backend:  backend,
		contract: bind.NewBoundContract(workflows, parsed, backend, backend, backend),
		abi:      parsed,
		key:      key,
		chainID:  big.NewInt(cfg.ChainID),
		from:     crypto.PubkeyToAddress(key.PublicKey),
		spgNFT:   common.HexToAddress(cfg.SPGNFTContract),
		royalty:  common.HexToAddress(cfg.RoyaltyPolicy),
		currency: common.HexToAddress(cfg.Currency),
		logger:   logger,
	}, nil
}

func (r *LiveRegistrar) Simulated() bool {
	return false
}

func (r *LiveRegistrar) Close() {
	if r.closeFunc != nil {
		r.closeFunc()
	}
}

func (r *LiveRegistrar) Register(ctx context.Context, req domain.RegistrationRequest) domain.RegistrationResult {
	result, err := r.register(ctx, req)
	if err != nil {
		r.logger.Error("story registration failed", "err", err)
		if !errors.Is(err, domain.ErrRegistrationFailed) && !errors.Is(err, domain.ErrInvalidArgument) {
			err = fmt.Errorf("%w: %v", domain.ErrRegistrationFailed, err)
		}
		return domain.RegistrationFailure(err)
	}
	return result
}

func (r *LiveRegistrar) register(ctx context.Context, req domain.RegistrationRequest) (domain.RegistrationResult, error) {
	recipient := r.from
	if strings.TrimSpace(req.Recipient) != "" {
		if !common.IsHexAddress(req.Recipient) {
			return domain.RegistrationResult{}, fmt.Errorf("%w: recipient %q is not an address", domain.ErrInvalidArgument, req.Recipient)
		}
		recipient = common.HexToAddress(req.Recipient)
	}
	ipHash, err := parseHash(req.IPMetadataHash)
	if err != nil {
		return domain.RegistrationResult{}, err
	}
	nftHash, err := parseHash(req.NFTMetadataHash)
	if err != nil {
		return domain.RegistrationResult{}, err
	}
	meta := ipMetadataArg{
		IPMetadataURI:   req.IPMetadataURI,
		IPMetadataHash:  ipHash,
		NFTMetadataURI:  req.NFTMetadataURI,
		NFTMetadataHash: nftHash,
	}
	terms := []licenseTermsDataArg{r.licenseTermsData(req.Terms)}

	opts, err := bind.NewKeyedTransactorWithChainID(r.key, r.chainID)
	if err != nil {
		return domain.RegistrationResult{}, err
	}
	opts.Context = ctx
	tx, err := r.contract.Transact(opts, mintAndRegisterMethod, r.spgNFT, recipient, meta, terms, true)
	if err != nil {
		return domain.RegistrationResult{}, fmt.Errorf("%w: submit transaction: %v", domain.ErrRegistrationFailed, err)
	}
	r.logger.Info("story registration submitted", "tx", tx.Hash().Hex())

	receipt, err := bind.WaitMined(ctx, r.backend, tx)
	if err != nil {
		return domain.RegistrationResult{}, fmt.Errorf("%w: wait for receipt: %v", domain.ErrRegistrationFailed, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return domain.RegistrationResult{}, fmt.Errorf("%w: transaction %s reverted", domain.ErrRegistrationFailed, tx.Hash().Hex())
	}
	ipID, tokenID, err := r.registeredAsset(receipt)
	if err != nil {
		return domain.RegistrationResult{}, err
	}
	return domain.RegistrationResult{
		Success:     true,
		IPID:        ipID.Hex(),
		TxHash:      tx.Hash().Hex(),
		ExplorerURL: ExplorerURL(ipID.Hex()),
		TokenID:     tokenID,
	}, nil
}

// licenseTermsData renders PIL terms for a license. Non-commercial terms
// carry no royalty policy or currency; derivative attribution and
// reciprocity follow derivativesAllowed.
func (r *LiveRegistrar) licenseTermsData(t domain.LicenseTerms) licenseTermsDataArg {
	terms := pilTermsArg{
		Transferable:              true,
		DefaultMintingFee:         big.NewInt(0),
		Expiration:                big.NewInt(0),
		CommercialUse:             t.CommercialUse,
		CommercializerCheckerData: []byte{},
		CommercialRevCeiling:      big.NewInt(0),
		DerivativesAllowed:        t.DerivativesAllowed,
		DerivativesAttribution:    t.DerivativesAllowed,
		DerivativesReciprocal:     t.DerivativesAllowed,
		DerivativeRevCeiling:      big.NewInt(0),
	}
	if t.CommercialUse {
		terms.RoyaltyPolicy = r.royalty
		terms.Currency = r.currency
		terms.CommercialAttribution = true
		terms.CommercialRevShare = uint32(t.CommercialRevShare) * revShareScale
	}
	return licenseTermsDataArg{
		Terms: terms,
		LicensingConfig: licensingConfigArg{
			MintingFee: big.NewInt(0),
			HookData:   []byte{},
		},
	}
}

type ipRegisteredLog struct {
	IpId             common.Address
	ChainId          *big.Int
	TokenContract    common.Address
	TokenId          *big.Int
	Name             string
	Uri              string
	RegistrationDate *big.Int
}

func (r *LiveRegistrar) registeredAsset(receipt *types.Receipt) (common.Address, string, error) {
	eventID := r.abi.Events[ipRegisteredEvent].ID
	for _, lg := range receipt.Logs {
		if lg == nil || len(lg.Topics) == 0 || lg.Topics[0] != eventID {
			continue
		}
		var ev ipRegisteredLog
		if err := r.contract.UnpackLog(&ev, ipRegisteredEvent, *lg); err != nil {
			return common.Address{}, "", fmt.Errorf("%w: decode %s: %v", domain.ErrRegistrationFailed, ipRegisteredEvent, err)
		}
		tokenID := ""
		if ev.TokenId != nil {
			tokenID = ev.TokenId.String()
		}
		return ev.IpId, tokenID, nil
	}
	return common.Address{}, "", fmt.Errorf("%w: %s event not found in receipt", domain.ErrRegistrationFailed, ipRegisteredEvent)
}

func parseHash(value string) (common.Hash, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if len(raw) != 2*common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: metadata hash %q is not 32 bytes", domain.ErrInvalidArgument, value)
	}
	return common.HexToHash(raw), nil
}
