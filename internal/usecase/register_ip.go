package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"ipshield/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

const (
	ProgressPreparing   = "Preparing IP metadata..."
	ProgressUploading   = "Uploading to IPFS..."
	ProgressLicensing   = "Configuring license terms..."
	ProgressRegistering = "Registering on Story Protocol blockchain..."
	ProgressSimulation  = "Wallet not connected - using simulation mode"
	ProgressComplete    = "Registration complete!"
)

type RegisterParams struct {
	Title             string             `json:"title"`
	Description       string             `json:"description,omitempty"`
	MediaURL          string             `json:"mediaUrl"`
	ImageURL          string             `json:"imageUrl,omitempty"`
	AssetType         domain.ContentType `json:"assetType"`
	MediaType         string             `json:"mediaType,omitempty"`
	LicenseType       domain.LicenseType `json:"licenseType"`
	RoyaltyPercentage int                `json:"royaltyPercentage"`
	Creators          []domain.Creator   `json:"creators,omitempty"`
	Recipient         string             `json:"recipient,omitempty"`
}

func (p *RegisterParams) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(p.MediaURL) == "" {
		return fmt.Errorf("%w: mediaUrl is required", domain.ErrInvalidArgument)
	}
	assetType, err := domain.ParseContentType(string(p.AssetType))
	if err != nil {
		return err
	}
	p.AssetType = assetType
	licenseType, err := domain.ParseLicenseType(string(p.LicenseType))
	if err != nil {
		return err
	}
	p.LicenseType = licenseType
	if p.RoyaltyPercentage < 0 || p.RoyaltyPercentage > 100 {
		return fmt.Errorf("%w: royaltyPercentage must be between 0 and 100", domain.ErrInvalidArgument)
	}
	for _, c := range p.Creators {
		if c.Address != "" && !common.IsHexAddress(c.Address) {
			return fmt.Errorf("%w: creator address %q is not an address", domain.ErrInvalidArgument, c.Address)
		}
	}
	if p.Recipient != "" && !common.IsHexAddress(p.Recipient) {
		return fmt.Errorf("%w: recipient %q is not an address", domain.ErrInvalidArgument, p.Recipient)
	}
	return nil
}

type RegisterIPResult struct {
	Registration domain.RegistrationResult `json:"registration"`
	Publication  domain.AssetPublication   `json:"publication"`
	Terms        domain.LicenseTerms       `json:"licenseTerms"`
}

// RegisterIP publishes metadata for the asset and registers it. progress,
// when set, is called synchronously before each stage starts.
func (o *Orchestrator) RegisterIP(ctx context.Context, p RegisterParams, progress func(string)) (RegisterIPResult, error) {
	if err := p.Validate(); err != nil {
		return RegisterIPResult{}, err
	}
	recordID := o.newID()
	o.appendScan(ctx, recordID, p)
	result, err := o.registerIP(ctx, p, progress)
	o.finishScan(ctx, recordID, err, nil)
	return result, err
}

func (o *Orchestrator) registerIP(ctx context.Context, p RegisterParams, progress func(string)) (RegisterIPResult, error) {
	report := func(stage string) {
		if progress != nil {
			progress(stage)
		}
	}

	report(ProgressPreparing)
	ip, nft := o.buildMetadata(p)
	if total := ip.ContributionTotal(); len(ip.Creators) > 0 && total != 100 {
		o.Logger.WarnContext(ctx, "creator contributions do not sum to 100", "title", p.Title, "total", total)
	}

	report(ProgressUploading)
	pub, err := o.publisher.PublishAsset(ctx, ip, nft)
	if err != nil {
		return RegisterIPResult{}, err
	}

	report(ProgressLicensing)
	terms, err := domain.TermsFor(p.LicenseType, p.RoyaltyPercentage)
	if err != nil {
		return RegisterIPResult{Publication: pub}, err
	}

	if o.registrar.Simulated() {
		report(ProgressSimulation)
	} else {
		report(ProgressRegistering)
	}
	reg := o.registrar.Register(ctx, domain.RegistrationRequest{
		IP:              pub.IPMetadata,
		NFT:             pub.NFTMetadata,
		IPMetadataURI:   pub.IP.URI,
		IPMetadataHash:  pub.IP.Hash,
		NFTMetadataURI:  pub.NFT.URI,
		NFTMetadataHash: pub.NFT.Hash,
		Terms:           terms,
		Recipient:       p.Recipient,
	})
	result := RegisterIPResult{Registration: reg, Publication: pub, Terms: terms}
	if err := reg.Err(); err != nil {
		return result, err
	}

	report(ProgressComplete)
	o.Logger.InfoContext(ctx, "ip registered", "ipId", reg.IPID, "tx", reg.TxHash, "simulated", reg.Simulated)
	return result, nil
}

func (o *Orchestrator) buildMetadata(p RegisterParams) (domain.IPAssetMetadata, domain.NFTMetadata) {
	image := p.ImageURL
	if image == "" {
		image = p.MediaURL
	}
	mediaType := p.MediaType
	if mediaType == "" {
		mediaType = domain.MediaTypeFor(p.AssetType)
	}
	creators := append([]domain.Creator{}, p.Creators...)
	ip := domain.IPAssetMetadata{
		Title:       p.Title,
		Description: p.Description,
		CreatedAt:   strconv.FormatInt(o.now().Unix(), 10),
		Image:       image,
		MediaURL:    p.MediaURL,
		MediaType:   mediaType,
		Creators:    creators,
	}
	nft := domain.NFTMetadata{
		Name:        p.Title,
		Description: p.Description,
		Image:       image,
		Attributes: []domain.NFTAttribute{
			{TraitType: "Asset Type", Value: string(p.AssetType)},
			{TraitType: "License", Value: string(p.LicenseType)},
		},
	}
	if p.AssetType != domain.ContentTypeImage {
		nft.AnimationURL = p.MediaURL
	}
	if p.LicenseType == domain.LicenseCommercialUse {
		nft.Attributes = append(nft.Attributes, domain.NFTAttribute{
			TraitType: "Royalty",
			Value:     strconv.Itoa(p.RoyaltyPercentage) + "%",
		})
	}
	return ip, nft
}
