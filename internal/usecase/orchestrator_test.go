package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ipshield/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	mu       sync.Mutex
	outcomes map[string]domain.VerificationOutcome
	calls    []string
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	hold     time.Duration
}

func (v *stubVerifier) Mode() string { return "stub" }

func (v *stubVerifier) Verify(ctx context.Context, in domain.VerifyInput) domain.VerificationOutcome {
	n := v.inFlight.Add(1)
	defer v.inFlight.Add(-1)
	for {
		seen := v.maxSeen.Load()
		if n <= seen || v.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if v.hold > 0 {
		time.Sleep(v.hold)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, in.ContentURL)
	if out, ok := v.outcomes[in.ContentURL]; ok {
		return out
	}
	return domain.VerificationOK(domain.VerificationResult{IsOriginal: true, Confidence: 90})
}

type stubPublisher struct {
	calls int
	err   error
	last  domain.IPAssetMetadata
}

func (p *stubPublisher) Mode() string { return "stub" }

func (p *stubPublisher) PublishAsset(ctx context.Context, ip domain.IPAssetMetadata, nft domain.NFTMetadata) (domain.AssetPublication, error) {
	p.calls++
	p.last = ip
	if p.err != nil {
		return domain.AssetPublication{}, p.err
	}
	return domain.AssetPublication{
		IP:          domain.PinnedObject{URI: "ipfs://bafkip", Hash: "0xip"},
		NFT:         domain.PinnedObject{URI: "ipfs://bafknft", Hash: "0xnft"},
		MediaURI:    ip.MediaURL,
		IPMetadata:  ip,
		NFTMetadata: nft,
	}, nil
}

type stubRegistrar struct {
	calls     int
	simulated bool
	result    domain.RegistrationResult
	last      domain.RegistrationRequest
}

func (r *stubRegistrar) Simulated() bool { return r.simulated }

func (r *stubRegistrar) Register(ctx context.Context, req domain.RegistrationRequest) domain.RegistrationResult {
	r.calls++
	r.last = req
	return r.result
}

type stubLedger struct {
	mu      sync.Mutex
	records []domain.ScanRecord
}

func (l *stubLedger) Append(ctx context.Context, rec domain.ScanRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append([]domain.ScanRecord{rec}, l.records...)
	return nil
}

func (l *stubLedger) Update(ctx context.Context, id string, patch domain.ScanRecordPatch) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.records {
		if l.records[i].ID == id {
			l.records[i] = l.records[i].Merge(patch)
			return nil
		}
	}
	return nil
}

func (l *stubLedger) List(ctx context.Context) ([]domain.ScanRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.ScanRecord(nil), l.records...), nil
}

func (l *stubLedger) Get(ctx context.Context, id string) (domain.ScanRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range l.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.ScanRecord{}, domain.ErrNotFound
}

type fixedPolicy struct {
	denials []domain.EligibilityDenial
}

func (p fixedPolicy) Evaluate(ctx context.Context, in domain.EligibilityInput) (domain.EligibilityDecision, error) {
	return domain.EligibilityDecision{Allow: len(p.denials) == 0, Deny: p.denials}, nil
}

type brokenPolicy struct{}

func (brokenPolicy) Evaluate(ctx context.Context, in domain.EligibilityInput) (domain.EligibilityDecision, error) {
	return domain.EligibilityDecision{}, errors.New("boom")
}

func successfulRegistration() domain.RegistrationResult {
	return domain.RegistrationResult{
		Success:     true,
		IPID:        "0x00000000000000000000000000000000000000aa",
		TxHash:      "0x" + fmt.Sprintf("%064x", 1),
		ExplorerURL: "https://aeneid.explorer.story.foundation/ipa/0x00000000000000000000000000000000000000aa",
		Simulated:   true,
	}
}

func newTestOrchestrator(v *stubVerifier, p *stubPublisher, r *stubRegistrar) *Orchestrator {
	o := NewOrchestrator(v, p, r)
	o.now = func() time.Time { return time.Unix(1700000000, 0) }
	o.sleep = func(context.Context, time.Duration) error { return nil }
	ids := 0
	o.newID = func() string {
		ids++
		return fmt.Sprintf("rec-%d", ids)
	}
	return o
}

func imageItem(id, url string) *domain.ContentItem {
	return &domain.ContentItem{ID: domain.ItemID(id), URL: url, Title: "Sunset", Type: domain.ContentTypeImage}
}

func TestQuickProtectRegistersOriginalContent(t *testing.T) {
	v := &stubVerifier{}
	p := &stubPublisher{}
	r := &stubRegistrar{simulated: true, result: successfulRegistration()}
	o := newTestOrchestrator(v, p, r)
	item := imageItem("1", "http://x/a.png")

	res, err := o.QuickProtect(context.Background(), item, domain.LicenseCommercialUse, 10)
	require.NoError(t, err)

	assert.True(t, res.Verified)
	assert.True(t, res.Registered)
	assert.Empty(t, res.Error)
	require.NotNil(t, res.VerifyResult)
	require.NotNil(t, res.Registration)
	assert.Equal(t, r.result.IPID, res.Registration.IPID)
	assert.Equal(t, domain.StatusProtected, item.Status)
	assert.Equal(t, domain.StatusProtected, res.Status)
	assert.Equal(t, domain.LicenseTerms{CommercialUse: true, CommercialRevShare: 10, DerivativesAllowed: true}, r.last.Terms)
	assert.Equal(t, "ipfs://bafkip", r.last.IPMetadataURI)
	assert.Equal(t, "ipfs://bafknft", r.last.NFTMetadataURI)
}

func TestQuickProtectBrandDetectedNeverRegisters(t *testing.T) {
	v := &stubVerifier{outcomes: map[string]domain.VerificationOutcome{
		"http://x/shoe.png": domain.VerificationOK(domain.VerificationResult{IsInfringing: true, MatchedBrand: "Nike"}),
	}}
	p := &stubPublisher{}
	r := &stubRegistrar{result: successfulRegistration()}
	o := newTestOrchestrator(v, p, r)
	item := imageItem("shoe", "http://x/shoe.png")

	res, err := o.QuickProtect(context.Background(), item, domain.LicenseNonCommercial, 0)
	require.NoError(t, err)

	assert.True(t, res.Verified)
	assert.False(t, res.Registered)
	assert.Equal(t, "Cannot register: Content status is BRAND_IP_DETECTED", res.Error)
	assert.Equal(t, 0, p.calls)
	assert.Equal(t, 0, r.calls)
	assert.Equal(t, domain.StatusBrandIPDetected, item.Status)
	assert.Equal(t, "Nike", item.Brand)
}

func TestQuickProtectBlocksEveryNonOriginalStatus(t *testing.T) {
	cases := map[domain.ContentStatus]domain.VerificationResult{
		domain.StatusAlreadyRegistered: {MatchedOwner: "0xowner"},
		domain.StatusProcessing:        {},
	}
	for want, upstream := range cases {
		t.Run(string(want), func(t *testing.T) {
			v := &stubVerifier{outcomes: map[string]domain.VerificationOutcome{
				"http://x/a.png": domain.VerificationOK(upstream),
			}}
			p := &stubPublisher{}
			r := &stubRegistrar{result: successfulRegistration()}
			o := newTestOrchestrator(v, p, r)

			res, err := o.QuickProtect(context.Background(), imageItem("1", "http://x/a.png"), domain.LicenseNoDerivatives, 0)
			require.NoError(t, err)
			assert.True(t, res.Verified)
			assert.False(t, res.Registered)
			assert.Equal(t, "Cannot register: Content status is "+string(want), res.Error)
			assert.Zero(t, p.calls)
			assert.Zero(t, r.calls)
		})
	}
}

func TestQuickProtectTransportFailureIsUnverified(t *testing.T) {
	v := &stubVerifier{outcomes: map[string]domain.VerificationOutcome{
		"http://x/a.png": domain.VerificationFailed("upstream unavailable: dial tcp: refused"),
	}}
	p := &stubPublisher{}
	r := &stubRegistrar{result: successfulRegistration()}
	o := newTestOrchestrator(v, p, r)
	item := imageItem("1", "http://x/a.png")

	res, err := o.QuickProtect(context.Background(), item, domain.LicenseCommercialUse, 5)
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.False(t, res.Registered)
	assert.Contains(t, res.Error, "refused")
	assert.Nil(t, res.VerifyResult)
	assert.Zero(t, p.calls)
	assert.Zero(t, r.calls)
}

func TestQuickProtectIgnoresCallerSuppliedStatus(t *testing.T) {
	v := &stubVerifier{outcomes: map[string]domain.VerificationOutcome{
		"http://x/a.png": domain.VerificationFailed("upstream unavailable"),
	}}
	o := newTestOrchestrator(v, &stubPublisher{}, &stubRegistrar{result: successfulRegistration()})
	item := imageItem("1", "http://x/a.png")
	item.Status = domain.StatusProtected
	item.Confidence = 99
	item.Owner = "me"
	item.Brand = "Acme"

	res, err := o.QuickProtect(context.Background(), item, domain.LicenseNonCommercial, 0)
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, domain.StatusError, res.Status)
	assert.Equal(t, domain.StatusError, item.Status)
	assert.Zero(t, item.Confidence)
	assert.Empty(t, item.Owner)
	assert.Empty(t, item.Brand)
}

func TestDenialMessage(t *testing.T) {
	assert.Equal(t, "Cannot register: Content status is PROCESSING",
		denialMessage(domain.StatusProcessing, []domain.EligibilityDenial{{Code: domain.DenyStatusNotOriginal, Message: "content status is PROCESSING"}}))
	assert.Equal(t, "Cannot register: Content status is PROCESSING; low confidence",
		denialMessage(domain.StatusProcessing, []domain.EligibilityDenial{
			{Code: domain.DenyStatusNotOriginal},
			{Code: "LOW_CONFIDENCE", Message: "low confidence"},
		}))
	assert.Equal(t, "Cannot register: Content status is ORIGINAL", denialMessage(domain.StatusOriginal, nil))
}

func TestQuickProtectUploadFailureKeepsVerified(t *testing.T) {
	v := &stubVerifier{}
	p := &stubPublisher{err: fmt.Errorf("%w: pinata returned 401", domain.ErrUploadFailed)}
	r := &stubRegistrar{result: successfulRegistration()}
	o := newTestOrchestrator(v, p, r)
	item := imageItem("1", "http://x/a.png")

	res, err := o.QuickProtect(context.Background(), item, domain.LicenseCommercialUse, 5)
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.False(t, res.Registered)
	assert.Contains(t, res.Error, "upload failed")
	assert.Nil(t, res.Registration)
	assert.Zero(t, r.calls)
	assert.Equal(t, domain.StatusError, item.Status)
}

func TestQuickProtectRegistrationFailure(t *testing.T) {
	v := &stubVerifier{}
	p := &stubPublisher{}
	r := &stubRegistrar{result: domain.RegistrationFailure(fmt.Errorf("%w: insufficient funds", domain.ErrRegistrationFailed))}
	o := newTestOrchestrator(v, p, r)

	res, err := o.QuickProtect(context.Background(), imageItem("1", "http://x/a.png"), domain.LicenseCommercialUse, 5)
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.False(t, res.Registered)
	assert.Contains(t, res.Error, "insufficient funds")
	require.NotNil(t, res.Registration)
	assert.False(t, res.Registration.Success)
}

func TestQuickProtectPolicy(t *testing.T) {
	v := &stubVerifier{}
	p := &stubPublisher{}
	r := &stubRegistrar{result: successfulRegistration()}
	o := newTestOrchestrator(v, p, r)
	o.Policy = fixedPolicy{denials: []domain.EligibilityDenial{{Code: "COMMERCIAL_BLOCKED", Message: "commercial licenses are disabled"}}}

	res, err := o.QuickProtect(context.Background(), imageItem("1", "http://x/a.png"), domain.LicenseCommercialUse, 5)
	require.NoError(t, err)
	assert.Equal(t, "Cannot register: commercial licenses are disabled", res.Error)
	assert.Zero(t, r.calls)

	o.Policy = fixedPolicy{denials: []domain.EligibilityDenial{{Code: "NO_MESSAGE"}}}
	res, err = o.QuickProtect(context.Background(), imageItem("3", "http://x/a.png"), domain.LicenseCommercialUse, 5)
	require.NoError(t, err)
	assert.Equal(t, "Cannot register: NO_MESSAGE", res.Error)

	o.Policy = brokenPolicy{}
	res, err = o.QuickProtect(context.Background(), imageItem("2", "http://x/a.png"), domain.LicenseCommercialUse, 5)
	require.NoError(t, err)
	assert.Contains(t, res.Error, "eligibility policy")
	assert.Zero(t, r.calls)
}

func TestQuickProtectRejectsInvalidInput(t *testing.T) {
	o := newTestOrchestrator(&stubVerifier{}, &stubPublisher{}, &stubRegistrar{})

	_, err := o.QuickProtect(context.Background(), &domain.ContentItem{Type: domain.ContentTypeImage}, domain.LicenseCommercialUse, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = o.QuickProtect(context.Background(), imageItem("1", "http://x/a.png"), "EXCLUSIVE", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = o.QuickProtect(context.Background(), nil, domain.LicenseCommercialUse, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestQuickProtectRecordsScan(t *testing.T) {
	v := &stubVerifier{outcomes: map[string]domain.VerificationOutcome{
		"http://x/shoe.png": domain.VerificationOK(domain.VerificationResult{IsInfringing: true, MatchedBrand: "Nike"}),
	}}
	o := newTestOrchestrator(v, &stubPublisher{}, &stubRegistrar{result: successfulRegistration()})
	ledger := &stubLedger{}
	o.Ledger = ledger

	_, err := o.QuickProtect(context.Background(), imageItem("shoe", "http://x/shoe.png"), domain.LicenseCommercialUse, 5)
	require.NoError(t, err)
	_, err = o.QuickProtect(context.Background(), imageItem("", "http://x/a.png"), domain.LicenseCommercialUse, 5)
	require.NoError(t, err)

	records, err := ledger.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "rec-1", records[0].ID)
	assert.Equal(t, domain.ScanStatusOK, records[0].Status)
	assert.Equal(t, "shoe", records[1].ID)
	assert.Equal(t, domain.ScanStatusError, records[1].Status)
	assert.Equal(t, int64(1700000000000), records[1].CreatedAt)

	var verification domain.VerificationResult
	require.NoError(t, json.Unmarshal(records[1].LastYakoaResponse, &verification))
	assert.True(t, verification.IsInfringing)
}

func TestVerifyValidatesInput(t *testing.T) {
	o := newTestOrchestrator(&stubVerifier{}, &stubPublisher{}, &stubRegistrar{})

	_, err := o.Verify(context.Background(), domain.VerifyInput{ContentType: domain.ContentTypeImage})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = o.Verify(context.Background(), domain.VerifyInput{ContentURL: "http://x/a.png", ContentType: "pdf"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	out, err := o.Verify(context.Background(), domain.VerifyInput{ContentURL: "http://x/a.png", ContentType: "IMAGE"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOriginal, out.Status())
}

func TestVerifyEndToEndOriginal(t *testing.T) {
	v := &stubVerifier{outcomes: map[string]domain.VerificationOutcome{
		"http://x/a.png": domain.VerificationOK(domain.VerificationResult{
			IsOriginal:      true,
			Confidence:      92,
			Infringements:   []domain.Infringement{},
			Recommendations: []string{},
		}),
	}}
	o := newTestOrchestrator(v, &stubPublisher{}, &stubRegistrar{})

	out, err := o.Verify(context.Background(), domain.VerifyInput{ContentURL: "http://x/a.png", ContentType: domain.ContentTypeImage})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOriginal, out.Status())
	assert.Equal(t, 92, out.Result.Confidence)
}
