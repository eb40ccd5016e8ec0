package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ipshield/internal/domain"

	"github.com/google/uuid"
)

// Orchestrator ties verification, metadata publishing and registration
// together. Policy and Ledger are optional.
type Orchestrator struct {
	Policy EligibilityPolicy
	Ledger domain.ScanLedger
	Logger *slog.Logger

	verifier   ContentVerifier
	publisher  MetadataPublisher
	registrar  IPRegistrar
	batchPause time.Duration
	now        func() time.Time
	sleep      func(context.Context, time.Duration) error
	newID      func() string
}

func NewOrchestrator(verifier ContentVerifier, publisher MetadataPublisher, registrar IPRegistrar) *Orchestrator {
	return &Orchestrator{
		Logger:     slog.Default(),
		verifier:   verifier,
		publisher:  publisher,
		registrar:  registrar,
		batchPause: defaultBatchPause,
		now:        time.Now,
		sleep:      sleepContext,
		newID:      uuid.NewString,
	}
}

func (o *Orchestrator) VerifierMode() string {
	return o.verifier.Mode()
}

func (o *Orchestrator) Simulated() bool {
	return o.registrar.Simulated()
}

// Verify validates the input and runs a single verification. Only invalid
// input is returned as an error.
func (o *Orchestrator) Verify(ctx context.Context, in domain.VerifyInput) (domain.VerificationOutcome, error) {
	if err := in.Validate(); err != nil {
		return domain.VerificationOutcome{}, err
	}
	return o.verifier.Verify(ctx, in), nil
}

type QuickProtectResult struct {
	Verified     bool                       `json:"verified"`
	Registered   bool                       `json:"registered"`
	VerifyResult *domain.VerificationResult `json:"yakoaResult,omitempty"`
	Registration *domain.RegistrationResult `json:"storyResult,omitempty"`
	Error        string                     `json:"error,omitempty"`
	Status       domain.ContentStatus       `json:"status,omitempty"`
}

// QuickProtect verifies item and registers it when the eligibility gate
// allows. item is updated in place. The returned error is reserved for
// invalid input; every other failure lands in the result.
func (o *Orchestrator) QuickProtect(ctx context.Context, item *domain.ContentItem, licenseType domain.LicenseType, royaltyPercentage int) (QuickProtectResult, error) {
	if item == nil {
		return QuickProtectResult{}, fmt.Errorf("%w: content item is required", domain.ErrInvalidArgument)
	}
	item.ResetOutputs()
	if err := item.Validate(); err != nil {
		return QuickProtectResult{}, err
	}
	licenseType, err := domain.ParseLicenseType(string(licenseType))
	if err != nil {
		return QuickProtectResult{}, err
	}

	recordID := item.ID.String()
	if recordID == "" {
		recordID = o.newID()
	}
	o.appendScan(ctx, recordID, quickProtectPayload{Item: *item, LicenseType: licenseType, RoyaltyPercentage: royaltyPercentage})

	result := o.quickProtect(ctx, item, licenseType, royaltyPercentage)
	result.Status = item.Status

	var outcomeErr error
	if result.Error != "" {
		outcomeErr = errors.New(result.Error)
	}
	var response any
	if result.VerifyResult != nil {
		response = result.VerifyResult
	}
	o.finishScan(ctx, recordID, outcomeErr, response)
	return result, nil
}

type quickProtectPayload struct {
	Item              domain.ContentItem `json:"item"`
	LicenseType       domain.LicenseType `json:"licenseType"`
	RoyaltyPercentage int                `json:"royaltyPercentage"`
}

func (o *Orchestrator) quickProtect(ctx context.Context, item *domain.ContentItem, licenseType domain.LicenseType, royaltyPercentage int) QuickProtectResult {
	outcome := o.verifier.Verify(ctx, domain.VerifyInput{
		ContentURL:  item.URL,
		ContentType: item.Type,
		Title:       item.Title,
	})
	if outcome.Failed {
		item.MarkError()
		return QuickProtectResult{Verified: false, Registered: false, Error: outcome.Reason}
	}

	status := item.ApplyVerification(outcome.Result)
	verified := outcome.Result
	result := QuickProtectResult{Verified: true, VerifyResult: &verified}

	decision, err := o.eligibility(ctx, domain.EligibilityInput{
		Status:      status,
		Confidence:  item.Confidence,
		ContentType: item.Type,
		LicenseType: licenseType,
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if !decision.Allow {
		result.Error = denialMessage(status, decision.Deny)
		return result
	}

	title := item.Title
	if title == "" {
		title = "Untitled " + string(item.Type)
	}
	reg, err := o.registerIP(ctx, RegisterParams{
		Title:             title,
		MediaURL:          item.URL,
		AssetType:         item.Type,
		LicenseType:       licenseType,
		RoyaltyPercentage: royaltyPercentage,
	}, nil)
	if reg.Registration.Success || reg.Registration.Error != "" {
		registration := reg.Registration
		result.Registration = &registration
	}
	if err != nil {
		item.MarkError()
		result.Error = err.Error()
		return result
	}
	item.MarkProtected()
	result.Registered = true
	return result
}

// denialMessage keeps the status wording for status denials and lists any
// other policy reasons after it.
func denialMessage(status domain.ContentStatus, denials []domain.EligibilityDenial) string {
	statusDenied := len(denials) == 0
	var reasons []string
	for _, d := range denials {
		if d.Code == domain.DenyStatusNotOriginal {
			statusDenied = true
			continue
		}
		reason := d.Message
		if reason == "" {
			reason = d.Code
		}
		reasons = append(reasons, reason)
	}
	if statusDenied {
		reasons = append([]string{fmt.Sprintf("Content status is %s", status)}, reasons...)
	}
	return "Cannot register: " + strings.Join(reasons, "; ")
}

func (o *Orchestrator) eligibility(ctx context.Context, input domain.EligibilityInput) (domain.EligibilityDecision, error) {
	if o.Policy == nil {
		return domain.DefaultEligibility(input), nil
	}
	decision, err := o.Policy.Evaluate(ctx, input)
	if err != nil {
		return domain.EligibilityDecision{}, fmt.Errorf("eligibility policy: %w", err)
	}
	return decision, nil
}

func (o *Orchestrator) appendScan(ctx context.Context, id string, payload any) {
	if o.Ledger == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		o.Logger.WarnContext(ctx, "scan payload encode failed", "id", id, "error", err)
		return
	}
	rec := domain.ScanRecord{
		ID:        id,
		CreatedAt: o.now().UnixMilli(),
		Payload:   raw,
		Status:    domain.ScanStatusSubmitted,
	}
	if err := o.Ledger.Append(ctx, rec); err != nil {
		o.Logger.WarnContext(ctx, "scan append failed", "id", id, "error", err)
	}
}

func (o *Orchestrator) finishScan(ctx context.Context, id string, outcome error, response any) {
	if o.Ledger == nil {
		return
	}
	status := domain.ScanStatusOK
	if outcome != nil {
		status = domain.ScanStatusError
	}
	patch := domain.ScanRecordPatch{Status: status}
	if response != nil {
		if raw, err := json.Marshal(response); err == nil {
			patch.LastYakoaResponse = raw
		}
	}
	if err := o.Ledger.Update(ctx, id, patch); err != nil {
		o.Logger.WarnContext(ctx, "scan update failed", "id", id, "error", err)
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
