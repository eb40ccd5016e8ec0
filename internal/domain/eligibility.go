package domain

import "fmt"

// DenyStatusNotOriginal is the denial code for content whose derived status
// blocks registration.
const DenyStatusNotOriginal = "STATUS_NOT_ORIGINAL"

type EligibilityInput struct {
	Status      ContentStatus `json:"status"`
	Confidence  int           `json:"confidence"`
	ContentType ContentType   `json:"contentType,omitempty"`
	LicenseType LicenseType   `json:"licenseType,omitempty"`
}

type EligibilityDenial struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type EligibilityDecision struct {
	Allow bool                `json:"allow"`
	Deny  []EligibilityDenial `json:"deny"`
}

// DefaultEligibility is the built-in gate: only ORIGINAL content may be
// registered.
func DefaultEligibility(in EligibilityInput) EligibilityDecision {
	if in.Status == StatusOriginal {
		return EligibilityDecision{Allow: true, Deny: []EligibilityDenial{}}
	}
	return EligibilityDecision{
		Allow: false,
		Deny: []EligibilityDenial{{
			Code:    DenyStatusNotOriginal,
			Message: fmt.Sprintf("content status is %s", in.Status),
		}},
	}
}
