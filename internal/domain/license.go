package domain

import (
	"fmt"
	"strings"
)

type LicenseType string

const (
	LicenseCommercialUse LicenseType = "COMMERCIAL_USE"
	LicenseNonCommercial LicenseType = "NON_COMMERCIAL"
	LicenseNoDerivatives LicenseType = "NO_DERIVATIVES"
)

func ParseLicenseType(value string) (LicenseType, error) {
	switch LicenseType(strings.ToUpper(strings.TrimSpace(value))) {
	case LicenseCommercialUse:
		return LicenseCommercialUse, nil
	case LicenseNonCommercial:
		return LicenseNonCommercial, nil
	case LicenseNoDerivatives:
		return LicenseNoDerivatives, nil
	}
	return "", fmt.Errorf("%w: unsupported license type %q", ErrInvalidArgument, value)
}

type LicenseTerms struct {
	CommercialUse      bool `json:"commercialUse"`
	CommercialRevShare int  `json:"commercialRevShare"`
	DerivativesAllowed bool `json:"derivativesAllowed"`
}

// TermsFor maps a license type onto license terms. The royalty applies only
// to commercial use; the other types always carry a zero revenue share.
func TermsFor(licenseType LicenseType, royaltyPercentage int) (LicenseTerms, error) {
	switch licenseType {
	case LicenseCommercialUse:
		return LicenseTerms{
			CommercialUse:      true,
			CommercialRevShare: clampPercent(royaltyPercentage),
			DerivativesAllowed: true,
		}, nil
	case LicenseNonCommercial:
		return LicenseTerms{
			CommercialUse:      false,
			CommercialRevShare: 0,
			DerivativesAllowed: true,
		}, nil
	case LicenseNoDerivatives:
		return LicenseTerms{
			CommercialUse:      false,
			CommercialRevShare: 0,
			DerivativesAllowed: false,
		}, nil
	}
	return LicenseTerms{}, fmt.Errorf("%w: unsupported license type %q", ErrInvalidArgument, licenseType)
}
