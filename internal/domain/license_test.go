package domain

import (
	"errors"
	"testing"
)

func TestTermsForMappingTable(t *testing.T) {
	cases := []struct {
		license LicenseType
		royalty int
		want    LicenseTerms
	}{
		{LicenseCommercialUse, 15, LicenseTerms{CommercialUse: true, CommercialRevShare: 15, DerivativesAllowed: true}},
		{LicenseCommercialUse, 0, LicenseTerms{CommercialUse: true, CommercialRevShare: 0, DerivativesAllowed: true}},
		{LicenseNonCommercial, 15, LicenseTerms{CommercialUse: false, CommercialRevShare: 0, DerivativesAllowed: true}},
		{LicenseNoDerivatives, 15, LicenseTerms{CommercialUse: false, CommercialRevShare: 0, DerivativesAllowed: false}},
	}
	for _, tc := range cases {
		got, err := TermsFor(tc.license, tc.royalty)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.license, err)
		}
		if got != tc.want {
			t.Fatalf("%s/%d: expected %+v, got %+v", tc.license, tc.royalty, tc.want, got)
		}
	}
}

func TestTermsForClampsRoyalty(t *testing.T) {
	got, err := TermsFor(LicenseCommercialUse, 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CommercialRevShare != 100 {
		t.Fatalf("expected royalty clamped to 100, got %d", got.CommercialRevShare)
	}
}

func TestTermsForUnknownLicense(t *testing.T) {
	if _, err := TermsFor(LicenseType("OPEN"), 5); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestParseLicenseType(t *testing.T) {
	got, err := ParseLicenseType(" non_commercial ")
	if err != nil || got != LicenseNonCommercial {
		t.Fatalf("expected NON_COMMERCIAL, got %q (%v)", got, err)
	}
	if _, err := ParseLicenseType(""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
