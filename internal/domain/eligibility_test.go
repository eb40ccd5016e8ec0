package domain

import "testing"

func TestDefaultEligibilityAllowsOnlyOriginal(t *testing.T) {
	if d := DefaultEligibility(EligibilityInput{Status: StatusOriginal}); !d.Allow || len(d.Deny) != 0 {
		t.Fatalf("original content must be allowed, got %+v", d)
	}
	for _, status := range []ContentStatus{StatusBrandIPDetected, StatusAlreadyRegistered, StatusProcessing, StatusError, StatusProtected} {
		d := DefaultEligibility(EligibilityInput{Status: status})
		if d.Allow {
			t.Fatalf("%s must be denied", status)
		}
		if len(d.Deny) != 1 || d.Deny[0].Code != "STATUS_NOT_ORIGINAL" {
			t.Fatalf("unexpected denial for %s: %+v", status, d.Deny)
		}
	}
}

func TestMediaTypeAndContributions(t *testing.T) {
	if got := MediaTypeFor(ContentTypeAudio); got != "audio/mpeg" {
		t.Fatalf("audio media type = %s", got)
	}
	if got := MediaTypeFor(ContentType("pdf")); got != "application/octet-stream" {
		t.Fatalf("fallback media type = %s", got)
	}
	meta := IPAssetMetadata{Creators: []Creator{{ContributionPercent: 60}, {ContributionPercent: 30}}}
	if total := meta.ContributionTotal(); total != 90 {
		t.Fatalf("contribution total = %d", total)
	}
}
