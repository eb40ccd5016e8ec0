package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ipshield/internal/domain"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr := stdout, stderr
	stdout, stderr = &out, &errOut
	t.Cleanup(func() { stdout, stderr = prevOut, prevErr })
	return &out, &errOut
}

func offlineEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"YAKOA_API_KEY", "WALLET_PRIVATE_KEY", "POSTGRES_DSN", "PINATA_JWT", "POLICY_PATH", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}
	t.Setenv("SIMULATION_DELAY_MS", "1")
	t.Setenv("MEDIA_ALLOW_PRIVATE_HOSTS", "true")
	t.Setenv("LOG_LEVEL", "error")
}

func TestRunUsage(t *testing.T) {
	_, errOut := captureOutput(t)
	if code := run([]string{"ipshield"}); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if code := run([]string{"ipshield", "bogus"}); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "ipshield license") {
		t.Fatalf("expected usage, got %q", errOut.String())
	}
}

func TestRunLicense(t *testing.T) {
	out, _ := captureOutput(t)
	if code := run([]string{"ipshield", "license", "--type", "commercial_use", "--royalty", "12"}); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	var terms domain.LicenseTerms
	if err := json.Unmarshal(out.Bytes(), &terms); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !terms.CommercialUse || terms.CommercialRevShare != 12 || !terms.DerivativesAllowed {
		t.Fatalf("unexpected terms %+v", terms)
	}
}

func TestRunLicenseRejectsUnknownType(t *testing.T) {
	_, errOut := captureOutput(t)
	if code := run([]string{"ipshield", "license", "--type", "EXCLUSIVE"}); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "EXCLUSIVE") {
		t.Fatalf("expected error naming the type, got %q", errOut.String())
	}
}

func TestRunVerifySimulated(t *testing.T) {
	offlineEnv(t)
	out, _ := captureOutput(t)
	if code := run([]string{"ipshield", "verify", "--url", "https://example.com/a.png", "--type", "image"}); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	var resp struct {
		Status domain.ContentStatus `json:"status"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != domain.StatusOriginal {
		t.Fatalf("unexpected status %s", resp.Status)
	}
}

func TestRunVerifyInvalidType(t *testing.T) {
	offlineEnv(t)
	captureOutput(t)
	if code := run([]string{"ipshield", "verify", "--url", "https://example.com/a", "--type", "pdf"}); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

func TestRunProtectSimulated(t *testing.T) {
	offlineEnv(t)
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pixels"))
	}))
	defer media.Close()

	out, _ := captureOutput(t)
	code := run([]string{"ipshield", "protect", "--id", "42", "--url", media.URL + "/a.png", "--type", "image", "--title", "A"})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	var resp struct {
		Item   domain.ContentItem `json:"item"`
		Result struct {
			Registered bool `json:"registered"`
		} `json:"result"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Result.Registered || resp.Item.Status != domain.StatusProtected || resp.Item.ID != "42" {
		t.Fatalf("unexpected protect output %+v", resp)
	}
}
