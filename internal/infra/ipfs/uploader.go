package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

const (
	ModePinata = "pinata"
	ModeLocal  = "local"
)

type PinataUploader struct {
	apiURL string
	jwt    string
	httpDo func(*http.Request) (*http.Response, error)
}

func NewPinataUploader(apiURL, jwt string, httpClient *http.Client) (*PinataUploader, error) {
	if strings.TrimSpace(jwt) == "" {
		return nil, errors.New("pinata jwt is required")
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = "https://api.pinata.cloud"
	}
	doer := http.DefaultClient.Do
	if httpClient != nil {
		doer = httpClient.Do
	}
	return &PinataUploader{
		apiURL: strings.TrimRight(apiURL, "/"),
		jwt:    jwt,
		httpDo: doer,
	}, nil
}

func (u *PinataUploader) Mode() string {
	return ModePinata
}

type pinataPinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Upload pins data as a file so the stored bytes are exactly the bytes that
// were hashed.
func (u *PinataUploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	meta, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return "", err
	}
	if err := form.WriteField("pinataMetadata", string(meta)); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.apiURL+"/pinning/pinFileToIPFS", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+u.jwt)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.httpDo(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("pinata returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var pinned pinataPinResponse
	if err := json.Unmarshal(raw, &pinned); err != nil {
		return "", fmt.Errorf("decode pinata response: %w", err)
	}
	parsed, err := cid.Decode(pinned.IpfsHash)
	if err != nil {
		return "", fmt.Errorf("pinata returned invalid cid %q: %w", pinned.IpfsHash, err)
	}
	return parsed.String(), nil
}

// LocalUploader computes the CID of the data without storing it anywhere. It
// keeps registration usable in environments without pinning credentials.
type LocalUploader struct{}

func (LocalUploader) Mode() string {
	return ModeLocal
}

func (LocalUploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return RawCID(data)
}

// RawCID returns the CIDv1 (raw codec, sha2-256) of data.
func RawCID(data []byte) (string, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}
