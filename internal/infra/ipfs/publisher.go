package ipfs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ipshield/internal/domain"
)

const defaultMaxMediaBytes = 32 << 20

type Uploader interface {
	Mode() string
	Upload(ctx context.Context, name string, data []byte) (cid string, err error)
}

type Publisher struct {
	uploader      Uploader
	httpDo        func(*http.Request) (*http.Response, error)
	maxMediaBytes int64
	timeout       time.Duration
}

func NewPublisher(uploader Uploader, httpClient *http.Client, maxMediaBytes int) *Publisher {
	if uploader == nil {
		uploader = LocalUploader{}
	}
	doer := http.DefaultClient.Do
	if httpClient != nil {
		doer = httpClient.Do
	}
	limit := int64(maxMediaBytes)
	if limit <= 0 {
		limit = defaultMaxMediaBytes
	}
	return &Publisher{
		uploader:      uploader,
		httpDo:        doer,
		maxMediaBytes: limit,
		timeout:       60 * time.Second,
	}
}

func (p *Publisher) Mode() string {
	return p.uploader.Mode()
}

// Publish canonicalizes v, hashes the exact bytes and uploads them. Every
// error wraps domain.ErrUploadFailed and no partial object is returned.
func (p *Publisher) Publish(ctx context.Context, name string, v any) (domain.PinnedObject, error) {
	data, err := Canonicalize(v)
	if err != nil {
		return domain.PinnedObject{}, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	cid, err := p.uploader.Upload(ctx, name, data)
	if err != nil {
		return domain.PinnedObject{}, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	if cid == "" {
		return domain.PinnedObject{}, fmt.Errorf("%w: empty cid", domain.ErrUploadFailed)
	}
	return domain.PinnedObject{
		URI:  "ipfs://" + cid,
		Hash: HashHex(data),
		CID:  cid,
		Size: len(data),
	}, nil
}

// PublishAsset hashes the media, stamps the hash into the IP metadata and
// publishes the IP and NFT documents.
func (p *Publisher) PublishAsset(ctx context.Context, ip domain.IPAssetMetadata, nft domain.NFTMetadata) (domain.AssetPublication, error) {
	mediaURL := ip.MediaURL
	if mediaURL == "" {
		mediaURL = ip.Image
	}
	mediaHash, err := p.hashMedia(ctx, mediaURL)
	if err != nil {
		return domain.AssetPublication{}, fmt.Errorf("%w: media: %v", domain.ErrUploadFailed, err)
	}
	ip.MediaURL = mediaURL
	ip.MediaHash = mediaHash
	if ip.Image == mediaURL {
		ip.ImageHash = mediaHash
	}

	ipObj, err := p.Publish(ctx, slug(ip.Title)+"-ip-metadata.json", ip)
	if err != nil {
		return domain.AssetPublication{}, err
	}
	nftObj, err := p.Publish(ctx, slug(ip.Title)+"-nft-metadata.json", nft)
	if err != nil {
		return domain.AssetPublication{}, err
	}
	return domain.AssetPublication{
		IP:          ipObj,
		NFT:         nftObj,
		MediaURI:    mediaURL,
		MediaHash:   mediaHash,
		IPMetadata:  ip,
		NFTMetadata: nft,
	}, nil
}

func (p *Publisher) hashMedia(ctx context.Context, mediaURL string) (string, error) {
	if !strings.HasPrefix(mediaURL, "http://") && !strings.HasPrefix(mediaURL, "https://") {
		return "", fmt.Errorf("unsupported media url %q", mediaURL)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.httpDo(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}
	hasher := sha256.New()
	n, err := io.Copy(hasher, io.LimitReader(resp.Body, p.maxMediaBytes+1))
	if err != nil {
		return "", err
	}
	if n > p.maxMediaBytes {
		return "", errors.New("media exceeds size limit")
	}
	return "0x" + hex.EncodeToString(hasher.Sum(nil)), nil
}

func slug(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
		if b.Len() >= 48 {
			break
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "asset"
	}
	return out
}
