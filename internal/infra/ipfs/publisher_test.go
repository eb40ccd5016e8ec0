package ipfs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ipshield/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureUploader struct {
	names []string
	data  [][]byte
	err   error
}

func (c *captureUploader) Mode() string { return "capture" }

func (c *captureUploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.names = append(c.names, name)
	c.data = append(c.data, append([]byte(nil), data...))
	return RawCID(data)
}

func TestCanonicalizeIsOrderIndependent(t *testing.T) {
	a, err := Canonicalize(map[string]any{"b": 1, "a": "x", "c": []int{2, 1}})
	require.NoError(t, err)
	b, err := Canonicalize(map[string]any{"c": []int{2, 1}, "a": "x", "b": 1})
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, `{"a":"x","b":1,"c":[2,1]}`, string(a))
}

func TestPublishHashesExactUploadedBytes(t *testing.T) {
	up := &captureUploader{}
	pub := NewPublisher(up, nil, 0)

	obj, err := pub.Publish(context.Background(), "doc.json", domain.NFTMetadata{Name: "Sunset", Description: "d", Image: "https://x/a.png"})
	require.NoError(t, err)
	require.Len(t, up.data, 1)

	sum := sha256.Sum256(up.data[0])
	assert.Equal(t, "0x"+hex.EncodeToString(sum[:]), obj.Hash)
	assert.True(t, strings.HasPrefix(obj.URI, "ipfs://"))
	assert.Equal(t, "ipfs://"+obj.CID, obj.URI)
	assert.Equal(t, len(up.data[0]), obj.Size)
}

func TestPublishUploadFailure(t *testing.T) {
	pub := NewPublisher(&captureUploader{err: errors.New("503 from pinning service")}, nil, 0)
	obj, err := pub.Publish(context.Background(), "doc.json", map[string]string{"a": "b"})
	require.ErrorIs(t, err, domain.ErrUploadFailed)
	assert.Empty(t, obj.URI)
	assert.Empty(t, obj.Hash)
}

func TestPublishAssetStampsMediaHash(t *testing.T) {
	media := []byte("png-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(media)
	}))
	defer srv.Close()

	up := &captureUploader{}
	pub := NewPublisher(up, srv.Client(), 0)
	mediaURL := srv.URL + "/a.png"
	out, err := pub.PublishAsset(context.Background(),
		domain.IPAssetMetadata{Title: "My Sunset!", Image: mediaURL, MediaURL: mediaURL, MediaType: "image/png"},
		domain.NFTMetadata{Name: "My Sunset!", Image: mediaURL},
	)
	require.NoError(t, err)

	sum := sha256.Sum256(media)
	want := "0x" + hex.EncodeToString(sum[:])
	assert.Equal(t, want, out.MediaHash)
	assert.Equal(t, want, out.IPMetadata.MediaHash)
	assert.Equal(t, want, out.IPMetadata.ImageHash)
	assert.Equal(t, mediaURL, out.MediaURI)
	assert.Equal(t, []string{"my-sunset-ip-metadata.json", "my-sunset-nft-metadata.json"}, up.names)
	assert.Contains(t, string(up.data[0]), want)
	assert.NotEqual(t, out.IP.URI, out.NFT.URI)
}

func TestPublishAssetRejectsOversizedMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("x", 64))
	}))
	defer srv.Close()

	pub := NewPublisher(&captureUploader{}, srv.Client(), 16)
	_, err := pub.PublishAsset(context.Background(), domain.IPAssetMetadata{Title: "t", MediaURL: srv.URL}, domain.NFTMetadata{})
	require.ErrorIs(t, err, domain.ErrUploadFailed)
}

func TestPublishAssetRejectsNonHTTPMedia(t *testing.T) {
	pub := NewPublisher(&captureUploader{}, nil, 0)
	_, err := pub.PublishAsset(context.Background(), domain.IPAssetMetadata{Title: "t", MediaURL: "ftp://x/a.png"}, domain.NFTMetadata{})
	require.ErrorIs(t, err, domain.ErrUploadFailed)
}

func TestPinataUploaderPinsFile(t *testing.T) {
	payload := []byte(`{"a":"b"}`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pinning/pinFileToIPFS", r.URL.Path)
		assert.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		got, _ := io.ReadAll(file)
		assert.Equal(t, payload, got)
		assert.Equal(t, "doc.json", header.Filename)
		c, _ := RawCID(got)
		_, _ = io.WriteString(w, `{"IpfsHash":"`+c+`","PinSize":9,"Timestamp":"2026-01-01T00:00:00Z"}`)
	}))
	defer srv.Close()

	up, err := NewPinataUploader(srv.URL, "jwt-token", srv.Client())
	require.NoError(t, err)
	cid, err := up.Upload(context.Background(), "doc.json", payload)
	require.NoError(t, err)
	want, _ := RawCID(payload)
	assert.Equal(t, want, cid)
}

func TestPinataUploaderRejectsBadResponses(t *testing.T) {
	status := http.StatusOK
	body := `{"IpfsHash":"not-a-cid"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	up, err := NewPinataUploader(srv.URL, "jwt", srv.Client())
	require.NoError(t, err)
	_, err = up.Upload(context.Background(), "doc.json", []byte(`{}`))
	require.Error(t, err)

	status, body = http.StatusUnauthorized, `{"error":"bad jwt"}`
	_, err = up.Upload(context.Background(), "doc.json", []byte(`{}`))
	require.ErrorContains(t, err, "401")
}

func TestNewPinataUploaderRequiresJWT(t *testing.T) {
	_, err := NewPinataUploader("", " ", nil)
	require.Error(t, err)
}
