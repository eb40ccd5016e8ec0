package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type ContentType string

const (
	ContentTypeImage ContentType = "image"
	ContentTypeAudio ContentType = "audio"
	ContentTypeVideo ContentType = "video"
	ContentTypeText  ContentType = "text"
)

func ParseContentType(value string) (ContentType, error) {
	switch ContentType(strings.ToLower(strings.TrimSpace(value))) {
	case ContentTypeImage:
		return ContentTypeImage, nil
	case ContentTypeAudio:
		return ContentTypeAudio, nil
	case ContentTypeVideo:
		return ContentTypeVideo, nil
	case ContentTypeText:
		return ContentTypeText, nil
	}
	return "", fmt.Errorf("%w: unsupported content type %q", ErrInvalidArgument, value)
}

type ContentStatus string

const (
	StatusOriginal          ContentStatus = "ORIGINAL"
	StatusBrandIPDetected   ContentStatus = "BRAND_IP_DETECTED"
	StatusAlreadyRegistered ContentStatus = "ALREADY_REGISTERED"
	StatusProcessing        ContentStatus = "PROCESSING"
	StatusProtected         ContentStatus = "PROTECTED"
	StatusError             ContentStatus = "ERROR"
)

// ItemID is a caller-assigned identifier. Callers send either a JSON number
// or a JSON string; both decode to the same string key.
type ItemID string

func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: id must be a string or number", ErrInvalidArgument)
	}
	*id = ItemID(n.String())
	return nil
}

func (id ItemID) String() string {
	return string(id)
}

// ContentItem is a unit of media being checked and possibly registered.
// Status, Confidence, Brand and Owner are outputs: they are written only by
// ApplyVerification, MarkProtected and MarkError.
type ContentItem struct {
	ID         ItemID        `json:"id"`
	URL        string        `json:"url"`
	Title      string        `json:"title"`
	Type       ContentType   `json:"type"`
	Status     ContentStatus `json:"status,omitempty"`
	Confidence int           `json:"confidence"`
	Brand      string        `json:"brand,omitempty"`
	Owner      string        `json:"owner,omitempty"`
}

func (c *ContentItem) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("%w: content url is required", ErrInvalidArgument)
	}
	contentType, err := ParseContentType(string(c.Type))
	if err != nil {
		return err
	}
	c.Type = contentType
	return nil
}

// ResetOutputs clears the derived fields so values sent by a caller never
// survive into a result.
func (c *ContentItem) ResetOutputs() {
	c.Status = ""
	c.Confidence = 0
	c.Brand = ""
	c.Owner = ""
}

func (c *ContentItem) ApplyVerification(result VerificationResult) ContentStatus {
	status := DeriveStatus(result)
	c.Status = status
	c.Confidence = clampPercent(result.Confidence)
	c.Brand = ""
	c.Owner = ""
	if status == StatusBrandIPDetected {
		c.Brand = result.MatchedBrand
	}
	if status == StatusAlreadyRegistered {
		c.Owner = result.MatchedOwner
	}
	return status
}

func (c *ContentItem) MarkProtected() {
	c.Status = StatusProtected
}

func (c *ContentItem) MarkError() {
	c.Status = StatusError
}
