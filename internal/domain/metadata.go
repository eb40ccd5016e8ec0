package domain

type Creator struct {
	Name                string `json:"name"`
	Address             string `json:"address"`
	ContributionPercent int    `json:"contributionPercent"`
	Description         string `json:"description,omitempty"`
}

// IPAssetMetadata follows the Story IPA metadata standard.
type IPAssetMetadata struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   string    `json:"createdAt,omitempty"`
	Image       string    `json:"image"`
	ImageHash   string    `json:"imageHash,omitempty"`
	MediaURL    string    `json:"mediaUrl"`
	MediaHash   string    `json:"mediaHash,omitempty"`
	MediaType   string    `json:"mediaType"`
	Creators    []Creator `json:"creators"`
}

type NFTAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

type NFTMetadata struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Image        string         `json:"image"`
	AnimationURL string         `json:"animation_url,omitempty"`
	Attributes   []NFTAttribute `json:"attributes,omitempty"`
}

// ContributionTotal sums creator contribution percentages. A total other
// than 100 is tolerated.
func (m IPAssetMetadata) ContributionTotal() int {
	total := 0
	for _, c := range m.Creators {
		total += c.ContributionPercent
	}
	return total
}

// MediaTypeFor returns the MIME type recorded in IPA metadata for a content
// type when the caller did not supply one.
func MediaTypeFor(t ContentType) string {
	switch t {
	case ContentTypeImage:
		return "image/png"
	case ContentTypeAudio:
		return "audio/mpeg"
	case ContentTypeVideo:
		return "video/mp4"
	case ContentTypeText:
		return "text/plain"
	}
	return "application/octet-stream"
}
