package domain

// PinnedObject is a document stored on the content-addressed network. Hash is
// the 0x-prefixed SHA-256 of the exact uploaded bytes.
type PinnedObject struct {
	URI  string `json:"uri"`
	Hash string `json:"hash"`
	CID  string `json:"cid"`
	Size int    `json:"size"`
}

type AssetPublication struct {
	IP          PinnedObject    `json:"ipMetadataPin"`
	NFT         PinnedObject    `json:"nftMetadataPin"`
	MediaURI    string          `json:"mediaUri"`
	MediaHash   string          `json:"mediaHash"`
	IPMetadata  IPAssetMetadata `json:"ipMetadata"`
	NFTMetadata NFTMetadata     `json:"nftMetadata"`
}
