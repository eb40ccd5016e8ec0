package domain

type RegistrationRequest struct {
	IP              IPAssetMetadata
	NFT             NFTMetadata
	IPMetadataURI   string
	IPMetadataHash  string
	NFTMetadataURI  string
	NFTMetadataHash string
	Terms           LicenseTerms
	// Recipient receives the minted NFT. Empty means the signing wallet.
	Recipient string
}

type RegistrationResult struct {
	Success         bool     `json:"success"`
	IPID            string   `json:"ipId,omitempty"`
	TxHash          string   `json:"txHash,omitempty"`
	ExplorerURL     string   `json:"explorerUrl,omitempty"`
	TokenID         string   `json:"tokenId,omitempty"`
	LicenseTermsIDs []string `json:"licenseTermsIds,omitempty"`
	Simulated       bool     `json:"simulated"`
	Error           string   `json:"error,omitempty"`
}

func RegistrationFailure(err error) RegistrationResult {
	return RegistrationResult{Success: false, Error: err.Error()}
}

// Err returns nil for a successful result and otherwise an error carrying
// the failure message that matches ErrRegistrationFailed.
func (r RegistrationResult) Err() error {
	if r.Success {
		return nil
	}
	return &registrationError{msg: r.Error}
}

type registrationError struct {
	msg string
}

func (e *registrationError) Error() string {
	if e.msg == "" {
		return ErrRegistrationFailed.Error()
	}
	return e.msg
}

func (e *registrationError) Unwrap() error {
	return ErrRegistrationFailed
}
