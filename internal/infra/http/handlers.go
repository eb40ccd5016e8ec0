package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ipshield/internal/domain"
	"ipshield/internal/usecase"

	"github.com/gin-gonic/gin"
)

const (
	maxBatchItems    = 100
	maxTokenBodySize = 1 << 20
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type verifyRequest struct {
	ContentURL  string `json:"contentUrl"`
	ContentType string `json:"contentType"`
	Title       string `json:"title"`
	CreatorID   string `json:"creatorId"`
}

type verifyResponse struct {
	Success bool                      `json:"success"`
	Result  domain.VerificationResult `json:"result"`
	Status  domain.ContentStatus      `json:"status"`
}

type batchRequest struct {
	Items []domain.ContentItem `json:"items"`
}

type batchResponse struct {
	Success  bool                                   `json:"success"`
	Statuses map[domain.ItemID]domain.ContentStatus `json:"statuses"`
	Items    []domain.ContentItem                   `json:"items"`
}

type registerRequest struct {
	Title             string `json:"title"`
	MediaURL          string `json:"mediaUrl"`
	ImageURL          string `json:"imageUrl"`
	Description       string `json:"description"`
	AssetType         string `json:"assetType"`
	LicenseType       string `json:"licenseType"`
	RoyaltyPercentage int    `json:"royaltyPercentage"`
	CreatorName       string `json:"creatorName"`
	CreatorAddress    string `json:"creatorAddress"`
	Recipient         string `json:"recipient"`
}

type registerData struct {
	IPID           string                 `json:"ipId"`
	TxHash         string                 `json:"txHash"`
	ExplorerURL    string                 `json:"explorerUrl"`
	TokenID        string                 `json:"tokenId,omitempty"`
	IPMetadata     domain.IPAssetMetadata `json:"ipMetadata"`
	NFTMetadata    domain.NFTMetadata     `json:"nftMetadata"`
	IPMetadataPin  domain.PinnedObject    `json:"ipMetadataPin"`
	NFTMetadataPin domain.PinnedObject    `json:"nftMetadataPin"`
	MediaHash      string                 `json:"mediaHash"`
	LicenseTerms   domain.LicenseTerms    `json:"licenseTerms"`
	Simulated      bool                   `json:"simulated"`
}

type registerResponse struct {
	Success bool         `json:"success"`
	Data    registerData `json:"data"`
}

type protectRequest struct {
	Item              domain.ContentItem `json:"item"`
	LicenseType       string             `json:"licenseType"`
	RoyaltyPercentage int                `json:"royaltyPercentage"`
}

type protectResponse struct {
	usecase.QuickProtectResult
	Item domain.ContentItem `json:"item"`
}

var requiredTokenFields = []string{"id", "registration_tx", "creator_id", "metadata", "media"}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": s.storageMode})
}

func (s *Server) handleVerify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if strings.TrimSpace(req.ContentURL) == "" || strings.TrimSpace(req.ContentType) == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "contentUrl and contentType are required")
		return
	}
	outcome, err := s.orchestrator.Verify(c.Request.Context(), domain.VerifyInput{
		ContentURL:  req.ContentURL,
		ContentType: domain.ContentType(req.ContentType),
		Title:       req.Title,
		CreatorID:   req.CreatorID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verifyResponse{
		Success: true,
		Result:  outcome.Result,
		Status:  outcome.Status(),
	})
}

func (s *Server) handleVerifyBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if len(req.Items) == 0 {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "items are required")
		return
	}
	if len(req.Items) > maxBatchItems {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", fmt.Sprintf("at most %d items per batch", maxBatchItems))
		return
	}
	if !s.spendQuota(c, domain.QuotaVerify, len(req.Items)) {
		return
	}
	statuses := s.orchestrator.BatchVerify(c.Request.Context(), req.Items)
	c.JSON(http.StatusOK, batchResponse{Success: true, Statuses: statuses, Items: req.Items})
}

func (s *Server) handleVerifyHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "operational",
		"configured": s.cfg.YakoaConfigured(),
		"mode":       s.orchestrator.VerifierMode(),
	})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	params := usecase.RegisterParams{
		Title:             req.Title,
		Description:       req.Description,
		MediaURL:          req.MediaURL,
		ImageURL:          req.ImageURL,
		AssetType:         domain.ContentType(defaultString(req.AssetType, string(domain.ContentTypeImage))),
		LicenseType:       domain.LicenseType(defaultString(req.LicenseType, string(domain.LicenseNonCommercial))),
		RoyaltyPercentage: req.RoyaltyPercentage,
		Recipient:         req.Recipient,
	}
	if req.CreatorName != "" || req.CreatorAddress != "" {
		params.Creators = []domain.Creator{{
			Name:                defaultString(req.CreatorName, "Anonymous"),
			Address:             req.CreatorAddress,
			ContributionPercent: 100,
		}}
	}
	res, err := s.orchestrator.RegisterIP(c.Request.Context(), params, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	reg := res.Registration
	c.JSON(http.StatusOK, registerResponse{
		Success: true,
		Data: registerData{
			IPID:           reg.IPID,
			TxHash:         reg.TxHash,
			ExplorerURL:    reg.ExplorerURL,
			TokenID:        reg.TokenID,
			IPMetadata:     res.Publication.IPMetadata,
			NFTMetadata:    res.Publication.NFTMetadata,
			IPMetadataPin:  res.Publication.IP,
			NFTMetadataPin: res.Publication.NFT,
			MediaHash:      res.Publication.MediaHash,
			LicenseTerms:   res.Terms,
			Simulated:      reg.Simulated,
		},
	})
}

func (s *Server) handleRegisterHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "operational",
		"network": s.network,
	})
}

func (s *Server) handleProtect(c *gin.Context) {
	var req protectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	item := req.Item
	license := domain.LicenseType(defaultString(req.LicenseType, string(domain.LicenseNonCommercial)))
	res, err := s.orchestrator.QuickProtect(c.Request.Context(), &item, license, req.RoyaltyPercentage)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, protectResponse{QuickProtectResult: res, Item: item})
}

func (s *Server) handleRegisterToken(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTokenBodySize+1))
	if err != nil || len(body) > maxTokenBodySize {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid body")
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if missing := missingFields(fields, requiredTokenFields); len(missing) > 0 {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "missing required fields: "+strings.Join(missing, ", "))
		return
	}
	var id domain.ItemID
	if err := json.Unmarshal(fields["id"], &id); err != nil || id == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "id must be a string or number")
		return
	}
	if s.tokens == nil {
		writeError(c, fmt.Errorf("%w: token registration requires YAKOA_API_KEY", domain.ErrNotConfigured))
		return
	}

	ctx := c.Request.Context()
	s.appendScan(c, domain.ScanRecord{
		ID:        id.String(),
		CreatedAt: s.now().UnixMilli(),
		Payload:   json.RawMessage(body),
		Status:    domain.ScanStatusSubmitted,
	})

	resp, err := s.tokens.RegisterToken(ctx, body)
	if err != nil {
		s.updateScan(c, id.String(), domain.ScanRecordPatch{Status: domain.ScanStatusError})
		writeError(c, err)
		return
	}
	status := domain.ScanStatusOK
	if resp.StatusCode >= 300 {
		status = domain.ScanStatusError
	}
	s.updateScan(c, id.String(), domain.ScanRecordPatch{Status: status, LastYakoaResponse: resp.Body})
	c.Data(resp.StatusCode, "application/json; charset=utf-8", resp.Body)
}

func (s *Server) handleGetToken(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "id is required")
		return
	}
	if s.tokens == nil {
		writeError(c, fmt.Errorf("%w: token lookup requires YAKOA_API_KEY", domain.ErrNotConfigured))
		return
	}
	resp, err := s.tokens.GetToken(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	s.updateScan(c, id, domain.ScanRecordPatch{LastYakoaResponse: resp.Body})
	c.Data(resp.StatusCode, "application/json; charset=utf-8", resp.Body)
}

func (s *Server) handleListScans(c *gin.Context) {
	if s.ledger == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true, "data": []domain.ScanRecord{}})
		return
	}
	records, err := s.ledger.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": records})
}

func (s *Server) appendScan(c *gin.Context, rec domain.ScanRecord) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Append(c.Request.Context(), rec); err != nil {
		s.logger.WarnContext(c.Request.Context(), "scan append failed", "id", rec.ID, "error", err)
	}
}

func (s *Server) updateScan(c *gin.Context, id string, patch domain.ScanRecordPatch) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Update(c.Request.Context(), id, patch); err != nil {
		s.logger.WarnContext(c.Request.Context(), "scan update failed", "id", id, "error", err)
	}
}

func missingFields(fields map[string]json.RawMessage, required []string) []string {
	var missing []string
	for _, name := range required {
		raw, ok := fields[name]
		trimmed := bytes.TrimSpace(raw)
		if !ok || len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
			missing = append(missing, name)
		}
	}
	return missing
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status, code = http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUploadFailed):
		code = "UPLOAD_FAILED"
	case errors.Is(err, domain.ErrRegistrationFailed):
		code = "REGISTRATION_FAILED"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		code = "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, domain.ErrNotConfigured):
		code = "NOT_CONFIGURED"
	}
	writeErrorCode(c, status, code, err.Error())
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Error: message,
		Code:  code,
	})
}
