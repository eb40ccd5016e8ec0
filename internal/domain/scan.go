package domain

import (
	"context"
	"encoding/json"
)

const (
	ScanStatusSubmitted = "submitted"
	ScanStatusOK        = "ok"
	ScanStatusError     = "error"
)

type ScanRecord struct {
	ID                string          `json:"id"`
	CreatedAt         int64           `json:"createdAt"`
	Payload           json.RawMessage `json:"payload"`
	Status            string          `json:"status"`
	LastYakoaResponse json.RawMessage `json:"lastYakoaResponse,omitempty"`
}

// ScanRecordPatch carries the fields to merge into an existing record. Empty
// fields are left untouched.
type ScanRecordPatch struct {
	Status            string
	Payload           json.RawMessage
	LastYakoaResponse json.RawMessage
}

func (r ScanRecord) Merge(patch ScanRecordPatch) ScanRecord {
	if patch.Status != "" {
		r.Status = patch.Status
	}
	if len(patch.Payload) > 0 {
		r.Payload = cloneRaw(patch.Payload)
	}
	if len(patch.LastYakoaResponse) > 0 {
		r.LastYakoaResponse = cloneRaw(patch.LastYakoaResponse)
	}
	return r
}

func (r ScanRecord) Clone() ScanRecord {
	r.Payload = cloneRaw(r.Payload)
	r.LastYakoaResponse = cloneRaw(r.LastYakoaResponse)
	return r
}

// ScanLedger records orchestration attempts. Append prepends without
// deduplication; Update merges into the first record with the id and is a
// no-op when none exists; List returns records newest-appended first.
type ScanLedger interface {
	Append(ctx context.Context, record ScanRecord) error
	Update(ctx context.Context, id string, patch ScanRecordPatch) error
	List(ctx context.Context) ([]ScanRecord, error)
	Get(ctx context.Context, id string) (ScanRecord, error)
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if in == nil {
		return nil
	}
	out := make(json.RawMessage, len(in))
	copy(out, in)
	return out
}
