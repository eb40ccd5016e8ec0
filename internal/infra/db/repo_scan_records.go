package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ipshield/internal/domain"

	"gorm.io/gorm"
)

type ScanRecordRepository struct {
	db *gorm.DB
}

func NewScanRecordRepository(db *gorm.DB) *ScanRecordRepository {
	return &ScanRecordRepository{db: db}
}

func (r *ScanRecordRepository) Append(ctx context.Context, rec domain.ScanRecord) error {
	if r.db == nil {
		return errDBUnavailable
	}
	payload := copyBytes(rec.Payload)
	if len(payload) == 0 {
		payload = []byte("null")
	}
	model := ScanRecordModel{
		RecordID:     rec.ID,
		CreatedAt:    rec.CreatedAt,
		Payload:      payload,
		Status:       rec.Status,
		LastResponse: copyBytes(rec.LastYakoaResponse),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("append scan record: %w", err)
	}
	return nil
}

// Update merges patch into the most recently appended record with id. The
// target row is resolved inside the UPDATE so concurrent appends cannot
// change which duplicate is hit.
func (r *ScanRecordRepository) Update(ctx context.Context, id string, patch domain.ScanRecordPatch) error {
	if r.db == nil {
		return errDBUnavailable
	}
	updates := map[string]any{}
	if patch.Status != "" {
		updates["status"] = patch.Status
	}
	if len(patch.Payload) > 0 {
		updates["payload"] = copyBytes(patch.Payload)
	}
	if len(patch.LastYakoaResponse) > 0 {
		updates["last_response"] = copyBytes(patch.LastYakoaResponse)
	}
	if len(updates) == 0 {
		return nil
	}
	newest := r.db.Model(&ScanRecordModel{}).
		Select("seq").
		Where("record_id = ?", id).
		Order("seq DESC").
		Limit(1)
	err := r.db.WithContext(ctx).
		Model(&ScanRecordModel{}).
		Where("seq = (?)", newest).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("update scan record: %w", err)
	}
	return nil
}

func (r *ScanRecordRepository) List(ctx context.Context) ([]domain.ScanRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []ScanRecordModel
	if err := r.db.WithContext(ctx).Order("seq DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list scan records: %w", err)
	}
	out := make([]domain.ScanRecord, 0, len(models))
	for _, m := range models {
		out = append(out, toDomainScanRecord(m))
	}
	return out, nil
}

func (r *ScanRecordRepository) Get(ctx context.Context, id string) (domain.ScanRecord, error) {
	if r.db == nil {
		return domain.ScanRecord{}, errDBUnavailable
	}
	var model ScanRecordModel
	err := r.db.WithContext(ctx).
		Where("record_id = ?", id).
		Order("seq DESC").
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ScanRecord{}, domain.ErrNotFound
		}
		return domain.ScanRecord{}, fmt.Errorf("get scan record: %w", err)
	}
	return toDomainScanRecord(model), nil
}

func toDomainScanRecord(m ScanRecordModel) domain.ScanRecord {
	rec := domain.ScanRecord{
		ID:        m.RecordID,
		CreatedAt: m.CreatedAt,
		Payload:   json.RawMessage(copyBytes(m.Payload)),
		Status:    m.Status,
	}
	if len(m.LastResponse) > 0 {
		rec.LastYakoaResponse = json.RawMessage(copyBytes(m.LastResponse))
	}
	return rec
}
