package db

// ScanRecordModel keeps a surrogate sequence so that duplicate record ids
// keep their append order.
type ScanRecordModel struct {
	Seq          int64  `gorm:"column:seq;primaryKey;autoIncrement"`
	RecordID     string `gorm:"column:record_id;index;not null"`
	CreatedAt    int64  `gorm:"column:created_at;autoCreateTime:milli;not null"`
	Payload      []byte `gorm:"column:payload;type:jsonb;not null"`
	Status       string `gorm:"column:status;not null"`
	LastResponse []byte `gorm:"column:last_response;type:jsonb"`
}

func (ScanRecordModel) TableName() string {
	return "scan_records"
}
