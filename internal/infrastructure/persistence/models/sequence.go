package models

import "time"

// DocumentSequenceModel holds the last number handed out for a scope such as INV-202501
type DocumentSequenceModel struct {
	Scope     string `gorm:"type:varchar(50);primaryKey"`
	LastValue int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}
