package model

import "time"

// MigrationVersion records each schema version applied to the database
type MigrationVersion struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Version   string    `gorm:"type:varchar(20);not null;uniqueIndex"`
	Details   string    `gorm:"type:text"`
	AppliedAt time.Time `gorm:"not null;index"`
}

// TableName specifies the table name for the migration version model
func (MigrationVersion) TableName() string {
	return "schema_versions"
}
