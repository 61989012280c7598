// internal/models/audit.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AuditLog records one mutating admin request.
type AuditLog struct {
	BaseModel
	UserID        *uuid.UUID     `json:"user_id" gorm:"type:uuid;index"`
	Action        string         `json:"action" gorm:"size:255;not null"`
	ResourceType  string         `json:"resource_type" gorm:"size:50;index"`
	ResourceID    string         `json:"resource_id" gorm:"size:64;index"`
	IPAddress     string         `json:"ip_address" gorm:"size:64"`
	UserAgent     string         `json:"user_agent" gorm:"size:512"`
	ChangedFields pq.StringArray `json:"changed_fields" gorm:"type:text[]"`
	StatusCode    int            `json:"status_code"`
}
