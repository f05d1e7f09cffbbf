// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: AdminLogEntry
package model

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// AdminLogEntry представляет запись журнала действий администратора
type AdminLogEntry struct {
	bun.BaseModel `bun:"table:admin_logs"`

	ID        int64           `bun:"id,pk" json:"id"`
	Timestamp time.Time       `bun:"timestamp,notnull" json:"timestamp"`
	Admin     string          `bun:"admin,notnull" json:"admin"`
	Action    Action          `bun:"action,notnull" json:"action"`
	Details   string          `bun:"details" json:"details"`
	Before    json.RawMessage `bun:"before,type:jsonb,nullzero" json:"before,omitempty"`
	After     json.RawMessage `bun:"after,type:jsonb,nullzero" json:"after,omitempty"`
}
