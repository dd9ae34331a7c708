package model

import "time"

// StateEntry is one key of durable reviewer state when the database backend is used.
type StateEntry struct {
	Key       string    `gorm:"primaryKey;size:191" json:"key"`
	Value     string    `gorm:"type:longtext;not null" json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (StateEntry) TableName() string {
	return "state_entries"
}
