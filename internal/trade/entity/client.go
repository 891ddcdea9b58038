package entity

import (
	"time"
)

// ClientStatus 客户状态
const (
	ClientStatusActive   = "ACTIVE"
	ClientStatusInactive = "INACTIVE"
)

// Client 客户
type Client struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	ClientCode  string     `json:"client_code" gorm:"size:50;not null;uniqueIndex"`
	Name        string     `json:"name" gorm:"size:128;not null"`
	ContactName string     `json:"contact_name" gorm:"size:64"`
	Phone       string     `json:"phone" gorm:"size:32"`
	Email       string     `json:"email" gorm:"size:128"`
	Address     string     `json:"address" gorm:"size:500"`
	Status      string     `json:"status" gorm:"size:20;not null;default:ACTIVE"`
	Notes       string     `json:"notes" gorm:"type:text"`
	CreatedBy   string     `json:"created_by" gorm:"size:64"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at" gorm:"index"`
}

func (Client) TableName() string {
	return "trade_clients"
}
