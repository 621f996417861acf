package models

import "time"

// Task is a schedulable unit of construction work.
type Task struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Sheet        string    `gorm:"size:32;not null;index" json:"sheet"`
	Job          *string   `gorm:"size:256" json:"job"`
	Phase        *string   `gorm:"size:128" json:"phase"`
	Crew         *string   `gorm:"size:128;index" json:"crew"`
	Description  *string   `gorm:"type:text" json:"description"`
	Status       *string   `gorm:"size:8;default:S;index" json:"status"`
	Weeks        *float64  `json:"weeks"`
	StartDate    *string   `gorm:"size:32" json:"start_date"`
	EndDate      *string   `gorm:"size:32" json:"end_date"`
	DailyRevenue *float64  `json:"daily_revenue"`
	CreatedBy    *string   `gorm:"size:64" json:"created_by"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
