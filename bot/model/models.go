package model

import "time"

type ID = int64

// Role is the user's current persona.
type Role string

const (
	RoleNone   Role = ""
	RoleClient Role = "client"
	RoleMaster Role = "master"
)

type UserStatus string

const UserActive UserStatus = "active"

type User struct {
	ID             int64      `json:"id" db:"user_id"`
	Username       *string    `json:"username,omitempty" db:"telegram_username"`
	RegisteredAt   time.Time  `json:"registeredAt" db:"registration_date"`
	Status         UserStatus `json:"status" db:"status"`
	ComplaintCount int        `json:"complaintCount" db:"complaint_count"`
	Role           Role       `json:"role" db:"current_role"`
}

type TaskStatus string

const TaskOpen TaskStatus = "open"

type ClientTask struct {
	ID          ID         `json:"id" db:"task_id"`
	OwnerID     int64      `json:"ownerId" db:"user_id"`
	Description string     `json:"description" db:"task_description"`
	PhotoID     *string    `json:"photoId,omitempty" db:"task_photo_id"`
	Location    string     `json:"location" db:"location"`
	Status      TaskStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"createdAt" db:"creation_date"`
}

type MasterProfile struct {
	ID          ID      `json:"id" db:"profile_id"`
	UserID      int64   `json:"userId" db:"user_id"`
	Name        string  `json:"name" db:"name"`
	PhotoID     *string `json:"photoId,omitempty" db:"profile_photo_id"`
	Skills      string  `json:"skills" db:"skills_description"`
	ServiceArea string  `json:"serviceArea" db:"service_area"`
	Active      bool    `json:"active" db:"is_active"`
}

// Offer is a master's response to a task. Unique per (task, master).
type Offer struct {
	ID           ID        `json:"id" db:"offer_id"`
	TaskID       ID        `json:"taskId" db:"task_id"`
	MasterUserID int64     `json:"masterUserId" db:"master_user_id"`
	Price        string    `json:"price" db:"offer_price"`
	Message      string    `json:"message" db:"offer_message"`
	CreatedAt    time.Time `json:"createdAt" db:"creation_date"`
}

type Advertisement struct {
	ID           ID        `json:"id" db:"ad_id"`
	Text         string    `json:"text" db:"ad_text"`
	PhotoID      *string   `json:"photoId,omitempty" db:"photo_id"`
	ButtonText   *string   `json:"buttonText,omitempty" db:"button_text"`
	ButtonURL    *string   `json:"buttonUrl,omitempty" db:"button_url"`
	TargetViews  int       `json:"targetViews" db:"target_views"`
	CurrentViews int       `json:"currentViews" db:"current_views"`
	Active       bool      `json:"active" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"creation_date"`
}

// Eligible reports whether the ad may still be shown.
func (a Advertisement) Eligible() bool {
	return a.Active && a.CurrentViews < a.TargetViews
}

// HasButton reports whether both button text and URL are set.
func (a Advertisement) HasButton() bool {
	return a.ButtonText != nil && *a.ButtonText != "" && a.ButtonURL != nil && *a.ButtonURL != ""
}
