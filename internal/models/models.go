// Package models defines the data structures used across the application.
// These map to the PostgreSQL schema in schema.sql.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies what an authenticated principal is allowed to do.
// Roles are assigned at provisioning time and never change.
type Role string

const (
	RoleUser       Role = "user"
	RoleManagement Role = "management"
	RoleWorker     Role = "worker"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManagement, RoleWorker:
		return true
	}
	return false
}

// Status is the report lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
)

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// WasteType categorizes the reported waste.
type WasteType string

const (
	WasteHousehold    WasteType = "household"
	WasteConstruction WasteType = "construction"
	WasteGreen        WasteType = "green"
	WasteElectronic   WasteType = "electronic"
	WasteHazardous    WasteType = "hazardous"
	WasteOther        WasteType = "other"
)

// Valid reports whether w is a known waste type.
func (w WasteType) Valid() bool {
	switch w {
	case WasteHousehold, WasteConstruction, WasteGreen, WasteElectronic, WasteHazardous, WasteOther:
		return true
	}
	return false
}

// Account represents an authenticated principal: a citizen, a management
// staff member, or a cleanup worker.
type Account struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	Role         Role      `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Principal is the acting identity attached to each request after the
// role lookup. It is passed explicitly; there is no ambient session state.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

// WasteReport is the central entity: one citizen-submitted record of
// observed waste, carried through the cleanup lifecycle.
type WasteReport struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ReporterID uuid.UUID `json:"reporter_id" db:"reporter_id"`

	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	WasteType   WasteType `json:"waste_type" db:"waste_type"`
	ImageURL    string    `json:"image_url" db:"image_url"`

	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	Address   string  `json:"address,omitempty" db:"address"`

	Status   Status     `json:"status" db:"status"`
	WorkerID *uuid.UUID `json:"worker_id,omitempty" db:"worker_id"`

	ManagementNotes string  `json:"management_notes,omitempty" db:"management_notes"`
	WorkerNotes     string  `json:"worker_notes,omitempty" db:"worker_notes"`
	CleanedImageURL *string `json:"cleaned_image_url,omitempty" db:"cleaned_image_url"`

	Rating       *int       `json:"rating,omitempty" db:"rating"`
	FeedbackText *string    `json:"feedback_text,omitempty" db:"feedback_text"`
	FeedbackDate *time.Time `json:"feedback_date,omitempty" db:"feedback_date"`

	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	AssignedDate *time.Time `json:"assigned_date,omitempty" db:"assigned_date"`
	StartedAt    *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`

	// Version backs optimistic concurrency: every update is conditional
	// on the version that was read and increments it by one.
	Version int `json:"version" db:"version"`
}

// CreateReportRequest is the request body for submitting a new report.
type CreateReportRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	WasteType   WasteType `json:"waste_type"`
	ImageURL    string    `json:"image_url"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
}

// UpdateReportRequest is the request body for a lifecycle change set.
// Nil pointers mean "leave unchanged"; ClearWorker unassigns explicitly.
type UpdateReportRequest struct {
	Status          *Status    `json:"status,omitempty"`
	WorkerID        *uuid.UUID `json:"worker_id,omitempty"`
	ClearWorker     bool       `json:"clear_worker,omitempty"`
	ManagementNotes *string    `json:"management_notes,omitempty"`
	WorkerNotes     *string    `json:"worker_notes,omitempty"`
	CleanedImageURL *string    `json:"cleaned_image_url,omitempty"`
}

// FeedbackRequest is the request body for the one-time citizen rating.
type FeedbackRequest struct {
	Rating       int    `json:"rating"`
	FeedbackText string `json:"feedback_text,omitempty"`
}

// RegisterRequest is the request body for citizen signup.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest is the request body for credential login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateWorkerRequest is the request body for management provisioning a
// worker account.
type CreateWorkerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// WorkerStats summarizes one worker's task load for the management view.
type WorkerStats struct {
	Assigned   int `json:"assigned"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// HealthStatus represents the server health check response
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database,omitempty"`
}
