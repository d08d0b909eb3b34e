package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status values.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run represents a crawl run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Job         string     `json:"job"`
	OutputPath  string     `json:"output_path"`
	Status      string     `json:"status"`
	Records     int        `json:"records"`
	FailedTasks int        `json:"failed_tasks"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Ingredient is a row of the ingredients table.
type Ingredient struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	EnergyKcal *float64  `json:"energy_kcal,omitempty"`
	ProteinG   *float64  `json:"protein_g,omitempty"`
	FatG       *float64  `json:"fat_g,omitempty"`
	CarbG      *float64  `json:"carb_g,omitempty"`
	FiberG     *float64  `json:"fiber_g,omitempty"`
	CalciumMg  *float64  `json:"calcium_mg,omitempty"`
	SodiumMg   *float64  `json:"sodium_mg,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
