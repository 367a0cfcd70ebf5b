package models

import (
	"time"

	"github.com/google/uuid"
)

type Candidate struct {
	ID          uuid.UUID
	Name        string
	PhotoURL    *string
	Vision      string
	Mission     []string
	OrderNumber int
	ClassName   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
