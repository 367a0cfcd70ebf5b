package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Vote struct {
	ID          uuid.UUID
	TokenID     uuid.UUID
	CandidateID uuid.UUID
	IPAddress   string
	CreatedAt   time.Time
}

// Aggregated row of the vote_results view
type VoteCount struct {
	CandidateID uuid.UUID
	Name        string
	PhotoURL    *string
	OrderNumber int
	Votes       int
}

type VoteResult struct {
	VoteCount
	Percentage decimal.Decimal
}

// Results ready to display: sorted rows and total of votes they were computed from
type Tally struct {
	Results []VoteResult
	Total   int
}
