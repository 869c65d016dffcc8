package entity

import "time"

type TenderStatus string

const (
	TenderDraft   TenderStatus = "draft"
	TenderOpen    TenderStatus = "open"
	TenderClosed  TenderStatus = "closed"
	TenderAwarded TenderStatus = "awarded"
)

// TenderCategories lists the categories a tender can be filed under.
var TenderCategories = []string{
	"construction",
	"consulting",
	"design",
	"it",
	"logistics",
	"maintenance",
	"supplies",
	"other",
}

type Tender struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Budget      float64      `json:"budget"`
	Location    string       `json:"location"`
	Deadline    time.Time    `json:"deadline"`
	Image       string       `json:"image,omitempty"`
	Status      TenderStatus `json:"status"`
	OwnerID     string       `json:"ownerId,omitempty"`
}

// TenderUpdate is the body of an update call. It reopens the tender with the
// edited fields.
type TenderUpdate struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Budget      float64      `json:"budget"`
	Location    string       `json:"location"`
	Deadline    time.Time    `json:"deadline"`
	Image       string       `json:"image,omitempty"`
	Status      TenderStatus `json:"status"`
}
