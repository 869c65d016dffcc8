package entity

import (
	"net/http"

	"tenderdesk/internal/lib/validate"
)

// Answer is a reply to a question asked on a tender.
type Answer struct {
	Body string `json:"answer" validate:"required,max=2000"`
}

func (a *Answer) Bind(_ *http.Request) error {
	return validate.Struct(a)
}

// ContactCheck is the result of scanning a text for contact details.
type ContactCheck struct {
	Allowed    bool        `json:"allowed"`
	Message    string      `json:"message,omitempty"`
	Detections []Detection `json:"detections"`
}

type Detection struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Match    string `json:"match"`
}
