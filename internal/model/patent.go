// Package model defines the firm and patent records shared by the registry,
// the applicant workflow, and the analytics layer.
package model

import (
	"strings"
	"unicode/utf8"
)

// ApplicationStatus is the verdict/attempt pair carried by a patent
// application. It is a value: transitions return a new status.
type ApplicationStatus struct {
	Decided  bool `json:"decided" yaml:"decided"`   // acceptance verdict
	Attempts int  `json:"attempts" yaml:"attempts"` // automatic rejections so far
}

// Patent is a patent record (or a pending application for one) owned by a firm.
type Patent struct {
	PatentID        string            `json:"patent_id" yaml:"patent_id"`
	Title           string            `json:"title" yaml:"title"`
	Country         string            `json:"country,omitempty" yaml:"country,omitempty"`
	FirmID          string            `json:"firm_id" yaml:"firm_id"`
	ApplicationDate string            `json:"application_date,omitempty" yaml:"application_date,omitempty"`
	GrantDate       string            `json:"grant_date,omitempty" yaml:"grant_date,omitempty"`
	Status          ApplicationStatus `json:"status" yaml:"status"`
}

// WithStatus returns a copy of p carrying the given status.
func (p Patent) WithStatus(decided bool, attempts int) Patent {
	p.Status = ApplicationStatus{Decided: decided, Attempts: attempts}
	return p
}

// WithFirm returns a copy of p owned by firmID.
func (p Patent) WithFirm(firmID string) Patent {
	p.FirmID = firmID
	return p
}

// Granted returns a copy of p stamped with the grant date and an accepted verdict.
func (p Patent) Granted(date string) Patent {
	p.GrantDate = date
	p.Status.Decided = true
	return p
}

// ShortTitle truncates long titles for table output.
func (p Patent) ShortTitle(width int) string {
	if width <= 3 || utf8.RuneCountInString(p.Title) <= width {
		return p.Title
	}
	runes := []rune(p.Title)
	return strings.TrimSpace(string(runes[:width-3])) + "..."
}
