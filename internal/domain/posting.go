// internal/domain/posting.go
package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// JobPosting is a job listing as owned by the backend. A posting without an ID
// is a draft and has never been persisted.
type JobPosting struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	SalaryFrom  *float64   `json:"salaryFrom"`
	SalaryTo    *float64   `json:"salaryTo"`
	Active      bool       `json:"active"`
	PostedAt    *time.Time `json:"postedAt,omitempty"`
}

// IsDraft reports whether the posting has not been persisted yet.
func (p *JobPosting) IsDraft() bool {
	return p.ID == ""
}

// UnmarshalJSON accepts both "active" and "isActive" and defaults the flag to
// true when neither is present.
func (p *JobPosting) UnmarshalJSON(data []byte) error {
	type alias JobPosting
	aux := struct {
		*alias
		Active   *bool `json:"active"`
		IsActive *bool `json:"isActive"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Active = pickActive(aux.Active, aux.IsActive)
	return nil
}

// Draft is the set of mutable posting fields sent on create and update.
// Absent salaries are encoded as null.
type Draft struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	SalaryFrom  *float64 `json:"salaryFrom"`
	SalaryTo    *float64 `json:"salaryTo"`
	Active      bool     `json:"isActive"`
}

// UnmarshalJSON mirrors JobPosting: either flag name is accepted, default true.
func (d *Draft) UnmarshalJSON(data []byte) error {
	type alias Draft
	aux := struct {
		*alias
		Active   *bool `json:"active"`
		IsActive *bool `json:"isActive"`
	}{alias: (*alias)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.Active = pickActive(aux.IsActive, aux.Active)
	return nil
}

// DraftOf copies the mutable fields of p.
func DraftOf(p JobPosting) Draft {
	return Draft{
		Title:       p.Title,
		Company:     p.Company,
		Location:    p.Location,
		Description: p.Description,
		SalaryFrom:  p.SalaryFrom,
		SalaryTo:    p.SalaryTo,
		Active:      p.Active,
	}
}

// Apply replaces every mutable field of p with the draft's values.
func (d Draft) Apply(p *JobPosting) {
	p.Title = d.Title
	p.Company = d.Company
	p.Location = d.Location
	p.Description = d.Description
	p.SalaryFrom = d.SalaryFrom
	p.SalaryTo = d.SalaryTo
	p.Active = d.Active
}

// FormatSalary renders an optional salary the way an input field shows it:
// empty when absent, shortest decimal form otherwise.
func FormatSalary(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func pickActive(first, second *bool) bool {
	switch {
	case first != nil:
		return *first
	case second != nil:
		return *second
	default:
		return true
	}
}
