package domain

import (
	"time"

	"github.com/google/uuid"
)

type CaseType string

const (
	CaseChapter7  CaseType = "Chapter 7"
	CaseChapter13 CaseType = "Chapter 13"
)

type MaritalStatus string

const (
	MaritalSingle    MaritalStatus = "single"
	MaritalMarried   MaritalStatus = "married"
	MaritalDivorced  MaritalStatus = "divorced"
	MaritalSeparated MaritalStatus = "separated"
	MaritalWidowed   MaritalStatus = "widowed"
)

type Dependent struct {
	Name         string `json:"name"`
	Age          string `json:"age"`
	AgeYears     *int   `json:"age_years,omitempty"`
	Relationship string `json:"relationship"`
}

type Asset struct {
	Item   string   `json:"item"`
	Value  string   `json:"value"`
	Amount *float64 `json:"amount,omitempty"`
}

type Debt struct {
	Creditor string   `json:"creditor"`
	Amount   string   `json:"amount"`
	Balance  *float64 `json:"balance,omitempty"`
	Type     string   `json:"type"`
}

// PetitionData is everything the interview collects. It is written to
// complete_bankruptcy_data.json when the interview finishes.
type PetitionData struct {
	SessionID         string      `json:"session_id"`
	CaseType          CaseType    `json:"case_type,omitempty"`
	Name              string      `json:"name,omitempty"`
	DOB               string      `json:"dob,omitempty"`
	Address           string      `json:"address,omitempty"`
	ZipCode           string      `json:"zip_code,omitempty"`
	Phone             string      `json:"phone,omitempty"`
	Email             string      `json:"email,omitempty"`
	MaritalStatus     string      `json:"marital_status,omitempty"`
	Dependents        []Dependent `json:"dependents"`
	Employer          string      `json:"employer,omitempty"`
	GrossIncomeLast6M string      `json:"gross_income_last_6m,omitempty"`
	MonthlyIncome     *float64    `json:"monthly_income,omitempty"`
	SideIncome        string      `json:"side_income,omitempty"`
	Assets            []Asset     `json:"assets"`
	Liabilities       []Debt      `json:"liabilities"`
	Skipped           []string    `json:"skipped,omitempty"`
	StartedAt         time.Time   `json:"started_at"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty"`
}

func NewPetitionData() *PetitionData {
	return &PetitionData{
		SessionID:   uuid.NewString(),
		Dependents:  []Dependent{},
		Assets:      []Asset{},
		Liabilities: []Debt{},
		StartedAt:   time.Now().UTC(),
	}
}

// Reset clears collected answers but keeps the session identity.
func (p *PetitionData) Reset() {
	id, started := p.SessionID, p.StartedAt
	*p = PetitionData{
		SessionID:   id,
		Dependents:  []Dependent{},
		Assets:      []Asset{},
		Liabilities: []Debt{},
		StartedAt:   started,
	}
}

// Clone returns a deep copy.
func (p *PetitionData) Clone() *PetitionData {
	c := *p
	c.Dependents = make([]Dependent, len(p.Dependents))
	for i, d := range p.Dependents {
		d.AgeYears = clonePtr(d.AgeYears)
		c.Dependents[i] = d
	}
	c.Assets = make([]Asset, len(p.Assets))
	for i, a := range p.Assets {
		a.Amount = clonePtr(a.Amount)
		c.Assets[i] = a
	}
	c.Liabilities = make([]Debt, len(p.Liabilities))
	for i, d := range p.Liabilities {
		d.Balance = clonePtr(d.Balance)
		c.Liabilities[i] = d
	}
	c.Skipped = append([]string(nil), p.Skipped...)
	c.MonthlyIncome = clonePtr(p.MonthlyIncome)
	c.CompletedAt = clonePtr(p.CompletedAt)
	return &c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func (p *PetitionData) MarkSkipped(field string) {
	for _, f := range p.Skipped {
		if f == field {
			return
		}
	}
	p.Skipped = append(p.Skipped, field)
}

func (p *PetitionData) Complete(at time.Time) {
	t := at.UTC()
	p.CompletedAt = &t
}

// Snapshot is the resumable state of an interview.
type Snapshot struct {
	ID         string        `json:"id"`
	SessionKey string        `json:"session_key"`
	Step       int           `json:"step"`
	Data       *PetitionData `json:"data"`
	SavedAt    time.Time     `json:"saved_at"`
}
