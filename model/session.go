package model

import "time"

// Session is one negotiation between a company and an investor over a set
// of clauses. Personas are snapshotted at creation and owned by the caller.
type Session struct {
	ID     string `json:"id"`
	Tenant string `json:"tenant"`
	Name   string `json:"name"`
	Stage  string `json:"stage"`  // e.g. pre-seed, seed, series-a
	Region string `json:"region"` // e.g. us, eu

	// Clauses restricts the negotiation to a subset of the clause catalog.
	// Empty means every catalog clause is on the table.
	Clauses []string `json:"clauses,omitempty"`

	CompanyPersona  Persona `json:"company_persona"`
	InvestorPersona Persona `json:"investor_persona"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
