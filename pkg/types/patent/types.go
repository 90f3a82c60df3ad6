package patent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// PatentID is a string alias for a Dimensions patent identifier.
type PatentID string

// Jurisdiction identifies the issuing patent office ("US", "EP", "WO", ...).
type Jurisdiction string

// FlexID is an identifier that the Dimensions API returns either as a JSON
// string or as a JSON number depending on the entity.
type FlexID string

// UnmarshalJSON accepts strings, numbers and null.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("patent: id %s is neither string nor number: %w", data, err)
	}
	*f = FlexID(n.String())
	return nil
}

// MarshalJSON renders numeric ids as numbers and everything else as strings.
func (f FlexID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(f), 10, 64); err == nil {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}

// ─────────────────────────────────────────────────────────────────────────────
// Raw records
// ─────────────────────────────────────────────────────────────────────────────

// Assignee is one entry of a patent's original_assignees list.
type Assignee struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Acronym     string   `json:"acronym,omitempty"`
	Linkout     []string `json:"linkout,omitempty"`
	StateName   string   `json:"state_name,omitempty"`
	CityName    string   `json:"city_name,omitempty"`
	CountryName string   `json:"country_name,omitempty"`
	CountryCode string   `json:"country_code,omitempty"`
	Types       []string `json:"types,omitempty"`
}

// Category is one Fields of Research (2020) classification. Name has the form
// "<code> <description>", e.g. "3104 Medicinal and Biomolecular Chemistry".
type Category struct {
	ID   FlexID `json:"id,omitempty"`
	Name string `json:"name"`
}

// Record is a single patent as returned by the Dimensions DSL. The id field is
// the join key for every derived extract and must be non-empty.
type Record struct {
	ID                PatentID     `json:"id"`
	Title             string       `json:"title,omitempty"`
	OriginalAssignees []Assignee   `json:"original_assignees,omitempty"`
	InventorNames     []string     `json:"inventor_names,omitempty"`
	CategoryFor2020   []Category   `json:"category_for_2020,omitempty"`
	TimesCited        *int         `json:"times_cited,omitempty"`
	Jurisdiction      Jurisdiction `json:"jurisdiction,omitempty"`
	LegalStatus       string       `json:"legal_status,omitempty"`
	FilingStatus      string       `json:"filing_status,omitempty"`
	FilingDate        string       `json:"filing_date,omitempty"`
	PriorityDate      string       `json:"priority_date,omitempty"`
	PublicationDate   string       `json:"publication_date,omitempty"`
	ExpirationDate    string       `json:"expiration_date,omitempty"`
	GrantedDate       string       `json:"granted_date,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Query results
// ─────────────────────────────────────────────────────────────────────────────

// Stats mirrors the "_stats" object of a DSL response.
type Stats struct {
	TotalCount int `json:"total_count"`
	Limit      int `json:"limit,omitempty"`
	Offset     int `json:"offset,omitempty"`
}

// QueryResult is the decoded body of a "search patents ... return patents" query.
type QueryResult struct {
	Patents []Record `json:"patents"`
	Stats   Stats    `json:"_stats"`
}

// Truncated reports whether the server matched more patents than it returned.
func (r *QueryResult) Truncated() bool {
	if r == nil {
		return false
	}
	return r.Stats.TotalCount > len(r.Patents)
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

//Personal.AI order the ending
