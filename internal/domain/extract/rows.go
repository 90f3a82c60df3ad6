package extract

// Extract names. They are part of the output file names and must not change.
const (
	NameAssignees        = "original_assignees"
	NameDetails          = "details"
	NameStatus           = "status"
	NameFieldsOfResearch = "for_2020"
	NameCitations        = "times_cited"
)

// Column allow-lists. Assignee acronym, linkout and state_name never appear.
var (
	AssigneeColumns = []string{"patent_id", "id", "name", "city_name", "country_name", "country_code", "type"}
	DetailColumns   = []string{"patent_id", "title", "inventor_names"}
	StatusColumns   = []string{
		"patent_id", "jurisdiction", "legal_status", "filing_status", "filing_date",
		"priority_date", "publication_date", "expiration_date", "granted_date",
	}
	ForColumns      = []string{"patent_id", "for_2020_code", "for_2020_name"}
	CitationColumns = []string{"patent_id", "times_cited"}
)

// Spec describes one extract: its name, ordered columns and the columns that
// hold integers. Every other column holds strings.
type Spec struct {
	Name     string
	Columns  []string
	Integers []string `json:",omitempty"`
}

// Integer reports whether col holds integers.
func (s Spec) Integer(col string) bool {
	for _, c := range s.Integers {
		if c == col {
			return true
		}
	}
	return false
}

var catalog = []Spec{
	{Name: NameAssignees, Columns: AssigneeColumns},
	{Name: NameDetails, Columns: DetailColumns},
	{Name: NameStatus, Columns: StatusColumns},
	{Name: NameFieldsOfResearch, Columns: ForColumns},
	{Name: NameCitations, Columns: CitationColumns, Integers: []string{"times_cited"}},
}

// Catalog returns the five extracts in output order.
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// Names returns the extract names in output order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, s := range catalog {
		names[i] = s.Name
	}
	return names
}

// Lookup returns the Spec for name.
func Lookup(name string) (Spec, error) {
	for _, s := range catalog {
		if s.Name == name {
			return s, nil
		}
	}
	return Spec{}, &UnknownExtractError{Name: name}
}

// ─────────────────────────────────────────────────────────────────────────────
// Row types
// ─────────────────────────────────────────────────────────────────────────────

// AssigneeRow is one (patent, assignee, type) combination. Type is nil when
// the assignee has no types.
type AssigneeRow struct {
	PatentID    string
	ID          string
	Name        string
	CityName    string
	CountryName string
	CountryCode string
	Type        *string
}

func (r AssigneeRow) Values() []any {
	var typ any
	if r.Type != nil {
		typ = *r.Type
	}
	return []any{r.PatentID, r.ID, r.Name, r.CityName, r.CountryName, r.CountryCode, typ}
}

// DetailRow carries the title and the flattened inventor list.
type DetailRow struct {
	PatentID      string
	Title         string
	InventorNames string
}

func (r DetailRow) Values() []any {
	return []any{r.PatentID, r.Title, r.InventorNames}
}

// StatusRow projects the legal status and lifecycle dates of a patent.
type StatusRow struct {
	PatentID        string
	Jurisdiction    string
	LegalStatus     string
	FilingStatus    string
	FilingDate      string
	PriorityDate    string
	PublicationDate string
	ExpirationDate  string
	GrantedDate     string
}

func (r StatusRow) Values() []any {
	return []any{
		r.PatentID, r.Jurisdiction, r.LegalStatus, r.FilingStatus, r.FilingDate,
		r.PriorityDate, r.PublicationDate, r.ExpirationDate, r.GrantedDate,
	}
}

// ForRow is one Fields of Research (2020) classification of a patent.
type ForRow struct {
	PatentID string
	Code     string
	Name     string
}

func (r ForRow) Values() []any {
	return []any{r.PatentID, r.Code, r.Name}
}

// CitationRow carries the citation count. TimesCited is nil when the API
// omitted it.
type CitationRow struct {
	PatentID   string
	TimesCited *int
}

func (r CitationRow) Values() []any {
	if r.TimesCited == nil {
		return []any{r.PatentID, nil}
	}
	return []any{r.PatentID, *r.TimesCited}
}

//Personal.AI order the ending
