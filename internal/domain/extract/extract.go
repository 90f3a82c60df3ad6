package extract

import (
	"strings"

	"github.com/turtacn/dimpat/pkg/types/patent"
)

// ValidateKeys returns a MissingKeyError for the first record without an id.
func ValidateKeys(records []patent.Record) error {
	for i, r := range records {
		if strings.TrimSpace(string(r.ID)) == "" {
			return &MissingKeyError{Index: i}
		}
	}
	return nil
}

// MalformedCategories lists every category_for_2020 entry whose name is empty.
func MalformedCategories(records []patent.Record) []*MalformedCategoryError {
	var out []*MalformedCategoryError
	for _, r := range records {
		for i, c := range r.CategoryFor2020 {
			if strings.TrimSpace(c.Name) == "" {
				out = append(out, &MalformedCategoryError{PatentID: string(r.ID), Index: i, Name: c.Name})
			}
		}
	}
	return out
}

// Assignees explodes original_assignees and then each assignee's types.
// A patent with no assignees yields no rows; an assignee with no types yields
// a single row with a nil Type.
func Assignees(records []patent.Record) ([]AssigneeRow, error) {
	if err := ValidateKeys(records); err != nil {
		return nil, err
	}
	type pending struct {
		row   AssigneeRow
		types []string
	}
	perAssignee := explode(records,
		func(r patent.Record) []patent.Assignee { return r.OriginalAssignees },
		func(r patent.Record, _ int, a patent.Assignee) pending {
			return pending{
				row: AssigneeRow{
					PatentID:    string(r.ID),
					ID:          a.ID,
					Name:        a.Name,
					CityName:    a.CityName,
					CountryName: a.CountryName,
					CountryCode: a.CountryCode,
				},
				types: a.Types,
			}
		})

	rows := make([]AssigneeRow, 0, len(perAssignee))
	for _, p := range perAssignee {
		if len(p.types) == 0 {
			rows = append(rows, p.row)
			continue
		}
		for _, t := range p.types {
			t := t
			r := p.row
			r.Type = &t
			rows = append(rows, r)
		}
	}
	return rows, nil
}

// Details returns one row per record with the formatted inventor names.
func Details(records []patent.Record) ([]DetailRow, error) {
	if err := ValidateKeys(records); err != nil {
		return nil, err
	}
	rows := make([]DetailRow, len(records))
	for i, r := range records {
		rows[i] = DetailRow{
			PatentID:      string(r.ID),
			Title:         r.Title,
			InventorNames: FormatInventorNames(r.InventorNames),
		}
	}
	return rows, nil
}

// Status projects the jurisdiction, legal status and date fields.
func Status(records []patent.Record) ([]StatusRow, error) {
	if err := ValidateKeys(records); err != nil {
		return nil, err
	}
	rows := make([]StatusRow, len(records))
	for i, r := range records {
		rows[i] = StatusRow{
			PatentID:        string(r.ID),
			Jurisdiction:    string(r.Jurisdiction),
			LegalStatus:     r.LegalStatus,
			FilingStatus:    r.FilingStatus,
			FilingDate:      r.FilingDate,
			PriorityDate:    r.PriorityDate,
			PublicationDate: r.PublicationDate,
			ExpirationDate:  r.ExpirationDate,
			GrantedDate:     r.GrantedDate,
		}
	}
	return rows, nil
}

// FieldsOfResearch explodes category_for_2020 into code/name rows. The
// category id is not carried.
func FieldsOfResearch(records []patent.Record) ([]ForRow, error) {
	if err := ValidateKeys(records); err != nil {
		return nil, err
	}
	rows := explode(records,
		func(r patent.Record) []patent.Category { return r.CategoryFor2020 },
		func(r patent.Record, _ int, c patent.Category) ForRow {
			code, name := SplitCategoryName(c.Name)
			return ForRow{PatentID: string(r.ID), Code: code, Name: name}
		})
	return rows, nil
}

// Citations projects times_cited.
func Citations(records []patent.Record) ([]CitationRow, error) {
	if err := ValidateKeys(records); err != nil {
		return nil, err
	}
	rows := make([]CitationRow, len(records))
	for i, r := range records {
		var cited *int
		if r.TimesCited != nil {
			v := *r.TimesCited
			cited = &v
		}
		rows[i] = CitationRow{PatentID: string(r.ID), TimesCited: cited}
	}
	return rows, nil
}

//Personal.AI order the ending
