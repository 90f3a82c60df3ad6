package testutil

import (
	"github.com/turtacn/dimpat/pkg/types/patent"
)

// SampleRecords returns three patents covering the shapes the extracts care
// about: multi-type assignees, an assignee without types, an empty assignee
// list, a single-token category and a missing citation count.
func SampleRecords() []patent.Record {
	return []patent.Record{
		{
			ID:    "US-2019000001-A1",
			Title: "Method of making a widget",
			OriginalAssignees: []patent.Assignee{
				{
					ID: "grid.6268.a", Name: "University of Bradford", Acronym: "UoB",
					Linkout: []string{"http://www.bradford.ac.uk/"}, StateName: "England",
					CityName: "Bradford", CountryName: "United Kingdom", CountryCode: "GB",
					Types: []string{"Education", "Facility"},
				},
			},
			InventorNames:   []string{"jane doe", "J. Smith"},
			CategoryFor2020: []patent.Category{{ID: "80003", Name: "3104 Medicinal and Biomolecular Chemistry"}},
			TimesCited:      patent.IntPtr(5),
			Jurisdiction:    "US",
			LegalStatus:     "Pending",
			FilingStatus:    "Application",
			FilingDate:      "2018-06-01",
			PriorityDate:    "2017-06-01",
			PublicationDate: "2019-01-03",
		},
		{
			ID:    "EP-3000000-B1",
			Title: "Sensor array",
			OriginalAssignees: []patent.Assignee{
				{ID: "grid.6268.a", Name: "University of Bradford"},
				{ID: "grid.999.x", Name: "Acme Ltd", Types: []string{"Company"}},
			},
			InventorNames: []string{"ALICE O BRIEN"},
			CategoryFor2020: []patent.Category{
				{ID: "80040", Name: "40 Engineering"},
				{ID: "80099", Name: "4009"},
			},
			Jurisdiction:   "EP",
			LegalStatus:    "Granted",
			FilingStatus:   "Grant",
			FilingDate:     "2015-02-11",
			GrantedDate:    "2019-09-18",
			ExpirationDate: "2035-02-11",
		},
		{
			ID:                "WO-2020123456-A1",
			Title:             "Untitled",
			OriginalAssignees: []patent.Assignee{},
			TimesCited:        patent.IntPtr(0),
			Jurisdiction:      "WO",
		},
	}
}

//Personal.AI order the ending
