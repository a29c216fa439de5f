package model

import (
	"time"

	"github.com/secmon-lab/vigia/pkg/domain/types"
)

// SeedIncidents returns the demonstration records loaded on first start,
// in list order (newest first)
func SeedIncidents() []*Incident {
	return []*Incident{
		{
			ID:               "1",
			Date:             "2025-04-08",
			Airline:          "Example Airlines",
			DepartureAirport: "JFK",
			ArrivingAirport:  "LAX",
			Incident:         "Flight delay due to mechanical issues",
			Investigation:    "Initial inspection revealed fuel system problem",
			Attachments: []Attachment{
				{ID: "1-0", Name: "report.pdf", URL: "#", Type: types.AttachmentTypePDF},
			},
			Status:    types.IncidentStatusPreliminary,
			CreatedAt: time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:               "2",
			Date:             "2025-04-06",
			Airline:          "Sky Express",
			DepartureAirport: "ATL",
			ArrivingAirport:  "ORD",
			Incident:         "Cargo loading issue",
			Investigation:    "Weight distribution error in loading manifest",
			Attachments:      []Attachment{},
			Status:           types.IncidentStatusDraft,
			CreatedAt:        time.Date(2025, 4, 6, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:               "3",
			Date:             "2025-04-05",
			Airline:          "Global Air",
			DepartureAirport: "SFO",
			ArrivingAirport:  "DFW",
			Incident:         "Minor turbulence injury",
			Investigation:    "Passenger did not have seatbelt fastened",
			Attachments: []Attachment{
				{ID: "3-0", Name: "injury-report.pdf", URL: "#", Type: types.AttachmentTypePDF},
			},
			Status:    types.IncidentStatusDone,
			CreatedAt: time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC),
		},
	}
}
