package reportsync

import (
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/fraud-pipeline/internal/aggregate"
)

// RowToNotionProperties converts one hourly aggregate row to Notion
// properties. The report's threshold and peak drive the High Risk and
// Peak flags so the Notion view carries the same highlights as the
// dashboard.
func RowToNotionProperties(row *aggregate.Row, rep *aggregate.Report) notionapi.Properties {
	props := notionapi.Properties{
		"Hour": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: fmt.Sprintf("%02d:00", row.Hour),
					},
				},
			},
		},
		"Safe": notionapi.NumberProperty{
			Number: float64(row.SafeCount),
		},
		"Suspicious": notionapi.NumberProperty{
			Number: float64(row.SuspiciousCount),
		},
		"Total Volume": notionapi.NumberProperty{
			Number: float64(row.TotalVolume),
		},
		"Risk Rate": notionapi.NumberProperty{
			Number: row.RiskRate,
		},
		"High Risk": notionapi.CheckboxProperty{
			Checkbox: row.RiskRate > rep.Threshold,
		},
	}

	if rep.Peak != nil && rep.Peak.Hour == row.Hour {
		props["Peak"] = notionapi.CheckboxProperty{
			Checkbox: true,
		}
	}

	return props
}
