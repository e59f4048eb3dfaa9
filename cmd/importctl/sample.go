package main

import (
	"fmt"

	"estate-admin/internal/importer"

	"github.com/xuri/excelize/v2"
)

type sampleSheet struct {
	headers []string
	rows    [][]interface{}
}

// Headers are dot-paths; list cells are comma separated and object cells
// hold JSON text, the same shapes an operator fills into a template.
var samples = map[importer.EntityKind]sampleSheet{
	importer.KindProperties: {
		headers: []string{"title", "price", "status", "location.city", "location.address", "location.coordinates.latitude", "location.coordinates.longitude", "specifications.bedrooms", "specifications.area", "features", "images"},
		rows: [][]interface{}{
			{"Nile View Apartment", 4500000, "available", "Cairo", "Corniche El Nil", 30.0444, 31.2357, 3, 180, "balcony, river view", `[{"url":"https://example.com/nile.jpg"}]`},
			{"Garden Villa", "12,500,000", "available", "Giza", "Sheikh Zayed", 30.0131, 30.9718, 5, 420, "garden, pool, garage", ""},
			{"Studio Downtown", 1800000, "sold", "Cairo", "Talaat Harb", "", "", 1, 55, "furnished", ""},
		},
	},
	importer.KindUsers: {
		headers: []string{"name", "email", "role", "permissions", "address"},
		rows: [][]interface{}{
			{"Sara Adel", "sara@example.com", "agent", "properties.read, leads.write", `{"city":"Cairo"}`},
			{"Omar Nabil", "omar@example.com", "admin", "all", ""},
		},
	},
	importer.KindLeads: {
		headers: []string{"name", "phone", "source", "budget.min", "budget.max", "preferences.propertyTypes", "preferences.locations", "tags"},
		rows: [][]interface{}{
			{"Mona Said", "+201000000001", "website", 2000000, 3500000, "apartment, duplex", "New Cairo, Maadi", "hot"},
			{"Khaled Fathy", "+201000000002", "referral", 5000000, "", "villa", "Sheikh Zayed", ""},
		},
	},
	importer.KindDevelopers: {
		headers: []string{"name", "description", "specializations", "serviceAreas", "contact.email", "contact.phone"},
		rows: [][]interface{}{
			{"Delta Developments", "Residential compounds", "residential, commercial", "Cairo, Giza", "info@delta.example", "+20225550000"},
		},
	},
	importer.KindCities: {
		headers: []string{"name", "slug", "highlights", "coordinates"},
		rows: [][]interface{}{
			{"Cairo", "cairo", "museums, nightlife", `{"latitude":30.0444,"longitude":31.2357}`},
			{"Alexandria", "alexandria", "beaches", `{"latitude":31.2001,"longitude":29.9187}`},
		},
	},
	importer.KindLaunches: {
		headers: []string{"title", "developer", "startingPrice", "unitTypes", "location.city", "location.coordinates.latitude", "location.coordinates.longitude", "paymentPlans"},
		rows: [][]interface{}{
			{"Palm Towers", "Delta Developments", 3200000, "apartment, penthouse", "New Cairo", 30.03, 31.47, `[{"years":8,"downPayment":10}]`},
		},
	},
	importer.KindGovernorates: {
		headers: []string{"name", "slug", "tags", "coordinates.latitude", "coordinates.longitude"},
		rows: [][]interface{}{
			{"Giza", "giza", "pyramids", 30.0131, 31.2089},
		},
	},
	importer.KindAreas: {
		headers: []string{"name", "city", "annualAppreciationRate", "nearbyLandmarks"},
		rows: [][]interface{}{
			{"Maadi", "Cairo", 7.5, "Maadi Club, Degla Square"},
			{"Zamalek", "Cairo", "9%", "Cairo Tower"},
		},
	},
}

// buildSample renders the sample workbook for kind and returns it with its
// data row count. The data sheet is first so it is the one that gets decoded.
func buildSample(kind importer.EntityKind) ([]byte, int, error) {
	sample, ok := samples[kind]
	if !ok {
		return nil, 0, fmt.Errorf("no sample for entity kind %q", kind)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Data"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, 0, err
	}

	if err := f.SetSheetRow(sheet, "A1", &sample.headers); err != nil {
		return nil, 0, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, 0, err
	}
	last, _ := excelize.CoordinatesToCellName(len(sample.headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return nil, 0, err
	}

	for i, row := range sample.rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, 0, err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(sample.headers))
	if err := f.SetColWidth(sheet, "A", lastCol, 22); err != nil {
		return nil, 0, err
	}

	notes := "Instructions"
	if _, err := f.NewSheet(notes); err != nil {
		return nil, 0, err
	}
	lines := []string{
		fmt.Sprintf("SAMPLE %s IMPORT", kind),
		"Row 1 holds field paths; dots nest fields (location.city).",
		"List fields take comma separated values.",
		"Object fields take JSON text or one column per child path.",
		"Only the first sheet is imported.",
	}
	for i, line := range lines {
		f.SetCellValue(notes, fmt.Sprintf("A%d", i+1), line)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), len(sample.rows), nil
}
