package layout

import (
	"testing"

	"github.com/tsawler/tabulary/field"
	"github.com/tsawler/tabulary/sheet"
)

// scoresOf builds RowScores with the given classes and a positive header
// score wherever the class is header.
func scoresOf(classes ...string) []RowScore {
	out := make([]RowScore, len(classes))
	for i, class := range classes {
		scores := map[string]float64{}
		if class != field.ClassUnknown {
			scores[class] = 1.0
		}
		out[i] = RowScore{Index: i, Class: class, Scores: scores}
	}
	return out
}

func TestDetectRegionsSimpleTable(t *testing.T) {
	s := testSheet(
		[]string{"Name", "Qty"},
		[]string{"Widget", "3"},
		[]string{"Gadget", "5"},
	)
	regions := DetectRegions(s, scoresOf(field.ClassHeader, field.ClassData, field.ClassData))

	if len(regions) != 1 {
		t.Fatalf("Expected 1 region, got %d", len(regions))
	}
	r := regions[0]
	if r.HeaderRow != 0 || r.HeaderInferred {
		t.Errorf("Expected confirmed header at 0, got %+v", r)
	}
	if r.DataStart != 1 || r.DataEnd != 3 {
		t.Errorf("Expected data [1, 3), got [%d, %d)", r.DataStart, r.DataEnd)
	}
	if r.RowCount() != 2 {
		t.Errorf("Expected 2 data rows, got %d", r.RowCount())
	}
}

func TestDetectRegionsStackedTables(t *testing.T) {
	s := testSheet(
		[]string{"Name", "Qty"},
		[]string{"Widget", "3"},
		[]string{"Sku", "Price"},
		[]string{"A1", "9.99"},
		[]string{"A2", "12.50"},
	)
	classes := scoresOf(
		field.ClassHeader, field.ClassData,
		field.ClassHeader, field.ClassData, field.ClassData,
	)
	regions := DetectRegions(s, classes)

	if len(regions) != 2 {
		t.Fatalf("Expected 2 regions, got %d", len(regions))
	}
	if regions[0].DataEnd != 2 {
		t.Errorf("Expected first region closed before second header, got end %d", regions[0].DataEnd)
	}
	if regions[1].HeaderRow != 2 || regions[1].DataStart != 3 || regions[1].DataEnd != 5 {
		t.Errorf("Expected second region header 2 data [3, 5), got %+v", regions[1])
	}
}

func TestDetectRegionsInferredHeaderFromPreviousRow(t *testing.T) {
	s := testSheet(
		[]string{"Inventory", ""},
		[]string{"Widget", "3"},
		[]string{"Gadget", "5"},
	)
	// Row 0 never classifies as header, but row 1 is clearly data.
	classes := scoresOf(field.ClassUnknown, field.ClassData, field.ClassData)
	regions := DetectRegions(s, classes)

	if len(regions) != 1 {
		t.Fatalf("Expected 1 region, got %d", len(regions))
	}
	r := regions[0]
	if r.HeaderRow != 0 || !r.HeaderInferred {
		t.Errorf("Expected inferred header at row 0, got %+v", r)
	}
	if r.DataStart != 1 || r.DataEnd != 3 {
		t.Errorf("Expected data [1, 3), got [%d, %d)", r.DataStart, r.DataEnd)
	}
}

func TestDetectRegionsPromotesDataRowAtTop(t *testing.T) {
	s := testSheet(
		[]string{"Widget", "3"},
		[]string{"Gadget", "5"},
	)
	regions := DetectRegions(s, scoresOf(field.ClassData, field.ClassData))

	if len(regions) != 1 {
		t.Fatalf("Expected 1 region, got %d", len(regions))
	}
	r := regions[0]
	if r.HeaderRow != 0 || !r.HeaderInferred {
		t.Errorf("Expected promoted inferred header at 0, got %+v", r)
	}
	if r.DataStart != 1 || r.DataEnd != 2 {
		t.Errorf("Expected data [1, 2), got [%d, %d)", r.DataStart, r.DataEnd)
	}
}

func TestDetectRegionsPromotesDataRowAfterEmptyRow(t *testing.T) {
	s := testSheet(
		[]string{"", ""},
		[]string{"Widget", "3"},
	)
	regions := DetectRegions(s, scoresOf(field.ClassUnknown, field.ClassData))

	if len(regions) != 1 {
		t.Fatalf("Expected 1 region, got %d", len(regions))
	}
	r := regions[0]
	if r.HeaderRow != 1 || !r.HeaderInferred || r.DataStart != 2 {
		t.Errorf("Expected data row promoted past empty predecessor, got %+v", r)
	}
}

func TestDetectRegionsUpgradesInferredHeader(t *testing.T) {
	s := testSheet(
		[]string{"Widget", "3"},
		[]string{"Name", "Qty"},
		[]string{"Gadget", "5"},
	)
	classes := scoresOf(field.ClassData, field.ClassHeader, field.ClassData)
	regions := DetectRegions(s, classes)

	// The provisional region from row 0 is re-anchored at the real header,
	// not closed: one region, confirmed header.
	if len(regions) != 1 {
		t.Fatalf("Expected 1 region after upgrade, got %d", len(regions))
	}
	r := regions[0]
	if r.HeaderRow != 1 || r.HeaderInferred {
		t.Errorf("Expected confirmed header at 1, got %+v", r)
	}
	if r.DataStart != 2 || r.DataEnd != 3 {
		t.Errorf("Expected data [2, 3), got [%d, %d)", r.DataStart, r.DataEnd)
	}
}

func TestDetectRegionsHeaderOnlyTable(t *testing.T) {
	s := testSheet([]string{"Name", "Qty"})
	regions := DetectRegions(s, scoresOf(field.ClassHeader))

	if len(regions) != 1 {
		t.Fatalf("Expected 1 region, got %d", len(regions))
	}
	r := regions[0]
	if r.RowCount() != 0 {
		t.Errorf("Expected zero data rows, got %d", r.RowCount())
	}
	if r.DataStart != 1 || r.DataEnd != 1 {
		t.Errorf("Expected empty data span [1, 1), got [%d, %d)", r.DataStart, r.DataEnd)
	}
}

func TestDetectRegionsEmptySheet(t *testing.T) {
	s := testSheet([]string{"", ""}, []string{" "})
	regions := DetectRegions(s, scoresOf(field.ClassUnknown, field.ClassUnknown))

	if len(regions) != 0 {
		t.Errorf("Expected no regions for empty sheet, got %d", len(regions))
	}
}

func TestDetectRegionsFallbackUsesBestHeaderScore(t *testing.T) {
	s := testSheet(
		[]string{"Quarterly Report"},
		[]string{"Name", "Qty"},
		[]string{"Widget", "3"},
	)
	// Nothing crossed the classification bar, but row 1 accumulated the
	// strongest header evidence.
	scores := []RowScore{
		{Index: 0, Class: field.ClassUnknown, Scores: map[string]float64{field.ClassHeader: 0.1}},
		{Index: 1, Class: field.ClassUnknown, Scores: map[string]float64{field.ClassHeader: 0.4}},
		{Index: 2, Class: field.ClassUnknown, Scores: map[string]float64{}},
	}
	regions := DetectRegions(s, scores)

	if len(regions) != 1 {
		t.Fatalf("Expected 1 fallback region, got %d", len(regions))
	}
	r := regions[0]
	if r.HeaderRow != 1 || !r.HeaderInferred {
		t.Errorf("Expected inferred header at best-scoring row 1, got %+v", r)
	}
	if r.DataEnd != 3 {
		t.Errorf("Expected fallback region to reach end of sheet, got %d", r.DataEnd)
	}
}

func TestDetectRegionsFallbackFirstNonEmptyRow(t *testing.T) {
	s := testSheet(
		[]string{"", ""},
		[]string{"anything"},
		[]string{"else"},
	)
	scores := scoresOf(field.ClassUnknown, field.ClassUnknown, field.ClassUnknown)
	regions := DetectRegions(s, scores)

	if len(regions) != 1 {
		t.Fatalf("Expected 1 fallback region, got %d", len(regions))
	}
	if regions[0].HeaderRow != 1 {
		t.Errorf("Expected first non-empty row as header, got %d", regions[0].HeaderRow)
	}
	if !regions[0].HeaderInferred {
		t.Error("Expected fallback header to be inferred")
	}
}

func TestDetectRegionsInvariants(t *testing.T) {
	cases := [][]string{
		{field.ClassHeader, field.ClassData, field.ClassHeader},
		{field.ClassData, field.ClassHeader, field.ClassHeader, field.ClassData},
		{field.ClassUnknown, field.ClassData, field.ClassUnknown, field.ClassHeader},
	}

	for _, classes := range cases {
		rows := make([][]string, len(classes))
		for i := range rows {
			rows[i] = []string{"cell"}
		}
		regions := DetectRegions(sheet.New("S", rows), scoresOf(classes...))
		for _, r := range regions {
			if r.DataStart < r.HeaderRow {
				t.Errorf("Region %+v violates DataStart >= HeaderRow", r)
			}
			if r.DataEnd < r.DataStart {
				t.Errorf("Region %+v violates DataEnd >= DataStart", r)
			}
		}
	}
}
