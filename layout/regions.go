package layout

import (
	"github.com/tsawler/tabulary/field"
	"github.com/tsawler/tabulary/sheet"
)

// Region marks one table inside a sheet. Row indices refer to the sheet the
// region was detected on. DataEnd is exclusive; a region whose header is the
// last interesting row has DataStart == DataEnd and zero data rows.
type Region struct {
	// HeaderRow is the index of the header row.
	HeaderRow int `json:"header_row"`

	// HeaderInferred is true when no row classified as header and the
	// header was inferred from surrounding data rows or by fallback.
	HeaderInferred bool `json:"header_inferred,omitempty"`

	// DataStart is the index of the first data row.
	DataStart int `json:"data_start"`

	// DataEnd is the index one past the last data row.
	DataEnd int `json:"data_end"`
}

// RowCount returns the number of data rows in the region.
func (r Region) RowCount() int {
	return r.DataEnd - r.DataStart
}

// DetectRegions carves a classified sheet into table regions.
//
// A header row opens a region. A data row arriving with no region open opens
// one too: when the previous row exists and is non-empty it becomes the
// inferred header, otherwise the data row itself is promoted to inferred
// header and data starts below it. While the open region's header is
// inferred, a genuine header row upgrades the region in place; once the
// header is confirmed, the next header row closes the region and opens the
// following one. End of sheet closes whatever is open.
//
// A sheet with no non-empty cell yields no regions. A sheet with content
// where no region ever opened yields exactly one fallback region anchored at
// the row with the highest accumulated header score, or the first non-empty
// row when nothing scored positive; fallback headers are always inferred.
func DetectRegions(s sheet.Sheet, scores []RowScore) []Region {
	var regions []Region
	var cur Region
	open := false

	for i := range s.Rows {
		class := field.ClassUnknown
		if i < len(scores) {
			class = scores[i].Class
		}

		if !open {
			switch class {
			case field.ClassHeader:
				cur = Region{HeaderRow: i, DataStart: i + 1}
				open = true
			case field.ClassData:
				if i > 0 && !sheet.IsEmptyRow(s.Rows[i-1]) {
					cur = Region{HeaderRow: i - 1, HeaderInferred: true, DataStart: i}
				} else {
					// Nothing usable above: promote the data row itself.
					cur = Region{HeaderRow: i, HeaderInferred: true, DataStart: i + 1}
				}
				open = true
			}
			continue
		}

		if class == field.ClassHeader {
			if cur.HeaderInferred {
				// The provisional header was a guess; adopt the real one.
				cur.HeaderRow = i
				cur.HeaderInferred = false
				cur.DataStart = i + 1
				continue
			}
			cur.DataEnd = i
			regions = append(regions, cur)
			cur = Region{HeaderRow: i, DataStart: i + 1}
		}
	}

	if open {
		cur.DataEnd = len(s.Rows)
		regions = append(regions, cur)
	}

	if len(regions) == 0 {
		if fallback, ok := fallbackRegion(s, scores); ok {
			regions = append(regions, fallback)
		}
	}

	return regions
}

// fallbackRegion builds the single catch-all region for sheets where the
// state machine never opened one.
func fallbackRegion(s sheet.Sheet, scores []RowScore) (Region, bool) {
	if s.IsEmpty() {
		return Region{}, false
	}

	header := -1
	var headerScore float64
	for _, rs := range scores {
		score := rs.Scores[field.ClassHeader]
		if score > 0 && (header == -1 || score > headerScore) {
			header = rs.Index
			headerScore = score
		}
	}

	if header == -1 {
		for i, row := range s.Rows {
			if !sheet.IsEmptyRow(row) {
				header = i
				break
			}
		}
	}
	if header == -1 {
		return Region{}, false
	}

	return Region{
		HeaderRow:      header,
		HeaderInferred: true,
		DataStart:      header + 1,
		DataEnd:        len(s.Rows),
	}, true
}
