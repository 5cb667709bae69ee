package otm

import (
	"strings"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/apperrors"
)

// ReferenceAddressRow is one usable row from the reference address list.
type ReferenceAddressRow struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
}

// Header alias lists, matched case-insensitively by substring. The sheet
// arrives in one of two shapes: "split" (separate house number, direction,
// street name, apartment columns) or "single" (one combined address column).
var (
	houseNumAliases   = []string{"housenum", "house num", "house #", "house no"}
	streetDirAliases  = []string{"streetdir", "street dir", "direction"}
	streetNameAliases = []string{"streetname", "street name"}
	aptAliases        = []string{"apt", "unit", "suite"}
	addressAliases    = []string{"address", "addr", "street"}
	cityAliases       = []string{"city"}
	zipAliases        = []string{"zip", "postal"}
)

// columnLayout holds the resolved column indexes for one sheet. An index of
// -1 means the column is absent.
type columnLayout struct {
	split      bool
	houseNum   int
	streetDir  int
	streetName int
	apt        int
	address    int
	city       int
	zip        int
}

// findColumn returns the index of the first header matching any alias by
// case-insensitive substring, or -1.
func findColumn(headers []string, aliases []string) int {
	for i, h := range headers {
		lowered := strings.ToLower(strings.TrimSpace(h))
		if lowered == "" {
			continue
		}
		for _, alias := range aliases {
			if strings.Contains(lowered, alias) {
				return i
			}
		}
	}
	return -1
}

// detectColumns resolves the sheet shape from its header row. Split shape
// is assumed when a house-number-like or street-name-like column exists;
// otherwise a combined address column is required.
func detectColumns(headers []string) (columnLayout, error) {
	layout := columnLayout{
		houseNum:   findColumn(headers, houseNumAliases),
		streetDir:  findColumn(headers, streetDirAliases),
		streetName: findColumn(headers, streetNameAliases),
		apt:        findColumn(headers, aptAliases),
		address:    findColumn(headers, addressAliases),
		city:       findColumn(headers, cityAliases),
		zip:        findColumn(headers, zipAliases),
	}

	if layout.houseNum >= 0 || layout.streetName >= 0 {
		layout.split = true
		return layout, nil
	}
	if layout.address >= 0 {
		return layout, nil
	}
	return columnLayout{}, apperrors.NewFatal(apperrors.ErrBadRequest,
		"reference sheet has no address-identifying columns")
}

// cell returns the trimmed value at idx, or "" when the column is absent or
// the row is short.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// rowAddress reassembles the address for one data row. Split shape joins
// house number, direction, street name and apartment in that order with
// spaces, skipping empty parts.
func (l columnLayout) rowAddress(row []string) string {
	if !l.split {
		return cell(row, l.address)
	}
	parts := make([]string, 0, 4)
	for _, idx := range []int{l.houseNum, l.streetDir, l.streetName, l.apt} {
		if v := cell(row, idx); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// BuildReferenceRows converts raw sheet rows (header first) into reference
// address rows. Rows that yield no address are skipped: sparse data is "no
// signal", not an error. The returned raw count is the number of data rows
// before skipping.
func BuildReferenceRows(rows [][]string) ([]ReferenceAddressRow, int, error) {
	if len(rows) < 2 {
		return nil, 0, apperrors.NewFatal(apperrors.ErrBadRequest,
			"reference sheet needs a header row and at least one data row")
	}

	layout, err := detectColumns(rows[0])
	if err != nil {
		return nil, 0, err
	}

	data := rows[1:]
	refRows := make([]ReferenceAddressRow, 0, len(data))
	for _, row := range data {
		address := layout.rowAddress(row)
		if address == "" {
			continue
		}
		refRows = append(refRows, ReferenceAddressRow{
			Address: address,
			City:    cell(row, layout.city),
			Zipcode: cell(row, layout.zip),
		})
	}

	if len(refRows) == 0 {
		return nil, len(data), apperrors.NewFatal(apperrors.ErrBadRequest,
			"reference sheet contains no rows with an address")
	}
	return refRows, len(data), nil
}
