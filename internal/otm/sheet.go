package otm

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/apperrors"
)

// ReadWorkbook parses the first sheet of an xlsx workbook into reference
// address rows plus the raw data row count. Cell values arrive as strings;
// empty cells are empty strings.
func ReadWorkbook(data []byte) ([]ReferenceAddressRow, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, apperrors.NewFatal(apperrors.ErrBadRequest,
			"failed to open reference workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, apperrors.NewFatal(apperrors.ErrBadRequest,
			"reference workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	return BuildReferenceRows(rows)
}
