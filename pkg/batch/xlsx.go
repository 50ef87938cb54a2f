package batch

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"github.com/suyashkore/tms-console/pkg/serrors"
)

// BuildWorkbook renders a header row plus data rows into a single-sheet
// xlsx workbook. Used to author import files and by the stub backend to
// serve templates and exports.
func BuildWorkbook(sheet string, headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, serrors.NewMessage("cannot create sheet: " + err.Error())
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	writeRow := func(rowIdx int, cells []string) error {
		for colIdx, cell := range cells {
			name, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, name, cell); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeRow(1, headers); err != nil {
		return nil, serrors.NewMessage("cannot write header row: " + err.Error())
	}
	for i, row := range rows {
		if err := writeRow(i+2, row); err != nil {
			return nil, serrors.NewMessage("cannot write data row: " + err.Error())
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, serrors.NewMessage("cannot serialize workbook: " + err.Error())
	}
	return buf.Bytes(), nil
}

// ReadWorkbook returns the first sheet's rows, header row included.
func ReadWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, serrors.NewMessage("cannot open workbook: " + err.Error())
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, serrors.NewMessage("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, serrors.NewMessage("cannot read sheet: " + err.Error())
	}
	return rows, nil
}
