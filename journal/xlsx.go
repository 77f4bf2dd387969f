package journal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// TradesSheet is the sheet the log is written to.
const TradesSheet = "Trades"

// XLSXStore keeps the log as an Excel workbook, the format the dashboard reads.
type XLSXStore struct {
	fileStore
	schema Schema
}

func NewXLSX(path string, schema Schema) *XLSXStore {
	return &XLSXStore{fileStore: fileStore{path: path}, schema: schema}
}

func (s *XLSXStore) Load() (Log, error) {
	ok, err := s.exists()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	fx, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, unreadable(s.path, err)
	}
	defer fx.Close()

	sheets := fx.GetSheetList()
	if len(sheets) == 0 {
		return nil, unreadable(s.path, fmt.Errorf("no sheets"))
	}
	sheet := sheets[0]
	for _, name := range sheets {
		if name == TradesSheet {
			sheet = name
			break
		}
	}

	rows, err := fx.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, unreadable(s.path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	l, err := decodeRows(rows[0], rows[1:], parseExcelDate)
	if err != nil {
		return nil, unreadable(s.path, err)
	}
	return l.Sorted(), nil
}

// parseExcelDate also accepts raw serial day numbers.
func parseExcelDate(s string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad date serial %q: %w", s, err)
		}
		return DateOf(t), nil
	}
	return parseDate(s)
}

func (s *XLSXStore) Save(l Log) error {
	cols := s.schema.Columns()

	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), TradesSheet); err != nil {
		return err
	}

	headStyle, err := fx.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for i, h := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := fx.SetCellValue(TradesSheet, cell, h); err != nil {
			return err
		}
		if err := fx.SetCellStyle(TradesSheet, cell, cell, headStyle); err != nil {
			return err
		}
	}

	for r, t := range l {
		for i, v := range values(t, cols) {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := fx.SetCellValue(TradesSheet, cell, v); err != nil {
				return err
			}
		}
	}

	last, _ := excelize.ColumnNumberToName(len(cols))
	if err := fx.SetColWidth(TradesSheet, "A", last, 14); err != nil {
		return err
	}
	if err := fx.SetPanes(TradesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	return atomicWrite(s.path, func(tmp string) error {
		return fx.SaveAs(tmp)
	})
}
