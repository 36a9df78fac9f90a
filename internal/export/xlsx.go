package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/statement"
)

const sheetName = "Transactions"

// writeXLSX renders the records as an XLSX workbook with a single sheet.
func writeXLSX(path string, records []statement.Record, extraFields []string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	writeRow := func(rowNum int, values []string) error {
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeRow(1, headerRow(extraFields)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, rec := range records {
		if err := writeRow(i+2, recordRow(rec, extraFields)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", rec.TransactionID, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
