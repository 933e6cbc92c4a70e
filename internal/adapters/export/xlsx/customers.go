// Package xlsx writes directory snapshots as spreadsheets.
package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/clientes/internal/domain"
)

const SheetName = "Customers"

var header = []any{"ID", "First name", "Last name", "Email", "Phone", "Active", "Created at", "Updated at"}

func WriteCustomers(w io.Writer, customers []domain.Customer) error {
	f, err := build(customers)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func SaveCustomers(path string, customers []domain.Customer) error {
	f, err := build(customers)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func build(customers []domain.Customer) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	for i, c := range customers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := []any{
			c.ID,
			c.FirstName,
			c.LastName,
			c.Email,
			c.Phone,
			c.IsActive,
			c.CreatedAt.Format(time.RFC3339),
			"",
		}
		if t, ok := c.UpdatedAt.Get(); ok {
			row[7] = t.Format(time.RFC3339)
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := f.SetColWidth(SheetName, "B", "E", 22); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
