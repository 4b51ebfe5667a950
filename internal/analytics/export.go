package analytics

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Sheet names written by WriteXLSX.
const (
	SheetIncidence = "incidence"
	SheetShared    = "shared"
)

// WriteXLSX saves the incidence and shared matrices as two sheets. Each sheet
// has a header row of column labels and a first column of firm IDs.
func (r *Report) WriteXLSX(path string) error {
	f := xlsx.NewFile()

	if err := addGridSheet(f, SheetIncidence, r.Patents, r.Firms, r.Incidence); err != nil {
		return err
	}
	if err := addGridSheet(f, SheetShared, r.Firms, r.Firms, r.Shared); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func addGridSheet(f *xlsx.File, name string, colLabels, rowLabels []string, cells [][]int) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "xlsx: add sheet %s", name)
	}

	header := sheet.AddRow()
	header.AddCell().SetString("firm")
	for _, label := range colLabels {
		header.AddCell().SetString(label)
	}

	for i, label := range rowLabels {
		row := sheet.AddRow()
		row.AddCell().SetString(label)
		for _, v := range cells[i] {
			row.AddCell().SetInt(v)
		}
	}
	return nil
}
