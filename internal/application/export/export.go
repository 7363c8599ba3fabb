package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sangkips/mini-crm/internal/domain/entity"
	"github.com/xuri/excelize/v2"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// TimeLayout formats timestamps in exported files
const TimeLayout = "2006-01-02 15:04:05"

const sheetName = "Customers"

var (
	// Header is the fixed column order of every export
	Header = []string{"ID", "Name", "Email", "Phone", "Created At", "Updated At"}

	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
)

// ParseFormat maps a query value to a format, defaulting to CSV
func ParseFormat(value string) Format {
	if Format(value) == FormatXLSX {
		return FormatXLSX
	}
	return FormatCSV
}

// ContentType returns the MIME type sent with the file
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename returns customers_<timestamp>.<ext> for the given moment
func Filename(now time.Time, format Format) string {
	return fmt.Sprintf("customers_%s.%s", now.Format("2006-01-02_15-04-05"), format)
}

// Write writes customers in the given format
func Write(w io.Writer, format Format, customers []entity.Customer, loc *time.Location) error {
	if format == FormatXLSX {
		return WriteXLSX(w, customers, loc)
	}
	return WriteCSV(w, customers, loc)
}

// WriteCSV writes a BOM-prefixed CSV with one row per customer
func WriteCSV(w io.Writer, customers []entity.Customer, loc *time.Location) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range customers {
		if err := cw.Write(record(&customers[i], loc)); err != nil {
			return fmt.Errorf("write customer %d: %w", customers[i].ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a single-sheet workbook with a bold header row
func WriteXLSX(w io.Writer, customers []entity.Customer, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return err
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Header))
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i := range customers {
		c := &customers[i]
		row := []interface{}{
			c.ID,
			c.Name,
			c.Email,
			c.PhoneOrEmpty(),
			c.CreatedAt.In(loc).Format(TimeLayout),
			c.UpdatedAt.In(loc).Format(TimeLayout),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheetName, "B", "C", 30); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "E", "F", 20); err != nil {
		return err
	}

	return f.Write(w)
}

func record(c *entity.Customer, loc *time.Location) []string {
	return []string{
		strconv.FormatUint(c.ID, 10),
		c.Name,
		c.Email,
		c.PhoneOrEmpty(),
		c.CreatedAt.In(loc).Format(TimeLayout),
		c.UpdatedAt.In(loc).Format(TimeLayout),
	}
}
