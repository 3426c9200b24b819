package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/wanessald/chatbot-payroll/models"
	"github.com/wanessald/chatbot-payroll/utils"
)

// LoadRecords reads payroll rows from a .csv or .xlsx file. The first row
// holds the column names; row order becomes the store's natural order.
func LoadRecords(path string) ([]models.PayrollRecord, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("payroll source not found: %w", err)
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx":
		rows, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported payroll source %q: want .csv or .xlsx", path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("payroll source %q is empty", path)
	}

	return parseRows(rows)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in workbook")
	}
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet '%s': %w", sheet, err)
	}
	return rows, nil
}

func parseRows(rows [][]string) ([]models.PayrollRecord, error) {
	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range models.Columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("payroll source is missing column %q", col)
		}
	}

	seen := make(map[models.Citation]int)
	records := make([]models.PayrollRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		if isBlank(row) {
			continue
		}
		cell := func(col string) string {
			i := index[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec, err := parseRecord(cell)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		key := models.CiteRecord(rec)
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("line %d: duplicate record %s (first seen on line %d)", line, key, prev)
		}
		seen[key] = line

		rec.Seq = len(records) + 1
		records = append(records, rec)
	}
	return records, nil
}

func parseRecord(cell func(string) string) (models.PayrollRecord, error) {
	rec := models.PayrollRecord{
		EmployeeID:  cell(models.ColumnEmployeeID),
		Name:        cell(models.ColumnName),
		PaymentDate: cell(models.ColumnPaymentDate),
	}
	if rec.EmployeeID == "" {
		return rec, fmt.Errorf("employee_id is empty")
	}

	competency, err := utils.NormalizePeriodKey(cell(models.ColumnCompetency))
	if err != nil {
		return rec, fmt.Errorf("competency: %w", err)
	}
	rec.Competency = competency

	if rec.PaymentDate != "" {
		if _, err := time.Parse("2006-01-02", rec.PaymentDate); err != nil {
			return rec, fmt.Errorf("payment_date %q is not YYYY-MM-DD", rec.PaymentDate)
		}
	}

	amounts := []struct {
		column string
		dst    *models.Amount
	}{
		{models.ColumnBaseSalary, &rec.BaseSalary},
		{models.ColumnBonus, &rec.Bonus},
		{models.ColumnNetPay, &rec.NetPay},
		{models.ColumnDeductionsINSS, &rec.DeductionsINSS},
		{models.ColumnDeductionsIRRF, &rec.DeductionsIRRF},
	}
	for _, a := range amounts {
		raw := cell(a.column)
		if raw == "" {
			continue
		}
		v, err := models.NewAmount(raw)
		if err != nil {
			return rec, fmt.Errorf("%s: %w", a.column, err)
		}
		*a.dst = v
	}
	return rec, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Reloader rebuilds the record store from its data source.
type Reloader struct {
	Store  *RecordStore
	Source string
}

func NewReloader(store *RecordStore, source string) *Reloader {
	return &Reloader{Store: store, Source: source}
}

// Reload loads the source and swaps it into the store. On failure the
// previous record set stays in place.
func (r *Reloader) Reload(ctx context.Context) (int, error) {
	records, err := LoadRecords(r.Source)
	if err != nil {
		reloadTotal.WithLabelValues("error").Inc()
		return 0, err
	}
	if err := r.Store.Reload(ctx, records); err != nil {
		reloadTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	reloadTotal.WithLabelValues("ok").Inc()
	recordsLoaded.Set(float64(len(records)))
	utils.Logger.Info("Payroll records loaded",
		zap.String("source", r.Source),
		zap.Int("records", len(records)))
	return len(records), nil
}
