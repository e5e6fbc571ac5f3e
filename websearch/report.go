package websearch

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"metasearch/websearch/types"
)

const (
	reportSummarySheet = "Summary"
	reportResultsSheet = "Results"
	reportErrorsSheet  = "Errors"
)

// WriteXLSX записывает отчет по агрегированному результату в формате XLSX.
// Листы: Summary (сводка и статус провайдеров), Results (все найденные элементы), Errors (ошибки провайдеров).
func WriteXLSX(w io.Writer, result *types.AggregatedResult) error {
	if result == nil {
		return fmt.Errorf("aggregated result is nil")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{reportResultsSheet, reportErrorsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummarySheet(f, result, headerStyle); err != nil {
		return err
	}
	if err := writeResultsSheet(f, result, headerStyle); err != nil {
		return err
	}
	if err := writeErrorsSheet(f, result, headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

// SaveXLSX сохраняет отчет в файл
func SaveXLSX(filename string, result *types.AggregatedResult) error {
	if result == nil {
		return fmt.Errorf("aggregated result is nil")
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	return WriteXLSX(f, result)
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, 20)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d on %s: %w", row, sheet, err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, result *types.AggregatedResult, style int) error {
	sheet := reportSummarySheet
	rows := [][]interface{}{
		{"Query", result.Query},
		{"Language", result.Language},
		{"Correlation ID", result.CorrelationID},
		{"Total latency, ms", result.TotalLatencyMs},
		{"Attempted", result.Summary.Attempted},
		{"Succeeded", result.Summary.Succeeded},
		{"Failed", result.Summary.Failed},
		{"Total items", result.Summary.TotalItems},
	}
	for i, values := range rows {
		if err := writeRow(f, sheet, i+1, values); err != nil {
			return err
		}
	}

	start := len(rows) + 2
	headers := []string{"Provider", "Status", "Items", "Latency, ms", "From cache", "Attempts", "Direct URL"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, start)
		_ = f.SetCellValue(sheet, cell, header)
		_ = f.SetCellStyle(sheet, cell, cell, style)
	}
	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "B", "G", 16)

	for i, id := range result.ProviderOrder {
		outcome := result.PerProvider[id]
		if outcome == nil {
			continue
		}
		items, latency := 0, int64(0)
		if outcome.Data != nil {
			items, latency = outcome.Data.ItemCount, outcome.Data.LatencyMs
		}
		values := []interface{}{id, string(outcome.Status), items, latency, outcome.FromCache, outcome.Attempts, outcome.DirectURL}
		if err := writeRow(f, sheet, start+1+i, values); err != nil {
			return err
		}
	}
	return nil
}

func writeResultsSheet(f *excelize.File, result *types.AggregatedResult, style int) error {
	sheet := reportResultsSheet
	if err := writeHeader(f, sheet, []string{"Provider", "#", "Title", "URL", "Display URL", "Snippet", "Relevance"}, style); err != nil {
		return err
	}

	row := 2
	for _, id := range result.ProviderOrder {
		outcome := result.PerProvider[id]
		if outcome == nil || outcome.Data == nil {
			continue
		}
		for i, item := range outcome.Data.Items {
			values := []interface{}{id, i + 1, item.Title, item.URL, item.DisplayURL, item.Snippet, item.Relevance}
			if err := writeRow(f, sheet, row, values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeErrorsSheet(f *excelize.File, result *types.AggregatedResult, style int) error {
	sheet := reportErrorsSheet
	if err := writeHeader(f, sheet, []string{"Provider", "Kind", "API class", "Status code", "Retryable", "Message", "Raw error"}, style); err != nil {
		return err
	}

	row := 2
	for _, id := range result.ProviderOrder {
		outcome := result.PerProvider[id]
		if outcome == nil || outcome.Error == nil {
			continue
		}
		e := outcome.Error
		values := []interface{}{id, string(e.Kind), string(e.APIClass), e.StatusCode, e.Retryable, e.UserMessage, e.RawMessage}
		if err := writeRow(f, sheet, row, values); err != nil {
			return err
		}
		row++
	}
	return nil
}
