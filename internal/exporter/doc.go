// Package exporter writes billing results for download.
//
// WriteWorkbook produces the two-sheet workbook operators hand to billing:
// the "dataset" sheet repeats every input row with its derived link and
// max_max, and the "summary" sheet lists one percentile per link.
//
// CSVWriter writes the same summary as CSV with a UTF-8 BOM so that Excel
// opens it with the right encoding.
//
// Example usage:
//
//	result, _ := billing.Compute(ds.Rows, selections, billing.Options{})
//	name := exporter.SanitizeFileName(userInput)
//	f, _ := os.Create(name)
//	defer f.Close()
//	err := exporter.WriteWorkbook(f, ds, result)
package exporter
