// Package dataprocessing loads link-utilization workbooks exported by the
// GGSN and IX feeds.
//
// # Architecture
//
//  1. Detector: classifies an uploaded file as GGSN or IX from its name
//  2. Parser: reads the first sheet of an .xlsx workbook into domain rows
//  3. Loader: parses several uploads concurrently and keeps one dataset per feed
//
// # Data Flow
//
//	Upload → DetectSourceKind → Parser → domain.Dataset → billing.Compute
//
// # Error Handling
//
// A workbook that cannot be opened, lacks a required column, or carries a
// util_time or utilization value that cannot be parsed is rejected as a
// whole with an *IngestionError naming the file, row and column. The loader
// turns these into warnings so the operator can re-upload; rejected rows
// never reach the billing core.
package dataprocessing
