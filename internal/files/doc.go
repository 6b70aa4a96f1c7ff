// Package files finds utilization workbooks on disk.
//
// The billing command uses Discovery to pick up GGSN and IX exports dropped
// into a directory instead of naming each file with a flag:
//
//	discovery := files.NewDiscovery("/srv/exports")
//	workbooks, err := discovery.FindWorkbooks("2025-03")
//	latest, ok := files.GetLatestFile(workbooks)
package files
