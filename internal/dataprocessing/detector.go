package dataprocessing

import (
	"path/filepath"
	"strings"

	"autobill/pkg/contracts/domain"
)

// DetectSourceKind classifies a workbook by its file name. Names containing
// "GGSN" are GGSN feeds, otherwise names containing "IX" are IX feeds. The
// match is case-sensitive and GGSN is probed first.
func DetectSourceKind(name string) (domain.SourceKind, error) {
	base := filepath.Base(name)
	for _, kind := range domain.SourceKinds {
		if strings.Contains(base, string(kind)) {
			return kind, nil
		}
	}
	return "", ErrUnknownFile
}
