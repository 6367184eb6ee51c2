package http

import "fmt"

// DownloadErrors selects how presign failures reach the client.
type DownloadErrors string

const (
	// DownloadErrorsPrecise maps not found to 404 and backend faults to 500.
	DownloadErrorsPrecise DownloadErrors = "precise"
	// DownloadErrorsConflate answers every presign failure with 404.
	DownloadErrorsConflate DownloadErrors = "conflate"
)

// IsValid reports whether d is one of the known modes.
func (d DownloadErrors) IsValid() bool {
	return d == DownloadErrorsPrecise || d == DownloadErrorsConflate
}

// ParseDownloadErrors converts a config value to a DownloadErrors mode.
func ParseDownloadErrors(s string) (DownloadErrors, error) {
	d := DownloadErrors(s)
	if !d.IsValid() {
		return "", fmt.Errorf("invalid download errors mode: %s (valid modes: precise, conflate)", s)
	}
	return d, nil
}
