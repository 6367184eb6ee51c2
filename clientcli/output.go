package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// Formatter renders command results. The CLI picks one per invocation from
// the --json and --quiet flags.
type Formatter interface {
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatList(w io.Writer, result *ListResult) error
	FormatURL(w io.Writer, result *URLResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error
}

func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter writes aligned text for a terminal. Quiet suppresses
// success lines but never errors.
type HumanFormatter struct {
	Quiet bool
}

func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for _, r := range results {
		switch {
		case r.Err != nil:
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.LocalPath, r.Err)
		case !f.Quiet:
			_, _ = fmt.Fprintf(w, "Uploaded: %s (%s)\n", r.Name, sizeString(r.Size))
		}
	}
	return nil
}

func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}

	target := ""
	if result.LocalPath != "-" {
		target = " -> " + result.LocalPath
	}
	_, err := fmt.Fprintf(w, "Downloaded: %s%s (%s)\n", result.Name, target, sizeString(result.Size))
	return err
}

func (f *HumanFormatter) FormatList(w io.Writer, result *ListResult) error {
	if len(result.Items) == 0 {
		_, err := fmt.Fprintln(w, "No files found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
	for _, item := range result.Items {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n",
			item.Name, sizeString(item.Size), item.LastModified.Format("2006-01-02 15:04:05"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d file(s), %s total\n", len(result.Items), sizeString(result.TotalSize()))
	return err
}

// FormatURL prints only the URL so the output can be piped to curl.
func (f *HumanFormatter) FormatURL(w io.Writer, result *URLResult) error {
	_, err := fmt.Fprintln(w, result.URL)
	return err
}

func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "Error: %v\n", err)
	return werr
}

func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "  NAME\tENDPOINT\tTIMEOUT")
	for _, p := range profiles {
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		timeout := "default"
		if p.Timeout > 0 {
			timeout = p.Timeout.String()
		}
		_, _ = fmt.Fprintf(tw, "%s %s\t%s\t%s\n", marker, p.Name, p.Endpoint, timeout)
	}
	return tw.Flush()
}

// JSONFormatter writes indented JSON, one document per call.
type JSONFormatter struct{}

func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	type entry struct {
		LocalPath string `json:"local_path"`
		Name      string `json:"name,omitempty"`
		Size      int64  `json:"size_bytes,omitempty"`
		Error     string `json:"error,omitempty"`
	}

	out := make([]entry, 0, len(results))
	for _, r := range results {
		e := entry{LocalPath: r.LocalPath, Name: r.Name, Size: r.Size}
		if r.Err != nil {
			e.Size, e.Error = 0, r.Err.Error()
		}
		out = append(out, e)
	}
	return writeJSON(w, out)
}

func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

func (f *JSONFormatter) FormatList(w io.Writer, result *ListResult) error {
	return writeJSON(w, result)
}

func (f *JSONFormatter) FormatURL(w io.Writer, result *URLResult) error {
	return writeJSON(w, result)
}

func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	return writeJSON(w, map[string]string{"error": err.Error()})
}

func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	type entry struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Timeout  string `json:"timeout,omitempty"`
		Default  bool   `json:"default,omitempty"`
	}

	out := make([]entry, 0, len(profiles))
	for _, p := range profiles {
		e := entry{Name: p.Name, Endpoint: p.Endpoint, Default: p.Name == defaultName}
		if p.Timeout > 0 {
			e.Timeout = p.Timeout.String()
		}
		out = append(out, e)
	}
	return writeJSON(w, map[string][]entry{"profiles": out})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// sizeString renders n in binary units. A negative n is an unknown length.
func sizeString(n int64) string {
	if n < 0 {
		return "unknown size"
	}
	return humanize.IBytes(uint64(n))
}
