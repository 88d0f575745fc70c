package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

const timeLayout = "2006-01-02 15:04:05"

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatList(w io.Writer, result *ListResult) error
	FormatInfo(w io.Writer, result *InfoResult) error
	FormatDone(w io.Writer, action, path string) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatUpload formats upload results as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.LocalPath, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Uploaded: %s (%s)\n", r.RemotePath, formatSize(r.Size))
			_, _ = fmt.Fprintf(w, "  ETag: %s\n", r.ETag)
		}
	}
	return nil
}

// FormatDownload formats download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if !f.Quiet {
		if result.LocalPath == "-" {
			_, _ = fmt.Fprintf(w, "Downloaded: %s (%s)\n", result.RemotePath, formatSize(result.Size))
		} else {
			_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", result.RemotePath, result.LocalPath, formatSize(result.Size))
		}
		_, _ = fmt.Fprintf(w, "  ETag: %s\n", result.ETag)
	}
	return nil
}

// FormatDelete formats delete results as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.Path, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Deleted: %s\n", r.Path)
		}
	}
	return nil
}

// FormatList formats list results as human-readable text. Directories are
// shown with a trailing "/".
func (f *HumanFormatter) FormatList(w io.Writer, result *ListResult) error {
	if len(result.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No entries found")
		return nil
	}

	maxPathLen := 4 // "PATH"
	for i := range result.Items {
		if n := len(displayPath(&result.Items[i])); n > maxPathLen {
			maxPathLen = n
		}
	}
	if maxPathLen > 60 {
		maxPathLen = 60
	}

	_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n", maxPathLen, "PATH", "SIZE", "MODIFIED")
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n", strings.Repeat("-", maxPathLen), strings.Repeat("-", 10), strings.Repeat("-", 19))

	var objects int
	for i := range result.Items {
		item := &result.Items[i]
		p := displayPath(item)
		if len(p) > maxPathLen {
			p = p[:maxPathLen-3] + "..."
		}

		size := "-"
		if item.Type == TypeObject {
			size = formatSize(item.Size)
			objects++
		}

		modified := ""
		if item.LastModified != nil {
			modified = item.LastModified.Format(timeLayout)
		}

		_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n", maxPathLen, p, size, modified)
	}

	dirs := len(result.Items) - objects
	_, _ = fmt.Fprintf(w, "\n%d director(ies), %d object(s) (%s total)\n", dirs, objects, formatSize(result.TotalSize()))

	return nil
}

func displayPath(item *EntryInfo) string {
	if item.Type == TypeDirectory {
		return item.Path + "/"
	}
	return item.Path
}

// FormatInfo formats object metadata as human-readable text.
func (f *HumanFormatter) FormatInfo(w io.Writer, result *InfoResult) error {
	_, _ = fmt.Fprintf(w, "Path:          %s\n", result.Path)
	if result.URI != "" {
		_, _ = fmt.Fprintf(w, "URI:           %s\n", result.URI)
	}
	_, _ = fmt.Fprintf(w, "Content-Type:  %s\n", result.ContentType)
	_, _ = fmt.Fprintf(w, "Size:          %s\n", formatSize(result.Size))
	_, _ = fmt.Fprintf(w, "ETag:          %s\n", result.ETag)
	if result.MD5 != "" {
		_, _ = fmt.Fprintf(w, "Content-MD5:   %s\n", result.MD5)
	}
	if result.LastModified != nil {
		_, _ = fmt.Fprintf(w, "Last-Modified: %s\n", result.LastModified.Format(timeLayout))
	}

	keys := make([]string, 0, len(result.Metadata))
	for k := range result.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "m-%s: %s\n", k, result.Metadata[k])
	}
	return nil
}

// FormatDone reports a completed mkdir or rmdir.
func (f *HumanFormatter) FormatDone(w io.Writer, action, path string) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "%s: %s\n", action, path)
	}
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	maxNameLen := 4    // "NAME"
	maxURLLen := 3     // "URL"
	maxAccountLen := 7 // "ACCOUNT"
	for i := range profiles {
		maxNameLen = max(maxNameLen, len(profiles[i].Name))
		maxURLLen = max(maxURLLen, len(profiles[i].URL))
		maxAccountLen = max(maxAccountLen, len(profiles[i].Account))
	}
	maxNameLen = min(maxNameLen, 20)
	maxURLLen = min(maxURLLen, 50)
	maxAccountLen = min(maxAccountLen, 20)

	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %-*s  %s\n", maxNameLen, "NAME", maxURLLen, "URL", maxAccountLen, "ACCOUNT", "KEY PATH")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s  %s\n",
		strings.Repeat("-", maxNameLen), strings.Repeat("-", maxURLLen), strings.Repeat("-", maxAccountLen), strings.Repeat("-", 20))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %-*s  %s\n",
			marker,
			maxNameLen, truncate(p.Name, maxNameLen),
			maxURLLen, truncate(p.URL, maxURLLen),
			maxAccountLen, truncate(p.Account, maxAccountLen),
			orUnset(p.KeyPath),
		)
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	_, _ = fmt.Fprintf(w, "Name:     %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "URL:      %s\n", orUnset(profile.URL))
	_, _ = fmt.Fprintf(w, "Account:  %s\n", orUnset(profile.Account))
	_, _ = fmt.Fprintf(w, "Key ID:   %s\n", orUnset(profile.KeyID))
	_, _ = fmt.Fprintf(w, "Key Path: %s\n", orUnset(profile.KeyPath))
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatUpload formats upload results as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	type jsonResult struct {
		LocalPath   string `json:"local_path"`
		RemotePath  string `json:"remote_path"`
		ContentType string `json:"content_type,omitempty"`
		ETag        string `json:"etag,omitempty"`
		MD5         string `json:"content_md5,omitempty"`
		Size        int64  `json:"size_bytes,omitempty"`
		Error       string `json:"error,omitempty"`
	}

	output := make([]jsonResult, len(results))
	for i := range results {
		r := &results[i]
		jr := jsonResult{
			LocalPath:  r.LocalPath,
			RemotePath: r.RemotePath,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		} else {
			jr.ContentType = r.ContentType
			jr.ETag = r.ETag
			jr.MD5 = r.MD5
			jr.Size = r.Size
		}
		output[i] = jr
	}

	return writeJSON(w, output)
}

// FormatDownload formats download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatDelete formats delete results as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	type jsonResult struct {
		Path    string `json:"path"`
		Deleted bool   `json:"deleted"`
		Error   string `json:"error,omitempty"`
	}

	output := struct {
		Results []jsonResult `json:"results"`
	}{
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		jr := jsonResult{
			Path:    r.Path,
			Deleted: r.Deleted,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output.Results[i] = jr
	}

	return writeJSON(w, output)
}

// FormatList formats list results as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, result *ListResult) error {
	return writeJSON(w, result)
}

// FormatInfo formats object metadata as JSON.
func (f *JSONFormatter) FormatInfo(w io.Writer, result *InfoResult) error {
	return writeJSON(w, result)
}

// FormatDone reports a completed mkdir or rmdir as JSON.
func (f *JSONFormatter) FormatDone(w io.Writer, action, path string) error {
	output := struct {
		Action string `json:"action"`
		Path   string `json:"path"`
	}{
		Action: action,
		Path:   path,
	}
	return writeJSON(w, output)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		output.Profiles[i] = toJSONProfile(profiles[i], profiles[i].Name == defaultName)
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	return writeJSON(w, toJSONProfile(profile, isDefault))
}

type jsonProfile struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Account string `json:"account"`
	KeyID   string `json:"key_id,omitempty"`
	KeyPath string `json:"key_path,omitempty"`
	Default bool   `json:"default"`
}

func toJSONProfile(p Profile, isDefault bool) jsonProfile {
	return jsonProfile{
		Name:    p.Name,
		URL:     p.URL,
		Account: p.Account,
		KeyID:   p.KeyID,
		KeyPath: p.KeyPath,
		Default: isDefault,
	}
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
