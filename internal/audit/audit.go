package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/heinergc/sqlconn/internal/utils"
)

// Operation names.
const (
	OpAdd     = "add"
	OpEdit    = "edit"
	OpDelete  = "delete"
	OpTest    = "test"
	OpTestAll = "test-all"
	OpRepair  = "repair"
	OpMigrate = "migrate"
	OpReport  = "report"
	OpQuery   = "query"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // OS user running sqlconn.
	Host      string `json:"host"`
	Operation string `json:"op"`

	// Optional fields depending on operation.
	ProfileID   string `json:"profile_id,omitempty"`
	ProfileName string `json:"profile_name,omitempty"`
	Server      string `json:"server,omitempty"`
	Success     *bool  `json:"success,omitempty"`  // For test.
	Category    string `json:"category,omitempty"` // For test.
	Succeeded   int    `json:"succeeded,omitempty"`
	Failed      int    `json:"failed,omitempty"`
	Skipped     int    `json:"skipped,omitempty"`
	Changed     int    `json:"changed,omitempty"` // For migrate/repair.
	OutputPath  string `json:"output_path,omitempty"`
}

// NewEntry returns an entry for op with user and host filled in.
func NewEntry(op string) Entry {
	entry := Entry{Operation: op}
	if user, err := utils.GetUsername(); err == nil {
		entry.User = user
	}
	if host, err := utils.GetHostname(); err == nil {
		entry.Host = host
	}
	return entry
}

// Trail is an append-only audit log file.
type Trail struct {
	Path string
}

// Log appends an entry to the audit log. Failures are ignored.
func (t Trail) Log(entry Entry) {
	if t.Path == "" {
		return
	}

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	if err := os.MkdirAll(filepath.Dir(t.Path), 0700); err != nil {
		return
	}

	f, err := os.OpenFile(t.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func (t Trail) ReadEntries() ([]Entry, error) {
	if t.Path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(t.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// Bool returns a pointer for Entry.Success.
func Bool(v bool) *bool {
	return &v
}
