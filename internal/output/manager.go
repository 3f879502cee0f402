package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/fatih/color"

	"github.com/purehate/wordUP/internal/storage"
)

// Wordlist kinds written for every run
const (
	ListRaw           = "raw"
	ListComprehensive = "comprehensive"
	ListFinal         = "final"
	ListEmails        = "emails"
	ListGroups        = "groups"
	ListMetadata      = "metadata"

	// ListNew holds final words absent from earlier runs; written only
	// when the run database is enabled
	ListNew = "new"
)

// Lists is the fixed order files are written in
var Lists = []string{ListRaw, ListComprehensive, ListFinal, ListEmails, ListGroups, ListMetadata}

// Manager handles the project directory of one run
type Manager struct {
	projectDir string
	prefix     string
	runID      string
	store      *storage.LocalStorage
	files      map[string]string

	// SQLite storage (optional)
	sqliteDB *storage.SQLiteStorage
}

// NewManager creates a fresh project directory under baseDir for company.
// Files are prefixed with the company name and the run timestamp.
func NewManager(baseDir, company string, started time.Time) (*Manager, error) {
	dir, err := ProjectDir(baseDir, company)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create project directory: %w", err)
	}
	return &Manager{
		projectDir: dir,
		prefix:     fmt.Sprintf("%s_%s", safeName(company), started.Format("20060102_150405")),
		runID:      storage.GenerateRunID(),
		store:      storage.NewLocalStorage(dir),
		files:      make(map[string]string),
	}, nil
}

// NewManagerWithSQLite also opens the run database in baseDir, shared by every
// run written there. A database failure is reported and the run continues
// with files only.
func NewManagerWithSQLite(baseDir, company string, started time.Time) (*Manager, error) {
	m, err := NewManager(baseDir, company, started)
	if err != nil {
		return nil, err
	}
	db, err := storage.NewSQLiteStorage(baseDir)
	if err != nil {
		color.Yellow("[!] SQLite initialization failed: %v (using file storage only)", err)
		return m, nil
	}
	m.sqliteDB = db
	return m, nil
}

// ProjectDir returns a directory name under baseDir that does not exist yet:
// wordup_<company>, then wordup_<company>_1, wordup_<company>_2 and so on.
func ProjectDir(baseDir, company string) (string, error) {
	base := filepath.Join(baseDir, "wordup_"+safeName(company))
	dir := base
	for i := 1; ; i++ {
		_, err := os.Stat(dir)
		if os.IsNotExist(err) {
			return dir, nil
		}
		if err != nil {
			return "", err
		}
		dir = fmt.Sprintf("%s_%d", base, i)
	}
}

// safeName keeps letters, digits, '-' and '_' so the company can be a path
func safeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "target"
	}
	return b.String()
}

// Dir returns the project directory
func (m *Manager) Dir() string { return m.projectDir }

// RunID returns the identifier of this run
func (m *Manager) RunID() string { return m.runID }

// HasSQLite returns true if SQLite storage is enabled
func (m *Manager) HasSQLite() bool { return m.sqliteDB != nil }

// SQLiteDB returns the SQLite storage instance (may be nil)
func (m *Manager) SQLiteDB() *storage.SQLiteStorage { return m.sqliteDB }

// Close closes the SQLite connection if open
func (m *Manager) Close() error {
	if m.sqliteDB != nil {
		return m.sqliteDB.Close()
	}
	return nil
}

// SaveList writes one wordlist, one entry per line, and returns its path
func (m *Manager) SaveList(ctx context.Context, kind string, words []string) (string, error) {
	name := fmt.Sprintf("%s_%s.txt", m.prefix, kind)
	if err := m.store.WriteLines(ctx, name, words); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	path := filepath.Join(m.projectDir, name)
	m.files[kind] = path
	return path, nil
}

// SaveStats writes the run statistics as JSON and returns its path
func (m *Manager) SaveStats(ctx context.Context, stats interface{}) (string, error) {
	name := m.prefix + "_stats.json"
	if err := m.store.WriteJSON(ctx, name, stats); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	path := filepath.Join(m.projectDir, name)
	m.files["stats"] = path
	return path, nil
}

// Files returns the written artifacts by kind
func (m *Manager) Files() map[string]string {
	out := make(map[string]string, len(m.files))
	for k, v := range m.files {
		out[k] = v
	}
	return out
}

// PrintFiles lists the written artifacts in a stable order
func (m *Manager) PrintFiles(w io.Writer) {
	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	files := m.Files()
	kinds := make([]string, 0, len(files))
	for k := range files {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	green.Fprintf(w, "[+] Results saved to %s\n", m.projectDir)
	for _, k := range kinds {
		gray.Fprintf(w, "    %-14s %s\n", k, filepath.Base(files[k]))
	}
	if m.sqliteDB != nil {
		gray.Fprintf(w, "    %-14s %s\n", "database", m.sqliteDB.Path())
	}
}
