package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const migrationUpTemplate = `-- {{.Name}}
-- created {{.Timestamp}}

`

const migrationDownTemplate = `-- rollback {{.Name}}
-- created {{.Timestamp}}

`

// versionWidth is the zero padding of sequential migration versions (000001)
const versionWidth = 6

// Entry is one migration version found in a directory
type Entry struct {
	Version uint
	Name    string
	HasUp   bool
	HasDown bool
}

// BaseName is the file stem shared by the up and down files
func (e Entry) BaseName() string {
	return fmt.Sprintf("%0*d_%s", versionWidth, e.Version, e.Name)
}

// MigrationFile describes a freshly created up/down pair
type MigrationFile struct {
	Version   uint
	Name      string
	Timestamp string
	UpPath    string
	DownPath  string
}

// CreateMigration writes an empty up/down pair numbered one past the highest
// existing version in migrationsDir.
func CreateMigration(migrationsDir, name string) (*MigrationFile, error) {
	clean := sanitizeName(name)
	if clean == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	entries, err := ListMigrations(os.DirFS(migrationsDir))
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if len(entries) > 0 {
		next = entries[len(entries)-1].Version + 1
	}

	entry := Entry{Version: next, Name: clean}
	mf := &MigrationFile{
		Version:   next,
		Name:      clean,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		UpPath:    filepath.Join(migrationsDir, entry.BaseName()+".up.sql"),
		DownPath:  filepath.Join(migrationsDir, entry.BaseName()+".down.sql"),
	}

	if err := writeFromTemplate(mf.UpPath, migrationUpTemplate, mf); err != nil {
		return nil, fmt.Errorf("create up migration: %w", err)
	}
	if err := writeFromTemplate(mf.DownPath, migrationDownTemplate, mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("create down migration: %w", err)
	}
	return mf, nil
}

func writeFromTemplate(path, tmplContent string, data *MigrationFile) error {
	tmpl, err := template.New("migration").Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create file %s: %w", path, err)
	}
	defer f.Close()
	return tmpl.Execute(f, data)
}

func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// ListMigrations returns the versions in fsys sorted ascending.
// Files that do not follow NNNNNN_name.(up|down).sql are ignored.
func ListMigrations(fsys fs.FS) ([]Entry, error) {
	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	byVersion := make(map[uint]*Entry)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		version, name, direction, ok := parseFileName(file.Name())
		if !ok {
			continue
		}
		e, exists := byVersion[version]
		if !exists {
			e = &Entry{Version: version, Name: name}
			byVersion[version] = e
		}
		switch direction {
		case "up":
			e.HasUp = true
		case "down":
			e.HasDown = true
		}
	}

	entries := make([]Entry, 0, len(byVersion))
	for _, e := range byVersion {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Version < entries[j].Version })
	return entries, nil
}

// CheckPairs fails when a version misses its up or down file, or when
// versions are not contiguous from 1.
func CheckPairs(fsys fs.FS) error {
	entries, err := ListMigrations(fsys)
	if err != nil {
		return err
	}
	for i, e := range entries {
		if !e.HasUp || !e.HasDown {
			return fmt.Errorf("migration %s is missing its up or down file", e.BaseName())
		}
		if e.Version != uint(i+1) {
			return fmt.Errorf("migration %s breaks the version sequence, expected %d", e.BaseName(), i+1)
		}
	}
	return nil
}

func parseFileName(file string) (uint, string, string, bool) {
	var direction string
	switch {
	case strings.HasSuffix(file, ".up.sql"):
		direction = "up"
	case strings.HasSuffix(file, ".down.sql"):
		direction = "down"
	default:
		return 0, "", "", false
	}
	stem := strings.TrimSuffix(file, "."+direction+".sql")
	rawVersion, name, found := strings.Cut(stem, "_")
	if !found || name == "" {
		return 0, "", "", false
	}
	version, err := strconv.ParseUint(rawVersion, 10, 32)
	if err != nil {
		return 0, "", "", false
	}
	return uint(version), name, direction, true
}
