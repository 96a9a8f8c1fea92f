package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// Store reads and appends expense records to a CSV file.
// It assumes a single writer; no locking is performed.
type Store struct {
	path       string
	categories []string
}

func NewStore(path string, categories []string) *Store {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	return &Store{path: path, categories: slices.Clone(categories)}
}

func (s *Store) Path() string {
	return s.path
}

// Categories returns the closed category set enforced on append.
func (s *Store) Categories() []string {
	return slices.Clone(s.categories)
}

// Load returns the persisted records in insertion order. The boolean is false
// when the ledger does not exist yet or holds no rows; that is not an error.
func (s *Store) Load() ([]Record, bool, error) {
	rows, err := s.readRows()
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		record, err := parseRow(row)
		if err != nil {
			// +2: one for the header, one for 1-based lines
			return nil, false, fmt.Errorf("ledger %s line %d: %w", s.path, i+2, err)
		}
		records = append(records, record)
	}
	return records, true, nil
}

// Append validates record and rewrites the ledger with the record added at
// the end. Existing rows are written back untouched.
func (s *Store) Append(record Record) error {
	if err := record.Validate(s.categories); err != nil {
		return err
	}

	rows, err := s.readRows()
	if err != nil {
		return err
	}
	rows = append(rows, record.Row())

	return s.writeRows(rows)
}

// readRows returns the data rows of the ledger, without the header.
func (s *Store) readRows() ([][]string, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(Columns)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger header: %w", err)
	}
	if !slices.Equal(header, Columns) {
		return nil, fmt.Errorf("ledger %s has header %v, expected %v", s.path, header, Columns)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger rows: %w", err)
	}
	return rows, nil
}

// writeRows replaces the ledger through a temp file and a rename so a failed
// write never leaves a truncated ledger behind.
func (s *Store) writeRows(rows [][]string) (err error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*.csv")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod temp ledger: %w", err)
	}

	writer := csv.NewWriter(tmp)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("write ledger rows: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
