package mobility

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Column names of the schedule file header.
const (
	ColumnPersonID  = "person_id"
	ColumnPlaceName = "place_name"
	ColumnPlaceType = "place_type"
	ColumnDays      = "days"
	ColumnTimeStart = "time_start"
	ColumnTimeEnd   = "time_end"
	ColumnWeight    = "weight"
)

// DaySeparator separates weekday abbreviations in the days column.
const DaySeparator = "|"

var requiredColumns = []string{
	ColumnPersonID, ColumnPlaceName, ColumnPlaceType, ColumnDays,
	ColumnTimeStart, ColumnTimeEnd, ColumnWeight,
}

// FormatError reports a schedule file that cannot be loaded.
type FormatError struct {
	File   string
	Line   int
	Column string
	Reason string
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString(e.File)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %s", e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// Store indexes schedule entries by identity, keeping file row order.
type Store struct {
	entries map[string][]Entry
	order   []string
	count   int
}

// NewStore builds a store from entries in the given order.
func NewStore(entries []Entry) *Store {
	s := &Store{entries: make(map[string][]Entry)}
	for _, e := range entries {
		if _, ok := s.entries[e.Identity]; !ok {
			s.order = append(s.order, e.Identity)
		}
		s.entries[e.Identity] = append(s.entries[e.Identity], e)
		s.count++
	}
	return s
}

// Entries returns the entries of identity in row order.
func (s *Store) Entries(identity string) []Entry {
	return s.entries[identity]
}

// Identities returns identities in order of first appearance.
func (s *Store) Identities() []string {
	return s.order
}

// Len returns the total number of entries.
func (s *Store) Len() int {
	return s.count
}

// Load reads a schedule file. Files ending in .yaml or .yml are parsed as YAML,
// everything else as CSV with a header row.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schedule: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(f, path)
	default:
		return ParseCSV(f, path)
	}
}

// ParseCSV reads CSV schedule rows from r. name is used in error messages.
func ParseCSV(r io.Reader, name string) (*Store, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &FormatError{File: name, Line: 1, Reason: "missing header row"}
	}
	if err != nil {
		return nil, csvError(name, err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		index[col] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, &FormatError{File: name, Line: 1, Column: col, Reason: "missing required column"}
		}
	}

	var entries []Entry
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(name, err)
		}
		line, _ := reader.FieldPos(0)

		cell := func(col string) (string, bool) {
			i := index[col]
			if i >= len(record) {
				return "", false
			}
			return record[i], true
		}

		row := rawRow{}
		for _, col := range requiredColumns {
			v, ok := cell(col)
			if !ok {
				return nil, &FormatError{File: name, Line: line, Column: col, Reason: "missing value"}
			}
			row.set(col, v)
		}
		row.days = splitDays(row.daysRaw)

		entry, ferr := row.entry()
		if ferr != nil {
			ferr.File, ferr.Line = name, line
			return nil, ferr
		}
		entry.Line = line
		entries = append(entries, entry)
	}

	return NewStore(entries), nil
}

func csvError(name string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &FormatError{File: name, Line: pe.Line, Reason: pe.Err.Error()}
	}
	return fmt.Errorf("read schedule %s: %w", name, err)
}

// yamlRow mirrors the CSV columns. Days may be a list or a pipe-separated string.
type yamlRow struct {
	PersonID  string    `yaml:"person_id"`
	PlaceName string    `yaml:"place_name"`
	PlaceType string    `yaml:"place_type"`
	Days      yaml.Node `yaml:"days"`
	TimeStart string    `yaml:"time_start"`
	TimeEnd   string    `yaml:"time_end"`
	Weight    *string   `yaml:"weight"`
}

// ParseYAML reads a YAML document with a top-level "entries" list.
func ParseYAML(r io.Reader, name string) (*Store, error) {
	var doc struct {
		Entries []yaml.Node `yaml:"entries"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return NewStore(nil), nil
		}
		return nil, &FormatError{File: name, Reason: err.Error()}
	}

	entries := make([]Entry, 0, len(doc.Entries))
	for i := range doc.Entries {
		node := &doc.Entries[i]
		var y yamlRow
		if err := node.Decode(&y); err != nil {
			return nil, &FormatError{File: name, Line: node.Line, Reason: err.Error()}
		}

		row := rawRow{
			personID:  y.PersonID,
			placeName: y.PlaceName,
			placeType: y.PlaceType,
			timeStart: y.TimeStart,
			timeEnd:   y.TimeEnd,
		}
		if y.Weight != nil {
			row.weight = *y.Weight
		}
		switch y.Days.Kind {
		case yaml.SequenceNode:
			if err := y.Days.Decode(&row.days); err != nil {
				return nil, &FormatError{File: name, Line: y.Days.Line, Column: ColumnDays, Reason: err.Error()}
			}
			row.daysRaw = strings.Join(row.days, DaySeparator)
		case yaml.ScalarNode:
			row.daysRaw = y.Days.Value
			row.days = splitDays(y.Days.Value)
		}

		entry, ferr := row.entry()
		if ferr != nil {
			ferr.File, ferr.Line = name, node.Line
			return nil, ferr
		}
		entry.Line = node.Line
		entries = append(entries, entry)
	}

	return NewStore(entries), nil
}

// rawRow holds unvalidated cell values shared by the CSV and YAML readers.
type rawRow struct {
	personID  string
	placeName string
	placeType string
	daysRaw   string
	days      []string
	timeStart string
	timeEnd   string
	weight    string
}

func (r *rawRow) set(col, v string) {
	switch col {
	case ColumnPersonID:
		r.personID = v
	case ColumnPlaceName:
		r.placeName = v
	case ColumnPlaceType:
		r.placeType = v
	case ColumnDays:
		r.daysRaw = v
	case ColumnTimeStart:
		r.timeStart = v
	case ColumnTimeEnd:
		r.timeEnd = v
	case ColumnWeight:
		r.weight = v
	}
}

// entry validates the weight and times of the row. Other cells, weekday
// symbols included, are taken as-is.
func (r *rawRow) entry() (Entry, *FormatError) {
	weight, err := strconv.ParseFloat(strings.TrimSpace(r.weight), 64)
	if err != nil || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return Entry{}, &FormatError{Column: ColumnWeight, Reason: fmt.Sprintf("weight %q is not numeric", r.weight)}
	}

	start, err := ParseClock(r.timeStart)
	if err != nil {
		return Entry{}, &FormatError{Column: ColumnTimeStart, Reason: err.Error()}
	}
	end, err := ParseClock(r.timeEnd)
	if err != nil {
		return Entry{}, &FormatError{Column: ColumnTimeEnd, Reason: err.Error()}
	}

	return Entry{
		Identity:  r.personID,
		PlaceName: r.placeName,
		PlaceType: r.placeType,
		Days:      r.days,
		Start:     start,
		End:       end,
		Weight:    weight,
	}, nil
}

func splitDays(s string) []string {
	parts := strings.Split(s, DaySeparator)
	days := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			days = append(days, p)
		}
	}
	return days
}
