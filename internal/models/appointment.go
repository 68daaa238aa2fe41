package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Source column names of the appointments dataset
const (
	ColumnMonth = "appointment_month"
	ColumnMode  = "appointment_mode"
	ColumnCount = "count_of_appointments"
)

// MonthLayout is the display and JSON layout of a calendar month
const MonthLayout = "2006-01"

// monthLayouts are tried in order when parsing appointment_month values
var monthLayouts = []string{
	"2006-01-02",
	MonthLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2006/01",
}

// AppointmentRecord is one row of the appointments dataset.
// Month is truncated to the first day of the month in UTC and Season is
// derived from it when the record is built. Records are never mutated
// after load.
type AppointmentRecord struct {
	Month  time.Time `json:"appointment_month" db:"appointment_month"`
	Mode   string    `json:"appointment_mode" db:"appointment_mode"`
	Count  int64     `json:"count_of_appointments" db:"count_of_appointments"`
	Season Season    `json:"season" db:"-"`
}

// RawAppointmentRecord holds the unparsed cells of a source row.
// Row is 1-based with the header on row 1.
type RawAppointmentRecord struct {
	Row   int
	Month string
	Mode  string
	Count string
}

// ToRecord parses and validates the raw cells
func (r *RawAppointmentRecord) ToRecord() (*AppointmentRecord, error) {
	month, err := ParseMonth(r.Month)
	if err != nil {
		return nil, &DataFormatError{
			Row:     r.Row,
			Column:  ColumnMonth,
			Value:   r.Month,
			Message: "invalid date, expected YYYY-MM or YYYY-MM-DD",
		}
	}

	count, err := strconv.ParseInt(strings.TrimSpace(r.Count), 10, 64)
	if err != nil || count < 0 {
		return nil, &DataFormatError{
			Row:     r.Row,
			Column:  ColumnCount,
			Value:   r.Count,
			Message: "invalid count, expected a non-negative integer",
		}
	}

	return NewAppointmentRecord(month, r.Mode, count), nil
}

// NewAppointmentRecord builds a record, truncating the month and assigning its season
func NewAppointmentRecord(month time.Time, mode string, count int64) *AppointmentRecord {
	m := TruncateToMonth(month)
	return &AppointmentRecord{
		Month:  m,
		Mode:   mode,
		Count:  count,
		Season: SeasonForMonth(m.Month()),
	}
}

// ParseMonth parses a calendar date in any supported layout and truncates it to its month
func ParseMonth(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return TruncateToMonth(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable month %q", value)
}

// TruncateToMonth returns the first instant of t's month in UTC
func TruncateToMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ErrDatasetNotFound is wrapped by LoadError when the dataset path does not exist
var ErrDatasetNotFound = errors.New("dataset not found")

// DataFormatError reports a malformed source row
type DataFormatError struct {
	Row     int
	Column  string
	Value   string
	Message string
}

func (e *DataFormatError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d, column %s (%q): %s", e.Row, e.Column, e.Value, e.Message)
}

// IsTransient returns false as malformed data does not fix itself
func (e *DataFormatError) IsTransient() bool {
	return false
}

// LoadError wraps every failure to load the dataset. It is fatal at startup.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load dataset %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsTransient returns false; the operator has to fix the source
func (e *LoadError) IsTransient() bool {
	return false
}
