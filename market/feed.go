package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// BarFeed yields bars one at a time. Implementations return (ok=false, err=nil) at EOF.
type BarFeed interface {
	Next() (b Bar, ok bool, err error)
	Close() error
}

// CSVBarFeed reads bar rows:
//
//	time,open,high,low,close[,volume]
//
// time may be RFC3339, RFC3339Nano, unix seconds, or a zone-less
// "2006-01-02 15:04:05" which is read in the feed's location.
//
// A single header row is allowed. Empty rows are skipped, short or
// unparsable rows are errors.
type CSVBarFeed struct {
	f    *os.File
	r    *csv.Reader
	loc  *time.Location
	from time.Time
	to   time.Time
	line int

	sawFirst bool
}

func NewCSVBarFeed(path string, loc *time.Location, from, to time.Time) (*CSVBarFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	return &CSVBarFeed{f: f, r: r, loc: loc, from: from, to: to}, nil
}

func (f *CSVBarFeed) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *CSVBarFeed) Next() (Bar, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return Bar{}, false, nil
		}
		if err != nil {
			return Bar{}, false, err
		}
		f.line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		if !f.sawFirst {
			f.sawFirst = true
			if isHeader(row[0]) {
				continue
			}
		}

		b, err := parseBarRow(row, f.loc)
		if err != nil {
			return Bar{}, false, fmt.Errorf("line %d: %w", f.line, err)
		}
		if !inRange(b.Time, f.from, f.to) {
			continue
		}
		return b, true, nil
	}
}

// ReadAll drains a feed, converts the bars into loc and validates the result.
func ReadAll(feed BarFeed, loc *time.Location) (Series, error) {
	defer feed.Close()

	var bars []Bar
	for {
		b, ok, err := feed.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		bars = append(bars, b)
	}

	s := Normalize(bars, loc)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadCSV reads the bars of a file that fall in [from, to] into a validated
// series in loc. Zero bounds are open.
func LoadCSV(path string, loc *time.Location, from, to time.Time) (Series, error) {
	feed, err := NewCSVBarFeed(path, loc, from, to)
	if err != nil {
		return nil, fmt.Errorf("open bars %s: %w", path, err)
	}
	s, err := ReadAll(feed, loc)
	if err != nil {
		return nil, fmt.Errorf("load bars %s: %w", path, err)
	}
	return s, nil
}

func isHeader(first string) bool {
	switch strings.ToLower(strings.TrimSpace(first)) {
	case "time", "date", "datetime", "timestamp":
		return true
	}
	return false
}

func parseBarRow(row []string, loc *time.Location) (Bar, error) {
	if len(row) < 5 {
		return Bar{}, fmt.Errorf("need time,open,high,low,close; got %d columns", len(row))
	}

	t, err := ParseTime(row[0], loc)
	if err != nil {
		return Bar{}, err
	}

	var px [4]float64
	names := [4]string{"open", "high", "low", "close"}
	for i := range px {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad %s %q: %w", names[i], row[i+1], err)
		}
		px[i] = v
	}

	b := Bar{Time: t, Open: px[0], High: px[1], Low: px[2], Close: px[3]}
	if b.High < b.Low {
		return Bar{}, fmt.Errorf("high %v below low %v", b.High, b.Low)
	}

	if len(row) > 5 && strings.TrimSpace(row[5]) != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad volume %q: %w", row[5], err)
		}
		b.Volume = v
	}
	return b, nil
}

var localLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
}

// ParseTime accepts RFC3339(Nano), unix seconds, or a zone-less local layout
// interpreted in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05-07:00", s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).In(loc), nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
