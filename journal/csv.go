package journal

import (
	"encoding/csv"
	"io"
	"os"
)

// CSVStore keeps the log as a single CSV file with a header row.
type CSVStore struct {
	fileStore
	schema Schema
}

func NewCSV(path string, schema Schema) *CSVStore {
	return &CSVStore{fileStore: fileStore{path: path}, schema: schema}
}

func (s *CSVStore) Load() (Log, error) {
	ok, err := s.exists()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, unreadable(s.path, err)
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, unreadable(s.path, err)
	}

	l, err := decodeRows(header, rows, parseDate)
	if err != nil {
		return nil, unreadable(s.path, err)
	}
	return l.Sorted(), nil
}

func (s *CSVStore) Save(l Log) error {
	cols := s.schema.Columns()
	return atomicWrite(s.path, func(tmp string) error {
		tf, err := os.Create(tmp)
		if err != nil {
			return err
		}

		w := csv.NewWriter(tf)
		if err := w.Write(cols); err != nil {
			tf.Close()
			return err
		}
		for _, t := range l {
			if err := w.Write(record(t, cols)); err != nil {
				tf.Close()
				return err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			tf.Close()
			return err
		}
		return tf.Close()
	})
}
