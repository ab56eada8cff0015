package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Meta is the header line of a table file
type Meta struct {
	Key
	RunID   string    `json:"run_id"`
	Rows    int       `json:"rows"`
	Cols    int       `json:"cols"`
	Created time.Time `json:"created"`
}

// WriteTable writes meta and m to w
func WriteTable(w io.Writer, meta Meta, m *mat.Dense) error {
	meta.Rows, meta.Cols = m.Dims()
	header, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode table header: %w", err)
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(append(header, '\n')); err != nil {
		return fmt.Errorf("failed to write table header: %w", err)
	}
	if _, err := m.MarshalBinaryTo(bw); err != nil {
		return fmt.Errorf("failed to write table data: %w", err)
	}
	return bw.Flush()
}

// ReadTable reads a table written by WriteTable
func ReadTable(r io.Reader) (Meta, *mat.Dense, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return Meta{}, nil, fmt.Errorf("%w: missing header: %v", ErrCorruptFile, err)
	}
	var meta Meta
	if err := json.Unmarshal(line, &meta); err != nil {
		return Meta{}, nil, fmt.Errorf("%w: bad header: %v", ErrCorruptFile, err)
	}

	var m mat.Dense
	if _, err := m.UnmarshalBinaryFrom(br); err != nil {
		return Meta{}, nil, fmt.Errorf("%w: bad table data: %v", ErrCorruptFile, err)
	}
	if r, c := m.Dims(); r != meta.Rows || c != meta.Cols {
		return Meta{}, nil, fmt.Errorf("%w: header says %dx%d, data is %dx%d", ErrCorruptFile, meta.Rows, meta.Cols, r, c)
	}
	return meta, &m, nil
}

// writeFile writes the table to path through a temporary file so a failed
// save never leaves a truncated table behind
func writeFile(path string, meta Meta, m *mat.Dense) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create table file: %w", err)
	}
	if err := WriteTable(f, meta, m); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close table file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move table file into place: %w", err)
	}
	return nil
}

func readFile(path string) (Meta, *mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return Meta{}, nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer f.Close()
	return ReadTable(f)
}
