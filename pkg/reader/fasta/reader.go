// Package fasta provides a streaming reader for protein FASTA databases
package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ChrisMcGann/xlsearch/pkg/index"
)

// Record is one FASTA entry.
type Record struct {
	ID          string // first word of the header
	Description string // rest of the header
	Sequence    string // upper-case residues, whitespace removed
}

// Protein converts the record for the peptide index.
func (r Record) Protein() index.Protein {
	return index.Protein{ID: r.ID, Sequence: r.Sequence}
}

// Reader provides streaming access to FASTA files
type Reader struct {
	r       *bufio.Reader
	lineNum int
	header  string // header of the next record, already consumed
	current Record
	err     error
	done    bool
}

// NewReader creates a new FASTA reader
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next advances to the next record. Returns false when no more records or error.
func (r *Reader) Next() bool {
	if r.done || r.err != nil {
		return false
	}

	var seq bytes.Buffer
	for {
		line, err := r.r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			r.err = err
			return false
		}
		eof := err == io.EOF
		if len(line) > 0 {
			r.lineNum++
		}
		line = bytes.TrimSpace(line)

		switch {
		case len(line) > 0 && line[0] == '>':
			if r.header != "" {
				r.emit(&seq)
				r.header = string(line[1:])
				return true
			}
			r.header = string(line[1:])
			if strings.TrimSpace(r.header) == "" {
				r.err = fmt.Errorf("line %d: empty FASTA header", r.lineNum)
				return false
			}

		case len(line) > 0 && line[0] == ';':
			// comment

		case len(line) > 0:
			if r.header == "" {
				r.err = fmt.Errorf("line %d: sequence data before the first header", r.lineNum)
				return false
			}
			for _, c := range bytes.ToUpper(line) {
				if c != ' ' && c != '\t' {
					seq.WriteByte(c)
				}
			}
		}

		if eof {
			r.done = true
			if r.header == "" {
				return false
			}
			r.emit(&seq)
			r.header = ""
			return true
		}
	}
}

func (r *Reader) emit(seq *bytes.Buffer) {
	id, desc, _ := strings.Cut(strings.TrimSpace(r.header), " ")
	r.current = Record{
		ID:          id,
		Description: strings.TrimSpace(desc),
		Sequence:    strings.TrimSuffix(seq.String(), "*"),
	}
}

// Record returns the current record
func (r *Reader) Record() Record {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadProteins reads every remaining record as an index protein.
func (r *Reader) ReadProteins() ([]index.Protein, error) {
	var proteins []index.Protein
	for r.Next() {
		proteins = append(proteins, r.Record().Protein())
	}
	return proteins, r.Err()
}

// Open opens a FASTA file for reading. Paths ending in .gz are
// decompressed and "-" reads standard input.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, err
		}
		return struct {
			io.Reader
			io.Closer
		}{Reader: gr, Closer: fh}, nil
	}
	return fh, nil
}
