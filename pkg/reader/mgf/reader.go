// Package mgf provides a streaming reader for Mascot Generic Format peak lists
package mgf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/xlsearch/pkg/core"
)

const maxLineSize = 1 << 20

// Reader provides streaming access to MGF files
type Reader struct {
	scanner     *bufio.Scanner
	source      string
	lineNum     int
	index       int
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new MGF reader. source is recorded on every
// spectrum as its SourceFile.
func NewReader(r io.Reader, source string) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{
		scanner: scanner,
		source:  source,
	}
}

// Next advances to the next spectrum. Returns false when no more spectra or error.
func (r *Reader) Next() bool {
	r.currentSpec = nil

	spec, err := r.readSpectrum()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentSpec = spec
	r.index++
	return true
}

// Spectrum returns the current spectrum
func (r *Reader) Spectrum() *core.Spectrum {
	return r.currentSpec
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every remaining spectrum.
func (r *Reader) ReadAll() ([]*core.Spectrum, error) {
	var spectra []*core.Spectrum
	for r.Next() {
		spectra = append(spectra, r.Spectrum())
	}
	return spectra, r.Err()
}

// readSpectrum reads one BEGIN IONS ... END IONS block
func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	var spec *core.Spectrum

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") ||
			strings.HasPrefix(line, "!") || strings.HasPrefix(line, "/") {
			continue
		}

		switch {
		case line == "BEGIN IONS":
			if spec != nil {
				return nil, fmt.Errorf("line %d: BEGIN IONS inside an open spectrum", r.lineNum)
			}
			spec = &core.Spectrum{
				Index:        r.index,
				SourceFile:   r.source,
				SourceFormat: "mgf",
				Peaks:        []core.Peak{},
			}

		case line == "END IONS":
			if spec == nil {
				return nil, fmt.Errorf("line %d: END IONS without BEGIN IONS", r.lineNum)
			}
			if !spec.ArePeaksSorted() {
				spec.SortPeaks()
			}
			return spec, nil

		case spec == nil:
			// global parameters before the first spectrum

		case strings.Contains(line, "=") && !isNumberStart(line[0]):
			key, value, _ := strings.Cut(line, "=")
			if err := parseHeader(spec, strings.ToUpper(strings.TrimSpace(key)), strings.TrimSpace(value)); err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}

		default:
			peak, err := parsePeak(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			spec.Peaks = append(spec.Peaks, peak)
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if spec != nil {
		return nil, fmt.Errorf("line %d: missing END IONS for spectrum %s", r.lineNum, spec.Name())
	}
	return nil, io.EOF
}

func isNumberStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+'
}

// parseHeader applies one KEY=value line
func parseHeader(spec *core.Spectrum, key, value string) error {
	switch key {
	case "TITLE":
		spec.NativeID = value

	case "PEPMASS":
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return fmt.Errorf("empty PEPMASS")
		}
		mz, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("invalid PEPMASS '%s': %w", value, err)
		}
		spec.PrecursorMZ = mz

	case "CHARGE":
		z, err := ParseCharge(value)
		if err != nil {
			return err
		}
		spec.Charge = z

	case "RTINSECONDS":
		rt, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid RTINSECONDS '%s': %w", value, err)
		}
		spec.RetentionTime = &rt

	case "SCANS":
		first, _, _ := strings.Cut(value, "-")
		scan, err := strconv.Atoi(strings.TrimSpace(first))
		if err != nil {
			return fmt.Errorf("invalid SCANS '%s': %w", value, err)
		}
		spec.ScanNumber = scan
	}
	return nil
}

// ParseCharge parses an MGF charge such as "3+", "2-", "3" or
// "2+ and 3+". Only the first listed charge is used; the sign is dropped.
func ParseCharge(value string) (int, error) {
	fields := strings.Fields(strings.ReplaceAll(value, ",", " "))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty CHARGE")
	}
	s := strings.Trim(fields[0], "+-")
	z, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid CHARGE '%s': %w", value, err)
	}
	return z, nil
}

// parsePeak parses a peak line (format: "mz intensity [charge]")
func parsePeak(line string) (core.Peak, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return core.Peak{}, fmt.Errorf("invalid peak line '%s', expected 'mz intensity'", line)
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid m/z value '%s': %w", fields[0], err)
	}
	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid intensity value '%s': %w", fields[1], err)
	}

	peak := core.Peak{MZ: mz, Intensity: intensity}
	if len(fields) >= 3 {
		if z, err := ParseCharge(fields[2]); err == nil {
			peak.Charge = z
		}
	}
	return peak, nil
}
