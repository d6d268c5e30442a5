// Package sqlite provides SQLite database writing for search results
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ChrisMcGann/xlsearch/pkg/core"
	"github.com/ChrisMcGann/xlsearch/pkg/search"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Date format for RunTable (ISO 8601)
const runDateFormat = "2006-01-02 15:04:05"

// RunInfo describes a finished run for RunTable.
type RunInfo struct {
	SpectraFile  string
	DatabaseFile string
	LinkerName   string
	LinkerMass   float64
	Parameters   string // settings as JSON
	Stats        search.Stats
}

// Writer handles writing search results to SQLite database files
type Writer struct {
	db           *sql.DB
	outputPath   string
	runID        string
	spectrumStmt *sql.Stmt
	matchStmt    *sql.Stmt
	annotStmt    *sql.Stmt
	spectrumID   int64
	matchID      int64
	closed       bool
}

// NewWriter creates a new SQLite writer. Every writer gets a fresh run ID.
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		runID:      uuid.New().String(),
		spectrumID: 1,
		matchID:    1,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.nextIDs(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// RunID returns the identifier stored with every row of this run.
func (w *Writer) RunID() string {
	return w.runID
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId TEXT PRIMARY KEY,
		CreationDate TEXT,
		SpectraFile TEXT,
		DatabaseFile TEXT,
		LinkerName TEXT,
		LinkerMass DOUBLE,
		Parameters TEXT,
		SpectraRead INTEGER,
		SpectraSearched INTEGER,
		SpectraSkipped INTEGER,
		Candidates INTEGER,
		DoubleEmissions INTEGER,
		TimedOut INTEGER,
		Matches INTEGER
	);

	CREATE TABLE IF NOT EXISTS SpectrumTable (
		SpectrumId INTEGER PRIMARY KEY,
		RunId TEXT REFERENCES RunTable(RunId),
		NativeId TEXT,
		SpectrumIndex INTEGER,
		ScanNumber INTEGER,
		RetentionTime DOUBLE,
		PrecursorMZ DOUBLE,
		Charge INTEGER,
		PrecursorMass DOUBLE,
		SourceFile TEXT,
		blobMass BLOB,
		blobIntensity BLOB
	);

	CREATE TABLE IF NOT EXISTS MatchTable (
		MatchId INTEGER PRIMARY KEY,
		SpectrumId INTEGER REFERENCES SpectrumTable(SpectrumId),
		Rank INTEGER,
		LinkType TEXT,
		Alpha TEXT,
		Beta TEXT,
		AlphaPos INTEGER,
		BetaPos INTEGER,
		Candidate TEXT,
		LinkerName TEXT,
		LinkerMass DOUBLE,
		CandidateMass DOUBLE,
		PrecursorCorrection INTEGER,
		PrecursorErrorPPM DOUBLE,
		Decoys INTEGER,
		Score DOUBLE,
		PreScore DOUBLE,
		PercentTIC DOUBLE,
		WeightedTIC DOUBLE,
		MatchOdds DOUBLE,
		MatchOddsAlpha DOUBLE,
		MatchOddsBeta DOUBLE,
		XCorrXLink DOUBLE,
		XCorrCommon DOUBLE,
		Intensity DOUBLE,
		IntensityAlpha DOUBLE,
		IntensityBeta DOUBLE,
		CommonMatched INTEGER,
		XLinkMatched INTEGER
	);

	CREATE TABLE IF NOT EXISTS AnnotationTable (
		MatchId INTEGER REFERENCES MatchTable(MatchId),
		Label TEXT,
		MZ DOUBLE,
		Intensity DOUBLE,
		Charge INTEGER
	);

	CREATE INDEX IF NOT EXISTS MatchSpectrumIndex ON MatchTable(SpectrumId);
	CREATE INDEX IF NOT EXISTS AnnotationMatchIndex ON AnnotationTable(MatchId);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// nextIDs continues numbering after rows of earlier runs in the same file
func (w *Writer) nextIDs() error {
	if err := w.db.QueryRow(`SELECT COALESCE(MAX(SpectrumId), 0) + 1 FROM SpectrumTable`).Scan(&w.spectrumID); err != nil {
		return fmt.Errorf("failed to read spectrum ids: %w", err)
	}
	if err := w.db.QueryRow(`SELECT COALESCE(MAX(MatchId), 0) + 1 FROM MatchTable`).Scan(&w.matchID); err != nil {
		return fmt.Errorf("failed to read match ids: %w", err)
	}
	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.spectrumStmt, err = w.db.Prepare(`
		INSERT INTO SpectrumTable (
			SpectrumId, RunId, NativeId, SpectrumIndex, ScanNumber, RetentionTime,
			PrecursorMZ, Charge, PrecursorMass, SourceFile, blobMass, blobIntensity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare spectrum statement: %w", err)
	}

	w.matchStmt, err = w.db.Prepare(`
		INSERT INTO MatchTable (
			MatchId, SpectrumId, Rank, LinkType, Alpha, Beta, AlphaPos, BetaPos,
			Candidate, LinkerName, LinkerMass, CandidateMass, PrecursorCorrection,
			PrecursorErrorPPM, Decoys, Score, PreScore, PercentTIC, WeightedTIC,
			MatchOdds, MatchOddsAlpha, MatchOddsBeta, XCorrXLink, XCorrCommon,
			Intensity, IntensityAlpha, IntensityBeta, CommonMatched, XLinkMatched
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare match statement: %w", err)
	}

	w.annotStmt, err = w.db.Prepare(`
		INSERT INTO AnnotationTable (MatchId, Label, MZ, Intensity, Charge)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare annotation statement: %w", err)
	}

	return nil
}

// WriteResult writes one searched spectrum with its ranked matches and
// their fragment annotations in a single transaction.
func (w *Writer) WriteResult(res search.Result) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	spec := res.Spectrum
	if err := w.writeSpectrum(tx, res.Index, spec); err != nil {
		return err
	}

	matchStmt := tx.Stmt(w.matchStmt)
	annotStmt := tx.Stmt(w.annotStmt)
	for _, m := range res.Matches {
		c := m.Candidate
		alpha := c.Alpha()
		beta, _ := c.Beta()
		posA, posB := c.Positions()
		t := m.Terms

		// Positions are stored 1-based, 0 when absent
		_, err := matchStmt.Exec(
			w.matchID,           // MatchId
			w.spectrumID,        // SpectrumId
			m.Rank,              // Rank
			c.Kind().String(),   // LinkType
			alpha.String(),      // Alpha
			beta.String(),       // Beta
			posA+1,              // AlphaPos
			posB+1,              // BetaPos
			c.String(),          // Candidate
			c.LinkerName,        // LinkerName
			c.LinkerMass,        // LinkerMass
			c.Mass(),            // CandidateMass
			c.Correction,        // PrecursorCorrection
			m.PrecursorErrorPPM, // PrecursorErrorPPM
			c.Decoys,            // Decoys
			m.Score,             // Score
			t.PreScore,          // PreScore
			t.PercentTIC,        // PercentTIC
			t.WeightedTIC,       // WeightedTIC
			t.MatchOdds,         // MatchOdds
			t.MatchOddsAlpha,    // MatchOddsAlpha
			t.MatchOddsBeta,     // MatchOddsBeta
			t.XCorrX,            // XCorrXLink
			t.XCorrC,            // XCorrCommon
			t.Intensity,         // Intensity
			t.IntensityAlpha,    // IntensityAlpha
			t.IntensityBeta,     // IntensityBeta
			t.CommonMatched,     // CommonMatched
			t.XLinkMatched,      // XLinkMatched
		)
		if err != nil {
			return fmt.Errorf("failed to insert match: %w", err)
		}

		for _, a := range m.Annotations {
			if _, err := annotStmt.Exec(w.matchID, a.Label, a.MZ, a.Intensity, a.Charge); err != nil {
				return fmt.Errorf("failed to insert annotation: %w", err)
			}
		}
		w.matchID++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit spectrum %s: %w", spec.Name(), err)
	}
	w.spectrumID++
	return nil
}

func (w *Writer) writeSpectrum(tx *sql.Tx, index int, spec *core.Spectrum) error {
	// Ensure peaks are sorted
	if !spec.ArePeaksSorted() {
		spec.SortPeaks()
	}

	// Encode peaks as binary blobs (little-endian float64)
	mzBlob := encodePeaksFloat64(spec.Peaks, true)   // m/z values
	intBlob := encodePeaksFloat64(spec.Peaks, false) // intensity values

	// Handle optional retention time
	var rt interface{} = nil
	if spec.RetentionTime != nil {
		rt = *spec.RetentionTime
	}

	_, err := tx.Stmt(w.spectrumStmt).Exec(
		w.spectrumID,         // SpectrumId
		w.runID,              // RunId
		spec.NativeID,        // NativeId
		index,                // SpectrumIndex
		spec.ScanNumber,      // ScanNumber
		rt,                   // RetentionTime
		spec.PrecursorMZ,     // PrecursorMZ
		spec.Charge,          // Charge
		spec.PrecursorMass(), // PrecursorMass
		spec.SourceFile,      // SourceFile
		mzBlob,               // blobMass
		intBlob,              // blobIntensity
	)
	if err != nil {
		return fmt.Errorf("failed to insert spectrum %s: %w", spec.Name(), err)
	}
	return nil
}

// encodePeaksFloat64 encodes peak data as little-endian float64 blob
func encodePeaksFloat64(peaks []core.Peak, useMZ bool) []byte {
	buf := make([]byte, len(peaks)*8)
	for i, peak := range peaks {
		var value float64
		if useMZ {
			value = peak.MZ
		} else {
			value = peak.Intensity
		}
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(value))
	}
	return buf
}

// DecodePeaksFloat64 decodes a blob written by the writer.
func DecodePeaksFloat64(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(blob))
	}
	values := make([]float64, len(blob)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return values, nil
}

// Finalize writes the run table row and closes the database
func (w *Writer) Finalize(info RunInfo) error {
	s := info.Stats
	_, err := w.db.Exec(`
		INSERT INTO RunTable (
			RunId, CreationDate, SpectraFile, DatabaseFile, LinkerName, LinkerMass,
			Parameters, SpectraRead, SpectraSearched, SpectraSkipped, Candidates,
			DoubleEmissions, TimedOut, Matches
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, w.runID, time.Now().Format(runDateFormat), info.SpectraFile, info.DatabaseFile,
		info.LinkerName, info.LinkerMass, info.Parameters, s.SpectraRead, s.Searched,
		s.Skipped(), s.Candidates, s.DoubleEmissions, s.TimedOut, s.Matches)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return w.Close()
}

// Close closes the prepared statements and the database. It is safe to
// call after Finalize.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	// Close prepared statements
	for _, stmt := range []*sql.Stmt{w.spectrumStmt, w.matchStmt, w.annotStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
