// Package record captures per-frame body snapshots for offline
// rendering: an sqlite sink for queryable output and a compressed gob
// chunk store for bulk playback.
package record

import (
	"database/sql"
	"fmt"
	"math"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quillaja/gravity"
)

/*

all coordinates are rounded before insert: sqlite stores small-enough
REALs as integers, which roughly halves the file. only one writer at a
time is useful since sqlite allows a single write transaction.

*/

const schema = `
CREATE TABLE bodies (
	frame 	INTEGER,
	id 		INTEGER, -- body slot
	x 		REAL,
	y 		REAL,
	z 		REAL,
	mass 	REAL,
	radius 	REAL);
`

const indices = `
CREATE INDEX idx_frame ON bodies (frame, id);
CREATE INDEX idx_id ON bodies (id);
CREATE INDEX idx_mass ON bodies (mass);
`

const insert = `INSERT INTO bodies VALUES (?, ?, ?, ?, ?, ?, ?);`

// DB is an sqlite frame sink. one frame is one transaction.
type DB struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// OpenDB creates and initializes an sqlite frame sink at filename. an
// existing file is refused rather than appended to.
func OpenDB(filename string) (*DB, error) {
	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("record: %s exists", filename)
	}
	// journaling and fsync are off: the file is derived output.
	db, err := sql.Open("sqlite3", "file:"+filename+"?_journal_mode=OFF&_synchronous=OFF")
	if err != nil {
		return nil, fmt.Errorf("record: open %s: %w", filename, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("record: create schema: %w", err)
	}
	stmt, err := db.Prepare(insert)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("record: prepare insert: %w", err)
	}
	return &DB{db: db, stmt: stmt}, nil
}

// WriteFrame appends one frame of snapshots.
func (d *DB) WriteFrame(frame int, bodies []gravity.Snapshot) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("record: begin frame %d: %w", frame, err)
	}

	st := tx.Stmt(d.stmt)
	for _, b := range bodies {
		_, err = st.Exec(
			frame,
			b.ID,
			math.Round(b.Pos[0]),
			math.Round(b.Pos[1]),
			math.Round(b.Pos[2]),
			math.Round(b.Mass),
			math.Round(b.Radius))
		if err != nil {
			break
		}
	}
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("record: frame %d: %w", frame, err)
	}
	return tx.Commit()
}

// Close builds the query indices and releases the database. indices are
// deferred to close so inserts stay cheap.
func (d *DB) Close() error {
	d.stmt.Close()
	if _, err := d.db.Exec(indices); err != nil {
		d.db.Close()
		return fmt.Errorf("record: create indices: %w", err)
	}
	return d.db.Close()
}
