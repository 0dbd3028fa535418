package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/careboard/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const fixtureSchema = `
CREATE TABLE hospitals (
	facility_id   TEXT PRIMARY KEY,
	facility_name TEXT NOT NULL,
	city_town     TEXT NOT NULL,
	state         TEXT NOT NULL
);
CREATE TABLE measures (
	measure_id   TEXT PRIMARY KEY,
	measure_name TEXT NOT NULL
);
CREATE TABLE performance_data (
	performance_id       INTEGER PRIMARY KEY AUTOINCREMENT,
	facility_id          TEXT NOT NULL,
	measure_id           TEXT NOT NULL,
	score                REAL,
	denominator          REAL,
	performance_category TEXT
);`

// Category labels used by the fixture.
const (
	catSame   = "No Different Than the National Rate"
	catBetter = "Better Than the National Rate"
	catWorse  = "Worse Than the National Rate"
)

// fixture is a seeded sqlite database file.
//
//	CA: 12 hospitals, READM_30_HF averaging 14.37, one MORT record, one
//	    READM record without a score; no denominators.
//	TX: 21 hospitals, EDAC_30_HF scores 21..41, denominator 50 each.
//	NY: 20 hospitals, READM_30_HF score 30, denominator 200.
//	WA: 6 hospitals, READM_30_AMI on the tier boundaries 100..1001 with
//	    scores 1..6, plus four READM_X measures on WA01 scored 50..80.
type fixture struct {
	path string
	db   *sql.DB
}

func ptr[T any](v T) *T { return &v }

func newFixture() *fixture {
	dir, err := os.MkdirTemp("", "careboard-repo-*")
	if err != nil {
		panic(err)
	}
	path := filepath.Join(dir, "fixture.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		panic(err)
	}
	f := &fixture{path: path, db: db}
	f.exec(fixtureSchema)
	f.seed()
	return f
}

func (f *fixture) exec(stmt string, args ...any) {
	if _, err := f.db.Exec(stmt, args...); err != nil {
		panic(fmt.Sprintf("fixture exec %q: %v", stmt, err))
	}
}

func (f *fixture) hospital(id, name, city, state string) {
	f.exec(`INSERT INTO hospitals(facility_id, facility_name, city_town, state) VALUES(?,?,?,?)`, id, name, city, state)
}

func (f *fixture) measure(id, name string) {
	f.exec(`INSERT INTO measures(measure_id, measure_name) VALUES(?,?)`, id, name)
}

func (f *fixture) record(facility, measure string, score, denominator *float64, category *string) {
	f.exec(`INSERT INTO performance_data(facility_id, measure_id, score, denominator, performance_category) VALUES(?,?,?,?,?)`,
		facility, measure, score, denominator, category)
}

func (f *fixture) seed() {
	f.measure("READM_30_HF", "Heart failure 30-day readmission")
	f.measure("READM_30_AMI", "Heart attack 30-day readmission")
	f.measure("EDAC_30_HF", "Heart failure excess days in acute care")
	f.measure("MORT_30_HF", "Heart failure 30-day mortality")
	for i := 1; i <= 4; i++ {
		f.measure(fmt.Sprintf("READM_X%d", i), fmt.Sprintf("Readmission X%d", i))
	}

	for i := 1; i <= 12; i++ {
		id := fmt.Sprintf("CA%02d", i)
		f.hospital(id, "California Hospital "+id, "Fresno", "CA")
		score := 14.0
		if i == 12 {
			score = 18.44
		}
		cat := catSame
		switch {
		case i >= 11:
			cat = catWorse
		case i >= 7:
			cat = catBetter
		}
		f.record(id, "READM_30_HF", ptr(score), nil, ptr(cat))
	}
	f.record("CA01", "MORT_30_HF", ptr(99.0), nil, ptr(catSame))
	f.record("CA03", "READM_30_AMI", nil, ptr(300.0), nil)

	for i := 1; i <= 21; i++ {
		id := fmt.Sprintf("TX%02d", i)
		f.hospital(id, "Texas Hospital "+id, "Austin", "TX")
		f.record(id, "EDAC_30_HF", ptr(20.0+float64(i)), ptr(50.0), nil)
	}

	for i := 1; i <= 20; i++ {
		id := fmt.Sprintf("NY%02d", i)
		f.hospital(id, "New York Hospital "+id, "Albany", "NY")
		f.record(id, "READM_30_HF", ptr(30.0), ptr(200.0), ptr(catSame))
	}

	for i, d := range []float64{100, 101, 500, 501, 1000, 1001} {
		id := fmt.Sprintf("WA%02d", i+1)
		f.hospital(id, "Washington Hospital "+id, "Seattle", "WA")
		f.record(id, "READM_30_AMI", ptr(float64(i+1)), ptr(d), nil)
	}
	for i := 1; i <= 4; i++ {
		f.record("WA01", fmt.Sprintf("READM_X%d", i), ptr(40.0+10*float64(i)), nil, nil)
	}
}

// store opens the fixture through the Query Layer.
func (f *fixture) store(opts ...Option) *SQLStore {
	s, err := Open(context.Background(), Config{Driver: "sqlite", Name: f.path}, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func (f *fixture) close() {
	_ = f.db.Close()
	_ = os.RemoveAll(filepath.Dir(f.path))
}
