package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/okian/careboard/internal/domain/model"
	"github.com/okian/careboard/internal/domain/tiering"
	"github.com/okian/careboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSQLStoreKPIs(t *testing.T) {
	Convey("Given a seeded analytics database", t, func() {
		fx := newFixture()
		s := fx.store()
		ctx := context.Background()
		Reset(func() {
			_ = s.Close()
			fx.close()
		})

		Convey("CountHospitals counts every facility nationally", func() {
			res := s.CountHospitals(ctx, types.Filter{})
			So(res.Err, ShouldBeNil)
			n, ok := res.First()
			So(ok, ShouldBeTrue)
			So(n, ShouldEqual, 59)
		})

		Convey("CountHospitals honours the state filter", func() {
			n, _ := s.CountHospitals(ctx, types.ForState("ca")).First()
			So(n, ShouldEqual, 12)
		})

		Convey("AverageReadmissionScore averages scored READM and EDAC records", func() {
			res := s.AverageReadmissionScore(ctx, types.ForState("CA"))
			So(res.Err, ShouldBeNil)
			avg, ok := res.First()
			So(ok, ShouldBeTrue)
			So(avg.Valid, ShouldBeTrue)
			So(avg.Value, ShouldAlmostEqual, 14.37, 0.001)
		})

		Convey("An unknown state yields zero hospitals and no average", func() {
			n, _ := s.CountHospitals(ctx, types.ForState("ZZ")).First()
			So(n, ShouldEqual, 0)

			res := s.AverageReadmissionScore(ctx, types.ForState("ZZ"))
			So(res.Err, ShouldBeNil)
			avg, ok := res.First()
			So(ok, ShouldBeTrue)
			So(avg.Valid, ShouldBeFalse)
		})
	})
}

func TestSQLStoreRankings(t *testing.T) {
	Convey("Given a seeded analytics database", t, func() {
		fx := newFixture()
		s := fx.store()
		ctx := context.Background()
		Reset(func() {
			_ = s.Close()
			fx.close()
		})

		Convey("WorstMeasures returns at most five measures, highest average first", func() {
			res := s.WorstMeasures(ctx, types.Filter{})
			So(res.Err, ShouldBeNil)
			So(len(res.Rows), ShouldEqual, 5)

			names := make([]string, 0, len(res.Rows))
			for i, r := range res.Rows {
				names = append(names, r.MeasureName)
				if i > 0 {
					So(r.AverageScore, ShouldBeLessThanOrEqualTo, res.Rows[i-1].AverageScore)
				}
			}
			So(names, ShouldResemble, []string{
				"Readmission X4", "Readmission X3", "Readmission X2", "Readmission X1",
				"Heart failure excess days in acute care",
			})
			So(res.Rows[4].NumberOfHospitalsReporting, ShouldEqual, 21)
			So(res.Rows[4].AverageScore, ShouldAlmostEqual, 31, 0.001)
		})

		Convey("WorstMeasures excludes unscored and non-readmission records", func() {
			res := s.WorstMeasures(ctx, types.ForState("CA"))
			So(res.Err, ShouldBeNil)
			So(res.Rows, ShouldHaveLength, 1)
			So(res.Rows[0].MeasureName, ShouldEqual, "Heart failure 30-day readmission")
			So(res.Rows[0].NumberOfHospitalsReporting, ShouldEqual, 12)
			So(res.Rows[0].AverageScore, ShouldAlmostEqual, 14.37, 0.001)
		})

		Convey("The row limit is configurable", func() {
			limited := fx.store(WithRowLimit(2))
			defer limited.Close()
			So(limited.WorstMeasures(ctx, types.Filter{}).Rows, ShouldHaveLength, 2)
			So(limited.TopHospitals(ctx, types.Filter{}).Rows, ShouldHaveLength, 2)
		})

		Convey("TopHospitals ranks the heart-failure measure, best score first", func() {
			res := s.TopHospitals(ctx, types.ForState("CA"))
			So(res.Err, ShouldBeNil)
			So(res.Rows, ShouldHaveLength, 5)
			So(res.Rows[0], ShouldResemble, model.HospitalScore{
				FacilityName: "California Hospital CA12",
				CityTown:     "Fresno",
				State:        "CA",
				Score:        18.44,
			})
			for _, r := range res.Rows[1:] {
				So(r.Score, ShouldEqual, 14)
			}
		})

		Convey("TopHospitals nationally prefers the highest scores", func() {
			res := s.TopHospitals(ctx, types.Filter{})
			So(res.Rows, ShouldHaveLength, 5)
			for _, r := range res.Rows {
				So(r.State, ShouldEqual, "NY")
				So(r.Score, ShouldEqual, 30)
			}
		})

		Convey("TopHospitals uses the configured measure", func() {
			other := fx.store(WithTopMeasure("EDAC_30_HF"))
			defer other.Close()
			res := other.TopHospitals(ctx, types.Filter{})
			So(res.Rows, ShouldHaveLength, 5)
			So(res.Rows[0].FacilityName, ShouldEqual, "Texas Hospital TX21")
			So(res.Rows[0].Score, ShouldEqual, 41)
		})
	})
}

func TestSQLStoreNationalPerformance(t *testing.T) {
	Convey("Given a seeded analytics database", t, func() {
		fx := newFixture()
		s := fx.store()
		ctx := context.Background()
		Reset(func() {
			_ = s.Close()
			fx.close()
		})

		Convey("National shares cover every categorized record", func() {
			res := s.NationalPerformance(ctx, types.Filter{})
			So(res.Err, ShouldBeNil)
			So(res.Rows, ShouldResemble, []model.CategoryShare{
				{PerformanceCategory: catBetter, NumberOfMeasures: 4, Percentage: 12.1},
				{PerformanceCategory: catSame, NumberOfMeasures: 27, Percentage: 81.8},
				{PerformanceCategory: catWorse, NumberOfMeasures: 2, Percentage: 6.1},
			})

			var sum float64
			for _, r := range res.Rows {
				sum += r.Percentage
			}
			So(sum, ShouldAlmostEqual, 100, 0.3)
		})

		Convey("State shares keep the national denominator", func() {
			res := s.NationalPerformance(ctx, types.ForState("CA"))
			So(res.Err, ShouldBeNil)
			So(res.Rows, ShouldResemble, []model.CategoryShare{
				{PerformanceCategory: catBetter, NumberOfMeasures: 4, Percentage: 12.1},
				{PerformanceCategory: catSame, NumberOfMeasures: 7, Percentage: 21.2},
				{PerformanceCategory: catWorse, NumberOfMeasures: 2, Percentage: 6.1},
			})
		})

		Convey("Empty category labels are not reported but still count nationally", func() {
			fx.record("TX01", "EDAC_30_HF", ptr(1.0), nil, ptr(""))
			res := s.NationalPerformance(ctx, types.Filter{})
			So(res.Err, ShouldBeNil)
			So(res.Rows, ShouldHaveLength, 3)
			for _, r := range res.Rows {
				So(r.PerformanceCategory, ShouldNotBeBlank)
			}
			// 27 of 34 categorized records
			So(res.Rows[1].Percentage, ShouldEqual, 79.4)
		})
	})
}

func TestSQLStorePerformanceByVolume(t *testing.T) {
	Convey("Given a seeded analytics database", t, func() {
		fx := newFixture()
		s := fx.store()
		ctx := context.Background()
		Reset(func() {
			_ = s.Close()
			fx.close()
		})

		Convey("Tier boundaries are inclusive and rows are ordered by label", func() {
			res := s.PerformanceByVolume(ctx, types.ForState("WA"))
			So(res.Err, ShouldBeNil)
			So(res.Rows, ShouldResemble, []model.TierScore{
				{Tier: tiering.Large, AverageScore: 4.5},
				{Tier: tiering.Medium, AverageScore: 2.5},
				{Tier: tiering.Small, AverageScore: 1},
				{Tier: tiering.VeryLarge, AverageScore: 6},
			})
		})

		Convey("SQL tiers agree with the scheme's own classification", func() {
			scheme := tiering.Default()
			scores := map[string][]float64{}
			for i, d := range []float64{100, 101, 500, 501, 1000, 1001} {
				tier := scheme.Classify(d)
				scores[tier] = append(scores[tier], float64(i+1))
			}
			want := map[string]float64{}
			for tier, ss := range scores {
				sum := 0.0
				for _, v := range ss {
					sum += v
				}
				want[tier] = sum / float64(len(ss))
			}

			res := s.PerformanceByVolume(ctx, types.ForState("WA"))
			So(res.Err, ShouldBeNil)
			got := map[string]float64{}
			for _, r := range res.Rows {
				got[r.Tier] = r.AverageScore
			}
			So(got, ShouldResemble, want)
		})

		Convey("Records without a denominator are left out", func() {
			res := s.PerformanceByVolume(ctx, types.ForState("CA"))
			So(res.Err, ShouldBeNil)
			So(res.Rows, ShouldBeEmpty)
			So(res.OrEmpty(), ShouldNotBeNil)
		})

		Convey("Every reported tier comes from the scheme", func() {
			labels := tiering.Default().Labels()
			for _, r := range s.PerformanceByVolume(ctx, types.Filter{}).Rows {
				So(labels, ShouldContain, r.Tier)
			}
		})

		Convey("A custom scheme is rendered into the query", func() {
			custom := fx.store(WithTierScheme(tiering.Scheme{
				{Label: "Low", Max: 500},
				{Label: "High", Unbounded: true},
			}))
			defer custom.Close()
			res := custom.PerformanceByVolume(ctx, types.ForState("WA"))
			So(res.Err, ShouldBeNil)
			So(res.Rows, ShouldResemble, []model.TierScore{
				{Tier: "High", AverageScore: 5},
				{Tier: "Low", AverageScore: 2},
			})
		})
	})
}

func TestSQLStoreStateSummaries(t *testing.T) {
	Convey("Given a seeded analytics database", t, func() {
		fx := newFixture()
		s := fx.store()
		ctx := context.Background()
		Reset(func() {
			_ = s.Close()
			fx.close()
		})

		Convey("Only states with more than twenty facilities qualify", func() {
			res := s.StateDetails(ctx)
			So(res.Err, ShouldBeNil)
			So(res.Rows, ShouldHaveLength, 1)

			tx := res.Rows[0]
			So(tx.State, ShouldEqual, "TX")
			So(tx.NumberOfHospitals, ShouldEqual, 21)
			So(tx.TotalPatientVolume, ShouldNotBeNil)
			So(*tx.TotalPatientVolume, ShouldEqual, 1050)
			So(tx.MinScore, ShouldEqual, 21)
			So(tx.MaxScore, ShouldEqual, 41)
			So(tx.AverageScore, ShouldEqual, 31)

			by := s.PerformanceByState(ctx)
			So(by.Err, ShouldBeNil)
			So(by.Rows, ShouldResemble, []model.StateScore{{State: "TX", AverageStateScore: 31}})
		})

		Convey("A lower threshold admits more states, best average first", func() {
			low := fx.store(WithMinStateFacilities(10))
			defer low.Close()

			res := low.StateDetails(ctx)
			So(res.Err, ShouldBeNil)
			states := make([]string, 0, len(res.Rows))
			for _, r := range res.Rows {
				states = append(states, r.State)
			}
			So(states, ShouldResemble, []string{"TX", "NY", "CA"})

			ca := res.Rows[2]
			So(ca.NumberOfHospitals, ShouldEqual, 12)
			So(ca.TotalPatientVolume, ShouldBeNil)

			So(low.PerformanceByState(ctx).Rows, ShouldHaveLength, 3)
		})
	})
}

func TestSQLStoreFaults(t *testing.T) {
	Convey("Given a store whose pool has been closed", t, func() {
		fx := newFixture()
		s := fx.store()
		ctx := context.Background()
		So(s.Close(), ShouldBeNil)
		Reset(fx.close)

		Convey("Every operation reports a query fault with no rows", func() {
			faults := []error{
				s.CountHospitals(ctx, types.Filter{}).Err,
				s.AverageReadmissionScore(ctx, types.Filter{}).Err,
				s.WorstMeasures(ctx, types.Filter{}).Err,
				s.NationalPerformance(ctx, types.Filter{}).Err,
				s.PerformanceByVolume(ctx, types.Filter{}).Err,
				s.TopHospitals(ctx, types.Filter{}).Err,
				s.StateDetails(ctx).Err,
				s.PerformanceByState(ctx).Err,
			}
			for _, err := range faults {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrQuery), ShouldBeTrue)
			}

			res := s.WorstMeasures(ctx, types.Filter{})
			So(res.Faulted(), ShouldBeTrue)
			So(res.Rows, ShouldBeNil)
			So(res.OrEmpty(), ShouldNotBeNil)
			So(res.OrEmpty(), ShouldBeEmpty)
		})

		Convey("The fault names the operation", func() {
			var qe *QueryError
			So(errors.As(s.TopHospitals(ctx, types.Filter{}).Err, &qe), ShouldBeTrue)
			So(qe.Op, ShouldEqual, OpTopHospitals)
			So(qe.Error(), ShouldContainSubstring, "top_hospitals: query execution fault")
		})

		Convey("Ping fails", func() {
			So(s.Ping(ctx), ShouldNotBeNil)
		})
	})

	Convey("Given a schema without the expected tables", t, func() {
		fx := newFixture()
		fx.exec("DROP TABLE measures")
		s := fx.store()
		Reset(func() {
			_ = s.Close()
			fx.close()
		})

		Convey("Queries touching the missing table fault, others still answer", func() {
			ctx := context.Background()
			So(errors.Is(s.WorstMeasures(ctx, types.Filter{}).Err, ErrQuery), ShouldBeTrue)
			So(s.CountHospitals(ctx, types.Filter{}).Err, ShouldBeNil)
		})
	})

	Convey("Given a cancelled context", t, func() {
		fx := newFixture()
		s := fx.store(WithQueryTimeout(time.Second))
		Reset(func() {
			_ = s.Close()
			fx.close()
		})

		Convey("The query faults instead of blocking", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res := s.StateDetails(ctx)
			So(res.Faulted(), ShouldBeTrue)
			So(errors.Is(res.Err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Open", t, func() {
		ctx := context.Background()

		Convey("rejects unknown drivers", func() {
			_, err := Open(ctx, Config{Driver: "oracle"})
			So(errors.Is(err, ErrUnsupportedDriver), ShouldBeTrue)
		})

		Convey("requires a file name for sqlite", func() {
			_, err := Open(ctx, Config{Driver: "sqlite"})
			So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
		})

		Convey("surfaces driver open failures", func() {
			orig := sqlOpen
			defer func() { sqlOpen = orig }()
			boom := errors.New("boom")
			sqlOpen = func(string, string) (*sql.DB, error) { return nil, boom }

			_, err := Open(ctx, Config{Driver: "mysql"})
			So(errors.Is(err, boom), ShouldBeTrue)
		})

		Convey("does not dial the server", func() {
			s, err := Open(ctx, Config{Driver: "mysql", Host: "127.0.0.1", Port: 1, User: "root", Name: "hospital_performance"})
			So(err, ShouldBeNil)
			So(s.Dialect(), ShouldEqual, MySQL)
			So(s.Close(), ShouldBeNil)
		})

		Convey("applies pool settings", func() {
			fx := newFixture()
			defer fx.close()
			s := fx.store(WithPool(3, 2, time.Minute))
			defer s.Close()
			So(s.Stats().MaxOpenConnections, ShouldEqual, 3)
		})

		Convey("opens postgres from discrete settings without dialing", func() {
			s, err := Open(ctx, Config{Driver: "postgres", Host: "127.0.0.1", Port: 1, User: "app", Password: "p'w", Name: "hp"})
			So(err, ShouldBeNil)
			So(s.Dialect(), ShouldEqual, Postgres)
			So(s.Close(), ShouldBeNil)
		})

		Convey("rejects a postgres port outside the valid range", func() {
			_, err := Open(ctx, Config{Driver: "postgres", Port: 70000})
			So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
		})

		Convey("rejects tier labels that would read as bind parameters", func() {
			fx := newFixture()
			defer fx.close()
			_, err := Open(ctx, Config{Driver: "sqlite", Name: fx.path}, WithTierScheme(tiering.Scheme{
				{Label: "Small?", Max: 10},
				{Label: "Rest", Unbounded: true},
			}))
			So(errors.Is(err, tiering.ErrInvalidTier), ShouldBeTrue)
		})

		Convey("rejects an invalid tier scheme", func() {
			fx := newFixture()
			defer fx.close()
			_, err := Open(ctx, Config{Driver: "sqlite", Name: fx.path}, WithTierScheme(tiering.Scheme{{Label: "Only", Max: 10}}))
			So(errors.Is(err, tiering.ErrUnboundedEnd), ShouldBeTrue)
		})
	})

	Convey("NewSQLStore rejects a nil handle", t, func() {
		_, err := NewSQLStore(nil, SQLite)
		So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
	})

	Convey("Close tolerates a nil store", t, func() {
		var s *SQLStore
		So(s.Close(), ShouldBeNil)
	})
}
