package repository_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/courtline/internal/adapters/repository"
	"github.com/okian/courtline/internal/domain/model"
	"github.com/okian/courtline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func prediction(away, home string) *model.Prediction {
	spread, edge := -5.5, 2.5
	conf := 5
	return &model.Prediction{
		ID:          away + "-" + home,
		CreatedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Away:        away,
		Home:        home,
		BookSpread:  &spread,
		AwayPoints:  70.04,
		HomePoints:  78.01,
		ModelTotal:  148.06,
		ModelSpread: 7.97,
		SpreadEdge:  &edge,
		SpreadPlay:  home + " -5.5",
		TotalPlay:   "",
		Confidence:  &conf,
	}
}

func TestGormStore(t *testing.T) {
	Convey("Given an in-memory store", t, func() {
		So(logger.Init(logger.WithOutput(io.Discard)), ShouldBeNil)
		ctx := context.Background()
		s, err := repository.Open(repository.MemoryPath)
		So(err, ShouldBeNil)
		Reset(func() { _ = s.Close() })

		Convey("When appending predictions", func() {
			first := prediction("Kansas", "Duke")
			So(s.Append(ctx, first), ShouldBeNil)
			So(s.Append(ctx, prediction("Iowa", "Ohio State")), ShouldBeNil)

			Convey("Then they should be listed in insertion order", func() {
				rows, err := s.List(ctx)
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 2)
				So(rows[0].Away, ShouldEqual, "Kansas")
				So(*rows[0].BookSpread, ShouldEqual, -5.5)
				So(rows[0].BookTotal, ShouldBeNil)
				So(rows[1].Home, ShouldEqual, "Ohio State")
				So(first.Seq, ShouldBeGreaterThan, 0)

				n, err := s.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})

			Convey("Then removing the last should undo the newest only", func() {
				last, err := s.RemoveLast(ctx)
				So(err, ShouldBeNil)
				So(last.Away, ShouldEqual, "Iowa")
				n, _ := s.Count(ctx)
				So(n, ShouldEqual, 1)
			})

			Convey("Then clearing should remove everything", func() {
				removed, err := s.Clear(ctx)
				So(err, ShouldBeNil)
				So(removed, ShouldEqual, 2)

				_, err = s.RemoveLast(ctx)
				So(errors.Is(err, repository.ErrNoPredictions), ShouldBeTrue)
			})
		})

		Convey("When the store is empty", func() {
			rows, err := s.List(ctx)

			Convey("Then list and clear should succeed with nothing", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldBeEmpty)
				removed, err := s.Clear(ctx)
				So(err, ShouldBeNil)
				So(removed, ShouldEqual, 0)
			})
		})
	})
}

func TestOpenFailure(t *testing.T) {
	Convey("Given a database path under a missing directory", t, func() {
		So(logger.Init(logger.WithOutput(io.Discard)), ShouldBeNil)
		path := filepath.Join(t.TempDir(), "missing", "predictions.db")

		Convey("When opening it", func() {
			s, err := repository.Open(path)

			Convey("Then it should fail with ErrOpenStore and no store", func() {
				So(errors.Is(err, repository.ErrOpenStore), ShouldBeTrue)
				So(s, ShouldBeNil)
			})
		})
	})
}

func TestWriteCSV(t *testing.T) {
	Convey("Given one saved prediction", t, func() {
		var buf bytes.Buffer
		err := repository.WriteCSV(&buf, []model.Prediction{*prediction("Kansas", "Duke")})

		Convey("Then the table should have the export header and formatted cells", func() {
			So(err, ShouldBeNil)
			recs, err := csv.NewReader(&buf).ReadAll()
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 2)
			So(recs[0], ShouldResemble, repository.CSVHeader)
			So(recs[0][14], ShouldEqual, "Confidence (1-10)")
			So(recs[1], ShouldResemble, []string{
				"Kansas", "Duke", "-5.5", "",
				"70.0", "78.0", "148.1", "8.0",
				"", "2.5", "", "Duke -5.5",
				"", "", "5",
			})
		})
	})
}
