package feed_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/sony/gobreaker"

	"github.com/okian/courtline/internal/adapters/feed"
	"github.com/okian/courtline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const sheet = "Rank,Team,Current,x,x,x,x,Prior\n1,Duke,52.1%,,,,,49.0%\n\n2,\"St. John's, NY\",48.0%,,,,,47.5%\n"

func TestParseCSV(t *testing.T) {
	Convey("Given a CSV body with quoted cells and blank lines", t, func() {
		body := "\xEF\xBB\xBFTeam,Note\nDuke,\"multi\nline\"\n,,\nKansas\n"

		Convey("When parsing", func() {
			rows, err := feed.ParseCSV([]byte(body))

			Convey("Then rows should keep quoted content and skip blanks", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldResemble, [][]string{
					{"Team", "Note"},
					{"Duke", "multi\nline"},
					{"Kansas"},
				})
			})
		})

		Convey("When the body is empty", func() {
			_, err := feed.ParseCSV(nil)

			Convey("Then it should be a parse error", func() {
				So(errors.Is(err, feed.ErrFeedParse), ShouldBeTrue)
			})
		})
	})
}

func TestParseHTMLTable(t *testing.T) {
	Convey("Given an HTML page with two tables", t, func() {
		page := `<html><body>
<table><thead><tr><th>Team</th><th>AdjO</th></tr></thead>
<tbody><tr><td> Duke </td><td>118.2</td></tr><tr><td></td><td></td></tr></tbody></table>
<table><tr><td>ignored</td></tr></table>
</body></html>`

		Convey("When parsing", func() {
			rows, err := feed.ParseHTMLTable([]byte(page))

			Convey("Then only the first table should be read", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldResemble, [][]string{{"Team", "AdjO"}, {"Duke", "118.2"}})
			})
		})

		Convey("When the page has no table", func() {
			_, err := feed.Parse(feed.FormatHTML, []byte("<p>nothing</p>"))

			Convey("Then it should be a parse error", func() {
				So(errors.Is(err, feed.ErrFeedParse), ShouldBeTrue)
			})
		})

		Convey("When the format is unknown", func() {
			_, err := feed.Parse("xlsx", []byte("x"))

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, feed.ErrFeedParse), ShouldBeTrue)
			})
		})
	})
}

func TestHTTPFetcher(t *testing.T) {
	Convey("Given a feed server", t, func() {
		So(logger.Init(logger.WithOutput(io.Discard)), ShouldBeNil)
		ctx := context.Background()
		var hits atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/plain", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, sheet)
		})
		mux.HandleFunc("/gzip", func(w http.ResponseWriter, _ *http.Request) {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			_, _ = io.WriteString(zw, sheet)
			_ = zw.Close()
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(buf.Bytes())
		})
		mux.HandleFunc("/br", func(w http.ResponseWriter, _ *http.Request) {
			var buf bytes.Buffer
			bw := brotli.NewWriter(&buf)
			_, _ = io.WriteString(bw, sheet)
			_ = bw.Close()
			w.Header().Set("Content-Encoding", "br")
			_, _ = w.Write(buf.Bytes())
		})
		mux.HandleFunc("/down", func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		})
		srv := httptest.NewServer(mux)
		Reset(srv.Close)

		f := feed.NewHTTPFetcher(feed.WithTimeout(2*time.Second), feed.WithBreaker(3, time.Minute))

		for _, path := range []string{"/plain", "/gzip", "/br"} {
			Convey("When fetching "+path, func() {
				rows, err := f.Fetch(ctx, feed.Source{Name: "off" + path, URL: srv.URL + path})

				Convey("Then the decoded rows should be returned", func() {
					So(err, ShouldBeNil)
					So(rows, ShouldHaveLength, 3)
					So(rows[2][1], ShouldEqual, "St. John's, NY")
				})
			})
		}

		Convey("When a body is larger than the cap", func() {
			capped := feed.NewHTTPFetcher(feed.WithMaxBodyBytes(int64(len(sheet)-1)))
			_, err := capped.Fetch(ctx, feed.Source{Name: "big", URL: srv.URL + "/plain"})

			Convey("Then it should fail instead of parsing a truncated sheet", func() {
				So(errors.Is(err, feed.ErrFeedFetch), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "exceeds")
			})
		})

		Convey("When a decoded body fits the cap exactly", func() {
			exact := feed.NewHTTPFetcher(feed.WithMaxBodyBytes(int64(len(sheet))))
			rows, err := exact.Fetch(ctx, feed.Source{Name: "exact", URL: srv.URL + "/gzip"})

			Convey("Then it should be accepted", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 3)
			})
		})

		Convey("When the server keeps failing", func() {
			src := feed.Source{Name: "down", URL: srv.URL + "/down"}
			for range 3 {
				_, err := f.Fetch(ctx, src)
				So(errors.Is(err, feed.ErrFeedFetch), ShouldBeTrue)
			}
			_, err := f.Fetch(ctx, src)

			Convey("Then the breaker should open and stop calling the server", func() {
				So(errors.Is(err, feed.ErrFeedFetch), ShouldBeTrue)
				So(errors.Is(err, gobreaker.ErrOpenState), ShouldBeTrue)
				So(hits.Load(), ShouldEqual, 3)
				So(f.BreakerState("down"), ShouldEqual, "open")
			})
		})

		Convey("When fetching a local file", func() {
			path := filepath.Join(t.TempDir(), "sheet.csv")
			So(os.WriteFile(path, []byte(sheet), 0o600), ShouldBeNil)
			rows, err := f.Fetch(ctx, feed.Source{Name: "local", URL: "file://" + path})

			Convey("Then it should be read from disk", func() {
				So(err, ShouldBeNil)
				So(rows[1][1], ShouldEqual, "Duke")
			})
		})

		Convey("When the file is missing", func() {
			_, err := f.Fetch(ctx, feed.Source{Name: "missing", URL: filepath.Join(t.TempDir(), "nope.csv")})

			Convey("Then it should be a fetch error", func() {
				So(errors.Is(err, feed.ErrFeedFetch), ShouldBeTrue)
			})
		})
	})
}
