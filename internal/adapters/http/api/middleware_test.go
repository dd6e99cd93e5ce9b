package api

import (
	"net/http"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFailureLabels(t *testing.T) {
	Convey("Given the statuses the API returns", t, func() {
		cases := []struct {
			status   int
			kind     string
			severity string
		}{
			{http.StatusBadRequest, "client_error", "medium"},
			{http.StatusNotFound, "not_found", "medium"},
			{http.StatusConflict, "ambiguous", "medium"},
			{http.StatusUnprocessableEntity, "insufficient_data", "medium"},
			{http.StatusTooManyRequests, "rate_limit", "medium"},
			{http.StatusServiceUnavailable, "server_error", "high"},
			{http.StatusOK, "unknown", "low"},
		}

		Convey("Then each should map to its error label and severity", func() {
			for _, c := range cases {
				So(failureKind(c.status), ShouldEqual, c.kind)
				So(failureSeverity(c.status), ShouldEqual, c.severity)
			}
		})
	})
}
