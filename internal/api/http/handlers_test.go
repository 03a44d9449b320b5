package apihttp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHandlers_RejectWrongMethodAndMissingDB(t *testing.T) {
	handlers := map[string]http.Handler{
		"/api/v1/dashboard":              NewDashboardHandler(nil, nil, nil),
		"/api/v1/exports/attendance.csv": NewAttendanceCSVHandler(nil),
	}
	for path, handler := range handlers {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", path, rec.Code)
		}
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", path, rec.Code)
		}
	}
}

func TestParseDateQuery(t *testing.T) {
	cases := []struct {
		query   string
		want    time.Time
		wantErr bool
	}{
		{query: "from=2026-03-01", want: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{query: "", wantErr: true},
		{query: "from=01/03/2026", wantErr: true},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/x?"+tc.query, nil)
		got, err := parseDateQuery(req, "from")
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.query)
			}
			continue
		}
		if err != nil || !got.Equal(tc.want) {
			t.Fatalf("%q: got %s %v", tc.query, got, err)
		}
	}
}

func TestFillFrequency(t *testing.T) {
	from := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	points := fillFrequency(from, from.AddDate(0, 0, 6), map[string]int{"2026-03-12": 7})
	if len(points) != 7 {
		t.Fatalf("expected 7 days, got %d", len(points))
	}
	if points[0].Weekday != "Tue" || points[2].Present != 7 || points[3].Present != 0 {
		t.Fatalf("unexpected points: %+v", points)
	}
}

func TestCivilDay(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	got := civilDay(time.Date(2026, time.March, 16, 2, 0, 0, 0, time.UTC), brt)
	if !got.Equal(time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected day %s", got)
	}
}
