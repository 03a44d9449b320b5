package interfaces

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	academyapp "sensei-backoffice/internal/academy/application"
	academy "sensei-backoffice/internal/academy/domain"
	"sensei-backoffice/internal/academy/infrastructure/memory"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// newTestHandler seeds one plan, one active student and one professor. The
// clock reads Monday 2026-03-16.
func newTestHandler(t *testing.T) *AcademyHandler {
	t.Helper()
	clock := fixedClock{now: time.Date(2026, time.March, 16, 15, 0, 0, 0, time.UTC)}
	plans := memory.NewPlanRepository(academy.Plan{ID: "plan-adulto", Name: "Adulto", Price: decimal.NewFromInt(150)})
	students := memory.NewStudentRepository(academy.Student{
		ID:        "stu-ana",
		FullName:  "Ana Lima",
		PlanID:    "plan-adulto",
		Status:    academy.StudentActive,
		Belt:      "Branca",
		CreatedAt: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	})
	professors := memory.NewProfessorRepository(academy.Professor{ID: "prof-carlos", FullName: "Carlos", HourlyRate: decimal.NewFromInt(50)})
	classes := memory.NewClassRepository()
	attendance := memory.NewAttendanceRepository(classes)

	roster, err := academyapp.NewRosterService(plans, students, professors, &memory.GymRepository{}, academyapp.WithClock(clock))
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	schedule, err := academyapp.NewScheduleService(classes, attendance, students, professors, clock, time.UTC)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	graduations, err := academyapp.NewGraduationService(students, attendance, memory.NewGraduationRepository(students), clock, time.UTC)
	if err != nil {
		t.Fatalf("graduations: %v", err)
	}
	handler, err := NewAcademyHandler(roster, schedule, graduations)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return handler
}

func serve(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAcademyHandler_Students(t *testing.T) {
	handler := newTestHandler(t)

	rec := serve(handler, http.MethodPost, "/api/v1/academy/students", `{"full_name":"Bruno Souza","plan_id":"plan-adulto","due_day":10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create student: %d %s", rec.Code, rec.Body.String())
	}
	var created academy.Student
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != academy.StudentActive || created.DueDay != 10 {
		t.Fatalf("unexpected student: %+v", created)
	}

	rec = serve(handler, http.MethodGet, "/api/v1/academy/students?status=active&search=bruno", "")
	var list struct {
		Students []academy.Student `json:"students"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Students) != 1 || list.Students[0].ID != created.ID {
		t.Fatalf("unexpected list: %+v", list.Students)
	}

	rec = serve(handler, http.MethodPost, "/api/v1/academy/students", `{"full_name":"Caio","email":"nope"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"email"`) {
		t.Fatalf("expected email field error, got %d %s", rec.Code, rec.Body.String())
	}
	rec = serve(handler, http.MethodPost, "/api/v1/academy/students/"+created.ID+"/status", `{"status":"debt"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"debt"`) {
		t.Fatalf("set status: %d %s", rec.Code, rec.Body.String())
	}
	rec = serve(handler, http.MethodPost, "/api/v1/academy/students/"+created.ID+"/status", `{"status":"frozen"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
	if rec := serve(handler, http.MethodGet, "/api/v1/academy/students/stu-nobody", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := serve(handler, http.MethodDelete, "/api/v1/academy/plans/plan-adulto", ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for plan in use, got %d", rec.Code)
	}
}

func TestAcademyHandler_ClassesAndAttendance(t *testing.T) {
	handler := newTestHandler(t)

	rec := serve(handler, http.MethodPost, "/api/v1/academy/classes",
		`{"name":"Jiu-Jitsu Adulto","schedule_time":"19:00","professor_id":"prof-carlos","days_of_week":["monday","Wed","MON"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create class: %d %s", rec.Code, rec.Body.String())
	}
	var class academy.Class
	if err := json.NewDecoder(rec.Body).Decode(&class); err != nil {
		t.Fatalf("decode class: %v", err)
	}
	if len(class.DaysOfWeek) != 2 || class.DaysOfWeek[0] != "Mon" || class.DaysOfWeek[1] != "Wed" {
		t.Fatalf("unexpected days: %v", class.DaysOfWeek)
	}
	rec = serve(handler, http.MethodPost, "/api/v1/academy/classes", `{"name":"Muay Thai","schedule_time":"7pm"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad schedule, got %d", rec.Code)
	}

	rec = serve(handler, http.MethodGet, "/api/v1/academy/classes/today", "")
	var today struct {
		Date    string          `json:"date"`
		Classes []academy.Class `json:"classes"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&today); err != nil {
		t.Fatalf("decode today: %v", err)
	}
	if today.Date != "2026-03-16" || len(today.Classes) != 1 {
		t.Fatalf("unexpected today: %+v", today)
	}

	body := `{"class_id":"` + class.ID + `","date":"2026-03-16","professor_present":true,"present":{"stu-ana":true}}`
	rec = serve(handler, http.MethodPost, "/api/v1/academy/attendance", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("record attendance: %d %s", rec.Code, rec.Body.String())
	}
	var session academy.ClassSession
	if err := json.NewDecoder(rec.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.ProfessorID != "prof-carlos" || session.Status != academy.SessionCompleted {
		t.Fatalf("unexpected session: %+v", session)
	}

	rec = serve(handler, http.MethodGet, "/api/v1/academy/attendance/"+class.ID+"?date=2026-03-16", "")
	var sheet academyapp.AttendanceSheet
	if err := json.NewDecoder(rec.Body).Decode(&sheet); err != nil {
		t.Fatalf("decode sheet: %v", err)
	}
	if len(sheet.Marks) != 1 || !sheet.Marks[0].Present || sheet.Marks[0].StudentID != "stu-ana" {
		t.Fatalf("unexpected marks: %+v", sheet.Marks)
	}

	rec = serve(handler, http.MethodGet, "/api/v1/academy/sessions?from=2026-03-10&to=2026-03-16", "")
	var sessions struct {
		Sessions []academy.ClassSession `json:"sessions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions.Sessions) != 1 {
		t.Fatalf("unexpected sessions: %+v", sessions.Sessions)
	}
	if rec := serve(handler, http.MethodGet, "/api/v1/academy/sessions?from=16/03/2026", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}
}

func TestAcademyHandler_Promote(t *testing.T) {
	handler := newTestHandler(t)

	rec := serve(handler, http.MethodPost, "/api/v1/academy/graduations",
		`{"student_id":"stu-ana","belt":"Branca","degrees":1,"promotion_date":"2026-03-16","professor_id":"prof-carlos"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("promote: %d %s", rec.Code, rec.Body.String())
	}
	rec = serve(handler, http.MethodGet, "/api/v1/academy/graduations/stu-ana", "")
	var detail struct {
		Eligibility academy.Eligibility  `json:"eligibility"`
		History     []academy.Graduation `json:"history"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if len(detail.History) != 1 || detail.Eligibility.Student.Degrees != 1 || detail.Eligibility.NextMilestone != "2º Grau" {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	rec = serve(handler, http.MethodPost, "/api/v1/academy/graduations", `{"student_id":"stu-ana","belt":"Preta","degrees":11}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for degrees, got %d", rec.Code)
	}
	rec = serve(handler, http.MethodPost, "/api/v1/academy/graduations", `{"student_id":"stu-nobody","belt":"Azul"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown student, got %d", rec.Code)
	}
}

func TestAcademyHandler_GymAndRouting(t *testing.T) {
	handler := newTestHandler(t)

	rec := serve(handler, http.MethodGet, "/api/v1/academy/gym", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), academyapp.DefaultGymName) {
		t.Fatalf("unexpected gym: %d %s", rec.Code, rec.Body.String())
	}
	rec = serve(handler, http.MethodPut, "/api/v1/academy/gym", `{"name":"Dojo Central","phone":"1133334444"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Dojo Central") {
		t.Fatalf("update gym: %d %s", rec.Code, rec.Body.String())
	}
	if rec := serve(handler, http.MethodPatch, "/api/v1/academy/gym", "{}"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if rec := serve(handler, http.MethodGet, "/api/v1/academy/unknown", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := serve(handler, http.MethodGet, "/api/v1/academy/plans/a/b", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for deep path, got %d", rec.Code)
	}
	if rec := serve(handler, http.MethodPost, "/api/v1/academy/plans", "{"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
}
