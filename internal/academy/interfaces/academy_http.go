package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	academyapp "sensei-backoffice/internal/academy/application"
	academy "sensei-backoffice/internal/academy/domain"
	"sensei-backoffice/internal/audit"
	"sensei-backoffice/internal/validation"
)

const (
	apiPrefix  = "/api/v1/academy/"
	dateLayout = "2006-01-02"
)

var errInvalidDate = errors.New("academy: date must be YYYY-MM-DD")

// AcademyHandler serves roster, schedule and graduation routes under
// /api/v1/academy.
type AcademyHandler struct {
	roster      *academyapp.RosterService
	schedule    *academyapp.ScheduleService
	graduations *academyapp.GraduationService
	auditLogger audit.Logger
}

// HandlerOption configures an AcademyHandler.
type HandlerOption func(*AcademyHandler)

// WithAuditLogger records mutating calls.
func WithAuditLogger(logger audit.Logger) HandlerOption {
	return func(h *AcademyHandler) { h.auditLogger = logger }
}

// NewAcademyHandler constructs a handler.
func NewAcademyHandler(roster *academyapp.RosterService, schedule *academyapp.ScheduleService, graduations *academyapp.GraduationService, opts ...HandlerOption) (*AcademyHandler, error) {
	if roster == nil || schedule == nil || graduations == nil {
		return nil, errors.New("academy handler: nil service")
	}
	h := &AcademyHandler{roster: roster, schedule: schedule, graduations: graduations}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// ServeHTTP routes academy requests.
func (h *AcademyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, apiPrefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, apiPrefix), "/"), "/")

	var routed bool
	switch parts[0] {
	case "plans":
		routed = h.routePlans(w, r, parts[1:])
	case "students":
		routed = h.routeStudents(w, r, parts[1:])
	case "professors":
		routed = h.routeProfessors(w, r, parts[1:])
	case "gym":
		routed = h.routeGym(w, r, parts[1:])
	case "classes":
		routed = h.routeClasses(w, r, parts[1:])
	case "sessions":
		if len(parts) == 1 {
			routed = true
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.handleSessions(w, r)
		}
	case "attendance":
		routed = h.routeAttendance(w, r, parts[1:])
	case "graduations":
		routed = h.routeGraduations(w, r, parts[1:])
	}
	if !routed {
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *AcademyHandler) routePlans(w http.ResponseWriter, r *http.Request, rest []string) bool {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		plans, err := h.roster.ListPlans(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var input academyapp.PlanInput
		if !decodeBody(w, r, &input) {
			return true
		}
		plan, err := h.roster.CreatePlan(r.Context(), input)
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusCreated, plan)
		audit.FromRequest(h.auditLogger, r, "academy.plan.create", "plan", plan.ID, map[string]any{"price": plan.Price.String()})
	case len(rest) == 1 && r.Method == http.MethodPut:
		var input academyapp.PlanInput
		if !decodeBody(w, r, &input) {
			return true
		}
		plan, err := h.roster.UpdatePlan(r.Context(), rest[0], input)
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, plan)
		audit.FromRequest(h.auditLogger, r, "academy.plan.update", "plan", plan.ID, nil)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := h.roster.DeletePlan(r.Context(), rest[0]); err != nil {
			respondServiceError(w, err)
			return true
		}
		w.WriteHeader(http.StatusNoContent)
		audit.FromRequest(h.auditLogger, r, "academy.plan.delete", "plan", rest[0], nil)
	case len(rest) <= 1:
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		return false
	}
	return true
}

type statusRequest struct {
	Status academy.StudentStatus `json:"status"`
}

func (h *AcademyHandler) routeStudents(w http.ResponseWriter, r *http.Request, rest []string) bool {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		query := r.URL.Query()
		filter := academy.StudentFilter{
			Status: academy.StudentStatus(query.Get("status")),
			Search: query.Get("search"),
		}
		students, err := h.roster.ListStudents(r.Context(), filter)
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, map[string]any{"students": students})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var input academyapp.StudentInput
		if !decodeBody(w, r, &input) {
			return true
		}
		student, err := h.roster.CreateStudent(r.Context(), input)
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusCreated, student)
		audit.FromRequest(h.auditLogger, r, "academy.student.create", "student", student.ID, map[string]any{"plan_id": student.PlanID})
	case len(rest) == 1 && r.Method == http.MethodGet:
		student, err := h.roster.Student(r.Context(), rest[0])
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, student)
	case len(rest) == 1 && r.Method == http.MethodPut:
		var input academyapp.StudentInput
		if !decodeBody(w, r, &input) {
			return true
		}
		student, err := h.roster.UpdateStudent(r.Context(), rest[0], input)
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, student)
		audit.FromRequest(h.auditLogger, r, "academy.student.update", "student", student.ID, nil)
	case len(rest) == 2 && rest[1] == "status" && r.Method == http.MethodPost:
		var req statusRequest
		if !decodeBody(w, r, &req) {
			return true
		}
		student, err := h.roster.SetStudentStatus(r.Context(), rest[0], req.Status)
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, student)
		audit.FromRequest(h.auditLogger, r, "academy.student.status", "student", student.ID, map[string]any{"status": student.Status})
	case len(rest) <= 1, len(rest) == 2 && rest[1] == "status":
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		return false
	}
	return true
}

func (h *AcademyHandler) routeProfessors(w http.ResponseWriter, r *http.Request, rest []string) bool {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		professors, err := h.roster.ListProfessors(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, map[string]any{"professors": professors})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var input academyapp.ProfessorInput
		if !decodeBody(w, r, &input) {
			return true
		}
		professor, err := h.roster.CreateProfessor(r.Context(), input)
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusCreated, professor)
		audit.FromRequest(h.auditLogger, r, "academy.professor.create", "professor", professor.ID, nil)
	case len(rest) == 1 && r.Method == http.MethodPut:
		var input academyapp.ProfessorInput
		if !decodeBody(w, r, &input) {
			return true
		}
		professor, err := h.roster.UpdateProfessor(r.Context(), rest[0], input)
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, professor)
		audit.FromRequest(h.auditLogger, r, "academy.professor.update", "professor", professor.ID, map[string]any{"hourly_rate": professor.HourlyRate.String()})
	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := h.roster.DeleteProfessor(r.Context(), rest[0]); err != nil {
			respondServiceError(w, err)
			return true
		}
		w.WriteHeader(http.StatusNoContent)
		audit.FromRequest(h.auditLogger, r, "academy.professor.delete", "professor", rest[0], nil)
	case len(rest) <= 1:
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		return false
	}
	return true
}

func (h *AcademyHandler) routeGym(w http.ResponseWriter, r *http.Request, rest []string) bool {
	if len(rest) != 0 {
		return false
	}
	switch r.Method {
	case http.MethodGet:
		info, err := h.roster.GymInfo(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, info)
	case http.MethodPut:
		var input academyapp.GymInput
		if !decodeBody(w, r, &input) {
			return true
		}
		info, err := h.roster.UpdateGymInfo(r.Context(), input)
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, info)
		audit.FromRequest(h.auditLogger, r, "academy.gym.update", "gym_info", "1", map[string]any{"name": info.Name})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
	return true
}

func (h *AcademyHandler) routeClasses(w http.ResponseWriter, r *http.Request, rest []string) bool {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		h.handleListClasses(w, r)
	case len(rest) == 1 && rest[0] == "today" && r.Method == http.MethodGet:
		classes, err := h.schedule.TodaysClasses(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, map[string]any{"date": h.schedule.Today().Format(dateLayout), "classes": classes})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var input academyapp.ClassInput
		if !decodeBody(w, r, &input) {
			return true
		}
		class, err := h.schedule.CreateClass(r.Context(), input)
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusCreated, class)
		audit.FromRequest(h.auditLogger, r, "academy.class.create", "class", class.ID, nil)
	case len(rest) == 1 && r.Method == http.MethodPut:
		var input academyapp.ClassInput
		if !decodeBody(w, r, &input) {
			return true
		}
		class, err := h.schedule.UpdateClass(r.Context(), rest[0], input)
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, class)
		audit.FromRequest(h.auditLogger, r, "academy.class.update", "class", class.ID, nil)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := h.schedule.DeleteClass(r.Context(), rest[0]); err != nil {
			respondServiceError(w, err)
			return true
		}
		w.WriteHeader(http.StatusNoContent)
		audit.FromRequest(h.auditLogger, r, "academy.class.delete", "class", rest[0], nil)
	case len(rest) <= 1:
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		return false
	}
	return true
}

// handleListClasses returns the weekly schedule, or the classes meeting on
// ?date when given.
func (h *AcademyHandler) handleListClasses(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		classes, err := h.schedule.ListClasses(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"classes": classes})
		return
	}
	day, err := parseDate(raw)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	classes, err := h.schedule.ClassesOn(r.Context(), day)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": raw, "classes": classes})
}

// handleSessions lists sessions between ?from and ?to, the last seven days by
// default.
func (h *AcademyHandler) handleSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	to := h.schedule.Today()
	from := to.AddDate(0, 0, -6)
	var err error
	if raw := query.Get("from"); raw != "" {
		if from, err = parseDate(raw); err != nil {
			respondServiceError(w, err)
			return
		}
	}
	if raw := query.Get("to"); raw != "" {
		if to, err = parseDate(raw); err != nil {
			respondServiceError(w, err)
			return
		}
	}
	if to.Before(from) {
		respondServiceError(w, errInvalidDate)
		return
	}
	sessions, err := h.schedule.Sessions(r.Context(), from, to)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from":     from.Format(dateLayout),
		"to":       to.Format(dateLayout),
		"sessions": sessions,
	})
}

type attendanceRequest struct {
	ClassID          string          `json:"class_id"`
	Date             string          `json:"date"`
	ProfessorID      string          `json:"professor_id"`
	ProfessorPresent bool            `json:"professor_present"`
	Present          map[string]bool `json:"present"`
	Notes            string          `json:"notes"`
}

func (h *AcademyHandler) routeAttendance(w http.ResponseWriter, r *http.Request, rest []string) bool {
	switch {
	case len(rest) == 1 && r.Method == http.MethodGet:
		day := h.schedule.Today()
		if raw := r.URL.Query().Get("date"); raw != "" {
			parsed, err := parseDate(raw)
			if err != nil {
				respondServiceError(w, err)
				return true
			}
			day = parsed
		}
		sheet, err := h.schedule.Sheet(r.Context(), rest[0], day)
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, sheet)
	case len(rest) == 0 && r.Method == http.MethodPost:
		var req attendanceRequest
		if !decodeBody(w, r, &req) {
			return true
		}
		input := academyapp.AttendanceSheetInput{
			ClassID:          req.ClassID,
			ProfessorID:      req.ProfessorID,
			ProfessorPresent: req.ProfessorPresent,
			Present:          req.Present,
			Notes:            req.Notes,
		}
		if req.Date != "" {
			day, err := parseDate(req.Date)
			if err != nil {
				respondServiceError(w, err)
				return true
			}
			input.Date = day
		}
		session, err := h.schedule.RecordAttendance(r.Context(), input)
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, session)
		present := 0
		for _, ok := range req.Present {
			if ok {
				present++
			}
		}
		audit.FromRequest(h.auditLogger, r, "academy.attendance.record", "class_session", session.ID, map[string]any{
			"class_id": session.ClassID,
			"date":     session.Date.Format(dateLayout),
			"present":  present,
		})
	case len(rest) <= 1:
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		return false
	}
	return true
}

type promoteRequest struct {
	StudentID     string `json:"student_id"`
	Belt          string `json:"belt"`
	Degrees       int    `json:"degrees"`
	PromotionDate string `json:"promotion_date"`
	ProfessorID   string `json:"professor_id"`
	Notes         string `json:"notes"`
}

func (h *AcademyHandler) routeGraduations(w http.ResponseWriter, r *http.Request, rest []string) bool {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		items, err := h.graduations.Eligibility(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, map[string]any{"students": items})
	case len(rest) == 1 && r.Method == http.MethodGet:
		eligibility, err := h.graduations.StudentEligibility(r.Context(), rest[0])
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		history, err := h.graduations.History(r.Context(), rest[0])
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusOK, map[string]any{"eligibility": eligibility, "history": history})
	case len(rest) == 0 && r.Method == http.MethodPost:
		var req promoteRequest
		if !decodeBody(w, r, &req) {
			return true
		}
		input := academyapp.PromoteInput{
			StudentID:   req.StudentID,
			Belt:        req.Belt,
			Degrees:     req.Degrees,
			ProfessorID: req.ProfessorID,
			Notes:       req.Notes,
		}
		if req.PromotionDate != "" {
			day, err := parseDate(req.PromotionDate)
			if err != nil {
				respondServiceError(w, err)
				return true
			}
			input.PromotionDate = day
		}
		graduation, err := h.graduations.Promote(r.Context(), input)
		if err != nil {
			respondServiceError(w, err)
			return true
		}
		writeJSON(w, http.StatusCreated, graduation)
		audit.FromRequest(h.auditLogger, r, "academy.student.promote", "student", graduation.StudentID, map[string]any{
			"belt":    graduation.Belt,
			"degrees": graduation.Degrees,
		})
	case len(rest) <= 1:
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		return false
	}
	return true
}

func parseDate(raw string) (time.Time, error) {
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return day, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if fields := validation.Fields(err); fields != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": fields})
		return
	}
	switch {
	case errors.Is(err, academy.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, academy.ErrPlanInUse):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, errInvalidDate),
		errors.Is(err, academy.ErrEmptyID),
		errors.Is(err, academy.ErrEmptyName),
		errors.Is(err, academy.ErrInvalidStatus),
		errors.Is(err, academy.ErrInvalidSessionStatus),
		errors.Is(err, academy.ErrInvalidDueDay),
		errors.Is(err, academy.ErrInvalidPrice),
		errors.Is(err, academy.ErrInvalidDegrees),
		errors.Is(err, academy.ErrInvalidSchedule),
		errors.Is(err, academy.ErrInvalidWeekday),
		errors.Is(err, academy.ErrUnknownPlan),
		errors.Is(err, academy.ErrUnknownProfessor):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
