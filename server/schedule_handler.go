package server

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"

	"agent-scheduler/formatter"
	"agent-scheduler/models"
	"agent-scheduler/parser"
	"agent-scheduler/scheduler"
	"agent-scheduler/timeline"
)

// scheduleRequest is the POST /api/schedule body. Exactly one of CSV and
// InputFile supplies the customer records; InputFile falls back to the
// configured default when both are empty.
type scheduleRequest struct {
	CSV         string   `json:"csv"`
	InputFile   string   `json:"input_file"`
	Utilization *float64 `json:"utilization" validate:"omitempty,gt=0,lte=1"`
	Capacity    *int     `json:"capacity" validate:"omitempty,gte=0"`
	Timezone    string   `json:"timezone"`
	Date        string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type customerInfo struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Calls    int    `json:"calls"`
	Duration int    `json:"duration"`
}

type scheduleResponse struct {
	RunID string `json:"run_id"`
	formatter.Document
	Customers []customerInfo `json:"customers"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var errNoInput = stderrors.New("no csv or input_file provided and no default input configured")

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	utilization := s.cfg.Utilization
	if req.Utilization != nil {
		utilization = *req.Utilization
	}
	tzName := req.Timezone
	if tzName == "" {
		tzName = s.cfg.Timezone
	}

	loc, err := parser.LoadTimezone(tzName)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	date, err := parser.ParseDate(req.Date, loc)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	requests, err := s.loadRequests(req)
	if err != nil {
		status := http.StatusBadRequest
		if stderrors.Is(err, fs.ErrNotExist) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	day := timeline.NewDayFor(date, loc)
	sched, err := scheduler.GenerateSchedule(requests, day, utilization, req.Capacity)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	runID := uuid.NewString()
	s.logger.Info().
		Str("run_id", runID).
		Str("timezone", sched.Timezone).
		Str("date", sched.Date).
		Int("customers", len(requests)).
		Int("hours_in_day", sched.HoursInDay).
		Int("peak_allocated", sched.Summary.PeakAllocated).
		Msg("schedule computed")

	writeJSON(w, http.StatusOK, scheduleResponse{
		RunID:     runID,
		Document:  formatter.BuildDocument(sched),
		Customers: customerInfos(requests),
	})
}

func (s *Server) loadRequests(req scheduleRequest) ([]models.CustomerRequest, error) {
	if req.CSV != "" {
		return parser.Parse(strings.NewReader(req.CSV))
	}

	path := req.InputFile
	if path == "" {
		path = s.cfg.InputFile
	}
	if path == "" {
		return nil, errNoInput
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parser.Parse(f)
}

func customerInfos(requests []models.CustomerRequest) []customerInfo {
	infos := make([]customerInfo, 0, len(requests))
	for _, r := range requests {
		infos = append(infos, customerInfo{
			Name:     r.Name,
			Priority: r.Priority,
			Start:    r.Start.String(),
			End:      r.End.String(),
			Calls:    r.NumCalls,
			Duration: r.AvgDurationSeconds,
		})
	}
	return infos
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
