package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/dispatcher"
	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/domain"
)

// History pagination defaults and limits.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

type Store interface {
	CreateSchedule(ctx context.Context, sched domain.Schedule) error
	GetSchedule(ctx context.Context, id uuid.UUID) (domain.Schedule, error)
	UpdateSchedule(ctx context.Context, sched domain.Schedule) error
	DeleteSchedule(ctx context.Context, id uuid.UUID) error
	ListSchedules(ctx context.Context) ([]domain.Schedule, error)
	AppendHistory(ctx context.Context, entry domain.HistoryEntry) error
	ListHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// Dispatcher sends a push message immediately, bypassing the schedule store.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg domain.PushMessage) (string, error)
}

// Waker pokes the scheduler loop so new or edited schedules are
// considered before the next tick.
type Waker interface {
	Nudge()
}

// HealthChecker provides database health status for the /health endpoint.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	store        Store
	dispatcher   Dispatcher
	defaultTopic string
	waker        Waker
	db           HealthChecker
	historyLimit int
	clock        func() time.Time
}

func NewHandler(store Store, dispatcher Dispatcher, defaultTopic string) *Handler {
	return &Handler{
		store:        store,
		dispatcher:   dispatcher,
		defaultTopic: defaultTopic,
		historyLimit: DefaultLimit,
		clock:        time.Now,
	}
}

// WithHistoryLimit overrides the default page size for /history.
func (h *Handler) WithHistoryLimit(limit int) *Handler {
	if limit > 0 && limit <= MaxLimit {
		h.historyLimit = limit
	}
	return h
}

// WithWaker sets the scheduler wake hook, called after every write that
// can change what is due.
func (h *Handler) WithWaker(w Waker) *Handler {
	h.waker = w
	return h
}

// WithHealthChecker sets the database health checker for verbose /health responses.
func (h *Handler) WithHealthChecker(db HealthChecker) *Handler {
	h.db = db
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/health" && r.Method == http.MethodGet:
		h.health(w, r)

	case path == "/schedules" && r.Method == http.MethodPost:
		h.createSchedule(w, r)

	case path == "/schedules" && r.Method == http.MethodGet:
		h.listSchedules(w, r)

	case path == "/schedules/bulk" && r.Method == http.MethodPost:
		h.createSchedulesBulk(w, r)

	case strings.HasPrefix(path, "/schedules/") && r.Method == http.MethodPut:
		h.updateSchedule(w, r)

	case strings.HasPrefix(path, "/schedules/") && r.Method == http.MethodDelete:
		h.deleteSchedule(w, r)

	case path == "/send" && r.Method == http.MethodPost:
		h.sendNow(w, r)

	case path == "/history" && r.Method == http.MethodGet:
		h.listHistory(w, r)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	verbose := r.URL.Query().Get("verbose") == "true"

	if !verbose || h.db == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}

	resp := HealthResponse{
		Status:     "ok",
		Components: make(map[string]string),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		resp.Status = "degraded"
		resp.Components["database"] = "unhealthy: " + err.Error()
	} else {
		resp.Components["database"] = "healthy"
	}

	statusCode := http.StatusOK
	if resp.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, resp)
}

// maxRequestBodySize is the maximum allowed request body size (1MB).
const maxRequestBodySize = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// buildSchedule assembles a new schedule from a validated request.
func (h *Handler) buildSchedule(req ScheduleRequest, sendAt, now time.Time) domain.Schedule {
	topic := req.Topic
	if topic == "" {
		topic = h.defaultTopic
	}

	return domain.Schedule{
		ID:        uuid.New(),
		Title:     req.Title,
		Body:      req.Body,
		Topic:     topic,
		Image:     req.Image,
		SendAt:    sendAt,
		Sent:      false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// scheduledEntry records that a delivery was scheduled for sched.SendAt.
func scheduledEntry(sched domain.Schedule, now time.Time) domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:         uuid.New(),
		Title:      sched.Title,
		Body:       sched.Body,
		Topic:      sched.Topic,
		Image:      sched.Image,
		Type:       domain.HistoryTypeScheduled,
		OccurredAt: sched.SendAt,
		CreatedAt:  now,
	}
}

func (h *Handler) nudge() {
	if h.waker != nil {
		h.waker.Nudge()
	}
}

func (h *Handler) createSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sendAt, err := validateSchedule(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.clock().UTC()
	sched := h.buildSchedule(req, sendAt, now)

	if err := h.store.CreateSchedule(r.Context(), sched); err != nil {
		log.Printf("api: create schedule error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create schedule")
		return
	}

	// History is best-effort: the schedule is committed either way.
	if err := h.store.AppendHistory(r.Context(), scheduledEntry(sched, now)); err != nil {
		log.Printf("api: append scheduled history error: %v", err)
	}

	h.nudge()
	writeJSON(w, http.StatusCreated, scheduleResponse(sched))
}

func (h *Handler) createSchedulesBulk(w http.ResponseWriter, r *http.Request) {
	var req BulkScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if len(req.Schedules) == 0 {
		writeError(w, http.StatusBadRequest, "schedules is required")
		return
	}

	// Validate the whole batch before inserting anything, so one bad
	// item rejects the request without partial writes.
	sendAts := make([]time.Time, len(req.Schedules))
	for i, item := range req.Schedules {
		sendAt, err := validateSchedule(item)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("schedules[%d]: %v", i, err))
			return
		}
		sendAts[i] = sendAt
	}

	now := h.clock().UTC()
	resp := BulkScheduleResponse{Created: make([]ScheduleResponse, 0, len(req.Schedules))}
	for i, item := range req.Schedules {
		sched := h.buildSchedule(item, sendAts[i], now)

		if err := h.store.CreateSchedule(r.Context(), sched); err != nil {
			log.Printf("api: bulk create schedule error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to create schedules")
			return
		}
		if err := h.store.AppendHistory(r.Context(), scheduledEntry(sched, now)); err != nil {
			log.Printf("api: append scheduled history error: %v", err)
		}

		resp.Created = append(resp.Created, scheduleResponse(sched))
	}

	h.nudge()
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) listSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.store.ListSchedules(r.Context())
	if err != nil {
		log.Printf("api: list schedules error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list schedules")
		return
	}

	resp := ListSchedulesResponse{Schedules: make([]ScheduleResponse, len(schedules))}
	for i, sched := range schedules {
		resp.Schedules[i] = scheduleResponse(sched)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) updateSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := scheduleID(w, r)
	if !ok {
		return
	}

	var req ScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sendAt, err := validateSchedule(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := h.store.GetSchedule(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "schedule not found")
			return
		}
		log.Printf("api: get schedule error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update schedule")
		return
	}

	topic := req.Topic
	if topic == "" {
		topic = h.defaultTopic
	}

	now := h.clock().UTC()
	sched := existing
	sched.Title = req.Title
	sched.Body = req.Body
	sched.Topic = topic
	sched.Image = req.Image
	sched.SendAt = sendAt
	sched.Sent = false // edits re-arm delivery
	sched.UpdatedAt = now

	if err := h.store.UpdateSchedule(r.Context(), sched); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "schedule not found")
			return
		}
		log.Printf("api: update schedule error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update schedule")
		return
	}

	if err := h.store.AppendHistory(r.Context(), scheduledEntry(sched, now)); err != nil {
		log.Printf("api: append scheduled history error: %v", err)
	}

	h.nudge()
	writeJSON(w, http.StatusOK, scheduleResponse(sched))
}

func (h *Handler) deleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := scheduleID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteSchedule(r.Context(), id); err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Printf("api: delete schedule error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete schedule")
		return
	}

	// Deleting an unknown id is a no-op, not an error: the caller wanted
	// it gone and it is gone.
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sendNow(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := validateSend(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	topic := req.Topic
	if topic == "" {
		topic = h.defaultTopic
	}

	msg := domain.PushMessage{
		Title: req.Title,
		Body:  req.Body,
		Topic: topic,
		Image: req.Image,
	}

	messageID, err := h.dispatcher.Dispatch(r.Context(), msg)
	if err != nil {
		log.Printf("api: send error: %v", err)
		if errors.Is(err, dispatcher.ErrDispatchFailed) {
			writeError(w, http.StatusBadGateway, "push provider rejected the message")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to send")
		return
	}

	writeJSON(w, http.StatusOK, SendResponse{MessageID: messageID})
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, h.historyLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.store.ListHistory(r.Context(), limit)
	if err != nil {
		log.Printf("api: list history error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}

	resp := ListHistoryResponse{History: make([]HistoryResponse, len(entries))}
	for i, entry := range entries {
		resp.History[i] = historyResponse(entry)
	}

	writeJSON(w, http.StatusOK, resp)
}

// scheduleID extracts the id from /schedules/{id}. Writes the error
// response itself and returns ok=false when the path is malformed.
func scheduleID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 || parts[0] != "schedules" {
		writeError(w, http.StatusNotFound, "not found")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid schedule id")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: json encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// parseLimit extracts and validates the limit query parameter.
// Returns defaultLimit if limit is not specified.
func parseLimit(r *http.Request, defaultLimit int) (int, error) {
	limit := defaultLimit

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			return 0, err
		}
		if limit < 0 {
			return 0, strconv.ErrRange
		}
		if limit > MaxLimit {
			return 0, &limitExceededError{max: MaxLimit}
		}
		if limit == 0 {
			limit = defaultLimit
		}
	}

	return limit, nil
}

type limitExceededError struct {
	max int
}

func (e *limitExceededError) Error() string {
	return "limit exceeds maximum of " + strconv.Itoa(e.max)
}
