package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/lunisolar-api/internal/calendar"
	"github.com/zapponejosh/lunisolar-api/internal/config"
	"github.com/zapponejosh/lunisolar-api/internal/database"
)

// Supported Gregorian year range for the year-keyed endpoints.
const (
	minYear = -999
	maxYear = 2999
)

// maxBodyBytes caps the batch request body.
const maxBodyBytes = 1 << 20

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	converter *calendar.Converter
	db        *database.DB // nil when the event cache is disabled
	cfg       *config.Config
	logger    *slog.Logger
	zone      *time.Location
}

// NewHandlers creates a new Handlers instance. db may be nil.
func NewHandlers(converter *calendar.Converter, db *database.DB, cfg *config.Config, logger *slog.Logger) (*Handlers, error) {
	zone, err := calendar.ParseZone(cfg.DefaultTimezone, calendar.ReferenceZone)
	if err != nil {
		return nil, fmt.Errorf("default time zone: %w", err)
	}
	return &Handlers{
		converter: converter,
		db:        db,
		cfg:       cfg,
		logger:    logger,
		zone:      zone,
	}, nil
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "healthy",
		"cache":  nil,
	}

	if h.db != nil {
		ctx := r.Context()
		if err := h.db.Health(ctx); err != nil {
			h.logger.Warn("health check failed", slog.Any("error", err))
			WriteError(w, http.StatusServiceUnavailable, "Event cache unhealthy", "HEALTH_CHECK_FAILED")
			return
		}
		stats, err := h.db.Stats(ctx)
		if err != nil {
			h.logger.Warn("cache stats failed", slog.Any("error", err))
			WriteError(w, http.StatusServiceUnavailable, "Event cache unhealthy", "HEALTH_CHECK_FAILED")
			return
		}
		resp["cache"] = stats
	}

	WriteSuccess(w, resp)
}

// ConvertResponse is the payload of a single conversion.
type ConvertResponse struct {
	Instant time.Time              `json:"instant"`
	Zone    string                 `json:"zone"`
	Text    string                 `json:"text"`
	Pillars [4]string              `json:"pillars"`
	Date    calendar.LunisolarDate `json:"date"`
}

func newConvertResponse(t time.Time, loc *time.Location, d calendar.LunisolarDate) ConvertResponse {
	return ConvertResponse{
		Instant: t.In(loc),
		Zone:    loc.String(),
		Text:    d.String(),
		Pillars: d.Pillars(),
		Date:    d,
	}
}

// Convert handles
// GET /api/v1/lunisolar/convert?datetime=RFC3339|date=YYYY-MM-DD&time=HH:MM&tz=ZONE
func (h *Handlers) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	loc, err := calendar.ParseZone(q.Get("tz"), h.zone)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_TIMEZONE")
		return
	}

	var t time.Time
	switch {
	case q.Get("datetime") != "":
		t, err = calendar.ParseInstant(q.Get("datetime"), loc)
	case q.Get("date") != "":
		t, err = calendar.ParseLocalDateTime(q.Get("date"), q.Get("time"), loc)
	default:
		WriteBadRequest(w, "Either datetime or date is required")
		return
	}
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	d, err := h.converter.Convert(r.Context(), t, loc)
	if err != nil {
		h.writeConversionError(w, r, err, slog.Time("instant", t))
		return
	}

	WriteSuccess(w, newConvertResponse(t, loc, d))
}

// BatchRequest is the body of POST /api/v1/lunisolar/batch.
type BatchRequest struct {
	TZ       string   `json:"tz"`
	Instants []string `json:"instants"`
}

// BatchItem is the outcome of one batch entry.
type BatchItem struct {
	Input  string           `json:"input"`
	Result *ConvertResponse `json:"result,omitempty"`
	Error  *ErrorInfo       `json:"error,omitempty"`
}

// Batch handles POST /api/v1/lunisolar/batch
func (h *Handlers) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if len(req.Instants) == 0 {
		WriteBadRequest(w, "instants must not be empty")
		return
	}
	if len(req.Instants) > h.cfg.MaxBatchSize {
		WriteError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Batch of %d exceeds the limit of %d", len(req.Instants), h.cfg.MaxBatchSize),
			"BATCH_TOO_LARGE")
		return
	}

	loc, err := calendar.ParseZone(req.TZ, h.zone)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_TIMEZONE")
		return
	}

	items := make([]BatchItem, len(req.Instants))
	var (
		instants []time.Time
		slots    []int
	)
	for i, s := range req.Instants {
		items[i].Input = s
		t, err := calendar.ParseInstant(s, loc)
		if err != nil {
			items[i].Error = &ErrorInfo{Message: err.Error(), Code: "BAD_REQUEST"}
			continue
		}
		instants = append(instants, t)
		slots = append(slots, i)
	}

	// One window serves the whole batch, so its size follows the span of
	// the instants rather than their count.
	if span := calendar.YearSpan(instants, loc); span > h.cfg.MaxBatchYears {
		WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("Batch spans %d years, more than the limit of %d", span, h.cfg.MaxBatchYears),
			"BATCH_SPAN_TOO_LARGE")
		return
	}

	failed := len(req.Instants) - len(instants)
	for j, res := range h.converter.ConvertBatch(r.Context(), instants, loc) {
		item := &items[slots[j]]
		if res.Err != nil {
			_, info := errorInfo(res.Err)
			item.Error = &info
			failed++
			continue
		}
		resp := newConvertResponse(res.Instant, loc, res.Date)
		item.Result = &resp
	}

	h.logger.Debug("batch served",
		slog.Int("queries", len(items)),
		slog.Int("failed", failed),
	)

	WriteSuccess(w, map[string]interface{}{
		"zone":    loc.String(),
		"results": items,
		"failed":  failed,
	})
}

// SolarTerms handles GET /api/v1/solar-terms/{year}
func (h *Handlers) SolarTerms(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	terms, err := h.converter.SolarTermsOfYear(r.Context(), year)
	if err != nil {
		h.writeConversionError(w, r, err, slog.Int("year", year))
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"year":  year,
		"terms": terms,
	})
}

// Months handles GET /api/v1/months/{year}. Periods are reckoned in the
// reference zone.
func (h *Handlers) Months(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	table, err := h.converter.MonthTable(r.Context(), year)
	if err != nil {
		h.writeConversionError(w, r, err, slog.Int("lunar_year", year))
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"lunar_year": year,
		"cycle":      calendar.YearCycle(year),
		"months":     table,
		"report":     calendar.CheckYear(year, table),
	})
}

// Sexagenary handles GET /api/v1/sexagenary/{cycle}, where cycle is a
// number 1..60 or a two-character name such as 甲子.
func (h *Handlers) Sexagenary(w http.ResponseWriter, r *http.Request) {
	param := chi.URLParam(r, "cycle")
	if unescaped, err := url.PathUnescape(param); err == nil {
		param = unescaped
	}

	c, err := calendar.ParseCycle(param)
	if err != nil {
		WriteNotFound(w, err.Error())
		return
	}

	WriteSuccess(w, calendar.CycleInfo(c))
}

// writeConversionError maps a converter error onto the response envelope.
// Unexpected errors are logged; classified ones are the caller's problem.
func (h *Handlers) writeConversionError(w http.ResponseWriter, r *http.Request, err error, attrs ...any) {
	status, info := errorInfo(err)
	if status == http.StatusInternalServerError {
		args := append([]any{slog.Any("error", err), slog.String("path", r.URL.Path)}, attrs...)
		h.logger.ErrorContext(r.Context(), "conversion failed", args...)
	}
	WriteError(w, status, info.Message, info.Code)
}

// yearParam reads the {year} path parameter, writing a 400 when invalid.
func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := chi.URLParam(r, "year")
	year, err := strconv.Atoi(s)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid year: %q", s))
		return 0, false
	}
	if year < minYear || year > maxYear {
		WriteBadRequest(w, fmt.Sprintf("Year must be between %d and %d", minYear, maxYear))
		return 0, false
	}
	return year, true
}

// decodeJSON decodes JSON request body.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
