package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"aqualedger/internal/core"
	applog "aqualedger/internal/log"
	"aqualedger/internal/services"
	"aqualedger/internal/session"
)

const (
	SessionHeader = "X-Session-Token"
	maxBodyBytes  = 1 << 20
	// Backups carry every record, so imports get more room.
	maxImportBytes = 16 << 20
)

type sessionKey struct{}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg, RequestID: w.Header().Get(applog.RequestIDHeader)})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, session.ErrEmptyBusinessName),
		errors.Is(err, session.ErrInvalidPhone):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrCustomerNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateFlat):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotSaved):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, r.Method+" "+r.URL.Path, nil)
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, r, status, msg)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", services.ErrValidation)
		}
		return fmt.Errorf("%w: malformed JSON: %w", services.ErrValidation, err)
	}
	return nil
}

// withSession resolves the caller's token and stores the session in the
// request context.
func (s *Server) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get(SessionHeader))
		sess, err := s.sessions.Get(r.Context(), token)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		ctx = context.WithValue(ctx, applog.LoggerContextKey, applog.FromContext(ctx).With(applog.FieldBusiness, sess.BusinessName))
		next(w, r.WithContext(ctx))
	}
}

func sessionFrom(ctx context.Context) session.Session {
	sess, _ := ctx.Value(sessionKey{}).(session.Session)
	return sess
}

// dateSpan reads start/end query parameters, falling back to a named range
// (today, week, month) relative to now.
func (s *Server) dateSpan(r *http.Request) (core.DateRange, error) {
	q := r.URL.Query()
	start, end := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	if start == "" && end == "" {
		rng, err := core.ParseRange(q.Get("range"), s.now(), s.weekStart)
		if err != nil {
			return core.DateRange{}, fmt.Errorf("%w: %w", services.ErrValidation, err)
		}
		return rng, nil
	}
	if start == "" || end == "" {
		return core.DateRange{}, fmt.Errorf("%w: start and end must be given together", services.ErrValidation)
	}
	from, err := core.ParseDate(start)
	if err != nil {
		return core.DateRange{}, fmt.Errorf("%w: start: %w", services.ErrValidation, err)
	}
	to, err := core.ParseDate(end)
	if err != nil {
		return core.DateRange{}, fmt.Errorf("%w: end: %w", services.ErrValidation, err)
	}
	return core.DateRange{Start: from, End: to}, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", services.ErrValidation, name)
	}
	return n, nil
}
