// Package almatest runs an in-process fake of the Alma acquisitions API.
package almatest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mitlibraries/ccslips/pkg/models/domain"
)

const (
	APIKey = "just-for-testing"

	defaultLimit = 10
)

// Request is a request received by the fake.
type Request struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	poLines  []domain.Record
	funds    []domain.Record
	failures map[string]int
	requests []Request
}

// NewServer starts a fake loaded with DefaultPOLines and DefaultFunds. It is
// closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		poLines:  DefaultPOLines(),
		funds:    DefaultFunds(),
		failures: map[string]int{},
	}

	r := chi.NewRouter()
	r.Use(s.record, s.authorize, s.fail)
	r.Get("/acq/po-lines", s.listPOLines)
	r.Get("/acq/po-lines/{id}", s.getPOLine)
	r.Get("/acq/funds", s.searchFunds)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// SetPOLines replaces the full PO line records served.
func (s *Server) SetPOLines(records ...domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poLines = records
}

func (s *Server) SetFunds(records ...domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funds = records
}

// FailPath answers every request for path with status.
func (s *Server) FailPath(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the received requests whose path is path.
func (s *Server) RequestsTo(path string) []Request {
	var out []Request
	for _, req := range s.Requests() {
		if req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "apikey "+APIKey {
			writeError(w, http.StatusUnauthorized, "API-key not defined or not configured to allow this API.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) fail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status, ok := s.failures[r.URL.Path]
		s.mu.Unlock()
		if ok {
			writeError(w, status, "forced failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listPOLines(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("status") != "ACTIVE" {
		writeError(w, http.StatusBadRequest, "only ACTIVE PO lines are served")
		return
	}
	method := query.Get("acquisition_method")

	s.mu.Lock()
	var brief []domain.Record
	for _, line := range s.poLines {
		value, _ := line.Object("acquisition_method").String("value")
		if method != "" && value != method {
			continue
		}
		brief = append(brief, briefPOLine(line))
	}
	s.mu.Unlock()

	limit, offset, err := paging(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writePage(w, "po_line", brief, limit, offset)
}

func (s *Server) getPOLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range s.poLines {
		if number, _ := line.String("number"); number == id {
			writeJSON(w, http.StatusOK, line)
			return
		}
	}
	writeError(w, http.StatusBadRequest, "PO line "+id+" not found")
}

func (s *Server) searchFunds(w http.ResponseWriter, r *http.Request) {
	code, ok := strings.CutPrefix(r.URL.Query().Get("q"), "fund_code~")
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported fund query")
		return
	}

	s.mu.Lock()
	var matches []domain.Record
	for _, fund := range s.funds {
		if c, _ := fund.String("code"); c == code {
			matches = append(matches, fund)
		}
	}
	s.mu.Unlock()

	writePage(w, "fund", matches, len(matches), 0)
}

// briefPOLine keeps the attributes Alma includes in PO line listings.
func briefPOLine(line domain.Record) domain.Record {
	brief := domain.Record{}
	for _, key := range []string{"number", "status", "acquisition_method", "created_date"} {
		if v, ok := line[key]; ok {
			brief[key] = v
		}
	}
	return brief
}

func paging(query url.Values) (int, int, error) {
	limit, offset := defaultLimit, 0
	var err error
	if v := query.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return 0, 0, err
		}
	}
	if v := query.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			return 0, 0, err
		}
	}
	return limit, offset, nil
}

// writePage answers like Alma does: the record list is left out entirely
// when nothing matches.
func writePage(w http.ResponseWriter, field string, records []domain.Record, limit, offset int) {
	body := map[string]any{"total_record_count": len(records)}
	if offset < len(records) {
		end := min(offset+limit, len(records))
		if page := records[offset:end]; len(page) > 0 {
			body[field] = page
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"errorsExist": true,
		"errorList": map[string]any{
			"error": []map[string]string{{"errorMessage": message}},
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
