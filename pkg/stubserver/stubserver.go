// Package stubserver is an in-memory implementation of the backend REST
// contract the gateway consumes. It backs the console's local development
// mode and the integration-style tests.
package stubserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/suyashkore/tms-console/pkg/batch"
	"github.com/suyashkore/tms-console/pkg/httpapi"
	"github.com/suyashkore/tms-console/pkg/schema"
)

type record map[string]any

type store struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]record
}

type Server struct {
	schemas map[string]schema.Schema
	stores  map[string]*store
	log     *logrus.Entry
}

func New(schemas map[string]schema.Schema, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	stores := make(map[string]*store, len(schemas))
	for resource := range schemas {
		stores[resource] = &store{nextID: 1, rows: map[int64]record{}}
	}
	return &Server{
		schemas: schemas,
		stores:  stores,
		log:     logger.WithField("component", "stubserver"),
	}
}

// Register mounts all resource routes on the router.
func (s *Server) Register(r *mux.Router) {
	for resource := range s.schemas {
		sub := r.PathPrefix("/" + resource).Subrouter()
		sub.HandleFunc("", s.handleList(resource)).Methods(http.MethodGet)
		sub.HandleFunc("", s.handleCreate(resource)).Methods(http.MethodPost)
		sub.HandleFunc("/id/{id:[0-9]+}", s.handleGet(resource)).Methods(http.MethodGet)
		sub.HandleFunc("/{id:[0-9]+}", s.handleUpdate(resource)).Methods(http.MethodPut)
		sub.HandleFunc("/{id:[0-9]+}", s.handleDelete(resource)).Methods(http.MethodDelete)
		sub.HandleFunc("/{id:[0-9]+}/deactivate", s.handleDeactivate(resource)).Methods(http.MethodPatch)
		sub.HandleFunc("/{id:[0-9]+}/uploadimgorfile", s.handleUpload(resource)).Methods(http.MethodPost)
		sub.HandleFunc("/xlsxtemplate", s.handleTemplate(resource)).Methods(http.MethodGet)
		sub.HandleFunc("/export/xlsx", s.handleExport(resource)).Methods(http.MethodGet)
		sub.HandleFunc("/import/xlsx", s.handleImport(resource)).Methods(http.MethodPost)
	}
}

// Handler returns a ready router with all resources mounted.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.Register(r)
	return r
}

// Seed inserts a record directly, bypassing validation. Test setup only.
func (s *Server) Seed(resource string, fields map[string]any) int64 {
	st := s.stores[resource]
	st.mu.Lock()
	defer st.mu.Unlock()
	id := st.nextID
	st.nextID++
	rec := record{}
	for k, v := range fields {
		rec[k] = v
	}
	rec["id"] = id
	stampAudit(rec, true)
	st.rows[id] = rec
	return id
}

func (s *Server) handleList(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := s.stores[resource]
		st.mu.Lock()
		rows := make([]record, 0, len(st.rows))
		for _, rec := range st.rows {
			rows = append(rows, rec)
		}
		st.mu.Unlock()

		values := r.URL.Query()
		rows = filterRows(rows, values)
		sortRows(rows, values.Get("sort_by"), values.Get("sort_order"))
		total := int64(len(rows))
		rows = paginate(rows, values.Get("page"), values.Get("per_page"))

		data := make([]json.RawMessage, 0, len(rows))
		for _, rec := range rows {
			raw, err := json.Marshal(rec)
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusInternalServerError, "failed to encode rows", nil)
				return
			}
			data = append(data, raw)
		}
		_ = httpapi.WriteJSON(w, http.StatusOK, httpapi.ListBody{Data: data, Total: total})
	}
}

func (s *Server) handleGet(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		st := s.stores[resource]
		st.mu.Lock()
		rec, ok := st.rows[id]
		st.mu.Unlock()
		if !ok {
			_ = httpapi.WriteError(w, http.StatusNotFound, "Record not found", nil)
			return
		}
		_ = httpapi.WriteJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) handleCreate(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "malformed request body", nil)
			return
		}
		st := s.stores[resource]
		st.mu.Lock()
		defer st.mu.Unlock()

		if fields := s.validate(st, rec, 0); len(fields) > 0 {
			_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "The given data was invalid.", fields)
			return
		}

		id := st.nextID
		st.nextID++
		rec["id"] = id
		if _, ok := rec["active"]; !ok {
			rec["active"] = true
		}
		stampAudit(rec, true)
		st.rows[id] = rec
		_ = httpapi.WriteJSON(w, http.StatusCreated, rec)
	}
}

func (s *Server) handleUpdate(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		var incoming record
		if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "malformed request body", nil)
			return
		}
		st := s.stores[resource]
		st.mu.Lock()
		defer st.mu.Unlock()
		existing, ok := st.rows[id]
		if !ok {
			_ = httpapi.WriteError(w, http.StatusNotFound, "Record not found", nil)
			return
		}
		if fields := s.validate(st, incoming, id); len(fields) > 0 {
			_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "The given data was invalid.", fields)
			return
		}
		for k, v := range incoming {
			if k == "id" || strings.HasPrefix(k, "created_") {
				continue
			}
			existing[k] = v
		}
		stampAudit(existing, false)
		_ = httpapi.WriteJSON(w, http.StatusOK, existing)
	}
}

func (s *Server) handleDeactivate(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		st := s.stores[resource]
		st.mu.Lock()
		defer st.mu.Unlock()
		rec, ok := st.rows[id]
		if !ok {
			_ = httpapi.WriteError(w, http.StatusNotFound, "Record not found", nil)
			return
		}
		rec["active"] = false
		stampAudit(rec, false)
		_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
	}
}

func (s *Server) handleDelete(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		st := s.stores[resource]
		st.mu.Lock()
		defer st.mu.Unlock()
		if _, ok := st.rows[id]; !ok {
			_ = httpapi.WriteError(w, http.StatusNotFound, "Record not found", nil)
			return
		}
		delete(st.rows, id)
		_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func (s *Server) handleUpload(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "file too large or invalid form", nil)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "no file provided", nil)
			return
		}
		_ = file.Close()
		field := r.FormValue("urlfield_name")
		if field == "" {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "urlfield_name is required", nil)
			return
		}

		st := s.stores[resource]
		st.mu.Lock()
		defer st.mu.Unlock()
		rec, ok := st.rows[id]
		if !ok {
			_ = httpapi.WriteError(w, http.StatusNotFound, "Record not found", nil)
			return
		}
		newURL := fmt.Sprintf("/files/%s/%d/%s", resource, id, header.Filename)
		rec[field] = newURL
		stampAudit(rec, false)
		_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{field: newURL})
	}
}

func (s *Server) handleTemplate(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sch := s.schemas[resource]
		data, err := batch.BuildWorkbook(sch.Label, sch.Fields, nil)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusInternalServerError, "failed to build template", nil)
			return
		}
		writeBlob(w, sch.TemplateFilename, data)
	}
}

func (s *Server) handleExport(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sch := s.schemas[resource]
		st := s.stores[resource]
		st.mu.Lock()
		rows := make([]record, 0, len(st.rows))
		for _, rec := range st.rows {
			rows = append(rows, rec)
		}
		st.mu.Unlock()

		values := r.URL.Query()
		rows = filterRows(rows, values)
		sortRows(rows, values.Get("sort_by"), values.Get("sort_order"))

		cells := make([][]string, 0, len(rows))
		for _, rec := range rows {
			row := make([]string, len(sch.Fields))
			for i, field := range sch.Fields {
				row[i] = stringify(rec[field])
			}
			cells = append(cells, row)
		}
		data, err := batch.BuildWorkbook(sch.Label, sch.Fields, cells)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusInternalServerError, "failed to build export", nil)
			return
		}
		writeBlob(w, sch.ExportFilename, data)
	}
}

func (s *Server) handleImport(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "file too large or invalid form", nil)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "no file provided", nil)
			return
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "failed to read file", nil)
			return
		}

		rows, err := batch.ReadWorkbook(data)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "file is not a valid spreadsheet", nil)
			return
		}
		if len(rows) < 2 {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "spreadsheet has no data rows", nil)
			return
		}

		headers := rows[0]
		report := httpapi.ImportReport{}
		st := s.stores[resource]
		st.mu.Lock()
		defer st.mu.Unlock()

		for i, cells := range rows[1:] {
			rowNum := i + 1
			rec := record{}
			for col, header := range headers {
				if col < len(cells) && cells[col] != "" {
					rec[header] = cells[col]
				}
			}
			if len(rec) == 0 || stringify(rec[headers[0]]) == "" {
				report.Failed++
				report.Errors = append(report.Errors, httpapi.RowError{
					Row:     rowNum,
					Message: fmt.Sprintf("%s is required", headers[0]),
				})
				continue
			}
			if fields := s.validate(st, rec, 0); len(fields) > 0 {
				report.Failed++
				report.Errors = append(report.Errors, httpapi.RowError{
					Row:     rowNum,
					Message: firstMessage(fields),
				})
				continue
			}
			id := st.nextID
			st.nextID++
			rec["id"] = id
			if _, ok := rec["active"]; !ok {
				rec["active"] = true
			}
			stampAudit(rec, true)
			st.rows[id] = rec
			report.Imported++
		}

		status := http.StatusOK
		if report.Imported == 0 && report.Failed > 0 {
			status = http.StatusUnprocessableEntity
		}
		_ = httpapi.WriteJSON(w, status, report)
	}
}

// validate enforces the stub's duplicate-code rule. excludeID skips the
// record being updated.
func (s *Server) validate(st *store, rec record, excludeID int64) map[string][]string {
	code := stringify(rec["code"])
	if code == "" {
		return nil
	}
	for id, other := range st.rows {
		if id == excludeID {
			continue
		}
		if stringify(other["code"]) == code {
			return map[string][]string{"code": {"Code already exists"}}
		}
	}
	return nil
}

func firstMessage(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(fields[k]) > 0 {
			return fields[k][0]
		}
	}
	return "row is invalid"
}

func writeBlob(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func stampAudit(rec record, creating bool) {
	now := time.Now().UTC().Format(time.RFC3339)
	if creating {
		rec["created_at"] = now
		rec["created_by"] = int64(1)
	}
	rec["updated_at"] = now
	rec["updated_by"] = int64(1)
}

func filterRows(rows []record, values map[string][]string) []record {
	reserved := map[string]bool{"page": true, "per_page": true, "sort_by": true, "sort_order": true}
	out := rows
	for key, vs := range values {
		if reserved[key] || len(vs) == 0 || strings.HasSuffix(key, "_from") || strings.HasSuffix(key, "_to") {
			continue
		}
		want := vs[0]
		filtered := out[:0:0]
		for _, rec := range out {
			if stringify(rec[key]) == want {
				filtered = append(filtered, rec)
			}
		}
		out = filtered
	}
	return out
}

func sortRows(rows []record, by, order string) {
	if by == "" {
		by = "updated_at"
	}
	desc := order != "asc"
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := stringify(rows[i][by]), stringify(rows[j][by])
		if a == b {
			// Tiebreak on id so equal timestamps order deterministically.
			ai, _ := strconv.ParseInt(stringify(rows[i]["id"]), 10, 64)
			bi, _ := strconv.ParseInt(stringify(rows[j]["id"]), 10, 64)
			return ai < bi
		}
		if desc {
			return a > b
		}
		return a < b
	})
}

func paginate(rows []record, pageStr, perPageStr string) []record {
	page, _ := strconv.Atoi(pageStr)
	perPage, _ := strconv.Atoi(perPageStr)
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 25
	}
	start := (page - 1) * perPage
	if start >= len(rows) {
		return nil
	}
	end := start + perPage
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprintf("%v", val)
	}
}
