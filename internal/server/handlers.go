package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/datame/internal/errs"
	"github.com/koustreak/datame/internal/parser"
	"github.com/koustreak/datame/internal/pipeline"
	"github.com/koustreak/datame/internal/writer"
)

type fieldInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type validateResponse struct {
	Table          string      `json:"table"`
	Fields         []fieldInfo `json:"fields"`
	ContainsRecord bool        `json:"contains_record"`
	ContainsList   bool        `json:"contains_list"`
	Canonical      string      `json:"canonical"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Offset    *int   `json:"offset,omitempty"`
	Line      int    `json:"line,omitempty"`
	Column    int    `json:"column,omitempty"`
	Remainder string `json:"remainder,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	tbl, err := s.parseBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := validateResponse{
		Table:          tbl.Name,
		Fields:         make([]fieldInfo, 0, tbl.Schema.Len()),
		ContainsRecord: tbl.Schema.ContainsRecord(),
		ContainsList:   tbl.Schema.ContainsList(),
		Canonical:      tbl.Canonical(),
	}
	for _, f := range tbl.Schema.Fields() {
		resp.Fields = append(resp.Fields, fieldInfo{Name: f.Name(), Type: f.Type().String()})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format := writer.FormatJSON
	if v := q.Get("format"); v != "" {
		f, err := writer.ParseFormat(v)
		if err != nil {
			s.writeError(w, err)
			return
		}
		format = f
	}
	if !format.Streamed() {
		s.writeError(w, errs.Newf(errs.ErrKindInvalidInput, "format %q cannot be streamed over HTTP", format))
		return
	}

	records := 10
	if v := q.Get("records"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > s.maxRecords {
			s.writeError(w, errs.Newf(errs.ErrKindInvalidInput, "records must be an integer in [0, %d], got %q", s.maxRecords, v))
			return
		}
		records = n
	}
	header := q.Get("header") != "false"
	pretty := q.Get("pretty") == "true"

	tbl, err := s.parseBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// out tracks whether any of the body has reached the client.
	out := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	target := pipeline.Target{
		Caps: format,
		Open: func(context.Context) (writer.Writer, error) {
			out.Header().Set("Content-Type", format.ContentType())
			out.Header().Set("X-Datame-Table", tbl.Name)
			switch format {
			case writer.FormatCSV:
				return writer.NewCSV(out, tbl.Schema, writer.CSVOptions{Header: header}), nil
			case writer.FormatYAML:
				return writer.NewYAML(out), nil
			default:
				return writer.NewJSON(out, writer.JSONOptions{Pretty: pretty}), nil
			}
		},
	}

	stats, err := pipeline.Run(r.Context(), tbl.Schema, target, pipeline.Options{Records: records, Log: s.log})
	if err != nil {
		if out.Status() == 0 && out.BytesWritten() == 0 {
			out.Header().Del("X-Datame-Table")
			s.writeError(out, err)
			return
		}
		// Headers are gone; all that is left is to record the failure.
		s.log.With().Err(err).Int("written", stats.Written).Logger().Error("generate failed mid-stream")
		return
	}
	s.log.Debugf("generated %d %s tuples for table %s", stats.Written, format, tbl.Name)
}

func (s *Server) parseBody(r *http.Request) (*parser.Table, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindIO, "read request body", err)
	}
	if len(body) > maxBodyBytes {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "schema definition exceeds %d bytes", maxBodyBytes)
	}
	return parser.New(s.log).ParseTable(string(body))
}

func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindParse, errs.ErrKindInvalidInput:
		return http.StatusBadRequest
	case errs.ErrKindCapability:
		return http.StatusUnprocessableEntity
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error(), Kind: errs.KindOf(err).String()}

	var syn *parser.SyntaxError
	if errors.As(err, &syn) {
		off := syn.Offset
		resp.Offset = &off
		resp.Line = syn.Line
		resp.Column = syn.Column
		resp.Remainder = syn.Remainder
	}
	s.writeJSON(w, statusFor(err), resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.With().Err(err).Logger().Warn("encode response")
	}
}
