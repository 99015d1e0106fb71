package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"ratecard-converter/internal/jobs"
	"ratecard-converter/internal/pkg/httputil"
	"ratecard-converter/internal/service"
	"ratecard-converter/internal/storage"
	"ratecard-converter/internal/table"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status":          "ok",
		"app":             s.cfg.App.Name,
		"use_llm_mapping": s.svc.UsesLLMMapping(),
	})
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{"fields": s.svc.Fields()})
}

// readUpload 读取 multipart 的 file 字段
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	limit := s.cfg.Server.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.Error(w, http.StatusRequestEntityTooLarge, "File exceeds upload limit")
			return "", nil, false
		}
		httputil.BadRequest(w, "Missing multipart field \"file\"")
		return "", nil, false
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		httputil.BadRequest(w, "Could not read upload")
		return "", nil, false
	}
	return header.Filename, content, true
}

// writeServiceError 把领域错误映射为 HTTP 状态码
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, table.ErrEmptyInput):
		httputil.BadRequest(w, "No records found in input")
	case errors.Is(err, table.ErrUnsupportedFormat):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, service.ErrTooLarge):
		httputil.Error(w, http.StatusRequestEntityTooLarge, "File exceeds upload limit")
	case errors.Is(err, jobs.ErrJobNotFound):
		httputil.NotFound(w, "Job not found")
	case errors.Is(err, jobs.ErrRateCardNotFound):
		httputil.NotFound(w, "Rate card not found")
	default:
		httputil.InternalError(w, err)
	}
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	filename, content, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	conv, err := s.svc.ConvertFile(r.Context(), filename, content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, conv.Result)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	filename, content, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	res, err := s.svc.PreviewMapping(r.Context(), filename, content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, res)
}

type s3JobRequest struct {
	S3URI string `json:"s3_uri"`
}

// handleSubmitJob multipart 上传，或 JSON {"s3_uri": ...}
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var (
		job *jobs.Job
		err error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req s3JobRequest
		if !httputil.Decode(w, r, &req) {
			return
		}
		bucket, key, perr := storage.ParseURI(req.S3URI)
		if perr != nil {
			httputil.BadRequest(w, perr.Error())
			return
		}
		job, err = s.svc.SubmitS3Job(r.Context(), bucket, key)
	} else {
		filename, content, ok := s.readUpload(w, r)
		if !ok {
			return
		}
		job, err = s.svc.SubmitJob(r.Context(), filename, content)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Accepted(w, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.svc.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, job)
}

func (s *Server) handleListRateCards(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	cards, err := s.svc.ListRateCards(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if cards == nil {
		cards = []jobs.RateCard{}
	}
	httputil.OK(w, map[string]any{"rate_cards": cards})
}

func (s *Server) handleGetRateCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.svc.GetRateCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, card)
}

func (s *Server) handleRateCardReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.RateCardReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = io.WriteString(w, report)
}

func (s *Server) handleDeleteRateCard(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteRateCard(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}
