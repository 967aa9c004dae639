package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"resumefit/internal/analysis"
	"resumefit/internal/errors"
	"resumefit/internal/service"
	"resumefit/internal/store"
)

// maxMultipartMemory bounds the in-memory part of a parsed upload
const maxMultipartMemory = 8 << 20

// analyzeHandler scores a resume without job context. It accepts a JSON body or a
// multipart form with a "resume" file.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if isMultipart(r) {
		text, err := s.uploadedResume(r)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		req = AnalyzeRequest{
			ResumeText: text,
			ResumeID:   r.FormValue("resumeId"),
			Save:       formBool(r, "save"),
		}
	} else if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	record, err := s.Service.Analyze(r.Context(), service.AnalyzeRequest{
		ResumeText: req.ResumeText,
		ResumeID:   req.ResumeID,
		Save:       req.Save,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// matchHandler scores a resume against a saved or inline job posting
func (s *Server) matchHandler(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if isMultipart(r) {
		text, err := s.uploadedResume(r)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		req = MatchRequest{
			ResumeText:     text,
			ResumeID:       r.FormValue("resumeId"),
			JobID:          r.FormValue("jobId"),
			JobTitle:       r.FormValue("jobTitle"),
			JobDescription: r.FormValue("jobDescription"),
			Requirements:   r.FormValue("requirements"),
			Save:           formBool(r, "save"),
		}
	} else if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	if req.JobID == "" && strings.TrimSpace(req.JobTitle+req.JobDescription+req.Requirements) == "" {
		writeErrorResponse(w, "Invalid request", "jobId or an inline job posting is required", http.StatusBadRequest)
		return
	}

	record, err := s.Service.Match(r.Context(), service.MatchRequest{
		ResumeText: req.ResumeText,
		ResumeID:   req.ResumeID,
		JobID:      req.JobID,
		Job: analysis.JobContext{
			Title:        req.JobTitle,
			Description:  req.JobDescription,
			Requirements: req.Requirements,
		},
		Save: req.Save,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) getAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	record, err := s.Service.GetAnalysis(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// historyHandler lists a resume's analyses newest first
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeErrorResponse(w, "Invalid request", "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.Service.History(r.Context(), r.PathValue("resumeId"), limit)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if records == nil {
		records = []store.AnalysisRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"resumeId": r.PathValue("resumeId"),
		"analyses": records,
	})
}

func (s *Server) createJobHandler(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	job, err := s.Service.SaveJob(r.Context(), store.SavedJob{
		Title:           req.Title,
		Company:         req.Company,
		Description:     req.Description,
		Requirements:    req.Requirements,
		ExperienceLevel: req.ExperienceLevel,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) listJobsHandler(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.Service.ListJobs(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []store.SavedJob{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) getJobHandler(w http.ResponseWriter, r *http.Request) {
	job, err := s.Service.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) deleteJobHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.DeleteJob(r.Context(), r.PathValue("id")); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// healthHandler reports store, cache and augmenter state
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := s.Service.Health(r.Context())

	response := map[string]any{
		"status":    health.Status,
		"service":   "resumefit",
		"version":   s.Version,
		"store":     health.Store,
		"cache":     health.Cache,
		"augmenter": health.Augmenter,
	}
	if health.BreakerState != "" {
		response["circuit_breaker"] = health.BreakerState
	}
	if health.Model != nil {
		response["ai_model"] = health.Model
	}

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if healthy, _ := certStatus["healthy"].(bool); !healthy {
			response["status"] = "degraded"
		}
	}

	status := http.StatusOK
	if response["status"] != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// checkCertificateHealth reports certificate expiry when auto-reload is active
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertificateManager == nil {
		return nil
	}

	certStatus := make(map[string]any)
	timeToExpiry, err := s.CertificateManager.CheckExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = err.Error()
		return certStatus
	}

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())
	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
	case timeToExpiry <= criticalExpiry:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
	case timeToExpiry <= warningExpiry:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
	}

	stats := s.CertificateManager.Stats()
	certStatus["reloads"] = map[string]any{
		"count":       stats.ReloadCount,
		"failures":    stats.ReloadFailureCount,
		"last_reload": stats.LastReloadTime,
		"last_error":  stats.LastReloadError,
	}
	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumefit",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"auth_enabled":           len(s.APIKeys) > 0,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// uploadedResume extracts the text of the "resume" form file
func (s *Server) uploadedResume(r *http.Request) (string, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return "", requestBodyError(err)
	}
	file, header, err := r.FormFile("resume")
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest, "multipart field 'resume' is required", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.Logger.LogError(err, "Failed to close uploaded file")
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read uploaded file", err)
	}
	return s.Service.ExtractText(r.Context(), header.Filename, data)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func formBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.FormValue(key))
	return err == nil && v
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "content-type must be application/json", nil)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return requestBodyError(err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "failed to parse JSON: "+err.Error(), err)
	}
	return nil
}

func requestBodyError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
	}
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, "failed to read request body", err)
}

// statusFor maps an application error to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.HasCode(err, errors.ErrCodeRecordNotFound):
		return http.StatusNotFound
	case errors.HasCode(err, errors.ErrCodeFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.HasCode(err, errors.ErrCodeUnsupportedFile):
		return http.StatusUnsupportedMediaType
	case errors.IsType(err, errors.ErrorTypeValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError logs server-side failures and writes the mapped error response
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if appErr, ok := errors.AsAppError(err); ok {
		message = appErr.Message
	}
	if status == http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "endpoint", r.URL.Path)
		message = "internal error"
	}
	writeErrorResponse(w, http.StatusText(status), message, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}
