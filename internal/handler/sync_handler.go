package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"congsync-server/internal/domain"
	"congsync-server/internal/repository"
	"congsync-server/internal/service"
	"congsync-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

// SyncHandler is the protocol surface of the job queue: send, incoming,
// queue, updates, ack and import.
type SyncHandler struct {
	jobs     *service.JobService
	validate *validator.Validate
}

func NewSyncHandler(jobs *service.JobService) *SyncHandler {
	return &SyncHandler{
		jobs:     jobs,
		validate: validator.New(),
	}
}

// Send creates a job from the desktop side, desktop_to_mobile unless the
// caller says otherwise.
func (h *SyncHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	job, err := h.jobs.Submit(&req, domain.DirectionDesktopToMobile)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, map[string]interface{}{"job": job})
}

// IncomingCreate accepts a job from the mobile side. The direction is fixed:
// this endpoint only ever produces mobile_to_desktop jobs.
func (h *SyncHandler) IncomingCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if req.Direction != "" && req.Direction != string(domain.DirectionMobileToDesktop) {
		response.BadRequest(w, "incoming jobs must be mobile_to_desktop")
		return
	}

	job, err := h.jobs.Submit(&req, domain.DirectionMobileToDesktop)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, map[string]interface{}{"job": job})
}

// IncomingList returns mobile_to_desktop jobs for the desktop to import.
func (h *SyncHandler) IncomingList(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	filter.Direction = domain.DirectionMobileToDesktop

	jobs, err := h.jobs.List(filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, map[string]interface{}{"jobs": jobs})
}

// Queue is the unconstrained listing used by the desktop management UI.
func (h *SyncHandler) Queue(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if direction := r.URL.Query().Get("direction"); direction != "" {
		d := domain.JobDirection(direction)
		if !d.Valid() {
			response.BadRequest(w, "invalid direction parameter")
			return
		}
		filter.Direction = d
	}

	jobs, err := h.jobs.List(filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, map[string]interface{}{"jobs": jobs})
}

// Updates returns the pending+sent union of desktop_to_mobile jobs, newest
// first, so the mobile side can re-fetch anything not fully processed.
func (h *SyncHandler) Updates(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	jobs, err := h.jobs.Updates(filter.Types, filter.Since, filter.Limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, map[string]interface{}{"jobs": jobs})
}

// Ack advances a job's status on behalf of the consuming peer.
func (h *SyncHandler) Ack(w http.ResponseWriter, r *http.Request) {
	var req domain.AckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	job, err := h.jobs.Ack(&req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, map[string]interface{}{"job": job})
}

// Import acks a mobile_to_desktop job and applies its payload to the domain
// stores. A side-effect failure is logged server-side; the ack still lands.
func (h *SyncHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req domain.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	job, err := h.jobs.Import(&req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, map[string]interface{}{"job": job})
}

func (h *SyncHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(w, "job not found")
	case errors.Is(err, service.ErrUnknownType),
		errors.Is(err, service.ErrInvalidDirection),
		errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "internal error")
	}
}

// filterFromQuery parses the shared query parameters: status, type, since,
// limit. Endpoint-specific constraints are layered on by the caller.
func filterFromQuery(r *http.Request) (domain.JobFilter, error) {
	var filter domain.JobFilter
	query := r.URL.Query()

	if status := query.Get("status"); status != "" {
		s := domain.JobStatus(status)
		if !s.Valid() {
			return filter, errors.New("invalid status parameter")
		}
		filter.Statuses = []domain.JobStatus{s}
	}
	for _, t := range query["type"] {
		jobType := domain.JobType(t)
		if !jobType.Valid() {
			return filter, errors.New("invalid type parameter")
		}
		filter.Types = append(filter.Types, jobType)
	}
	if since := query.Get("since"); since != "" {
		parsed, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return filter, errors.New("invalid since parameter")
		}
		filter.Since = parsed
	}
	if limit := query.Get("limit"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil || parsed < 0 {
			return filter, errors.New("invalid limit parameter")
		}
		filter.Limit = parsed
	}
	return filter, nil
}
