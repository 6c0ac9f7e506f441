package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/chittoor-drda/chds-app/chds/constants"
	ers "github.com/chittoor-drda/chds-app/chds/errors"
	"github.com/chittoor-drda/chds-app/chds/models"
	"github.com/chittoor-drda/chds-app/chds/service"
	"github.com/chittoor-drda/chds-app/log"
)

// cutoffDateLayout is the wire format for the locking cutoff date.
const cutoffDateLayout = "2006-01-02"

type Handler struct {
	Svc service.Service
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, kind, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: errorBody{Kind: kind, Message: message}})
}

// writeServiceError maps a domain error to its response status by kind.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := ers.Kind(err)
	switch kind {
	case ers.KindInvalidMobileFormat, ers.KindInvalidHealthIDFormat:
		writeError(w, r, http.StatusBadRequest, kind, err.Error())
	case ers.KindRecordLocked:
		writeError(w, r, http.StatusForbidden, kind, err.Error())
	case ers.KindResidentNotFound:
		writeError(w, r, http.StatusNotFound, kind, err.Error())
	case ers.KindMobileDuplicateLimitExceeded:
		writeError(w, r, http.StatusConflict, kind, err.Error())
	default:
		log.API.Error(err)
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
	}
}

type residentResponse struct {
	ResidentID      string     `json:"residentId"`
	HouseholdID     string     `json:"hhId"`
	Name            string     `json:"name"`
	UID             *string    `json:"uid"`
	DateOfBirth     *time.Time `json:"dateOfBirth"`
	Gender          string     `json:"gender"`
	MobileNumber    *string    `json:"mobileNumber"`
	HealthID        *string    `json:"healthId"`
	MandalName      *string    `json:"mandalName"`
	SecretariatName *string    `json:"secretariatName"`
	LastUpdatedAt   time.Time  `json:"lastUpdatedAt"`
	LastUpdatedBy   *string    `json:"lastUpdatedBy"`
}

// GetResident handles GET /residents/{residentID}. National identity numbers
// only ever leave the registry masked.
func (h *Handler) GetResident(w http.ResponseWriter, r *http.Request) {
	residentID := chi.URLParam(r, "residentID")

	resident, err := h.Svc.GetResident(r.Context(), residentID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := residentResponse{
		ResidentID:      resident.ResidentID,
		HouseholdID:     resident.HouseholdID,
		Name:            resident.Name,
		DateOfBirth:     resident.DateOfBirth,
		Gender:          string(resident.Gender),
		MobileNumber:    resident.MobileNumber,
		HealthID:        resident.HealthID,
		MandalName:      resident.MandalName,
		SecretariatName: resident.SecretariatName,
		LastUpdatedAt:   resident.LastUpdatedAt,
		LastUpdatedBy:   resident.LastUpdatedBy,
	}
	if resident.UID != nil {
		masked := models.MaskUID(*resident.UID)
		resp.UID = &masked
	}
	render.JSON(w, r, resp)
}

// UpdateResident handles PATCH /residents/{residentID}. The body carries
// only the fields to change; a field submitted as null clears the stored
// value, a field left out is untouched.
func (h *Handler) UpdateResident(w http.ResponseWriter, r *http.Request) {
	residentID := chi.URLParam(r, "residentID")
	updatedBy := r.Header.Get("X-Updated-By")
	if updatedBy == "" {
		updatedBy = "api"
	}

	var body map[string]*string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "MALFORMED_BODY", "request body is not a valid field map")
		return
	}
	if len(body) == 0 {
		writeError(w, r, http.StatusBadRequest, "MALFORMED_BODY", "request body names no fields")
		return
	}

	var req service.FieldUpdateRequest
	for field, value := range body {
		switch field {
		case constants.FieldMobileNumber:
			req.MobileNumber = service.FieldUpdate{Set: true, Value: value}
		case constants.FieldHealthID:
			req.HealthID = service.FieldUpdate{Set: true, Value: value}
		default:
			writeError(w, r, http.StatusBadRequest, "UNKNOWN_FIELD", "field "+field+" is not editable")
			return
		}
	}

	fieldsChanged, err := h.Svc.UpdateResident(r.Context(), residentID, req, updatedBy)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]int{"fieldsChanged": fieldsChanged})
}

type lockingResponse struct {
	CutoffDate *string   `json:"cutoffDate"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (h *Handler) GetLocking(w http.ResponseWriter, r *http.Request) {
	setting, err := h.Svc.GetLockingSetting(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := lockingResponse{UpdatedAt: setting.UpdatedAt}
	if setting.CutoffDate != nil {
		formatted := setting.CutoffDate.Format(cutoffDateLayout)
		resp.CutoffDate = &formatted
	}
	render.JSON(w, r, resp)
}

// SetLocking handles PUT /locking. A null cutoffDate disables locking.
func (h *Handler) SetLocking(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CutoffDate *string `json:"cutoffDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "MALFORMED_BODY", "request body is not valid JSON")
		return
	}

	var cutoff *time.Time
	if body.CutoffDate != nil {
		parsed, err := time.Parse(cutoffDateLayout, *body.CutoffDate)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_CUTOFF_DATE", "cutoffDate must be formatted as "+cutoffDateLayout)
			return
		}
		cutoff = &parsed
	}

	if err := h.Svc.SetCutoffDate(r.Context(), cutoff); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.GetLocking(w, r)
}

type completionResponse struct {
	Total int `json:"total"`

	NameComplete        int `json:"nameComplete"`
	HouseholdIDComplete int `json:"householdIdComplete"`
	MobileComplete      int `json:"mobileComplete"`
	HealthIDComplete    int `json:"healthIdComplete"`

	NameRate        int `json:"nameRate"`
	HouseholdIDRate int `json:"householdIdRate"`
	MobileRate      int `json:"mobileRate"`
	HealthIDRate    int `json:"healthIdRate"`
}

func (h *Handler) GetCompletionStats(w http.ResponseWriter, r *http.Request) {
	mandal := r.URL.Query().Get("mandal")
	secretariat := r.URL.Query().Get("secretariat")

	report, err := h.Svc.GetCompletionStats(r.Context(), mandal, secretariat)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, completionResponse{
		Total:               report.Stats.Total,
		NameComplete:        report.Stats.NameComplete,
		HouseholdIDComplete: report.Stats.HouseholdIDComplete,
		MobileComplete:      report.Stats.MobileComplete,
		HealthIDComplete:    report.Stats.HealthIDComplete,
		NameRate:            report.NameRate,
		HouseholdIDRate:     report.HouseholdIDRate,
		MobileRate:          report.MobileRate,
		HealthIDRate:        report.HealthIDRate,
	})
}

type importHistoryResponse struct {
	FileName         string    `json:"fileName"`
	FileSizeBytes    int64     `json:"fileSizeBytes"`
	TotalRecords     int       `json:"totalRecords"`
	SuccessRecords   int       `json:"successRecords"`
	FailedRecords    int       `json:"failedRecords"`
	DuplicateRecords int       `json:"duplicateRecords"`
	ImportMode       string    `json:"importMode"`
	Status           string    `json:"status"`
	DurationMillis   int64     `json:"durationMs"`
	ImportedAt       time.Time `json:"importedAt"`
	ImportedBy       string    `json:"importedBy"`
}

func (h *Handler) GetImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, r, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.Svc.GetImportHistory(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]importHistoryResponse, len(entries))
	for i, e := range entries {
		resp[i] = importHistoryResponse{
			FileName:         e.FileName,
			FileSizeBytes:    e.FileSizeBytes,
			TotalRecords:     e.TotalRecords,
			SuccessRecords:   e.SuccessRecords,
			FailedRecords:    e.FailedRecords,
			DuplicateRecords: e.DuplicateRecords,
			ImportMode:       e.ImportMode,
			Status:           e.Status,
			DurationMillis:   e.DurationMillis,
			ImportedAt:       e.ImportedAt,
			ImportedBy:       e.ImportedBy,
		}
	}
	render.JSON(w, r, resp)
}

func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"version": constants.Version})
}
