package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"membership-backend/internal/domain"
	"membership-backend/internal/service"

	"github.com/gorilla/mux"
)

type ApplicationHandler struct {
	admission service.AdmissionService
}

func NewApplicationHandler(admission service.AdmissionService) *ApplicationHandler {
	return &ApplicationHandler{admission: admission}
}

type submitApplicationRequest struct {
	FullName   string  `json:"full_name" validate:"required,max=255"`
	NationalID string  `json:"national_id" validate:"required,max=20"`
	BirthDate  string  `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Email      string  `json:"email" validate:"required,email,max=254"`
	Phone      string  `json:"phone" validate:"required,max=20"`
	Profession *string `json:"profession" validate:"omitempty,max=100"`
	Motivation string  `json:"motivation"`
}

type approveResponse struct {
	Success             bool                          `json:"success"`
	Message             string                        `json:"message"`
	Username            string                        `json:"username,omitempty"`
	RoleGranted         bool                          `json:"role_granted"`
	AccountActive       bool                          `json:"account_active"`
	CredentialGenerated bool                          `json:"credential_generated"`
	Password            string                        `json:"password,omitempty"`
	Application         *domain.MembershipApplication `json:"application"`
}

type bulkRequest struct {
	IDs []int32 `json:"ids"`
}

func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitApplicationRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if birth, _ := time.Parse("2006-01-02", req.BirthDate); !birth.Before(time.Now()) {
		writeError(w, http.StatusBadRequest, "birth_date must be in the past")
		return
	}

	app, err := h.admission.Submit(r.Context(), &domain.MembershipApplication{
		FullName:   req.FullName,
		NationalID: req.NationalID,
		BirthDate:  req.BirthDate,
		Email:      req.Email,
		Phone:      req.Phone,
		Profession: req.Profession,
		Motivation: req.Motivation,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.ApplicationFilter{
		Status: domain.ApplicationStatus(r.URL.Query().Get("status")),
	}
	apps, err := h.admission.ListApplications(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if apps == nil {
		apps = []domain.MembershipApplication{}
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	app, err := h.admission.GetApplication(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var update domain.ApplicationUpdate
	if err := decodeJSON(r, &update, false); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := validateStruct(update); err != nil {
		writeServiceError(w, r, err)
		return
	}
	app, err := h.admission.UpdateApplication(r.Context(), id, update)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.admission.DeleteApplication(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ApplicationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.admission.Approve(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	msg := "application approved"
	switch {
	case res.AlreadyApproved:
		msg = "application was already approved"
	case res.CredentialGenerated:
		msg = "application approved and account created"
	}
	writeJSON(w, http.StatusOK, approveResponse{
		Success:             true,
		Message:             msg,
		Username:            res.Username,
		RoleGranted:         res.RoleGranted,
		AccountActive:       res.AccountActive,
		CredentialGenerated: res.CredentialGenerated,
		Password:            res.Password,
		Application:         res.Application,
	})
}

func (h *ApplicationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	app, err := h.admission.Reject(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.admission.BulkApprove)
}

func (h *ApplicationHandler) BulkReject(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.admission.BulkReject)
}

func (h *ApplicationHandler) bulk(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, ids []int32) (*domain.BulkResult, error)) {
	var req bulkRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeServiceError(w, r, err)
		return
	}
	res, err := fn(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ApplicationHandler) RetrieveCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	cred, err := h.admission.RetrieveCredential(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, cred)
}

func (h *ApplicationHandler) ResetCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	cred, err := h.admission.ResetCredential(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, cred)
}

func (h *ApplicationHandler) ListProvisioningFailures(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	failures, err := h.admission.ListProvisioningFailures(r.Context(), int32(limit))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if failures == nil {
		failures = []domain.ProvisioningFailure{}
	}
	writeJSON(w, http.StatusOK, failures)
}

func pathID(w http.ResponseWriter, r *http.Request) (int32, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return int32(id), true
}
