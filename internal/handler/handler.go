package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ArchanSureja/QuickCredit/internal/analytics"
	"github.com/ArchanSureja/QuickCredit/internal/models"
	"github.com/ArchanSureja/QuickCredit/internal/repository"
	"github.com/ArchanSureja/QuickCredit/internal/service"
	"github.com/gorilla/mux"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// CreateConsent starts the AA consent handshake
func (h *Handler) CreateConsent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	consent, err := h.svc.CreateConsent(r.Context(), req.Phone)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, consent)
}

// ConsentStatus returns the AA's view of a consent
func (h *Handler) ConsentStatus(w http.ResponseWriter, r *http.Request) {
	consentID := mux.Vars(r)["consentID"]
	status, err := h.svc.ConsentStatus(r.Context(), consentID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(status)
}

// CreateSession opens a data session against an approved consent
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	consentID := mux.Vars(r)["consentID"]
	session, err := h.svc.CreateSession(r.Context(), consentID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// IngestSession fetches a session payload and runs the analytics pipeline
func (h *Handler) IngestSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	result, err := h.svc.IngestSession(r.Context(), sessionID)
	if errors.Is(err, service.ErrSessionNotReady) {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "PENDING"})
		return
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetAnalytics returns one analytics record
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	record, err := h.svc.GetAnalytics(mux.Vars(r)["analyticsID"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// GetProfile returns a holder profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.GetProfile(mux.Vars(r)["userID"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// GetRiskData scores the user's latest analytics record
func (h *Handler) GetRiskData(w http.ResponseWriter, r *http.Request) {
	risk, err := h.svc.GetRiskData(mux.Vars(r)["userID"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, risk)
}

// GetMatchedOffers returns the qualifying subset of the loan catalog
func (h *Handler) GetMatchedOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.svc.MatchedOffers(mux.Vars(r)["userID"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offers)
}

// ListApplications returns the user's applications
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.svc.ListApplications(mux.Vars(r)["userID"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if apps == nil {
		apps = []models.ApplicationSummary{}
	}
	writeJSON(w, http.StatusOK, apps)
}

// AddApplication files a loan application
func (h *Handler) AddApplication(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"user_id"`
		LoanName string `json:"loan_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	app, err := h.svc.ApplyForLoan(req.UserID, req.LoanName)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// ProcessApplication approves or rejects an application
func (h *Handler) ProcessApplication(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.ApplicationStatus `json:"status"`
		Reason string                   `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	app, err := h.svc.ProcessApplication(mux.Vars(r)["applicationID"], req.Status, req.Reason)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// DisburseLoan releases the funds of an approved application
func (h *Handler) DisburseLoan(w http.ResponseWriter, r *http.Request) {
	app, err := h.svc.DisburseLoan(mux.Vars(r)["applicationID"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// CreateContract generates a contract record
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppURL     string `json:"app_url"`
		EsignLabel string `json:"esign_label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	contract, err := h.svc.CreateContract(req.AppURL, req.EsignLabel)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract)
}

// GetContract returns one contract
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	contract, err := h.svc.GetContract(mux.Vars(r)["contractID"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

// UpdateContract applies a signing event to a contract
func (h *Handler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	var upd models.ContractUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	contract, err := h.svc.UpdateContract(mux.Vars(r)["contractID"], upd)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

// CreateLoanProduct adds a catalog entry
func (h *Handler) CreateLoanProduct(w http.ResponseWriter, r *http.Request) {
	var product models.LoanProduct
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.svc.CreateLoanProduct(&product)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListLoanProducts returns the catalog
func (h *Handler) ListLoanProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListLoanProducts()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if products == nil {
		products = []models.LoanProduct{}
	}
	writeJSON(w, http.StatusOK, products)
}

// UpdateLoanProduct replaces a catalog entry
func (h *Handler) UpdateLoanProduct(w http.ResponseWriter, r *http.Request) {
	var product models.LoanProduct
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.svc.UpdateLoanProduct(mux.Vars(r)["productID"], &product)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteLoanProduct removes a catalog entry
func (h *Handler) DeleteLoanProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteLoanProduct(mux.Vars(r)["productID"]); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// CreateLenderParams stores eligibility thresholds for a product
func (h *Handler) CreateLenderParams(w http.ResponseWriter, r *http.Request) {
	var params models.LenderParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.svc.CreateLenderParams(&params)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListLenderParams returns every stored parameter set
func (h *Handler) ListLenderParams(w http.ResponseWriter, r *http.Request) {
	params, err := h.svc.ListLenderParams()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if params == nil {
		params = []models.LenderParams{}
	}
	writeJSON(w, http.StatusOK, params)
}

// GetLenderParams returns one parameter set
func (h *Handler) GetLenderParams(w http.ResponseWriter, r *http.Request) {
	params, err := h.svc.GetLenderParams(mux.Vars(r)["paramsID"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, params)
}

// UpdateLenderParams replaces a parameter set's thresholds
func (h *Handler) UpdateLenderParams(w http.ResponseWriter, r *http.Request) {
	var params models.LenderParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.svc.UpdateLenderParams(mux.Vars(r)["paramsID"], &params)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteLenderParams removes a parameter set
func (h *Handler) DeleteLenderParams(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteLenderParams(mux.Vars(r)["paramsID"]); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "parameters deleted"})
}

// Health reports service liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateApplication),
		errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, analytics.ErrMalformedFeed),
		errors.Is(err, analytics.ErrNumericCoercion),
		errors.Is(err, analytics.ErrUndefinedStatistic):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
