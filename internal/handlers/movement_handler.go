package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/walletledger/backend/internal/config"
	"github.com/walletledger/backend/internal/models"
	"github.com/walletledger/backend/internal/services"
)

// MovementHandler serves transfers and donations.
type MovementHandler struct {
	accounts  AccountManager
	transfers TransferCreator
	donations DonationCreator
	history   HistoryReader
	config    *config.LedgerConfig
}

func NewMovementHandler(accounts AccountManager, transfers TransferCreator, donations DonationCreator, history HistoryReader, cfg *config.LedgerConfig) *MovementHandler {
	return &MovementHandler{
		accounts:  accounts,
		transfers: transfers,
		donations: donations,
		history:   history,
		config:    cfg,
	}
}

func (h *MovementHandler) actor(w http.ResponseWriter, r *http.Request) (*models.Account, bool) {
	accountID, ok := callerID(w, r)
	if !ok {
		return nil, false
	}

	account, err := h.accounts.FindByID(r.Context(), accountID)
	if err != nil {
		SendServiceError(w, r, err)
		return nil, false
	}
	return account, true
}

// CreateTransfer sends funds to another account
// @Summary Create transfer
// @Tags Transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.TransferRequest true "Transfer request"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /transfers [post]
func (h *MovementHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	sender, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req services.TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	receipt, err := h.transfers.Create(r.Context(), sender, req)
	if err != nil {
		SendServiceError(w, r, err)
		return
	}
	SendJSON(w, http.StatusCreated, receipt.Movement)
}

// CreateDonation donates funds to a beneficiary
// @Summary Create donation
// @Tags Donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.DonationRequest true "Donation request"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /donations [post]
func (h *MovementHandler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	donor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req services.DonationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	receipt, err := h.donations.Create(r.Context(), donor, req)
	if err != nil {
		SendServiceError(w, r, err)
		return
	}
	SendJSON(w, http.StatusCreated, receipt.Movement)
}

// @Summary List transfers sent by the caller
// @Tags Transfers
// @Produce json
// @Security BearerAuth
// @Param from query string false "start date (dd/mm/yyyy, mm/yyyy or yyyy)"
// @Param to query string false "end date"
// @Param page query int false "page"
// @Param limit query int false "limit"
// @Router /transfers [get]
func (h *MovementHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.KindTransfer)
}

// @Summary List donations made by the caller
// @Tags Donations
// @Router /donations [get]
func (h *MovementHandler) ListDonations(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.KindDonation)
}

func (h *MovementHandler) list(w http.ResponseWriter, r *http.Request, kind models.TransactionKind) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	rng, page, err := listFilters(r, h.config)
	if err != nil {
		SendServiceError(w, r, err)
		return
	}

	result, err := h.history.ListMovements(r.Context(), accountID, kind, rng, page)
	if err != nil {
		SendServiceError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, result)
}

// @Summary Transfer details
// @Tags Transfers
// @Param id path string true "transfer id"
// @Router /transfers/{id} [get]
func (h *MovementHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, models.KindTransfer)
}

// @Summary Donation details
// @Tags Donations
// @Param id path string true "donation id"
// @Router /donations/{id} [get]
func (h *MovementHandler) GetDonation(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, models.KindDonation)
}

func (h *MovementHandler) get(w http.ResponseWriter, r *http.Request, kind models.TransactionKind) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	detail, err := h.history.GetMovement(r.Context(), kind, chi.URLParam(r, "id"), accountID)
	if err != nil {
		SendServiceError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, detail)
}

func listFilters(r *http.Request, cfg *config.LedgerConfig) (*services.DateRange, services.PageRequest, error) {
	page, err := pageRequest(r)
	if err != nil {
		return nil, page, err
	}

	q := r.URL.Query()
	rng, err := services.NewDateRange(q.Get("from"), q.Get("to"), cfg.Location)
	return rng, page, err
}
