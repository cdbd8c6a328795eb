package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/walletledger/backend/internal/config"
	"github.com/walletledger/backend/internal/services"
)

type TransactionHandler struct {
	history  HistoryReader
	balances BalanceReader
	config   *config.LedgerConfig
}

func NewTransactionHandler(history HistoryReader, balances BalanceReader, cfg *config.LedgerConfig) *TransactionHandler {
	return &TransactionHandler{history: history, balances: balances, config: cfg}
}

type balanceResponse struct {
	AccountID string `json:"accountId"`
	Balance   int64  `json:"balance"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

// ListTransactions lists the caller's ledger transactions, newest first
// @Summary List transactions
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param from query string false "start date (dd/mm/yyyy, mm/yyyy or yyyy)"
// @Param to query string false "end date"
// @Param page query int false "page"
// @Param limit query int false "limit"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /transactions [get]
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	rng, page, err := listFilters(r, h.config)
	if err != nil {
		SendServiceError(w, r, err)
		return
	}

	result, err := h.history.ListTransactions(r.Context(), accountID, rng, page)
	if err != nil {
		SendServiceError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, result)
}

// GetTransaction returns one transaction with the caller's entry
// @Summary Transaction details
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param txId path string true "transaction id"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{txId} [get]
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	txn, err := h.history.GetTransaction(r.Context(), chi.URLParam(r, "txId"), accountID)
	if err != nil {
		SendServiceError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, txn)
}

// @Summary Wallet balance
// @Tags Transactions
// @Security BearerAuth
// @Router /transactions/balance [get]
func (h *TransactionHandler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	balance, err := h.balances.Balance(r.Context(), accountID)
	if err != nil {
		SendServiceError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, balanceResponse{
		AccountID: accountID,
		Balance:   balance,
		Currency:  h.config.Currency,
		Formatted: services.FormatAmount(h.config, balance),
	})
}

// @Summary Compare stored balance with the entry log
// @Tags Transactions
// @Security BearerAuth
// @Router /transactions/reconcile [get]
func (h *TransactionHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	result, err := h.balances.Reconcile(r.Context(), accountID)
	if err != nil {
		SendServiceError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, result)
}
