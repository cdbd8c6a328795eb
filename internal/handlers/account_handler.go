package handlers

import (
	"net/http"
	"time"

	"github.com/walletledger/backend/internal/models"
	"github.com/walletledger/backend/internal/services"
	"go.uber.org/zap"
)

type AccountHandler struct {
	accounts AccountManager
	tokens   TokenIssuer
}

func NewAccountHandler(accounts AccountManager, tokens TokenIssuer) *AccountHandler {
	return &AccountHandler{accounts: accounts, tokens: tokens}
}

type sessionResponse struct {
	Account   *models.Account `json:"account"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Signup creates an account, funds its wallet and returns a session token
// @Summary Create account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body services.SignupRequest true "Signup request"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.Create(r.Context(), req)
	if err != nil {
		SendServiceError(w, r, err)
		return
	}

	h.sendSession(w, r, http.StatusCreated, account)
}

// Login exchanges credentials for a session token
// @Summary Login
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "Login request"
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Router /accounts/login [post]
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.Authenticate(r.Context(), req)
	if err != nil {
		SendServiceError(w, r, err)
		return
	}

	h.sendSession(w, r, http.StatusOK, account)
}

func (h *AccountHandler) sendSession(w http.ResponseWriter, r *http.Request, status int, account *models.Account) {
	token, expiresAt, err := h.tokens.Issue(account.ID)
	if err != nil {
		zap.L().Error("Failed to issue token", zap.String("account_id", account.ID), zap.Error(err))
		SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
		return
	}
	SendJSON(w, status, sessionResponse{Account: account, Token: token, ExpiresAt: expiresAt})
}

// Me returns the authenticated account
// @Summary Current account
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Router /me [get]
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.FindByID(r.Context(), accountID)
	if err != nil {
		SendServiceError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, account)
}

// SetPIN configures the caller's transaction PIN
// @Summary Set transaction PIN
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.SetPINRequest true "4 or 6 digit PIN"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /transactions/pin [post]
func (h *AccountHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req services.SetPINRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.accounts.SetTransactionPIN(r.Context(), accountID, req.PIN); err != nil {
		SendServiceError(w, r, err)
		return
	}
	SendJSON(w, http.StatusOK, map[string]string{"message": "Transaction PIN set"})
}
