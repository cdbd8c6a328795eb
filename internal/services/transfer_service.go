package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/walletledger/backend/internal/models"
)

type TransferRequest struct {
	Amount         int64  `json:"amount" validate:"gt=0"`
	Note           string `json:"note" validate:"required,max=255"`
	RecipientEmail string `json:"recipientEmail" validate:"required,email"`
	TransactionPIN string `json:"transactionPIN"`
}

// TransferService moves funds between peers. Transfers always carry a note.
type TransferService struct {
	movements *MovementService
}

func NewTransferService(movements *MovementService) *TransferService {
	return &TransferService{movements: movements}
}

func (s *TransferService) Create(ctx context.Context, sender *models.Account, req TransferRequest) (*Receipt, error) {
	req.Note = strings.TrimSpace(req.Note)
	req.RecipientEmail = NormalizeEmail(req.RecipientEmail)
	return s.movements.execute(ctx, sender, &transferPolicy{req: req})
}

type transferPolicy struct {
	req TransferRequest
}

func (p *transferPolicy) validate(ctx context.Context, s *MovementService, actor *models.Account) (*models.Account, error) {
	if err := s.validator.ValidateStruct(&p.req); err != nil {
		return nil, err
	}
	return s.counterpart(ctx, actor, p.req.RecipientEmail)
}

func (p *transferPolicy) pin() string { return p.req.TransactionPIN }

func (p *transferPolicy) describe(s *MovementService, sender, recipient *models.Account) MovementIntent {
	return MovementIntent{
		Kind:          models.KindTransfer,
		Amount:        p.req.Amount,
		Description:   fmt.Sprintf("Transfer of %s from %s to %s", FormatAmount(s.config, p.req.Amount), sender.ID, recipient.ID),
		FromAccountID: sender.ID,
		ToAccountID:   recipient.ID,
		Note:          optionalNote(p.req.Note),
	}
}
