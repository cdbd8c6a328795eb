package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/walletledger/backend/internal/models"
)

type DonationRequest struct {
	Amount           int64  `json:"amount" validate:"gt=0"`
	Note             string `json:"note,omitempty" validate:"max=255"`
	BeneficiaryEmail string `json:"beneficiaryEmail" validate:"required,email"`
	TransactionPIN   string `json:"transactionPIN"`
}

// DonationService moves funds from a donor to a beneficiary.
type DonationService struct {
	movements *MovementService
}

func NewDonationService(movements *MovementService) *DonationService {
	return &DonationService{movements: movements}
}

func (s *DonationService) Create(ctx context.Context, donor *models.Account, req DonationRequest) (*Receipt, error) {
	req.Note = strings.TrimSpace(req.Note)
	req.BeneficiaryEmail = NormalizeEmail(req.BeneficiaryEmail)
	return s.movements.execute(ctx, donor, &donationPolicy{req: req})
}

type donationPolicy struct {
	req DonationRequest
}

func (p *donationPolicy) validate(ctx context.Context, s *MovementService, actor *models.Account) (*models.Account, error) {
	if err := s.validator.ValidateStruct(&p.req); err != nil {
		return nil, err
	}
	return s.counterpart(ctx, actor, p.req.BeneficiaryEmail)
}

func (p *donationPolicy) pin() string { return p.req.TransactionPIN }

func (p *donationPolicy) describe(s *MovementService, donor, beneficiary *models.Account) MovementIntent {
	return MovementIntent{
		Kind:          models.KindDonation,
		Amount:        p.req.Amount,
		Description:   fmt.Sprintf("Donation of %s from %s to %s", FormatAmount(s.config, p.req.Amount), donor.ID, beneficiary.ID),
		FromAccountID: donor.ID,
		ToAccountID:   beneficiary.ID,
		Note:          optionalNote(p.req.Note),
	}
}
