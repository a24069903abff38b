package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/models"
	"bitbucket.org/princerto/rto_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const advanceDescription = "ADVANCE PAYMENT / CREDIT"

// JobAllocation is one pending job's share of a payment.
type JobAllocation struct {
	JobId   int
	Applied decimal.Decimal
}

// AllocatePayment spreads amount across pending jobs in the order given,
// paying each job up to its outstanding balance. Whatever remains after the
// last job is returned as leftover.
func AllocatePayment(jobs []*models.WorkJob, amount decimal.Decimal) ([]JobAllocation, decimal.Decimal) {
	allocations := make([]JobAllocation, 0, len(jobs))
	remaining := amount
	for _, job := range jobs {
		if !remaining.IsPositive() {
			break
		}
		outstanding := job.BillAmount.Sub(job.PaidAmount)
		if !outstanding.IsPositive() {
			continue
		}
		applied := decimal.Min(remaining, outstanding)
		allocations = append(allocations, JobAllocation{JobId: job.ID, Applied: applied})
		remaining = remaining.Sub(applied)
	}
	return allocations, remaining
}

type SettlementResult struct {
	Allocations  []JobAllocation `json:"allocations"`
	Advance      decimal.Decimal `json:"advance"`
	RemainingDue decimal.Decimal `json:"remaining_due"`
}

// ProcessClientPayment settles a payment against a client's pending jobs,
// oldest first, inside one transaction serialized per client. A leftover
// becomes a synthetic advance row so the client's running due goes negative
// instead of the money disappearing. Unknown or out-of-team clients are
// rejected.
func ProcessClientPayment(ctx context.Context, logger *logrus.Logger, ownerId int, userId int, clientId int, amount decimal.Decimal) (*SettlementResult, error) {
	if !amount.IsPositive() {
		return nil, errors.New("amount must be greater than zero")
	}
	client, err := models.GetClientById(ctx, ownerId, clientId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var result SettlementResult
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireSettlementLock(tx, client.ID); err != nil {
			return err
		}
		defer ReleaseSettlementLock(tx, client.ID)

		jobs, err := models.PendingJobs(tx, client.ID)
		if err != nil {
			return err
		}

		allocations, leftover := AllocatePayment(jobs, amount)
		byJob := make(map[int]decimal.Decimal, len(allocations))
		for _, alloc := range allocations {
			byJob[alloc.JobId] = alloc.Applied
		}
		for _, job := range jobs {
			applied, ok := byJob[job.ID]
			if !ok {
				continue
			}
			err := tx.Model(&models.WorkJob{}).
				Where("id = ?", job.ID).
				Update("paid_amount", job.PaidAmount.Add(applied)).Error
			if err != nil {
				return err
			}
		}

		if leftover.IsPositive() {
			advance := models.WorkJob{
				UserId:      userId,
				ClientId:    client.ID,
				JobDate:     utils.DateOnly(time.Now()),
				VehicleNo:   "-",
				Description: advanceDescription,
				BillAmount:  decimal.Zero,
				PaidAmount:  leftover,
			}
			if err := tx.Create(&advance).Error; err != nil {
				return err
			}
		}

		result = SettlementResult{Allocations: allocations, Advance: leftover}
		return nil
	})
	if err != nil {
		config.LogError(logger, "workflow", "ProcessClientPayment", "settle payment",
			map[string]interface{}{"client_id": clientId, "amount": amount.String()}, err)
		return nil, err
	}

	due, err := models.ClientDue(ctx, client.ID)
	if err != nil {
		return nil, err
	}
	result.RemainingDue = due

	logger.WithFields(logrus.Fields{
		"client_id": client.ID,
		"amount":    amount.String(),
		"advance":   result.Advance.String(),
	}).Info("client payment settled")
	return &result, nil
}
