package workflow

import (
	"testing"

	"bitbucket.org/princerto/rto_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func pendingJob(id int, bill, paid string) *models.WorkJob {
	return &models.WorkJob{ID: id, BillAmount: dec(bill), PaidAmount: dec(paid)}
}

func TestAllocatePayment_OldestFirstPartialLast(t *testing.T) {
	jobs := []*models.WorkJob{
		pendingJob(1, "100", "0"),
		pendingJob(2, "50", "0"),
		pendingJob(3, "30", "0"),
	}

	allocations, leftover := AllocatePayment(jobs, dec("120"))

	require.Len(t, allocations, 2)
	assert.Equal(t, 1, allocations[0].JobId)
	assert.True(t, allocations[0].Applied.Equal(dec("100")), "first job should be paid in full, got %s", allocations[0].Applied)
	assert.Equal(t, 2, allocations[1].JobId)
	assert.True(t, allocations[1].Applied.Equal(dec("20")), "second job should get the remainder, got %s", allocations[1].Applied)
	assert.True(t, leftover.IsZero(), "no leftover expected, got %s", leftover)
}

func TestAllocatePayment_OverpaymentLeavesLeftover(t *testing.T) {
	jobs := []*models.WorkJob{
		pendingJob(1, "100", "0"),
		pendingJob(2, "80", "0"),
	}

	allocations, leftover := AllocatePayment(jobs, dec("500"))

	require.Len(t, allocations, 2)
	assert.True(t, allocations[0].Applied.Equal(dec("100")))
	assert.True(t, allocations[1].Applied.Equal(dec("80")))
	assert.True(t, leftover.Equal(dec("320")), "leftover should be 320, got %s", leftover)
}

func TestAllocatePayment_SkipsSettledJobs(t *testing.T) {
	jobs := []*models.WorkJob{
		pendingJob(1, "100", "100"),
		pendingJob(2, "60", "10"),
	}

	allocations, leftover := AllocatePayment(jobs, dec("40"))

	require.Len(t, allocations, 1)
	assert.Equal(t, 2, allocations[0].JobId)
	assert.True(t, allocations[0].Applied.Equal(dec("40")))
	assert.True(t, leftover.IsZero())
}

func TestAllocatePayment_RespectsPartiallyPaidOutstanding(t *testing.T) {
	jobs := []*models.WorkJob{
		pendingJob(1, "100", "70"),
	}

	allocations, leftover := AllocatePayment(jobs, dec("50"))

	require.Len(t, allocations, 1)
	assert.True(t, allocations[0].Applied.Equal(dec("30")), "only the outstanding 30 should be applied")
	assert.True(t, leftover.Equal(dec("20")))
}

func TestAllocatePayment_NoJobs(t *testing.T) {
	allocations, leftover := AllocatePayment(nil, dec("75.50"))

	assert.Empty(t, allocations)
	assert.True(t, leftover.Equal(dec("75.50")))
}
