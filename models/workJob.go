package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WorkJob is one line of work done for a client. Owned by the acting user so
// the work book shows who recorded what.
type WorkJob struct {
	ID          int             `gorm:"primary_key" json:"id"`
	UserId      int             `gorm:"index;not null" json:"user_id"`
	ClientId    int             `gorm:"index;not null" json:"client_id"`
	JobDate     time.Time       `gorm:"not null;index" json:"job_date"`
	VehicleNo   string          `gorm:"size:20" json:"vehicle_no"`
	Description string          `gorm:"size:255" json:"description"`
	BillAmount  decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"bill_amount"`
	PaidAmount  decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"paid_amount"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWorkJob struct {
	ClientId    int    `json:"client_id" binding:"required"`
	JobDate     string `json:"job_date" binding:"required"`
	VehicleNo   string `json:"vehicle_no"`
	Description string `json:"description" binding:"required"`
	BillAmount  string `json:"bill_amount" binding:"required"`
	PaidAmount  string `json:"paid_amount"`
}

func (input NewWorkJob) toJob(userId int) (WorkJob, error) {
	jobDate, err := time.Parse("2006-01-02", input.JobDate)
	if err != nil {
		return WorkJob{}, errors.New("job_date must be YYYY-MM-DD")
	}
	bill, err := utils.ParseDecimal(input.BillAmount)
	if err != nil || bill.IsNegative() {
		return WorkJob{}, errors.New("bill_amount must be a non-negative number")
	}
	paid := decimal.Zero
	if input.PaidAmount != "" {
		paid, err = utils.ParseDecimal(input.PaidAmount)
		if err != nil || paid.IsNegative() {
			return WorkJob{}, errors.New("paid_amount must be a non-negative number")
		}
	}
	vehicleNo := utils.UpperTrim(input.VehicleNo)
	if vehicleNo == "" {
		vehicleNo = "-"
	}
	return WorkJob{
		UserId:      userId,
		ClientId:    input.ClientId,
		JobDate:     jobDate,
		VehicleNo:   vehicleNo,
		Description: utils.UpperTrim(input.Description),
		BillAmount:  bill.Round(2),
		PaidAmount:  paid.Round(2),
	}, nil
}

func CreateWorkJob(ctx context.Context, ownerId int, userId int, input NewWorkJob) (*WorkJob, error) {
	if _, err := GetClientById(ctx, ownerId, input.ClientId); err != nil {
		return nil, err
	}
	job, err := input.toJob(userId)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func GetWorkJobById(ctx context.Context, teamIds []int, id int) (*WorkJob, error) {
	db := config.GetDB()
	var job WorkJob
	err := db.WithContext(ctx).
		Where("user_id IN ? AND id = ?", teamIds, id).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &job, nil
}

func UpdateWorkJob(ctx context.Context, teamIds []int, id int, input NewWorkJob) (*WorkJob, error) {
	job, err := GetWorkJobById(ctx, teamIds, id)
	if err != nil {
		return nil, err
	}
	updated, err := input.toJob(job.UserId)
	if err != nil {
		return nil, err
	}
	if updated.Description == "" {
		updated.Description = "PAYMENT RECEIVED"
	}
	job.ClientId = updated.ClientId
	job.JobDate = updated.JobDate
	job.VehicleNo = updated.VehicleNo
	job.Description = updated.Description
	job.BillAmount = updated.BillAmount
	job.PaidAmount = updated.PaidAmount
	db := config.GetDB()
	if err := db.WithContext(ctx).Save(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func DeleteWorkJob(ctx context.Context, teamIds []int, id int) error {
	job, err := GetWorkJobById(ctx, teamIds, id)
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(job).Error
}

// PendingJobs lists a client's jobs with outstanding balance, oldest first.
// Settlement allocates in exactly this order.
func PendingJobs(tx *gorm.DB, clientId int) ([]*WorkJob, error) {
	var jobs []*WorkJob
	err := tx.Where("client_id = ? AND bill_amount > paid_amount", clientId).
		Order("job_date ASC, id ASC").
		Find(&jobs).Error
	return jobs, err
}

// ClientDue is the client's outstanding total, sum(bill) - sum(paid).
func ClientDue(ctx context.Context, clientId int) (decimal.Decimal, error) {
	db := config.GetDB()
	var row struct {
		Due decimal.Decimal
	}
	err := db.WithContext(ctx).Model(&WorkJob{}).
		Where("client_id = ?", clientId).
		Select("COALESCE(SUM(bill_amount - paid_amount), 0) AS due").
		Scan(&row).Error
	return row.Due, err
}

// ClientSummaryRow is the per-client block on the work-book dashboard.
type ClientSummaryRow struct {
	ClientId     int             `json:"client_id"`
	Name         string          `json:"name"`
	MobileNumber string          `json:"mobile_number"`
	TotalBill    decimal.Decimal `json:"total_bill"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	Due          decimal.Decimal `json:"due"`
	LastWorkDate *time.Time      `json:"last_work_date"`
}

func ClientSummaries(ctx context.Context, ownerId int) ([]*ClientSummaryRow, error) {
	db := config.GetDB()
	var rows []*ClientSummaryRow
	err := db.WithContext(ctx).Table("clients").
		Select("clients.id AS client_id, clients.name, clients.mobile_number, " +
			"COALESCE(SUM(work_jobs.bill_amount), 0) AS total_bill, " +
			"COALESCE(SUM(work_jobs.paid_amount), 0) AS total_paid, " +
			"COALESCE(SUM(work_jobs.bill_amount - work_jobs.paid_amount), 0) AS due, " +
			"MAX(work_jobs.job_date) AS last_work_date").
		Joins("LEFT JOIN work_jobs ON work_jobs.client_id = clients.id").
		Where("clients.user_id = ?", ownerId).
		Group("clients.id, clients.name, clients.mobile_number").
		Order("clients.name ASC").
		Find(&rows).Error
	return rows, err
}

type WorkBookTotals struct {
	TotalBill decimal.Decimal `json:"total_bill"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	TotalDue  decimal.Decimal `json:"total_due"`
}

// WorkBookTotalsForTeam sums the team's jobs, optionally restricted to one
// job_date.
func WorkBookTotalsForTeam(ctx context.Context, teamIds []int, onDate *time.Time) (WorkBookTotals, error) {
	db := config.GetDB()
	q := db.WithContext(ctx).Model(&WorkJob{}).Where("user_id IN ?", teamIds)
	if onDate != nil {
		day := utils.DateOnly(*onDate)
		q = q.Where("job_date >= ? AND job_date < ?", day, day.AddDate(0, 0, 1))
	}
	var totals WorkBookTotals
	err := q.Select("COALESCE(SUM(bill_amount), 0) AS total_bill, " +
		"COALESCE(SUM(paid_amount), 0) AS total_paid, " +
		"COALESCE(SUM(bill_amount - paid_amount), 0) AS total_due").
		Scan(&totals).Error
	return totals, err
}

// TotalDueForOwner is the dashboard work-dues figure across all the boss's
// clients.
func TotalDueForOwner(ctx context.Context, ownerId int) (decimal.Decimal, error) {
	db := config.GetDB()
	var row struct {
		Due decimal.Decimal
	}
	err := db.WithContext(ctx).Table("work_jobs").
		Joins("JOIN clients ON clients.id = work_jobs.client_id").
		Where("clients.user_id = ?", ownerId).
		Select("COALESCE(SUM(work_jobs.bill_amount - work_jobs.paid_amount), 0) AS due").
		Scan(&row).Error
	return row.Due, err
}

// WorkJobRow joins a job with its client and recorder for listings.
type WorkJobRow struct {
	ID          int             `json:"id"`
	ClientId    int             `json:"client_id"`
	ClientName  string          `json:"client_name"`
	RecordedBy  string          `json:"recorded_by"`
	JobDate     time.Time       `json:"job_date"`
	VehicleNo   string          `json:"vehicle_no"`
	Description string          `json:"description"`
	BillAmount  decimal.Decimal `json:"bill_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
}

func workJobRows(db *gorm.DB) *gorm.DB {
	return db.Table("work_jobs").
		Select("work_jobs.id, work_jobs.client_id, clients.name AS client_name, " +
			"users.name AS recorded_by, work_jobs.job_date, work_jobs.vehicle_no, " +
			"work_jobs.description, work_jobs.bill_amount, work_jobs.paid_amount").
		Joins("JOIN clients ON clients.id = work_jobs.client_id").
		Joins("JOIN users ON users.id = work_jobs.user_id")
}

// ListWorkJobs lists team jobs, newest first, optionally filtered by a
// job_date range.
func ListWorkJobs(ctx context.Context, teamIds []int, dateFrom *time.Time, dateUpto *time.Time) ([]*WorkJobRow, error) {
	db := config.GetDB()
	q := workJobRows(db.WithContext(ctx)).Where("work_jobs.user_id IN ?", teamIds)
	if dateFrom != nil {
		q = q.Where("work_jobs.job_date >= ?", utils.DateOnly(*dateFrom))
	}
	if dateUpto != nil {
		q = q.Where("work_jobs.job_date < ?", utils.DateOnly(*dateUpto).AddDate(0, 0, 1))
	}
	var rows []*WorkJobRow
	err := q.Order("work_jobs.job_date DESC, work_jobs.id DESC").Find(&rows).Error
	return rows, err
}

// ClientHistory is the client's full timeline, oldest first.
func ClientHistory(ctx context.Context, clientId int) ([]*WorkJobRow, error) {
	db := config.GetDB()
	var rows []*WorkJobRow
	err := workJobRows(db.WithContext(ctx)).
		Where("work_jobs.client_id = ?", clientId).
		Order("work_jobs.job_date ASC, work_jobs.id ASC").
		Find(&rows).Error
	return rows, err
}
