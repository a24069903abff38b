package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// The seven recurring regulatory documents tracked per vehicle. Column names
// vary per kind for historical reasons; the descriptor table below is the
// single place that knows them, and every expiry/report/export query fans
// out over it instead of copying seven code paths.

type Tax struct {
	ID           int             `gorm:"primary_key" json:"id"`
	VehicleId    int             `gorm:"index;not null" json:"vehicle_id"`
	FromDate     *time.Time      `gorm:"type:date" json:"from_date"`
	UptoDate     time.Time       `gorm:"type:date;not null;index" json:"upto_date"`
	TaxMode      string          `gorm:"size:50" json:"tax_mode"`
	Type         string          `gorm:"size:50" json:"type"`
	GovtFee      decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"govt_fee"`
	ActualAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"actual_amount"`
	BillAmount   decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"bill_amount"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type Insurance struct {
	ID           int             `gorm:"primary_key" json:"id"`
	VehicleId    int             `gorm:"index;not null" json:"vehicle_id"`
	StartDate    *time.Time      `gorm:"type:date" json:"start_date"`
	EndDate      time.Time       `gorm:"type:date;not null;index" json:"end_date"`
	Company      string          `gorm:"size:100" json:"company"`
	Type         string          `gorm:"size:50" json:"type"`
	ActualAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"actual_amount"`
	BillAmount   decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"bill_amount"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type Fitness struct {
	ID           int             `gorm:"primary_key" json:"id"`
	VehicleId    int             `gorm:"index;not null" json:"vehicle_id"`
	ValidFrom    *time.Time      `gorm:"type:date" json:"valid_from"`
	ValidUntil   time.Time       `gorm:"type:date;not null;index" json:"valid_until"`
	FitnessNo    string          `gorm:"size:50" json:"fitness_no"`
	ActualAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"actual_amount"`
	BillAmount   decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"bill_amount"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type Permit struct {
	ID           int             `gorm:"primary_key" json:"id"`
	VehicleId    int             `gorm:"index;not null" json:"vehicle_id"`
	ValidFrom    *time.Time      `gorm:"type:date" json:"valid_from"`
	ValidUntil   time.Time       `gorm:"type:date;not null;index" json:"valid_until"`
	PermitNumber string          `gorm:"size:50" json:"permit_number"`
	PermitType   string          `gorm:"size:50" json:"permit_type"`
	ActualAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"actual_amount"`
	BillAmount   decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"bill_amount"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type Pucc struct {
	ID           int             `gorm:"primary_key" json:"id"`
	VehicleId    int             `gorm:"index;not null" json:"vehicle_id"`
	ValidFrom    *time.Time      `gorm:"type:date" json:"valid_from"`
	ValidUntil   time.Time       `gorm:"type:date;not null;index" json:"valid_until"`
	PuccNumber   string          `gorm:"size:50" json:"pucc_number"`
	ActualAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"actual_amount"`
	BillAmount   decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"bill_amount"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type Vltd struct {
	ID           int             `gorm:"primary_key" json:"id"`
	VehicleId    int             `gorm:"index;not null" json:"vehicle_id"`
	ValidFrom    *time.Time      `gorm:"type:date" json:"valid_from"`
	ValidUntil   time.Time       `gorm:"type:date;not null;index" json:"valid_until"`
	VendorName   string          `gorm:"size:100" json:"vendor_name"`
	ActualAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"actual_amount"`
	BillAmount   decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"bill_amount"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type SpeedGovernor struct {
	ID             int             `gorm:"primary_key" json:"id"`
	VehicleId      int             `gorm:"index;not null" json:"vehicle_id"`
	ValidFrom      *time.Time      `gorm:"type:date" json:"valid_from"`
	ValidUntil     time.Time       `gorm:"type:date;not null;index" json:"valid_until"`
	GovernorNumber string          `gorm:"size:50" json:"governor_number"`
	ActualAmount   decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"actual_amount"`
	BillAmount     decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"bill_amount"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type DocumentKind string

const (
	DocumentKindTax      DocumentKind = "tax"
	DocumentKindInsurance DocumentKind = "insurance"
	DocumentKindFitness  DocumentKind = "fitness"
	DocumentKindPermit   DocumentKind = "permit"
	DocumentKindPucc     DocumentKind = "pucc"
	DocumentKindVltd     DocumentKind = "vltd"
	DocumentKindSpeedGov DocumentKind = "speed_gov"
)

// DocumentKindInfo is the per-kind descriptor the generic queries run over.
type DocumentKindInfo struct {
	Kind         DocumentKind
	Table        string
	ExpiryColumn string
	FromColumn   string
	Label        string
}

var documentKinds = []DocumentKindInfo{
	{DocumentKindTax, "taxes", "upto_date", "from_date", "Road Tax"},
	{DocumentKindInsurance, "insurances", "end_date", "start_date", "Insurance"},
	{DocumentKindFitness, "fitnesses", "valid_until", "valid_from", "Fitness"},
	{DocumentKindPermit, "permits", "valid_until", "valid_from", "Permit"},
	{DocumentKindPucc, "puccs", "valid_until", "valid_from", "PUCC"},
	{DocumentKindVltd, "vltds", "valid_until", "valid_from", "VLTD"},
	{DocumentKindSpeedGov, "speed_governors", "valid_until", "valid_from", "Speed Governor"},
}

func AllDocumentKinds() []DocumentKindInfo {
	return documentKinds
}

func DocumentKindByName(kind DocumentKind) (DocumentKindInfo, bool) {
	for _, info := range documentKinds {
		if info.Kind == kind {
			return info, true
		}
	}
	return DocumentKindInfo{}, false
}

// MatchesExactLead reports whether a document expiring on expiry should be
// picked up by a sweep running on asOf with the given lead time. This is an
// exact-date match: the record is selected only on the single day exactly
// leadDays before expiry, not on any day inside the window.
func MatchesExactLead(expiry time.Time, asOf time.Time, leadDays int) bool {
	target := utils.DateOnly(asOf).AddDate(0, 0, leadDays)
	return utils.DateOnly(expiry).Equal(target)
}

// ---- generic per-kind CRUD ----

func ListDocuments[T any](ctx context.Context, vehicleId int) ([]*T, error) {
	db := config.GetDB()
	var docs []*T
	err := db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleId).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

func CreateDocument[T any](ctx context.Context, doc *T) error {
	db := config.GetDB()
	return db.WithContext(ctx).Create(doc).Error
}

func GetDocumentById[T any](ctx context.Context, id int) (*T, error) {
	db := config.GetDB()
	var doc T
	err := db.WithContext(ctx).First(&doc, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func SaveDocument[T any](ctx context.Context, doc *T) error {
	db := config.GetDB()
	return db.WithContext(ctx).Save(doc).Error
}

func DeleteDocument[T any](ctx context.Context, id int) error {
	db := config.GetDB()
	var doc T
	return db.WithContext(ctx).Delete(&doc, id).Error
}

// ---- descriptor-driven queries ----

// ExpiringDocument is the shared row shape for expiry matches and reports.
type ExpiringDocument struct {
	CitizenId      int       `json:"citizen_id"`
	OwnerName      string    `json:"owner_name"`
	MobileNumber   string    `json:"mobile_number"`
	VehicleId      int       `json:"vehicle_id"`
	RegistrationNo string    `json:"registration_no"`
	DocType        string    `json:"doc_type"`
	ExpiryDate     time.Time `json:"expiry_date"`
}

func expiringSelect(info DocumentKindInfo) string {
	return fmt.Sprintf(
		"citizens.id AS citizen_id, citizens.name AS owner_name, citizens.mobile_number, "+
			"vehicles.id AS vehicle_id, vehicles.registration_no, '%s' AS doc_type, %s.%s AS expiry_date",
		info.Label, info.Table, info.ExpiryColumn)
}

func expiringJoin(db *gorm.DB, info DocumentKindInfo, ownerId int) *gorm.DB {
	return db.Table(info.Table).
		Select(expiringSelect(info)).
		Joins(fmt.Sprintf("JOIN vehicles ON vehicles.id = %s.vehicle_id", info.Table)).
		Joins("JOIN citizens ON citizens.id = vehicles.citizen_id").
		Where("citizens.user_id = ?", ownerId)
}

// FindExpiringExactly selects documents of one kind whose expiry column
// equals target exactly, scoped to the boss's citizens.
func FindExpiringExactly(ctx context.Context, ownerId int, info DocumentKindInfo, target time.Time) ([]*ExpiringDocument, error) {
	db := config.GetDB()
	var rows []*ExpiringDocument
	err := expiringJoin(db.WithContext(ctx), info, ownerId).
		Where(fmt.Sprintf("%s.%s = ?", info.Table, info.ExpiryColumn), utils.DateOnly(target)).
		Find(&rows).Error
	return rows, err
}

// CountExpiringBetween is the dashboard counter: a fixed range query that is
// deliberately independent of per-tenant notification settings.
func CountExpiringBetween(ctx context.Context, ownerId int, from time.Time, to time.Time) (int64, error) {
	db := config.GetDB()
	var total int64
	for _, info := range documentKinds {
		var count int64
		err := db.WithContext(ctx).Table(info.Table).
			Joins(fmt.Sprintf("JOIN vehicles ON vehicles.id = %s.vehicle_id", info.Table)).
			Joins("JOIN citizens ON citizens.id = vehicles.citizen_id").
			Where("citizens.user_id = ?", ownerId).
			Where(fmt.Sprintf("%s.%s BETWEEN ? AND ?", info.Table, info.ExpiryColumn),
				utils.DateOnly(from), utils.DateOnly(to)).
			Count(&count).Error
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}

type ExpiryReportFilter struct {
	CitizenId  int
	OwnerName  string
	VehicleNo  string
	DocType    string
	ExpiryFrom *time.Time
	ExpiryUpto *time.Time
}

// ExpiryReport fans out over the descriptor table, merges the per-kind rows
// and sorts by expiry ascending.
func ExpiryReport(ctx context.Context, ownerId int, filter ExpiryReportFilter) ([]*ExpiringDocument, error) {
	db := config.GetDB()
	merged := make([]*ExpiringDocument, 0)

	for _, info := range documentKinds {
		if filter.DocType != "" && filter.DocType != info.Label {
			continue
		}

		q := expiringJoin(db.WithContext(ctx), info, ownerId)
		if filter.CitizenId != 0 {
			q = q.Where("citizens.id = ?", filter.CitizenId)
		}
		if filter.OwnerName != "" {
			q = q.Where("citizens.name LIKE ?", "%"+filter.OwnerName+"%")
		}
		if filter.VehicleNo != "" {
			q = q.Where("vehicles.registration_no LIKE ?", "%"+filter.VehicleNo+"%")
		}
		if filter.ExpiryFrom != nil {
			q = q.Where(fmt.Sprintf("%s.%s >= ?", info.Table, info.ExpiryColumn), utils.DateOnly(*filter.ExpiryFrom))
		}
		if filter.ExpiryUpto != nil {
			q = q.Where(fmt.Sprintf("%s.%s <= ?", info.Table, info.ExpiryColumn), utils.DateOnly(*filter.ExpiryUpto))
		}

		var rows []*ExpiringDocument
		if err := q.Find(&rows).Error; err != nil {
			return nil, err
		}
		merged = append(merged, rows...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].ExpiryDate.Before(merged[j].ExpiryDate)
	})
	return merged, nil
}

// CurrentDocument is the record with the maximum expiry date for a vehicle
// and kind; ties return any one row.
type CurrentDocument struct {
	VehicleId  int             `json:"vehicle_id"`
	ExpiryDate time.Time       `json:"expiry_date"`
	BillAmount decimal.Decimal `json:"bill_amount"`
}

// LatestDocuments resolves the current document of one kind for each of the
// given vehicles.
func LatestDocuments(tx *gorm.DB, info DocumentKindInfo, vehicleIds []int) (map[int]CurrentDocument, error) {
	out := make(map[int]CurrentDocument, len(vehicleIds))
	if len(vehicleIds) == 0 {
		return out, nil
	}

	var rows []CurrentDocument
	sub := fmt.Sprintf(
		"SELECT vehicle_id, MAX(%s) AS max_expiry FROM %s WHERE vehicle_id IN ? GROUP BY vehicle_id",
		info.ExpiryColumn, info.Table)
	err := tx.Table(info.Table).
		Select(fmt.Sprintf("%s.vehicle_id, %s.%s AS expiry_date, %s.bill_amount",
			info.Table, info.Table, info.ExpiryColumn, info.Table)).
		Joins(fmt.Sprintf("JOIN (%s) latest ON latest.vehicle_id = %s.vehicle_id AND latest.max_expiry = %s.%s",
			sub, info.Table, info.Table, info.ExpiryColumn), vehicleIds).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.VehicleId] = row
	}
	return out, nil
}
