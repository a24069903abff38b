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

// LedgerAccount is a named counterparty owned by the boss. Entries may also
// be recorded against no account ("General" cash movements).
type LedgerAccount struct {
	ID           int       `gorm:"primary_key" json:"id"`
	UserId       int       `gorm:"index;not null" json:"user_id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	MobileNumber string    `gorm:"size:20" json:"mobile_number"`
	Type         string    `gorm:"size:50;default:general" json:"type"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// LedgerEntry is a single cash movement. Unlike most tenant rows it is owned
// by the acting user, so staff activity stays attributable.
type LedgerEntry struct {
	ID              int             `gorm:"primary_key" json:"id"`
	UserId          int             `gorm:"index;not null" json:"user_id"`
	LedgerAccountId *int            `gorm:"index" json:"ledger_account_id"`
	TxnType         TxnType         `gorm:"size:10;not null" json:"txn_type"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	EntryDate       time.Time       `gorm:"not null;index" json:"entry_date"`
	Description     string          `gorm:"size:255" json:"description"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewLedgerAccount struct {
	Name         string `json:"name" binding:"required"`
	MobileNumber string `json:"mobile_number"`
	Type         string `json:"type"`
}

type NewLedgerEntry struct {
	LedgerAccountId *int   `json:"ledger_account_id"`
	TxnType         string `json:"txn_type" binding:"required,oneof=IN OUT"`
	Amount          string `json:"amount" binding:"required"`
	EntryDate       string `json:"entry_date" binding:"required"`
	Description     string `json:"description"`
}

// LedgerEntryRow is an entry joined with its account and creator names for
// listings.
type LedgerEntryRow struct {
	ID              int             `json:"id"`
	UserId          int             `json:"user_id"`
	LedgerAccountId *int            `json:"ledger_account_id"`
	AccountName     *string         `json:"account_name"`
	AccountMobile   *string         `json:"account_mobile"`
	CreatedBy       string          `json:"created_by"`
	TxnType         TxnType         `json:"txn_type"`
	Amount          decimal.Decimal `json:"amount"`
	EntryDate       time.Time       `json:"entry_date"`
	Description     string          `json:"description"`
	CreatedAt       time.Time       `json:"created_at"`
}

type LedgerTotals struct {
	TotalIn  decimal.Decimal `json:"total_in"`
	TotalOut decimal.Decimal `json:"total_out"`
	Net      decimal.Decimal `json:"net"`
}

func ListLedgerAccounts(ctx context.Context, ownerId int) ([]*LedgerAccount, error) {
	db := config.GetDB()
	var accounts []*LedgerAccount
	err := db.WithContext(ctx).
		Where("user_id = ?", ownerId).
		Order("name ASC").
		Find(&accounts).Error
	return accounts, err
}

func GetLedgerAccountById(ctx context.Context, ownerId int, id int) (*LedgerAccount, error) {
	db := config.GetDB()
	var account LedgerAccount
	err := db.WithContext(ctx).
		Where("user_id = ? AND id = ?", ownerId, id).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &account, nil
}

func CreateLedgerAccount(ctx context.Context, ownerId int, input NewLedgerAccount) (*LedgerAccount, error) {
	db := config.GetDB()
	accountType := input.Type
	if accountType == "" {
		accountType = "general"
	}
	account := LedgerAccount{
		UserId:       ownerId,
		Name:         utils.UpperTrim(input.Name),
		MobileNumber: input.MobileNumber,
		Type:         accountType,
	}
	if err := db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func UpdateLedgerAccount(ctx context.Context, ownerId int, id int, input NewLedgerAccount) (*LedgerAccount, error) {
	account, err := GetLedgerAccountById(ctx, ownerId, id)
	if err != nil {
		return nil, err
	}
	account.Name = utils.UpperTrim(input.Name)
	account.MobileNumber = input.MobileNumber
	if input.Type != "" {
		account.Type = input.Type
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Save(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteLedgerAccount removes the account and detaches its entries so the
// history keeps its totals.
func DeleteLedgerAccount(ctx context.Context, ownerId int, id int) error {
	account, err := GetLedgerAccountById(ctx, ownerId, id)
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&LedgerEntry{}).
			Where("ledger_account_id = ?", account.ID).
			Update("ledger_account_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Delete(account).Error
	})
}

// FindOrCreateLedgerAccountByName is the bulk-import hook. Empty or "General"
// names map to no account.
func FindOrCreateLedgerAccountByName(tx *gorm.DB, ownerId int, name string) (*int, error) {
	name = utils.UpperTrim(name)
	if name == "" || name == "GENERAL" {
		return nil, nil
	}
	var account LedgerAccount
	err := tx.Where("user_id = ? AND name = ?", ownerId, name).First(&account).Error
	if err == nil {
		return &account.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	account = LedgerAccount{UserId: ownerId, Name: name, Type: "general"}
	if err := tx.Create(&account).Error; err != nil {
		return nil, err
	}
	return &account.ID, nil
}

func CreateLedgerEntry(ctx context.Context, userId int, input NewLedgerEntry) (*LedgerEntry, error) {
	amount, err := utils.ParseDecimal(input.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, errors.New("amount must be a positive number")
	}
	entryDate, err := time.Parse("2006-01-02", input.EntryDate)
	if err != nil {
		return nil, errors.New("entry_date must be YYYY-MM-DD")
	}
	if !TxnType(input.TxnType).Valid() {
		return nil, errors.New("txn_type must be IN or OUT")
	}

	entry := LedgerEntry{
		UserId:          userId,
		LedgerAccountId: input.LedgerAccountId,
		TxnType:         TxnType(input.TxnType),
		Amount:          amount.Round(2),
		EntryDate:       entryDate,
		Description:     utils.UpperTrim(input.Description),
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func GetLedgerEntryById(ctx context.Context, teamIds []int, id int) (*LedgerEntry, error) {
	db := config.GetDB()
	var entry LedgerEntry
	err := db.WithContext(ctx).
		Where("user_id IN ? AND id = ?", teamIds, id).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func DeleteLedgerEntry(ctx context.Context, teamIds []int, id int) error {
	entry, err := GetLedgerEntryById(ctx, teamIds, id)
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(entry).Error
}

func ledgerEntryRows(db *gorm.DB) *gorm.DB {
	return db.Table("ledger_entries").
		Select("ledger_entries.id, ledger_entries.user_id, ledger_entries.ledger_account_id, " +
			"ledger_accounts.name AS account_name, ledger_accounts.mobile_number AS account_mobile, " +
			"users.name AS created_by, ledger_entries.txn_type, ledger_entries.amount, " +
			"ledger_entries.entry_date, ledger_entries.description, ledger_entries.created_at").
		Joins("LEFT JOIN ledger_accounts ON ledger_accounts.id = ledger_entries.ledger_account_id").
		Joins("JOIN users ON users.id = ledger_entries.user_id")
}

// LatestLedgerEntries returns the newest team entries for the dashboard.
func LatestLedgerEntries(ctx context.Context, teamIds []int, limit int) ([]*LedgerEntryRow, error) {
	db := config.GetDB()
	var rows []*LedgerEntryRow
	err := ledgerEntryRows(db.WithContext(ctx)).
		Where("ledger_entries.user_id IN ?", teamIds).
		Order("ledger_entries.entry_date DESC, ledger_entries.id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func ledgerTotals(q *gorm.DB) (LedgerTotals, error) {
	var sums []struct {
		TxnType TxnType
		Total   decimal.Decimal
	}
	err := q.Select("txn_type, COALESCE(SUM(amount), 0) AS total").
		Group("txn_type").
		Find(&sums).Error
	if err != nil {
		return LedgerTotals{}, err
	}
	totals := LedgerTotals{}
	for _, s := range sums {
		switch s.TxnType {
		case TxnTypeIn:
			totals.TotalIn = s.Total
		case TxnTypeOut:
			totals.TotalOut = s.Total
		}
	}
	totals.Net = totals.TotalIn.Sub(totals.TotalOut)
	return totals, nil
}

// LedgerTotalsForTeam sums all-time team entries. Pass a date to restrict to
// a single entry_date (the dashboard's "today" block).
func LedgerTotalsForTeam(ctx context.Context, teamIds []int, onDate *time.Time) (LedgerTotals, error) {
	db := config.GetDB()
	q := db.WithContext(ctx).Model(&LedgerEntry{}).Where("user_id IN ?", teamIds)
	if onDate != nil {
		day := utils.DateOnly(*onDate)
		q = q.Where("entry_date >= ? AND entry_date < ?", day, day.AddDate(0, 0, 1))
	}
	return ledgerTotals(q)
}

// LedgerTotalsForUsers sums entries recorded by the given users only.
func LedgerTotalsForUsers(ctx context.Context, userIds []int) (LedgerTotals, error) {
	db := config.GetDB()
	return ledgerTotals(db.WithContext(ctx).Model(&LedgerEntry{}).Where("user_id IN ?", userIds))
}

// AccountBalance is IN minus OUT across the account's entries. Negative means
// the account owes (DUE), positive means advance.
func AccountBalance(ctx context.Context, accountId int) (decimal.Decimal, error) {
	db := config.GetDB()
	var rows []struct {
		TxnType TxnType
		Total   decimal.Decimal
	}
	err := db.WithContext(ctx).Model(&LedgerEntry{}).
		Where("ledger_account_id = ?", accountId).
		Select("txn_type, COALESCE(SUM(amount), 0) AS total").
		Group("txn_type").
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, row := range rows {
		if row.TxnType == TxnTypeIn {
			balance = balance.Add(row.Total)
		} else {
			balance = balance.Sub(row.Total)
		}
	}
	return balance, nil
}

type LedgerSearchFilter struct {
	AccountId *int
	DateFrom  *time.Time
	DateUpto  *time.Time
	Keyword   string
}

// SearchLedgerEntries filters team entries and returns the rows with totals
// of the filtered set. Filtered views carry no running balance.
func SearchLedgerEntries(ctx context.Context, teamIds []int, filter LedgerSearchFilter) ([]*LedgerEntryRow, LedgerTotals, error) {
	db := config.GetDB()

	apply := func(q *gorm.DB) *gorm.DB {
		q = q.Where("ledger_entries.user_id IN ?", teamIds)
		if filter.AccountId != nil {
			q = q.Where("ledger_entries.ledger_account_id = ?", *filter.AccountId)
		}
		if filter.DateFrom != nil {
			q = q.Where("ledger_entries.entry_date >= ?", utils.DateOnly(*filter.DateFrom))
		}
		if filter.DateUpto != nil {
			q = q.Where("ledger_entries.entry_date < ?", utils.DateOnly(*filter.DateUpto).AddDate(0, 0, 1))
		}
		if filter.Keyword != "" {
			like := "%" + filter.Keyword + "%"
			q = q.Where("(ledger_entries.description LIKE ? OR ledger_entries.amount LIKE ?)", like, like)
		}
		return q
	}

	var rows []*LedgerEntryRow
	err := apply(ledgerEntryRows(db.WithContext(ctx))).
		Order("ledger_entries.entry_date DESC, ledger_entries.id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, LedgerTotals{}, err
	}

	totals, err := ledgerTotals(apply(db.WithContext(ctx).Table("ledger_entries")))
	if err != nil {
		return nil, LedgerTotals{}, err
	}
	return rows, totals, nil
}

// LedgerBalanceRow pairs an entry with the team balance as it stood just
// before that entry was recorded.
type LedgerBalanceRow struct {
	Entry         *LedgerEntryRow `json:"entry"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
}

func signedAmount(row *LedgerEntryRow) decimal.Decimal {
	if row.TxnType == TxnTypeIn {
		return row.Amount
	}
	return row.Amount.Neg()
}

// RunningBalances walks newest-first entries backwards from the current net:
// each row's balance is the net just before that entry's effect. Recomputing
// forward from the oldest row must land back on currentNet.
func RunningBalances(entries []*LedgerEntryRow, currentNet decimal.Decimal) []LedgerBalanceRow {
	out := make([]LedgerBalanceRow, len(entries))
	balance := currentNet
	for i, entry := range entries {
		balance = balance.Sub(signedAmount(entry))
		out[i] = LedgerBalanceRow{Entry: entry, BalanceBefore: balance}
	}
	return out
}
