package workflow

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExportFile is one CSV inside the backup archive.
type ExportFile struct {
	Name string
	Data []byte
}

const noRecordsBody = "No records found"

func csvBytes(header []string, rows [][]string) []byte {
	if len(rows) == 0 {
		return []byte(noRecordsBody)
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(header)
	_ = w.WriteAll(rows)
	w.Flush()
	return buf.Bytes()
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// rawTableCSV dumps an arbitrary query preserving column order, formatting
// dates and byte columns as strings.
func rawTableCSV(q *gorm.DB) ([]byte, error) {
	rows, err := q.Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out [][]string
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make([]string, len(cols))
		for i, v := range values {
			switch value := v.(type) {
			case nil:
				record[i] = ""
			case time.Time:
				record[i] = value.Format("2006-01-02 15:04:05")
			case []byte:
				record[i] = string(value)
			default:
				record[i] = fmt.Sprintf("%v", value)
			}
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return csvBytes(cols, out), nil
}

func masterCSV(ctx context.Context, teamIds []int) ([]byte, error) {
	db := config.GetDB()

	type masterVehicle struct {
		ID             int
		RegistrationNo string
		Type           string
		OwnerName      string
		MobileNumber   string
	}
	var vehicles []masterVehicle
	err := db.WithContext(ctx).Table("vehicles").
		Select("vehicles.id, vehicles.registration_no, vehicles.type, citizens.name AS owner_name, citizens.mobile_number").
		Joins("JOIN citizens ON citizens.id = vehicles.citizen_id").
		Where("citizens.user_id IN ?", teamIds).
		Order("citizens.name ASC, vehicles.registration_no ASC").
		Find(&vehicles).Error
	if err != nil {
		return nil, err
	}

	vehicleIds := make([]int, len(vehicles))
	for i, v := range vehicles {
		vehicleIds[i] = v.ID
	}

	latest := make(map[models.DocumentKind]map[int]models.CurrentDocument)
	for _, kind := range models.AllDocumentKinds() {
		docs, err := models.LatestDocuments(db.WithContext(ctx), kind, vehicleIds)
		if err != nil {
			return nil, err
		}
		latest[kind.Kind] = docs
	}

	expiry := func(kind models.DocumentKind, vehicleId int) string {
		doc, ok := latest[kind][vehicleId]
		if !ok {
			return ""
		}
		d := doc.ExpiryDate
		return formatDate(&d)
	}
	bill := func(kind models.DocumentKind, vehicleId int) string {
		doc, ok := latest[kind][vehicleId]
		if !ok {
			return ""
		}
		return formatAmount(doc.BillAmount)
	}

	header := []string{"Owner", "Mobile", "Reg No", "Class",
		"Tax Upto", "Tax Bill", "Ins Upto", "Ins Bill", "Fit Upto", "Fit Bill",
		"Permit Upto", "Permit Bill", "PUCC Upto", "VLTD Upto", "Speed Gov Upto"}
	rows := make([][]string, 0, len(vehicles))
	for _, v := range vehicles {
		rows = append(rows, []string{
			v.OwnerName, v.MobileNumber, v.RegistrationNo, v.Type,
			expiry(models.DocumentKindTax, v.ID), bill(models.DocumentKindTax, v.ID),
			expiry(models.DocumentKindInsurance, v.ID), bill(models.DocumentKindInsurance, v.ID),
			expiry(models.DocumentKindFitness, v.ID), bill(models.DocumentKindFitness, v.ID),
			expiry(models.DocumentKindPermit, v.ID), bill(models.DocumentKindPermit, v.ID),
			expiry(models.DocumentKindPucc, v.ID),
			expiry(models.DocumentKindVltd, v.ID),
			expiry(models.DocumentKindSpeedGov, v.ID),
		})
	}
	return csvBytes(header, rows), nil
}

func cashFlowCSV(ctx context.Context, teamIds []int) ([]byte, error) {
	entries, _, err := models.SearchLedgerEntries(ctx, teamIds, models.LedgerSearchFilter{})
	if err != nil {
		return nil, err
	}
	header := []string{"Date", "Time", "Account Name", "Type", "Amount", "Description"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		account := "General"
		if e.AccountName != nil && *e.AccountName != "" {
			account = *e.AccountName
		}
		rows = append(rows, []string{
			e.EntryDate.Format("02-01-2006"),
			e.EntryDate.Format("03:04 PM"),
			account,
			string(e.TxnType),
			formatAmount(e.Amount),
			e.Description,
		})
	}
	return csvBytes(header, rows), nil
}

func workBookCSV(ctx context.Context, teamIds []int) ([]byte, error) {
	db := config.GetDB()
	type jobRow struct {
		ClientName   string
		MobileNumber string
		JobDate      time.Time
		VehicleNo    string
		Description  string
		BillAmount   decimal.Decimal
		PaidAmount   decimal.Decimal
	}
	var jobs []jobRow
	err := db.WithContext(ctx).Table("work_jobs").
		Select("clients.name AS client_name, clients.mobile_number, work_jobs.job_date, "+
			"work_jobs.vehicle_no, work_jobs.description, work_jobs.bill_amount, work_jobs.paid_amount").
		Joins("JOIN clients ON clients.id = work_jobs.client_id").
		Where("work_jobs.user_id IN ?", teamIds).
		Order("work_jobs.job_date DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}

	header := []string{"Client Name", "Mobile", "Date & Time", "Vehicle", "Work Description", "Bill Amount", "Paid Amount"}
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			job.ClientName,
			job.MobileNumber,
			job.JobDate.Format("02-01-2006 15:04"),
			job.VehicleNo,
			job.Description,
			formatAmount(job.BillAmount),
			formatAmount(job.PaidAmount),
		})
	}
	return csvBytes(header, rows), nil
}

func licensesCSV(ctx context.Context, teamIds []int) ([]byte, error) {
	licenses, err := models.ListLicenses(ctx, teamIds, models.LicenseFilter{})
	if err != nil {
		return nil, err
	}
	header := []string{"Applicant", "DOB", "Mobile", "Application No", "LL Number", "Categories",
		"LL Valid From", "LL Valid Upto", "LL Status", "LL Bill", "LL Paid",
		"DL Status", "DL App No", "DL Number", "DL Valid From", "DL Valid Upto", "DL Bill", "DL Paid"}
	rows := make([][]string, 0, len(licenses))
	for _, l := range licenses {
		dob := l.Dob
		rows = append(rows, []string{
			l.ApplicantName, formatDate(&dob), l.MobileNumber, l.ApplicationNo,
			l.LlNumber, l.Categories,
			formatDate(l.LlValidFrom), formatDate(l.LlValidUpto), l.LlStatus,
			formatAmount(l.LlBillAmount), formatAmount(l.LlPaidAmount),
			l.DlStatus, l.DlAppNo, l.DlNumber,
			formatDate(l.DlValidFrom), formatDate(l.DlValidUpto),
			formatAmount(l.DlBillAmount), formatAmount(l.DlPaidAmount),
		})
	}
	return csvBytes(header, rows), nil
}

var rawTableKeys = []struct {
	Key  string
	Kind models.DocumentKind
}{
	{"tax", models.DocumentKindTax},
	{"insurance", models.DocumentKindInsurance},
	{"fitness", models.DocumentKindFitness},
	{"permit", models.DocumentKindPermit},
	{"pucc", models.DocumentKindPucc},
	{"vltd", models.DocumentKindVltd},
	{"speed_gov", models.DocumentKindSpeedGov},
}

func selected(selections []string, key string) bool {
	for _, s := range selections {
		if s == key {
			return true
		}
	}
	return false
}

// BuildExport assembles the requested CSVs for a team in a stable order.
// Empty datasets become a "No records found" body so every selected file
// still appears in the archive.
func BuildExport(ctx context.Context, teamIds []int, selections []string) ([]ExportFile, error) {
	db := config.GetDB()
	files := make([]ExportFile, 0, len(selections))

	if selected(selections, "master") {
		data, err := masterCSV(ctx, teamIds)
		if err != nil {
			return nil, err
		}
		files = append(files, ExportFile{Name: "MASTER_FULL_RECORD.csv", Data: data})
	}

	if selected(selections, "citizen") {
		data, err := rawTableCSV(db.WithContext(ctx).Table("citizens").
			Where("user_id IN ?", teamIds))
		if err != nil {
			return nil, err
		}
		files = append(files, ExportFile{Name: "Table_citizen.csv", Data: data})
	}
	if selected(selections, "vehicle") {
		data, err := rawTableCSV(db.WithContext(ctx).Table("vehicles").
			Select("vehicles.*").
			Joins("JOIN citizens ON citizens.id = vehicles.citizen_id").
			Where("citizens.user_id IN ?", teamIds))
		if err != nil {
			return nil, err
		}
		files = append(files, ExportFile{Name: "Table_vehicle.csv", Data: data})
	}
	for _, entry := range rawTableKeys {
		if !selected(selections, entry.Key) {
			continue
		}
		info, _ := models.DocumentKindByName(entry.Kind)
		data, err := rawTableCSV(db.WithContext(ctx).Table(info.Table).
			Select(info.Table+".*").
			Joins(fmt.Sprintf("JOIN vehicles ON vehicles.id = %s.vehicle_id", info.Table)).
			Joins("JOIN citizens ON citizens.id = vehicles.citizen_id").
			Where("citizens.user_id IN ?", teamIds))
		if err != nil {
			return nil, err
		}
		files = append(files, ExportFile{Name: fmt.Sprintf("Table_%s.csv", entry.Key), Data: data})
	}

	if selected(selections, "cash_flow") {
		data, err := cashFlowCSV(ctx, teamIds)
		if err != nil {
			return nil, err
		}
		files = append(files, ExportFile{Name: "CashFlow_Import_Ready.csv", Data: data})
	}
	if selected(selections, "work_book") {
		data, err := workBookCSV(ctx, teamIds)
		if err != nil {
			return nil, err
		}
		files = append(files, ExportFile{Name: "WorkBook_Import_Ready.csv", Data: data})
	}
	if selected(selections, "licenses") {
		data, err := licensesCSV(ctx, teamIds)
		if err != nil {
			return nil, err
		}
		files = append(files, ExportFile{Name: "Licenses.csv", Data: data})
	}

	return files, nil
}

// WriteZip streams the export files into a zip archive.
func WriteZip(w io.Writer, files []ExportFile) error {
	zw := zip.NewWriter(w)
	for _, file := range files {
		fw, err := zw.Create(file.Name)
		if err != nil {
			return err
		}
		if _, err := fw.Write(file.Data); err != nil {
			return err
		}
	}
	return zw.Close()
}
