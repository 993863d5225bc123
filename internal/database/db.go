package database

import (
	"log"

	"backoffice-backend/internal/config"
	"backoffice-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to the database: %v", err)
	}

	err = DB.AutoMigrate(
		// Reference data
		&models.ProductCategory{},
		&models.ProductUnit{},
		&models.UserRole{},
		&models.UserStatus{},
		&models.EntryType{},
		&models.ExpenseCategory{},
		&models.ExpenseStatus{},
		&models.PaymentMethod{},
		&models.SaleStatus{},
		&models.PaymentStatus{},
		// Accounts
		&models.User{},
		// Parties
		&models.Supplier{},
		&models.Customer{},
		// Catalog
		&models.Product{},
		// Scheduling
		&models.TimeSlot{},
		&models.UserTimeSlot{},
		// Stock entries
		&models.Entry{},
		&models.EntryItem{},
		// Expenses
		&models.RecurringExpense{},
		&models.Expense{},
		// Sales
		&models.Sale{},
		&models.SaleItem{},
		// Audit trail
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	seedReferenceData()

	log.Println("Database connection OK. Migration complete.")
}

// seedReferenceData inserts the status/lookup rows the lifecycle logic keys
// on. Existing rows are left untouched (codes are unique).
func seedReferenceData() {
	seedSaleStatuses := []models.SaleStatus{
		{Name: "Pending", Code: models.SaleStatusPending, IsActive: true},
		{Name: "Completed", Code: models.SaleStatusCompleted, IsActive: true},
		{Name: "Cancelled", Code: models.SaleStatusCancelled, IsActive: true},
	}
	for _, s := range seedSaleStatuses {
		DB.Where(models.SaleStatus{Code: s.Code}).FirstOrCreate(&s)
	}

	seedPaymentStatuses := []models.PaymentStatus{
		{Name: "Pending", Code: models.PaymentStatusPending, IsActive: true},
		{Name: "Paid", Code: models.PaymentStatusPaid, IsActive: true},
		{Name: "Refunded", Code: models.PaymentStatusRefunded, IsActive: true},
	}
	for _, s := range seedPaymentStatuses {
		DB.Where(models.PaymentStatus{Code: s.Code}).FirstOrCreate(&s)
	}

	seedExpenseStatuses := []models.ExpenseStatus{
		{Name: "Pending", Code: models.ExpenseStatusPending, IsActive: true},
		{Name: "Approved", Code: models.ExpenseStatusApproved, IsActive: true},
		{Name: "Paid", Code: models.ExpenseStatusPaid, IsActive: true},
		{Name: "Validated", Code: models.ExpenseStatusValidated, IsActive: true},
		{Name: "Cancelled", Code: models.ExpenseStatusCancelled, IsActive: true},
	}
	for _, s := range seedExpenseStatuses {
		DB.Where(models.ExpenseStatus{Code: s.Code}).FirstOrCreate(&s)
	}

	seedRoles := []models.UserRole{
		{Name: models.RoleAdmin, Description: "Full access", IsActive: true},
		{Name: models.RoleStaff, Description: "Day-to-day operations", IsActive: true},
	}
	for _, r := range seedRoles {
		DB.Where(models.UserRole{Name: r.Name}).FirstOrCreate(&r)
	}
}
