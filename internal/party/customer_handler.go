package party

import (
	"strings"

	"backoffice-backend/internal/auth"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CustomerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Notes     string `json:"notes"`
	IsActive  *bool  `json:"is_active"`
}

func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Order("last_name, first_name")
		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			q = q.Where("first_name ILIKE ? OR last_name ILIKE ? OR phone ILIKE ?", like, like, like)
		}
		if c.Query("is_active") == "true" {
			q = q.Where("is_active = true")
		}

		var customers []models.Customer
		if err := q.Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list customers")
		}
		return c.JSON(customers)
	}
}

func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Customer not found")
		}
		return c.JSON(customer)
	}
}

func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CustomerRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "first_name and last_name are required")
		}

		customer := models.Customer{
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Email:     req.Email,
			Phone:     req.Phone,
			Address:   req.Address,
			Notes:     req.Notes,
			IsActive:  true,
		}
		customer.StampCreated(auth.ActorID(c))
		if err := database.DB.Create(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create customer")
		}

		writePartyAudit(c, "customer", models.AuditActionCreate, customer.ID,
			"Created customer "+customer.FullName(), nil, customer)
		return c.Status(fiber.StatusCreated).JSON(customer)
	}
}

func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Customer not found")
		}
		before := customer

		var req CustomerRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if strings.TrimSpace(req.FirstName) != "" {
			customer.FirstName = strings.TrimSpace(req.FirstName)
		}
		if strings.TrimSpace(req.LastName) != "" {
			customer.LastName = strings.TrimSpace(req.LastName)
		}
		if req.Email != "" {
			customer.Email = req.Email
		}
		if req.Phone != "" {
			customer.Phone = req.Phone
		}
		if req.Address != "" {
			customer.Address = req.Address
		}
		if req.Notes != "" {
			customer.Notes = req.Notes
		}
		if req.IsActive != nil {
			customer.IsActive = *req.IsActive
		}
		customer.StampUpdated(auth.ActorID(c))

		if err := database.DB.Save(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update customer")
		}

		writePartyAudit(c, "customer", models.AuditActionUpdate, customer.ID,
			"Updated customer "+customer.FullName(), before, customer)
		return c.JSON(customer)
	}
}

func DeleteCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Customer not found")
		}

		var count int64
		database.DB.Model(&models.Sale{}).Where("customer_id = ?", customer.ID).Count(&count)
		if count > 0 {
			before := customer
			customer.IsActive = false
			customer.StampUpdated(auth.ActorID(c))
			if err := database.DB.Save(&customer).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not deactivate customer")
			}
			writePartyAudit(c, "customer", models.AuditActionUpdate, customer.ID,
				"Deactivated customer "+customer.FullName(), before, customer)
			return c.JSON(fiber.Map{"message": "Customer has sales; deactivated instead of deleted"})
		}

		if err := database.DB.Delete(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete customer")
		}
		writePartyAudit(c, "customer", models.AuditActionDelete, customer.ID,
			"Deleted customer "+customer.FullName(), customer, nil)
		return c.JSON(fiber.Map{"message": "Customer deleted"})
	}
}

// CustomerSalesHandler lists one customer's sales, newest first.
func CustomerSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Customer not found")
		}

		var sales []models.Sale
		if err := database.DB.Preload("Items").
			Where("customer_id = ?", customer.ID).
			Order("sale_date DESC").
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list customer sales")
		}
		return c.JSON(sales)
	}
}

// CustomerSummaryHandler aggregates a customer's completed purchase history.
func CustomerSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Customer not found")
		}

		type summaryRow struct {
			TotalSales int64   `json:"total_sales"`
			TotalSpent float64 `json:"total_spent"`
			AvgTicket  float64 `json:"avg_ticket"`
		}
		var row summaryRow
		database.DB.Model(&models.Sale{}).
			Where("customer_id = ? AND status_code = ?", customer.ID, models.SaleStatusCompleted).
			Select("COUNT(*) AS total_sales, " +
				"COALESCE(SUM(total_amount), 0) AS total_spent, " +
				"COALESCE(AVG(total_amount), 0) AS avg_ticket").
			Scan(&row)

		var lastSale models.Sale
		lastErr := database.DB.
			Where("customer_id = ? AND status_code = ?", customer.ID, models.SaleStatusCompleted).
			Order("sale_date DESC").First(&lastSale).Error

		resp := fiber.Map{
			"customer":    customer,
			"total_sales": row.TotalSales,
			"total_spent": row.TotalSpent,
			"avg_ticket":  row.AvgTicket,
		}
		if lastErr == nil {
			resp["last_sale_date"] = lastSale.SaleDate
		}
		return c.JSON(resp)
	}
}

// TopCustomersHandler ranks customers by completed sale revenue.
func TopCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 10)
		if limit < 1 || limit > 100 {
			limit = 10
		}

		type topRow struct {
			CustomerID uint    `json:"customer_id"`
			FirstName  string  `json:"first_name"`
			LastName   string  `json:"last_name"`
			SaleCount  int64   `json:"sale_count"`
			TotalSpent float64 `json:"total_spent"`
		}

		var rows []topRow
		err := database.DB.Model(&models.Sale{}).
			Joins("JOIN customers ON customers.id = sales.customer_id").
			Where("sales.status_code = ?", models.SaleStatusCompleted).
			Select("sales.customer_id, customers.first_name, customers.last_name, " +
				"COUNT(*) AS sale_count, SUM(sales.total_amount) AS total_spent").
			Group("sales.customer_id, customers.first_name, customers.last_name").
			Order("total_spent DESC").
			Limit(limit).
			Scan(&rows).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not rank customers")
		}
		return c.JSON(rows)
	}
}
