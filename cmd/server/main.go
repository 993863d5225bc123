package main

import (
	"context"
	"log"
	"strings"

	"backoffice-backend/internal/audit"
	"backoffice-backend/internal/auth"
	"backoffice-backend/internal/catalog"
	"backoffice-backend/internal/config"
	"backoffice-backend/internal/dashboard"
	"backoffice-backend/internal/database"
	"backoffice-backend/internal/expense"
	"backoffice-backend/internal/inventory"
	"backoffice-backend/internal/lookup"
	"backoffice-backend/internal/models"
	"backoffice-backend/internal/party"
	"backoffice-backend/internal/reports"
	"backoffice-backend/internal/sales"
	"backoffice-backend/internal/scheduling"
	"backoffice-backend/internal/tokens"
	"backoffice-backend/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/template/html/v2"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	// One-time auth tokens (password reset, activation, logout denylist)
	// live in Redis when available, otherwise in process memory.
	var store tokens.Store
	if cfg.RedisAddr != "" {
		redisStore := tokens.NewRedisStore(cfg.RedisAddr)
		if err := redisStore.Ping(context.Background()); err != nil {
			log.Println("[WARN] Redis unreachable, falling back to in-memory token store:", err)
			store = tokens.NewMemoryStore()
		} else {
			defer redisStore.Close()
			store = redisStore
		}
	} else {
		store = tokens.NewMemoryStore()
	}

	engine := html.New(cfg.ViewsPath, ".html")
	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public
	api.Get("/system/health", reports.HealthHandler())
	api.Post("/auth/register", auth.RegisterHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))
	api.Post("/auth/password/reset", auth.PasswordResetRequestHandler(cfg, store))
	api.Post("/auth/password/reset/confirm", auth.PasswordResetConfirmHandler(store))
	api.Post("/auth/activate", auth.ActivateHandler(store))
	api.Post("/auth/activate/resend", auth.ResendActivationHandler(cfg, store))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg, store))

	protected.Get("/auth/me", auth.MeHandler())
	protected.Post("/auth/logout", auth.LogoutHandler(store))
	protected.Post("/auth/password/change", auth.ChangePasswordHandler())

	// Reference data
	lookup.RegisterRoutes(protected)

	// Products
	protected.Get("/products", catalog.ListProductsHandler())
	protected.Get("/products/low-stock", catalog.LowStockHandler())
	protected.Get("/products/stock-alerts", catalog.StockAlertsHandler())
	protected.Get("/products/by-category", catalog.ByCategoryHandler())
	protected.Get("/products/inventory-value", catalog.InventoryValueHandler())
	protected.Get("/products/:id", catalog.GetProductHandler())
	protected.Post("/products", catalog.CreateProductHandler())
	protected.Put("/products/:id", catalog.UpdateProductHandler())
	protected.Delete("/products/:id", catalog.DeleteProductHandler())
	protected.Post("/products/:id/adjust-stock", catalog.AdjustStockHandler())
	protected.Get("/advanced-search", catalog.AdvancedSearchHandler())
	protected.Post("/bulk-update", catalog.BulkUpdateHandler())

	// Suppliers
	protected.Get("/suppliers", party.ListSuppliersHandler())
	protected.Get("/suppliers/active", party.ActiveSuppliersHandler())
	protected.Get("/suppliers/:id", party.GetSupplierHandler())
	protected.Post("/suppliers", party.CreateSupplierHandler())
	protected.Put("/suppliers/:id", party.UpdateSupplierHandler())
	protected.Delete("/suppliers/:id", party.DeleteSupplierHandler())
	protected.Get("/suppliers/:id/entries", party.SupplierEntriesHandler())
	protected.Get("/suppliers/:id/expenses", party.SupplierExpensesHandler())

	// Customers
	protected.Get("/customers", party.ListCustomersHandler())
	protected.Get("/customers/top", party.TopCustomersHandler())
	protected.Get("/customers/:id", party.GetCustomerHandler())
	protected.Post("/customers", party.CreateCustomerHandler())
	protected.Put("/customers/:id", party.UpdateCustomerHandler())
	protected.Delete("/customers/:id", party.DeleteCustomerHandler())
	protected.Get("/customers/:id/sales", party.CustomerSalesHandler())
	protected.Get("/customers/:id/summary", party.CustomerSummaryHandler())

	// Stock entries
	protected.Get("/entries", inventory.ListEntriesHandler())
	protected.Get("/entries/by-date-range", inventory.EntriesByDateRangeHandler())
	protected.Get("/entries/summary", inventory.EntriesSummaryHandler())
	protected.Get("/entries/:id", inventory.GetEntryHandler())
	protected.Post("/entries", inventory.CreateEntryHandler())
	protected.Put("/entries/:id", inventory.UpdateEntryHandler())
	protected.Delete("/entries/:id", inventory.DeleteEntryHandler())
	protected.Post("/entries/:id/validate", inventory.ValidateEntryHandler())
	protected.Post("/entries/:id/cancel", inventory.CancelEntryHandler())
	protected.Get("/entries/:id/items", inventory.ListEntryItemsHandler())
	protected.Post("/entries/:id/items", inventory.CreateEntryItemHandler())
	protected.Put("/entries/:id/items/:itemId", inventory.UpdateEntryItemHandler())
	protected.Delete("/entries/:id/items/:itemId", inventory.DeleteEntryItemHandler())

	// Sales
	protected.Get("/sales", sales.ListSalesHandler())
	protected.Get("/sales/today", sales.TodaySalesHandler())
	protected.Get("/sales/by-date-range", sales.SalesByDateRangeHandler())
	protected.Get("/sales/summary", sales.SalesSummaryHandler())
	protected.Get("/sales/top-products", sales.TopProductsHandler())
	protected.Get("/sales/payment-methods-stats", sales.PaymentMethodStatsHandler())
	protected.Get("/sales/:id", sales.GetSaleHandler())
	protected.Post("/sales", sales.CreateSaleHandler())
	protected.Put("/sales/:id", sales.UpdateSaleHandler())
	protected.Delete("/sales/:id", sales.DeleteSaleHandler())
	protected.Post("/sales/:id/complete", sales.CompleteSaleHandler())
	protected.Post("/sales/:id/cancel", sales.CancelSaleHandler())
	protected.Get("/sales/:id/items", sales.ListSaleItemsHandler())
	protected.Post("/sales/:id/items", sales.CreateSaleItemHandler())
	protected.Put("/sales/:id/items/:itemId", sales.UpdateSaleItemHandler())
	protected.Delete("/sales/:id/items/:itemId", sales.DeleteSaleItemHandler())
	protected.Post("/validate-sale", sales.ValidateSaleHandler())

	// Expenses
	protected.Get("/expenses", expense.ListExpensesHandler())
	protected.Get("/expenses/overdue", expense.OverdueExpensesHandler())
	protected.Get("/expenses/by-date-range", expense.ExpensesByDateRangeHandler())
	protected.Get("/expenses/summary", expense.ExpensesSummaryHandler())
	protected.Get("/expenses/:id", expense.GetExpenseHandler())
	protected.Post("/expenses", expense.CreateExpenseHandler())
	protected.Put("/expenses/:id", expense.UpdateExpenseHandler())
	protected.Delete("/expenses/:id", expense.DeleteExpenseHandler())
	protected.Post("/expenses/:id/mark-as-paid", expense.MarkExpensePaidHandler())

	// Recurring expenses
	protected.Get("/recurring-expenses", expense.ListRecurringExpensesHandler())
	protected.Get("/recurring-expenses/due-soon", expense.DueSoonHandler())
	protected.Get("/recurring-expenses/:id", expense.GetRecurringExpenseHandler())
	protected.Post("/recurring-expenses", expense.CreateRecurringExpenseHandler())
	protected.Put("/recurring-expenses/:id", expense.UpdateRecurringExpenseHandler())
	protected.Delete("/recurring-expenses/:id", expense.DeleteRecurringExpenseHandler())
	protected.Post("/recurring-expenses/:id/generate", expense.GenerateExpenseHandler())

	// Time slots and assignments
	protected.Get("/time-slots", scheduling.ListTimeSlotsHandler())
	protected.Get("/time-slots/:id", scheduling.GetTimeSlotHandler())
	protected.Post("/time-slots", scheduling.CreateTimeSlotHandler())
	protected.Put("/time-slots/:id", scheduling.UpdateTimeSlotHandler())
	protected.Delete("/time-slots/:id", scheduling.DeleteTimeSlotHandler())
	protected.Get("/time-slots/:id/roster", scheduling.SlotRosterHandler())
	protected.Get("/user-time-slots", scheduling.ListAssignmentsHandler())
	protected.Post("/user-time-slots", scheduling.CreateAssignmentHandler())
	protected.Put("/user-time-slots/:id", scheduling.UpdateAssignmentHandler())
	protected.Delete("/user-time-slots/:id", scheduling.DeleteAssignmentHandler())
	protected.Get("/users/:id/schedule", scheduling.UserScheduleHandler())

	// Reports
	protected.Get("/business-stats", reports.BusinessStatsHandler())
	protected.Post("/sales-report", reports.SalesReportHandler())
	protected.Get("/low-stock-alerts", reports.LowStockReportHandler())
	protected.Get("/financial-dashboard", reports.FinancialDashboardHandler())
	protected.Get("/inventory-dashboard", reports.InventoryDashboardHandler())
	protected.Get("/customer-analytics", reports.CustomerAnalyticsHandler())
	protected.Get("/system/notifications", reports.NotificationsHandler())

	// Admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Get("/users", users.ListUsersHandler())
	adminRoutes.Get("/users/:id", users.GetUserHandler())
	adminRoutes.Post("/users", users.CreateUserHandler())
	adminRoutes.Put("/users/:id", users.UpdateUserHandler())
	adminRoutes.Delete("/users/:id", users.DeleteUserHandler())

	adminRoutes.Get("/roles", users.ListRolesHandler())
	adminRoutes.Post("/roles", users.CreateRoleHandler())
	adminRoutes.Put("/roles/:id", users.UpdateRoleHandler())
	adminRoutes.Delete("/roles/:id", users.DeleteRoleHandler())

	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler())

	// Data export and housekeeping, admin-gated but at the API root so the
	// paths stay stable for tooling.
	adminOnly := auth.RequireRole(models.RoleAdmin)
	protected.Get("/export", adminOnly, reports.ExportProductsHandler())
	protected.Post("/backup", adminOnly, reports.BackupHandler())
	protected.Post("/system/cleanup", adminOnly, reports.CleanupHandler())

	// Server-rendered pages
	pages := app.Group("/dashboard")
	pages.Get("/", dashboard.HomeHandler())
	pages.Get("/inventory", dashboard.InventoryHandler())
	pages.Get("/sales", dashboard.SalesHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
