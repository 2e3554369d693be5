package routes

import (
	"tuition_go/controllers"
	"tuition_go/handlers"
	"tuition_go/middleware"

	"github.com/gofiber/fiber/v2"
)

// Controllers bundles everything the router mounts.
type Controllers struct {
	Students    *controllers.StudentController
	Fees        *controllers.FeeController
	Dashboard   *controllers.DashboardController
	Reminders   *controllers.ReminderController
	Reports     *controllers.ReportController
	Health      *controllers.HealthController
	WebSocket   *controllers.WebSocketController
	LineWebhook *handlers.LineWebhookHandler
}

// Auth selects whether /api requires a bearer token.
type Auth struct {
	Enabled   bool
	JWTSecret string
}

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, ctl Controllers, auth Auth) {
	authenticate := middleware.Passthrough()
	staff := middleware.Passthrough()
	admin := middleware.Passthrough()
	if auth.Enabled {
		authenticate = middleware.JWTMiddleware(auth.JWTSecret)
		staff = middleware.RequireStaff()
		admin = middleware.RequireAdmin()
	}

	if ctl.Health != nil {
		app.Get("/health", ctl.Health.GetHealthStatus)
	}

	api := app.Group("/api", authenticate)

	// Students. Static paths go before /:id.
	students := api.Group("/students")
	students.Get("/", ctl.Students.GetStudents)
	students.Post("/", staff, ctl.Students.CreateStudent)
	students.Get("/search", ctl.Students.SearchStudents)
	students.Get("/due-today", ctl.Students.GetStudentsDueToday)
	students.Get("/due-fees-with-messages", ctl.Students.GetDueFeesWithMessages)
	students.Get("/:id", ctl.Students.GetStudent)
	students.Put("/:id", staff, ctl.Students.UpdateStudent)
	students.Delete("/:id", admin, ctl.Students.DeleteStudent)
	students.Get("/:id/fees", ctl.Students.GetStudentFees)
	students.Get("/:id/due-fees", ctl.Students.GetStudentDueFees)

	// Fee ledger
	fees := api.Group("/fees")
	fees.Get("/", ctl.Fees.GetFees)
	fees.Post("/", staff, ctl.Fees.CreateFee)
	fees.Get("/due", ctl.Fees.GetDueFees)
	fees.Get("/overdue", ctl.Fees.GetOverdueFees)
	fees.Get("/due-today", ctl.Fees.GetFeesDueToday)
	fees.Get("/range", ctl.Fees.GetFeesInRange)
	fees.Get("/student/:studentId", ctl.Fees.GetFeesByStudent)
	fees.Post("/generate", staff, ctl.Fees.GenerateMonthly)
	fees.Get("/:id", ctl.Fees.GetFee)
	fees.Put("/:id", staff, ctl.Fees.UpdateFee)
	fees.Put("/:id/pay", staff, ctl.Fees.MarkPaid)
	fees.Put("/:id/mark-paid", staff, ctl.Fees.MarkPaid)
	fees.Delete("/:id", admin, ctl.Fees.DeleteFee)

	dashboard := api.Group("/dashboard")
	dashboard.Get("/stats", ctl.Dashboard.GetStats)
	dashboard.Get("/summary", ctl.Dashboard.GetSummary)
	dashboard.Get("/outstanding", ctl.Dashboard.GetOutstandingByStudent)

	reminders := api.Group("/reminders")
	reminders.Get("/whatsapp", ctl.Reminders.GetWhatsAppReminders)
	reminders.Post("/dispatch", staff, ctl.Reminders.Dispatch)

	if ctl.Reports != nil {
		reports := api.Group("/reports")
		reports.Get("/fees.xlsx", ctl.Reports.DownloadFees)
		reports.Get("/archives", ctl.Reports.ListArchives)
		reports.Post("/archive", admin, ctl.Reports.Archive)
	}

	if ctl.WebSocket != nil {
		api.Get("/ws/stats", ctl.WebSocket.GetWebSocketStats)
		// token travels in the query string, so /ws sits outside the /api auth group
		app.Use("/ws", ctl.WebSocket.RequireUpgrade)
		app.Get("/ws", ctl.WebSocket.WebSocketHandler())
	}

	if ctl.LineWebhook != nil {
		app.Post("/line/webhook", ctl.LineWebhook.Handle)
		app.Get("/line/webhook", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"status":  "ok",
				"message": "LINE webhook endpoint ready (use POST for real events)",
			})
		})
	}
}
