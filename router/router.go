package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dinehub/scheduling-engine/controllers"
	"github.com/dinehub/scheduling-engine/middlewares"
	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/services"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	store := repository.NewStore(db)

	// Inisialisasi service graph
	availabilitySvc := services.NewAvailabilityService(store)
	detector := services.NewConflictDetector(availabilitySvc)
	waitlistSvc := services.NewWaitlistService(store, availabilitySvc, detector)
	reservationSvc := services.NewReservationService(store, availabilitySvc, detector, waitlistSvc)
	orderSvc := services.NewOrderService(store, availabilitySvc, detector)

	// Inisialisasi controller
	availabilityCtrl := controllers.NewAvailabilityController(store, availabilitySvc)
	reservationCtrl := controllers.NewReservationController(store, reservationSvc, waitlistSvc)
	orderCtrl := controllers.NewOrderController(store, orderSvc)
	waitlistCtrl := controllers.NewWaitlistController(store, waitlistSvc)
	notificationCtrl := controllers.NewNotificationController(store)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                 PUBLIC ROUTES (customer, tanpa auth)
	// ----------------------------------------------------------------
	public := r.Group("/restaurants/:restaurant_id")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.GET("/availability", availabilityCtrl.GetAvailability)

		public.POST("/reservations", reservationCtrl.CreateReservation)
		public.GET("/reservations/:code", reservationCtrl.GetReservation)
		public.DELETE("/reservations/:code", reservationCtrl.CancelReservation)

		public.POST("/orders", orderCtrl.IntakeOrder)
		public.POST("/orders/:order_id/respond", orderCtrl.RespondToAlternatives)

		public.POST("/waitlist", waitlistCtrl.JoinWaitlist)
		public.POST("/waitlist/:entry_id/confirm", waitlistCtrl.ConfirmSlot)
		public.DELETE("/waitlist/:entry_id", waitlistCtrl.LeaveWaitlist)
	}

	// ----------------------------------------------------------------
	//                 STAFF ROUTES (token tenant dari host)
	// ----------------------------------------------------------------
	staff := r.Group("/staff/restaurants/:restaurant_id")
	staff.Use(middlewares.TenantMiddleware())
	{
		staff.GET("/reservations",
			middlewares.RequireRole("host", "manager"),
			reservationCtrl.ListReservations)
		staff.PATCH("/reservations/:reservation_id/confirm",
			middlewares.RequireRole("host", "manager"),
			reservationCtrl.ConfirmReservation)
		staff.PATCH("/reservations/:reservation_id",
			middlewares.RequireRole("host", "manager"),
			reservationCtrl.UpdateReservation)
		staff.PATCH("/reservations/:reservation_id/check-in",
			middlewares.RequireRole("host", "manager"),
			reservationCtrl.CheckIn)
		staff.PATCH("/reservations/:reservation_id/no-show",
			middlewares.RequireRole("host", "manager"),
			reservationCtrl.MarkNoShow)
		staff.PATCH("/reservations/:reservation_id/complete",
			middlewares.RequireRole("host", "manager"),
			reservationCtrl.CompleteReservation)
		staff.DELETE("/reservations/:reservation_id",
			middlewares.RequireRole("host", "manager"),
			reservationCtrl.StaffCancel)

		staff.GET("/orders",
			middlewares.RequireRole("host", "manager", "kitchen"),
			orderCtrl.ListOrders)
		staff.GET("/orders/:order_id",
			middlewares.RequireRole("host", "manager", "kitchen"),
			orderCtrl.GetOrder)
		staff.PATCH("/orders/:order_id/approve",
			middlewares.RequireRole("manager", "kitchen"),
			orderCtrl.ApproveOrder)
		staff.POST("/orders/:order_id/alternatives",
			middlewares.RequireRole("manager", "kitchen"),
			orderCtrl.ProposeAlternatives)

		staff.GET("/waitlist",
			middlewares.RequireRole("host", "manager"),
			waitlistCtrl.ListWaitlist)

		staff.GET("/intents",
			middlewares.RequireRole("host", "manager"),
			notificationCtrl.ListPending)
		staff.PATCH("/intents/:intent_id/dispatch",
			middlewares.RequireRole("host", "manager"),
			notificationCtrl.MarkDispatched)
	}

	// Endpoint WebSocket dashboard staff (realtime intent feed)
	r.GET("/staff/ws", middlewares.TenantMiddleware(), controllers.EventsHandler)

	return r
}
