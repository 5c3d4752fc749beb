package api

import (
	"campus_parking/internal/api/handler"
	"campus_parking/internal/api/middleware"
	"campus_parking/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(
	as *service.AuthService,
	gs *service.GateService,
	ps *service.ParkingService,
	vs *service.VehicleService,
	us *service.UserService,
	ss *service.SupportService,
	authMw *middleware.AuthMiddleware,
	wsManager *handler.WebSocketManager,
) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// WebSocket cho console trực cổng (không cần auth cho real-time connection)
	wsHandler := handler.NewWebSocketHandler(wsManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handler.NewAuthHandler(as)
	supportHandler := handler.NewSupportHandler(ss)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		// Form liên hệ công khai, khách chưa đăng nhập cũng gửi được
		authRoutes.POST("/contact", supportHandler.Contact)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		gateH := handler.NewGateHandler(gs)
		gateRoutes := v1.Group("/gate")
		gateRoutes.Use(authMw.AuthorizeRole("admin", "operator"))
		{
			gateRoutes.POST("/scan_plate_entry", gateH.ScanPlateEntry)
			gateRoutes.POST("/verify_id_and_grant", gateH.VerifyID)
			gateRoutes.POST("/scan_exit_id", gateH.ScanExit)
		}

		lotH := handler.NewParkingLotHandler(ps)
		lotRoutes := v1.Group("/lots")
		{
			lotRoutes.POST("", authMw.AuthorizeRole("admin"), lotH.CreateLot)
			lotRoutes.GET("", lotH.GetAllLots)
			lotRoutes.GET("/:id", lotH.GetLot)
			lotRoutes.PUT("/:id/capacity", authMw.AuthorizeRole("admin"), lotH.EditCapacity)
			lotRoutes.DELETE("/:id", authMw.AuthorizeRole("admin"), lotH.DeleteLot)

			lotRoutes.GET("/:id/spots", lotH.GetLotSpots)
			lotRoutes.GET("/:id/spots/:spot_number", authMw.AuthorizeRole("admin"), lotH.SpotDetails)
			lotRoutes.POST("/:id/spots/:spot_number/toggle_faculty", authMw.AuthorizeRole("admin"), lotH.ToggleFacultyReserved)
		}

		vehicleH := handler.NewVehicleHandler(vs)
		vehicleRoutes := v1.Group("/vehicles")
		{
			vehicleRoutes.POST("", vehicleH.Register)
			vehicleRoutes.GET("", vehicleH.MyVehicles)
			vehicleRoutes.DELETE("/:plate", vehicleH.Delete)
		}

		approvalRoutes := v1.Group("/approvals")
		approvalRoutes.Use(authMw.AuthorizeRole("admin"))
		{
			approvalRoutes.GET("", vehicleH.ListPending)
			approvalRoutes.POST("/:plate/approve", vehicleH.Approve)
			approvalRoutes.POST("/:plate/reject", vehicleH.Reject)
		}

		userH := handler.NewUserHandler(us)
		meRoutes := v1.Group("/me")
		{
			meRoutes.GET("/dashboard", userH.Dashboard)
			meRoutes.GET("/analytics", userH.Analytics)
			meRoutes.PUT("/preferences", userH.UpdatePreferences)
		}

		supportRoutes := v1.Group("/support")
		supportRoutes.Use(authMw.AuthorizeRole("admin"))
		{
			supportRoutes.GET("", supportHandler.ListMessages)
			supportRoutes.POST("/:id/mark_read", supportHandler.MarkRead)
			supportRoutes.POST("/:id/reply", supportHandler.Reply)
		}
	}
	return r
}
