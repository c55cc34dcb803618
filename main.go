package main

import (
	"log"
	"net/http"
	"time"

	"bookreview-server/config"
	"bookreview-server/database"
	"bookreview-server/handlers"
	"bookreview-server/middleware"
	"bookreview-server/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Connect to database
	db, err := database.Connect(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// Initialize tables and views
	if err := db.InitializeTables(); err != nil {
		log.Fatal("Failed to initialize tables:", err)
	}

	// Initialize Cloudinary; uploads are disabled when unconfigured
	if config.AppConfig.CloudinaryURL != "" {
		if err := services.InitializeCloudinary(config.AppConfig.CloudinaryURL); err != nil {
			log.Printf("Failed to initialize Cloudinary: %v", err)
		}
	} else {
		log.Printf("CLOUDINARY_URL not set, image uploads disabled")
	}

	// Set Gin mode
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.Default()

	// Add CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Initialize handlers
	handlers.InitializeHandlers(db)

	// Credential endpoints get a per-IP rate limit
	authLimiter := middleware.NewIPRateLimiter(rate.Every(time.Second), 5)

	api := router.Group("/api")
	{
		// Health check endpoint
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"message": "Book Review API is running",
			})
		})

		// Authentication routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", middleware.RateLimit(authLimiter), handlers.Register)
			auth.POST("/login", middleware.RateLimit(authLimiter), handlers.Login)
			auth.POST("/logout", handlers.Logout)
			auth.GET("/validate", handlers.AuthMiddleware(), handlers.ValidateToken)
		}

		// Book routes (mutations are admin only)
		books := api.Group("/books")
		{
			books.GET("", handlers.GetBooks)
			books.GET("/:id", handlers.GetBook)
			books.POST("", handlers.AuthMiddleware(), handlers.AdminMiddleware(), handlers.CreateBook)
			books.PUT("/:id", handlers.AuthMiddleware(), handlers.AdminMiddleware(), handlers.UpdateBook)
			books.DELETE("/:id", handlers.AuthMiddleware(), handlers.AdminMiddleware(), handlers.DeleteBook)
		}

		// Review routes
		reviews := api.Group("/reviews")
		{
			reviews.GET("", handlers.GetReviews)
			reviews.POST("", handlers.AuthMiddleware(), handlers.CreateReview)
			reviews.PUT("/:id", handlers.AuthMiddleware(), handlers.UpdateReview)
			reviews.DELETE("/:id", handlers.AuthMiddleware(), handlers.DeleteReview)
		}

		// User routes (protected)
		users := api.Group("/users")
		users.Use(handlers.AuthMiddleware())
		{
			users.GET("/:id", handlers.GetUser)
			users.PUT("/:id", handlers.UpdateUser)
			users.GET("/:id/reviews", handlers.GetUserReviews)
			users.POST("/avatar", handlers.UploadAvatar)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(handlers.AuthMiddleware(), handlers.AdminMiddleware())
		{
			admin.GET("/stats", handlers.GetAdminStats)
			admin.POST("/upload", handlers.UploadCoverImage)
		}
	}

	// 404 fallback for unmatched routes
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})

	// Start server
	log.Printf("Starting Book Review API on 0.0.0.0:%s", config.AppConfig.ServerPort)
	log.Fatal(http.ListenAndServe("0.0.0.0:"+config.AppConfig.ServerPort, c.Handler(router)))
}
