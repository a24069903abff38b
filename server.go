package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/middlewares"
	"bitbucket.org/princerto/rto_backend/models"
	"bitbucket.org/princerto/rto_backend/utils"
	"bitbucket.org/princerto/rto_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func getRedisClient(redisAddress string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
}

// runSweepHandler triggers the expiry sweep on demand (super admin only).
// The nightly run goes through cmd/expiry-notifier; both paths share the
// redis lock so they never double-send.
func runSweepHandler() gin.HandlerFunc {
	sender := utils.NewWhatsAppSender()
	return func(c *gin.Context) {
		logger := config.GetLogger()
		release, err := utils.SweepLock(c.Request.Context(), "expiry", 10*time.Minute)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
			return
		}
		defer release()

		stats, err := workflow.RunExpirySweep(c.Request.Context(), logger, sender, time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": "route not found"})
}

func registerRoutes(r *gin.Engine) {
	r.POST("/api/login", loginHandler())

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())

	api.POST("/logout", logoutHandler())
	api.GET("/me", meHandler())

	// Super-admin user management.
	admin := api.Group("/admin", middlewares.RequireRoles(models.UserRoleSuperAdmin))
	admin.GET("/users", listUsersHandler())
	admin.POST("/users", createUserHandler())
	admin.PUT("/users/:id", updateUserHandler())
	admin.PATCH("/users/:id/toggle-status", toggleUserStatusHandler())
	admin.DELETE("/users/:id", deleteUserHandler())
	admin.POST("/run-expiry-sweep", runSweepHandler())

	// Boss staff management.
	api.GET("/staff", listStaffHandler())
	api.POST("/staff", createStaffHandler())
	api.DELETE("/staff/:id", deleteStaffHandler())

	// Citizens and vehicles.
	api.GET("/citizens", listCitizensHandler())
	api.POST("/citizens", createCitizenHandler())
	api.GET("/citizens/:id", getCitizenHandler())
	api.PUT("/citizens/:id", updateCitizenHandler())
	api.DELETE("/citizens/:id", deleteCitizenHandler())
	api.GET("/citizens/:id/vehicles", listVehiclesHandler())

	api.POST("/vehicles", createVehicleHandler())
	api.GET("/vehicles/:id", vehicleDetailHandler())
	api.PUT("/vehicles/:id", updateVehicleHandler())
	api.DELETE("/vehicles/:id", deleteVehicleHandler())

	// Vehicle documents (seven kinds behind one handler core).
	registerDocumentRoutes(api)

	// Expiry tracking.
	api.GET("/expiry-report", expiryReportHandler())
	api.POST("/send-reminder", sendReminderHandler())
	api.POST("/quick-entry", quickEntryHandler())

	// Cash-flow ledger.
	api.GET("/ledger", ledgerDashboardHandler())
	api.GET("/ledger/search", searchLedgerHandler())
	api.POST("/ledger/accounts", createLedgerAccountHandler())
	api.PUT("/ledger/accounts/:id", updateLedgerAccountHandler())
	api.DELETE("/ledger/accounts/:id", deleteLedgerAccountHandler())
	api.POST("/ledger/accounts/:id/reminder", ledgerReminderHandler())
	api.POST("/ledger/entries", createLedgerEntryHandler())
	api.DELETE("/ledger/entries/:id", deleteLedgerEntryHandler())

	// Work book.
	api.GET("/work-book", workBookDashboardHandler())
	api.GET("/clients", listClientsHandler())
	api.POST("/clients", createClientHandler())
	api.PUT("/clients/:id", updateClientHandler())
	api.DELETE("/clients/:id", deleteClientHandler())
	api.GET("/clients/:id/history", clientHistoryHandler())
	api.POST("/clients/:id/dues-reminder", duesReminderHandler())
	api.POST("/work-jobs", createWorkJobHandler())
	api.PUT("/work-jobs/:id", updateWorkJobHandler())
	api.DELETE("/work-jobs/:id", deleteWorkJobHandler())
	api.POST("/work-jobs/settle", settlePaymentHandler())

	// Licenses.
	api.GET("/licenses", listLicensesHandler())
	api.POST("/licenses", createLicenseHandler())
	api.PUT("/licenses/:id", updateLicenseHandler())
	api.DELETE("/licenses/:id", deleteLicenseHandler())

	// Settings, dashboard, search, backup, import.
	api.GET("/settings/notifications", getNotificationSettingsHandler())
	api.POST("/settings/notifications", saveNotificationSettingsHandler())
	api.POST("/settings/test-whatsapp", testWhatsAppHandler())
	api.GET("/dashboard/stats", dashboardStatsHandler())
	api.GET("/search", globalSearchHandler())
	api.GET("/backup/export", backupExportHandler())
	api.POST("/import", bulkImportHandler())
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server first; until DB/Redis are ready the readiness
	// gate answers 503 for app endpoints.
	r := gin.New()
	r.Use(middlewares.CorrelationIdMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run DDL that blocks tables; allow running it as a
	// separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.Migrate(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Panic(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger logs only requests that collected errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// RateLimitMiddleware applies a fixed-window per-IP limit backed by Redis.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"message": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
