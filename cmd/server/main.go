// cmd/server/main.go
package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"mediscan-back/internal/analysis"
	"mediscan-back/internal/auth"
	"mediscan-back/internal/cache"
	"mediscan-back/internal/config"
	"mediscan-back/internal/database"
	"mediscan-back/internal/handlers"
	"mediscan-back/internal/middleware"
	"mediscan-back/internal/pinstore"
	"mediscan-back/internal/remote"
	"mediscan-back/internal/services"
	"mediscan-back/pkg/crypto"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found")
	}

	cfg := config.Load(log)

	db, err := database.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.MigrateDB(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	store, err := cache.OpenLevelDB(cfg.CachePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CachePath).Msg("failed to open local cache")
	}
	defer store.Close()

	codec := crypto.NewCodec(cfg.EncryptionKey)

	var pins pinstore.Store
	backend := "disabled"
	switch {
	case cfg.HasPinata():
		pins = pinstore.NewPinataClient(pinstore.PinataOptions{
			BaseURL: cfg.PinataBaseURL,
			Gateway: cfg.PinataGateway,
			APIKey:  cfg.PinataAPIKey,
			Secret:  cfg.PinataSecret,
		})
		backend = "pinata"
	case cfg.HasMinio():
		minioStore, err := pinstore.NewMinioStore(context.Background(), pinstore.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize MinIO pin store")
		}
		pins = minioStore
		backend = "minio"
	default:
		pins = pinstore.Disabled{}
	}
	log.Info().Str("backend", backend).Msg("pin store configured")

	deps := services.Deps{
		Cache:  store,
		Remote: remote.New(cfg.RemoteAPIURL, nil),
		Pins:   pinstore.NewSealed(pins, codec),
		Log:    log,
	}

	patients := services.NewPatientService(deps)
	reports := services.NewReportService(deps)
	scans := services.NewScanService(deps, analysis.NewSimulator(2*time.Second, nil), patients, reports)
	analytics := services.NewAnalyticsService(deps)

	signer := auth.NewSigner(cfg.JWTSecret)

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	public := r.Group("/api")
	{
		public.POST("/register", handlers.Register(db, signer))
		public.POST("/login", handlers.Login(db, signer))
		public.POST("/logout", handlers.Logout)
	}

	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(signer))
	{
		protected.GET("/profile", handlers.GetProfile(db))

		protected.GET("/patients", handlers.ListPatients(patients))
		protected.POST("/patients", handlers.CreatePatient(patients))
		protected.GET("/patients/:id", handlers.GetPatient(patients))
		protected.PUT("/patients/:id", handlers.UpdatePatient(patients))
		protected.GET("/patients/:id/scans", handlers.ListPatientScans(scans))
		protected.GET("/patients/:id/reports", handlers.ListPatientReports(reports))
		protected.GET("/patients/:id/analytics", handlers.GetPatientAnalytics(analytics))

		protected.POST("/upload", handlers.UploadScan(scans, patients))
		protected.POST("/upload/batch", handlers.UploadScanBatch(scans))
		protected.GET("/scans", handlers.ListScans(scans))
		protected.GET("/scans/:id", handlers.GetScan(scans))
		protected.PUT("/scans/:id", handlers.UpdateScan(scans))
		protected.POST("/scans/:id/report", handlers.GenerateScanReport(scans, reports))

		protected.GET("/reports", handlers.ListReports(reports))
		protected.GET("/reports/:id", handlers.GetReport(reports))
		protected.PUT("/reports/:id", handlers.UpdateReport(reports))
		protected.POST("/reports/:id/share", handlers.ShareReport(reports))
		protected.GET("/reports/:id/pdf", handlers.DownloadReportPDF(reports))

		protected.GET("/analytics", handlers.GetAnalytics(analytics))
	}

	admin := r.Group("/api")
	admin.Use(middleware.AuthMiddleware(signer), middleware.RequireRole("admin"))
	{
		admin.DELETE("/patients/:id", handlers.DeletePatient(patients))
		admin.DELETE("/scans/:id", handlers.DeleteScan(scans))
		admin.DELETE("/reports/:id", handlers.DeleteReport(reports))
		admin.GET("/admin/settings", handlers.GetAdminSettings(handlers.SettingsStatus{
			RemoteAPIConfigured:  cfg.RemoteAPIURL != "",
			PinStoreConfigured:   backend != "disabled",
			PinStoreBackend:      backend,
			EncryptionKeyDefault: cfg.EncryptionKey == config.DefaultEncryptionKey,
		}))
	}

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
