package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retail-dashboard/internal/api"
	"retail-dashboard/internal/config"
	"retail-dashboard/internal/handler"
	"retail-dashboard/internal/metrics"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/repository"
	"retail-dashboard/internal/service"
	"retail-dashboard/internal/store"
	"retail-dashboard/pkg/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetConfig()
	logrus.SetLevel(cfg.LogLevel)
	logrus.Info("Config initialized...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo := openRepository(cfg)
	defer closeRepo()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Основной документ: сотрудники, выручка, планы, графики
	data := store.NewDataStore(repo, store.DataStoreConfig{
		Key:          cfg.DataKey(),
		DefaultStore: cfg.DefaultStore,
		SeedDemo:     cfg.SeedDemoData,
	}, m)
	issues, err := data.Open()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open data document")
	}
	if len(issues) > 0 {
		logrus.Infof("Data document repaired, %d issues fixed", len(issues))
	}

	settings := models.AchievementSettings{
		BasePoints:           cfg.AchievementBasePoints,
		OverachievementBonus: cfg.AchievementOverachievementBonus,
	}
	ledger := store.NewDocument(store.New(repo, cfg.AchievementsKey(), m), func() *models.AchievementLedger {
		return models.NewAchievementLedger(settings)
	}, nil)
	outboxDoc := store.NewDocument(store.New(repo, cfg.OutboxKey(), m), func() *models.Outbox {
		return &models.Outbox{Entries: []models.OutboxEntry{}}
	}, nil)
	reportDoc := store.NewDocument(store.New(repo, cfg.ReportsKey(), m), func() *models.ReportBook {
		return &models.ReportBook{Reports: []models.ReportDefinition{}}
	}, nil)

	// Сервисы
	employeeService := service.NewEmployeeService(data, cfg.DefaultStore)
	revenueService := service.NewRevenueService(data)
	planService := service.NewPlanService(data)
	scheduleService := service.NewScheduleService(data)
	dashboardService := service.NewDashboardService(data)
	achievementService := service.NewAchievementService(ledger, settings, m)
	dataService := service.NewDataService(data)
	importService := service.NewImportService(data, cfg.DefaultStore, m)
	exportService := service.NewExportService(data, dashboardService)
	reportService := service.NewReportService(reportDoc, data)
	outboxService := service.NewOutboxService(outboxDoc, m)

	// Telegram клиент нужен и для команд, и для уведомлений
	var client *telegram.Client
	if cfg.BotEnabled() {
		client, err = telegram.NewClient(cfg.TelegramToken, cfg.LogLevel >= logrus.DebugLevel)
		if err != nil {
			logrus.Fatal("Failed to create Telegram client:", err)
		}
		logrus.Infof("Authorized on account %s", client.Bot.Self.UserName)
	}

	var sender service.Sender = telegram.NewLogSender(logrus.StandardLogger())
	if client != nil && cfg.NotificationsEnabled() {
		sender = telegram.NewChatSender(client.Bot, cfg.NotifyChatID)
	}

	notifier := service.NewOutboxNotifier(outboxService, sender)
	monitor := service.NewMotivationMonitor(data, achievementService, notifier)
	refresher := service.NewRefresher(monitor, notifier, outboxService, cfg.OutboxRetention)

	// Любое сохранение данных запускает внеочередную проверку планов
	unsubscribe := data.Subscribe(refresher.Trigger)
	defer unsubscribe()

	go refresher.Run(ctx, cfg.RefreshInterval)

	var server *http.Server
	if cfg.HTTPAddr != "" {
		apiHandler := api.NewHandler(api.Services{
			Employees:    employeeService,
			Revenue:      revenueService,
			Plans:        planService,
			Schedules:    scheduleService,
			Dashboard:    dashboardService,
			Achievements: achievementService,
			Data:         dataService,
			Import:       importService,
			Export:       exportService,
			Reports:      reportService,
			Outbox:       outboxService,
			Storage:      repo,
		})

		server = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.NewRouter(apiHandler, reg),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logrus.Infof("HTTP API listening on %s", cfg.HTTPAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.WithError(err).Fatal("HTTP server failed")
			}
		}()
	}

	if client != nil {
		botHandler := handler.NewHandler(client.Bot, handler.Services{
			Employees:    employeeService,
			Revenue:      revenueService,
			Plans:        planService,
			Schedules:    scheduleService,
			Dashboard:    dashboardService,
			Achievements: achievementService,
			Data:         dataService,
			Export:       exportService,
		}, cfg)

		updates := client.Bot.GetUpdatesChan(client.UpdateConfig)
		go botHandler.HandleUpdates(updates)
		logrus.Info("Bot started")
	}

	logrus.Info("Service started. Press Ctrl+C to stop.")
	<-ctx.Done()

	if client != nil {
		client.Bot.StopReceivingUpdates()
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logrus.Infof("Error stopping HTTP server: %v", err)
		}
	}

	logrus.Info("Stopped gracefully")
}

// openRepository SQLite, если задан DATABASE_URL, иначе хранение в памяти
func openRepository(cfg *config.Config) (repository.KVRepository, func()) {
	if cfg.DatabaseURL == "" {
		logrus.Warn("DATABASE_URL is empty, data is kept in memory only")
		return repository.NewMemoryKVRepository(), func() {}
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logrus.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.Fatal("Failed to get database instance:", err)
	}

	// WAL позволяет читать, пока идет запись
	if _, err := sqlDB.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logrus.Infof("Warning: Failed to enable WAL: %v", err)
	}

	repo, err := repository.NewGormKVRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create kv repository")
	}

	return repo, func() {
		if err := sqlDB.Close(); err != nil {
			logrus.Infof("Error closing database: %v", err)
		}
	}
}
