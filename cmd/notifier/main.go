package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"vaccine_slot_notifier/internal/app"
	"vaccine_slot_notifier/internal/domain/notice"
	"vaccine_slot_notifier/internal/infra/config"
	"vaccine_slot_notifier/internal/infra/cowin"
	idb "vaccine_slot_notifier/internal/infra/database"
	"vaccine_slot_notifier/internal/infra/email"
	"vaccine_slot_notifier/internal/infra/health"
	"vaccine_slot_notifier/internal/infra/lock"
	"vaccine_slot_notifier/internal/infra/logger"
	"vaccine_slot_notifier/internal/infra/scheduler"
	"vaccine_slot_notifier/internal/infra/telegram"
)

const (
	cycleLockName   = "vaccine_slot_notifier:cycle_lock"
	smtpDialTimeout = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	fmt.Println("Vaccine Slot Notifier starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	log := logger.Component("main")
	log.WithFields(logrus.Fields{
		"environment":  cfg.Environment,
		"postal_codes": len(cfg.PostalCodes),
		"lock_backend": cfg.LockBackend,
		"cron_spec":    cfg.CronSpec,
	}).Info("Configuration loaded")

	ctx := context.Background()

	locker, closeLocker, err := newLocker(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Could not set up cycle lock")
	}
	defer closeLocker()

	notifiers := []notice.Notifier{email.NewClient(email.Options{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Secure:   cfg.SMTPSecure,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		To:       cfg.Recipients,
		Timeout:  smtpDialTimeout,
	})}

	var bot *telebot.Bot
	if cfg.TelegramToken != "" {
		bot, err = telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				entry := logger.Component("telebot").WithError(err)
				if c != nil && c.Sender() != nil {
					entry = entry.WithField("sender_id", c.Sender().ID)
				}
				entry.Error("Telegram update failed")
			},
		})
		if err != nil {
			log.WithError(err).Fatal("Could not create Telegram bot")
		}
		notifiers = append(notifiers, telegram.NewNotifier(bot, cfg.TelegramChatIDs))
		log.WithField("chats", len(cfg.TelegramChatIDs)).Info("Telegram channel enabled")
	}

	dispatcher := app.NewDispatcher(notifiers, cfg.NotifyWorkers, logger.Component("dispatcher"))
	dispatcher.Start()

	cowinClient := cowin.NewClient(cfg.CowinBaseURL, cfg.CowinUserAgent, cfg.HTTPTimeout)
	cycleService := app.NewCycleService(
		app.NewWindowAggregator(cowinClient, cfg.Location(), logger.Component("aggregator")),
		app.NewSlotEvaluator(),
		dispatcher,
		locker,
		cfg.Criteria(),
		cfg.MaxConcurrentPostalCodes,
		logger.Component("cycle"),
	)

	cycleScheduler := scheduler.NewCycleScheduler(
		cycleService,
		cfg.CronSpec,
		cfg.Location(),
		cfg.CycleTimeout,
		logger.Component("scheduler"),
	)
	if err := cycleScheduler.Start(); err != nil {
		log.WithError(err).Fatal("Could not start cycle scheduler")
	}

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           health.SetupRouter(health.NewHealthCheckHandler()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("addr", server.Addr).Info("Liveness endpoint listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Liveness endpoint stopped")
		}
	}()

	if bot != nil {
		telegram.RegisterBotCommands(bot, telegram.NewCommandHandlers(
			cycleService.Criteria(),
			cycleService,
			cfg.AdminTelegramID,
			cfg.CycleTimeout,
			logger.Component("telegram"),
		))
		go bot.Start()
		log.Info("Telegram bot commands registered")
	}

	log.Info("Application setup complete. Scheduler and liveness endpoint are running...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	if bot != nil {
		bot.Stop()
	}
	cycleScheduler.Stop()
	dispatcher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Liveness endpoint did not shut down cleanly")
	}
	log.Info("Application shut down gracefully.")
}

// newLocker builds the cycle lock for the configured backend. The returned
// close func releases whatever connection the lock holds.
func newLocker(ctx context.Context, cfg *config.AppConfig) (app.CycleLocker, func(), error) {
	switch cfg.LockBackend {
	case config.LockBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.RedisAddress, err)
		}
		return lock.NewRedisLocker(client, cycleLockName, cfg.LockTTL), func() { _ = client.Close() }, nil

	case config.LockBackendPostgres:
		db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return lock.NewPostgresLocker(db, cycleLockName), func() { _ = db.Close() }, nil

	default:
		return lock.NewLocalLocker(), func() {}, nil
	}
}
