package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/hongminglow/auth-recovery-be/internal/auth"
	"github.com/hongminglow/auth-recovery-be/internal/config"
	"github.com/hongminglow/auth-recovery-be/internal/logger"
	"github.com/hongminglow/auth-recovery-be/internal/mail"
	"github.com/hongminglow/auth-recovery-be/internal/server"
	"github.com/hongminglow/auth-recovery-be/internal/storage"
	"github.com/hongminglow/auth-recovery-be/internal/storage/memory"
	"github.com/hongminglow/auth-recovery-be/internal/storage/postgres"
	"github.com/hongminglow/auth-recovery-be/internal/storage/redis"
	"github.com/hongminglow/auth-recovery-be/internal/storage/sqlite"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.Info().Msg("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	userStore, err := openUserStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("init database")
	}
	defer userStore.Close()

	ledger, stopLedger, err := openLedger(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init token ledger")
	}
	defer stopLedger()

	mailer, err := newMailer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init mailer")
	}

	if cfg.LegacyDirectReset {
		log.Warn().Msg("LEGACY_DIRECT_RESET is on: reset-password-direct accepts requests without a recovery token")
	}

	srv := server.New(cfg, server.Deps{
		Store:  userStore,
		Ledger: ledger,
		Mailer: mailer,
		Tokens: auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, auth.TTLs{
			Session:  cfg.SessionTTL,
			Reset:    cfg.ResetTTL,
			Recovery: cfg.RecoveryTTL,
		}),
		Hasher: auth.NewHasher(cfg.BcryptCost),
		Log:    log,
	})

	go func() {
		log.Info().Str("addr", cfg.HTTPAddress()).Msg("auth backend listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
}

func openUserStore(ctx context.Context, cfg config.Config) (storage.UserStore, error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.DatabaseURL)
	case config.DriverMemory:
		return memory.NewUserStore(), nil
	default:
		return postgres.NewUserStore(ctx, cfg.DatabaseURL, postgres.Options{
			Mode:     postgres.Mode(cfg.DBConnMode),
			MaxConns: cfg.DBMaxConns,
		})
	}
}

// openLedger prefers redis; without it, marks live in memory and a cron job
// drops the expired ones.
func openLedger(ctx context.Context, cfg config.Config, log zerolog.Logger) (storage.TokenLedger, func(), error) {
	if cfg.RedisURL != "" {
		l, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return l, func() { _ = l.Close() }, nil
	}

	l := memory.NewLedger()
	c := cron.New()
	if _, err := c.AddFunc("@every 1m", func() {
		if n := l.Sweep(); n > 0 {
			log.Debug().Int("removed", n).Msg("swept consumed token marks")
		}
	}); err != nil {
		return nil, nil, err
	}
	c.Start()
	log.Warn().Msg("REDIS_URL not set; consumed tokens are tracked in process memory")
	return l, func() { <-c.Stop().Done() }, nil
}

func newMailer(cfg config.Config, log zerolog.Logger) (mail.Mailer, error) {
	if cfg.SMTPHost == "" {
		log.Warn().Msg("SMTP_HOST not set; reset emails will only be logged")
		return mail.NewLogMailer(log), nil
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		FromName: "Soporte",
	})
}
