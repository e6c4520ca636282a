// Package server wires the credvault server together: logging, the codec key
// ring, storage, the recovery flow, and the gRPC endpoint. It also handles
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/credvault/internal/cryptox"
	"github.com/dmitrijs2005/credvault/internal/logging"
	"github.com/dmitrijs2005/credvault/internal/otp"
	"github.com/dmitrijs2005/credvault/internal/server/config"
	"github.com/dmitrijs2005/credvault/internal/server/notify"
	"github.com/dmitrijs2005/credvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credvault/internal/server/repositories/vaults"
	"github.com/dmitrijs2005/credvault/internal/server/services"
	"github.com/dmitrijs2005/credvault/internal/server/validation"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/credvault/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	grpcServer *gs.GRPCServer
	janitor    *otp.Janitor
	closers    []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(c.LogBackend, os.Stdout)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger}
	if err := app.init(ctx); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	codec, err := app.newCodec(ctx)
	if err != nil {
		return err
	}

	db, rm, err := app.newStorage(ctx)
	if err != nil {
		return err
	}

	store, err := app.newOTPStore(ctx)
	if err != nil {
		return err
	}
	challenges := otp.NewManager(store, otp.WithValidity(c.OTPValidity), otp.WithRetention(c.OTPRetention))

	sender, err := app.newSender()
	if err != nil {
		return err
	}

	validator, err := validation.New()
	if err != nil {
		return fmt.Errorf("validator init error: %w", err)
	}

	app.grpcServer = gs.NewGRPCServer(c.EndpointAddrGRPC, app.logger,
		services.NewOwnerService(db, rm, codec, c),
		services.NewVaultService(db, rm, codec),
		services.NewRecoveryService(db, rm, challenges, sender, codec),
		validator, c.OTPValidity, c.SecretKey)

	return nil
}

// newCodec builds the key ring from passphrases and, when configured, keys
// unwrapped by KMS.
func (app *App) newCodec(ctx context.Context) (*cryptox.Codec, error) {
	c := app.config

	var raw map[string][]byte
	if len(c.EncryptionKMSKeys) > 0 {
		client, err := cryptox.NewKMSClient(ctx, c.KMSRegion)
		if err != nil {
			return nil, err
		}
		if raw, err = cryptox.UnwrapKMSKeys(ctx, client, c.EncryptionKMSKeys); err != nil {
			return nil, err
		}
	}

	kr, err := cryptox.BuildKeyring(c.EncryptionKeyID, c.EncryptionKeys, raw)
	if err != nil {
		return nil, fmt.Errorf("key ring: %w", err)
	}

	codec, err := cryptox.NewCodec(kr)
	if err != nil {
		return nil, fmt.Errorf("codec init error: %w", err)
	}

	app.logger.Info(ctx, "Codec ready", "active_key", codec.ActiveKeyID(), "keys", len(kr.Keys))
	return codec, nil
}

func (app *App) newStorage(ctx context.Context) (*sql.DB, repomanager.RepositoryManager, error) {
	c := app.config

	var (
		db *sql.DB
		rm repomanager.RepositoryManager
	)

	switch c.StorageBackend {
	case config.StorageBackendMemory:
		rm = repomanager.NewMemoryRepositoryManager()
	default:
		var err error
		db, err = sql.Open("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db open error: %w", err)
		}
		app.closers = append(app.closers, db.Close)

		rm = repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("migration error: %w", err)
		}
	}

	if c.VaultBackend == config.VaultBackendS3 {
		client, err := vaults.NewS3Client(ctx, vaults.S3Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		rm = repomanager.WithVaults(rm, vaults.NewS3Repository(client, c.S3Bucket))
	}

	app.logger.Info(ctx, "Storage ready", "backend", c.StorageBackend, "vaults", c.VaultBackend)
	return db, rm, nil
}

func (app *App) newOTPStore(ctx context.Context) (otp.Store, error) {
	c := app.config

	if c.OTPStore == config.OTPStoreRedis {
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword})
		app.closers = append(app.closers, client.Close)

		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return otp.NewRedisStore(client, "credvault:otp"), nil
	}

	store := otp.NewMemoryStore()
	janitor, err := otp.NewJanitor(c.OTPPurgeSchedule, store, app.logger)
	if err != nil {
		return nil, err
	}
	app.janitor = janitor
	return store, nil
}

func (app *App) newSender() (notify.Sender, error) {
	c := app.config

	switch c.DeliveryBackend {
	case notify.BackendSMTP:
		return notify.NewSMTPSender(notify.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     strconv.Itoa(c.SMTPPort),
			Username: c.SMTPUsername,
			Password: c.SMTPPassword,
			From:     c.SMTPFrom,
			Validity: c.OTPValidity,
		}), nil
	case notify.BackendNATS:
		conn, err := notify.ConnectNATS(c.NATSURL, app.logger)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, conn.Drain)
		return notify.NewNATSSender(conn, c.NATSSubject, c.OTPValidity), nil
	default:
		return notify.NewLogSender(app.logger), nil
	}
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn(context.Background(), "close error", "error", err)
		}
	}
	app.closers = nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a termination signal arrives, or the
// gRPC server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.janitor != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.janitor.Run(ctx)
		}()
	}

	wg.Wait()

	app.close()
	app.logger.Info(context.Background(), "App stopped")
}
