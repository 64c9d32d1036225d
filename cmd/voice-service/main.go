// main package for the voice-service
//
// @title       voice-service API
// @version     1.0
// @description Voice preset, voice cloning and speech synthesis API.
// @BasePath    /
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-service/internal/audio"
	"github.com/book-expert/voice-service/internal/config"
	"github.com/book-expert/voice-service/internal/core"
	"github.com/book-expert/voice-service/internal/httpapi"
	"github.com/book-expert/voice-service/internal/objectstore"
	"github.com/book-expert/voice-service/internal/retention"
	"github.com/book-expert/voice-service/internal/speech"
	"github.com/book-expert/voice-service/internal/tts"
	"github.com/book-expert/voice-service/internal/voice"
	"github.com/book-expert/voice-service/internal/worker"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"
)

const (
	bootstrapLogFile = "voice-service-bootstrap.log"
	serviceLogFile   = "voice-service.log"
	flagConfigDesc   = "Path to a TOML configuration file (defaults to the configurator lookup)"
	// engineClientGrace keeps the HTTP client deadline behind the lane deadline,
	// so a slow engine surfaces as a lane timeout.
	engineClientGrace = 30 * time.Second
)

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger in %s: %w", logPath, err)
	}

	return log, nil
}

func loadConfig(configPath string, log *logger.Logger) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}

	return config.Load(log)
}

// components is everything run() starts.
type components struct {
	store    *voice.Store
	service  *speech.Service
	api      *httpapi.Server
	sweeper  *retention.Sweeper
	natsConn *nats.Conn
	worker   *worker.NatsWorker
}

func newEngine(cfg *config.Config, log *logger.Logger) core.Synthesizer {
	if cfg.TTS.Backend == config.BackendCLI {
		return tts.NewCLIEngine(cfg.TTS.BinaryPath, cfg.TTS.ModelName, log)
	}

	return tts.NewHTTPClient(cfg.TTS.EngineURL, cfg.TTS.ModelName, engineClientTimeout(cfg))
}

func engineClientTimeout(cfg *config.Config) time.Duration {
	return cfg.EngineTimeout() + engineClientGrace
}

func build(cfg *config.Config, log *logger.Logger) (*components, error) {
	lane := tts.NewLane(newEngine(cfg, log), cfg.TTS.Workers, cfg.EngineTimeout())

	store, err := voice.NewStore(voice.StoreConfig{
		VoicesDir: cfg.Paths.VoicesDir,
		ClonedDir: cfg.Paths.ClonedDir,
		Presets:   voice.DefaultPresets(cfg.Paths.VoicesDir),
	}, lane, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open voice store: %w", err)
	}

	resolver, err := voice.NewResolver(store, voice.DefaultFallbackID)
	if err != nil {
		return nil, fmt.Errorf("failed to create voice resolver: %w", err)
	}

	converter, err := audio.NewFFmpegConverter(
		cfg.Converter.BinaryPath, cfg.ConverterTimeout(), audio.ReferenceFormat(), log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio converter: %w", err)
	}

	service := speech.NewService(speech.Config{
		OutputDir:       cfg.Paths.AudioDir,
		DefaultLanguage: cfg.TTS.DefaultLanguage,
		DefaultVoice:    cfg.TTS.DefaultVoice,
	}, resolver, lane, log)

	api := httpapi.New(httpapi.Config{
		Port:           cfg.Server.Port,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		SwaggerUI:      cfg.Server.SwaggerUI,
		CORS:           !cfg.Server.DisableCORS,
	}, service, store, voice.NewIngestor(store, converter, log), log)

	built := &components{
		store:   store,
		service: service,
		api:     api,
		sweeper: retention.New(cfg.Paths.AudioDir, cfg.MaxAge(), cfg.Retention.Protected, log),
	}

	if !cfg.NATS.Enabled {
		return built, nil
	}

	err = built.connectNATS(cfg, log)
	if err != nil {
		return nil, err
	}

	return built, nil
}

func (c *components) connectNATS(cfg *config.Config, log *logger.Logger) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		natsConnection.Close()

		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, objectstore.Config{
		Bucket: cfg.NATS.AudioObjectStoreBucket,
		TTL:    cfg.ArchiveTTL(),
	})
	if err != nil {
		natsConnection.Close()

		return err
	}

	natsWorker, err := worker.NewNatsWorker(natsConnection, worker.Config{
		Subject:       cfg.NATS.TextProcessedSubject,
		HandleTimeout: cfg.HandleTimeout(),
	}, store, c.service, log)
	if err != nil {
		natsConnection.Close()

		return err
	}

	c.service.SetArchive(store)
	c.natsConn = natsConnection
	c.worker = natsWorker

	return nil
}

// provision creates missing preset clips, then marks the service ready.
func provision(ctx context.Context, c *components, log *logger.Logger) {
	for id, outcome := range c.store.ProvisionAll(ctx) {
		log.Info("Preset %s: %s", id, outcome)
	}

	if ctx.Err() != nil {
		log.Warn("Preset provisioning interrupted; missing presets are retried on the next start")

		return
	}

	c.service.MarkProvisioned()
	log.System("Voice presets provisioned")
}

func serve(ctx context.Context, cfg *config.Config, c *components, log *logger.Logger) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return c.api.ListenAndServe(groupCtx)
	})

	group.Go(func() error {
		return c.sweeper.Run(groupCtx, cfg.SweepInterval())
	})

	group.Go(func() error {
		provision(groupCtx, c, log)

		return nil
	})

	if c.worker != nil {
		group.Go(func() error {
			return c.worker.Run(groupCtx)
		})
	}

	err := group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func run() error {
	configPath := flag.String("config", "", flagConfigDesc)
	flag.Parse()

	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir(), bootstrapLogFile)
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration
	cfg, err := loadConfig(*configPath, bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	err = cfg.EnsureDirectories()
	if err != nil {
		bootstrapLog.Error("Failed to create directories: %v", err)

		return err
	}

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir, serviceLogFile)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	// 4. Build the service context and run until a signal arrives
	built, err := build(cfg, finalLog)
	if err != nil {
		finalLog.Error("Failed to initialize voice-service: %v", err)

		return err
	}

	if built.natsConn != nil {
		defer built.natsConn.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	finalLog.System("voice-service initialized with %s backend, serving audio from %s", cfg.TTS.Backend, cfg.Paths.AudioDir)

	err = serve(ctx, cfg, built, finalLog)

	finalLog.System("voice-service stopped")

	return err
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
