package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/snarg/autoscribe/internal/api"
	"github.com/snarg/autoscribe/internal/audio"
	"github.com/snarg/autoscribe/internal/config"
	"github.com/snarg/autoscribe/internal/ingest"
	"github.com/snarg/autoscribe/internal/metrics"
	"github.com/snarg/autoscribe/internal/notify"
	"github.com/snarg/autoscribe/internal/output"
	"github.com/snarg/autoscribe/internal/transcribe"
)

var version = "dev"

// liveData exposes pipeline state to the status endpoints.
type liveData struct {
	watcher *ingest.Watcher
	proc    *ingest.Processor
	pub     *notify.Publisher
}

func (l *liveData) WatcherStatus() ingest.WatcherStatus { return l.watcher.Status() }
func (l *liveData) InFlight() int                       { return l.proc.InFlight() }
func (l *liveData) Processed() int64                    { return l.proc.Processed() }
func (l *liveData) Failed() int64                       { return l.proc.Failed() }

func (l *liveData) NotifierConnected() *bool {
	if l.pub == nil {
		return nil
	}
	c := l.pub.IsConnected()
	return &c
}

func main() {
	startTime := time.Now()

	var (
		inputDir  = flag.String("input", "", "directory to watch for audio files")
		outputDir = flag.String("output", "", "directory for transcript files")
		model     = flag.String("model", "", "model size (tiny, base, small, medium, large)")
		language  = flag.String("language", "", "transcription language code")
		httpAddr  = flag.String("http", "", "status server listen address")
		logLevel  = flag.String("log-level", "", "log level (debug, info, warn, error)")
		envFile   = flag.String("env", "", "path to .env file")
		once      = flag.Bool("once", false, "process existing files and exit instead of watching")
	)
	flag.Parse()

	// Config
	cfg, err := config.Load(config.Overrides{
		EnvFile:   *envFile,
		InputDir:  *inputDir,
		OutputDir: *outputDir,
		Model:     *model,
		Language:  *language,
		HTTPAddr:  *httpAddr,
		LogLevel:  *logLevel,
	})
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().
		Str("version", version).
		Str("input_dir", cfg.InputDir).
		Str("output_dir", cfg.OutputDir).
		Str("model", cfg.Model).
		Str("language", cfg.Language).
		Str("provider", cfg.Provider).
		Msg("autoscribe starting")

	if !audio.CheckFFmpeg() {
		log.Fatal().Msg("ffmpeg not found in PATH")
	}

	for _, dir := range []string{cfg.InputDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("failed to create directory")
		}
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Recognition backend
	var provider transcribe.Provider
	switch cfg.Provider {
	case "http":
		provider = transcribe.NewWhisperClient(cfg.WhisperURL, cfg.Model, cfg.WhisperTimeout)
		log.Info().Str("url", cfg.WhisperURL).Msg("using http recognition backend")
	default:
		engineLog := log.With().Str("component", "recognizer").Logger()
		provider, err = transcribe.NewLocalProvider(cfg.WhisperBin, cfg.ModelDir, cfg.Model, engineLog)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load recognition backend")
		}
	}
	engine := transcribe.NewEngine(provider, log.With().Str("component", "engine").Logger())

	writer := output.NewWriter(cfg.OutputDir, log.With().Str("component", "writer").Logger())

	// MQTT completion events (optional)
	var pub *notify.Publisher
	if cfg.MQTTBrokerURL != "" {
		pub, err = notify.Connect(notify.Options{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
			Topic:     cfg.MQTTTopic,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			Log:       log.With().Str("component", "mqtt").Logger(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mqtt broker")
		}
	}

	// S3 transcript archival (optional)
	var uploader *output.AsyncUploader
	if cfg.S3.Bucket != "" {
		archiver, err := output.NewS3Archiver(cfg.S3, log.With().Str("component", "s3").Logger())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize s3 archival")
		}
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := archiver.HeadBucket(probeCtx); err != nil {
			log.Warn().Err(err).Str("bucket", cfg.S3.Bucket).Msg("s3 bucket not reachable, archival may fail")
		}
		cancel()
		uploader = output.NewAsyncUploader(archiver, 64, log.With().Str("component", "uploader").Logger())
		uploader.Start(2)
	}

	proc := ingest.NewProcessor(ingest.Options{
		Engine:     engine,
		Writer:     writer,
		Ready: ingest.ReadinessDetector{
			StableSamples: cfg.ReadyStableSamples,
			PollInterval:  cfg.ReadyPollInterval,
			MaxWait:       cfg.ReadyMaxWait,
			InitialDelay:  cfg.ReadyInitialDelay,
		},
		Language:   cfg.Language,
		MaxSegment: cfg.MaxSegment,
		OnComplete: func(res ingest.Result) {
			if pub != nil {
				pub.Publish(notify.CompletionEvent{
					SourceFile: res.SourcePath,
					OutputPath: res.OutputPath,
					Segments:   res.Document.Segments,
					ElapsedMs:  res.Elapsed.Milliseconds(),
					Model:      cfg.Model,
					CreatedAt:  res.Document.Created.UTC().Format(time.RFC3339),
				})
			}
			if uploader != nil {
				data, err := os.ReadFile(res.OutputPath)
				if err != nil {
					log.Warn().Err(err).Str("path", res.OutputPath).Msg("skipping archival, cannot read transcript")
					return
				}
				uploader.Enqueue(filepath.Base(res.OutputPath), data)
			}
		},
		Log: log.With().Str("component", "processor").Logger(),
	})

	var archiveStats metrics.ArchiveStats
	if uploader != nil {
		archiveStats = uploader
	}
	prometheus.MustRegister(metrics.NewCollector(proc, archiveStats))

	exitCode := 0

	if *once {
		n, err := ingest.ScanOnce(ctx, proc, cfg.InputDir, cfg.AudioExt, log)
		switch {
		case err != nil:
			log.Error().Err(err).Msg("batch scan failed")
			exitCode = 1
		case n == 0:
			log.Error().Str("dir", cfg.InputDir).Msg("no audio files to process")
			exitCode = 1
		default:
			log.Info().Int("files", n).Msg("batch processing finished")
		}
	} else {
		watcher := ingest.NewWatcher(proc, cfg.InputDir, cfg.AudioExt, log.With().Str("component", "watcher").Logger())

		// Status server (optional)
		var srv *api.Server
		srvErr := make(chan error, 1)
		if cfg.HTTPAddr != "" {
			live := &liveData{watcher: watcher, proc: proc, pub: pub}
			info := api.ServerInfo{Model: provider.Model(), Provider: provider.Name()}
			srv = api.NewServer(cfg.HTTPAddr, live, info, version, startTime, log.With().Str("component", "http").Logger())
			go func() {
				srvErr <- srv.Start()
			}()
		}

		watchErr := make(chan error, 1)
		go func() {
			watchErr <- watcher.Run(ctx)
		}()

		select {
		case <-ctx.Done():
			log.Info().Msg("shutdown signal received")
			<-watchErr
		case err := <-watchErr:
			if err != nil {
				log.Error().Err(err).Msg("watcher error")
				exitCode = 1
			}
		case err := <-srvErr:
			if err != nil {
				log.Error().Err(err).Msg("http server error")
				exitCode = 1
			}
		}

		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("http server shutdown error")
			}
			cancel()
		}
	}

	if uploader != nil {
		uploader.Stop()
	}
	if pub != nil {
		pub.Close()
	}

	log.Info().Msg("autoscribe stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
