package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mwantia/agrilink/internal/api"
	config "github.com/mwantia/agrilink/internal/config/server"
	"github.com/mwantia/agrilink/internal/events"
	"github.com/mwantia/agrilink/internal/ingest"
	"github.com/mwantia/agrilink/pkg/blob"
	"github.com/mwantia/agrilink/pkg/blob/core"
	"github.com/mwantia/agrilink/pkg/db/store"
	"github.com/mwantia/agrilink/pkg/log"
	"github.com/mwantia/agrilink/pkg/secure"
	"github.com/mwantia/agrilink/pkg/tabular"
	"github.com/mwantia/fabric/pkg/container"
)

type AgrilinkAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg     *config.BaseServerConfig
	sc      *container.ServiceContainer
	log     log.LoggerService
	version string

	store     store.MetadataStore
	blobs     core.Store
	cipher    *secure.Encryptor
	publisher events.Publisher
	server    *http.Server
}

func NewAgent(cfg *config.BaseServerConfig, version string) *AgrilinkAgent {
	return &AgrilinkAgent{
		cfg:     cfg,
		sc:      container.NewServiceContainer(),
		log:     log.NewLoggerService("agrilink", cfg.Log),
		version: version,
	}
}

func (a *AgrilinkAgent) setupServices(ctx context.Context) error {
	var err error

	a.log.Debug("Opening '%s' metadata store...", a.cfg.Metadata.Type)
	if a.store, err = store.Open(a.cfg.Metadata); err != nil {
		return err
	}
	if err := a.store.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect metadata store: %w", err)
	}
	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate metadata store: %w", err)
	}

	a.log.Debug("Opening '%s' blob store...", a.cfg.Blob.Driver)
	if a.blobs, err = blob.Open(ctx, a.cfg.Blob); err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}

	if a.cipher, err = secure.NewEncryptor(a.cfg.Security.SecretKey); err != nil {
		return err
	}
	a.publisher = events.New(a.cfg.Kafka, a.log.Named("events"))

	errs := container.Errors{}

	a.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](a.sc,
		container.With[log.LoggerService](),
		container.WithInstance(a.log)))

	a.log.Debug("Registering 'MetadataStore'...")
	switch impl := a.store.(type) {
	case *store.SQLiteStore:
		errs.Add(container.Register[store.SQLiteStore](a.sc,
			container.With[store.MetadataStore](),
			container.WithInstance(impl)))
	case *store.PostgresStore:
		errs.Add(container.Register[store.PostgresStore](a.sc,
			container.With[store.MetadataStore](),
			container.WithInstance(impl)))
	}

	a.log.Debug("Registering 'Encryptor'...")
	errs.Add(container.Register[secure.Encryptor](a.sc,
		container.With[ingest.Cipher](),
		container.WithInstance(a.cipher)))

	a.log.Debug("Registering 'Publisher'...")
	switch impl := a.publisher.(type) {
	case *events.KafkaPublisher:
		errs.Add(container.Register[events.KafkaPublisher](a.sc,
			container.With[events.Publisher](),
			container.WithInstance(impl)))
	case *events.NoopPublisher:
		errs.Add(container.Register[events.NoopPublisher](a.sc,
			container.With[events.Publisher](),
			container.WithInstance(impl)))
	}

	return errs.Errors()
}

func (a *AgrilinkAgent) setupServer() {
	svc := ingest.NewService(a.store, a.blobs, a.cipher, a.publisher, a.log.Named("ingest"), ingest.Options{
		PreviewRows:      a.cfg.Ingest.PreviewRows,
		EncryptUploads:   a.cfg.Security.EncryptUploads,
		PreviewCacheSize: a.cfg.Ingest.PreviewCacheSize,
		PreviewCacheTTL:  a.cfg.Ingest.GetPreviewCacheTTL(),
	})

	router := api.NewRouter(svc, a.log.Named("http"), api.Options{
		OwnerHeader:   a.cfg.HTTP.OwnerHeader,
		MaxUploadSize: a.cfg.HTTP.MaxUploadSize,
		Read: tabular.ReadOptions{
			ChunkSize:      a.cfg.Ingest.ChunkSize,
			ChunkThreshold: a.cfg.Ingest.ChunkThreshold,
		},
		Version: a.version,
	})

	a.server = &http.Server{
		Addr:         a.cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  a.cfg.HTTP.GetReadTimeout(),
		WriteTimeout: a.cfg.HTTP.GetWriteTimeout(),
	}
}

func (a *AgrilinkAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.mutex.Lock()

	if err := a.setupServices(ctx); err != nil {
		a.mutex.Unlock()
		a.cleanup(context.Background())
		return err
	}
	a.setupServer()

	a.mutex.Unlock()

	errCh := make(chan error, 1)
	a.wait.Add(1)
	go func() {
		defer a.wait.Done()

		a.log.Info("Listening on %s", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.log.Info("Shutting down...")
	case serveErr = <-errCh:
		a.log.Error("HTTP server failed: %v", serveErr)
	}

	shutdown, cancelShutdown := context.WithTimeout(context.Background(), a.cfg.GetShutdownTimeout())
	defer cancelShutdown()

	if err := a.server.Shutdown(shutdown); err != nil {
		a.log.Warn("HTTP server did not shut down cleanly: %v", err)
	}
	a.wait.Wait()

	if err := a.cleanup(shutdown); err != nil {
		return err
	}
	return serveErr
}

func (a *AgrilinkAgent) cleanup(ctx context.Context) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("Failed to close event publisher: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("Failed to close metadata store: %v", err)
		}
	}

	if err := a.sc.Cleanup(ctx); err != nil {
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}
	return nil
}
