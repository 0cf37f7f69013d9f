package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/resumevec"
	"github.com/hupe1980/resumevec/blobstore"
	minioblob "github.com/hupe1980/resumevec/blobstore/minio"
	s3blob "github.com/hupe1980/resumevec/blobstore/s3"
	"github.com/hupe1980/resumevec/embedding"
	"github.com/hupe1980/resumevec/extract"
	"github.com/hupe1980/resumevec/record"
	"github.com/hupe1980/resumevec/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the resumevec HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", ":8080", "listen address")

	viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
}

func serve(ctx context.Context) error {
	cfg, err := getConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg)

	embedder, err := newEmbedder(ctx, cfg.Embedder)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}

	store, err := newStore(ctx, cfg.Store, embedder.Dimension())
	if err != nil {
		return fmt.Errorf("create record store: %w", err)
	}

	blobs, err := newBlobStore(ctx, cfg.BlobStore)
	if err != nil {
		return fmt.Errorf("create blob store: %w", err)
	}

	svcOpts := []resumevec.Option{
		resumevec.WithLogger(logger),
	}
	if blobs != nil {
		svcOpts = append(svcOpts, resumevec.WithBlobStore(blobs))
	}
	if cfg.MaxFileSize > 0 {
		svcOpts = append(svcOpts, resumevec.WithMaxFileSize(cfg.MaxFileSize))
	}

	svc, err := resumevec.New(embedder, extract.NewPDFExtractor(), store, svcOpts...)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	defer svc.Close()

	srv := server.New(svc)

	logger.Info("starting server",
		"addr", cfg.Addr,
		"embedder", cfg.Embedder.Backend,
		"store", cfg.Store.Backend,
		"resumes", svc.Len(),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Listen(cfg.Addr)
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(cfg *Config) *resumevec.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	if cfg.JSON {
		return resumevec.NewJSONLogger(level)
	}

	return resumevec.NewTextLogger(level)
}

func newEmbedder(ctx context.Context, cfg *EmbedderConfig) (embedding.Embedder, error) {
	switch cfg.Backend {
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.APIKey, func(o *embedding.OpenAIOptions) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			if cfg.Dimension > 0 {
				o.Dimension = cfg.Dimension
			}
		}), nil
	case "gemini":
		return embedding.NewGeminiEmbedder(ctx, cfg.APIKey, func(o *embedding.GeminiOptions) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			if cfg.Dimension > 0 {
				o.Dimension = cfg.Dimension
			}
		})
	case "hash":
		dim := cfg.Dimension
		if dim <= 0 {
			dim = 384
		}
		return embedding.NewHashEmbedder(dim), nil
	default:
		return nil, fmt.Errorf("unknown embedder backend %q", cfg.Backend)
	}
}

func newStore(ctx context.Context, cfg *StoreConfig, dimension int) (record.Store, error) {
	switch cfg.Backend {
	case "memory":
		return record.NewMemoryStore(dimension), nil
	case "postgres":
		store, err := record.NewPostgresStore(cfg.DatabaseURL, dimension)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func newBlobStore(ctx context.Context, cfg *BlobStoreConfig) (blobstore.Store, error) {
	if cfg == nil || cfg.Backend == "" || cfg.Backend == "none" {
		return nil, nil
	}

	switch cfg.Backend {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		return s3blob.NewStore(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
	case "minio":
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return minioblob.NewStore(client, cfg.Bucket, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown blobstore backend %q", cfg.Backend)
	}
}
