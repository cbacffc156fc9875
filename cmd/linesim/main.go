package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/flarexio/linesim"
	"github.com/flarexio/linesim/embedding/openai"
	"github.com/flarexio/linesim/persistence/chromem"

	mcpE "github.com/flarexio/linesim/mcp"
	httpT "github.com/flarexio/linesim/transport/http"
	natsT "github.com/flarexio/linesim/transport/nats"
)

func main() {
	cmd := &cli.Command{
		Name:  "linesim",
		Usage: "Embed text files line by line and rank lines by similarity",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Directory holding config.yaml and the vector store",
				Value: ".",
			},
			&cli.BoolFlag{
				Name:  "rebuild",
				Usage: "Drop and recreate every collection instead of ingesting incrementally",
			},
		},
		Action: run,
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Serve ingestion and comparison over NATS and HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "nats",
						Usage:   "NATS server URL",
						Sources: cli.EnvVars("NATS_URL"),
					},
					&cli.StringFlag{
						Name:    "nats-creds",
						Usage:   "NATS user credentials file",
						Sources: cli.EnvVars("NATS_CREDS"),
					},
					&cli.StringFlag{
						Name:  "topic",
						Usage: "NATS topic prefix",
						Value: "linesim",
					},
					&cli.BoolFlag{
						Name:  "http",
						Usage: "Enable HTTP transport",
						Value: false,
					},
					&cli.StringFlag{
						Name:  "http-addr",
						Usage: "HTTP server address",
						Value: ":8080",
					},
				},
				Action: serve,
			},
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err.Error())
	}
}

func loadConfig(path string) (linesim.Config, error) {
	var cfg linesim.Config

	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil {
		zap.L().Debug("no .env file loaded", zap.Error(err))
	}

	f, err := os.Open(filepath.Join(path, "config.yaml"))
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", linesim.ErrConfiguration, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", linesim.ErrConfiguration, err)
	}

	cfg.ApplyDefaults()
	cfg.ApplyEnv(os.LookupEnv)

	if !filepath.IsAbs(cfg.Inputs.Root) {
		cfg.Inputs.Root = filepath.Join(path, cfg.Inputs.Root)
	}

	cfg.Vector.Persistent = true
	if !filepath.IsAbs(cfg.Vector.Path) {
		cfg.Vector.Path = filepath.Join(path, cfg.Vector.Path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func newService(cfg linesim.Config, log *zap.Logger) (linesim.Service, error) {
	vector, err := chromem.NewChromemVectorDB(cfg.Vector)
	if err != nil {
		return nil, err
	}

	embedder, err := openai.NewClient(cfg.Embedding)
	if err != nil {
		return nil, err
	}

	log.Info("embedding model", zap.String("model", embedder.Model()))

	svc := linesim.NewService(cfg, vector, embedder)
	svc = linesim.LoggingMiddleware(log)(svc)

	return svc, nil
}

func setupLogger() (*zap.Logger, error) {
	log, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(log)
	return log, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	log, err := setupLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig(cmd.String("path"))
	if err != nil {
		log.Error(err.Error())
		return err
	}

	if cmd.Bool("rebuild") {
		cfg.Rebuild.Enabled = true
	}

	svc, err := newService(cfg, log)
	if err != nil {
		log.Error(err.Error())
		return err
	}
	defer svc.Close()

	return process(ctx, cfg, svc, log)
}

// process ingests every configured input, then ranks the target against the
// source. Incremental runs skip missing files, rebuilds abort on them.
func process(ctx context.Context, cfg linesim.Config, svc linesim.Service, log *zap.Logger) error {
	for _, input := range cfg.Inputs.Inputs() {
		if cfg.Rebuild.Enabled {
			if _, err := svc.Rebuild(ctx, input); err != nil {
				return err
			}

			continue
		}

		if _, err := svc.Ingest(ctx, input); err != nil {
			if errors.Is(err, linesim.ErrFileNotFound) {
				log.Warn("input skipped", zap.String("path", input), zap.Error(err))
				continue
			}

			return err
		}
	}

	if cfg.Inputs.Source == "" || cfg.Inputs.Target == "" {
		log.Info("no source and target configured, comparison skipped")
		return nil
	}

	_, err := svc.Compare(ctx, cfg.Inputs.Source, cfg.Inputs.Target)
	return err
}

func serve(ctx context.Context, cmd *cli.Command) error {
	log, err := setupLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig(cmd.String("path"))
	if err != nil {
		log.Error(err.Error())
		return err
	}

	svc, err := newService(cfg, log)
	if err != nil {
		log.Error(err.Error())
		return err
	}
	defer svc.Close()

	endpoints := linesim.MakeEndpoints(svc)

	natsURL := cmd.String("nats")
	if natsURL != "" {
		opts := []nats.Option{
			nats.Name("linesim"),
		}

		if creds := cmd.String("nats-creds"); creds != "" {
			opts = append(opts, nats.UserCredentials(creds))
		}

		nc, err := nats.Connect(natsURL, opts...)
		if err != nil {
			return err
		}
		defer nc.Drain()

		srv, err := micro.AddService(nc, micro.Config{
			Name:    "linesim",
			Version: "1.0.0",
		})

		if err != nil {
			return err
		}
		defer srv.Stop()

		root := srv.AddGroup(cmd.String("topic"))
		natsT.AddEndpoints(root, endpoints)

		log.Info("nats transport enabled", zap.String("url", natsURL))
	}

	httpEnabled := cmd.Bool("http")
	if httpEnabled {
		r := gin.Default()
		httpT.AddRouters(r, endpoints)

		endpoints := make(map[mcp.MCPMethod]mcpE.MCPEndpoint)
		endpoints[mcp.MethodInitialize] = mcpE.InitializeEndpoint(svc)
		endpoints[mcp.MethodPing] = mcpE.PingEndpoint(svc)
		endpoints[mcp.MethodToolsList] = mcpE.ListToolsEndpoint(svc)
		endpoints[mcp.MethodToolsCall] = mcpE.CallToolEndpoint(svc)
		httpT.AddStreamableRouters(r, endpoints)

		httpAddr := cmd.String("http-addr")
		go r.Run(httpAddr)

		log.Info("http transport enabled", zap.String("addr", httpAddr))
	}

	if natsURL == "" && !httpEnabled {
		return errors.New("no transport enabled")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sign := <-quit:
		log.Info("graceful shutdown", zap.String("signal", sign.String()))
	case <-ctx.Done():
	}

	return nil
}
