package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/perth/internal"
	"github.com/starford/perth/internal/mcpserver"
	pkgconfig "github.com/starford/perth/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func recompute(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	res, err := internal.RunOnce(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("did_recompute=%t fingerprint=%s retrieved_at=%s checked_at=%s\n",
		res.DidRecompute, res.Fingerprint, res.RetrievedAt.Format("2006-01-02T15:04:05Z07:00"),
		res.CheckedAt.Format("2006-01-02T15:04:05Z07:00"))
	return nil
}

func serveMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, db, err := internal.BuildMCPService(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return mcpserver.New(svc).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "perth",
		Usage:  "Citation graph engine for PEP-style proposal corpora: extraction, metrics, and a serving API",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				// The config flag is inherited from the root command.
				Name:   "recompute",
				Usage:  "Run one extraction-and-metrics pass and exit",
				Action: recompute,
			},
			{
				Name:   "mcp",
				Usage:  "Serve graph tools over MCP on stdin/stdout",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
