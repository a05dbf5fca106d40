package cli

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/consciousday/backend/internal/store"
)

type StatsCmd struct {
	Username string `arg:"" help:"User whose entries to summarise."`
}

func (c *StatsCmd) Run(ctx *Context) error {
	bg := context.Background()
	entries, err := ctx.entries(bg)
	if err != nil {
		return err
	}
	defer entries.Close()

	stats, err := entries.Stats(bg, c.Username)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "user:     %s\nentries:  %d\n", c.Username, stats.Count)
	if stats.Earliest != nil {
		fmt.Fprintf(ctx.Out, "earliest: %s\nlatest:   %s\n", *stats.Earliest, *stats.Latest)
	}
	return nil
}

// MigrateCmd opens the configured entry store, which applies pending schema
// changes, and exits.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *Context) error {
	entries, err := ctx.entries(context.Background())
	if err != nil {
		return err
	}
	defer entries.Close()
	fmt.Fprintf(ctx.Out, "%s schema up to date\n", ctx.Config.DatabaseDriver)
	return nil
}

// PurgeArchivesCmd removes a user's archived insights and stored exports.
type PurgeArchivesCmd struct {
	Username string `arg:"" help:"User whose archives to remove."`
}

func (c *PurgeArchivesCmd) Run(ctx *Context) error {
	cfg := ctx.Config
	if cfg.MongoURI == "" && cfg.MinioEndpoint == "" {
		return errors.New("neither MONGO_URI nor MINIO_ENDPOINT is configured")
	}
	bg := context.Background()

	if cfg.MongoURI != "" {
		client, err := mongo.Connect(bg, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return fmt.Errorf("mongo connect: %w", err)
		}
		defer client.Disconnect(bg)
		n, err := store.NewMongoStore(client.Database(cfg.MongoDB)).DeleteByUser(bg, c.Username)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.Out, "removed %d archived insight(s)\n", n)
	}

	if cfg.MinioEndpoint != "" {
		exports, err := store.NewMinioStore(bg, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return err
		}
		if err := exports.RemoveExports(bg, c.Username); err != nil {
			return err
		}
		fmt.Fprintln(ctx.Out, "removed stored exports")
	}
	return nil
}
