package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xavierca1/studio-funnel/internal/config"
	"github.com/xavierca1/studio-funnel/internal/infra/database"
	"github.com/xavierca1/studio-funnel/internal/infra/integration/notion"
	"github.com/xavierca1/studio-funnel/internal/infra/portfolio"
	"github.com/xavierca1/studio-funnel/internal/infra/queue"
)

type app struct {
	cfg    *config.Config
	store  *notion.Store
	cache  *portfolio.Cache
	syncer *portfolio.Synchronizer
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	store := notion.NewStore(notion.NewClient(cfg.NotionBaseURL, cfg.NotionToken), cfg.Databases)
	cache := portfolio.NewCache(cfg.Portfolio.CacheDir)
	syncer := portfolio.NewSynchronizer(store, portfolio.NewHTTPFetcher(), cache, cfg.Portfolio.MediaDir, cfg.Portfolio.MediaPrefix)
	syncer.PublicBase = cfg.PublicBaseURL
	syncer.Updater = store
	return &app{cfg: cfg, store: store, cache: cache, syncer: syncer}, nil
}

func (a *app) requireStore() error {
	if !a.store.Configured() {
		return errors.New("NOTION_TOKEN is required")
	}
	return nil
}

type syncPublisher interface {
	PublishSyncRequest(ctx context.Context, req queue.SyncRequest) error
}

// enqueueSync hands the sync to the API's queue worker instead of running
// it in this process.
func enqueueSync(ctx context.Context, p syncPublisher, reason string, now time.Time) error {
	if reason == "" {
		reason = "cli"
	}
	if err := p.PublishSyncRequest(ctx, queue.SyncRequest{Reason: reason, RequestedAt: now.UTC()}); err != nil {
		return fmt.Errorf("enqueue sync: %w", err)
	}
	slog.Info("portfolio sync queued", slog.String("reason", reason))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	var a *app
	root := &cobra.Command{
		Use:           "portfolio",
		Short:         "Maintain the local portfolio cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err = newApp()
			return err
		},
	}

	var enqueue bool
	var reason string
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror published projects and their media into the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if enqueue {
				if a.cfg.AMQPURL == "" {
					return errors.New("AMQP_URL is required for --enqueue")
				}
				rabbit, err := queue.NewRabbitMQ(a.cfg.AMQPURL)
				if err != nil {
					return err
				}
				defer rabbit.Close()
				return enqueueSync(cmd.Context(), queue.NewProducer(rabbit.Ch), reason, time.Now())
			}
			if err := a.requireStore(); err != nil {
				return err
			}
			res, err := a.syncer.Sync(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	syncCmd.Flags().BoolVar(&enqueue, "enqueue", false, "publish a sync request for the API worker instead of syncing here")
	syncCmd.Flags().StringVar(&reason, "reason", "cli", "reason recorded with a queued sync")
	root.AddCommand(syncCmd)

	root.AddCommand(&cobra.Command{
		Use:   "migrate-images",
		Short: "Copy project media to permanent URLs and update the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireStore(); err != nil {
				return err
			}
			if a.cfg.PublicBaseURL == "" {
				return errors.New("PUBLIC_BASE_URL is required for migrate-images")
			}
			res, err := a.syncer.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := a.cache.ReadAll()
			if err != nil {
				return err
			}
			for _, p := range projects {
				fmt.Printf("%-40s %-6d %s\n", p.Slug, p.Year, p.Title)
			}
			return nil
		},
	})

	var limit int
	var onlyFailed bool
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent lead journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required for journal")
			}
			db, driver, err := database.NewDBConnection(a.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := database.NewLeadJournal(db, driver).Recent(cmd.Context(), limit, onlyFailed)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s  %-10s %-10s %-30s %-12s %v\n",
					e.CreatedAt.Format("2006-01-02 15:04"), e.Kind, e.Operation, e.Email, e.ExternalID, e.Channels)
			}
			return nil
		},
	}
	journalCmd.Flags().IntVar(&limit, "limit", 20, "number of entries")
	journalCmd.Flags().BoolVar(&onlyFailed, "failed", false, "only entries with a failed channel")
	root.AddCommand(journalCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
