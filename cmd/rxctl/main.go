package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/rxflow/internal/app"
	"github.com/andresuchdata/rxflow/internal/config"
	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/pipeline"
	"github.com/andresuchdata/rxflow/pkg/logger"
)

type appKey struct{}

func familyFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "family",
		Aliases: []string{"f"},
		Usage:   "Report family (production, turnaround, bypass, usage, product-usage, product-wastage, detailed-wastage, stock-doses); inferred when omitted",
	}
}

func parseFamily(c *cli.Context) (domain.Family, error) {
	raw := c.String("family")
	if raw == "" {
		return "", nil
	}
	family, ok := domain.ParseFamily(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", pipeline.ErrUnknownFamily, raw)
	}
	return family, nil
}

func openApp(c *cli.Context) error {
	cfg := config.Load()
	level := cfg.Server.LogLevel
	if c.Bool("verbose") {
		level = "debug"
	}
	logger.SetLevel(level)

	a, err := app.New(c.Context, cfg)
	if err != nil {
		return err
	}
	c.Context = context.WithValue(c.Context, appKey{}, a)
	return nil
}

func closeApp(c *cli.Context) error {
	if a, ok := c.Context.Value(appKey{}).(*app.App); ok && a != nil {
		return a.Close()
	}
	return nil
}

func appFrom(c *cli.Context) *app.App {
	return c.Context.Value(appKey{}).(*app.App)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// offlineOnly warns writers away from a store a server has open. The server
// loads every collection once and only ever rewrites whole buckets, so a
// write made here is overwritten by the server's next ingest.
const offlineOnly = "Writes the report store directly. Stop any rxflow server using the same store first; " +
	"the server keeps collections in memory and its next write replaces whatever rxctl saved."

func newCLI() *cli.App {
	return &cli.App{
		Name:  "rxctl",
		Usage: "Ingest pharmacy automation reports and manage the report store",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Enable debug logging"},
		},
		Before: openApp,
		After:  closeApp,
		Commands: []*cli.Command{
			{
				Name:        "ingest",
				Usage:       "Ingest one or more csv/xlsx exports",
				Description: offlineOnly,
				ArgsUsage:   "FILE...",
				Flags: []cli.Flag{
					familyFlag(),
					&cli.IntFlag{Name: "workers", Value: pipeline.DefaultWorkerConfig().WorkerCount, Usage: "Files ingested concurrently"},
				},
				Action: ingestAction,
			},
			{
				Name:        "clear",
				Usage:       "Delete production, turnaround, bypass and usage history (snapshots are kept)",
				Description: offlineOnly,
				Action:      clearAction,
			},
			{
				Name:  "drive",
				Usage: "Import exports from Google Drive",
				Subcommands: []*cli.Command{
					{
						Name:  "ls",
						Usage: "List importable files in a Drive folder",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "folder", Usage: "Folder ID (defaults to root)"},
							&cli.StringFlag{Name: "path", Usage: "Folder path such as Reports/2024, resolved from root"},
						},
						Action: driveListAction,
					},
					{
						Name:        "import",
						Usage:       "Download a Drive file and ingest it",
						Description: offlineOnly,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "file-id", Required: true, Usage: "Drive file ID"},
							familyFlag(),
						},
						Action: driveImportAction,
					},
				},
			},
			{
				Name:  "archive",
				Usage: "Inspect and replay archived uploads",
				Subcommands: []*cli.Command{
					{
						Name:   "ls",
						Usage:  "List archived uploads",
						Flags:  []cli.Flag{familyFlag()},
						Action: archiveListAction,
					},
					{
						Name:        "replay",
						Usage:       "Ingest an archived upload again",
						Description: offlineOnly,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "key", Required: true, Usage: "Archive object key"},
							familyFlag(),
						},
						Action: archiveReplayAction,
					},
				},
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCLI().RunContext(ctx, os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("rxctl failed")
		stop()
		os.Exit(1)
	}
}

func ingestAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one file is required")
	}
	family, err := parseFamily(c)
	if err != nil {
		return err
	}
	jobs, err := appFrom(c).Ingest.IngestFiles(c.Context, family, c.Args().Slice(), c.Int("workers"))
	for _, job := range jobs {
		entry := map[string]any{
			"file":     job.Path,
			"family":   job.Family,
			"status":   job.Status,
			"duration": job.Duration.String(),
		}
		if job.Outcome != nil {
			entry["outcome"] = job.Outcome
		}
		if job.Err != nil {
			entry["error"] = job.Err.Error()
		}
		if perr := printJSON(entry); perr != nil {
			return perr
		}
	}
	return err
}

func clearAction(c *cli.Context) error {
	if err := appFrom(c).Ingest.ClearHistory(c.Context); err != nil {
		return err
	}
	return printJSON(map[string]bool{"success": true})
}

func driveListAction(c *cli.Context) error {
	a := appFrom(c)
	if a.Drive == nil {
		return errors.New("drive is not configured; set GOOGLE_DRIVE_CREDENTIALS_JSON")
	}
	folder := c.String("folder")
	if p := c.String("path"); p != "" {
		id, err := a.DriveService.FindFolderByPath(c.Context, p)
		if err != nil {
			return err
		}
		folder = id
	}
	files, err := a.Drive.ListImportable(c.Context, folder)
	if err != nil {
		return err
	}
	for _, f := range files {
		family, ferr := pipeline.InferFamily(f.Name)
		label := string(family)
		if ferr != nil {
			label = "?"
		}
		fmt.Printf("%s\t%-18s\t%s\n", f.ID, label, f.Name)
	}
	return nil
}

func driveImportAction(c *cli.Context) error {
	a := appFrom(c)
	if a.Drive == nil {
		return errors.New("drive is not configured; set GOOGLE_DRIVE_CREDENTIALS_JSON")
	}
	family, err := parseFamily(c)
	if err != nil {
		return err
	}
	outcome, err := a.Ingest.ImportDrive(c.Context, a.Drive, c.String("file-id"), family)
	if err != nil {
		return err
	}
	return printJSON(outcome)
}

func archiveListAction(c *cli.Context) error {
	family, err := parseFamily(c)
	if err != nil {
		return err
	}
	objects, err := appFrom(c).Ingest.ListArchive(c.Context, family)
	if err != nil {
		return err
	}
	for _, o := range objects {
		fmt.Printf("%s\t%d\t%s\n", o.LastModified.Format("2006-01-02 15:04:05"), o.Size, o.Key)
	}
	return nil
}

func archiveReplayAction(c *cli.Context) error {
	family, err := parseFamily(c)
	if err != nil {
		return err
	}
	outcome, err := appFrom(c).Ingest.ReplayArchive(c.Context, c.String("key"), family)
	if err != nil {
		return err
	}
	return printJSON(outcome)
}
