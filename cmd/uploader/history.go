package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/yourname/upload_lite/internal/app/termui"
	"github.com/yourname/upload_lite/internal/config"
	"github.com/yourname/upload_lite/internal/repo/history"
)

func runHistory(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitConfig
	}

	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	limit := fs.Int("limit", history.DefaultListLimit, "how many records to show")
	dsn := fs.String("dsn", cfg.History.DSN, "history database DSN")
	if err = fs.Parse(args); err != nil {
		return exitUsage
	}

	if history.IsMemoryDSN(*dsn) {
		fmt.Fprintln(stderr, "history.dsn is not configured; nothing is persisted between runs")
		return exitConfig
	}

	store, closeStore, err := history.Open(ctx, *dsn)
	if err != nil {
		fmt.Fprintf(stderr, "history: %v\n", err)
		return exitFailed
	}
	defer closeStore()

	recs, err := store.List(ctx, *limit)
	if err != nil {
		fmt.Fprintf(stderr, "history: %v\n", err)
		return exitFailed
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tFILE\tSIZE\tPARTS\tURL")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime), r.FileName, termui.HumanBytes(r.Size), r.Parts, r.URL)
	}
	if err = tw.Flush(); err != nil {
		return exitFailed
	}
	return exitOK
}
