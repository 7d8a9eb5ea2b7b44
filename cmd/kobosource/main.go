package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ebookmeta/kobosource/config"
	"github.com/ebookmeta/kobosource/metadata"
	"github.com/ebookmeta/kobosource/models"
)

func main() {
	defaultCfg := config.DefaultConfig()
	countryDefault := defaultCfg.Country
	if value, ok := config.EnvString("KOBOSOURCE_COUNTRY"); ok {
		countryDefault = value
	}
	matchesDefault := defaultCfg.NumMatches
	if value, ok, err := config.EnvInt("KOBOSOURCE_MATCHES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid KOBOSOURCE_MATCHES: %v\n", err)
		os.Exit(1)
	} else if ok {
		matchesDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("KOBOSOURCE_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	resizeDefault := defaultCfg.ResizeCover
	if value, ok, err := config.EnvBool("KOBOSOURCE_RESIZE_COVER"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid KOBOSOURCE_RESIZE_COVER: %v\n", err)
		os.Exit(1)
	} else if ok {
		resizeDefault = value
	}

	title := flag.String("title", "", "Book title to search for")
	authors := flag.String("authors", "", "Comma-separated author names")
	isbn := flag.String("isbn", "", "ISBN identifier")
	koboID := flag.String("kobo-id", "", "Explicit Kobo product identifier")
	country := flag.String("country", countryDefault, "Storefront country code")
	language := flag.String("language", defaultCfg.Language, "Search language filter (2-letter code or all)")
	matches := flag.Int("matches", matchesDefault, "Maximum number of results")
	titleBlacklist := flag.String("title-blacklist", "", "Comma-separated blacklisted title words")
	tagBlacklist := flag.String("tag-blacklist", "", "Comma-separated blacklisted tags")
	stripZeroes := flag.Bool("strip-zeroes", false, "Strip leading zeroes from title tokens")
	resizeCover := flag.Bool("resize-cover", resizeDefault, "Request resized covers instead of full resolution")
	coverOut := flag.String("cover-out", "", "Download the top result's cover to this file")
	timeout := flag.Duration("timeout", defaultCfg.Timeout, "Per-request timeout")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if *title == "" && *isbn == "" && *koboID == "" {
		fmt.Fprintln(os.Stderr, "at least one of -title, -isbn, or -kobo-id is required")
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.Country = *country
	cfg.Language = *language
	cfg.NumMatches = *matches
	cfg.TitleBlacklist = *titleBlacklist
	cfg.TagBlacklist = *tagBlacklist
	cfg.RemoveLeadingZeroes = *stripZeroes
	cfg.ResizeCover = *resizeCover
	cfg.Timeout = *timeout
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	source, err := metadata.NewSource(cfg, logger)
	if err != nil {
		slog.Error("initialising source", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(source.Metrics().Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	identifiers := map[string]string{}
	if *isbn != "" {
		identifiers["isbn"] = *isbn
	}
	if *koboID != "" {
		identifiers["kobo"] = *koboID
	}
	authorList := splitAuthors(*authors)

	results := &metadata.Results{}
	start := time.Now()
	if err := source.Identify(ctx, results, *title, authorList, identifiers); err != nil {
		slog.Error("identify failed", slog.Any("error", err))
		os.Exit(1)
	}

	books := results.All()
	printResults(books, time.Since(start))

	if *coverOut != "" {
		if err := downloadCover(ctx, source, books, *title, authorList, identifiers, *coverOut); err != nil {
			slog.Error("cover download failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}
}

func splitAuthors(csv string) []string {
	if csv == "" {
		return nil
	}
	var authors []string
	for _, a := range strings.Split(csv, ",") {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	return authors
}

func downloadCover(ctx context.Context, source *metadata.Source, books []*models.Book, title string, authors []string, identifiers map[string]string, path string) error {
	coverURL := ""
	if len(books) > 0 {
		coverURL = books[0].CoverURL
	}
	if coverURL == "" {
		var err error
		coverURL, err = source.GetCoverURL(ctx, title, authors, identifiers)
		if err != nil {
			return err
		}
	}

	data, err := source.GetCover(ctx, coverURL)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write cover: %w", err)
	}
	slog.Info("cover saved", slog.String("path", path), slog.Int("bytes", len(data)))
	return nil
}

func printResults(books []*models.Book, duration time.Duration) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Printf("Found %d result(s) in %v\n", len(books), duration.Round(time.Millisecond))

	for _, book := range books {
		fmt.Println(separator)
		fmt.Printf("  [%d] %s\n", book.Relevance, book.Title)
		if len(book.Authors) > 0 {
			fmt.Printf("      Authors:   %s\n", strings.Join(book.Authors, ", "))
		}
		if book.Series != "" {
			series := book.Series
			if book.SeriesIndex != "" {
				series += " #" + book.SeriesIndex
			}
			fmt.Printf("      Series:    %s\n", series)
		}
		if book.Publisher != "" {
			fmt.Printf("      Publisher: %s\n", book.Publisher)
		}
		if book.PubDate != nil {
			fmt.Printf("      Released:  %s\n", book.PubDate.Format("2006-01-02"))
		}
		if book.ISBN != "" {
			fmt.Printf("      ISBN:      %s\n", book.ISBN)
		}
		if book.Language != "" {
			fmt.Printf("      Language:  %s\n", book.Language)
		}
		if len(book.Tags) > 0 {
			fmt.Printf("      Tags:      %s\n", strings.Join(book.Tags, "; "))
		}
		if book.CoverURL != "" {
			fmt.Printf("      Cover:     %s\n", book.CoverURL)
		}
	}
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
