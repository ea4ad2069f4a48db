// Command co2dash loads emission exports into a warehouse and renders the
// CO2 dashboard as PNG files or over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/cognicore/emissions/internal/dashboard"
	"github.com/cognicore/emissions/pkg/emissions"
	"github.com/cognicore/emissions/pkg/emissions/config"
	"github.com/cognicore/emissions/pkg/emissions/ingest"
	"github.com/cognicore/emissions/pkg/emissions/store"
	"github.com/cognicore/emissions/pkg/emissions/store/sqlite"
)

const defaultDB = "co2dash.db"

var (
	dbPath     string
	configPath string
	envPath    string
	outDir     string
	addr       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "co2dash",
		Short:        "CO2 emissions dashboard",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite warehouse file (overrides "+config.EnvDSN+")")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Dashboard YAML configuration")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "", "Environment file (default: .env when present)")

	importCmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Load CSV, XLSX or JSONL exports into the warehouse",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Write every chart as a PNG file",
		Args:  cobra.NoArgs,
		RunE:  runRender,
	}
	renderCmd.Flags().StringVarP(&outDir, "out", "o", "charts", "Output directory")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard page",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")

	yearsCmd := &cobra.Command{
		Use:   "years",
		Short: "List years with data and the default report year",
		Args:  cobra.NoArgs,
		RunE:  runYears,
	}

	rootCmd.AddCommand(importCmd, renderCmd, serveCmd, yearsCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func load() (*config.Components, error) {
	env := envPath
	if env == "" {
		if _, err := os.Stat(".env"); err == nil {
			env = ".env"
		}
	}
	loader := config.Loader{ConfigPath: configPath, EnvPath: env}
	return loader.Load()
}

func openStore(ctx context.Context, comp *config.Components) (store.Store, error) {
	driver, dsn := comp.Database.Driver, comp.Database.DSN
	if dbPath != "" {
		driver, dsn = sqlite.DriverSQLite, dbPath
	}
	if dsn == "" && driver == sqlite.DriverSQLite {
		dsn = defaultDB
	}
	return sqlite.Open(ctx, driver, dsn)
}

func openEngine(ctx context.Context) (*emissions.Engine, store.Store, error) {
	comp, err := load()
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore(ctx, comp)
	if err != nil {
		return nil, nil, err
	}
	eng, err := emissions.New(emissions.Options{
		Source: st,
		Report: comp.Report,
		Style:  comp.Style,
	})
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return eng, st, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	comp, err := load()
	if err != nil {
		return err
	}
	st, err := openStore(ctx, comp)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, path := range args {
		tbl, err := ingest.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := st.Import(ctx, tbl.Records()); err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		log.Printf("Imported %d records from %s", tbl.Len(), path)
	}
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	rep, err := eng.Report(cmd.Context())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	var captions strings.Builder
	for i, c := range rep.Charts {
		file := fmt.Sprintf("%02d-%s.png", i+1, c.Name)
		if c.Failed() {
			log.Printf("Chart %s failed: %v", c.Name, c.Err)
			fmt.Fprintf(&captions, "%s\t%s\t%s\n", file, c.Title, c.Text)
			continue
		}
		if err := os.WriteFile(filepath.Join(outDir, file), c.Image, 0644); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
		fmt.Fprintf(&captions, "%s\t%s\t%s\n", file, c.Title, c.Text)
	}
	if err := os.WriteFile(filepath.Join(outDir, "captions.txt"), []byte(captions.String()), 0644); err != nil {
		return fmt.Errorf("failed to write captions: %w", err)
	}
	log.Printf("Report %s (%d): wrote %d charts to %s", rep.ID, rep.Year, len(rep.Charts), outDir)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	router, err := dashboard.NewHandler(eng).Router(gin.Logger())
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: addr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Dashboard listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case <-ctx.Done():
		log.Printf("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runYears(cmd *cobra.Command, args []string) error {
	eng, st, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	years, err := st.Years(cmd.Context())
	if err != nil {
		return err
	}
	year, err := eng.Year(cmd.Context())
	if err != nil {
		return err
	}
	for _, y := range years {
		marker := ""
		if y == year {
			marker = "  (report year)"
		}
		fmt.Printf("%d%s\n", y, marker)
	}
	if len(years) == 0 {
		fmt.Println("no data")
	}
	return nil
}
