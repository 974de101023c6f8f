package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	httpHandlers "github.com/pharmastock/core/internal/adapters/http"
	"github.com/pharmastock/core/internal/adapters/repository"
	"github.com/pharmastock/core/internal/application/services"
	"github.com/pharmastock/core/internal/domain/entities"
	"github.com/pharmastock/core/internal/infrastructure/config"
	"github.com/pharmastock/core/internal/infrastructure/logger"
	"github.com/pharmastock/core/internal/infrastructure/server"
	"github.com/pharmastock/core/internal/ports"
)

// Build information, set with -ldflags "-X ...".
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
	GitCommit = "development"
)

// NewRootCommand creates the pharma root command with all subcommands
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pharma",
		Short:         "Pharmaceutical inventory server",
		Long:          `PharmaStock keeps a pharmaceutical inventory in a JSON file and serves it as a web page and a JSON API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default ./config.yaml if present)")

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewInventoryCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the inventory web server",
		Long:  "Initialize the inventory store, serve it over HTTP and flush it to disk on shutdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd)
		},
	}
}

// NewInventoryCommand creates the inventory command with subcommands
func NewInventoryCommand() *cobra.Command {
	inventoryCmd := &cobra.Command{
		Use:   "inventory",
		Short: "Inventory maintenance commands",
		Long:  "List, add and remove medications without starting the server",
	}

	inventoryCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print all medications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInventory(cmd, func(inventory *services.InventoryService) error {
				return printInventory(cmd, inventory)
			})
		},
	})

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a medication",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := medicationFromFlags(cmd)
			if err != nil {
				return err
			}

			return withInventory(cmd, func(inventory *services.InventoryService) error {
				med := req.ToMedication()
				if err := inventory.AddMedication(med); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (batch %s), %d medications in stock\n",
					med.Name, med.BatchNumber, inventory.GetTotalMedications())
				return nil
			})
		},
	}
	addCmd.Flags().String("name", "", "Medication name")
	addCmd.Flags().String("ingredient", "", "Active ingredient")
	addCmd.Flags().Int("quantity", 0, "Units in stock")
	addCmd.Flags().String("expiry", "", "Expiry date, YYYY-MM-DD (required)")
	addCmd.Flags().String("batch", "", "Batch number (required)")
	inventoryCmd.AddCommand(addCmd)

	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove every medication with a batch number",
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, _ := cmd.Flags().GetString("batch")
			if batch == "" {
				return errors.New("--batch is required")
			}

			return withInventory(cmd, func(inventory *services.InventoryService) error {
				removed, err := inventory.RemoveMedication(batch)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("%w: batch %s", entities.ErrMedicationNotFound, batch)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed batch %s, %d medications in stock\n",
					batch, inventory.GetTotalMedications())
				return nil
			})
		},
	}
	removeCmd.Flags().String("batch", "", "Batch number (required)")
	inventoryCmd.AddCommand(removeCmd)

	return inventoryCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print PharmaStock version",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "PharmaStock v%s\n", Version)
			fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile := ""
	if f := cmd.Flag("config"); f != nil {
		configFile = f.Value.String()
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newInventory wires the inventory store to its JSON file, or returns the
// in-memory variant when persistence is disabled.
func newInventory(cfg *config.Config, appLogger *logger.Logger) *services.InventoryService {
	var repo ports.InventoryRepository
	if cfg.Inventory.PersistenceEnabled {
		var bundled fs.FS
		if cfg.Inventory.ResourceDir != "" {
			bundled = os.DirFS(cfg.Inventory.ResourceDir)
		}
		repo = repository.NewJSONInventoryRepository(cfg.Inventory.DataDir, cfg.Inventory.FileName, bundled, appLogger)
	}
	return services.NewInventoryService(repo, appLogger)
}

func runServer(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inventory := newInventory(cfg, appLogger)
	inventory.Initialize(ctx)
	defer inventory.Cleanup(context.Background())

	srv, err := server.New(cfg, inventory, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	appLogger.Infow("Starting PharmaStock server",
		"address", cfg.Server.Address(),
		"environment", cfg.App.Environment,
		"persistence", cfg.Inventory.PersistenceEnabled,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Address())
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		appLogger.Info("Shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("Server shutdown failed", "error", err)
	}

	return serveErr
}

// withInventory runs fn between Initialize and Cleanup of a store built
// from the configuration. Cleanup runs even when fn fails.
func withInventory(cmd *cobra.Command, fn func(*services.InventoryService) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// keep stdout for command output
	if cfg.Logger.Output != "file" {
		cfg.Logger.Output = "stderr"
	}
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	inventory := newInventory(cfg, appLogger)
	inventory.Initialize(ctx)
	defer inventory.Cleanup(ctx)

	return fn(inventory)
}

func medicationFromFlags(cmd *cobra.Command) (ports.CreateMedicationRequest, error) {
	flags := cmd.Flags()
	name, _ := flags.GetString("name")
	ingredient, _ := flags.GetString("ingredient")
	quantity, _ := flags.GetInt("quantity")
	expiry, _ := flags.GetString("expiry")
	batch, _ := flags.GetString("batch")

	req := ports.CreateMedicationRequest{
		Name:             name,
		ActiveIngredient: ingredient,
		Quantity:         quantity,
		BatchNumber:      batch,
	}

	if expiry != "" {
		date, err := entities.ParseDate(expiry)
		if err != nil {
			return req, fmt.Errorf("invalid --expiry: %w", err)
		}
		req.ExpiryDate = date
	}

	if err := httpHandlers.NewValidator().Validate(&req); err != nil {
		return req, fmt.Errorf("invalid medication: %w", err)
	}
	return req, nil
}

func printInventory(cmd *cobra.Command, inventory *services.InventoryService) error {
	meds, err := inventory.GetAllMedications()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tACTIVE INGREDIENT\tQUANTITY\tEXPIRY\tBATCH")
	for _, m := range meds {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", m.Name, m.ActiveIngredient, m.Quantity, m.ExpiryDate, m.BatchNumber)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nTotal medications: %d\n", inventory.GetTotalMedications())
	fmt.Fprintf(out, "Total units: %d\n", inventory.GetTotalUnits())
	return nil
}
