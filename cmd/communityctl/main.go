package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tinytitans-bjj/community-backend/internal/config"
	"github.com/tinytitans-bjj/community-backend/internal/database"
	"github.com/tinytitans-bjj/community-backend/internal/logging"
	"github.com/tinytitans-bjj/community-backend/internal/repository"
	"github.com/tinytitans-bjj/community-backend/internal/services"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openDB connects using the same environment as the server. The caller must
// close the returned database.
func openDB() (*gorm.DB, error) {
	cfg := config.Load()
	logging.Setup(logging.ParseLevel("warn"))
	if cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("communityctl requires DB_DRIVER=postgres, got %q", cfg.DBDriver)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// withLocations runs fn against a LocationService backed by Postgres.
func withLocations(fn func(*services.LocationService) error) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)
	return fn(services.NewLocationService(repository.NewGormStore(db), 0))
}

var rootCmd = &cobra.Command{
	Use:           "communityctl",
	Short:         "Operate the location community board",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)
		if err := database.Migrate(db); err != nil {
			return err
		}
		fmt.Println("Migration complete")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed <locations.toml>",
	Short: "Create locations listed in a TOML file; existing slugs are skipped",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seeds, err := config.LoadLocationSeeds(args[0])
		if err != nil {
			return err
		}
		return withLocations(func(ls *services.LocationService) error {
			created, err := ls.Seed(cmd.Context(), seeds)
			if err != nil {
				return err
			}
			fmt.Printf("Created %d of %d locations\n", created, len(seeds))
			return nil
		})
	},
}

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Manage daycare locations",
}

var locationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLocations(func(ls *services.LocationService) error {
			locs, err := ls.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SLUG\tNAME\tACTIVE\tCREATED")
			for _, l := range locs {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", l.Slug, l.Name, l.IsActive, l.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		})
	},
}

var locationCreateCmd = &cobra.Command{
	Use:   "create <slug> <name>",
	Short: "Create a location",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pin, _ := cmd.Flags().GetString("pin")
		return withLocations(func(ls *services.LocationService) error {
			loc, err := ls.Create(cmd.Context(), args[1], args[0], pin)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s (%s)\n", loc.Slug, loc.ID)
			return nil
		})
	},
}

var locationSetPinCmd = &cobra.Command{
	Use:   "set-pin <slug> <pin>",
	Short: "Rotate a location's PIN",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pin := args[1]
		return withLocations(func(ls *services.LocationService) error {
			if _, err := ls.Update(cmd.Context(), args[0], services.LocationChanges{PIN: &pin}); err != nil {
				return err
			}
			fmt.Printf("PIN updated for %s\n", args[0])
			return nil
		})
	},
}

func setActiveCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <slug>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocations(func(ls *services.LocationService) error {
				loc, err := ls.Update(cmd.Context(), args[0], services.LocationChanges{IsActive: &active})
				if err != nil {
					return err
				}
				fmt.Printf("%s active=%t\n", loc.Slug, loc.IsActive)
				return nil
			})
		},
	}
}

func init() {
	locationCreateCmd.Flags().String("pin", "", "Access PIN (4-12 letters or digits)")
	_ = locationCreateCmd.MarkFlagRequired("pin")

	locationCmd.AddCommand(locationListCmd)
	locationCmd.AddCommand(locationCreateCmd)
	locationCmd.AddCommand(locationSetPinCmd)
	locationCmd.AddCommand(setActiveCmd("activate", "Reopen a location's community board", true))
	locationCmd.AddCommand(setActiveCmd("deactivate", "Close a location's community board", false))

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(locationCmd)
}
