package main

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nurpratapkarki/realEstateWeb/config"
	v1 "github.com/nurpratapkarki/realEstateWeb/v1"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/nurpratapkarki/realEstateWeb/v1/services"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// dbOpener returns the database the commands operate on
type dbOpener func() (*gorm.DB, error)

func newRootCmd(open dbOpener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Maintenance tool for the real estate catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		migrateCmd(open),
		fixRolesCmd(open),
		areaCmd(),
	)
	return rootCmd
}

func migrateCmd(open dbOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema of every catalog model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open()
			if err != nil {
				return err
			}
			if err := v1.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migration complete.")
			return nil
		},
	}
}

func fixRolesCmd(open dbOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix-roles",
		Short: "Give role=admin to customers whose staff or superuser flag is set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			yes, _ := cmd.Flags().GetBool("yes")
			out := cmd.OutOrStdout()

			db, err := open()
			if err != nil {
				return err
			}
			userService := services.NewUserService(db)

			pending, err := userService.FixUserRoles(cmd.Context(), true)
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Fprintln(out, "No users need a role fix.")
				return nil
			}

			fmt.Fprintf(out, "Users to promote to admin (%d):\n", len(pending))
			for _, u := range pending {
				fmt.Fprintf(out, "- %s (id %d, staff=%t, superuser=%t)\n", u.Username, u.UserID, u.IsStaff, u.IsSuperuser)
			}
			if dryRun {
				fmt.Fprintln(out, "Dry run: no changes written.")
				return nil
			}

			if !yes {
				fmt.Fprint(out, "Apply these changes? [y/N]: ")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			fixed, err := userService.FixUserRoles(cmd.Context(), false)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Updated %d users.\n", len(fixed))
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "Only list the users that would change")
	cmd.Flags().BoolP("yes", "y", false, "Apply without asking for confirmation")
	return cmd
}

func areaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "area",
		Short: "Area unit utilities",
	}

	convert := &cobra.Command{
		Use:     "convert <value> <from> <to>",
		Short:   "Convert an area between units",
		Example: "  catalogctl area convert 2 ropani sqft\n  catalogctl area convert 10000 sqft ropani --land",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			showLand, _ := cmd.Flags().GetBool("land")

			if configPath != "" {
				cfg, err := config.LoadCatalogConfig(configPath)
				if err != nil {
					return err
				}
				for _, unit := range cfg.AreaUnits {
					if err := models.RegisterAreaUnit(models.AreaUnit(unit.Name), unit.SquareFeet); err != nil {
						return err
					}
				}
			}

			value, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid area value %q", args[0])
			}
			from := models.AreaUnit(strings.ToLower(args[1]))
			to := models.AreaUnit(strings.ToLower(args[2]))

			converted, err := models.ConvertArea(value, from, to)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s = %s %s\n", formatArea(value), from, formatArea(converted), to)

			if showLand {
				sqft, err := models.ToSquareFeet(value, from)
				if err != nil {
					return err
				}
				land := models.LandAreaFromSquareFeet(sqft)
				fmt.Fprintf(out, "%s ropani %s aana %s paisa %s daam\n",
					formatArea(land.Ropani), formatArea(land.Aana), formatArea(land.Paisa), formatArea(land.Daam))
			}
			return nil
		},
	}
	convert.Flags().String("config", "", "Catalog config file with extra area units")
	convert.Flags().Bool("land", false, "Also print the ropani-aana-paisa-daam breakdown")

	cmd.AddCommand(convert)
	return cmd
}

func formatArea(v float64) string {
	return strconv.FormatFloat(math.Round(v*10000)/10000, 'f', -1, 64)
}
