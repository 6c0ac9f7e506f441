package chdscli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli"

	"github.com/chittoor-drda/chds-app/chds/api"
	"github.com/chittoor-drda/chds-app/chds/constants"
	"github.com/chittoor-drda/chds-app/chds/csvimport"
	"github.com/chittoor-drda/chds-app/chds/database"
	"github.com/chittoor-drda/chds-app/chds/models"
	"github.com/chittoor-drda/chds-app/chds/models/postgres"
	"github.com/chittoor-drda/chds-app/chds/service"
	"github.com/chittoor-drda/chds-app/chds/utils"
	"github.com/chittoor-drda/chds-app/conf"
	"github.com/chittoor-drda/chds-app/log"
)

// App Name and usage.  Edit them here to prevent breaking tests
const Name = "chds"
const Usage = "Chittoor Health Data Collection System CLI"

func GetApp() *cli.App {
	return setUpApp()
}

func setUpApp() *cli.App {
	app := cli.NewApp()
	app.Name = Name
	app.Usage = Usage
	app.Version = constants.Version
	var filePath, mode, importedBy, cutoffDate, mandal, secretariat, assignments string
	var dryRun bool
	var limit int
	app.Commands = []cli.Command{
		{
			Name:  "start-api",
			Usage: "Start the registry API",
			Action: func(c *cli.Context) error {
				db := database.GetDbConnection()
				svc := service.NewService(db)

				fmt.Fprintf(app.Writer, "%s\n", "Starting chds API...")

				srv := &http.Server{
					Handler:      api.NewAPIRouter(svc, db),
					Addr:         fmt.Sprintf(":%d", utils.GetEnvInt("API_PORT", 3000)),
					ReadTimeout:  time.Duration(utils.GetEnvInt("API_READ_TIMEOUT", 10)) * time.Second,
					WriteTimeout: time.Duration(utils.GetEnvInt("API_WRITE_TIMEOUT", 20)) * time.Second,
					IdleTimeout:  time.Duration(utils.GetEnvInt("API_IDLE_TIMEOUT", 120)) * time.Second,
				}
				return srv.ListenAndServe()
			},
		},
		{
			Name:     "import-csv",
			Category: "Data import",
			Usage:    "Import a registry export file into the residents table",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "file",
					Usage:       "Path of the file to import",
					Destination: &filePath,
				},
				cli.StringFlag{
					Name:        "mode",
					Usage:       "Import mode: add, update or add_update",
					Value:       constants.ImportModeAddUpdate,
					Destination: &mode,
				},
				cli.BoolFlag{
					Name:        "dry-run",
					Usage:       "Stage and validate the file without changing the registry",
					Destination: &dryRun,
				},
				cli.StringFlag{
					Name:        "imported-by",
					Usage:       "Operator recorded in the import history",
					Value:       "cli",
					Destination: &importedBy,
				},
			},
			Action: func(c *cli.Context) error {
				result, err := runImport(filePath, mode, dryRun, importedBy)
				// A failed run can still carry counts worth showing, a dry
				// run that failed validation in particular.
				if result != nil {
					out, marshalErr := json.MarshalIndent(result, "", "  ")
					if marshalErr != nil {
						return marshalErr
					}
					fmt.Fprintf(app.Writer, "%s\n", out)
				}
				return err
			},
		},
		{
			Name:     "set-cutoff-date",
			Category: "Locking",
			Usage:    "Lock consistent records last updated before the given date",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "date",
					Usage:       "Cutoff date (YYYY-MM-DD)",
					Destination: &cutoffDate,
				},
			},
			Action: func(c *cli.Context) error {
				parsed, err := time.Parse("2006-01-02", cutoffDate)
				if err != nil {
					return fmt.Errorf("date must be formatted as 2006-01-02: %s", err)
				}
				db := database.GetDbConnection()
				defer db.Close()
				if err := service.NewService(db).SetCutoffDate(context.Background(), &parsed); err != nil {
					return err
				}
				fmt.Fprintf(app.Writer, "Cutoff date set to %s\n", parsed.Format("2006-01-02"))
				return nil
			},
		},
		{
			Name:     "clear-cutoff-date",
			Category: "Locking",
			Usage:    "Disable record locking",
			Action: func(c *cli.Context) error {
				db := database.GetDbConnection()
				defer db.Close()
				if err := service.NewService(db).SetCutoffDate(context.Background(), nil); err != nil {
					return err
				}
				fmt.Fprintf(app.Writer, "%s\n", "Cutoff date cleared; locking disabled.")
				return nil
			},
		},
		{
			Name:     "show-locking",
			Category: "Locking",
			Usage:    "Show the current locking configuration",
			Action: func(c *cli.Context) error {
				db := database.GetDbConnection()
				defer db.Close()
				setting, err := service.NewService(db).GetLockingSetting(context.Background())
				if err != nil {
					return err
				}
				if setting.CutoffDate == nil {
					fmt.Fprintf(app.Writer, "%s\n", "Locking disabled (no cutoff date).")
					return nil
				}
				fmt.Fprintf(app.Writer, "Cutoff date: %s\n", setting.CutoffDate.Format("2006-01-02"))
				return nil
			},
		},
		{
			Name:     "completion-stats",
			Category: "Reporting",
			Usage:    "Report per-field completion rates for a resident population",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "mandal",
					Usage:       "Restrict to one mandal",
					Destination: &mandal,
				},
				cli.StringFlag{
					Name:        "secretariat",
					Usage:       "Restrict to one secretariat",
					Destination: &secretariat,
				},
				cli.StringFlag{
					Name:        "assignments",
					Usage:       "Staff assignment JSON; reports every assigned secretariat instead of --mandal/--secretariat",
					Destination: &assignments,
				},
			},
			Action: func(c *cli.Context) error {
				ctx := context.Background()

				var scopes []models.AssignedSecretariat
				if assignments != "" {
					parsed, err := models.ParseAssignedSecretariats(json.RawMessage(assignments))
					if err != nil {
						return err
					}
					scopes = parsed
				}

				db := database.GetDbConnection()
				defer db.Close()
				svc := service.NewService(db)

				if scopes == nil {
					report, err := svc.GetCompletionStats(ctx, mandal, secretariat)
					if err != nil {
						return err
					}
					out, err := json.MarshalIndent(report, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintf(app.Writer, "%s\n", out)
					return nil
				}

				reports := make(map[string]*service.CompletionReport, len(scopes))
				for _, scope := range scopes {
					report, err := svc.GetCompletionStats(ctx, scope.MandalName, scope.SecName)
					if err != nil {
						return err
					}
					reports[scope.MandalName+" / "+scope.SecName] = report
				}
				out, err := json.MarshalIndent(reports, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Writer, "%s\n", out)
				return nil
			},
		},
		{
			Name:     "import-history",
			Category: "Reporting",
			Usage:    "List recent import runs",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:        "limit",
					Usage:       "Maximum number of runs to list",
					Value:       20,
					Destination: &limit,
				},
			},
			Action: func(c *cli.Context) error {
				db := database.GetDbConnection()
				defer db.Close()
				entries, err := service.NewService(db).GetImportHistory(context.Background(), limit)
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(entries, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Writer, "%s\n", out)
				return nil
			},
		},
	}
	return app
}

func runImport(filePath, mode string, dryRun bool, importedBy string) (*csvimport.ImportResult, error) {
	ctx := context.Background()

	pool, err := database.GetPgxPool(ctx)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	db := database.GetDbConnection()
	defer db.Close()

	importer := csvimport.CSVImporter{
		Logger: log.Import,
		FileProcessor: &csvimport.LocalFileProcessor{
			Logger:             log.Import,
			PendingDeletionDir: conf.GetEnv("CHDS_PENDING_DELETION_DIR"),
		},
		PgxPool:    pool,
		Repository: postgres.NewRepository(db),
	}

	return importer.ImportCSV(ctx, csvimport.ImportRequest{
		FilePath:   filePath,
		Mode:       mode,
		DryRun:     dryRun,
		ImportedBy: importedBy,
	})
}
