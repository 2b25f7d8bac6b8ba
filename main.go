package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/mailtemp/tempmail/config"
	"github.com/mailtemp/tempmail/internal/database"
	"github.com/mailtemp/tempmail/internal/logger"
	"github.com/mailtemp/tempmail/internal/mboximport"
	"github.com/mailtemp/tempmail/internal/parser"
	"github.com/mailtemp/tempmail/internal/repository"
	"github.com/mailtemp/tempmail/server"
	"github.com/mailtemp/tempmail/services"
)

func main() {
	app := &cli.App{
		Name:  "tempmail",
		Usage: "disposable inbox service",
		Commands: []*cli.Command{
			{
				Name:   "server",
				Usage:  "Start the application server",
				Action: runServer,
			},
			{
				Name:   "migrate",
				Usage:  "Run database migrations",
				Action: runMigrate,
			},
			{
				Name:      "parse",
				Usage:     "Print the rendered body of a raw message as JSON",
				ArgsUsage: "<file.eml>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "max-depth", Value: parser.DefaultMaxDepth, Usage: "multipart nesting limit"},
					&cli.IntFlag{Name: "max-parts", Value: parser.DefaultMaxParts, Usage: "total part limit"},
				},
				Action: runParse,
			},
			{
				Name:      "import-mbox",
				Usage:     "Ingest every message of an mbox file into one inbox",
				ArgsUsage: "<file.mbox>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Required: true, Usage: "recipient address"},
				},
				Action: runImportMbox,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, errors.Wrap(err, "config initialization failed")
	}
	if cfg == nil {
		return nil, errors.New("config is empty")
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.InitTempmailDatabase(cfg.DatabaseConfig)
	if err != nil {
		return nil, errors.Wrap(err, "database initialization failed")
	}
	return db, nil
}

func runServer(_ *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Tempmail starting up...")

	srv, err := server.NewServer(cfg, db)
	if err != nil {
		return errors.Wrap(err, "server setup failed")
	}
	if err := srv.Run(); err != nil {
		return errors.Wrap(err, "server startup failed")
	}

	log.Println("Shutdown complete")
	return nil
}

func runMigrate(_ *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}

	if err := repository.MigrateTempmailDB(db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}
	log.Println("Database migration completed successfully")
	return nil
}

func runParse(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowSubcommandHelp(c)
	}
	raw, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}

	p := parser.NewParser(
		parser.WithMaxDepth(c.Int("max-depth")),
		parser.WithMaxParts(c.Int("max-parts")),
	)
	body, report := p.Process(string(raw))

	encoder := json.NewEncoder(c.App.Writer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(struct {
		parser.ParsedBody
		Notes []string `json:"notes"`
	}{body, report.Notes})
}

func runImportMbox(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowSubcommandHelp(c)
	}
	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}

	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()
	defer appLogger.Sync()

	svcs, err := services.InitServices(cfg, appLogger, repository.InitRepositories(db))
	if err != nil {
		return err
	}
	defer svcs.Close()

	result, err := mboximport.NewImporter(appLogger, svcs.IngestService).Import(context.Background(), f, c.String("to"))
	appLogger.Infof("Imported %d messages into %s, %d failed", result.Imported, c.String("to"), result.Failed)
	return err
}
