package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/NeonAnubis/afrimail-backend/internal/config"
	"github.com/NeonAnubis/afrimail-backend/internal/database"
	"github.com/NeonAnubis/afrimail-backend/internal/repository"
	"github.com/NeonAnubis/afrimail-backend/server"
)

func main() {
	app := &cli.App{
		Name:  "afrimail-backend",
		Usage: "Afrimail admin backend: sending limits and mailcow sync",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(c *cli.Context) error {
					cfg, db, err := setup()
					if err != nil {
						return err
					}
					if err := repository.MigrateDB(cfg.DatabaseConfig, db); err != nil {
						return err
					}
					log.Println("Database migration completed successfully")
					return nil
				},
			},
			{
				Name:  "server",
				Usage: "Start the application server",
				Action: func(c *cli.Context) error {
					cfg, db, err := setup()
					if err != nil {
						return err
					}

					log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
					log.Println("Afrimail backend starting up...")

					srv, err := server.NewServer(cfg, db)
					if err != nil {
						return err
					}

					if err := srv.Run(); err != nil {
						return err
					}

					log.Println("Shutdown complete")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup() (*config.Config, *gorm.DB, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.InitAfrimailDatabase(&database.DatabaseConfig{
		DBName:          cfg.DatabaseConfig.DBName,
		Host:            cfg.DatabaseConfig.Host,
		Port:            cfg.DatabaseConfig.Port,
		User:            cfg.DatabaseConfig.User,
		Password:        cfg.DatabaseConfig.Password,
		MaxConn:         cfg.DatabaseConfig.MaxConn,
		MaxIdleConn:     cfg.DatabaseConfig.MaxIdleConn,
		ConnMaxLifetime: cfg.DatabaseConfig.ConnMaxLifetime,
		LogLevel:        cfg.DatabaseConfig.LogLevel,
		SSLMode:         cfg.DatabaseConfig.SSLMode,
	})
	if err != nil {
		return nil, nil, err
	}

	return cfg, db, nil
}
