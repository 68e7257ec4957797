package protocal

import (
	"fmt"

	"file-utility-bot/configs"
	"file-utility-bot/internal/adapters/output/postgres"
	"file-utility-bot/internal/adapters/output/sqlite"
	"file-utility-bot/internal/ports/output"
	"file-utility-bot/pkg/database_driver/gorm"

	"github.com/sirupsen/logrus"
)

// OpenRegistry connects the user registry selected by registry.driver.
// The returned func releases the connection.
func OpenRegistry(cfg *configs.Config) (output.UserRegistry, func(), error) {
	switch cfg.RegistryDriver() {
	case "sqlite":
		registry, err := sqlite.Open(cfg.Registry.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logrus.Infof("User registry: sqlite %s", cfg.Registry.SQLitePath)
		return registry, func() {
			if err := registry.Close(); err != nil {
				logrus.Error(err)
			}
		}, nil

	case "postgres":
		var (
			dbConGorm *gorm.DB
			err       error
		)
		if cfg.Postgres.URL != "" {
			dbConGorm, err = gorm.ConnectToPostgreSQLURL(cfg.Postgres.URL)
		} else {
			dbConGorm, err = gorm.ConnectToPostgreSQL(
				cfg.Postgres.Host,
				cfg.Postgres.Port,
				cfg.Postgres.Username,
				cfg.Postgres.Password,
				cfg.Postgres.DbName,
				cfg.Postgres.SSLMode,
			)
		}
		if err != nil {
			return nil, nil, err
		}
		repo, err := postgres.NewUserRepository(dbConGorm.Postgres)
		if err != nil {
			gorm.DisconnectPostgres(dbConGorm.Postgres)
			return nil, nil, err
		}
		logrus.Info("User registry: postgres")
		return repo, func() {
			gorm.DisconnectPostgres(dbConGorm.Postgres)
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown registry driver %q", cfg.Registry.Driver)
}
