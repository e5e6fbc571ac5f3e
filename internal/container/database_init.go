package container

import (
	"fmt"

	"metasearch/database"
	"metasearch/internal/infrastructure/persistence"
)

// initDatabases открывает сервисную БД и создает репозиторий веб-поиска
func (c *Container) initDatabases() error {
	serviceDB, err := database.NewServiceDBWithConfig(c.Config.ServiceDatabasePath, database.DBConfig{
		MaxOpenConns:    c.Config.MaxOpenConns,
		MaxIdleConns:    c.Config.MaxIdleConns,
		ConnMaxLifetime: c.Config.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to open service database: %w", err)
	}

	c.ServiceDB = serviceDB
	c.WebSearchRepo = persistence.NewWebSearchRepository(serviceDB)

	c.Logger.Info("Service database opened", "path", c.Config.ServiceDatabasePath)
	return nil
}
