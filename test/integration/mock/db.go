package mock

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledger-recon/backend/internal/infra/db"
)

type Db struct {
	DbConn   *gorm.DB
	database *db.Database
	models   []any
}

// NewDb opens a private in-memory SQLite database with the service schema.
func NewDb() *Db {
	database, err := db.NewSQLiteConnection(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		panic(err)
	}
	if err := database.AutoMigrate(); err != nil {
		panic(fmt.Sprintf("failed to migrate database. err: %s", err.Error()))
	}

	return &Db{
		DbConn:   database.DB(),
		database: database,
		models:   db.Models(),
	}
}

// ClearDB deletes every row, children first.
func (d *Db) ClearDB() error {
	for i := len(d.models) - 1; i >= 0; i-- {
		err := d.DbConn.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(d.models[i]).Error
		if err != nil {
			return fmt.Errorf("failed to clear %T: %w", d.models[i], err)
		}
	}
	return nil
}

// Count returns the number of rows stored for model.
func (d *Db) Count(model any) (int64, error) {
	var count int64
	err := d.DbConn.Model(model).Count(&count).Error
	return count, err
}

func (d *Db) Close() error {
	return d.database.Close()
}
