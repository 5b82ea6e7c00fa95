// Package database provides the hub's SQLite store.
//
// It wraps database/sql with the mattn/go-sqlite3 driver, applies embedded
// schema migrations and offers transaction helpers for repositories.
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
