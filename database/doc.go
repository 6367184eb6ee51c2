// Package database connects the local backend to its metadata store.
//
// Two backends are supported:
//
//   - SQLite via modernc.org/sqlite, the default, suitable for a single node
//   - PostgreSQL via a pgx connection pool
//
// Usage:
//
//	db, err := database.Connect(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "filegate.db",
//	    Tables: filegate.Tables{Objects: "filegate_objects"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//	repo := db.GetRepo()
package database
