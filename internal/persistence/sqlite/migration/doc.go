// Package migration applies versioned SQL schema changes to a SQLite database.
//
// Migration files are named {version}_{description}.sql (for example
// "001_initial_schema.sql") and are read from any fs.FS, usually an embedded
// directory. Applied versions are tracked in the schema_migrations table and
// each file runs in its own transaction.
//
//	manager := migration.NewManager(db, migration.NewScanner(files, "migrations"), logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
