// Package sqlite implements the step ledger on SQLite using the Bun ORM
// with the sqliteshim driver. It is the default backend: a single file,
// no server, durable across process restarts.
//
// Open owns the database handle:
//
//	store, err := sqlite.Open("orders.db")
//	if err != nil { ... }
//	defer store.Close()
//	store.Migrate(ctx)
//
// New wraps a caller-provided *bun.DB and never closes it:
//
//	sqldb, _ := sql.Open(sqliteshim.ShimName, "file:orders.db")
//	db := bun.NewDB(sqldb, sqlitedialect.New())
//	store := sqlite.New(db)
package sqlite
