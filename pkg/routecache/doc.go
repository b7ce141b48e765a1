// Package routecache persists compiled route matches so repeated requests
// can skip route matching.
//
// The engine stores a serialized dispatch snapshot per method and path. SQLite
// keeps snapshots on local disk across restarts. Postgres shares them between
// instances and migrates its table with goose on open. Tiered fronts any Store
// with an in-process cache.
//
//	db, err := routecache.OpenSQLite(ctx, "var/routes.db")
//	if err != nil {
//	    return err
//	}
//	store := routecache.NewTiered(cache.NewMemory[[]byte](cache.WithMaxEntries(10_000)), db, 10*time.Minute)
//	engine := routeforge.NewEngine(routeforge.WithRouteCache(store))
package routecache
