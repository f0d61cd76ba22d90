package redisx

import "time"

const (
	// Catalog generation counter; bumping it orphans every cached menu key.
	KeyMenuVersion = "menu:version"

	// Full item list: menu:v{version}:items -> JSON []MenuItem
	KeyMenuItems = "menu:v%d:items"

	// One item: menu:v{version}:item:{id} -> JSON MenuItem
	KeyMenuItem = "menu:v%d:item:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLMenuCache = 5 * time.Minute
	TTLDedup     = 48 * time.Hour
)
