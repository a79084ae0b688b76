package mysql

// Whole-record replace: the last writer wins.
const upsertTripSQL = `
INSERT INTO trips (name, free_text, stops, pack, saved_at)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  free_text = VALUES(free_text),
  stops     = VALUES(stops),
  pack      = VALUES(pack),
  saved_at  = VALUES(saved_at)
`

const getTripSQL = `
SELECT free_text, stops, pack, saved_at
FROM trips
WHERE name = ?
`

const listTripsSQL = `SELECT name FROM trips ORDER BY name`

const lastTripKey = "last_trip"

const getMetaSQL = `SELECT v FROM trip_meta WHERE k = ?`

const upsertMetaSQL = `
INSERT INTO trip_meta (k, v) VALUES (?, ?)
ON DUPLICATE KEY UPDATE v = VALUES(v)
`

// -----------------------------------------------------------------------------
// COORDINATE CACHE
// -----------------------------------------------------------------------------

// INSERT IGNORE keeps the first resolution for a key.
const insertCoordSQL = `
INSERT IGNORE INTO coord_cache (cache_key, name, country, admin1, lat, lon, stored_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const getCoordSQL = `
SELECT name, country, admin1, lat, lon, stored_at
FROM coord_cache
WHERE cache_key = ?
`

const deleteCoordSQL = `DELETE FROM coord_cache WHERE cache_key = ?`
