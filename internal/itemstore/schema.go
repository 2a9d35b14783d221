package itemstore

// schemaName is the name the item-store database is attached under.
const schemaName = "mine"

var dropStatements = []string{
	`DROP TABLE IF EXISTS mine.items`,
	`DROP TABLE IF EXISTS mine.item_links`,
	`DROP TABLE IF EXISTS mine.note_links`,
	`DROP TABLE IF EXISTS mine.review_snapshots`,
}

var createStatements = []string{
	`CREATE TABLE mine.items (
		hash TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		text TEXT NOT NULL,
		pronunciation TEXT NOT NULL DEFAULT '',
		meaning TEXT NOT NULL DEFAULT '',
		tier INTEGER NOT NULL DEFAULT 0,
		max_correct INTEGER NOT NULL DEFAULT 0,
		num_known INTEGER NOT NULL DEFAULT 0,
		num_memorizing INTEGER NOT NULL DEFAULT 0,
		num_learning INTEGER NOT NULL DEFAULT 0,
		num_unknown INTEGER NOT NULL DEFAULT 0,
		num_links INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE mine.item_links (
		from_hash TEXT NOT NULL,
		to_hash TEXT NOT NULL,
		start_offset INTEGER NOT NULL,
		end_offset INTEGER NOT NULL,
		PRIMARY KEY (from_hash, to_hash)
	)`,
	`CREATE INDEX mine.item_links_to ON item_links (to_hash)`,
	`CREATE TABLE mine.note_links (
		hash TEXT NOT NULL,
		note_id INTEGER NOT NULL,
		PRIMARY KEY (hash, note_id)
	)`,
	`CREATE INDEX mine.note_links_note ON note_links (note_id)`,
	`CREATE TABLE mine.review_snapshots (
		card_id INTEGER PRIMARY KEY,
		note_id INTEGER NOT NULL,
		reps INTEGER NOT NULL,
		lapses INTEGER NOT NULL,
		marking TEXT NOT NULL DEFAULT ''
	)`,
}

// ensureStatements create the schema on first use without touching
// existing data, so read paths work against a store that was never
// initialized in this process.
var ensureStatements = []string{
	`CREATE TABLE IF NOT EXISTS mine.items (
		hash TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		text TEXT NOT NULL,
		pronunciation TEXT NOT NULL DEFAULT '',
		meaning TEXT NOT NULL DEFAULT '',
		tier INTEGER NOT NULL DEFAULT 0,
		max_correct INTEGER NOT NULL DEFAULT 0,
		num_known INTEGER NOT NULL DEFAULT 0,
		num_memorizing INTEGER NOT NULL DEFAULT 0,
		num_learning INTEGER NOT NULL DEFAULT 0,
		num_unknown INTEGER NOT NULL DEFAULT 0,
		num_links INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS mine.item_links (
		from_hash TEXT NOT NULL,
		to_hash TEXT NOT NULL,
		start_offset INTEGER NOT NULL,
		end_offset INTEGER NOT NULL,
		PRIMARY KEY (from_hash, to_hash)
	)`,
	`CREATE INDEX IF NOT EXISTS mine.item_links_to ON item_links (to_hash)`,
	`CREATE TABLE IF NOT EXISTS mine.note_links (
		hash TEXT NOT NULL,
		note_id INTEGER NOT NULL,
		PRIMARY KEY (hash, note_id)
	)`,
	`CREATE INDEX IF NOT EXISTS mine.note_links_note ON note_links (note_id)`,
	`CREATE TABLE IF NOT EXISTS mine.review_snapshots (
		card_id INTEGER PRIMARY KEY,
		note_id INTEGER NOT NULL,
		reps INTEGER NOT NULL,
		lapses INTEGER NOT NULL,
		marking TEXT NOT NULL DEFAULT ''
	)`,
}
