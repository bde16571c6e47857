package db

// SQLite migrations, used for local runs and tests

var sqliteMigrations = []Migration{
	{
		Version: 1,
		Name:    "create_pages_table",
		Up: `
			CREATE TABLE IF NOT EXISTS interlinker_pages (
				slug TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				primary_keyword TEXT NOT NULL DEFAULT '',
				secondary_keywords TEXT NOT NULL DEFAULT '[]',
				category TEXT NOT NULL DEFAULT '',
				topics TEXT NOT NULL DEFAULT '[]',
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_interlinker_pages_category ON interlinker_pages(category);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_interlinker_pages_category;
			DROP TABLE IF EXISTS interlinker_pages;
		`,
	},
	{
		Version: 2,
		Name:    "create_runs_table",
		Up: `
			CREATE TABLE IF NOT EXISTS interlinker_runs (
				id TEXT PRIMARY KEY,
				document_slug TEXT NOT NULL,
				base_url TEXT NOT NULL DEFAULT '',
				links_injected INTEGER NOT NULL DEFAULT 0,
				distribution TEXT NOT NULL DEFAULT '{}',
				content_path TEXT NOT NULL DEFAULT '',
				processing_time REAL NOT NULL DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_interlinker_runs_created_at ON interlinker_runs(created_at);
			CREATE INDEX IF NOT EXISTS idx_interlinker_runs_document_slug ON interlinker_runs(document_slug);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_interlinker_runs_document_slug;
			DROP INDEX IF EXISTS idx_interlinker_runs_created_at;
			DROP TABLE IF EXISTS interlinker_runs;
		`,
	},
	{
		Version: 3,
		Name:    "create_injections_table",
		Up: `
			CREATE TABLE IF NOT EXISTS interlinker_injections (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id TEXT NOT NULL REFERENCES interlinker_runs(id) ON DELETE CASCADE,
				seq INTEGER NOT NULL,
				success BOOLEAN NOT NULL,
				anchor_text TEXT NOT NULL,
				normalized_anchor TEXT NOT NULL,
				target_url TEXT NOT NULL,
				target_slug TEXT NOT NULL,
				zone TEXT NOT NULL,
				element_index INTEGER NOT NULL,
				word_offset INTEGER NOT NULL,
				document_word_offset INTEGER NOT NULL,
				quality REAL NOT NULL,
				semantic REAL NOT NULL,
				naturalness REAL NOT NULL,
				seo REAL NOT NULL,
				context REAL NOT NULL,
				heading_overlap REAL NOT NULL,
				justification TEXT NOT NULL DEFAULT '',
				reason TEXT NOT NULL DEFAULT ''
			);
			CREATE INDEX IF NOT EXISTS idx_interlinker_injections_run_id ON interlinker_injections(run_id);
			CREATE INDEX IF NOT EXISTS idx_interlinker_injections_target_slug ON interlinker_injections(target_slug);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_interlinker_injections_target_slug;
			DROP INDEX IF EXISTS idx_interlinker_injections_run_id;
			DROP TABLE IF EXISTS interlinker_injections;
		`,
	},
}
