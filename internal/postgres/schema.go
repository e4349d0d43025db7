package postgres

import (
	"context"

	"signstore/internal/repository"
)

// Tables lists the managed tables in dependency order.
var Tables = []string{"projects", "text_sources", "summaries", "translations", "videos", "links"}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS projects (
    id SERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL UNIQUE,
    description TEXT,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    metadata JSONB DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS text_sources (
    id SERIAL PRIMARY KEY,
    project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    title VARCHAR(255) NOT NULL,
    content TEXT NOT NULL,
    source_type VARCHAR(50) DEFAULT 'text',
    source_url VARCHAR(500),
    created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    metadata JSONB DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS summaries (
    id SERIAL PRIMARY KEY,
    text_source_id INTEGER NOT NULL REFERENCES text_sources(id) ON DELETE CASCADE,
    title VARCHAR(255),
    content TEXT NOT NULL,
    summary_type VARCHAR(50) DEFAULT 'general',
    created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    metadata JSONB DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS translations (
    id SERIAL PRIMARY KEY,
    text_source_id INTEGER NOT NULL REFERENCES text_sources(id) ON DELETE CASCADE,
    language_code VARCHAR(10) NOT NULL,
    title VARCHAR(255),
    tokens JSONB NOT NULL,
    original_text TEXT,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    metadata JSONB DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS videos (
    id SERIAL PRIMARY KEY,
    text_source_id INTEGER NOT NULL REFERENCES text_sources(id) ON DELETE CASCADE,
    title VARCHAR(255),
    file_path VARCHAR(500) NOT NULL,
    file_url VARCHAR(500),
    file_size BIGINT,
    duration INTEGER,
    format VARCHAR(20),
    thumbnail_path VARCHAR(500),
    created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    metadata JSONB DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS links (
    id SERIAL PRIMARY KEY,
    text_source_id INTEGER NOT NULL REFERENCES text_sources(id) ON DELETE CASCADE,
    url VARCHAR(500) NOT NULL,
    title VARCHAR(255),
    description TEXT,
    link_type VARCHAR(50) DEFAULT 'reference',
    is_active BOOLEAN DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    metadata JSONB DEFAULT '{}'
);
`

const createIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_projects_name ON projects(name);
CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at);

CREATE INDEX IF NOT EXISTS idx_text_sources_project_id ON text_sources(project_id);
CREATE INDEX IF NOT EXISTS idx_text_sources_title ON text_sources(title);
CREATE INDEX IF NOT EXISTS idx_text_sources_source_type ON text_sources(source_type);

CREATE INDEX IF NOT EXISTS idx_summaries_text_source_id ON summaries(text_source_id);
CREATE INDEX IF NOT EXISTS idx_summaries_summary_type ON summaries(summary_type);

CREATE INDEX IF NOT EXISTS idx_translations_text_source_id ON translations(text_source_id);
CREATE INDEX IF NOT EXISTS idx_translations_language_code ON translations(language_code);

CREATE INDEX IF NOT EXISTS idx_videos_text_source_id ON videos(text_source_id);
CREATE INDEX IF NOT EXISTS idx_videos_format ON videos(format);

CREATE INDEX IF NOT EXISTS idx_links_text_source_id ON links(text_source_id);
CREATE INDEX IF NOT EXISTS idx_links_link_type ON links(link_type);
CREATE INDEX IF NOT EXISTS idx_links_is_active ON links(is_active);
`

const createTriggersSQL = `
CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = CURRENT_TIMESTAMP;
    RETURN NEW;
END;
$$ language 'plpgsql';

DROP TRIGGER IF EXISTS update_projects_updated_at ON projects;
CREATE TRIGGER update_projects_updated_at
    BEFORE UPDATE ON projects
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();

DROP TRIGGER IF EXISTS update_text_sources_updated_at ON text_sources;
CREATE TRIGGER update_text_sources_updated_at
    BEFORE UPDATE ON text_sources
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();

DROP TRIGGER IF EXISTS update_summaries_updated_at ON summaries;
CREATE TRIGGER update_summaries_updated_at
    BEFORE UPDATE ON summaries
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();

DROP TRIGGER IF EXISTS update_translations_updated_at ON translations;
CREATE TRIGGER update_translations_updated_at
    BEFORE UPDATE ON translations
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();

DROP TRIGGER IF EXISTS update_videos_updated_at ON videos;
CREATE TRIGGER update_videos_updated_at
    BEFORE UPDATE ON videos
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();

DROP TRIGGER IF EXISTS update_links_updated_at ON links;
CREATE TRIGGER update_links_updated_at
    BEFORE UPDATE ON links
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const dropSchemaSQL = `
DROP TABLE IF EXISTS links CASCADE;
DROP TABLE IF EXISTS videos CASCADE;
DROP TABLE IF EXISTS translations CASCADE;
DROP TABLE IF EXISTS summaries CASCADE;
DROP TABLE IF EXISTS text_sources CASCADE;
DROP TABLE IF EXISTS projects CASCADE;
DROP FUNCTION IF EXISTS update_updated_at_column() CASCADE;
`

// EnsureSchema creates the tables, indexes, and updated_at triggers.
// Every statement is idempotent, so running it against an existing
// schema is safe.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createTablesSQL, createIndexesSQL, createTriggersSQL} {
		if _, err := s.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	s.log.Infow("schema ensured", "tables", len(Tables))
	return nil
}

// DropSchema removes all managed tables and the trigger function.
func (s *Store) DropSchema(ctx context.Context) error {
	if _, err := s.Exec(ctx, dropSchemaSQL); err != nil {
		return err
	}
	s.log.Infow("schema dropped")
	return nil
}

// SchemaStatus reports which managed tables currently exist.
func (s *Store) SchemaStatus(ctx context.Context) (map[string]bool, error) {
	if s.closed.Load() {
		return nil, &repository.ConnectionError{Op: "schema status"}
	}
	status := make(map[string]bool, len(Tables))
	for _, table := range Tables {
		var exists bool
		err := s.pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)`, table).Scan(&exists)
		if err != nil {
			return nil, wrapError("schema status", err)
		}
		status[table] = exists
	}
	return status, nil
}
