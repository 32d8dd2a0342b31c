package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kb-admin-client/internal/config"
	"kb-admin-client/internal/models"
	"kb-admin-client/internal/schema"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLRepository keeps the mirror in PostgreSQL or SQLite. Both dialects use
// the same $n placeholders and ON CONFLICT upserts.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New opens the configured mirror database and applies its schema.
func New(ctx context.Context, cfg *config.MirrorConfig) (*SQLRepository, error) {
	if cfg.Driver != DriverPostgres && cfg.Driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported mirror driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps an in-memory SQLite database alive and
	// serializes writers.
	if cfg.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := NewSQLRepository(db, cfg.Driver)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func NewSQLRepository(db *sql.DB, driver string) *SQLRepository {
	return &SQLRepository{db: db, driver: driver}
}

// EnsureSchema creates the mirror tables when they are missing.
func (r *SQLRepository) EnsureSchema(ctx context.Context) error {
	ddl, err := migrations.ReadFile("migrations/" + r.driver + ".sql")
	if err != nil {
		return fmt.Errorf("failed to read schema for %s: %w", r.driver, err)
	}

	for _, stmt := range strings.Split(string(ddl), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

type DocumentRow struct {
	ID             int
	Name           string
	Hash           string
	Content        string
	Meta           sql.NullString
	MimeType       string
	SourceURI      string
	IndexStatus    string
	IndexResult    sql.NullString
	DataSourceID   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastModifiedAt time.Time
}

const documentColumns = `id, name, hash, content, meta, mime_type, source_uri, index_status,
	index_result, data_source_id, created_at, updated_at, last_modified_at`

func (r *SQLRepository) UpsertDocument(ctx context.Context, doc *models.Document, generation int64) error {
	query := `
		INSERT INTO mirror_documents (` + documentColumns + `, sync_generation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			hash = excluded.hash,
			content = excluded.content,
			meta = excluded.meta,
			mime_type = excluded.mime_type,
			source_uri = excluded.source_uri,
			index_status = excluded.index_status,
			index_result = excluded.index_result,
			data_source_id = excluded.data_source_id,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			last_modified_at = excluded.last_modified_at,
			sync_generation = excluded.sync_generation
	`

	meta, err := nullJSON(doc.Meta)
	if err != nil {
		return fmt.Errorf("failed to encode meta of document %d: %w", doc.ID, err)
	}

	_, err = r.db.ExecContext(ctx, query,
		doc.ID, doc.Name, doc.Hash, doc.Content, meta,
		doc.MimeType, doc.SourceURI, doc.IndexStatus, nullRaw(doc.IndexResult), doc.DataSourceID,
		doc.CreatedAt.UTC(), doc.UpdatedAt.UTC(), doc.LastModifiedAt.UTC(), generation,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document %d: %w", doc.ID, err)
	}
	return nil
}

func (r *SQLRepository) GetDocument(ctx context.Context, id int) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM mirror_documents WHERE id = $1`

	var row DocumentRow
	err := r.db.QueryRowContext(ctx, query, id).Scan(scanDocument(&row)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return rowToDocument(&row)
}

func (r *SQLRepository) ListDocuments(ctx context.Context, limit, offset int, statusFilter string) ([]*models.Document, int, error) {
	query := `SELECT ` + documentColumns + ` FROM mirror_documents`

	var args []interface{}
	var where string

	if statusFilter != "" {
		args = append(args, statusFilter)
		where = fmt.Sprintf(" WHERE index_status = $%d", len(args))
	}

	query += where + fmt.Sprintf(" ORDER BY updated_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		var row DocumentRow
		if err := rows.Scan(scanDocument(&row)...); err != nil {
			return nil, 0, err
		}
		doc, err := rowToDocument(&row)
		if err != nil {
			return nil, 0, err
		}
		documents = append(documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM mirror_documents"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return documents, total, nil
}

func (r *SQLRepository) DeleteDocument(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM mirror_documents WHERE id = $1", id)
	return err
}

func (r *SQLRepository) PruneDocuments(ctx context.Context, generation int64) (int, error) {
	return r.prune(ctx, "mirror_documents", generation)
}

func (r *SQLRepository) UpsertDatasource(ctx context.Context, ds *models.Datasource, generation int64) error {
	if ds.Config == nil {
		return fmt.Errorf("datasource %d has no config", ds.ID)
	}
	rawConfig, err := json.Marshal(ds.Config)
	if err != nil {
		return fmt.Errorf("failed to encode config of datasource %d: %w", ds.ID, err)
	}

	query := `
		INSERT INTO mirror_datasources (id, name, description, user_id, build_kg_index, llm_id,
			data_source_type, config, created_at, updated_at, sync_generation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			user_id = excluded.user_id,
			build_kg_index = excluded.build_kg_index,
			llm_id = excluded.llm_id,
			data_source_type = excluded.data_source_type,
			config = excluded.config,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			sync_generation = excluded.sync_generation
	`

	_, err = r.db.ExecContext(ctx, query,
		ds.ID, ds.Name, ds.Description, ds.UserID, ds.BuildKGIndex, ds.LLMID,
		string(ds.Type()), string(rawConfig), ds.CreatedAt.UTC(), ds.UpdatedAt.UTC(), generation,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert datasource %d: %w", ds.ID, err)
	}
	return nil
}

func (r *SQLRepository) ListDatasources(ctx context.Context) ([]*models.Datasource, error) {
	query := `
		SELECT id, name, description, user_id, build_kg_index, llm_id, data_source_type, config,
			created_at, updated_at
		FROM mirror_datasources
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var datasources []*models.Datasource
	for rows.Next() {
		var (
			ds        models.Datasource
			llmID     sql.NullInt64
			dsType    string
			rawConfig string
		)
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.Description, &ds.UserID, &ds.BuildKGIndex,
			&llmID, &dsType, &rawConfig, &ds.CreatedAt, &ds.UpdatedAt); err != nil {
			return nil, err
		}
		if llmID.Valid {
			id := int(llmID.Int64)
			ds.LLMID = &id
		}
		ds.Config, err = schema.DatasourceConfig(models.DatasourceType(dsType), []byte(rawConfig))
		if err != nil {
			return nil, fmt.Errorf("stored config of datasource %d: %w", ds.ID, err)
		}
		ds.CreatedAt = ds.CreatedAt.UTC()
		ds.UpdatedAt = ds.UpdatedAt.UTC()
		datasources = append(datasources, &ds)
	}
	return datasources, rows.Err()
}

func (r *SQLRepository) PruneDatasources(ctx context.Context, generation int64) (int, error) {
	return r.prune(ctx, "mirror_datasources", generation)
}

func (r *SQLRepository) prune(ctx context.Context, table string, generation int64) (int, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE sync_generation < $1", generation)
	if err != nil {
		return 0, fmt.Errorf("failed to prune %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func scanDocument(row *DocumentRow) []interface{} {
	return []interface{}{
		&row.ID, &row.Name, &row.Hash, &row.Content, &row.Meta,
		&row.MimeType, &row.SourceURI, &row.IndexStatus, &row.IndexResult, &row.DataSourceID,
		&row.CreatedAt, &row.UpdatedAt, &row.LastModifiedAt,
	}
}

func rowToDocument(row *DocumentRow) (*models.Document, error) {
	doc := &models.Document{
		ID:             row.ID,
		Name:           row.Name,
		Hash:           row.Hash,
		Content:        row.Content,
		MimeType:       row.MimeType,
		SourceURI:      row.SourceURI,
		IndexStatus:    row.IndexStatus,
		DataSourceID:   row.DataSourceID,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
		LastModifiedAt: row.LastModifiedAt.UTC(),
	}

	if row.Meta.Valid {
		if err := json.Unmarshal([]byte(row.Meta.String), &doc.Meta); err != nil {
			return nil, fmt.Errorf("stored meta of document %d: %w", row.ID, err)
		}
	}
	if row.IndexResult.Valid {
		doc.IndexResult = json.RawMessage(row.IndexResult.String)
	}

	return doc, nil
}

func nullJSON(v map[string]any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func nullRaw(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}
