package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"video-toolbox/domain/asset"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("video-toolbox/sqlstore")

// Store implements asset.Store on a relational database
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// Open connects to the database and verifies the connection
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// one writer at a time; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, dialect: d, now: time.Now}, nil
}

// Migrate creates the tables if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateAsset implements asset.Store
func (s *Store) CreateAsset(ctx context.Context, a *asset.Asset) error {
	ctx, span := tracer.Start(ctx, "sqlstore.create_asset",
		trace.WithAttributes(
			attribute.String("owner_id", a.OwnerID),
			attribute.Int64("size", a.Size),
		),
	)
	defer span.End()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO assets (owner_id, file_path, size, duration, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.OwnerID, a.Path, a.Size, a.Duration, a.CreatedAt.UnixNano(),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert asset: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to read asset id: %w", err)
	}
	a.ID = id

	span.SetAttributes(attribute.Int64("asset_id", id))
	return nil
}

// GetAsset implements asset.Store
func (s *Store) GetAsset(ctx context.Context, id int64) (*asset.Asset, error) {
	ctx, span := tracer.Start(ctx, "sqlstore.get_asset",
		trace.WithAttributes(attribute.Int64("asset_id", id)),
	)
	defer span.End()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, file_path, size, duration, created_at FROM assets WHERE id = ?`, id)

	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, fmt.Errorf("asset %d: %w", id, asset.ErrNotFound)
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query asset: %w", err)
	}

	span.SetAttributes(attribute.Bool("found", true))
	return a, nil
}

// FindAssets implements asset.Store
func (s *Store) FindAssets(ctx context.Context, ids []int64) ([]*asset.Asset, error) {
	ctx, span := tracer.Start(ctx, "sqlstore.find_assets",
		trace.WithAttributes(attribute.Int("requested", len(ids))),
	)
	defer span.End()

	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(unique)), ",")
	args := make([]any, len(unique))
	for i, id := range unique {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, file_path, size, duration, created_at FROM assets WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*asset.Asset, len(unique))
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		byID[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read assets: %w", err)
	}

	found := make([]*asset.Asset, 0, len(byID))
	for _, id := range unique {
		if a, ok := byID[id]; ok {
			found = append(found, a)
		}
	}

	span.SetAttributes(attribute.Int("found", len(found)))
	return found, nil
}

// CreateShareLink implements asset.Store
func (s *Store) CreateShareLink(ctx context.Context, l *asset.ShareLink) error {
	ctx, span := tracer.Start(ctx, "sqlstore.create_share_link",
		trace.WithAttributes(attribute.Int64("asset_id", l.AssetID)),
	)
	defer span.End()

	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO share_links (token, asset_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		l.Token, l.AssetID, l.ExpiresAt.UnixNano(), l.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			span.SetAttributes(attribute.Bool("collision", true))
			return fmt.Errorf("%w: %v", asset.ErrTokenCollision, err)
		}
		span.RecordError(err)
		return fmt.Errorf("failed to insert share link: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to read share link id: %w", err)
	}
	l.ID = id

	return nil
}

// GetShareLink implements asset.Store
func (s *Store) GetShareLink(ctx context.Context, token string) (*asset.ShareLink, error) {
	ctx, span := tracer.Start(ctx, "sqlstore.get_share_link")
	defer span.End()

	var (
		l                  asset.ShareLink
		expires, createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, token, asset_id, expires_at, created_at FROM share_links WHERE token = ?`, token,
	).Scan(&l.ID, &l.Token, &l.AssetID, &expires, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, fmt.Errorf("share link: %w", asset.ErrNotFound)
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query share link: %w", err)
	}

	l.ExpiresAt = time.Unix(0, expires)
	l.CreatedAt = time.Unix(0, createdAt)

	span.SetAttributes(attribute.Bool("found", true))
	return &l, nil
}

// ShareTokenExists implements asset.Store
func (s *Store) ShareTokenExists(ctx context.Context, token string) (bool, error) {
	ctx, span := tracer.Start(ctx, "sqlstore.share_token_exists")
	defer span.End()

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM share_links WHERE token = ?`, token).Scan(&n)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check share token: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (*asset.Asset, error) {
	var (
		a         asset.Asset
		createdAt int64
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Path, &a.Size, &a.Duration, &createdAt); err != nil {
		return nil, err
	}
	a.CreatedAt = time.Unix(0, createdAt)
	return &a, nil
}

// Ensure Store implements asset.Store
var _ asset.Store = (*Store)(nil)
