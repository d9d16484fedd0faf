// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"brokerscope/internal/models"
)

// ErrSlugTaken is returned when an insert or update collides with an
// existing unique slug.
var ErrSlugTaken = errors.New("slug already taken")

// BrokerStore handles all broker-related database operations.
type BrokerStore struct {
	db *sql.DB
}

// NewBrokerStore creates a new BrokerStore with the given database connection.
func NewBrokerStore(db *sql.DB) *BrokerStore {
	return &BrokerStore{db: db}
}

const brokerColumns = `id, name, slug, logo_url, min_deposit, trading_fee, regulations,
	asset_classes, country, rating::float8, website_url, leverage, platforms, spread,
	headquarters, founded_year, created_at, updated_at`

// scanBroker scans a row into a Broker struct.
func scanBroker(scanner interface{ Scan(...any) error }) (*models.Broker, error) {
	var b models.Broker
	err := scanner.Scan(
		&b.ID, &b.Name, &b.Slug, &b.LogoURL, &b.MinDeposit, &b.TradingFee, &b.Regulations,
		textArray(&b.AssetClasses), &b.Country, &b.Rating, &b.WebsiteURL, &b.Leverage,
		textArray(&b.Platforms), &b.Spread, &b.Headquarters, &b.FoundedYear,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BrokerStore) queryBrokers(ctx context.Context, op, query string, args ...any) ([]models.Broker, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := []models.Broker{}
	for rows.Next() {
		b, err := scanBroker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan broker: %w", err)
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

// Sortable listing columns. The map doubles as the SQL whitelist.
var brokerSortColumns = map[string]string{
	"rating":      "rating",
	"min_deposit": "min_deposit",
	"trading_fee": "trading_fee",
	"name":        "lower(name)",
	"created_at":  "created_at",
}

// ValidBrokerSort reports whether sort names a sortable column.
func ValidBrokerSort(sort string) bool {
	_, ok := brokerSortColumns[sort]
	return ok
}

// BrokerFilter narrows and orders a broker listing. Zero values mean no
// restriction; an empty Sort orders by rating descending.
type BrokerFilter struct {
	Query    string // matched against name, regulations and country
	Category string // broker category slug
	Country  string
	Asset    string
	Sort     string
	Desc     bool
	Limit    int
	Offset   int
}

// where builds the WHERE clause and arguments shared by List and Count.
func (f BrokerFilter) where() (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg("%" + escapeLike(q) + "%")
		conds = append(conds, fmt.Sprintf("(name ILIKE %[1]s OR regulations ILIKE %[1]s OR country ILIKE %[1]s)", p))
	}
	if f.Category != "" {
		conds = append(conds, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM broker_categories bc JOIN categories c ON c.id = bc.category_id
			WHERE bc.broker_id = brokers.id AND c.slug = %s)`, arg(f.Category)))
	}
	if f.Country != "" {
		conds = append(conds, fmt.Sprintf("lower(country) = lower(%s)", arg(f.Country)))
	}
	if f.Asset != "" {
		conds = append(conds, fmt.Sprintf("%s = ANY(asset_classes)", arg(strings.ToLower(f.Asset))))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns brokers matching f.
func (s *BrokerStore) List(ctx context.Context, f BrokerFilter) ([]models.Broker, error) {
	where, args := f.where()

	col, ok := brokerSortColumns[f.Sort]
	dir := "ASC"
	if !ok {
		col, f.Desc = "rating", true
	}
	if f.Desc {
		dir = "DESC"
	}
	order := fmt.Sprintf(" ORDER BY %s %s NULLS LAST, created_at, id", col, dir)

	query := `SELECT ` + brokerColumns + ` FROM brokers` + where + order
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	return s.queryBrokers(ctx, "list brokers", query, args...)
}

// Count returns the number of brokers matching f, ignoring paging.
func (s *BrokerStore) Count(ctx context.Context, f BrokerFilter) (int, error) {
	where, args := f.where()
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM brokers`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count brokers: %w", err)
	}
	return n, nil
}

// ListAll returns every broker in creation order. Used by maintenance runs.
func (s *BrokerStore) ListAll(ctx context.Context) ([]models.Broker, error) {
	return s.queryBrokers(ctx, "list all brokers",
		`SELECT `+brokerColumns+` FROM brokers ORDER BY created_at, id`)
}

// ListForQuiz returns the quiz candidates: brokers whose minimum deposit
// does not exceed maxDeposit (nil means unbounded) and that support at
// least one of assets (empty means any). Results are ordered by rating.
func (s *BrokerStore) ListForQuiz(ctx context.Context, maxDeposit *decimal.Decimal, assets []string) ([]models.Broker, error) {
	var conds []string
	var args []any
	if maxDeposit != nil {
		args = append(args, *maxDeposit)
		conds = append(conds, fmt.Sprintf("min_deposit <= $%d", len(args)))
	}
	if len(assets) > 0 {
		lowered := make([]string, len(assets))
		for i, a := range assets {
			lowered[i] = strings.ToLower(strings.TrimSpace(a))
		}
		args = append(args, lowered)
		conds = append(conds, fmt.Sprintf("asset_classes && $%d::text[]", len(args)))
	}

	query := `SELECT ` + brokerColumns + ` FROM brokers`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY rating DESC NULLS LAST, created_at, id"
	return s.queryBrokers(ctx, "list quiz brokers", query, args...)
}

// ListByNormalizedName returns brokers whose name equals one of names
// under models.NormalizeName. Matching happens in Go so that tabs and other
// Unicode whitespace are trimmed exactly as duplicate detection trims them.
func (s *BrokerStore) ListByNormalizedName(ctx context.Context, names []string) ([]models.Broker, error) {
	keys := make(map[string]bool, len(names))
	for _, n := range names {
		if k := models.NormalizeName(n); k != "" {
			keys[k] = true
		}
	}
	if len(keys) == 0 {
		return []models.Broker{}, nil
	}
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brokers by name: %w", err)
	}
	items := []models.Broker{}
	for _, b := range all {
		if keys[models.NormalizeName(b.Name)] {
			items = append(items, b)
		}
	}
	return items, nil
}

// FindBySlug retrieves a broker by its slug. Returns nil if not found.
func (s *BrokerStore) FindBySlug(ctx context.Context, slug string) (*models.Broker, error) {
	b, err := scanBroker(s.db.QueryRowContext(ctx,
		`SELECT `+brokerColumns+` FROM brokers WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find broker by slug: %w", err)
	}
	return b, nil
}

// FindByID retrieves a broker by its UUID. Returns nil if not found.
func (s *BrokerStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Broker, error) {
	b, err := scanBroker(s.db.QueryRowContext(ctx,
		`SELECT `+brokerColumns+` FROM brokers WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find broker by id: %w", err)
	}
	return b, nil
}

// Exists reports whether a broker with the given id exists.
func (s *BrokerStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM brokers WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("check broker exists: %w", err)
	}
	return ok, nil
}

// SlugTaken reports whether slug is already used by a broker.
func (s *BrokerStore) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var ok bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM brokers WHERE slug = $1)`, slug).Scan(&ok); err != nil {
		return false, fmt.Errorf("check broker slug: %w", err)
	}
	return ok, nil
}

// Create inserts a new broker and returns it with the generated ID.
// Returns ErrSlugTaken if the slug is already used.
func (s *BrokerStore) Create(ctx context.Context, b *models.Broker) (*models.Broker, error) {
	result, err := scanBroker(s.db.QueryRowContext(ctx, `
		INSERT INTO brokers (name, slug, logo_url, min_deposit, trading_fee, regulations,
			asset_classes, country, rating, website_url, leverage, platforms, spread,
			headquarters, founded_year)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+brokerColumns,
		b.Name, b.Slug, b.LogoURL, b.MinDeposit, b.TradingFee, b.Regulations,
		nonNilStrings(b.AssetClasses), b.Country, b.Rating, b.WebsiteURL, b.Leverage,
		nonNilStrings(b.Platforms), b.Spread, b.Headquarters, b.FoundedYear,
	))
	if isUniqueViolation(err) {
		return nil, ErrSlugTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create broker: %w", err)
	}
	return result, nil
}

// Update writes every mutable field of b to the row identified by slug and
// returns the stored result. Returns nil if no broker has that slug.
func (s *BrokerStore) Update(ctx context.Context, slug string, b *models.Broker) (*models.Broker, error) {
	result, err := scanBroker(s.db.QueryRowContext(ctx, `
		UPDATE brokers SET
			name = $2, logo_url = $3, min_deposit = $4, trading_fee = $5, regulations = $6,
			asset_classes = $7, country = $8, rating = $9, website_url = $10, leverage = $11,
			platforms = $12, spread = $13, headquarters = $14, founded_year = $15,
			updated_at = now()
		WHERE slug = $1
		RETURNING `+brokerColumns,
		slug, b.Name, b.LogoURL, b.MinDeposit, b.TradingFee, b.Regulations,
		nonNilStrings(b.AssetClasses), b.Country, b.Rating, b.WebsiteURL, b.Leverage,
		nonNilStrings(b.Platforms), b.Spread, b.Headquarters, b.FoundedYear,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update broker: %w", err)
	}
	return result, nil
}

// SetLogo replaces the logo URL of the broker with the given slug. Returns
// false if no broker has that slug.
func (s *BrokerStore) SetLogo(ctx context.Context, slug, logoURL string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE brokers SET logo_url = $2, updated_at = now() WHERE slug = $1`, slug, logoURL)
	if err != nil {
		return false, fmt.Errorf("set broker logo: %w", err)
	}
	return affected(res)
}

// Delete removes a broker by ID. Its reviews and category links cascade.
// Returns false if the broker did not exist.
func (s *BrokerStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM brokers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete broker: %w", err)
	}
	return affected(res)
}

// DeleteBySlug removes a broker by slug. Returns false if it did not exist.
func (s *BrokerStore) DeleteBySlug(ctx context.Context, slug string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM brokers WHERE slug = $1`, slug)
	if err != nil {
		return false, fmt.Errorf("delete broker by slug: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// escapeLike escapes the LIKE wildcards in s.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
