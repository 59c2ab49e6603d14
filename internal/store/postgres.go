package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/advisor-cli/internal/db"
	"github.com/sells-group/advisor-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS clients (
	id                     TEXT PRIMARY KEY,
	name                   TEXT NOT NULL DEFAULT '',
	age                    INTEGER NOT NULL CHECK (age > 0),
	annual_income          NUMERIC NOT NULL DEFAULT 0 CHECK (annual_income >= 0),
	risk_tolerance         TEXT NOT NULL DEFAULT '',
	interests              JSONB NOT NULL DEFAULT '[]',
	lifecycle_stage        TEXT NOT NULL DEFAULT '',
	conversion_probability NUMERIC NOT NULL DEFAULT 0 CHECK (conversion_probability BETWEEN 0 AND 100),
	portfolio_value        NUMERIC NOT NULL DEFAULT 0 CHECK (portfolio_value >= 0),
	preferred_contact      TEXT NOT NULL DEFAULT '',
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS investments (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL DEFAULT '',
	type            TEXT NOT NULL DEFAULT '',
	risk_level      TEXT NOT NULL DEFAULT '',
	min_investment  NUMERIC NOT NULL CHECK (min_investment > 0),
	expected_return NUMERIC NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS holdings (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id       TEXT NOT NULL REFERENCES clients(id),
	investment_id   TEXT NOT NULL,
	product_type    TEXT NOT NULL DEFAULT '',
	amount_invested NUMERIC NOT NULL DEFAULT 0,
	current_value   NUMERIC NOT NULL DEFAULT 0,
	performance_pct NUMERIC NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS activities (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id   TEXT NOT NULL REFERENCES clients(id),
	type        TEXT NOT NULL DEFAULT '',
	notes       TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_clients_stage ON clients(lifecycle_stage);
CREATE INDEX IF NOT EXISTS idx_holdings_client_id ON holdings(client_id);
CREATE INDEX IF NOT EXISTS idx_activities_client_occurred ON activities(client_id, occurred_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertClient(ctx context.Context, c model.ClientProfile) error {
	interests, err := marshalInterests(c.Interests)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal interests for client %s", c.ID)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO clients (id, name, age, annual_income, risk_tolerance, interests,
			lifecycle_stage, conversion_probability, portfolio_value, preferred_contact, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			age = EXCLUDED.age,
			annual_income = EXCLUDED.annual_income,
			risk_tolerance = EXCLUDED.risk_tolerance,
			interests = EXCLUDED.interests,
			lifecycle_stage = EXCLUDED.lifecycle_stage,
			conversion_probability = EXCLUDED.conversion_probability,
			portfolio_value = EXCLUDED.portfolio_value,
			preferred_contact = EXCLUDED.preferred_contact,
			updated_at = now()`,
		c.ID, c.Name, c.Age, c.AnnualIncome, string(c.RiskTolerance), interests,
		string(c.LifecycleStage), c.ConversionProbability, c.PortfolioValue, string(c.PreferredContact),
	)
	return eris.Wrapf(err, "postgres: upsert client %s", c.ID)
}

const postgresClientColumns = `id, name, age, annual_income::float8, risk_tolerance, interests,
	lifecycle_stage, conversion_probability::float8, portfolio_value::float8, preferred_contact`

func (s *PostgresStore) GetClient(ctx context.Context, id string) (*model.ClientProfile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresClientColumns+` FROM clients WHERE id = $1`, id)

	c, err := scanPgClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: client %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get client %s", id)
	}
	return c, nil
}

func (s *PostgresStore) ListClients(ctx context.Context, filter ClientFilter) ([]model.ClientProfile, error) {
	query := `SELECT ` + postgresClientColumns + ` FROM clients`
	var args []any

	if filter.Stage != "" {
		args = append(args, string(filter.Stage))
		query += ` WHERE lifecycle_stage = $1`
	}
	query += ` ORDER BY id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		if len(args) == 1 {
			query += ` LIMIT $1`
		} else {
			query += ` LIMIT $2`
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list clients")
	}
	defer rows.Close()

	var clients []model.ClientProfile
	for rows.Next() {
		c, err := scanPgClient(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan client")
		}
		clients = append(clients, *c)
	}
	return clients, eris.Wrap(rows.Err(), "postgres: list clients iterate")
}

func (s *PostgresStore) UpsertInvestment(ctx context.Context, p model.InvestmentProduct) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO investments (id, name, type, risk_level, min_investment, expected_return)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			risk_level = EXCLUDED.risk_level,
			min_investment = EXCLUDED.min_investment,
			expected_return = EXCLUDED.expected_return`,
		p.ID, p.Name, p.Type, string(p.RiskLevel), p.MinInvestment, p.ExpectedReturn,
	)
	return eris.Wrapf(err, "postgres: upsert investment %s", p.ID)
}

func (s *PostgresStore) ListInvestments(ctx context.Context) ([]model.InvestmentProduct, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, type, risk_level, min_investment::float8, expected_return::float8
		FROM investments ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list investments")
	}
	defer rows.Close()

	var products []model.InvestmentProduct
	for rows.Next() {
		var p model.InvestmentProduct
		var risk string
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &risk, &p.MinInvestment, &p.ExpectedReturn); err != nil {
			return nil, eris.Wrap(err, "postgres: scan investment")
		}
		p.RiskLevel = model.RiskLevel(risk)
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "postgres: list investments iterate")
}

func (s *PostgresStore) UpsertHolding(ctx context.Context, h model.PortfolioHolding) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO holdings (id, client_id, investment_id, product_type, amount_invested, current_value, performance_pct)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			client_id = EXCLUDED.client_id,
			investment_id = EXCLUDED.investment_id,
			product_type = EXCLUDED.product_type,
			amount_invested = EXCLUDED.amount_invested,
			current_value = EXCLUDED.current_value,
			performance_pct = EXCLUDED.performance_pct`,
		h.ID, h.ClientID, h.InvestmentID, h.ProductType, h.AmountInvested, h.CurrentValue, h.PerformancePct,
	)
	return eris.Wrapf(err, "postgres: upsert holding for client %s", h.ClientID)
}

func (s *PostgresStore) ListHoldings(ctx context.Context, clientID string) ([]model.PortfolioHolding, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT h.id, h.client_id, h.investment_id, COALESCE(i.type, h.product_type),
		       h.amount_invested::float8, h.current_value::float8, h.performance_pct::float8
		FROM holdings h
		LEFT JOIN investments i ON i.id = h.investment_id
		WHERE h.client_id = $1
		ORDER BY h.id`, clientID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list holdings for client %s", clientID)
	}
	defer rows.Close()

	var holdings []model.PortfolioHolding
	for rows.Next() {
		var h model.PortfolioHolding
		if err := rows.Scan(&h.ID, &h.ClientID, &h.InvestmentID, &h.ProductType,
			&h.AmountInvested, &h.CurrentValue, &h.PerformancePct); err != nil {
			return nil, eris.Wrap(err, "postgres: scan holding")
		}
		holdings = append(holdings, h)
	}
	return holdings, eris.Wrap(rows.Err(), "postgres: list holdings iterate")
}

func (s *PostgresStore) RecordActivity(ctx context.Context, a model.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO activities (id, client_id, type, notes, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			notes = EXCLUDED.notes,
			occurred_at = EXCLUDED.occurred_at`,
		a.ID, a.ClientID, string(a.Type), a.Notes, a.OccurredAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: record activity for client %s", a.ClientID)
}

var (
	clientUpsertColumns = []string{
		"id", "name", "age", "annual_income", "risk_tolerance", "interests",
		"lifecycle_stage", "conversion_probability", "portfolio_value", "preferred_contact", "updated_at",
	}
	activityUpsertColumns = []string{"id", "client_id", "type", "notes", "occurred_at"}
)

// BulkUpsertClients writes clients through a COPY-staged upsert. Duplicate
// IDs in the batch resolve to the last occurrence.
func (s *PostgresStore) BulkUpsertClients(ctx context.Context, clients []model.ClientProfile) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(clients))
	for _, c := range clients {
		interests, err := marshalInterests(c.Interests)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal interests for client %s", c.ID)
		}
		rows = append(rows, []any{
			c.ID, c.Name, c.Age, c.AnnualIncome, string(c.RiskTolerance), interests,
			string(c.LifecycleStage), c.ConversionProbability, c.PortfolioValue, string(c.PreferredContact), now,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "clients",
		Columns:      clientUpsertColumns,
		ConflictKeys: []string{"id"},
	}, rows)
	return n, eris.Wrap(err, "postgres: bulk upsert clients")
}

// BulkUpsertActivities writes activities through a COPY-staged upsert,
// assigning IDs to those without one.
func (s *PostgresStore) BulkUpsertActivities(ctx context.Context, activities []model.Activity) (int64, error) {
	rows := make([][]any, 0, len(activities))
	for _, a := range activities {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		rows = append(rows, []any{a.ID, a.ClientID, string(a.Type), a.Notes, a.OccurredAt.UTC()})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "activities",
		Columns:      activityUpsertColumns,
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"type", "notes", "occurred_at"},
	}, rows)
	return n, eris.Wrap(err, "postgres: bulk upsert activities")
}

func (s *PostgresStore) LastContacts(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT client_id, MAX(occurred_at) FROM activities GROUP BY client_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: last contacts")
	}
	defer rows.Close()

	last := make(map[string]time.Time)
	for rows.Next() {
		var clientID string
		var at time.Time
		if err := rows.Scan(&clientID, &at); err != nil {
			return nil, eris.Wrap(err, "postgres: scan last contact")
		}
		last[clientID] = at.UTC()
	}
	return last, eris.Wrap(rows.Err(), "postgres: last contacts iterate")
}

func scanPgClient(row pgx.Row) (*model.ClientProfile, error) {
	var c model.ClientProfile
	var risk, stage, contact string
	var interests []byte

	err := row.Scan(&c.ID, &c.Name, &c.Age, &c.AnnualIncome, &risk, &interests,
		&stage, &c.ConversionProbability, &c.PortfolioValue, &contact)
	if err != nil {
		return nil, err
	}

	c.RiskTolerance = model.RiskLevel(risk)
	c.LifecycleStage = model.LifecycleStage(stage)
	c.PreferredContact = model.ContactChannel(contact)
	if len(interests) > 0 {
		if err := json.Unmarshal(interests, &c.Interests); err != nil {
			return nil, eris.Wrapf(err, "unmarshal interests for client %s", c.ID)
		}
	}
	return &c, nil
}
