package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/advisor-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// sqlitePragmas are applied by the driver to every pooled connection.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
}

// sqliteDSN appends the connection pragmas to path, keeping any query
// parameters the caller already set.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(path)
	for _, p := range sqlitePragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// NewSQLite opens a SQLite database at the given path in WAL mode with
// foreign keys enforced on every connection.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", sqliteDSN(dsn))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if err := db.Ping(); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "sqlite: ping")
	}
	return &SQLiteStore{db: db}, nil
}

// Activity timestamps are stored as unix milliseconds so MAX() orders them
// chronologically.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS clients (
	id                     TEXT PRIMARY KEY,
	name                   TEXT NOT NULL DEFAULT '',
	age                    INTEGER NOT NULL,
	annual_income          REAL NOT NULL DEFAULT 0,
	risk_tolerance         TEXT NOT NULL DEFAULT '',
	interests              TEXT NOT NULL DEFAULT '[]',
	lifecycle_stage        TEXT NOT NULL DEFAULT '',
	conversion_probability REAL NOT NULL DEFAULT 0,
	portfolio_value        REAL NOT NULL DEFAULT 0,
	preferred_contact      TEXT NOT NULL DEFAULT '',
	updated_at             DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS investments (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL DEFAULT '',
	type            TEXT NOT NULL DEFAULT '',
	risk_level      TEXT NOT NULL DEFAULT '',
	min_investment  REAL NOT NULL,
	expected_return REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS holdings (
	id              TEXT PRIMARY KEY,
	client_id       TEXT NOT NULL REFERENCES clients(id),
	investment_id   TEXT NOT NULL,
	product_type    TEXT NOT NULL DEFAULT '',
	amount_invested REAL NOT NULL DEFAULT 0,
	current_value   REAL NOT NULL DEFAULT 0,
	performance_pct REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS activities (
	id          TEXT PRIMARY KEY,
	client_id   TEXT NOT NULL REFERENCES clients(id),
	type        TEXT NOT NULL DEFAULT '',
	notes       TEXT NOT NULL DEFAULT '',
	occurred_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_clients_stage ON clients(lifecycle_stage);
CREATE INDEX IF NOT EXISTS idx_holdings_client_id ON holdings(client_id);
CREATE INDEX IF NOT EXISTS idx_activities_client_occurred ON activities(client_id, occurred_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertClient(ctx context.Context, c model.ClientProfile) error {
	interests, err := marshalInterests(c.Interests)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal interests for client %s", c.ID)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, age, annual_income, risk_tolerance, interests,
			lifecycle_stage, conversion_probability, portfolio_value, preferred_contact, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			age = excluded.age,
			annual_income = excluded.annual_income,
			risk_tolerance = excluded.risk_tolerance,
			interests = excluded.interests,
			lifecycle_stage = excluded.lifecycle_stage,
			conversion_probability = excluded.conversion_probability,
			portfolio_value = excluded.portfolio_value,
			preferred_contact = excluded.preferred_contact,
			updated_at = excluded.updated_at`,
		c.ID, c.Name, c.Age, c.AnnualIncome, string(c.RiskTolerance), interests,
		string(c.LifecycleStage), c.ConversionProbability, c.PortfolioValue,
		string(c.PreferredContact), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert client %s", c.ID)
}

const sqliteClientColumns = `id, name, age, annual_income, risk_tolerance, interests,
	lifecycle_stage, conversion_probability, portfolio_value, preferred_contact`

func (s *SQLiteStore) GetClient(ctx context.Context, id string) (*model.ClientProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteClientColumns+` FROM clients WHERE id = ?`, id)

	c, err := scanClient(row)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: client %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get client %s", id)
	}
	return c, nil
}

func (s *SQLiteStore) ListClients(ctx context.Context, filter ClientFilter) ([]model.ClientProfile, error) {
	query := `SELECT ` + sqliteClientColumns + ` FROM clients WHERE 1=1`
	var args []any

	if filter.Stage != "" {
		query += ` AND lifecycle_stage = ?`
		args = append(args, string(filter.Stage))
	}
	query += ` ORDER BY id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list clients")
	}
	defer rows.Close()

	var clients []model.ClientProfile
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan client")
		}
		clients = append(clients, *c)
	}
	return clients, eris.Wrap(rows.Err(), "sqlite: list clients iterate")
}

func (s *SQLiteStore) UpsertInvestment(ctx context.Context, p model.InvestmentProduct) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO investments (id, name, type, risk_level, min_investment, expected_return)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			risk_level = excluded.risk_level,
			min_investment = excluded.min_investment,
			expected_return = excluded.expected_return`,
		p.ID, p.Name, p.Type, string(p.RiskLevel), p.MinInvestment, p.ExpectedReturn,
	)
	return eris.Wrapf(err, "sqlite: upsert investment %s", p.ID)
}

func (s *SQLiteStore) ListInvestments(ctx context.Context) ([]model.InvestmentProduct, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, risk_level, min_investment, expected_return FROM investments ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list investments")
	}
	defer rows.Close()

	var products []model.InvestmentProduct
	for rows.Next() {
		var p model.InvestmentProduct
		var risk string
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &risk, &p.MinInvestment, &p.ExpectedReturn); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan investment")
		}
		p.RiskLevel = model.RiskLevel(risk)
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "sqlite: list investments iterate")
}

func (s *SQLiteStore) UpsertHolding(ctx context.Context, h model.PortfolioHolding) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holdings (id, client_id, investment_id, product_type, amount_invested, current_value, performance_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			investment_id = excluded.investment_id,
			product_type = excluded.product_type,
			amount_invested = excluded.amount_invested,
			current_value = excluded.current_value,
			performance_pct = excluded.performance_pct`,
		h.ID, h.ClientID, h.InvestmentID, h.ProductType, h.AmountInvested, h.CurrentValue, h.PerformancePct,
	)
	return eris.Wrapf(err, "sqlite: upsert holding for client %s", h.ClientID)
}

func (s *SQLiteStore) ListHoldings(ctx context.Context, clientID string) ([]model.PortfolioHolding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, h.client_id, h.investment_id, COALESCE(i.type, h.product_type),
		       h.amount_invested, h.current_value, h.performance_pct
		FROM holdings h
		LEFT JOIN investments i ON i.id = h.investment_id
		WHERE h.client_id = ?
		ORDER BY h.id`, clientID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list holdings for client %s", clientID)
	}
	defer rows.Close()

	var holdings []model.PortfolioHolding
	for rows.Next() {
		var h model.PortfolioHolding
		if err := rows.Scan(&h.ID, &h.ClientID, &h.InvestmentID, &h.ProductType,
			&h.AmountInvested, &h.CurrentValue, &h.PerformancePct); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan holding")
		}
		holdings = append(holdings, h)
	}
	return holdings, eris.Wrap(rows.Err(), "sqlite: list holdings iterate")
}

func (s *SQLiteStore) RecordActivity(ctx context.Context, a model.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (id, client_id, type, notes, occurred_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			notes = excluded.notes,
			occurred_at = excluded.occurred_at`,
		a.ID, a.ClientID, string(a.Type), a.Notes, a.OccurredAt.UTC().UnixMilli(),
	)
	return eris.Wrapf(err, "sqlite: record activity for client %s", a.ClientID)
}

func (s *SQLiteStore) LastContacts(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT client_id, MAX(occurred_at) FROM activities GROUP BY client_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: last contacts")
	}
	defer rows.Close()

	last := make(map[string]time.Time)
	for rows.Next() {
		var clientID string
		var ms int64
		if err := rows.Scan(&clientID, &ms); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan last contact")
		}
		last[clientID] = time.UnixMilli(ms).UTC()
	}
	return last, eris.Wrap(rows.Err(), "sqlite: last contacts iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanClient(row scannable) (*model.ClientProfile, error) {
	var c model.ClientProfile
	var risk, stage, contact, interests string

	err := row.Scan(&c.ID, &c.Name, &c.Age, &c.AnnualIncome, &risk, &interests,
		&stage, &c.ConversionProbability, &c.PortfolioValue, &contact)
	if err != nil {
		return nil, err
	}

	c.RiskTolerance = model.RiskLevel(risk)
	c.LifecycleStage = model.LifecycleStage(stage)
	c.PreferredContact = model.ContactChannel(contact)
	if err := json.Unmarshal([]byte(interests), &c.Interests); err != nil {
		return nil, eris.Wrapf(err, "unmarshal interests for client %s", c.ID)
	}
	return &c, nil
}

func marshalInterests(interests []string) (string, error) {
	if interests == nil {
		interests = []string{}
	}
	data, err := json.Marshal(interests)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
