package costs

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"knowledge-rag/internal/config"
)

// Record is one persisted cost entry, keyed by request id. Records are
// immutable after creation; re-inserting the same id is a no-op.
type Record struct {
	bun.BaseModel `bun:"table:costs,alias:c"`

	RequestID      string    `bun:"request_id,pk"`
	Timestamp      time.Time `bun:"timestamp,notnull"`
	Model          string    `bun:"model,notnull"`
	Provider       string    `bun:"provider,notnull"`
	InputTokens    int       `bun:"input_tokens,notnull"`
	OutputTokens   int       `bun:"output_tokens,notnull"`
	TotalTokens    int       `bun:"total_tokens,notnull"`
	InputCost      float64   `bun:"input_cost,notnull"`
	OutputCost     float64   `bun:"output_cost,notnull"`
	TotalCost      float64   `bun:"total_cost,notnull"`
	UserQuery      string    `bun:"user_query"`
	ResponseLength int       `bun:"response_length"`
	ProcessingTime float64   `bun:"processing_time"`
	UserID         string    `bun:"user_id,nullzero"`
	SessionID      string    `bun:"session_id,nullzero"`
	Tags           []string  `bun:"tags,array"`
}

// Tracker persists and aggregates cost records.
type Tracker struct {
	db *bun.DB
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := normalizeDSN(cfg.DSN)
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Password))), nil
}

// normalizeDSN disables TLS for bare DSNs. A DSN that already carries query
// parameters is passed through untouched.
func normalizeDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?sslmode=disable"
}

func NewTracker(sqldb *sql.DB, debug bool) *Tracker {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Tracker{db: db}
}

func (t *Tracker) Init(ctx context.Context) error {
	_, err := t.db.NewCreateTable().Model((*Record)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (t *Tracker) Close() error {
	return t.db.Close()
}

// insertQuery builds the idempotent insert: a retried request id hits the
// conflict arm and leaves the original record untouched.
func (t *Tracker) insertQuery(rec *Record) *bun.InsertQuery {
	return t.db.NewInsert().
		Model(rec).
		On("CONFLICT (request_id) DO NOTHING")
}

// Track appends one record.
func (t *Tracker) Track(ctx context.Context, rec *Record) error {
	_, err := t.insertQuery(rec).Exec(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Str("request_id", rec.RequestID).
		Str("model", rec.Model).
		Float64("total_cost", rec.TotalCost).
		Msg("cost tracked")
	return nil
}

// DayRow is one calendar day of aggregated costs.
type DayRow struct {
	Date     string  `bun:"date" json:"date"`
	Requests int     `bun:"requests" json:"requests"`
	Tokens   int     `bun:"tokens" json:"tokens"`
	Cost     float64 `bun:"cost" json:"cost"`
	AvgTime  float64 `bun:"avg_time" json:"avg_time"`
}

// Totals aggregates a whole trailing window.
type Totals struct {
	TotalRequests     int     `bun:"total_requests" json:"total_requests"`
	TotalTokens       int     `bun:"total_tokens" json:"total_tokens"`
	TotalCost         float64 `bun:"total_cost" json:"total_cost"`
	AvgProcessingTime float64 `bun:"avg_processing_time" json:"avg_processing_time"`
}

// Summary is the cost report over the trailing N days. NoData marks an empty
// window so dashboards can render a zeroed payload instead of failing.
type Summary struct {
	PeriodDays int      `json:"period_days"`
	StartDate  string   `json:"start_date"`
	Daily      []DayRow `json:"daily_breakdown"`
	Totals     Totals   `json:"total_summary"`
	NoData     bool     `json:"no_data"`
}

func (t *Tracker) Summary(ctx context.Context, days int) (*Summary, error) {
	startDate := windowStart(days)

	var daily []DayRow
	err := t.db.NewSelect().
		Model((*Record)(nil)).
		ColumnExpr("DATE(timestamp) AS date").
		ColumnExpr("COUNT(*) AS requests").
		ColumnExpr("COALESCE(SUM(total_tokens), 0) AS tokens").
		ColumnExpr("COALESCE(SUM(total_cost), 0) AS cost").
		ColumnExpr("COALESCE(AVG(processing_time), 0) AS avg_time").
		Where("DATE(timestamp) >= ?", startDate).
		GroupExpr("DATE(timestamp)").
		OrderExpr("date DESC").
		Scan(ctx, &daily)
	if err != nil {
		return nil, err
	}

	var totals Totals
	err = t.db.NewSelect().
		Model((*Record)(nil)).
		ColumnExpr("COUNT(*) AS total_requests").
		ColumnExpr("COALESCE(SUM(total_tokens), 0) AS total_tokens").
		ColumnExpr("COALESCE(SUM(total_cost), 0) AS total_cost").
		ColumnExpr("COALESCE(AVG(processing_time), 0) AS avg_processing_time").
		Where("DATE(timestamp) >= ?", startDate).
		Scan(ctx, &totals)
	if err != nil {
		return nil, err
	}

	return &Summary{
		PeriodDays: days,
		StartDate:  startDate,
		Daily:      daily,
		Totals:     totals,
		NoData:     totals.TotalRequests == 0,
	}, nil
}

// ModelRow is the per-(model, provider) aggregate.
type ModelRow struct {
	Model    string  `bun:"model" json:"model"`
	Provider string  `bun:"provider" json:"provider"`
	Requests int     `bun:"requests" json:"requests"`
	Tokens   int     `bun:"tokens" json:"tokens"`
	Cost     float64 `bun:"cost" json:"cost"`
	AvgTime  float64 `bun:"avg_time" json:"avg_time"`
}

// ModelBreakdown groups the trailing window by model and provider, most
// expensive first.
type ModelBreakdown struct {
	PeriodDays int        `json:"period_days"`
	Models     []ModelRow `json:"models"`
	NoData     bool       `json:"no_data"`
}

func (t *Tracker) Breakdown(ctx context.Context, days int) (*ModelBreakdown, error) {
	var rows []ModelRow
	err := t.db.NewSelect().
		Model((*Record)(nil)).
		Column("model", "provider").
		ColumnExpr("COUNT(*) AS requests").
		ColumnExpr("COALESCE(SUM(total_tokens), 0) AS tokens").
		ColumnExpr("COALESCE(SUM(total_cost), 0) AS cost").
		ColumnExpr("COALESCE(AVG(processing_time), 0) AS avg_time").
		Where("DATE(timestamp) >= ?", windowStart(days)).
		GroupExpr("model, provider").
		OrderExpr("cost DESC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	return &ModelBreakdown{PeriodDays: days, Models: rows, NoData: len(rows) == 0}, nil
}

// Alert is one day in the trailing week whose spend crossed the threshold.
type Alert struct {
	Date      string  `bun:"date" json:"date"`
	DailyCost float64 `bun:"daily_cost" json:"daily_cost"`
	Requests  int     `bun:"requests" json:"requests"`
	AlertType string  `bun:"-" json:"alert_type"`
}

func (t *Tracker) Alerts(ctx context.Context, threshold float64) ([]Alert, error) {
	var alerts []Alert
	err := t.db.NewSelect().
		Model((*Record)(nil)).
		ColumnExpr("DATE(timestamp) AS date").
		ColumnExpr("SUM(total_cost) AS daily_cost").
		ColumnExpr("COUNT(*) AS requests").
		Where("DATE(timestamp) >= ?", windowStart(7)).
		GroupExpr("DATE(timestamp)").
		Having("SUM(total_cost) > ?", threshold).
		OrderExpr("daily_cost DESC").
		Scan(ctx, &alerts)
	if err != nil {
		return nil, err
	}
	for i := range alerts {
		alerts[i].AlertType = "high_cost"
	}
	return alerts, nil
}

func windowStart(days int) string {
	return time.Now().AddDate(0, 0, -days).Format("2006-01-02")
}
