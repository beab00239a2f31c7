package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"SwingDesk/internal/domain/models"
	domrepo "SwingDesk/internal/domain/repository"
	pkgch "SwingDesk/pkg/clickhouse"
	pkgkafka "SwingDesk/pkg/kafka"
	applogger "SwingDesk/pkg/logger"
)

const decisionsTable = "setup_decisions"

// CHDecisionStore persists decision history in ClickHouse. Each row keeps the
// searchable columns plus the full decision as a JSON payload.
type CHDecisionStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.DecisionStore = (*CHDecisionStore)(nil)

func NewCHDecisionStore(ch *pkgch.Client, l *applogger.Logger) *CHDecisionStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHDecisionStore{
		db:    ch.DB(),
		table: ch.Database() + "." + decisionsTable,
		l:     l.Component("decision_store"),
	}
}

func (s *CHDecisionStore) schema() []string {
	db := s.table[:strings.IndexByte(s.table, '.')]
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    evaluated_at DateTime64(3, 'UTC'),
    symbol       LowCardinality(String),
    account_id   UInt8,
    state        LowCardinality(String),
    grade        LowCardinality(String),
    score        UInt8,
    price        Float64,
    change_pct   Float64,
    pattern      LowCardinality(String),
    setup_stage  LowCardinality(String),
    tags         String,
    source       LowCardinality(String),
    payload      String
) ENGINE = MergeTree
PARTITION BY toYYYYMM(evaluated_at)
ORDER BY (symbol, evaluated_at)`, s.table),
	}
}

// Init creates the database and table if missing.
func (s *CHDecisionStore) Init(ctx context.Context) error {
	for _, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init decisions schema: %w", err)
		}
	}
	return nil
}

// StoreBatch inserts records with multi-row VALUES, chunked to bound statement size.
func (s *CHDecisionStore) StoreBatch(ctx context.Context, recs []*models.DecisionRecord) error {
	const chunkSize = 500
	const cols = "(evaluated_at, symbol, account_id, state, grade, score, price, change_pct, pattern, setup_stage, tags, source, payload)"

	for start := 0; start < len(recs); start += chunkSize {
		end := start + chunkSize
		if end > len(recs) {
			end = len(recs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*13)
		for _, r := range recs[start:end] {
			if r == nil || r.Ticker == "" {
				continue
			}
			payload, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encode decision %s: %w", r.Ticker, err)
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.EvaluatedAt.UTC(),
				r.Ticker,
				r.AccountID,
				string(r.State),
				string(r.Grade),
				r.Score,
				r.Price,
				r.ChangePct,
				r.Pattern.Name,
				r.SetupStage,
				strings.Join(r.Tags, ","),
				r.Source,
				string(payload),
			)
		}
		if len(values) == 0 {
			continue
		}

		q := fmt.Sprintf("INSERT INTO %s %s VALUES %s", s.table, cols, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("insert decisions failed", applogger.Int("rows", len(values)), applogger.Error(err))
			return fmt.Errorf("insert decisions: %w", err)
		}
	}
	return nil
}

// History returns the newest records for symbol, newest first.
func (s *CHDecisionStore) History(ctx context.Context, symbol string, limit int) ([]*models.DecisionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	q := fmt.Sprintf("SELECT evaluated_at, source, payload FROM %s WHERE symbol = ? ORDER BY evaluated_at DESC LIMIT %d", s.table, limit)
	rows, err := s.db.QueryContext(ctx, q, symbol)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]*models.DecisionRecord, 0, limit)
	for rows.Next() {
		var (
			at      time.Time
			source  string
			payload string
		)
		if err := rows.Scan(&at, &source, &payload); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec := &models.DecisionRecord{}
		if err := json.Unmarshal([]byte(payload), rec); err != nil {
			s.l.Warn("skip undecodable history row", applogger.String("symbol", symbol), applogger.Error(err))
			continue
		}
		rec.EvaluatedAt = at.UTC()
		rec.Source = source
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHDecisionStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHDecisionStore) Close() error {
	return s.db.Close()
}

// KafkaDecisionPublisher publishes decisions keyed by ticker.
type KafkaDecisionPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.DecisionPublisher = (*KafkaDecisionPublisher)(nil)

func NewKafkaDecisionPublisher(p *pkgkafka.Producer, topic string) *KafkaDecisionPublisher {
	return &KafkaDecisionPublisher{producer: p, topic: topic}
}

func (p *KafkaDecisionPublisher) Publish(ctx context.Context, rec *models.DecisionRecord) error {
	return p.producer.Publish(ctx, p.topic, rec.Ticker, rec)
}

func (p *KafkaDecisionPublisher) PublishBatch(ctx context.Context, recs []*models.DecisionRecord) error {
	msgs := make([]pkgkafka.Message, 0, len(recs))
	for _, r := range recs {
		if r == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{Key: r.Ticker, Value: r})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaDecisionPublisher) Close() error {
	return p.producer.Close()
}
