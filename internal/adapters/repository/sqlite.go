package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/clarkmail2001/mlb-betting-model/internal/adapters/repository/migrations"
	"github.com/clarkmail2001/mlb-betting-model/internal/domain/model"
	"github.com/clarkmail2001/mlb-betting-model/pkg/metrics"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// SQLiteStore implements Store on a single sqlite file.
type SQLiteStore struct {
	db           *sql.DB
	now          func() time.Time
	maxOpenConns int
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the database at path and applies migrations.
// The special path ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: storage path is required", ErrInvalidInput)
	}
	s := &SQLiteStore{now: time.Now, maxOpenConns: 4}
	for _, opt := range opts {
		opt(s)
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path)
	} else {
		// Every pooled connection would otherwise see its own empty database.
		s.maxOpenConns = 1
	}
	dsn += "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	s.db = db
	return s, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}

func (s *SQLiteStore) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return ErrClosed
	}
	return nil
}

// PutSeason inserts or replaces one player season.
func (s *SQLiteStore) PutSeason(ctx context.Context, st model.PlayerRateStats) error {
	defer observe("put_season", time.Now())
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(st.PlayerID) == "" || !st.Role.Valid() || st.Season <= 0 {
		return fmt.Errorf("%w: player season needs id, role and season", ErrInvalidInput)
	}
	stats, err := json.Marshal(st.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO player_seasons (player_id, role, season, games, sample_size, stats, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (player_id, role, season) DO UPDATE SET
		   games = excluded.games,
		   sample_size = excluded.sample_size,
		   stats = excluded.stats,
		   updated_at = excluded.updated_at`,
		st.PlayerID, string(st.Role), st.Season, st.Games, st.SampleSize, string(stats), s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put season %s/%d: %w", st.PlayerID, st.Season, err)
	}
	return nil
}

const seasonColumns = `player_id, role, season, games, sample_size, stats`

func scanSeason(row interface{ Scan(...any) error }) (model.PlayerRateStats, error) {
	var (
		out   model.PlayerRateStats
		role  string
		stats string
	)
	if err := row.Scan(&out.PlayerID, &role, &out.Season, &out.Games, &out.SampleSize, &stats); err != nil {
		return model.PlayerRateStats{}, err
	}
	out.Role = model.Role(role)
	if err := json.Unmarshal([]byte(stats), &out.Stats); err != nil {
		return model.PlayerRateStats{}, fmt.Errorf("decode stats for %s/%d: %w", out.PlayerID, out.Season, err)
	}
	return out, nil
}

// Season returns one stored season.
func (s *SQLiteStore) Season(ctx context.Context, role model.Role, playerID string, season int) (model.PlayerRateStats, error) {
	defer observe("season", time.Now())
	if err := s.ready(ctx); err != nil {
		return model.PlayerRateStats{}, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+seasonColumns+` FROM player_seasons WHERE player_id = ? AND role = ? AND season = ?`,
		playerID, string(role), season)
	out, err := scanSeason(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PlayerRateStats{}, fmt.Errorf("%w: %s %s season %d", ErrNotFound, role, playerID, season)
	}
	if err != nil {
		return model.PlayerRateStats{}, fmt.Errorf("get season: %w", err)
	}
	return out, nil
}

// Career returns up to model.MaxCareerYears seasons before the given one.
func (s *SQLiteStore) Career(ctx context.Context, role model.Role, playerID string, before int) (model.CareerProfile, error) {
	defer observe("career", time.Now())
	if err := s.ready(ctx); err != nil {
		return model.CareerProfile{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+seasonColumns+` FROM player_seasons
		 WHERE player_id = ? AND role = ? AND season < ?
		 ORDER BY season DESC LIMIT ?`,
		playerID, string(role), before, model.MaxCareerYears)
	if err != nil {
		return model.CareerProfile{}, fmt.Errorf("query career: %w", err)
	}
	defer rows.Close()

	out := model.CareerProfile{PlayerID: playerID}
	for rows.Next() {
		st, err := scanSeason(rows)
		if err != nil {
			return model.CareerProfile{}, err
		}
		out.Years = append(out.Years, st)
	}
	return out, rows.Err()
}

// PutArsenal replaces a pitcher's pitch mix for a season.
func (s *SQLiteStore) PutArsenal(ctx context.Context, pitcherID string, season int, entries []model.ArsenalEntry) error {
	defer observe("put_arsenal", time.Now())
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.replaceRows(ctx,
		`DELETE FROM pitch_arsenal WHERE pitcher_id = ? AND season = ?`, []any{pitcherID, season},
		`INSERT INTO pitch_arsenal (pitcher_id, season, pitch_type, usage_pct, rate_against) VALUES (?, ?, ?, ?, ?)`,
		len(entries), func(i int) []any {
			e := entries[i]
			return []any{pitcherID, season, e.PitchType, e.UsagePct, e.RateAgainst}
		})
}

// Arsenal returns a pitcher's pitch mix, empty when none is stored.
func (s *SQLiteStore) Arsenal(ctx context.Context, pitcherID string, season int) ([]model.ArsenalEntry, error) {
	defer observe("arsenal", time.Now())
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT pitch_type, usage_pct, rate_against FROM pitch_arsenal
		 WHERE pitcher_id = ? AND season = ? ORDER BY usage_pct DESC, pitch_type`,
		pitcherID, season)
	if err != nil {
		return nil, fmt.Errorf("query arsenal: %w", err)
	}
	defer rows.Close()

	var out []model.ArsenalEntry
	for rows.Next() {
		e := model.ArsenalEntry{PitcherID: pitcherID}
		if err := rows.Scan(&e.PitchType, &e.UsagePct, &e.RateAgainst); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PutHitterVsPitch replaces a hitter's pitch-type splits for a season.
func (s *SQLiteStore) PutHitterVsPitch(ctx context.Context, hitterID string, season int, entries []model.HitterVsPitchEntry) error {
	defer observe("put_hitter_vs_pitch", time.Now())
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.replaceRows(ctx,
		`DELETE FROM hitter_vs_pitch WHERE hitter_id = ? AND season = ?`, []any{hitterID, season},
		`INSERT INTO hitter_vs_pitch (hitter_id, season, pitch_type, rate) VALUES (?, ?, ?, ?)`,
		len(entries), func(i int) []any {
			return []any{hitterID, season, entries[i].PitchType, entries[i].Rate}
		})
}

// HitterVsPitch returns a hitter's splits, empty when none is stored.
func (s *SQLiteStore) HitterVsPitch(ctx context.Context, hitterID string, season int) ([]model.HitterVsPitchEntry, error) {
	defer observe("hitter_vs_pitch", time.Now())
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT pitch_type, rate FROM hitter_vs_pitch WHERE hitter_id = ? AND season = ? ORDER BY pitch_type`,
		hitterID, season)
	if err != nil {
		return nil, fmt.Errorf("query hitter splits: %w", err)
	}
	defer rows.Close()

	var out []model.HitterVsPitchEntry
	for rows.Next() {
		e := model.HitterVsPitchEntry{HitterID: hitterID}
		if err := rows.Scan(&e.PitchType, &e.Rate); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) replaceRows(ctx context.Context, del string, delArgs []any, ins string, n int, args func(int) []any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, del, delArgs...); err != nil {
		return fmt.Errorf("clear rows: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, ins)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: repeated pitch type", ErrInvalidInput)
			}
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Park returns one team's park profile.
func (s *SQLiteStore) Park(ctx context.Context, teamID string) (model.ParkProfile, error) {
	defer observe("park", time.Now())
	if err := s.ready(ctx); err != nil {
		return model.ParkProfile{}, err
	}
	var p model.ParkProfile
	err := s.db.QueryRowContext(ctx,
		`SELECT team_id, name, league, park_factor FROM parks WHERE team_id = ?`,
		strings.ToUpper(strings.TrimSpace(teamID)),
	).Scan(&p.TeamID, &p.Name, &p.League, &p.Factor)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ParkProfile{}, fmt.Errorf("%w: park %q", ErrNotFound, teamID)
	}
	if err != nil {
		return model.ParkProfile{}, fmt.Errorf("get park: %w", err)
	}
	return p, nil
}

// Parks lists every known park ordered by team.
func (s *SQLiteStore) Parks(ctx context.Context) ([]model.ParkProfile, error) {
	defer observe("parks", time.Now())
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT team_id, name, league, park_factor FROM parks ORDER BY team_id`)
	if err != nil {
		return nil, fmt.Errorf("query parks: %w", err)
	}
	defer rows.Close()

	var out []model.ParkProfile
	for rows.Next() {
		var p model.ParkProfile
		if err := rows.Scan(&p.TeamID, &p.Name, &p.League, &p.Factor); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LoadWeights returns every stored coefficient override.
func (s *SQLiteStore) LoadWeights(ctx context.Context) (map[string]float64, error) {
	defer observe("load_weights", time.Now())
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT weight_name, weight_value FROM model_weights`)
	if err != nil {
		return nil, fmt.Errorf("query weights: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var (
			name  string
			value float64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, rows.Err()
}

// SaveWeights replaces the stored coefficient set in one transaction.
func (s *SQLiteStore) SaveWeights(ctx context.Context, values map[string]float64) error {
	defer observe("save_weights", time.Now())
	if err := s.ready(ctx); err != nil {
		return err
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	now := s.now().UTC().UnixMilli()
	return s.replaceRows(ctx,
		`DELETE FROM model_weights`, nil,
		`INSERT INTO model_weights (weight_name, weight_value, updated_at) VALUES (?, ?, ?)`,
		len(names), func(i int) []any {
			return []any{names[i], values[names[i]], now}
		})
}

const predictionColumns = `id, game_key, game_date, home_team, away_team, home_pitcher_id, away_pitcher_id,
	f5_home, f5_away, full_home, full_away, actual_home, actual_away, created_at`

func scanPrediction(row interface{ Scan(...any) error }) (model.Prediction, error) {
	var (
		p          model.Prediction
		home, away sql.NullInt64
		created    int64
	)
	if err := row.Scan(&p.ID, &p.GameKey, &p.GameDate, &p.HomeTeam, &p.AwayTeam, &p.HomePitcherID, &p.AwayPitcherID,
		&p.F5Home, &p.F5Away, &p.FullHome, &p.FullAway, &home, &away, &created); err != nil {
		return model.Prediction{}, err
	}
	if home.Valid && away.Valid {
		h, a := int(home.Int64), int(away.Int64)
		p.ActualHome, p.ActualAway = &h, &a
	}
	p.CreatedAt = time.UnixMilli(created).UTC()
	return p, nil
}

// SavePrediction inserts a prediction. A second save for the same game key
// returns ErrDuplicate.
func (s *SQLiteStore) SavePrediction(ctx context.Context, p model.Prediction) error {
	defer observe("save_prediction", time.Now())
	if err := s.ready(ctx); err != nil {
		return err
	}
	if p.ID == "" || p.GameKey == "" {
		return fmt.Errorf("%w: prediction needs id and game key", ErrInvalidInput)
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (`+predictionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?)`,
		p.ID, p.GameKey, p.GameDate, p.HomeTeam, p.AwayTeam, p.HomePitcherID, p.AwayPitcherID,
		p.F5Home, p.F5Away, p.FullHome, p.FullAway, created.UTC().UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: prediction for %s", ErrDuplicate, p.GameKey)
		}
		return fmt.Errorf("save prediction: %w", err)
	}
	return nil
}

// Prediction returns one prediction by id.
func (s *SQLiteStore) Prediction(ctx context.Context, id string) (model.Prediction, error) {
	defer observe("prediction", time.Now())
	if err := s.ready(ctx); err != nil {
		return model.Prediction{}, err
	}
	p, err := scanPrediction(s.db.QueryRowContext(ctx, `SELECT `+predictionColumns+` FROM predictions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Prediction{}, fmt.Errorf("%w: prediction %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Prediction{}, fmt.Errorf("get prediction: %w", err)
	}
	return p, nil
}

// Predictions returns the newest predictions first.
func (s *SQLiteStore) Predictions(ctx context.Context, limit int) ([]model.Prediction, error) {
	defer observe("predictions", time.Now())
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxPredictionLimit {
		return nil, fmt.Errorf("%w: %d not in [1,%d]", ErrInvalidLimit, limit, MaxPredictionLimit)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+predictionColumns+` FROM predictions ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	out := make([]model.Prediction, 0, limit)
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RecordResult attaches the final score to a prediction.
func (s *SQLiteStore) RecordResult(ctx context.Context, id string, home, away int) (model.Prediction, error) {
	defer observe("record_result", time.Now())
	if err := s.ready(ctx); err != nil {
		return model.Prediction{}, err
	}
	if home < 0 || away < 0 {
		return model.Prediction{}, fmt.Errorf("%w: scores must not be negative", ErrInvalidInput)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE predictions SET actual_home = ?, actual_away = ? WHERE id = ?`, home, away, id)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("record result: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Prediction{}, fmt.Errorf("%w: prediction %s", ErrNotFound, id)
	}
	return s.Prediction(ctx, id)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
