package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/i474232898/obhavo-bot/internal/channel"
	"github.com/i474232898/obhavo-bot/internal/user"
	"github.com/i474232898/obhavo-bot/internal/weather"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// PostgresSnapshots is the weather cache backed by the weather_cache table.
type PostgresSnapshots struct {
	db  *sql.DB
	log *zap.Logger
}

func NewPostgresSnapshots(db *sql.DB, log *zap.Logger) *PostgresSnapshots {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostgresSnapshots{db: db, log: log.Named("weather_cache")}
}

const snapshotColumns = `region_id, temperature, condition, humidity, wind_speed, pressure, forecast, updated_at`

func (s *PostgresSnapshots) Upsert(ctx context.Context, snap weather.Snapshot) error {
	forecast, err := weather.EncodeForecast(snap.Forecast)
	if err != nil {
		return fmt.Errorf("encode forecast for %s: %w", snap.RegionID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO weather_cache (`+snapshotColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (region_id) DO UPDATE SET
		   temperature = EXCLUDED.temperature,
		   condition = EXCLUDED.condition,
		   humidity = EXCLUDED.humidity,
		   wind_speed = EXCLUDED.wind_speed,
		   pressure = EXCLUDED.pressure,
		   forecast = EXCLUDED.forecast,
		   updated_at = EXCLUDED.updated_at`,
		snap.RegionID, snap.Temperature, snap.Condition, snap.Humidity,
		snap.WindSpeed, snap.Pressure, forecast, snap.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert weather for %s: %w", snap.RegionID, err)
	}
	return nil
}

func (s *PostgresSnapshots) Get(ctx context.Context, regionID string) (weather.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM weather_cache WHERE region_id = $1`, regionID)
	snap, err := s.scan(row)
	if err == sql.ErrNoRows {
		return weather.Snapshot{}, weather.ErrSnapshotUnavailable
	}
	if err != nil {
		return weather.Snapshot{}, fmt.Errorf("failed to read weather for %s: %w", regionID, err)
	}
	return snap, nil
}

func (s *PostgresSnapshots) ListAll(ctx context.Context) ([]weather.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+snapshotColumns+` FROM weather_cache ORDER BY region_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list weather: %w", err)
	}
	defer rows.Close()

	var out []weather.Snapshot
	for rows.Next() {
		snap, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weather row: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *PostgresSnapshots) scan(row scanner) (weather.Snapshot, error) {
	var (
		snap     weather.Snapshot
		forecast sql.NullString
	)
	err := row.Scan(&snap.RegionID, &snap.Temperature, &snap.Condition, &snap.Humidity,
		&snap.WindSpeed, &snap.Pressure, &forecast, &snap.UpdatedAt)
	if err != nil {
		return weather.Snapshot{}, err
	}
	f, err := weather.DecodeForecast(forecast.String)
	if err != nil {
		s.log.Warn("unreadable forecast blob, using empty forecast",
			zap.String("region", snap.RegionID), zap.Error(err))
	}
	snap.Forecast = f
	return snap, nil
}

// PostgresRegistry stores destinations in the channels table.
type PostgresRegistry struct {
	db *sql.DB
}

func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

const destinationColumns = `id, chat_id, title, type, enabled, scheduled_time, last_sent_at, created_at`

func (r *PostgresRegistry) Add(ctx context.Context, d channel.Destination) (channel.Destination, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO channels (`+destinationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.ChatID, d.Title, string(d.Type), d.Enabled,
		sql.NullString{String: d.ScheduledTime, Valid: d.ScheduledTime != ""},
		nullTime(d.LastSentAt), d.CreatedAt,
	)
	if isUniqueViolation(err) {
		return channel.Destination{}, channel.ErrDuplicate
	}
	if err != nil {
		return channel.Destination{}, fmt.Errorf("failed to insert channel %s: %w", d.ChatID, err)
	}
	return d, nil
}

func (r *PostgresRegistry) Remove(ctx context.Context, chatID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM channels WHERE chat_id = $1`, chatID); err != nil {
		return fmt.Errorf("failed to delete channel %s: %w", chatID, err)
	}
	return nil
}

func (r *PostgresRegistry) Get(ctx context.Context, chatID string) (channel.Destination, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+destinationColumns+` FROM channels WHERE chat_id = $1`, chatID)
	d, err := scanDestination(row)
	if err == sql.ErrNoRows {
		return channel.Destination{}, channel.ErrNotFound
	}
	if err != nil {
		return channel.Destination{}, fmt.Errorf("failed to read channel %s: %w", chatID, err)
	}
	return d, nil
}

func (r *PostgresRegistry) List(ctx context.Context) ([]channel.Destination, error) {
	return r.query(ctx, `SELECT `+destinationColumns+` FROM channels ORDER BY created_at`)
}

func (r *PostgresRegistry) ListEnabled(ctx context.Context) ([]channel.Destination, error) {
	return r.query(ctx, `SELECT `+destinationColumns+` FROM channels WHERE enabled ORDER BY created_at`)
}

func (r *PostgresRegistry) query(ctx context.Context, q string) ([]channel.Destination, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var out []channel.Destination
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresRegistry) SetEnabled(ctx context.Context, chatID string, enabled bool) error {
	return r.exec(ctx, chatID, `UPDATE channels SET enabled = $2 WHERE chat_id = $1`, enabled)
}

func (r *PostgresRegistry) SetSchedule(ctx context.Context, chatID string, hhmm string) error {
	return r.exec(ctx, chatID, `UPDATE channels SET scheduled_time = $2 WHERE chat_id = $1`,
		sql.NullString{String: hhmm, Valid: hhmm != ""})
}

func (r *PostgresRegistry) MarkSent(ctx context.Context, chatID string, at time.Time) error {
	return r.exec(ctx, chatID, `UPDATE channels SET last_sent_at = $2 WHERE chat_id = $1`, at)
}

func (r *PostgresRegistry) exec(ctx context.Context, chatID, q string, arg any) error {
	result, err := r.db.ExecContext(ctx, q, chatID, arg)
	if err != nil {
		return fmt.Errorf("failed to update channel %s: %w", chatID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return channel.ErrNotFound
	}
	return nil
}

func scanDestination(row scanner) (channel.Destination, error) {
	var (
		d        channel.Destination
		typ      string
		title    sql.NullString
		sched    sql.NullString
		lastSent sql.NullTime
	)
	if err := row.Scan(&d.ID, &d.ChatID, &title, &typ, &d.Enabled, &sched, &lastSent, &d.CreatedAt); err != nil {
		return channel.Destination{}, err
	}
	d.Title = title.String
	d.Type = channel.Type(typ)
	d.ScheduledTime = sched.String
	if lastSent.Valid {
		t := lastSent.Time
		d.LastSentAt = &t
	}
	return d, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// LoadLegacySettings reads the single-row bot_settings table. A missing row
// yields zero settings.
func LoadLegacySettings(ctx context.Context, db *sql.DB) (channel.LegacySettings, error) {
	var (
		s        channel.LegacySettings
		chanID   sql.NullString
		sendTime sql.NullString
		lastSent sql.NullTime
	)
	err := db.QueryRowContext(ctx,
		`SELECT channel_id, daily_message_enabled, daily_message_time, last_daily_message_sent
		 FROM bot_settings ORDER BY id LIMIT 1`,
	).Scan(&chanID, &s.DailyMessageEnabled, &sendTime, &lastSent)
	if err == sql.ErrNoRows {
		return channel.LegacySettings{}, nil
	}
	if err != nil {
		return channel.LegacySettings{}, fmt.Errorf("failed to read bot settings: %w", err)
	}
	s.ChannelID = chanID.String
	s.DailyMessageTime = sendTime.String
	if lastSent.Valid {
		t := lastSent.Time
		s.LastDailyMessageSent = &t
	}
	return s, nil
}

// PostgresUsers stores per-user preferences in the users table.
type PostgresUsers struct {
	db *sql.DB
}

func NewPostgresUsers(db *sql.DB) *PostgresUsers {
	return &PostgresUsers{db: db}
}

func (u *PostgresUsers) GetByTelegramID(ctx context.Context, telegramID string) (user.Preference, error) {
	var (
		p        user.Preference
		username sql.NullString
		lang     string
	)
	err := u.db.QueryRowContext(ctx,
		`SELECT id, telegram_id, username, lang, region, created_at FROM users WHERE telegram_id = $1`,
		telegramID,
	).Scan(&p.ID, &p.TelegramID, &username, &lang, &p.Region, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return user.Preference{}, user.ErrNotFound
	}
	if err != nil {
		return user.Preference{}, fmt.Errorf("failed to find user %s: %w", telegramID, err)
	}
	p.Username = username.String
	p.Lang = user.Lang(lang)
	return p, nil
}

func (u *PostgresUsers) Create(ctx context.Context, p user.Preference) (user.Preference, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := u.db.ExecContext(ctx,
		`INSERT INTO users (id, telegram_id, username, lang, region, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.TelegramID, p.Username, string(p.Lang), p.Region, p.CreatedAt,
	)
	if isUniqueViolation(err) {
		return u.GetByTelegramID(ctx, p.TelegramID)
	}
	if err != nil {
		return user.Preference{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return p, nil
}

func (u *PostgresUsers) Update(ctx context.Context, p user.Preference) error {
	result, err := u.db.ExecContext(ctx,
		`UPDATE users SET username = $2, lang = $3, region = $4 WHERE telegram_id = $1`,
		p.TelegramID, p.Username, string(p.Lang), p.Region,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

// compile-time interface checks
var (
	_ weather.Store    = (*PostgresSnapshots)(nil)
	_ channel.Registry = (*PostgresRegistry)(nil)
	_ user.Store       = (*PostgresUsers)(nil)
)
