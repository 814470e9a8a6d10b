package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/rando-league/internal/domain/leaguesettings"
	qb "github.com/riskibarqy/rando-league/internal/platform/querybuilder"
)

type SettingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Set(ctx context.Context, date string, entries []leaguesettings.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, entry := range entries {
		query, args, err := qb.UpsertModel("league_settings", settingTableModel{
			Date:  date,
			Name:  entry.Name,
			Value: entry.Value,
		}, []string{"date", "name"})
		if err != nil {
			return fmt.Errorf("build upsert setting query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("upsert setting date=%s name=%s: %w", date, entry.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings tx: %w", err)
	}
	return nil
}

func (r *SettingsRepository) GetAll(ctx context.Context, date string) ([]leaguesettings.Setting, error) {
	query, args, err := qb.Select("date", "name", "value").From("league_settings").
		Where(qb.Eq("date", date)).
		OrderBy("name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select settings query: %w", err)
	}

	var rows []settingTableModel
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select settings date=%s: %w", date, err)
	}

	out := make([]leaguesettings.Setting, 0, len(rows))
	for _, row := range rows {
		out = append(out, leaguesettings.Setting{Date: row.Date, Name: row.Name, Value: row.Value})
	}
	return out, nil
}

func (r *SettingsRepository) Get(ctx context.Context, date, name string) (leaguesettings.Setting, bool, error) {
	query, args, err := qb.Select("date", "name", "value").From("league_settings").
		Where(qb.Eq("date", date), qb.Eq("name", name)).
		ToSQL()
	if err != nil {
		return leaguesettings.Setting{}, false, fmt.Errorf("build get setting query: %w", err)
	}

	var row settingTableModel
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		if isNotFound(err) {
			return leaguesettings.Setting{}, false, nil
		}
		return leaguesettings.Setting{}, false, fmt.Errorf("get setting date=%s name=%s: %w", date, name, err)
	}

	return leaguesettings.Setting{Date: row.Date, Name: row.Name, Value: row.Value}, true, nil
}

func (r *SettingsRepository) Clear(ctx context.Context, date string) (int64, error) {
	query, args, err := qb.DeleteFrom("league_settings").Where(qb.Eq("date", date)).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build clear settings query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("clear settings date=%s: %w", date, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear settings rows affected: %w", err)
	}
	return n, nil
}
