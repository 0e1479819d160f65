package pg

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"rate_monitor/internal/models"
	"rate_monitor/internal/modules/preferences/service"
	"rate_monitor/internal/modules/preferences/service/pg/widget_preferences/sql"
	"rate_monitor/pkg/db"
)

// Preferences: Store поверх таблицы widget_preferences, настройки лежат в jsonb.
type Preferences struct {
	db  db.TxManager
	sql *sql.Queries
}

func NewPreferences(tx db.TxManager) *Preferences {
	return &Preferences{
		db:  tx,
		sql: sql.New(),
	}
}

type settingsDto struct {
	MarketKind   models.MarketKind `json:"marketKind"`
	InstrumentID string            `json:"instrumentId"`
	Periodicity  string            `json:"periodicity"`
}

func (p *Preferences) Load(ctx context.Context, profile string) (out models.Preferences, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.Preferences.Load")
		}
	}()

	err = p.db.RunReadOnly(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row, err := p.sql.GetByProfile(ctxTx, tx, profile)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errors.Wrapf(service.ErrNotFound, "profile %q", profile)
			}
			return err
		}
		var s settingsDto
		if err := sonic.Unmarshal(row.Settings, &s); err != nil {
			return errors.Wrap(err, "decode settings")
		}
		out = models.Preferences{
			MarketKind:   s.MarketKind,
			InstrumentID: s.InstrumentID,
			Periodicity:  s.Periodicity,
			UpdatedAt:    row.UpdatedAt,
		}
		return nil
	})
	return out, err
}

func (p *Preferences) Save(ctx context.Context, profile string, prefs models.Preferences) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.Preferences.Save")
		}
	}()

	data, err := sonic.Marshal(settingsDto{
		MarketKind:   prefs.MarketKind,
		InstrumentID: prefs.InstrumentID,
		Periodicity:  prefs.Periodicity,
	})
	if err != nil {
		return err
	}
	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		return p.sql.Upsert(ctxTx, tx, &sql.UpsertParams{
			Profile:   profile,
			Settings:  data,
			UpdatedAt: prefs.UpdatedAt,
		})
	})
}
