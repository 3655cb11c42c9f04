package store

import (
	"context"
	"fmt"

	"order-insights/internal/models"

	"github.com/jmoiron/sqlx"
)

const spendColumns = `campaign_id, campaign_name, adset_id, adset_name, ad_id, ad_name, spend, date_start, date_stop`

// UpsertSpendRecords stores spend line items keyed by ad and date range
func (s *Store) UpsertSpendRecords(ctx context.Context, records []models.SpendRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO spend_records (` + spendColumns + `)
		VALUES (:campaign_id, :campaign_name, :adset_id, :adset_name, :ad_id, :ad_name, :spend, :date_start, :date_stop)
		ON CONFLICT (ad_id, date_start, date_stop) DO UPDATE SET
			campaign_id = EXCLUDED.campaign_id,
			campaign_name = EXCLUDED.campaign_name,
			adset_id = EXCLUDED.adset_id,
			adset_name = EXCLUDED.adset_name,
			ad_name = EXCLUDED.ad_name,
			spend = EXCLUDED.spend`

	for i := range records {
		if _, err := tx.NamedExecContext(ctx, query, &records[i]); err != nil {
			return fmt.Errorf("failed to upsert spend for ad %s: %w", records[i].AdID, err)
		}
	}

	return tx.Commit()
}

// ListSpendInRange retrieves spend records overlapping the inclusive day range
func (s *Store) ListSpendInRange(ctx context.Context, sinceDay, untilDay string) ([]models.SpendRecord, error) {
	return listSpendInRange(ctx, s.db, sinceDay, untilDay)
}

func listSpendInRange(ctx context.Context, q sqlx.QueryerContext, sinceDay, untilDay string) ([]models.SpendRecord, error) {
	records := []models.SpendRecord{}
	err := sqlx.SelectContext(ctx, q, &records,
		"SELECT "+spendColumns+" FROM spend_records WHERE date_stop >= $1::date AND date_start <= $2::date ORDER BY date_start, ad_id",
		sinceDay, untilDay)
	if err != nil {
		return nil, fmt.Errorf("failed to list spend: %w", err)
	}
	return records, nil
}
