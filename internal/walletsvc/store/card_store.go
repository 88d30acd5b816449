package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/romcheg/offline-cards/internal/interchange"
	"github.com/romcheg/offline-cards/internal/walletsvc/models"
)

const cardsSchema = `
CREATE TABLE IF NOT EXISTS cards (
	card_number TEXT PRIMARY KEY,
	store_name  TEXT NOT NULL,
	holder_name TEXT,
	use_qr_code BOOLEAN NOT NULL DEFAULT FALSE,
	color_hex   TEXT NOT NULL DEFAULT '#007AFF',
	photo_data  BYTEA[],
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const cardColumns = `card_number, store_name, holder_name, use_qr_code, color_hex, photo_data, created_at`

// PostgresCardStore is the Postgres-backed collection.
type PostgresCardStore struct {
	db *pgxpool.Pool
}

func NewPostgresCardStore(db *pgxpool.Pool) *PostgresCardStore {
	return &PostgresCardStore{db: db}
}

// EnsureSchema creates the cards table when it does not exist yet.
func (s *PostgresCardStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, cardsSchema); err != nil {
		return fmt.Errorf("failed to create cards table: %w", err)
	}
	return nil
}

func (s *PostgresCardStore) List(ctx context.Context, search string) ([]models.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE $1 = '' OR strpos(lower(store_name), lower($1)) > 0
		ORDER BY store_name COLLATE "C", card_number COLLATE "C"
	`

	rows, err := s.db.Query(ctx, query, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return cards, nil
}

func (s *PostgresCardStore) Get(ctx context.Context, number string) (*models.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE card_number = $1
		LIMIT 1
	`

	card, err := scanCard(s.db.QueryRow(ctx, query, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card by number: %w", err)
	}
	return card, nil
}

func (s *PostgresCardStore) Insert(ctx context.Context, card models.Card) error {
	return insertCard(ctx, s.db, card)
}

func (s *PostgresCardStore) Update(ctx context.Context, card models.Card) error {
	query := `
		UPDATE cards
		SET store_name = $2, holder_name = $3, use_qr_code = $4, color_hex = $5, photo_data = $6
		WHERE card_number = $1
	`

	tag, err := s.db.Exec(ctx, query,
		card.CardNumber, card.StoreName, card.HolderName, card.UseQRCode, card.ColorHex, card.PhotoData)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

func (s *PostgresCardStore) Delete(ctx context.Context, number string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM cards WHERE card_number = $1`, number)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// Apply runs the whole merge in one transaction.
func (s *PostgresCardStore) Apply(ctx context.Context, plan interchange.Plan) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if plan.EraseAll {
		if _, err := tx.Exec(ctx, `DELETE FROM cards`); err != nil {
			return fmt.Errorf("erase cards: %w", err)
		}
	}
	if len(plan.Delete) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM cards WHERE card_number = ANY($1)`, plan.Delete); err != nil {
			return fmt.Errorf("delete duplicate cards: %w", err)
		}
	}
	for _, card := range plan.Insert {
		if err := insertCard(ctx, tx, card); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertCard(ctx context.Context, db execer, card models.Card) error {
	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := db.Exec(ctx, query,
		card.CardNumber, card.StoreName, card.HolderName, card.UseQRCode, card.ColorHex, card.PhotoData, card.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrDuplicateCard, card.CardNumber)
		}
		return fmt.Errorf("failed to insert card %s: %w", card.CardNumber, err)
	}
	return nil
}

func scanCard(row pgx.Row) (*models.Card, error) {
	var card models.Card
	err := row.Scan(
		&card.CardNumber,
		&card.StoreName,
		&card.HolderName,
		&card.UseQRCode,
		&card.ColorHex,
		&card.PhotoData,
		&card.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &card, nil
}
