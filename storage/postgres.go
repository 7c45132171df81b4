package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/StanleyRoberts/Nix-Bot-sub000/domain"
)

// PostgresRepo persists per-room configuration. Session state never goes
// through here; it lives and dies in memory.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func (r *PostgresRepo) GetRoomSettings(ctx context.Context, roomID string) (domain.RoomSettings, error) {
	settings := domain.RoomSettings{RoomID: roomID}

	row := r.pool.QueryRow(ctx,
		`SELECT allow_mature, trivia_category, trivia_difficulty, wordlist_pack
		 FROM room_settings WHERE room_id = $1`, roomID)

	err := row.Scan(&settings.AllowMature, &settings.TriviaCategory, &settings.TriviaDifficulty, &settings.WordlistPack)

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.RoomSettings{}, domain.ErrSettingsMissing
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return domain.RoomSettings{}, err
		default:
			return domain.RoomSettings{}, fmt.Errorf("%w: %w", domain.DatabaseError, err)
		}
	}

	return settings, nil
}

func (r *PostgresRepo) UpsertRoomSettings(ctx context.Context, settings domain.RoomSettings) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO room_settings (room_id, allow_mature, trivia_category, trivia_difficulty, wordlist_pack)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (room_id) DO UPDATE SET
		   allow_mature = EXCLUDED.allow_mature,
		   trivia_category = EXCLUDED.trivia_category,
		   trivia_difficulty = EXCLUDED.trivia_difficulty,
		   wordlist_pack = EXCLUDED.wordlist_pack`,
		settings.RoomID, settings.AllowMature, settings.TriviaCategory, settings.TriviaDifficulty, settings.WordlistPack)

	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			return fmt.Errorf("%w: %w", domain.DatabaseError, err)
		}
	}
	return nil
}
