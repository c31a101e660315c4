package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/foodmatch-app/backend/engine"
	"github.com/lib/pq"
)

// postgresStore implements engine.Store over the tables in schema.sql.
//
// The two invariants the engine leans on live here as constraints:
//   - swipes UNIQUE (swiper_id, swiped_id): a repeat swipe inserts zero rows,
//     reported as engine.ErrDuplicateSwipe.
//   - matches PRIMARY KEY (user_a_id, user_b_id) with user_a_id < user_b_id:
//     INSERT ... ON CONFLICT DO NOTHING is the compare-and-create primitive
//     the match detector requires, so two concurrent detections for the same
//     pair can never both insert.
type postgresStore struct {
	db *sql.DB
}

func newPostgresStore(db *sql.DB) *postgresStore {
	return &postgresStore{db: db}
}

const profileColumns = `user_id, full_name, age, bio, location, avatar_url,
	       favorite_cuisines, dining_styles, dietary_tags`

func (s *postgresStore) GetProfile(ctx context.Context, id int) (*engine.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT `+profileColumns+`
        FROM profiles WHERE user_id = $1
    `, id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrNotFound
	}
	return p, err
}

func (s *postgresStore) UpsertProfile(ctx context.Context, p *engine.Profile) error {
	cuisines, styles, tags, err := marshalTagSets(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO profiles (
            user_id, full_name, age, bio, location, avatar_url,
            favorite_cuisines, dining_styles, dietary_tags
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (user_id) DO UPDATE SET
            full_name = EXCLUDED.full_name,
            age = EXCLUDED.age,
            bio = EXCLUDED.bio,
            location = EXCLUDED.location,
            avatar_url = EXCLUDED.avatar_url,
            favorite_cuisines = EXCLUDED.favorite_cuisines,
            dining_styles = EXCLUDED.dining_styles,
            dietary_tags = EXCLUDED.dietary_tags,
            updated_at = NOW()
    `, p.ID, p.FullName, p.Age, p.Bio, p.Location, p.AvatarURL, cuisines, styles, tags)
	return err
}

func (s *postgresStore) InsertSwipe(ctx context.Context, rec *engine.SwipeRecord) error {
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO swipes (swiper_id, swiped_id, liked, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (swiper_id, swiped_id) DO NOTHING
    `, rec.SwiperID, rec.CandidateID, rec.Liked, rec.CreatedAt)
	if err != nil {
		// Foreign key violation: one side of the pair has no profile.
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return engine.ErrNotFound
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrDuplicateSwipe
	}
	return nil
}

func (s *postgresStore) HasLike(ctx context.Context, swiperID, candidateID int) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM swipes
            WHERE swiper_id = $1 AND swiped_id = $2 AND liked = TRUE
        )
    `, swiperID, candidateID).Scan(&exists)
	return exists, err
}

func (s *postgresStore) Candidates(ctx context.Context, userID, limit int) ([]engine.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+profileColumns+`
        FROM profiles p
        WHERE p.user_id <> $1
          AND NOT EXISTS (
              SELECT 1 FROM swipes s
              WHERE s.swiper_id = $1 AND s.swiped_id = p.user_id
          )
        ORDER BY p.user_id
        LIMIT $2
    `, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *postgresStore) CreateMatch(ctx context.Context, pair engine.Pair) (bool, error) {
	var created bool
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
            INSERT INTO matches (user_a_id, user_b_id)
            VALUES ($1, $2)
            ON CONFLICT (user_a_id, user_b_id) DO NOTHING
        `, pair.A, pair.B)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n == 1
		return nil
	})
	return created, err
}

func (s *postgresStore) MatchesFor(ctx context.Context, userID int) ([]engine.Match, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT user_a_id, user_b_id, created_at
        FROM matches
        WHERE user_a_id = $1 OR user_b_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Match
	for rows.Next() {
		var m engine.Match
		if err := rows.Scan(&m.UserAID, &m.UserBID, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*engine.Profile, error) {
	var p engine.Profile
	var age sql.NullInt64
	var cuisines, styles, tags []byte
	err := row.Scan(&p.ID, &p.FullName, &age, &p.Bio, &p.Location, &p.AvatarURL,
		&cuisines, &styles, &tags)
	if err != nil {
		return nil, err
	}
	p.Age = int(age.Int64)
	if err := json.Unmarshal(cuisines, &p.FavoriteCuisines); err != nil {
		return nil, fmt.Errorf("decoding favorite_cuisines: %w", err)
	}
	if err := json.Unmarshal(styles, &p.DiningStyles); err != nil {
		return nil, fmt.Errorf("decoding dining_styles: %w", err)
	}
	if err := json.Unmarshal(tags, &p.DietaryTags); err != nil {
		return nil, fmt.Errorf("decoding dietary_tags: %w", err)
	}
	return &p, nil
}

func marshalTagSets(p *engine.Profile) (cuisines, styles, tags []byte, err error) {
	if cuisines, err = json.Marshal(emptyIfNil(p.FavoriteCuisines)); err != nil {
		return
	}
	if styles, err = json.Marshal(emptyIfNil(p.DiningStyles)); err != nil {
		return
	}
	tags, err = json.Marshal(emptyIfNil(p.DietaryTags))
	return
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
