// Package archive keeps finished games in a SQL database after the live
// records in redis are no longer needed.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/DoyleJ11/wordlink-backend/internal/engine"
	"github.com/DoyleJ11/wordlink-backend/pkg/types"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type GameRecord struct {
	ID               string `gorm:"primaryKey"`
	PlayerAID        string `gorm:"column:player_a_id;index;not null"`
	PlayerBID        string `gorm:"column:player_b_id;index;not null"`
	StartingPlayerID string `gorm:"not null"`
	WinnerID         string
	EndReason        string    `gorm:"not null"`
	StartedAt        time.Time `gorm:"not null"`
	EndedAt          time.Time `gorm:"index;not null"`
	CreatedAt        time.Time
	Turns            []TurnRecord `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
}

type TurnRecord struct {
	ID         string `gorm:"primaryKey"`
	GameID     string `gorm:"index;not null"`
	Seq        int    `gorm:"not null"`
	PlayerID   string `gorm:"not null"`
	Word       string
	SubmitTime *time.Time // nil for the attempt that ended the game
}

type Store struct {
	db *gorm.DB
}

// Open connects to the archive database. driver is "postgres" or "sqlite".
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown archive driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s archive: %w", driver, err)
	}
	return db, nil
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&GameRecord{}, &TurnRecord{}); err != nil {
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &Store{db: db}, nil
}

// Save archives an ended game with its full turn log. Saving the same game
// twice keeps the first copy.
func (s *Store) Save(ctx context.Context, g engine.GameSession, turns []engine.Turn, winnerID string, endedAt time.Time) error {
	rec := GameRecord{
		ID:               g.ID,
		PlayerAID:        g.PlayerAID,
		PlayerBID:        g.PlayerBID,
		StartingPlayerID: g.StartingPlayerID,
		WinnerID:         winnerID,
		EndReason:        string(g.EndReason),
		StartedAt:        g.StartTime.UTC(),
		EndedAt:          endedAt.UTC(),
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&rec)
		if res.Error != nil {
			return fmt.Errorf("archive game %s: %w", g.ID, res.Error)
		}
		if res.RowsAffected == 0 || len(turns) == 0 {
			return nil
		}

		recs := make([]TurnRecord, len(turns))
		for i, t := range turns {
			recs[i] = TurnRecord{ID: t.ID, GameID: g.ID, Seq: i, PlayerID: t.PlayerID, Word: t.Word}
			if t.Confirmed() {
				at := t.SubmitTime.UTC()
				recs[i].SubmitTime = &at
			}
		}
		if err := tx.Create(&recs).Error; err != nil {
			return fmt.Errorf("archive turns of %s: %w", g.ID, err)
		}
		return nil
	})
}

// ListByPlayer returns up to limit archived games of playerID, newest first.
func (s *Store) ListByPlayer(ctx context.Context, playerID string, limit int) ([]types.ArchivedGame, error) {
	var recs []GameRecord
	err := s.db.WithContext(ctx).
		Preload("Turns", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		Where("player_a_id = ? OR player_b_id = ?", playerID, playerID).
		Order("ended_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list archived games: %w", err)
	}

	out := make([]types.ArchivedGame, 0, len(recs))
	for _, r := range recs {
		opponent := r.PlayerAID
		if opponent == playerID {
			opponent = r.PlayerBID
		}
		words := make([]string, 0, len(r.Turns))
		for _, t := range r.Turns {
			if t.SubmitTime != nil {
				words = append(words, t.Word)
			}
		}
		out = append(out, types.ArchivedGame{
			GameID:    r.ID,
			Opponent:  opponent,
			Won:       r.WinnerID == playerID,
			EndReason: r.EndReason,
			Words:     words,
			EndedAt:   r.EndedAt,
		})
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
