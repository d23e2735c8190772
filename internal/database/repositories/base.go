package repositories

import (
	"database/sql"
	"github.com/rs/zerolog"
)

// BaseRepository provides common database operations
type BaseRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewBase creates a new base repository
func NewBase(db *sql.DB, log zerolog.Logger) *BaseRepository {
	return &BaseRepository{
		db:  db,
		log: log,
	}
}

// DB returns the database connection
func (r *BaseRepository) DB() *sql.DB {
	return r.db
}

// Example repository pattern:
//
// type ReplicaRepository struct {
//     *BaseRepository
// }
//
// func NewReplicaRepository(db *sql.DB, log zerolog.Logger) *ReplicaRepository {
//     return &ReplicaRepository{
//         BaseRepository: NewBase(db, log.With().Str("repo", "replica").Logger()),
//     }
// }
//
// func (r *ReplicaRepository) GetByIndex(scenarioID string, index int) (*domain.ReplicaOutput, error) {
//     // Implementation
// }
