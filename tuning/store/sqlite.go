package store

import (
	"encoding/json"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/baldhumanity/evo-go/evo"
	"github.com/baldhumanity/evo-go/tuning"
)

// resultModel is the database row of a tuning.Result.
type resultModel struct {
	ID             string `gorm:"primaryKey"`
	Algorithm      string `gorm:"index"`
	Parameters     string // JSON object
	RunID          int
	Seed           uint64
	MaxFitness     float64
	ExecutionTime  float64
	Score          float64
	Converged      bool
	Generations    int
	TimeoutReached bool
	CreatedAt      time.Time
}

func (resultModel) TableName() string {
	return "tuning_results"
}

func newResultModel(r *tuning.Result) (*resultModel, error) {
	params, err := json.Marshal(r.Parameters)
	if err != nil {
		return nil, err
	}
	return &resultModel{
		ID:             r.ID,
		Algorithm:      string(r.Algorithm),
		Parameters:     string(params),
		RunID:          r.RunID,
		Seed:           r.Seed,
		MaxFitness:     r.MaxFitness,
		ExecutionTime:  r.ExecutionTime,
		Score:          r.Score,
		Converged:      r.Converged,
		Generations:    r.Generations,
		TimeoutReached: r.TimeoutReached,
		CreatedAt:      r.CreatedAt,
	}, nil
}

func (m *resultModel) reconstitute() (*tuning.Result, error) {
	params := tuning.Params{}
	if err := json.Unmarshal([]byte(m.Parameters), &params); err != nil {
		return nil, err
	}
	return &tuning.Result{
		ID:             m.ID,
		Algorithm:      evo.Algorithm(m.Algorithm),
		Parameters:     params,
		RunID:          m.RunID,
		Seed:           m.Seed,
		MaxFitness:     m.MaxFitness,
		ExecutionTime:  m.ExecutionTime,
		Score:          m.Score,
		Converged:      m.Converged,
		Generations:    m.Generations,
		TimeoutReached: m.TimeoutReached,
		CreatedAt:      m.CreatedAt,
	}, nil
}

func newSQLiteRepository(cfg Config) (Repository, error) {
	filename := filepath.Join(cfg.Path, cfg.Name+".db")
	if cfg.InMem {
		filename = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(filename), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&resultModel{}); err != nil {
		return nil, err
	}

	repo := new(sqliteRepository)
	repo.db = db
	return repo, nil
}

type sqliteRepository struct {
	db *gorm.DB
}

func (repo *sqliteRepository) Store(results ...*tuning.Result) error {
	models := make([]*resultModel, 0, len(results))
	for _, r := range results {
		m, err := newResultModel(r)
		if err != nil {
			return err
		}
		models = append(models, m)
	}

	return repo.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range models {
			if err := tx.Save(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (repo *sqliteRepository) List(algorithm evo.Algorithm) ([]*tuning.Result, error) {
	var models []*resultModel

	query := repo.db.Order("id")
	if algorithm != "" {
		query = query.Where("algorithm = ?", string(algorithm))
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	results := make([]*tuning.Result, 0, len(models))
	for _, m := range models {
		r, err := m.reconstitute()
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (repo *sqliteRepository) Truncate() error {
	return repo.db.Exec("DELETE FROM tuning_results").Error
}

func (repo *sqliteRepository) Close() error {
	sqlDB, err := repo.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
