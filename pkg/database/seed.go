package database

import (
	"agri_training_backend/internal/model"
	_ "embed"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed seed.yaml
var defaultSeed []byte

type SeedEmployee struct {
	Name        string `yaml:"name"`
	Email       string `yaml:"email"`
	Designation string `yaml:"designation"`
	Password    string `yaml:"password"`
}

type SeedProgram struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type SeedWorkStream struct {
	Name    string `yaml:"name"`
	Program string `yaml:"program"`
}

type SeedData struct {
	Employees   []SeedEmployee   `yaml:"employees"`
	Programs    []SeedProgram    `yaml:"programs"`
	WorkStreams []SeedWorkStream `yaml:"workstreams"`
}

func DefaultSeed() (*SeedData, error) {
	return ParseSeed(defaultSeed)
}

func ParseSeed(raw []byte) (*SeedData, error) {
	var data SeedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &data, nil
}

// SeedStats 记录本次实际插入的行数
type SeedStats struct {
	Employees   int
	Programs    int
	WorkStreams int
}

// Seed 只插入不存在的记录，重复执行不会产生重复行
func Seed(db *gorm.DB, data *SeedData) (*SeedStats, error) {
	stats := &SeedStats{}
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, e := range data.Employees {
			exists, err := rowExists(tx, &model.Employee{}, "email = ?", e.Email)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(e.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			emp := &model.Employee{
				Name:         e.Name,
				Email:        e.Email,
				Designation:  e.Designation,
				PasswordHash: string(hash),
			}
			res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).Create(emp)
			if res.Error != nil {
				return res.Error
			}
			stats.Employees += int(res.RowsAffected)
		}

		programIDs := make(map[string]uint, len(data.Programs))
		for _, p := range data.Programs {
			var program model.Program
			err := tx.Where("name = ?", p.Name).First(&program).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				program = model.Program{Name: p.Name, Description: p.Description}
				program.ApplyDefaults()
				if err := tx.Create(&program).Error; err != nil {
					return err
				}
				stats.Programs++
			} else if err != nil {
				return err
			}
			programIDs[p.Name] = program.ID
		}

		for _, w := range data.WorkStreams {
			programID, ok := programIDs[w.Program]
			if !ok {
				return fmt.Errorf("seed workstream %q references unknown program %q", w.Name, w.Program)
			}
			exists, err := rowExists(tx, &model.WorkStream{}, "name = ? AND program_id = ?", w.Name, programID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			ws := &model.WorkStream{Name: w.Name, ProgramID: programID}
			ws.ApplyDefaults()
			if err := tx.Create(ws).Error; err != nil {
				return err
			}
			stats.WorkStreams++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func rowExists(tx *gorm.DB, m interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := tx.Model(m).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
