package service

import (
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/repository"
	"agri_training_backend/internal/util"
	"context"
	"errors"

	"gorm.io/gorm"
)

// EntityModel 受 EntityService 管理的模型需要的方法（由 BaseModel 和 defaults.go 提供）
type EntityModel[T any] interface {
	*T
	GetID() uint
	SetID(id uint)
	ApplyDefaults()
}

// Reference 描述一个外键字段，ID 为 0 且 Optional 时跳过检查
type Reference struct {
	Field    string
	Model    interface{}
	ID       uint
	Optional bool
}

// EntityService PMU 通用增删改查：成员可读，管理员可写
type EntityService[T any, PT EntityModel[T]] struct {
	Name string
	Repo *repository.EntityRepository[T]
	db   *gorm.DB
	refs func(item *T) []Reference
}

func NewEntityService[T any, PT EntityModel[T]](db *gorm.DB, name string, refs func(item *T) []Reference) *EntityService[T, PT] {
	if refs == nil {
		refs = func(*T) []Reference { return nil }
	}
	return &EntityService[T, PT]{
		Name: name,
		Repo: repository.NewEntityRepository[T](db),
		db:   db,
		refs: refs,
	}
}

type EntityPage[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func (s *EntityService[T, PT]) List(ctx context.Context, page, limit int) (*EntityPage[T], error) {
	items, total, err := s.Repo.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return &EntityPage[T]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *EntityService[T, PT]) Get(ctx context.Context, id uint) (*T, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *EntityService[T, PT]) Create(ctx context.Context, item *T) (*T, error) {
	PT(item).SetID(0)
	PT(item).ApplyDefaults()
	if err := s.checkRefs(ctx, item); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, item); err != nil {
		return nil, translateWriteError(s.Name, err)
	}
	return s.Repo.FindByID(ctx, PT(item).GetID())
}

func (s *EntityService[T, PT]) Update(ctx context.Context, id uint, item *T) (*T, error) {
	if _, err := s.Repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	PT(item).SetID(id)
	PT(item).ApplyDefaults()
	if err := s.checkRefs(ctx, item); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, item); err != nil {
		return nil, translateWriteError(s.Name, err)
	}
	return s.Repo.FindByID(ctx, id)
}

func (s *EntityService[T, PT]) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return translateWriteError(s.Name, err)
	}
	return nil
}

func (s *EntityService[T, PT]) checkRefs(ctx context.Context, item *T) error {
	for _, ref := range s.refs(item) {
		if ref.ID == 0 {
			if ref.Optional {
				continue
			}
			return util.NewValidationError(ref.Field, "is required")
		}
		ok, err := repository.Exists(ctx, s.db, ref.Model, ref.ID)
		if err != nil {
			return err
		}
		if !ok {
			return util.NewValidationError(ref.Field, "references missing record %d", ref.ID)
		}
	}
	return nil
}

func translateWriteError(entity string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return util.NewValidationError(entity, "record is still referenced by other records")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return util.NewValidationError(entity, "record already exists")
	}
	return err
}

// PMUServices 汇总各实体服务
type PMUServices struct {
	Programs    *EntityService[model.Program, *model.Program]
	WorkStreams *EntityService[model.WorkStream, *model.WorkStream]
	WorkPlans   *EntityService[model.WorkPlan, *model.WorkPlan]
	Targets     *EntityService[model.Target, *model.Target]
	Schedules   *EntityService[model.Schedule, *model.Schedule]
	FieldTeams  *EntityService[model.FieldTeam, *model.FieldTeam]
	Tasks       *EntityService[model.Task, *model.Task]
	FarmerData  *EntityService[model.FarmerData, *model.FarmerData]
}

func NewPMUServices(db *gorm.DB) *PMUServices {
	return &PMUServices{
		Programs: NewEntityService[model.Program, *model.Program](db, "program", nil),
		WorkStreams: NewEntityService[model.WorkStream, *model.WorkStream](db, "workstream", func(w *model.WorkStream) []Reference {
			return []Reference{{Field: "programId", Model: &model.Program{}, ID: w.ProgramID}}
		}),
		WorkPlans: NewEntityService[model.WorkPlan, *model.WorkPlan](db, "workplan", func(w *model.WorkPlan) []Reference {
			return []Reference{
				{Field: "workStreamId", Model: &model.WorkStream{}, ID: w.WorkStreamID},
				{Field: "supervisorId", Model: &model.Employee{}, ID: w.SupervisorID},
			}
		}),
		Targets: NewEntityService[model.Target, *model.Target](db, "target", func(t *model.Target) []Reference {
			return []Reference{{Field: "workPlanId", Model: &model.WorkPlan{}, ID: t.WorkPlanID}}
		}),
		Schedules: NewEntityService[model.Schedule, *model.Schedule](db, "schedule", func(s *model.Schedule) []Reference {
			return []Reference{{Field: "employeeId", Model: &model.Employee{}, ID: s.EmployeeID}}
		}),
		FieldTeams: NewEntityService[model.FieldTeam, *model.FieldTeam](db, "field team", func(f *model.FieldTeam) []Reference {
			return []Reference{{Field: "leaderId", Model: &model.Employee{}, ID: f.LeaderID}}
		}),
		Tasks: NewEntityService[model.Task, *model.Task](db, "task", func(t *model.Task) []Reference {
			refs := []Reference{{Field: "fieldTeamId", Model: &model.FieldTeam{}, ID: t.FieldTeamID}}
			if t.AssigneeID != nil {
				refs = append(refs, Reference{Field: "assigneeId", Model: &model.Employee{}, ID: *t.AssigneeID, Optional: true})
			}
			return refs
		}),
		FarmerData: NewEntityService[model.FarmerData, *model.FarmerData](db, "farmer data", func(f *model.FarmerData) []Reference {
			return []Reference{{Field: "fieldTeamId", Model: &model.FieldTeam{}, ID: f.FieldTeamID}}
		}),
	}
}
