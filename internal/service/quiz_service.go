package service

import (
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/repository"
	"agri_training_backend/internal/util"
	"agri_training_backend/pkg/logger"
	"agri_training_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// 测验文件一般只有几 KB，超过这个大小直接拒绝
const maxQuizBytes = 8 << 20

type rawQuiz struct {
	Title     string         `json:"title"`
	Questions *[]rawQuestion `json:"questions"`
}

type rawQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   *string  `json:"answer"`
}

// ParseQuizJSON 解析 {title, questions:[{question, options, answer}]}
func ParseQuizJSON(r io.Reader) (*model.QuizDefinition, error) {
	var raw rawQuiz
	dec := json.NewDecoder(io.LimitReader(r, maxQuizBytes))
	if err := dec.Decode(&raw); err != nil {
		return nil, util.NewValidationError("quiz", "malformed quiz JSON: %v", err)
	}
	if raw.Questions == nil {
		return nil, util.NewValidationError("questions", "is required")
	}

	def := &model.QuizDefinition{
		Title:     strings.TrimSpace(raw.Title),
		Questions: make([]model.QuizQuestion, 0, len(*raw.Questions)),
	}
	for i, q := range *raw.Questions {
		if q.Answer == nil {
			return nil, util.NewValidationError(fmt.Sprintf("questions[%d].answer", i), "is required")
		}
		def.Questions = append(def.Questions, model.QuizQuestion{
			Text:    strings.TrimSpace(q.Question),
			Options: q.Options,
			Answer:  *q.Answer,
		})
	}

	if err := ValidateQuiz(def); err != nil {
		return nil, err
	}
	return def, nil
}

// ParseQuizXLSX 读取第一个工作表：每行是 题目, 选项..., 答案（最后一个非空单元格）
func ParseQuizXLSX(r io.Reader) (*model.QuizDefinition, error) {
	f, err := excelize.OpenReader(io.LimitReader(r, maxQuizBytes))
	if err != nil {
		return nil, util.NewValidationError("quiz", "malformed quiz spreadsheet: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, util.NewValidationError("quiz", "spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, util.NewValidationError("quiz", "read sheet %q: %v", sheets[0], err)
	}

	def := &model.QuizDefinition{Title: sheets[0], Questions: []model.QuizQuestion{}}
	for i, row := range rows {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, strings.TrimSpace(cell))
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		if len(cells) == 0 {
			continue
		}
		// 可选的表头行
		if i == 0 && strings.EqualFold(cells[0], "question") {
			continue
		}

		if len(cells) < 3 {
			return nil, util.NewValidationError(fmt.Sprintf("row %d", i+1), "needs a question, at least one option and an answer")
		}
		options := make([]string, 0, len(cells)-2)
		for _, opt := range cells[1 : len(cells)-1] {
			if opt != "" {
				options = append(options, opt)
			}
		}
		def.Questions = append(def.Questions, model.QuizQuestion{
			Text:    cells[0],
			Options: options,
			Answer:  cells[len(cells)-1],
		})
	}

	if err := ValidateQuiz(def); err != nil {
		return nil, err
	}
	return def, nil
}

// ValidateQuiz 每题需要题干、至少一个选项，答案必须是选项之一
func ValidateQuiz(def *model.QuizDefinition) error {
	for i, q := range def.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(q.Text) == "" {
			return util.NewValidationError(field, "question text is empty")
		}
		if len(q.Options) == 0 {
			return util.NewValidationError(field, "has no options")
		}
		if !containsString(q.Options, q.Answer) {
			return util.NewValidationError(field, "answer %q is not one of the options", q.Answer)
		}
	}
	return nil
}

// ParseQuiz 按扩展名选择解析器
func ParseQuiz(ext string, r io.Reader) (*model.QuizDefinition, error) {
	switch ext {
	case ".json":
		return ParseQuizJSON(r)
	case ".xlsx":
		return ParseQuizXLSX(r)
	default:
		return nil, util.NewValidationError("filename", "%s is not a quiz format", ext)
	}
}

// ScoreQuiz 越界题号和不在选项中的选择按未作答处理
func ScoreQuiz(def *model.QuizDefinition, attempt model.QuizAttempt) model.QuizScore {
	result := model.QuizScore{Total: len(def.Questions)}
	for idx, selection := range attempt {
		if idx < 0 || idx >= len(def.Questions) {
			continue
		}
		q := def.Questions[idx]
		if !containsString(q.Options, selection) {
			continue
		}
		result.Answered++
		if selection == q.Answer {
			result.Score++
		}
	}

	if result.Total == 0 {
		result.Empty = true
		return result
	}
	ratio := float64(result.Score) / float64(result.Total)
	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}
	result.Ratio = ratio
	return result
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// QuizService 从 quizzes 目录加载测验并评分
type QuizService struct {
	Storage *StorageService
	Records *repository.QuizRecordRepository
}

func NewQuizService(storage *StorageService, records *repository.QuizRecordRepository) *QuizService {
	return &QuizService{Storage: storage, Records: records}
}

// Load 读取 program/quizzes/filename
func (s *QuizService) Load(ctx context.Context, program model.ProgramKey, filename string) (*model.QuizDefinition, *model.CatalogEntry, error) {
	name, err := util.SanitizeFilename(filename)
	if err != nil {
		return nil, nil, err
	}
	ext := util.Ext(name)
	if ext != ".json" && ext != ".xlsx" {
		return nil, nil, util.NewValidationError("filename", "%s is not a quiz format", ext)
	}

	entry := &model.CatalogEntry{Program: program, Category: model.Quizzes, Filename: name, Extension: ext}
	def, err := s.LoadEntry(ctx, entry)
	if err != nil {
		return nil, nil, err
	}
	return def, entry, nil
}

// LoadEntry 读取已知的目录项，同时补全大小和修改时间
func (s *QuizService) LoadEntry(ctx context.Context, entry *model.CatalogEntry) (*model.QuizDefinition, error) {
	body, info, err := s.Storage.Open(ctx, entry.Key())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	entry.Size = info.Size
	entry.ModTime = info.ModTime
	return ParseQuiz(entry.Extension, body)
}

// SubmitResult 评分结果，Record 只在有会话时存在
type SubmitResult struct {
	model.QuizScore
	Record   *model.QuizRecord     `json:"record,omitempty"`
	Progress *model.ProgressUpdate `json:"progress,omitempty"`
}

// Submit 评分并在有身份时保存记录
func (s *QuizService) Submit(ctx context.Context, program model.ProgramKey, filename string, attempt model.QuizAttempt, identity *model.Identity) (*SubmitResult, *model.CatalogEntry, error) {
	def, entry, err := s.Load(ctx, program, filename)
	if err != nil {
		return nil, nil, err
	}

	score := ScoreQuiz(def, attempt)
	monitoring.QuizScored.WithLabelValues(string(program)).Inc()
	result := &SubmitResult{QuizScore: score}

	if identity != nil && s.Records != nil {
		answers, err := json.Marshal(attempt)
		if err != nil {
			return nil, nil, err
		}
		record := &model.QuizRecord{
			Subject:    identity.Subject,
			EmployeeID: EmployeeRef(identity),
			Program:    program,
			QuizFile:   entry.Filename,
			Score:      score.Score,
			Total:      score.Total,
			Answers:    datatypes.JSON(answers),
		}
		if err := s.Records.Create(ctx, record); err != nil {
			return nil, nil, err
		}
		result.Record = record
		logger.Log.Info("Quiz record saved",
			zap.String("subject", identity.Subject),
			zap.String("quiz", entry.Key()),
			zap.Int("score", score.Score),
			zap.Int("total", score.Total))
	}
	return result, entry, nil
}

// History 管理员看全部记录，成员只看自己的
func (s *QuizService) History(ctx context.Context, identity *model.Identity, limit int) ([]model.QuizRecord, error) {
	if identity.IsAdmin() {
		return s.Records.ListAll(ctx, limit)
	}
	return s.Records.ListBySubject(ctx, identity.Subject, limit)
}
