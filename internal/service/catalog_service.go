package service

import (
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/util"
	"agri_training_backend/pkg/logger"
	"agri_training_backend/pkg/tracing"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/disintegration/imaging"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	NoticeNoContent = "No content found for this category."
	NoticeNoFiles   = "No files available."

	PreviewMinWidth     = 32
	PreviewMaxWidth     = 1920
	PreviewDefaultWidth = 480

	maxDataBytes = 4 << 20
)

// 各分类允许上传的扩展名
var categoryExtensions = map[model.Category][]string{
	model.Presentations: {".pptx", ".pdf"},
	model.Videos:        {".mp4"},
	model.Audios:        {".mp3"},
	model.Quizzes:       {".xlsx", ".json", ".png", ".jpg", ".jpeg"},
}

// 任何分类都接受的扩展名
var universalExtensions = []string{".xlsx", ".png", ".jpg", ".jpeg"}

func ParseProgram(s string) (model.ProgramKey, error) {
	v := model.ProgramKey(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range model.ProgramKeys {
		if p == v {
			return p, nil
		}
	}
	return "", util.NewValidationError("program", "unknown program %q", s)
}

// ParseCategory 同时接受旧的短名称
func ParseCategory(s string) (model.Category, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, c := range model.Categories {
		if string(c) == v {
			return c, nil
		}
	}
	if c, ok := model.CategoryAliases[v]; ok {
		return c, nil
	}
	return "", util.NewValidationError("category", "unknown category %q", s)
}

func Dir(program model.ProgramKey, category model.Category) string {
	return string(program) + "/" + string(category)
}

func CatalogKey(program model.ProgramKey, category model.Category, filename string) string {
	return Dir(program, category) + "/" + filename
}

// AllowedExtension 分类表与通用集合的并集
func AllowedExtension(category model.Category, ext string) bool {
	return containsString(categoryExtensions[category], ext) || containsString(universalExtensions, ext)
}

// AllowedExtensions 用于错误提示
func AllowedExtensions(category model.Category) []string {
	exts := append([]string{}, categoryExtensions[category]...)
	for _, ext := range universalExtensions {
		if !containsString(exts, ext) {
			exts = append(exts, ext)
		}
	}
	return exts
}

// RenderKindFor 未知扩展名返回 false，由调用方跳过
func RenderKindFor(category model.Category, ext string) (model.RenderKind, bool) {
	switch ext {
	case ".pdf", ".pptx":
		return model.RenderDownload, true
	case ".mp4":
		return model.RenderVideo, true
	case ".mp3":
		return model.RenderAudio, true
	case ".png", ".jpg", ".jpeg":
		return model.RenderImage, true
	case ".json":
		if category == model.Quizzes {
			return model.RenderQuiz, true
		}
		return model.RenderData, true
	case ".xlsx":
		if category == model.Quizzes {
			return model.RenderQuiz, true
		}
		return model.RenderDownload, true
	}
	return "", false
}

// FileURL 是文件流接口的地址
func FileURL(entry model.CatalogEntry) string {
	return "/api/catalog/" + string(entry.Program) + "/" + string(entry.Category) + "/files/" + url.PathEscape(entry.Filename)
}

func PreviewURL(entry model.CatalogEntry) string {
	return FileURL(entry) + "/preview"
}

// ClampPreviewWidth 0 表示使用默认宽度
func ClampPreviewWidth(width int) int {
	switch {
	case width == 0:
		return PreviewDefaultWidth
	case width < PreviewMinWidth:
		return PreviewMinWidth
	case width > PreviewMaxWidth:
		return PreviewMaxWidth
	}
	return width
}

// CatalogService 按 program/category 浏览培训资料
type CatalogService struct {
	Storage *StorageService
	Quiz    *QuizService
}

func NewCatalogService(storage *StorageService, quiz *QuizService) *CatalogService {
	return &CatalogService{Storage: storage, Quiz: quiz}
}

// Entries 列出目录下合法的文件，目录不存在返回 util.ErrNotFound
func (s *CatalogService) Entries(ctx context.Context, program model.ProgramKey, category model.Category) ([]model.CatalogEntry, error) {
	objects, err := s.Storage.List(ctx, Dir(program, category))
	if err != nil {
		return nil, err
	}

	entries := make([]model.CatalogEntry, 0, len(objects))
	for _, obj := range objects {
		if _, err := util.SanitizeFilename(obj.Name); err != nil {
			continue
		}
		ext := util.Ext(obj.Name)
		if !AllowedExtension(category, ext) {
			continue
		}
		entries = append(entries, model.CatalogEntry{
			Program:   program,
			Category:  category,
			Filename:  obj.Name,
			Extension: ext,
			Size:      obj.Size,
			ModTime:   obj.ModTime,
		})
	}
	return entries, nil
}

// List 没有内容不是错误，返回 Empty 和提示文字
func (s *CatalogService) List(ctx context.Context, program model.ProgramKey, category model.Category) (*model.CatalogListing, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.List",
		attribute.String("program", string(program)),
		attribute.String("category", string(category)))
	defer span.End()

	listing := &model.CatalogListing{
		Program:  program,
		Category: category,
		Entries:  []model.CatalogEntry{},
		Items:    []model.RenderedItem{},
	}

	entries, err := s.Entries(ctx, program, category)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			listing.Empty = true
			listing.Notice = NoticeNoContent
			return listing, nil
		}
		span.RecordError(err)
		return nil, err
	}
	if len(entries) == 0 {
		listing.Empty = true
		listing.Notice = NoticeNoFiles
		return listing, nil
	}

	listing.Entries = entries
	for _, entry := range entries {
		item, ok := s.Render(ctx, entry)
		if !ok {
			continue
		}
		listing.Items = append(listing.Items, *item)
	}
	span.SetAttributes(attribute.Int("items", len(listing.Items)))
	return listing, nil
}

// Render 生成单个文件的展示描述；测验或数据文件无效时记录日志并跳过
func (s *CatalogService) Render(ctx context.Context, entry model.CatalogEntry) (*model.RenderedItem, bool) {
	kind, ok := RenderKindFor(entry.Category, entry.Extension)
	if !ok {
		return nil, false
	}

	item := &model.RenderedItem{
		Kind:     kind,
		Filename: entry.Filename,
		URL:      FileURL(entry),
		Size:     entry.Size,
		Entry:    entry,
	}

	switch kind {
	case model.RenderImage:
		item.PreviewURL = PreviewURL(entry)
	case model.RenderQuiz:
		def, err := s.Quiz.LoadEntry(ctx, &entry)
		if err != nil {
			logger.Log.Warn("Skipping invalid quiz file",
				zap.String("key", entry.Key()),
				zap.Error(err))
			return nil, false
		}
		item.Quiz = def.View()
	case model.RenderData:
		data, err := s.loadData(ctx, entry)
		if err != nil {
			logger.Log.Warn("Skipping unreadable data file",
				zap.String("key", entry.Key()),
				zap.Error(err))
			return nil, false
		}
		item.Data = data
	}
	return item, true
}

func (s *CatalogService) loadData(ctx context.Context, entry model.CatalogEntry) (interface{}, error) {
	body, _, err := s.Storage.Open(ctx, entry.Key())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var data interface{}
	if err := json.NewDecoder(io.LimitReader(body, maxDataBytes)).Decode(&data); err != nil {
		return nil, util.NewValidationError("data", "malformed JSON: %v", err)
	}
	return data, nil
}

// Overview 并发统计每个项目每个分类的文件数
func (s *CatalogService) Overview(ctx context.Context) ([]model.ProgramSummary, error) {
	summaries := make([]model.ProgramSummary, len(model.ProgramKeys))
	g, gctx := errgroup.WithContext(ctx)

	for i, program := range model.ProgramKeys {
		summaries[i] = model.ProgramSummary{
			Program:    program,
			Categories: make([]model.CategorySummary, len(model.Categories)),
		}
		for j, category := range model.Categories {
			i, j, program, category := i, j, program, category
			g.Go(func() error {
				entries, err := s.Entries(gctx, program, category)
				if err != nil && !errors.Is(err, util.ErrNotFound) {
					return err
				}
				summaries[i].Categories[j] = model.CategorySummary{Category: category, Count: len(entries)}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Open 只打开当前分类允许的文件，调用方负责关闭
func (s *CatalogService) Open(ctx context.Context, program model.ProgramKey, category model.Category, filename string) (io.ReadCloser, *model.CatalogEntry, error) {
	name, err := util.SanitizeFilename(filename)
	if err != nil {
		return nil, nil, err
	}
	ext := util.Ext(name)
	if !AllowedExtension(category, ext) {
		return nil, nil, util.ErrNotFound
	}

	entry := &model.CatalogEntry{Program: program, Category: category, Filename: name, Extension: ext}
	body, info, err := s.Storage.Open(ctx, entry.Key())
	if err != nil {
		return nil, nil, err
	}
	entry.Size = info.Size
	entry.ModTime = info.ModTime
	return body, entry, nil
}

// Preview 生成缩略图，不会放大比目标宽度更小的原图
func (s *CatalogService) Preview(ctx context.Context, program model.ProgramKey, category model.Category, filename string, width int) ([]byte, *model.CatalogEntry, error) {
	if !util.IsImageExt(util.Ext(filename)) {
		return nil, nil, util.NewValidationError("filename", "previews are only available for images")
	}

	body, entry, err := s.Open(ctx, program, category, filename)
	if err != nil {
		return nil, nil, err
	}
	defer body.Close()

	img, err := imaging.Decode(body, imaging.AutoOrientation(true))
	if err != nil {
		return nil, nil, util.NewValidationError("filename", "cannot decode image: %v", err)
	}

	width = ClampPreviewWidth(width)
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	format, err := imaging.FormatFromExtension(entry.Extension)
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), entry, nil
}
