package service

import (
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/util"
	"agri_training_backend/pkg/logger"
	"agri_training_backend/pkg/monitoring"
	"agri_training_backend/pkg/tracing"
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	uploadOK       = "ok"
	uploadRejected = "rejected"
	uploadFailed   = "failed"
)

// ContentService 管理员上传和删除培训资料
type ContentService struct {
	Storage *StorageService
	// Probe 读取视频元数据，默认使用 ffprobe
	Probe func(path string) (*model.VideoMeta, error)
}

func NewContentService(storage *StorageService) *ContentService {
	return &ContentService{Storage: storage, Probe: util.ProbeVideo}
}

// target 校验 program/category/filename，失败时不触碰存储
func target(program, category, filename string) (*model.CatalogEntry, error) {
	p, err := ParseProgram(program)
	if err != nil {
		return nil, err
	}
	c, err := ParseCategory(category)
	if err != nil {
		return nil, err
	}
	name, err := util.SanitizeFilename(filename)
	if err != nil {
		return nil, err
	}
	return &model.CatalogEntry{Program: p, Category: c, Filename: name, Extension: util.Ext(name)}, nil
}

// Upload 同名文件直接覆盖；.json/.xlsx 测验先校验再写入；视频探测失败只记录日志
func (s *ContentService) Upload(ctx context.Context, program, category, filename string, reader io.Reader, size int64) (*model.UploadResult, error) {
	ctx, span := tracing.StartSpan(ctx, "content.Upload",
		attribute.String("program", program),
		attribute.String("category", category),
		attribute.String("filename", filename))
	defer span.End()

	entry, err := target(program, category, filename)
	if err != nil {
		monitoring.CatalogUploads.WithLabelValues("unknown", "unknown", uploadRejected).Inc()
		return nil, err
	}

	result, err := s.upload(ctx, entry, reader, size)
	outcome := uploadOK
	switch {
	case err == nil:
	case util.IsValidation(err):
		outcome = uploadRejected
	default:
		outcome = uploadFailed
		span.RecordError(err)
	}
	monitoring.CatalogUploads.WithLabelValues(string(entry.Program), string(entry.Category), outcome).Inc()
	if err != nil {
		logger.Log.Warn("Catalog upload failed",
			zap.String("key", entry.Key()),
			zap.String("result", outcome),
			zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Catalog file uploaded",
		zap.String("key", entry.Key()),
		zap.Int64("size", result.Entry.Size))
	return result, nil
}

func (s *ContentService) upload(ctx context.Context, entry *model.CatalogEntry, reader io.Reader, size int64) (*model.UploadResult, error) {
	if !AllowedExtension(entry.Category, entry.Extension) {
		return nil, util.NewValidationError("filename", "extension %q is not allowed for %s (allowed: %s)",
			entry.Extension, entry.Category, strings.Join(AllowedExtensions(entry.Category), ", "))
	}

	contentType := util.ContentTypeFor(entry.Extension)
	result := &model.UploadResult{}
	key := entry.Key()

	switch {
	case entry.Category == model.Quizzes && (entry.Extension == ".json" || entry.Extension == ".xlsx"):
		raw, err := io.ReadAll(io.LimitReader(reader, maxQuizBytes+1))
		if err != nil {
			return nil, err
		}
		if len(raw) > maxQuizBytes {
			return nil, util.NewValidationError("filename", "quiz file is too large")
		}
		if _, err := ParseQuiz(entry.Extension, bytes.NewReader(raw)); err != nil {
			return nil, err
		}
		if _, err := s.Storage.Upload(ctx, key, bytes.NewReader(raw), int64(len(raw)), contentType); err != nil {
			return nil, err
		}
		entry.Size = int64(len(raw))

	case entry.Extension == ".mp4":
		tmpPath, written, err := spool(reader)
		if err != nil {
			return nil, err
		}
		defer os.Remove(tmpPath)

		if meta, err := s.Probe(tmpPath); err != nil {
			logger.Log.Warn("Video probe failed", zap.String("key", key), zap.Error(err))
		} else {
			result.Video = meta
		}
		if _, err := s.Storage.UploadFile(ctx, key, tmpPath, contentType); err != nil {
			return nil, err
		}
		entry.Size = written

	default:
		counter := &countingReader{r: reader}
		if _, err := s.Storage.Upload(ctx, key, counter, size, contentType); err != nil {
			return nil, err
		}
		entry.Size = counter.n
	}

	entry.ModTime = time.Now()
	result.Entry = *entry
	result.URL = FileURL(*entry)
	return result, nil
}

// Delete 文件不存在返回 util.ErrNotFound，目录保持不变
func (s *ContentService) Delete(ctx context.Context, program, category, filename string) error {
	entry, err := target(program, category, filename)
	if err != nil {
		return err
	}
	if err := s.Storage.Delete(ctx, entry.Key()); err != nil {
		return err
	}
	logger.Log.Info("Catalog file deleted", zap.String("key", entry.Key()))
	return nil
}

// spool 把上传内容写到临时文件，ffprobe 需要本地路径
func spool(reader io.Reader) (string, int64, error) {
	tmp, err := os.CreateTemp("", "agri-upload-*.mp4")
	if err != nil {
		return "", 0, &util.StorageError{Op: "spool", Key: "tmp", Err: err}
	}
	n, err := io.Copy(tmp, reader)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", 0, &util.StorageError{Op: "spool", Key: tmp.Name(), Err: err}
	}
	return tmp.Name(), n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
