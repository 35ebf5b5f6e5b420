package service

import (
	"agri_training_backend/internal/config"
	"agri_training_backend/internal/util"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectInfo 描述目录（前缀）下的一个文件
type ObjectInfo struct {
	Key     string
	Name    string
	Size    int64
	ModTime time.Time
}

// StorageProvider 定义通用存储接口，key 形如 program/category/filename
type StorageProvider interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error)
	// List 返回前缀下的直接文件；前缀不存在时返回 util.ErrNotFound
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Open 打开对象；本地和 MinIO 返回的 reader 同时实现 io.Seeker
	Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	GetURL(key string) string
}

// LocalStorageProvider 本地存储实现，目录结构即 catalog 结构
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) path(key string) string {
	return filepath.Join(p.Config.LocalPath, filepath.FromSlash(path.Clean("/"+key)))
}

func (p *LocalStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := p.path(key)
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &util.StorageError{Op: "mkdir", Key: key, Err: err}
	}

	// 先写临时文件再 rename，失败时不会留下半截文件
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", &util.StorageError{Op: "write", Key: key, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", &util.StorageError{Op: "write", Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", &util.StorageError{Op: "write", Key: key, Err: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return "", &util.StorageError{Op: "write", Key: key, Err: err}
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return "", &util.StorageError{Op: "write", Key: key, Err: err}
	}

	return p.GetURL(key), nil
}

func (p *LocalStorageProvider) UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error) {
	if localPath == p.path(key) {
		return p.GetURL(key), nil
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", &util.StorageError{Op: "read", Key: localPath, Err: err}
	}
	defer src.Close()

	return p.Upload(ctx, key, src, -1, contentType)
}

func (p *LocalStorageProvider) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	entries, err := os.ReadDir(p.path(prefix))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, util.ErrNotFound
		}
		return nil, &util.StorageError{Op: "list", Key: prefix, Err: err}
	}

	objects := make([]ObjectInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		objects = append(objects, ObjectInfo{
			Key:     path.Join(prefix, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return objects, nil
}

func (p *LocalStorageProvider) Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	f, err := os.Open(p.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, util.ErrNotFound
		}
		return nil, nil, &util.StorageError{Op: "read", Key: key, Err: err}
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, &util.StorageError{Op: "stat", Key: key, Err: err}
	}
	if stat.IsDir() {
		f.Close()
		return nil, nil, util.ErrNotFound
	}
	return f, &ObjectInfo{Key: key, Name: stat.Name(), Size: stat.Size(), ModTime: stat.ModTime()}, nil
}

func (p *LocalStorageProvider) Delete(ctx context.Context, key string) error {
	if err := os.Remove(p.path(key)); err != nil {
		if os.IsNotExist(err) {
			return util.ErrNotFound
		}
		return &util.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (p *LocalStorageProvider) GetURL(key string) string {
	return "/uploads/" + escapeKey(key)
}

// MinioStorageProvider MinIO存储实现
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func isMinioNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

func (p *MinioStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", &util.StorageError{Op: "write", Key: key, Err: err}
	}
	return p.GetURL(key), nil
}

func (p *MinioStorageProvider) UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error) {
	_, err := p.Client.FPutObject(ctx, p.Config.MinioBucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", &util.StorageError{Op: "write", Key: key, Err: err}
	}
	return p.GetURL(key), nil
}

func (p *MinioStorageProvider) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for obj := range p.Client.ListObjects(ctx, p.Config.MinioBucket, minio.ListObjectsOptions{
		Prefix:    strings.TrimSuffix(prefix, "/") + "/",
		Recursive: false,
	}) {
		if obj.Err != nil {
			return nil, &util.StorageError{Op: "list", Key: prefix, Err: obj.Err}
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		objects = append(objects, ObjectInfo{
			Key:     obj.Key,
			Name:    path.Base(obj.Key),
			Size:    obj.Size,
			ModTime: obj.LastModified,
		})
	}
	// 对象存储没有真正的目录，前缀下没有对象视为目录不存在
	if len(objects) == 0 {
		return nil, util.ErrNotFound
	}
	return objects, nil
}

func (p *MinioStorageProvider) Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	obj, err := p.Client.GetObject(ctx, p.Config.MinioBucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, &util.StorageError{Op: "read", Key: key, Err: err}
	}
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		if isMinioNotFound(err) {
			return nil, nil, util.ErrNotFound
		}
		return nil, nil, &util.StorageError{Op: "stat", Key: key, Err: err}
	}
	return obj, &ObjectInfo{Key: key, Name: path.Base(key), Size: stat.Size, ModTime: stat.LastModified}, nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, key string) error {
	if _, err := p.Client.StatObject(ctx, p.Config.MinioBucket, key, minio.StatObjectOptions{}); err != nil {
		if isMinioNotFound(err) {
			return util.ErrNotFound
		}
		return &util.StorageError{Op: "stat", Key: key, Err: err}
	}
	if err := p.Client.RemoveObject(ctx, p.Config.MinioBucket, key, minio.RemoveObjectOptions{}); err != nil {
		return &util.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (p *MinioStorageProvider) GetURL(key string) string {
	return "/" + p.Config.MinioBucket + "/" + escapeKey(key)
}

// OSSStorageProvider 阿里云OSS存储实现
type OSSStorageProvider struct {
	Config *config.StorageConfig
	Client *oss.Client
}

func NewOSSStorageProvider(cfg *config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Config: cfg, Client: client}, nil
}

func (p *OSSStorageProvider) bucket(key string) (*oss.Bucket, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return nil, &util.StorageError{Op: "bucket", Key: key, Err: err}
	}
	return bucket, nil
}

func (p *OSSStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	bucket, err := p.bucket(key)
	if err != nil {
		return "", err
	}
	if err := bucket.PutObject(key, reader, oss.ContentType(contentType)); err != nil {
		return "", &util.StorageError{Op: "write", Key: key, Err: err}
	}
	return p.GetURL(key), nil
}

func (p *OSSStorageProvider) UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error) {
	bucket, err := p.bucket(key)
	if err != nil {
		return "", err
	}
	if err := bucket.PutObjectFromFile(key, localPath, oss.ContentType(contentType)); err != nil {
		return "", &util.StorageError{Op: "write", Key: key, Err: err}
	}
	return p.GetURL(key), nil
}

func (p *OSSStorageProvider) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	bucket, err := p.bucket(prefix)
	if err != nil {
		return nil, err
	}
	result, err := bucket.ListObjects(
		oss.Prefix(strings.TrimSuffix(prefix, "/")+"/"),
		oss.Delimiter("/"),
		oss.MaxKeys(1000),
	)
	if err != nil {
		return nil, &util.StorageError{Op: "list", Key: prefix, Err: err}
	}

	objects := make([]ObjectInfo, 0, len(result.Objects))
	for _, obj := range result.Objects {
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		objects = append(objects, ObjectInfo{
			Key:     obj.Key,
			Name:    path.Base(obj.Key),
			Size:    obj.Size,
			ModTime: obj.LastModified,
		})
	}
	if len(objects) == 0 {
		return nil, util.ErrNotFound
	}
	return objects, nil
}

func (p *OSSStorageProvider) Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	bucket, err := p.bucket(key)
	if err != nil {
		return nil, nil, err
	}
	meta, err := bucket.GetObjectMeta(key)
	if err != nil {
		var svcErr oss.ServiceError
		if errors.As(err, &svcErr) && svcErr.StatusCode == 404 {
			return nil, nil, util.ErrNotFound
		}
		return nil, nil, &util.StorageError{Op: "stat", Key: key, Err: err}
	}
	body, err := bucket.GetObject(key)
	if err != nil {
		return nil, nil, &util.StorageError{Op: "read", Key: key, Err: err}
	}

	info := &ObjectInfo{Key: key, Name: path.Base(key)}
	if size, err := strconv.ParseInt(meta.Get("Content-Length"), 10, 64); err == nil {
		info.Size = size
	}
	if modTime, err := time.Parse(time.RFC1123, meta.Get("Last-Modified")); err == nil {
		info.ModTime = modTime
	}
	return body, info, nil
}

func (p *OSSStorageProvider) Delete(ctx context.Context, key string) error {
	bucket, err := p.bucket(key)
	if err != nil {
		return err
	}
	exists, err := bucket.IsObjectExist(key)
	if err != nil {
		return &util.StorageError{Op: "stat", Key: key, Err: err}
	}
	if !exists {
		return util.ErrNotFound
	}
	if err := bucket.DeleteObject(key); err != nil {
		return &util.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (p *OSSStorageProvider) GetURL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", p.Config.OSSBucket, p.Config.OSSEndpoint, escapeKey(key))
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// StorageService 存储服务
type StorageService struct {
	Provider StorageProvider
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	var provider StorageProvider
	switch cfg.Storage.Type {
	case util.StorageMinio:
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("init minio storage: %w", err)
		}
		provider = p
	case util.StorageOSS:
		p, err := NewOSSStorageProvider(&cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("init oss storage: %w", err)
		}
		provider = p
	case util.StorageLocal, "":
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}

	return &StorageService{Provider: provider}, nil
}

func (s *StorageService) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	return s.Provider.Upload(ctx, key, reader, size, contentType)
}

func (s *StorageService) UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error) {
	return s.Provider.UploadFile(ctx, key, localPath, contentType)
}

// List 按文件名字典序返回，保证不同存储后端顺序一致
func (s *StorageService) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	objects, err := s.Provider.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Name < objects[j].Name
	})
	return objects, nil
}

func (s *StorageService) Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	return s.Provider.Open(ctx, key)
}

func (s *StorageService) Delete(ctx context.Context, key string) error {
	return s.Provider.Delete(ctx, key)
}

func (s *StorageService) GetURL(key string) string {
	return s.Provider.GetURL(key)
}
