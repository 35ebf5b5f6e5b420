package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	MimeOctetStream = "application/octet-stream"
	MimeJSON        = "application/json"
)

// 扩展名对应的 Content-Type
var ContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".mp4":  "video/mp4",
	".mp3":  "audio/mpeg",
	".json": MimeJSON,
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

func ContentTypeFor(ext string) string {
	if ct, ok := ContentTypes[ext]; ok {
		return ct
	}
	return MimeOctetStream
}
