package model

import (
	"time"
)

// ProgramKey 划分培训资料目录的农业项目
type ProgramKey string

const (
	Cotton ProgramKey = "cotton"
	Dairy  ProgramKey = "dairy"
)

var ProgramKeys = []ProgramKey{Cotton, Dairy}

// Category 资料类型，对应目录名
type Category string

const (
	Presentations Category = "presentations"
	Videos        Category = "videos"
	Audios        Category = "audios"
	Quizzes       Category = "quizzes"
)

var Categories = []Category{Presentations, Videos, Audios, Quizzes}

// 旧版短名称
var CategoryAliases = map[string]Category{
	"ppt":   Presentations,
	"video": Videos,
	"audio": Audios,
	"quiz":  Quizzes,
}

// CatalogEntry 的身份是完整路径 program/category/filename
// swagger:model CatalogEntry
type CatalogEntry struct {
	Program   ProgramKey `json:"program"`
	Category  Category   `json:"category"`
	Filename  string     `json:"filename"`
	Extension string     `json:"extension"`
	Size      int64      `json:"size"`
	ModTime   time.Time  `json:"modTime"`
}

func (e CatalogEntry) Key() string {
	return string(e.Program) + "/" + string(e.Category) + "/" + e.Filename
}

type RenderKind string

const (
	RenderDownload RenderKind = "download"
	RenderVideo    RenderKind = "video"
	RenderAudio    RenderKind = "audio"
	RenderImage    RenderKind = "image"
	RenderQuiz     RenderKind = "quiz"
	RenderData     RenderKind = "data"
)

// RenderedItem 前端据此绘制下载按钮、播放器、图片或测验表单
// swagger:model RenderedItem
type RenderedItem struct {
	Kind       RenderKind   `json:"kind"`
	Filename   string       `json:"filename"`
	URL        string       `json:"url"`
	PreviewURL string       `json:"previewUrl,omitempty"`
	Size       int64        `json:"size"`
	Quiz       *QuizView    `json:"quiz,omitempty"`
	Data       interface{}  `json:"data,omitempty"`
	Entry      CatalogEntry `json:"-"`
}

// swagger:model CatalogListing
type CatalogListing struct {
	Program  ProgramKey     `json:"program"`
	Category Category       `json:"category"`
	Empty    bool           `json:"empty"`
	Notice   string         `json:"notice,omitempty"`
	Entries  []CatalogEntry `json:"-"`
	Items    []RenderedItem `json:"items"`
}

// VideoMeta 上传视频时通过 ffprobe 获取的信息
type VideoMeta struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Format   string  `json:"format"`
}

// UploadResult 管理员上传的返回
// swagger:model UploadResult
type UploadResult struct {
	Entry CatalogEntry `json:"entry"`
	URL   string       `json:"url"`
	Video *VideoMeta   `json:"video,omitempty"`
}

// CategorySummary 首页目录中每个分类的文件数
type CategorySummary struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// swagger:model ProgramSummary
type ProgramSummary struct {
	Program    ProgramKey        `json:"program"`
	Categories []CategorySummary `json:"categories"`
}
