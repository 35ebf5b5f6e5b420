package util

import (
	"agri_training_backend/internal/model"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ProbeVideo 使用 ffprobe 读取视频元数据，需要系统安装 ffmpeg
func ProbeVideo(videoPath string) (*model.VideoMeta, error) {
	jsonOutput, err := ffmpeg.Probe(videoPath)
	if err != nil {
		return nil, fmt.Errorf("获取视频信息失败: %w", err)
	}
	return parseProbeOutput(jsonOutput)
}

func parseProbeOutput(jsonOutput string) (*model.VideoMeta, error) {
	var result struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
			Format   string `json:"format_name"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(jsonOutput), &result); err != nil {
		return nil, fmt.Errorf("解析视频信息失败: %w", err)
	}

	meta := &model.VideoMeta{Format: "unknown"}
	for _, stream := range result.Streams {
		if stream.CodecType == "video" {
			meta.Width = stream.Width
			meta.Height = stream.Height
			break
		}
	}
	if d, err := strconv.ParseFloat(result.Format.Duration, 64); err == nil {
		meta.Duration = d
	}
	if parts := strings.Split(result.Format.Format, ","); len(parts) > 0 && parts[0] != "" {
		meta.Format = parts[0]
	}
	return meta, nil
}
