package util

import (
	"path/filepath"
	"strings"
)

// SanitizeFilename 只接受纯文件名，拒绝路径分隔符、. 和 ..
func SanitizeFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError("filename", "filename is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", NewValidationError("filename", "invalid filename %q", name)
	}
	if strings.HasPrefix(name, ".") {
		return "", NewValidationError("filename", "hidden files are not allowed")
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if strings.TrimSpace(stem) == "" {
		return "", NewValidationError("filename", "invalid filename %q", name)
	}
	return name, nil
}

// Ext 返回小写扩展名（含点）
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

func IsImageExt(ext string) bool {
	switch ext {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
