package descriptor

import (
	"mime"
	"path/filepath"
	"strings"
)

// CheckUpload 在解析之前校验上传文件类型
// 浏览器未给出类型（或给出 application/octet-stream）时退回到扩展名判断
func CheckUpload(filename, contentType string) error {
	mediaType := ""
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			mediaType = strings.ToLower(mt)
		}
	}
	switch mediaType {
	case "application/json":
		return nil
	case "", "application/octet-stream":
		if strings.EqualFold(filepath.Ext(filename), ".json") {
			return nil
		}
	}
	return ErrNotJSONFile
}
