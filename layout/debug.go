package layout

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// WriteDebugJSON 将布局结果输出为 JSON，便于核对字号与逐字坐标。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
