/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics_writer.go
Description: Utility for writing run results as JSON. Files are placed in a
per-kind subdirectory and named with a timestamp so repeated runs never collide.
*/

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteResult writes result as indented JSON under dir/kind and returns the
// file path
func WriteResult(dir, kind string, result interface{}) (string, error) {
	if dir == "" {
		dir = "reports"
	}

	resultDir := filepath.Join(dir, kind)
	if err := os.MkdirAll(resultDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create result directory: %w", err)
	}

	// 2024-06-11_01-30-00.000_verify.json
	timestamp := time.Now().Format("2006-01-02_15-04-05.000")
	filePath := filepath.Join(resultDir, fmt.Sprintf("%s_%s.json", timestamp, kind))

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write result file: %w", err)
	}

	return filePath, nil
}
