package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"

	"Colabi/internal/config"
)

// ErrCredentials marks an upload failure caused by invalid or missing object
// storage credentials, which is finalized differently from ordinary errors.
var ErrCredentials = errors.New("object storage credentials rejected")

// Export formats accepted on task messages.
const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

// NormalizeColumns pads every column with nulls up to the longest column's
// length so each row is complete. Already-rectangular input is unchanged,
// which keeps the operation safe to repeat.
func NormalizeColumns(columns map[string][]any) {
	maxLength := 0
	for _, values := range columns {
		if len(values) > maxLength {
			maxLength = len(values)
		}
	}
	for key, values := range columns {
		for len(values) < maxLength {
			values = append(values, nil)
		}
		columns[key] = values
	}
}

// sortedKeys returns column names in a stable order for export.
func sortedKeys(columns map[string][]any) []string {
	keys := make([]string, 0, len(columns))
	for k := range columns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// ExportCSV renders the columns as a CSV document with a header row.
func ExportCSV(columns map[string][]any) ([]byte, error) {
	keys := sortedKeys(columns)
	if len(keys) == 0 {
		return nil, fmt.Errorf("export csv: no columns")
	}

	rows := 0
	for _, values := range columns {
		if len(values) > rows {
			rows = len(values)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(keys); err != nil {
		return nil, err
	}
	for i := 0; i < rows; i++ {
		record := make([]string, len(keys))
		for j, key := range keys {
			if i < len(columns[key]) {
				record[j] = cellString(columns[key][i])
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportXLSX renders the columns as a single-sheet workbook.
func ExportXLSX(columns map[string][]any) ([]byte, error) {
	keys := sortedKeys(columns)
	if len(keys) == 0 {
		return nil, fmt.Errorf("export xlsx: no columns")
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for j, key := range keys {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, key); err != nil {
			return nil, err
		}
		for i, value := range columns[key] {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Uploader writes exported task files to object storage and returns their
// public URLs.
type Uploader struct {
	client *minio.Client
	cfg    config.MinIOConfig
}

// NewUploader creates an uploader over the shared MinIO client.
func NewUploader(client *minio.Client, cfg config.MinIOConfig) *Uploader {
	return &Uploader{client: client, cfg: cfg}
}

// Upload stores the file under task_output/ with a generated name and
// returns the public URL. Credential rejections are reported as
// ErrCredentials.
func (u *Uploader) Upload(ctx context.Context, data []byte, format string) (string, error) {
	contentType := "text/csv"
	if format == ExportFormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	objectName := fmt.Sprintf("task_output/%s.%s", uuid.New().String(), format)

	_, err := u.client.PutObject(ctx, u.cfg.Bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		if isCredentialError(err) {
			return "", fmt.Errorf("%w: %v", ErrCredentials, err)
		}
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}

	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(u.cfg.PublicURL, "/"), u.cfg.Bucket, objectName), nil
}

func isCredentialError(err error) bool {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "InvalidAccessKeyId", "SignatureDoesNotMatch", "AccessDenied":
		return true
	}
	return false
}
