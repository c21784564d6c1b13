package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/mybot/internal/errors"
	"github.com/diogo/mybot/internal/models"
)

// MaxUploadSize caps a single document
const MaxUploadSize = 50 * 1024 * 1024 // 50MB

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// createFilePart adds a file part carrying its own content type
func createFilePart(w *multipart.Writer, field, fileName, contentType string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(field), quoteEscaper.Replace(fileName)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return w.CreatePart(h)
}

// detectMIMEType guesses a content type from the file extension
func detectMIMEType(path string) string {
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return mimeType
}

// IsSupportedDocument reports whether path has an accepted document extension
func IsSupportedDocument(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range models.DocumentExtensions() {
		if ext == supported {
			return true
		}
	}
	return false
}

// UploadFiles sends the documents at paths in one multipart request, one
// "files" part per document.
func (c *Client) UploadFiles(ctx context.Context, paths []string) (*models.UploadResult, error) {
	if len(paths) == 0 {
		return nil, apierrors.ErrNoFiles
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, path := range paths {
		if err := addDocument(writer, path); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, apierrors.NewUploadError(models.EndpointUploadFiles, fmt.Errorf("failed to finalize form: %w", err))
	}

	req, err := c.newRequest(ctx, models.EndpointUploadFiles, &body, writer.FormDataContentType())
	if err != nil {
		return nil, apierrors.NewUploadError(models.EndpointUploadFiles, err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, apierrors.NewUploadError(models.EndpointUploadFiles, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, apierrors.NewUploadStatusError(models.EndpointUploadFiles, resp.StatusCode, readErrorBody(resp.Body))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierrors.NewUploadError(models.EndpointUploadFiles, fmt.Errorf("failed to read response: %w", err))
	}

	result := parseUploadResult(respBody)
	c.logger.Info("documents uploaded", "files", len(paths), "stored", result.Count)
	return result, nil
}

func addDocument(writer *multipart.Writer, path string) error {
	name := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return apierrors.NewUploadFileError(models.EndpointUploadFiles, name, err)
	}
	if info.IsDir() {
		return apierrors.NewUploadFileError(models.EndpointUploadFiles, name, fmt.Errorf("is a directory"))
	}
	if info.Size() > MaxUploadSize {
		return apierrors.NewUploadFileError(models.EndpointUploadFiles, name,
			fmt.Errorf("file size exceeds maximum %d bytes", MaxUploadSize))
	}

	file, err := os.Open(path)
	if err != nil {
		return apierrors.NewUploadFileError(models.EndpointUploadFiles, name, err)
	}
	defer file.Close()

	part, err := createFilePart(writer, models.FieldFiles, name, detectMIMEType(path))
	if err != nil {
		return apierrors.NewUploadFileError(models.EndpointUploadFiles, name, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return apierrors.NewUploadFileError(models.EndpointUploadFiles, name, err)
	}
	return nil
}

// parseUploadResult reads {"uploaded_files": [...], "count": n}.
// Anything else yields an empty result, which displays the generic text.
func parseUploadResult(body []byte) *models.UploadResult {
	result := &models.UploadResult{}
	if !gjson.ValidBytes(body) {
		return result
	}

	gjson.GetBytes(body, "uploaded_files").ForEach(func(_, v gjson.Result) bool {
		if name := v.String(); name != "" {
			result.UploadedFiles = append(result.UploadedFiles, name)
		}
		return true
	})

	if count := gjson.GetBytes(body, "count"); count.Exists() {
		result.Count = int(count.Int())
	} else {
		result.Count = len(result.UploadedFiles)
	}
	return result
}
