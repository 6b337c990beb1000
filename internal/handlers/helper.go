package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	archiveFormField = "archive"
	// Room for boundaries, part headers and other form fields around the archive.
	multipartOverhead = 1 << 20
)

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := c.Param(param)
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// readArchive returns the uploaded archive from the "archive" multipart field
// or, for any other content type, the raw request body. At most limit+1 bytes
// are read so an oversized upload is still detected without buffering all of it.
// Multipart bodies are parsed whole, so they are capped at limit plus
// multipartOverhead before parsing and fail with *http.MaxBytesError beyond it.
func readArchive(c *gin.Context, limit int64) ([]byte, error) {
	var src io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if limit > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
		}
		header, err := c.FormFile(archiveFormField)
		if err != nil {
			return nil, fmt.Errorf("missing %q form file: %w", archiveFormField, err)
		}
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		defer file.Close()
		src = file
	}
	if limit > 0 {
		src = io.LimitReader(src, limit+1)
	}
	return io.ReadAll(src)
}

// sendAttachment serves data as a download named filename.
func sendAttachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, contentType, data)
}
