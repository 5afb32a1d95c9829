package middleware

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-relations/internal/application"
	"github.com/oksasatya/go-user-relations/pkg/response"
)

const uploadKeyPrefix = "upload."

// multipart overhead allowed on top of the file itself
const formSlack = 1 << 20

// SingleFile parses a multipart body and lifts the optional image in field
// into the context as *application.Upload. Non-image or oversize files are rejected with 400.
func SingleFile(field string, maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			c.Next()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+formSlack)

		fh, err := c.FormFile(field)
		if err != nil {
			var tooLarge *http.MaxBytesError
			switch {
			case errors.Is(err, http.ErrMissingFile):
				c.Next()
			case errors.As(err, &tooLarge):
				response.Error[any](c, http.StatusBadRequest, "file too large", map[string]string{field: "file too large"})
				c.Abort()
			default:
				response.Error[any](c, http.StatusBadRequest, "invalid multipart body", nil)
				c.Abort()
			}
			return
		}
		if fh.Size > maxBytes {
			response.Error[any](c, http.StatusBadRequest, "file too large", map[string]string{field: "file too large"})
			c.Abort()
			return
		}
		ct, err := sniff(fh)
		if err != nil || !strings.HasPrefix(ct, "image/") {
			response.Error[any](c, http.StatusBadRequest, "only image files are allowed", map[string]string{field: "must be an image"})
			c.Abort()
			return
		}

		c.Set(uploadKeyPrefix+field, &application.Upload{
			Filename:    fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
		c.Next()
	}
}

// UploadFrom returns the file SingleFile stored for field, if any.
func UploadFrom(c *gin.Context, field string) *application.Upload {
	v, ok := c.Get(uploadKeyPrefix + field)
	if !ok {
		return nil
	}
	up, _ := v.(*application.Upload)
	return up
}

func sniff(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
