package upload

import (
	"fmt"
	"math/rand"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
	"github.com/noah-isme/edu-platform-api/pkg/response"
	"github.com/noah-isme/edu-platform-api/pkg/storage"
)

const contextKey = "upload_result"

// FieldRule describes the validation policy for one upload field.
type FieldRule struct {
	// Field is the multipart form field name.
	Field string
	// Dir is the subdirectory files for this field land in.
	Dir string
	// MIMEPrefix, when set, requires the declared content type to match.
	MIMEPrefix string
	// Extensions, when set, whitelists file extensions (lower-case, with dot).
	Extensions []string
	// FailureMessage is returned on a rule violation.
	FailureMessage string
}

// Well-known fields, mirroring the upload policy of the platform.
var (
	ProfilePicture = FieldRule{
		Field:          "profilePicture",
		Dir:            "profiles",
		MIMEPrefix:     "image/",
		FailureMessage: "Only image files are allowed",
	}
	Video = FieldRule{
		Field:          "video",
		Dir:            "videos",
		MIMEPrefix:     "video/",
		FailureMessage: "Only video files are allowed",
	}
	AssignmentFile = FieldRule{
		Field:          "assignmentFile",
		Dir:            "assignments",
		Extensions:     []string{".pdf", ".doc", ".docx", ".txt", ".zip"},
		FailureMessage: "Invalid file type for assignment",
	}
)

// Result carries the stored file metadata into the handler.
type Result struct {
	Field       string
	Filename    string
	StoredPath  string
	URL         string
	Size        int64
	ContentType string
}

// Middleware validates and stores a single named file before the handler body
// runs. On success a Result is placed on the context; any violation terminates
// the request with a 400.
func Middleware(rule FieldRule, store *storage.LocalStorage, maxSize int64, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile(rule.Field)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "No file uploaded"))
			c.Abort()
			return
		}

		if maxSize > 0 && header.Size > maxSize {
			response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "File exceeds the maximum allowed size"))
			c.Abort()
			return
		}

		ext := strings.ToLower(filepath.Ext(header.Filename))
		contentType := header.Header.Get("Content-Type")

		if rule.MIMEPrefix != "" && !strings.HasPrefix(contentType, rule.MIMEPrefix) {
			response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, rule.FailureMessage))
			c.Abort()
			return
		}
		if len(rule.Extensions) > 0 && !containsExt(rule.Extensions, ext) {
			response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, rule.FailureMessage))
			c.Abort()
			return
		}

		src, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
			c.Abort()
			return
		}
		defer src.Close() //nolint:errcheck

		stored := path.Join(rule.Dir, uniqueName(rule.Field, ext))
		if _, err := store.SaveStream(stored, src); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload"))
			c.Abort()
			return
		}

		c.Set(contextKey, &Result{
			Field:       rule.Field,
			Filename:    header.Filename,
			StoredPath:  stored,
			URL:         fmt.Sprintf("%s/uploads/%s", strings.TrimRight(baseURL, "/"), stored),
			Size:        header.Size,
			ContentType: contentType,
		})

		c.Next()
	}
}

// FromContext returns the stored upload result, or nil when no upload stage ran.
func FromContext(c *gin.Context) *Result {
	value, exists := c.Get(contextKey)
	if !exists {
		return nil
	}
	result, ok := value.(*Result)
	if !ok {
		return nil
	}
	return result
}

func containsExt(allowed []string, ext string) bool {
	for _, a := range allowed {
		if a == ext {
			return true
		}
	}
	return false
}

func uniqueName(field, ext string) string {
	return fmt.Sprintf("%s-%d-%d%s", field, time.Now().UnixNano(), rand.Intn(1_000_000_000), ext)
}
