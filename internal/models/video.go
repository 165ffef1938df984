package models

import "time"

// VideoType enumerates supported video kinds.
type VideoType string

const (
	VideoTypeLecture    VideoType = "lecture"
	VideoTypeYouTube    VideoType = "youtube"
	VideoTypeLiveStream VideoType = "live-stream"
)

// ValidVideoType reports whether the raw value is a known video type.
func ValidVideoType(raw string) bool {
	switch VideoType(raw) {
	case VideoTypeLecture, VideoTypeYouTube, VideoTypeLiveStream:
		return true
	}
	return false
}

// Video represents a piece of course video content.
type Video struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course"`
	UploadedBy  string    `db:"uploaded_by" json:"uploadedBy"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	Type        VideoType `db:"type" json:"type"`
	URL         string    `db:"url" json:"url"`
	Language    string    `db:"language" json:"language,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// VideoDetail expands the uploader and course references.
type VideoDetail struct {
	Video
	Uploader    *UserSummary `json:"uploaderInfo,omitempty"`
	CourseTitle string       `db:"course_title" json:"courseTitle,omitempty"`
}

// VideoFilter captures filtering criteria for listing videos.
type VideoFilter struct {
	Type     string
	Language string
	CourseID string
	Page     int
	Limit    int
}
