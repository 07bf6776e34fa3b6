package models

import "strings"

// FileCategory is the content classification derived from a file's
// extension. It is computed once at upload time and never changes; the
// mapping is total, so recomputing it always agrees with the stored value.
type FileCategory string

const (
	CategoryImage    FileCategory = "image"
	CategoryVideo    FileCategory = "video"
	CategoryAudio    FileCategory = "audio"
	CategoryDocument FileCategory = "document"
	CategoryArchive  FileCategory = "archive"
	CategoryOther    FileCategory = "other"
)

var extensionCategories = map[string]FileCategory{
	"jpg": CategoryImage, "jpeg": CategoryImage, "png": CategoryImage,
	"gif": CategoryImage, "bmp": CategoryImage, "webp": CategoryImage,

	"mp4": CategoryVideo, "mov": CategoryVideo, "avi": CategoryVideo,
	"mkv": CategoryVideo, "webm": CategoryVideo,

	"mp3": CategoryAudio, "wav": CategoryAudio, "ogg": CategoryAudio,
	"aac": CategoryAudio,

	"pdf": CategoryDocument, "doc": CategoryDocument, "docx": CategoryDocument,
	"xls": CategoryDocument, "xlsx": CategoryDocument, "ppt": CategoryDocument,
	"pptx": CategoryDocument, "txt": CategoryDocument,

	"zip": CategoryArchive, "rar": CategoryArchive, "7z": CategoryArchive,
	"tar": CategoryArchive, "gz": CategoryArchive,
}

// CategoryForExtension maps a file extension (with or without a leading
// dot, any casing) to its category. Unknown extensions map to CategoryOther.
func CategoryForExtension(extension string) FileCategory {
	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(extension), "."))
	if category, ok := extensionCategories[ext]; ok {
		return category
	}
	return CategoryOther
}

// AllCategories lists every category in a stable order, used by usage
// reports so that empty categories still appear.
func AllCategories() []FileCategory {
	return []FileCategory{
		CategoryImage,
		CategoryVideo,
		CategoryAudio,
		CategoryDocument,
		CategoryArchive,
		CategoryOther,
	}
}
