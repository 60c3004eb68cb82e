// Package validate rejects media by extension and size before any
// transcoding work is spent. All checks are pure predicates over the
// filename and on-disk size; no content sniffing.
package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Error is a user-facing validation failure: the input was rejected before
// any subprocess was spawned.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func NewError(format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

var audioExtensions = map[string]struct{}{
	".wav": {}, ".mp3": {}, ".ogg": {}, ".m4a": {},
	".flac": {}, ".aac": {}, ".wma": {},
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".webm": {},
}

// ValidSize reports whether the file at path is at most maxMB megabytes.
// Equal to the limit passes, strictly greater fails.
func ValidSize(path string, maxMB int) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Size() <= int64(maxMB)*1024*1024
}

// ValidAudioExt reports whether the filename's final extension is on the
// audio allow-list, case-insensitive.
func ValidAudioExt(path string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ValidVideoExt reports whether the filename's final extension is on the
// video allow-list, case-insensitive.
func ValidVideoExt(path string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
