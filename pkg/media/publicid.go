// Package media talks to the hosted media service (Cloudinary): unsigned
// uploads, and the URL helpers the player needs.
package media

import (
	"errors"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrNoResourceType = errors.New("invalid media url: resource type not found")
	ErrNoUploadType   = errors.New("invalid media url: upload type not found")
	ErrNoPublicID     = errors.New("invalid media url: public id not found")
	ErrBadTimestamp   = errors.New("invalid timestamp")
)

var resourceTypes = map[string]bool{"video": true, "image": true, "raw": true, "auto": true}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// ParsePublicID extracts the public id from a delivery URL of the form
// /<cloud>/<resource_type>/<upload_type>/[transformations/][v<version>/]<folders/>id.<ext>.
// Folders are kept; the extension is dropped.
func ParsePublicID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0)
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	resourceIdx := -1
	for i, p := range parts {
		if resourceTypes[p] {
			resourceIdx = i
			break
		}
	}
	if resourceIdx == -1 {
		return "", ErrNoResourceType
	}

	uploadIdx := resourceIdx + 1
	if uploadIdx >= len(parts) {
		return "", ErrNoUploadType
	}

	start := uploadIdx + 1
	for start < len(parts) && isTransformation(parts[start]) {
		start++
	}
	if start < len(parts)-1 && versionSegment.MatchString(parts[start]) {
		start++
	}
	if start >= len(parts) {
		return "", ErrNoPublicID
	}

	id := strings.Join(parts[start:], "/")
	if dot := strings.LastIndex(id, "."); dot != -1 && dot > strings.LastIndex(id, "/") {
		id = id[:dot]
	}
	return id, nil
}

// Transformation segments look like "w_150,c_scale" or "q_auto_good_x".
func isTransformation(segment string) bool {
	return strings.Contains(segment, ",") || len(strings.Split(segment, "_")) > 2
}

// ThumbnailURL swaps the video extension for .jpg, which makes the media
// service serve a poster frame.
func ThumbnailURL(videoURL string) string {
	if videoURL == "" {
		return ""
	}
	u, err := url.Parse(videoURL)
	if err != nil {
		return ""
	}
	ext := path.Ext(u.Path)
	if ext == "" {
		u.Path += ".jpg"
	} else {
		u.Path = strings.TrimSuffix(u.Path, ext) + ".jpg"
	}
	return u.String()
}

// ParseTimestamps turns a feedback timestamp such as "01:05, 1:02:03" into
// seconds. Dots are accepted as separators ("00.42").
func ParseTimestamps(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		secs, err := parseTimestamp(strings.ReplaceAll(part, ".", ":"))
		if err != nil {
			return nil, err
		}
		out = append(out, secs)
	}
	if len(out) == 0 {
		return nil, ErrBadTimestamp
	}
	return out, nil
}

func parseTimestamp(ts string) (int, error) {
	fields := strings.Split(ts, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, ErrBadTimestamp
	}
	total := 0
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return 0, ErrBadTimestamp
		}
		if i > 0 && n >= 60 {
			return 0, ErrBadTimestamp
		}
		total = total*60 + n
	}
	return total, nil
}
