package domain

import (
	"sort"
	"strings"
)

type Position string

const (
	PositionTopLeft     Position = "top-left"
	PositionTopRight    Position = "top-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionBottomRight Position = "bottom-right"
	PositionCenter      Position = "center"
)

var Positions = []Position{
	PositionTopLeft,
	PositionTopRight,
	PositionBottomLeft,
	PositionBottomRight,
	PositionCenter,
}

func (p Position) Valid() bool {
	for _, v := range Positions {
		if p == v {
			return true
		}
	}
	return false
}

const (
	DefaultWatermarkOffset  = 10
	DefaultWatermarkOpacity = 100
)

// Dimensions is a pixel box where a zero side means "not set".
type Dimensions struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

func (d Dimensions) IsZero() bool {
	return d.Width == 0 && d.Height == 0
}

// Catalog maps a size label to the box its derivative is fitted into.
type Catalog map[string]Dimensions

func (c Catalog) Labels() []string {
	labels := make([]string, 0, len(c))
	for label := range c {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Watermark is a fully resolved overlay spec. A nil *Watermark means no watermark.
type Watermark struct {
	Image    string   `json:"image"`
	Position Position `json:"position"`
	Opacity  int      `json:"opacity"`
	X        int      `json:"x"`
	Y        int      `json:"y"`
	Width    int      `json:"width,omitempty"`
	Height   int      `json:"height,omitempty"`
}

func (w *Watermark) IsEmpty() bool {
	return w == nil || w.Image == ""
}

// IsAbsolutePath reports whether p is rooted on the host filesystem,
// including Windows drive paths such as C:\ or C:/.
func IsAbsolutePath(p string) bool {
	if strings.HasPrefix(p, "/") {
		return true
	}
	if len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/') {
		c := p[0]
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	}
	return false
}

func MimeTypeFor(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "svg":
		return "image/svg+xml"
	case "bmp":
		return "image/bmp"
	case "ico":
		return "image/x-icon"
	default:
		return "application/octet-stream"
	}
}
