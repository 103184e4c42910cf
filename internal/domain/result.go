package domain

import (
	"encoding/json"
	"math"
	"time"
)

type ReturnKey string

const (
	KeyName         ReturnKey = "name"
	KeyPath         ReturnKey = "path"
	KeyFullPath     ReturnKey = "full_path"
	KeySize         ReturnKey = "size"
	KeyOriginalSize ReturnKey = "original_size"
	KeyURL          ReturnKey = "url"
	KeyExtension    ReturnKey = "extension"
	KeyMimeType     ReturnKey = "mime_type"
	KeyWidth        ReturnKey = "width"
	KeyHeight       ReturnKey = "height"
	KeyDisk         ReturnKey = "disk"
	KeyHash         ReturnKey = "hash"
	KeyCreatedAt    ReturnKey = "created_at"
)

var ReturnKeys = []ReturnKey{
	KeyName, KeyPath, KeyFullPath, KeySize, KeyOriginalSize, KeyURL, KeyExtension,
	KeyMimeType, KeyWidth, KeyHeight, KeyDisk, KeyHash, KeyCreatedAt,
}

const CreatedAtLayout = "2006-01-02 15:04:05"

func ParseReturnKeys(keys []string) ([]ReturnKey, error) {
	out := make([]ReturnKey, 0, len(keys))
	for _, k := range keys {
		rk := ReturnKey(k)
		known := false
		for _, v := range ReturnKeys {
			if rk == v {
				known = true
				break
			}
		}
		if !known {
			return nil, InvalidInput("unknown return key %q", k)
		}
		out = append(out, rk)
	}
	return out, nil
}

// StoredImage is the metadata of one persisted and processed image,
// computed from the final on-disk state.
type StoredImage struct {
	Name         string
	Path         string
	FullPath     string
	Size         int64
	OriginalSize int64
	URL          string
	Extension    string
	MimeType     string
	// Width and Height are zero when the stored bytes could not be probed.
	Width     int
	Height    int
	Disk      string
	Hash      string
	CreatedAt time.Time
}

func kilobytes(n int64) float64 {
	return math.Round(float64(n)/1024*100) / 100
}

func (s StoredImage) field(key ReturnKey) (any, bool) {
	switch key {
	case KeyName:
		return s.Name, true
	case KeyPath:
		return s.Path, true
	case KeyFullPath:
		return s.FullPath, true
	case KeySize:
		return kilobytes(s.Size), true
	case KeyOriginalSize:
		return kilobytes(s.OriginalSize), true
	case KeyURL:
		return s.URL, true
	case KeyExtension:
		return s.Extension, true
	case KeyMimeType:
		return s.MimeType, true
	case KeyWidth:
		return s.Width, s.Width > 0
	case KeyHeight:
		return s.Height, s.Height > 0
	case KeyDisk:
		return s.Disk, true
	case KeyHash:
		return s.Hash, s.Hash != ""
	case KeyCreatedAt:
		return s.CreatedAt.Format(CreatedAtLayout), true
	}
	return nil, false
}

// Result is a StoredImage projected through an ordered key set.
type Result struct {
	Image StoredImage
	Keys  []ReturnKey
}

// Project binds img to keys. Nil keys select the name; an explicit empty set
// projects to an empty mapping.
func Project(img StoredImage, keys []ReturnKey) Result {
	if keys == nil {
		keys = []ReturnKey{KeyName}
	}
	return Result{Image: img, Keys: keys}
}

// Value is a scalar when exactly one key was requested (the name when that
// key has no value) and a map of the available requested keys otherwise.
func (r Result) Value() any {
	if len(r.Keys) == 1 {
		if v, ok := r.Image.field(r.Keys[0]); ok {
			return v
		}
		return r.Image.Name
	}
	return r.Map()
}

func (r Result) Map() map[string]any {
	out := make(map[string]any, len(r.Keys))
	for _, k := range r.Keys {
		if v, ok := r.Image.field(k); ok {
			out[string(k)] = v
		}
	}
	return out
}

func (r Result) IsScalar() bool {
	return len(r.Keys) == 1
}

func (r Result) String() string {
	return r.Image.Name
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Value())
}

// GalleryEntry is one saved gallery item, optionally wrapped in a row.
type GalleryEntry struct {
	Result Result
	Row    map[string]any
}

func (e GalleryEntry) Value() any {
	if e.Row != nil {
		return e.Row
	}
	return e.Result.Value()
}

func (e GalleryEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Value())
}
