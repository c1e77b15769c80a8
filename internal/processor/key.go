package processor

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
)

// Classification errors. ErrNoExtension marks a rejected key; the rest mark
// keys that are deliberately skipped.
var (
	ErrEmptyKey         = errors.New("empty object key")
	ErrAlreadyThumbnail = errors.New("object is already a thumbnail")
	ErrNoExtension      = errors.New("unable to infer image type")
	ErrUnsupportedType  = errors.New("unsupported image type")
	ErrInvalidKey       = errors.New("key is not <parentId>/<file>")
)

// leafPattern is the original file name grammar: <hash>-<fileId>.<ext>.
var leafPattern = regexp.MustCompile(`^(.+)-([^-./]+)\.([^./]+)$`)

// uriComponentReplacer turns url.QueryEscape output into encodeURIComponent
// output: spaces as %20 and the sub-delims !'()* left literal.
var uriComponentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent percent-encodes s for use as a single key segment.
func EncodeURIComponent(s string) string {
	return uriComponentReplacer.Replace(url.QueryEscape(s))
}

// Source is an original image eligible for thumbnailing.
type Source struct {
	Bucket   string
	Key      string
	ParentID string
	Leaf     string
	Ext      string // lower-cased
	Format   imaging.Format
	DstKey   string
	Hash     string // empty when the leaf does not match the file grammar
	FileID   string // empty when the leaf does not match the file grammar
}

// Classifier decides whether a key names an original image and where its
// thumbnail goes.
type Classifier struct {
	thumbDir string
	allowed  map[string]imaging.Format
}

// NewClassifier builds a Classifier. Every allowed type must be an
// extension the image codec can encode.
func NewClassifier(thumbDir string, allowedTypes []string) (*Classifier, error) {
	if thumbDir == "" || strings.Contains(thumbDir, "/") {
		return nil, fmt.Errorf("invalid thumbnail directory %q", thumbDir)
	}
	allowed := make(map[string]imaging.Format, len(allowedTypes))
	for _, t := range allowedTypes {
		t = strings.ToLower(strings.TrimPrefix(t, "."))
		f, err := imaging.FormatFromExtension(t)
		if err != nil {
			return nil, fmt.Errorf("allowed type %q: %w", t, err)
		}
		allowed[t] = f
	}
	if len(allowed) == 0 {
		return nil, errors.New("no allowed image types")
	}
	return &Classifier{thumbDir: thumbDir, allowed: allowed}, nil
}

// Classify checks, in order: empty key, thumbnail directory in the parent
// path, extension presence, extension allow-list, then the two-segment
// layout. The returned error wraps one of the classification sentinels.
func (c *Classifier) Classify(bucket, key string) (*Source, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	segments := strings.Split(key, "/")
	leaf := segments[len(segments)-1]
	for _, seg := range segments[:len(segments)-1] {
		if seg == c.thumbDir {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyThumbnail, key)
		}
	}

	dot := strings.LastIndexByte(leaf, '.')
	if dot < 0 {
		return nil, fmt.Errorf("%w for key %s", ErrNoExtension, key)
	}
	ext := strings.ToLower(leaf[dot+1:])
	format, ok := c.allowed[ext]
	if !ok {
		return nil, fmt.Errorf("%w %q: %s", ErrUnsupportedType, ext, key)
	}

	if len(segments) != 2 || segments[0] == "" || leaf == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}

	src := &Source{
		Bucket:   bucket,
		Key:      key,
		ParentID: segments[0],
		Leaf:     leaf,
		Ext:      ext,
		Format:   format,
		DstKey:   segments[0] + "/" + c.thumbDir + "/" + EncodeURIComponent(leaf),
	}
	if m := leafPattern.FindStringSubmatch(leaf); m != nil {
		src.Hash = m[1]
		src.FileID = m[2]
	}
	return src, nil
}

// IsSkip reports whether err is a classification outcome that should be
// treated as a successful no-op.
func IsSkip(err error) bool {
	return errors.Is(err, ErrEmptyKey) ||
		errors.Is(err, ErrAlreadyThumbnail) ||
		errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrInvalidKey)
}
