package s3infra

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "photo.jpg", sanitizeFilename("photo.jpg"))
	assert.Equal(t, "photo.jpg", sanitizeFilename("../../etc/photo.jpg"))
	assert.Equal(t, "my_photo_1.png", sanitizeFilename("my photo 1.png"))
	assert.Equal(t, "file", sanitizeFilename("///"))
}

func TestMemoryImageKey(t *testing.T) {
	key := MemoryImageKey("S1", "beach day.jpg")
	assert.True(t, strings.HasPrefix(key, "memories/S1/"), key)
	assert.True(t, strings.HasSuffix(key, "-beach_day.jpg"), key)
}

func TestPublicURL(t *testing.T) {
	withBase := NewStore(nil, "yearbook-images", "https://cdn.example.com/")
	assert.Equal(t, "https://cdn.example.com/memories/S1/x.jpg", withBase.PublicURL("memories/S1/x.jpg"))

	noBase := NewStore(nil, "yearbook-images", "")
	assert.Equal(t, "s3://yearbook-images/memories/S1/x.jpg", noBase.PublicURL("memories/S1/x.jpg"))
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", DetectContentType("a.JPG"))
	assert.Equal(t, "image/png", DetectContentType("a.png"))
	assert.Equal(t, "application/octet-stream", DetectContentType("a.bin"))
}
