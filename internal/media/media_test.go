package media

import (
	"strings"
	"testing"

	"github.com/jason-s-yu/collabnet/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := map[string]string{
		"":             models.MediaNone,
		"cat.JPG":      models.MediaImage,
		"cat.jpeg":     models.MediaImage,
		"a/b/anim.gif": models.MediaImage,
		"clip.mp4":     models.MediaVideo,
		"clip.WEBM":    models.MediaVideo,
		"song.ogg":     models.MediaVideo,
		"doc.pdf":      models.MediaUnknown,
		"noext":        models.MediaUnknown,
	}
	for name, want := range cases {
		assert.Equal(t, want, Classify(name), name)
	}
}

func TestNewKey(t *testing.T) {
	k1 := NewKey(ProfilePicPrefix, "Me.PNG")
	k2 := NewKey(ProfilePicPrefix, "Me.PNG")

	assert.True(t, strings.HasPrefix(k1, "profile_pics/"))
	assert.True(t, strings.HasSuffix(k1, ".png"))
	assert.NotEqual(t, k1, k2)
}

func TestPrefixFor(t *testing.T) {
	assert.Equal(t, PostVideoPrefix, PrefixFor(models.MediaVideo))
	assert.Equal(t, PostImagePrefix, PrefixFor(models.MediaImage))
}
