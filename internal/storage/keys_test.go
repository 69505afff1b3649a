package storage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKeyLayout(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	now := time.Unix(1700000000, 0)

	assert.Equal(t, "slips/11111111-2222-3333-4444-555555555555/1700000000000000000.png", SlipKey(id, "PNG", now))
	assert.Equal(t, "slips/11111111-2222-3333-4444-555555555555/1700000000000000000.jpg", SlipKey(id, "", now))
	assert.Equal(t, "contracts/11111111-2222-3333-4444-555555555555/tenant-signature-1700000000000000000.png", SignatureKey(id, "tenant", now))
	assert.Equal(t, "logo/11111111-2222-3333-4444-555555555555/1700000000000000000.webp", LogoKey(id, ".webp", now))
	assert.Equal(t, "cards/11111111-2222-3333-4444-555555555555/1700000000000000000.png", CardKey(id, now))
}

func TestExtFromContentType(t *testing.T) {
	assert.Equal(t, "png", ExtFromContentType("image/png"))
	assert.Equal(t, "webp", ExtFromContentType("IMAGE/WEBP"))
	assert.Equal(t, "jpg", ExtFromContentType("image/jpeg"))
	assert.Equal(t, "jpg", ExtFromContentType(""))
}
