package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Object key layout:
//
//	slips/{invoiceId}/{timestamp}.{ext}
//	contracts/{id}/{role}-signature-{timestamp}.png
//	logo/{projectId}/{timestamp}.{ext}
//	uploads/{userId}/{timestamp}.{ext}
//	cards/{documentId}/{timestamp}.png

func SlipKey(invoiceID uuid.UUID, ext string, now time.Time) string {
	return fmt.Sprintf("slips/%s/%d.%s", invoiceID, now.UnixNano(), normalizeExt(ext))
}

func SignatureKey(contractID uuid.UUID, role string, now time.Time) string {
	return fmt.Sprintf("contracts/%s/%s-signature-%d.png", contractID, role, now.UnixNano())
}

func LogoKey(projectID uuid.UUID, ext string, now time.Time) string {
	return fmt.Sprintf("logo/%s/%d.%s", projectID, now.UnixNano(), normalizeExt(ext))
}

func UploadKey(userID uuid.UUID, ext string, now time.Time) string {
	return fmt.Sprintf("uploads/%s/%d.%s", userID, now.UnixNano(), normalizeExt(ext))
}

// CardKey stores a rendered invoice or receipt card image pushed to a
// tenant's chat.
func CardKey(documentID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("cards/%s/%d.png", documentID, now.UnixNano())
}

// ExtFromContentType maps an image MIME type to a file extension,
// defaulting to jpg for unknown types.
func ExtFromContentType(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}

func normalizeExt(ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		return "jpg"
	}
	return ext
}
