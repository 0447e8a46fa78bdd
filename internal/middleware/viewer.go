package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	viewerCookie = "viewer"
	viewerTTL    = 30 * 24 * time.Hour
)

// ViewerData identifies an anonymous browser across requests.
type ViewerData struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ViewerMiddleware attaches a viewer id to every request, taken from a
// signed cookie or freshly issued when the cookie is missing or invalid.
func ViewerMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		viewer := getViewerFromCookie(c, key)
		if viewer == nil {
			var err error
			viewer, err = setViewer(c, key, uuid.New().String())
			if err != nil {
				c.Next()
				return
			}
		}

		c.Set("viewer", viewer)
		c.Next()
	}
}

// getViewerFromCookie extracts and validates viewer data from cookie
func getViewerFromCookie(c *gin.Context, key []byte) *ViewerData {
	cookie, err := c.Cookie(viewerCookie)
	if err != nil {
		return nil
	}

	// Split cookie value (signature.data)
	parts := strings.Split(cookie, ".")
	if len(parts) != 2 {
		return nil
	}

	signature, data := parts[0], parts[1]
	if !verifySignature(key, data, signature) {
		return nil
	}

	decodedData, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		return nil
	}

	var viewer ViewerData
	if err := json.Unmarshal(decodedData, &viewer); err != nil {
		return nil
	}

	if viewer.ID == "" || time.Now().After(viewer.ExpiresAt) {
		return nil
	}

	return &viewer
}

// setViewer issues a signed viewer cookie
func setViewer(c *gin.Context, key []byte, id string) (*ViewerData, error) {
	viewer := &ViewerData{
		ID:        id,
		ExpiresAt: time.Now().Add(viewerTTL),
	}

	data, err := json.Marshal(viewer)
	if err != nil {
		return nil, err
	}

	encodedData := base64.URLEncoding.EncodeToString(data)
	signature := createSignature(key, encodedData)

	c.SetCookie(viewerCookie, signature+"."+encodedData, int(viewerTTL.Seconds()), "/", "", false, true)
	return viewer, nil
}

// createSignature creates HMAC signature for data
func createSignature(key []byte, data string) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies HMAC signature
func verifySignature(key []byte, data, signature string) bool {
	expectedSignature := createSignature(key, data)
	return hmac.Equal([]byte(signature), []byte(expectedSignature))
}

// GetViewerID returns the viewer id of the request, or "" without ViewerMiddleware
func GetViewerID(c *gin.Context) string {
	viewer, exists := c.Get("viewer")
	if !exists {
		return ""
	}

	if viewerData, ok := viewer.(*ViewerData); ok {
		return viewerData.ID
	}

	return ""
}
