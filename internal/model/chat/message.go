package chat

import (
	"strings"
	"time"
)

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// Image is a binary attachment carried by a user turn.
type Image struct {
	Data     []byte
	MIMEType string
}

// Content is the body of a turn: plain text, an image, or text plus an image.
type Content struct {
	Text  string
	Image *Image
}

// HasText reports whether the content carries non-blank text.
func (c Content) HasText() bool {
	return strings.TrimSpace(c.Text) != ""
}

// HasImage reports whether the content carries a non-empty image payload.
func (c Content) HasImage() bool {
	return c.Image != nil && len(c.Image.Data) > 0
}

// Turn is one immutable transcript entry.
type Turn struct {
	Role      Role
	Content   Content
	CreatedAt time.Time
}

// UserTurn builds a user turn stamped with at.
func UserTurn(content Content, at time.Time) Turn {
	return Turn{Role: RoleUser, Content: content, CreatedAt: at}
}

// ModelTurn builds a model turn stamped with at.
func ModelTurn(text string, at time.Time) Turn {
	return Turn{Role: RoleModel, Content: Content{Text: text}, CreatedAt: at}
}
