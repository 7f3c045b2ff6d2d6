package domain

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	perr "popreel/internal/platform/errors"
)

// Exhausted is the cursor handed out once the feed has nothing further
const Exhausted = "exhausted"

// Cursor is the position of the last video a page returned
type Cursor struct {
	CreatedAt int64  `json:"c"`
	ID        string `json:"i"`
}

// Encode renders c as an opaque url-safe token
func (c Cursor) Encode() string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses a token from Encode; "" means the first page
func DecodeCursor(tok string) (c Cursor, first bool, exhausted bool, err error) {
	tok = strings.TrimSpace(tok)
	switch tok {
	case "":
		return Cursor{}, true, false, nil
	case Exhausted:
		return Cursor{}, false, true, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return Cursor{}, false, false, perr.Validationf("cursor", "malformed cursor")
	}
	if err := json.Unmarshal(b, &c); err != nil || c.ID == "" {
		return Cursor{}, false, false, perr.Validationf("cursor", "malformed cursor")
	}
	return c, false, false, nil
}
