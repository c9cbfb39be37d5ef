package types

import (
	"database/sql/driver"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ID identifies a single annotation. IDs are stored as UUIDs in the
// database and exposed to clients as 22-character URL-safe Base64 tokens.
type ID uuid.UUID

// tokenLen is the length of the Base64 form of a 16-byte UUID without padding.
const tokenLen = 22

// NewID returns a freshly generated random ID.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID decodes the URL-safe token form of an ID.
func ParseID(token string) (ID, error) {
	if len(token) != tokenLen {
		return ID{}, fmt.Errorf("malformed id %q: expected %d characters", token, tokenLen)
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ID{}, fmt.Errorf("malformed id %q: %w", token, err)
	}
	u, err := uuid.FromBytes(raw)
	if err != nil {
		return ID{}, err
	}
	return ID(u), nil
}

// String returns the URL-safe token form of the ID.
func (id ID) String() string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// UUID returns the canonical hyphenated UUID form, as stored in Postgres.
func (id ID) UUID() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool {
	return id == ID{}
}

// Value implements driver.Valuer. IDs persist as uuid columns.
func (id ID) Value() (driver.Value, error) {
	if id.IsZero() {
		return nil, nil
	}
	return id.UUID(), nil
}

// Scan implements sql.Scanner for uuid columns.
func (id *ID) Scan(src interface{}) error {
	if src == nil {
		*id = ID{}
		return nil
	}
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into ID", src)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*id = ID(u)
	return nil
}

// MarshalText renders the ID in its token form.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the token form.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// IDList is an ordered sequence of IDs, persisted as a Postgres uuid[] column.
type IDList []ID

// Value implements driver.Valuer using the Postgres array literal syntax.
func (l IDList) Value() (driver.Value, error) {
	strs := make(pq.StringArray, len(l))
	for i, id := range l {
		strs[i] = id.UUID()
	}
	return strs.Value()
}

// Scan implements sql.Scanner for uuid[] columns.
func (l *IDList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var strs pq.StringArray
	if err := strs.Scan(src); err != nil {
		return err
	}
	out := make(IDList, 0, len(strs))
	for _, s := range strs {
		u, err := uuid.Parse(s)
		if err != nil {
			return err
		}
		out = append(out, ID(u))
	}
	*l = out
	return nil
}

// Tokens returns the URL-safe token form of every ID in the list.
func (l IDList) Tokens() []string {
	tokens := make([]string, len(l))
	for i, id := range l {
		tokens[i] = id.String()
	}
	return tokens
}

// ParseIDList decodes a sequence of token-form IDs.
func ParseIDList(tokens []string) (IDList, error) {
	out := make(IDList, 0, len(tokens))
	for _, t := range tokens {
		id, err := ParseID(t)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
