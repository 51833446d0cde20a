package erc7715

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TypeTag discriminates permission and policy variants. On the caller side it
// is either a well-known string or a {"custom": "<name>"} marker; on the wire
// it is always the plain string.
type TypeTag struct {
	Name   string
	Custom bool
}

func Tag(name string) TypeTag       { return TypeTag{Name: name} }
func CustomTag(name string) TypeTag { return TypeTag{Name: name, Custom: true} }

func (t TypeTag) String() string { return t.Name }

type customTag struct {
	Custom string `json:"custom"`
}

func (t TypeTag) MarshalJSON() ([]byte, error) {
	if t.Custom {
		return json.Marshal(customTag{Custom: t.Name})
	}
	return json.Marshal(t.Name)
}

func (t *TypeTag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var c customTag
		if err := json.Unmarshal(b, &c); err != nil {
			return err
		}
		if c.Custom == "" {
			return fmt.Errorf("custom type tag is empty")
		}
		*t = CustomTag(c.Custom)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("type tag: %w", err)
	}
	*t = Tag(s)
	return nil
}
