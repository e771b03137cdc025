package models

import (
	"fmt"

	apperrors "scaffoldstudio/pkg/errors"
)

// Method is a fabrication method. The set is closed.
type Method int

const (
	FreezeCasting Method = iota
	Bioprinting
	SaltLeaching
)

var methodNames = map[Method]string{
	FreezeCasting: "freeze-casting",
	Bioprinting:   "3d-bioprinting",
	SaltLeaching:  "salt-leaching",
}

// Methods lists every supported method in declaration order
func Methods() []Method {
	return []Method{FreezeCasting, Bioprinting, SaltLeaching}
}

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Valid reports whether m is one of the declared methods
func (m Method) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// ParseMethod resolves a method tag such as "freeze-casting"
func ParseMethod(s string) (Method, error) {
	for m, name := range methodNames {
		if name == s {
			return m, nil
		}
	}
	return 0, apperrors.Newf(apperrors.CodeInvalidMethod, "unknown fabrication method %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (m Method) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, apperrors.Newf(apperrors.CodeInvalidMethod, "unknown fabrication method %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
