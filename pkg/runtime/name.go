package runtime

import "fmt"

// MaxNameLength is the byte capacity of variable and label names.
const MaxNameLength = 7

// Name is a variable, label or program name of at most MaxNameLength bytes.
type Name string

// NewName validates s against the name capacity.
func NewName(s string) (Name, error) {
	if len(s) > MaxNameLength {
		return "", fmt.Errorf("name %q exceeds %d bytes", s, MaxNameLength)
	}
	return Name(s), nil
}

// MustName is NewName for names known to fit, such as constants.
func MustName(s string) Name {
	n, err := NewName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Fixed returns the name padded into its fixed-size on-disk field and the
// number of significant bytes.
func (n Name) Fixed() ([MaxNameLength]byte, int) {
	var buf [MaxNameLength]byte
	l := copy(buf[:], n)
	return buf, l
}

// NameFromFixed rebuilds a name from its on-disk field. Lengths outside
// 0..MaxNameLength are clamped.
func NameFromFixed(buf [MaxNameLength]byte, length int) Name {
	if length < 0 {
		length = 0
	}
	if length > MaxNameLength {
		length = MaxNameLength
	}
	return Name(buf[:length])
}
