package runtime

import "fmt"

// Kind identifies the runtime value category.
type Kind int

const (
	KindReal Kind = iota
	KindComplex
	KindString
	KindRealMatrix
	KindComplexMatrix
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindReal:
		return "real"
	case KindComplex:
		return "complex"
	case KindString:
		return "string"
	case KindRealMatrix:
		return "real_matrix"
	case KindComplexMatrix:
		return "complex_matrix"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values. A value is owned by
// exactly one stack slot or variable binding; use Copy to duplicate it.
type Value interface {
	Kind() Kind
}

// MaxStringLength bounds the byte length of string values.
const MaxStringLength = 44

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type RealValue struct {
	Val float64
}

func (v RealValue) Kind() Kind { return KindReal }

type ComplexValue struct {
	Re float64
	Im float64
}

func (v ComplexValue) Kind() Kind { return KindComplex }

type StringValue struct {
	Val []byte
}

func (v StringValue) Kind() Kind { return KindString }

// NewString builds a string value, truncating to MaxStringLength bytes.
func NewString(s string) StringValue {
	b := []byte(s)
	if len(b) > MaxStringLength {
		b = b[:MaxStringLength]
	}
	return StringValue{Val: b}
}

func (v StringValue) String() string { return string(v.Val) }

//-----------------------------------------------------------------------------
// Containers
//-----------------------------------------------------------------------------

// RealMatrixValue is a row-major real matrix. Individual cells may hold a
// short string instead of a number; such cells are flagged in IsString and
// their bytes kept in Text, while the matrix stays a real matrix.
type RealMatrixValue struct {
	Rows     int
	Cols     int
	Data     []float64
	IsString []bool
	Text     [][]byte
}

func (v *RealMatrixValue) Kind() Kind { return KindRealMatrix }

// NewRealMatrix allocates a zero-filled rows x cols matrix.
func NewRealMatrix(rows, cols int) (*RealMatrixValue, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrDimensionError
	}
	n := rows * cols
	return &RealMatrixValue{
		Rows:     rows,
		Cols:     cols,
		Data:     make([]float64, n),
		IsString: make([]bool, n),
		Text:     make([][]byte, n),
	}, nil
}

func (v *RealMatrixValue) index(i int) error {
	if i < 0 || i >= len(v.Data) {
		return ErrDimensionError
	}
	return nil
}

// Get returns cell i as a RealValue or a StringValue depending on its tag.
func (v *RealMatrixValue) Get(i int) (Value, error) {
	if err := v.index(i); err != nil {
		return nil, err
	}
	if v.IsString[i] {
		return StringValue{Val: append([]byte(nil), v.Text[i]...)}, nil
	}
	return RealValue{Val: v.Data[i]}, nil
}

// SetReal stores a number in cell i, clearing any string tag.
func (v *RealMatrixValue) SetReal(i int, x float64) error {
	if err := v.index(i); err != nil {
		return err
	}
	v.Data[i] = x
	v.IsString[i] = false
	v.Text[i] = nil
	return nil
}

// SetString tags cell i as a string in place.
func (v *RealMatrixValue) SetString(i int, s StringValue) error {
	if err := v.index(i); err != nil {
		return err
	}
	v.Data[i] = 0
	v.IsString[i] = true
	v.Text[i] = append([]byte(nil), s.Val...)
	return nil
}

type ComplexMatrixValue struct {
	Rows int
	Cols int
	Data []complex128
}

func (v *ComplexMatrixValue) Kind() Kind { return KindComplexMatrix }

// ListValue holds arbitrary values; string elements keep their own tag.
type ListValue struct {
	Items []Value
}

func (v *ListValue) Kind() Kind { return KindList }

//-----------------------------------------------------------------------------
// Ownership helpers
//-----------------------------------------------------------------------------

// Copy returns a deep copy of v. Containers never share backing storage with
// their copy.
func Copy(v Value) Value {
	switch val := v.(type) {
	case nil:
		return nil
	case RealValue, ComplexValue:
		return val
	case StringValue:
		return StringValue{Val: append([]byte(nil), val.Val...)}
	case *RealMatrixValue:
		out := &RealMatrixValue{
			Rows:     val.Rows,
			Cols:     val.Cols,
			Data:     append([]float64(nil), val.Data...),
			IsString: append([]bool(nil), val.IsString...),
			Text:     make([][]byte, len(val.Text)),
		}
		for i, t := range val.Text {
			if t != nil {
				out.Text[i] = append([]byte(nil), t...)
			}
		}
		return out
	case *ComplexMatrixValue:
		return &ComplexMatrixValue{Rows: val.Rows, Cols: val.Cols, Data: append([]complex128(nil), val.Data...)}
	case *ListValue:
		out := &ListValue{Items: make([]Value, len(val.Items))}
		for i, item := range val.Items {
			out.Items[i] = Copy(item)
		}
		return out
	default:
		panic(fmt.Sprintf("runtime: copy of unsupported value %T", v))
	}
}

// AsReal extracts the number held by a real value.
func AsReal(v Value) (float64, bool) {
	if r, ok := v.(RealValue); ok {
		return r.Val, true
	}
	return 0, false
}
