package state

import (
	"fmt"

	"rpncalc/core-go/pkg/runtime"
)

const (
	tagReal byte = iota + 1
	tagComplex
	tagString
	tagRealMatrix
	tagComplexMatrix
	tagList
)

// maxCells bounds matrix and list sizes read from disk.
const maxCells = 1 << 20

// WriteValue encodes a typed value. Matrix cells tagged as strings keep
// their tag.
func WriteValue(w *Writer, v runtime.Value) {
	switch val := v.(type) {
	case runtime.RealValue:
		w.Byte(tagReal)
		w.Float(val.Val)
	case runtime.ComplexValue:
		w.Byte(tagComplex)
		w.Float(val.Re)
		w.Float(val.Im)
	case runtime.StringValue:
		w.Byte(tagString)
		w.Bytes(val.Val)
	case *runtime.RealMatrixValue:
		w.Byte(tagRealMatrix)
		w.Int(val.Rows)
		w.Int(val.Cols)
		for i := range val.Data {
			if val.IsString[i] {
				w.Byte(1)
				w.Bytes(val.Text[i])
			} else {
				w.Byte(0)
				w.Float(val.Data[i])
			}
		}
	case *runtime.ComplexMatrixValue:
		w.Byte(tagComplexMatrix)
		w.Int(val.Rows)
		w.Int(val.Cols)
		for _, z := range val.Data {
			w.Float(real(z))
			w.Float(imag(z))
		}
	case *runtime.ListValue:
		w.Byte(tagList)
		w.Int(len(val.Items))
		for _, item := range val.Items {
			WriteValue(w, item)
		}
	default:
		if w.err == nil {
			w.err = fmt.Errorf("state: cannot encode value %T", v)
		}
	}
}

// ReadValue decodes a value written by WriteValue.
func ReadValue(r *Reader) (runtime.Value, error) {
	tag := r.Byte()
	if err := r.Err(); err != nil {
		return nil, err
	}
	switch tag {
	case tagReal:
		return runtime.RealValue{Val: r.Float()}, r.Err()
	case tagComplex:
		re := r.Float()
		im := r.Float()
		return runtime.ComplexValue{Re: re, Im: im}, r.Err()
	case tagString:
		b := r.Bytes()
		if len(b) > runtime.MaxStringLength {
			return nil, fmt.Errorf("state: string of %d bytes", len(b))
		}
		return runtime.StringValue{Val: b}, r.Err()
	case tagRealMatrix:
		rows, cols := r.Int(), r.Int()
		if err := r.Err(); err != nil {
			return nil, err
		}
		if rows <= 0 || cols <= 0 || rows*cols > maxCells {
			return nil, fmt.Errorf("state: bad matrix size %dx%d", rows, cols)
		}
		m, err := runtime.NewRealMatrix(rows, cols)
		if err != nil {
			return nil, err
		}
		for i := range m.Data {
			if r.Byte() == 1 {
				m.IsString[i] = true
				m.Text[i] = r.Bytes()
			} else {
				m.Data[i] = r.Float()
			}
		}
		return m, r.Err()
	case tagComplexMatrix:
		rows, cols := r.Int(), r.Int()
		if err := r.Err(); err != nil {
			return nil, err
		}
		if rows <= 0 || cols <= 0 || rows*cols > maxCells {
			return nil, fmt.Errorf("state: bad matrix size %dx%d", rows, cols)
		}
		m := &runtime.ComplexMatrixValue{Rows: rows, Cols: cols, Data: make([]complex128, rows*cols)}
		for i := range m.Data {
			re := r.Float()
			im := r.Float()
			m.Data[i] = complex(re, im)
		}
		return m, r.Err()
	case tagList:
		n := r.Count(maxCells)
		if err := r.Err(); err != nil {
			return nil, err
		}
		l := &runtime.ListValue{Items: make([]runtime.Value, n)}
		for i := range l.Items {
			item, err := ReadValue(r)
			if err != nil {
				return nil, err
			}
			l.Items[i] = item
		}
		return l, nil
	default:
		return nil, fmt.Errorf("state: unknown value tag %d", tag)
	}
}
