package engine

import (
	"strconv"
	"strings"
)

type atomKind uint8

const (
	floatAtom atomKind = iota
	symbolAtom
)

type (
	// Atom is a single element of a list message, either a float or a
	// symbol.
	Atom struct {
		kind   atomKind
		number float32
		symbol string
	}

	// List is an ordered sequence of atoms.
	List []Atom
)

// Float returns a float atom.
func Float(v float32) Atom {
	return Atom{kind: floatAtom, number: v}
}

// Symbol returns a symbol atom.
func Symbol(s string) Atom {
	return Atom{kind: symbolAtom, symbol: s}
}

// IsFloat returns true if the atom holds a float.
func (a Atom) IsFloat() bool {
	return a.kind == floatAtom
}

// IsSymbol returns true if the atom holds a symbol.
func (a Atom) IsSymbol() bool {
	return a.kind == symbolAtom
}

// Float returns the float value, zero for symbols.
func (a Atom) Float() float32 {
	return a.number
}

// Symbol returns the symbol value, empty for floats.
func (a Atom) Symbol() string {
	return a.symbol
}

func (a Atom) String() string {
	if a.kind == symbolAtom {
		return a.symbol
	}
	return strconv.FormatFloat(float64(a.number), 'g', -1, 32)
}

// Floats builds a list of float atoms.
func Floats(values ...float32) List {
	l := make(List, 0, len(values))
	for _, v := range values {
		l = append(l, Float(v))
	}
	return l
}

// Clone returns a copy of the list that does not share memory with l.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	c := make(List, len(l))
	copy(c, l)
	return c
}

func (l List) String() string {
	s := make([]string, 0, len(l))
	for _, a := range l {
		s = append(s, a.String())
	}
	return strings.Join(s, " ")
}
