// Package bigint provides the non-negative arbitrary-precision integers
// used by the RSA transforms.
//
// A Nat is immutable: every operation returns a new value, so keys holding
// Nats can be shared across goroutines without locking.
package bigint

import (
	"math/big"
	"strings"
)

// Nat is a non-negative integer of unbounded size.
type Nat struct {
	v big.Int
}

var (
	zero = new(Nat)
	one  = FromUint64(1)
)

// Zero returns the value 0.
func Zero() *Nat { return zero }

// One returns the value 1.
func One() *Nat { return one }

// FromUint64 returns x as a Nat.
func FromUint64(x uint64) *Nat {
	n := new(Nat)
	n.v.SetUint64(x)
	return n
}

// FromBytes interprets b as a big-endian unsigned integer.
// Leading zero bytes are accepted.
func FromBytes(b []byte) *Nat {
	n := new(Nat)
	n.v.SetBytes(b)
	return n
}

// FromString parses a base-10 literal, or a hexadecimal literal when s
// carries a 0x prefix.
func FromString(s string) (*Nat, error) {
	s = strings.TrimSpace(s)
	if rest, ok := cutHexPrefix(s); ok {
		return FromHex(rest)
	}
	return parse(s, 10)
}

// FromHex parses a hexadecimal literal without prefix.
func FromHex(s string) (*Nat, error) {
	return parse(strings.TrimSpace(s), 16)
}

func cutHexPrefix(s string) (string, bool) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:], true
	}
	return s, false
}

func parse(s string, base int) (*Nat, error) {
	if s == "" || s[0] == '-' || s[0] == '+' {
		return nil, arithErr("parse", ErrMalformed)
	}
	n := new(Nat)
	if _, ok := n.v.SetString(s, base); !ok {
		return nil, arithErr("parse", ErrMalformed)
	}
	return n, nil
}

// FromBig copies x into a Nat. Negative values are rejected.
func FromBig(x *big.Int) (*Nat, error) {
	if x == nil {
		return nil, arithErr("parse", ErrMalformed)
	}
	if x.Sign() < 0 {
		return nil, arithErr("parse", ErrNegative)
	}
	n := new(Nat)
	n.v.Set(x)
	return n, nil
}

// Big returns a copy of n as a *big.Int.
func (n *Nat) Big() *big.Int {
	return new(big.Int).Set(&n.v)
}

// Cmp compares n and m and returns -1, 0 or +1.
func (n *Nat) Cmp(m *Nat) int {
	return n.v.Cmp(&m.v)
}

// Equal reports whether n == m.
func (n *Nat) Equal(m *Nat) bool {
	return n.Cmp(m) == 0
}

// IsZero reports whether n == 0.
func (n *Nat) IsZero() bool {
	return n.v.Sign() == 0
}

// IsOdd reports whether n is odd.
func (n *Nat) IsOdd() bool {
	return n.v.Bit(0) == 1
}

// BitLen returns the length of n in bits. BitLen of 0 is 0.
func (n *Nat) BitLen() int {
	return n.v.BitLen()
}

// ByteLen returns the minimal number of bytes needed to encode n.
func (n *Nat) ByteLen() int {
	return (n.v.BitLen() + 7) / 8
}

// Uint64 returns the low 64 bits of n and whether n fits in them.
func (n *Nat) Uint64() (uint64, bool) {
	return n.v.Uint64(), n.v.IsUint64()
}

// Bytes returns the minimal big-endian encoding of n.
func (n *Nat) Bytes() []byte {
	return n.v.Bytes()
}

// FillBytes returns n as a big-endian sequence of exactly width bytes,
// left-padded with zeros.
func (n *Nat) FillBytes(width int) ([]byte, error) {
	if width < 0 || n.ByteLen() > width {
		return nil, arithErr("fill", ErrOverflow)
	}
	return n.v.FillBytes(make([]byte, width)), nil
}

// String returns the base-10 representation of n.
func (n *Nat) String() string {
	return n.v.String()
}

// Text returns the representation of n in the given base.
func (n *Nat) Text(base int) string {
	return n.v.Text(base)
}

// Add returns n + m.
func (n *Nat) Add(m *Nat) *Nat {
	r := new(Nat)
	r.v.Add(&n.v, &m.v)
	return r
}

// Sub returns n - m. It fails when m > n.
func (n *Nat) Sub(m *Nat) (*Nat, error) {
	if n.Cmp(m) < 0 {
		return nil, arithErr("sub", ErrNegative)
	}
	r := new(Nat)
	r.v.Sub(&n.v, &m.v)
	return r, nil
}

// Mul returns n * m.
func (n *Nat) Mul(m *Nat) *Nat {
	r := new(Nat)
	r.v.Mul(&n.v, &m.v)
	return r
}

// Mod returns n mod m.
func (n *Nat) Mod(m *Nat) (*Nat, error) {
	if m.IsZero() {
		return nil, arithErr("mod", ErrDivisionByZero)
	}
	r := new(Nat)
	r.v.Mod(&n.v, &m.v)
	return r, nil
}

// ModInverse returns the inverse of n modulo m, if it exists.
func (n *Nat) ModInverse(m *Nat) (*Nat, bool) {
	if m.IsZero() {
		return nil, false
	}
	r := new(Nat)
	if r.v.ModInverse(&n.v, &m.v) == nil {
		return nil, false
	}
	return r, true
}

// ModPow returns base^exp mod mod.
//
// The base must already be reduced (base < mod). big.Int.Exp uses a
// windowed Montgomery ladder for odd moduli and plain square-and-multiply
// otherwise. It is not constant time: the running time depends on the
// exponent bits, so callers holding a private exponent should not expose
// precise timing to an attacker.
func ModPow(base, exp, mod *Nat) (*Nat, error) {
	if mod.IsZero() {
		return nil, arithErr("modpow", ErrDivisionByZero)
	}
	if base.Cmp(mod) >= 0 {
		return nil, arithErr("modpow", ErrOverflow)
	}
	r := new(Nat)
	if mod.Equal(one) {
		return r, nil
	}
	r.v.Exp(&base.v, &exp.v, &mod.v)
	return r, nil
}
