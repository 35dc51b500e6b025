package bigint

import "errors"

// CRTExp computes c^d mod p*q from the Chinese Remainder Theorem
// parameters of d, using Garner's recombination:
//
//	m1 = c^dP mod p
//	m2 = c^dQ mod q
//	h  = qInv * (m1 - m2) mod p
//	m  = m2 + h*q
//
// The caller supplies c < p*q.
func CRTExp(c, p, q, dP, dQ, qInv *Nat) (*Nat, error) {
	if p.IsZero() || q.IsZero() {
		return nil, arithErr("crt", ErrDivisionByZero)
	}
	if c.Cmp(p.Mul(q)) >= 0 {
		return nil, arithErr("crt", ErrOverflow)
	}

	cp, err := c.Mod(p)
	if err != nil {
		return nil, err
	}
	cq, err := c.Mod(q)
	if err != nil {
		return nil, err
	}

	m1, err := ModPow(cp, dP, p)
	if err != nil {
		return nil, err
	}
	m2, err := ModPow(cq, dQ, q)
	if err != nil {
		return nil, err
	}

	// m1 - m2 may be negative; lift it into [0, p) first.
	m2p, err := m2.Mod(p)
	if err != nil {
		return nil, err
	}
	diff := m1
	if m1.Cmp(m2p) < 0 {
		diff = m1.Add(p)
	}
	diff, err = diff.Sub(m2p)
	if err != nil {
		return nil, err
	}

	h, err := qInv.Mul(diff).Mod(p)
	if err != nil {
		return nil, err
	}
	return m2.Add(h.Mul(q)), nil
}

// errNoInverse is returned by CRTParams when p and q share a factor.
var errNoInverse = errors.New("q has no inverse modulo p")

// CRTParams derives dP, dQ and qInv from d, p and q.
func CRTParams(d, p, q *Nat) (dP, dQ, qInv *Nat, err error) {
	pm1, err := p.Sub(one)
	if err != nil {
		return nil, nil, nil, err
	}
	qm1, err := q.Sub(one)
	if err != nil {
		return nil, nil, nil, err
	}
	if dP, err = d.Mod(pm1); err != nil {
		return nil, nil, nil, err
	}
	if dQ, err = d.Mod(qm1); err != nil {
		return nil, nil, nil, err
	}
	inv, ok := q.ModInverse(p)
	if !ok {
		return nil, nil, nil, arithErr("crt", errNoInverse)
	}
	return dP, dQ, inv, nil
}
