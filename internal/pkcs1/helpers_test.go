package pkcs1

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"math/big"
	"sync"
	"testing"

	"github.com/remiblancher/signature/internal/bigint"
	"github.com/remiblancher/signature/internal/keys"
)

type testKeyPair struct {
	std  *rsa.PrivateKey
	priv *keys.PrivateKey
}

var (
	testKeysMu sync.Mutex
	testKeys   = map[int]testKeyPair{}
)

// testKey returns a cached key pair of the given size.
func testKey(t *testing.T, bits int) (*rsa.PrivateKey, *keys.PrivateKey) {
	t.Helper()
	testKeysMu.Lock()
	defer testKeysMu.Unlock()

	if kp, ok := testKeys[bits]; ok {
		return kp.std, kp.priv
	}
	std, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		t.Fatalf("rsa.GenerateKey(%d) error = %v", bits, err)
	}
	priv, err := keys.ParsePKCS1PrivateKey(x509.MarshalPKCS1PrivateKey(std))
	if err != nil {
		t.Fatalf("ParsePKCS1PrivateKey() error = %v", err)
	}
	testKeys[bits] = testKeyPair{std: std, priv: priv}
	return std, priv
}

// smallKey builds a 512-bit key from two 256-bit primes. crypto/rsa
// refuses to generate keys this small.
func smallKey(t *testing.T) *keys.PrivateKey {
	t.Helper()
	e := big.NewInt(65537)
	for {
		p, err := rand.Prime(rand.Reader, 256)
		if err != nil {
			t.Fatal(err)
		}
		q, err := rand.Prime(rand.Reader, 256)
		if err != nil {
			t.Fatal(err)
		}
		if p.Cmp(q) == 0 {
			continue
		}
		phi := new(big.Int).Mul(new(big.Int).Sub(p, big.NewInt(1)), new(big.Int).Sub(q, big.NewInt(1)))
		d := new(big.Int).ModInverse(e, phi)
		if d == nil {
			continue
		}
		n := new(big.Int).Mul(p, q)

		nn, _ := bigint.FromBig(n)
		dn, _ := bigint.FromBig(d)
		pn, _ := bigint.FromBig(p)
		qn, _ := bigint.FromBig(q)
		priv, err := keys.NewPrivateKey(nn, 65537, dn, pn, qn)
		if err != nil {
			t.Fatalf("NewPrivateKey() error = %v", err)
		}
		return priv
	}
}
