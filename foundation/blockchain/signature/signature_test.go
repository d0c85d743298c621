package signature_test

import (
	"testing"

	"github.com/ardanlabs/medchain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	pkHexKey  = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	pkHexKey2 = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	data := []byte(`{"first_name":"John","last_name":"Smith"}`)

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(data, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if !signature.Verify(data, signature.PublicKeyBytes(pk), sig) {
		t.Fatalf("Should be able to verify the signature.")
	}

	if signature.Verify([]byte("tampered"), signature.PublicKeyBytes(pk), sig) {
		t.Fatalf("Should not verify the signature over different data.")
	}
}

func Test_WrongKey(t *testing.T) {
	data := []byte("record")

	pk1, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	pk2, err := crypto.HexToECDSA(pkHexKey2)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(data, pk1)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if signature.Verify(data, signature.PublicKeyBytes(pk2), sig) {
		t.Fatalf("Should not verify with a different public key.")
	}
}

func Test_VerifyMalformed(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}
	pub := signature.PublicKeyBytes(pk)

	tt := []struct {
		name string
		pub  []byte
		sig  []byte
	}{
		{name: "nil", pub: nil, sig: nil},
		{name: "short sig", pub: pub, sig: []byte{1, 2, 3}},
		{name: "bad key", pub: []byte{4, 1, 2}, sig: make([]byte, 65)},
	}

	for _, tst := range tt {
		if signature.Verify([]byte("data"), tst.pub, tst.sig) {
			t.Fatalf("Should not verify malformed input: %s", tst.name)
		}
	}
}

func Test_PublicKeyRoundTrip(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	pub, err := signature.ToPublicKey(signature.PublicKeyBytes(pk))
	if err != nil {
		t.Fatalf("Should be able to parse the public key: %s", err)
	}

	if !pub.Equal(&pk.PublicKey) {
		t.Fatalf("Should get back the same public key.")
	}
}

func Test_Hash(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}
	hash := "0x0f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a"

	h := signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the right hash: %s", h[:6])
	}

	h = signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the same hash twice.")
	}

	value.Name = "Jill"
	if signature.Hash(value) == hash {
		t.Fatalf("Should get a different hash for different content.")
	}
}

func Test_IsHashSolved(t *testing.T) {
	tt := []struct {
		hash string
		exp  bool
	}{
		{hash: signature.ZeroHash, exp: true},
		{hash: "0x0f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a", exp: true},
		{hash: "0xaf6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a", exp: false},
		{hash: "0x0f68", exp: false},
		{hash: "", exp: false},
		{hash: "000f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a", exp: false},
	}

	for i, tst := range tt {
		if got := signature.IsHashSolved(tst.hash); got != tst.exp {
			t.Fatalf("Test %d: Should get %v for %q, got %v.", i, tst.exp, tst.hash, got)
		}
	}
}
