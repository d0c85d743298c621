package keystore_test

import (
	"testing"

	"github.com/ardanlabs/medchain/foundation/blockchain/signature"
	"github.com/ardanlabs/medchain/foundation/keystore"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_LoadOrGenerate(t *testing.T) {
	t.Log("Given the need to keep a node's key across restarts.")
	{
		folder := t.TempDir()

		pk, generated, err := keystore.LoadOrGenerate(folder, 1)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a key: %v", failed, err)
		}
		if !generated {
			t.Fatalf("\t%s\tShould report the key as generated.", failed)
		}
		t.Logf("\t%s\tShould generate a key the first time.", success)

		pk2, generated, err := keystore.LoadOrGenerate(folder, 1)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the key: %v", failed, err)
		}
		if generated {
			t.Fatalf("\t%s\tShould not generate a second key.", failed)
		}
		if !pk.Equal(pk2) {
			t.Fatalf("\t%s\tShould load the same key.", failed)
		}
		t.Logf("\t%s\tShould load the same key the second time.", success)
	}
}

func Test_Lookup(t *testing.T) {
	t.Log("Given the need to name the keys in a folder.")
	{
		folder := t.TempDir()

		pk, err := keystore.Generate(folder, 2)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a key: %v", failed, err)
		}

		ks, err := keystore.New(folder)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the folder: %v", failed, err)
		}

		if name := ks.Lookup(signature.PublicKeyBytes(pk)); name != "node2" {
			t.Fatalf("\t%s\tShould name the key after its file, got %q.", failed, name)
		}
		t.Logf("\t%s\tShould name the key after its file.", success)

		if name := ks.Lookup([]byte{1, 2}); name != "0x0102" {
			t.Fatalf("\t%s\tShould return an unknown key hex encoded, got %q.", failed, name)
		}
		t.Logf("\t%s\tShould return an unknown key hex encoded.", success)

		if len(ks.Copy()) != 1 {
			t.Fatalf("\t%s\tShould know exactly one key.", failed)
		}
		t.Logf("\t%s\tShould know exactly one key.", success)
	}

	t.Log("Given a key folder that does not exist.")
	{
		ks, err := keystore.New(t.TempDir() + "/missing")
		if err != nil {
			t.Fatalf("\t%s\tShould not fail: %v", failed, err)
		}
		if len(ks.Copy()) != 0 {
			t.Fatalf("\t%s\tShould know no keys.", failed)
		}
		t.Logf("\t%s\tShould produce an empty key store.", success)
	}
}
