package sigserial_test

import (
	"crypto/rand"
	"testing"

	"github.com/attestprotocol/attest/pkg/codec"
	"github.com/attestprotocol/attest/pkg/sigserial"
)

func TestSerialize_roundTrip(t *testing.T) {
	for _, v := range []byte{1, 27, 28, 255} {
		var r, s codec.Slot
		rand.Read(r[:])
		rand.Read(s[:])

		in := sigserial.SignatureData{V: v, R: r, S: s}
		out, err := sigserial.Deserialize(in.Serialize())
		if err != nil {
			t.Fatalf("v=%d: %v", v, err)
		}
		if out != in {
			t.Errorf("v=%d: round trip mismatch: got %+v", v, out)
		}
	}
}

func TestDeserialize_rejectsBadTokens(t *testing.T) {
	for _, token := range []string{
		"",
		"not base64 !!!",
		"c2hvcnQ=", // valid base64, wrong length
	} {
		if _, err := sigserial.Deserialize(token); err == nil {
			t.Errorf("expected error for %q", token)
		}
	}
}
