package fingerprint

import (
	"strings"
	"testing"
)

func TestSumKnownDigest(t *testing.T) {
	const want = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != want {
		t.Fatalf("Sum(nil) = %s, want %s", got, want)
	}
}

func TestSumDeterministic(t *testing.T) {
	data := []byte("sample_id,height\nA1,1.2\n")
	if Sum(data) != Sum(append([]byte(nil), data...)) {
		t.Fatal("same content produced different digests")
	}
	changed := append([]byte(nil), data...)
	changed[len(changed)-2] = '3'
	if Sum(data) == Sum(changed) {
		t.Fatal("single byte change kept digest")
	}
}

func TestSumReaderMatchesSum(t *testing.T) {
	content := strings.Repeat("row,", 4096)
	digest, n, err := SumReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("SumReader: %v", err)
	}
	if n != int64(len(content)) || digest != Sum([]byte(content)) {
		t.Fatalf("SumReader = %s/%d", digest, n)
	}
}

func TestChanged(t *testing.T) {
	data := []byte("abc")
	if Changed(Sum(data), data) {
		t.Error("identical content reported changed")
	}
	if !Changed("", data) {
		t.Error("missing digest reported unchanged")
	}
	if !Changed(Sum(data), []byte("abd")) {
		t.Error("different content reported unchanged")
	}
}
