package common

import "testing"

func TestPreview(t *testing.T) {
	if got := Preview([]byte("{\n\"a\":1\r\n}"), 256); got != "{ \"a\":1  }" {
		t.Fatalf("unexpected preview %q", got)
	}
	if got := Preview([]byte("abcdef"), 3); got != "abc" {
		t.Fatalf("expected truncation to 3 bytes, got %q", got)
	}
}
