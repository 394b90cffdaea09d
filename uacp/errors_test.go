package uacp

import (
	"strings"
	"testing"

	"github.com/convertersystems/opcua-client/ua"
)

func TestErrorf(t *testing.T) {
	err := Errorf(ua.StatusBadTcpMessageTooLarge, "frame of %d bytes", 1<<20)
	if !strings.Contains(err.Error(), "1048576 bytes") {
		t.Fatalf("Error() = %q, want it to contain the formatted reason", err.Error())
	}
	e, ok := err.(*Error)
	if !ok {
		t.Fatalf("Errorf did not return *Error, got %T", err)
	}
	if e.Code != ua.StatusBadTcpMessageTooLarge {
		t.Fatalf("Code = %v, want StatusBadTcpMessageTooLarge", e.Code)
	}
}
