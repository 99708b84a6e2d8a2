package gcobj

import "testing"

func TestErrorCodeString(t *testing.T) {
	cases := map[ErrorCode]string{
		ErrorOutOfMemory:      "OutOfMemory",
		ErrorInvalidArgument:  "InvalidArgument",
		ErrorAllocationFailed: "AllocationFailed",
		ErrorPlatform:         "Platform",
	}
	for code, want := range cases {
		if got := code.String(); got != want {
			t.Errorf("ErrorCode(%d).String() = %q, want %q", code, got, want)
		}
	}
}

func TestFatalf(t *testing.T) {
	err := Fatalf(ErrorOutOfMemory, "need %d bytes", 42)
	if err.Code != ErrorOutOfMemory {
		t.Fatal("Fatalf must preserve the error code")
	}
	want := "gc: OutOfMemory: need 42 bytes"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
