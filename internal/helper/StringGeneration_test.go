package helper

import (
	"testing"

	"github.com/casedrop/casedrop/internal/test"
)

func TestFormatBytes(t *testing.T) {
	test.IsEqualString(t, FormatBytesDefault(0), "0 Bytes")
	test.IsEqualString(t, FormatBytesDefault(5), "5 Bytes")
	test.IsEqualString(t, FormatBytesDefault(1024), "1 KB")
	test.IsEqualString(t, FormatBytesDefault(1536), "1.5 KB")
	test.IsEqualString(t, FormatBytesDefault(5000), "4.88 KB")
	test.IsEqualString(t, FormatBytesDefault(100*1024*1024), "100 MB")
	test.IsEqualString(t, FormatBytesDefault(5000000000), "4.66 GB")
	test.IsEqualString(t, FormatBytes(1536, -1, 1024), "2 KB")
	test.IsEqualString(t, FormatBytes(1500, 1, 1000), "1.5 KB")
	test.IsEqualString(t, FormatBytes(999, 2, 1000), "999 Bytes")
}

func TestCleanString(t *testing.T) {
	test.IsEqualString(t, cleanRandomString("abc-123%%___!"), "abc123")
}

func TestGenerateRandomString(t *testing.T) {
	test.IsEqualBool(t, len(GenerateRandomString(100)) == 100, true)
}
