package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/casedrop/casedrop/internal/test"
)

func TestProtectedKey(t *testing.T) {
	test.IsEqualString(t, ProtectedKey("user-sub", "data/case/file.pdf"), "protected/user-sub/data/case/file.pdf")
	test.IsEqualString(t, ProtectedKey("user-sub", "/data/case/file.pdf"), "protected/user-sub/data/case/file.pdf")
}

func TestProgressReader(t *testing.T) {
	source := strings.NewReader("0123456789")
	unchanged := NewProgressReader(source, 10, nil)
	test.IsEqualBool(t, unchanged == io.Reader(source), true)

	var reports [][2]int64
	reader := NewProgressReader(strings.NewReader("0123456789"), 10, func(loaded, total int64) {
		reports = append(reports, [2]int64{loaded, total})
	})
	buffer := make([]byte, 4)
	for {
		_, err := reader.Read(buffer)
		if err == io.EOF {
			break
		}
		test.IsNil(t, err)
	}
	test.IsEqualInt(t, len(reports), 3)
	test.IsEqualInt64(t, reports[0][0], 4)
	test.IsEqualInt64(t, reports[1][0], 8)
	test.IsEqualInt64(t, reports[2][0], 10)
	test.IsEqualInt64(t, reports[2][1], 10)

	progressReader := reader.(*ProgressReader)
	progressReader.Add(100)
	test.IsEqualInt64(t, progressReader.Loaded(), 10)
}
