package helper

/**
Generates / annotates strings
*/

import (
	cryptorand "crypto/rand"
	"encoding/base64"
	"math"
	"regexp"
	"strconv"
)

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// Returns securely generated random bytes.
func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = cryptorand.Read(b)
	return b
}

// GenerateRandomString returns a URL-safe, base64 encoded securely generated random string.
func GenerateRandomString(length int) string {
	b := generateRandomBytes(length + 10)
	result := cleanRandomString(base64.URLEncoding.EncodeToString(b))
	if len(result) < length {
		return GenerateRandomString(length)
	}
	return result[:length]
}

// FormatBytesDefault converts bytes to a human-readable format with two decimals and 1024 as base
func FormatBytesDefault(bytes int64) string {
	return FormatBytes(bytes, 2, 1024)
}

// FormatBytes converts bytes to a human-readable format. Trailing zeros of the decimals are
// removed, e.g. 1536 bytes with k=1024 result in "1.5 KB"
func FormatBytes(bytes int64, decimals int, k float64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	if decimals < 0 {
		decimals = 0
	}
	value := float64(bytes)
	i := int(math.Floor(math.Log(math.Abs(value)) / math.Log(k)))
	if i < 0 {
		i = 0
	}
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}
	scaled := value / math.Pow(k, float64(i))
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(scaled, 'f', decimals, 64), 64)
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + byteUnits[i]
}

// Removes special characters from string
func cleanRandomString(input string) string {
	reg, err := regexp.Compile("[^a-zA-Z0-9]+")
	Check(err)
	return reg.ReplaceAllString(input, "")
}
