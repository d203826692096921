package common

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// NormalizeName 統一名稱比對格式：去除前後空白、合併連續空白、轉小寫
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// EqualFold 以 NormalizeName 規則比較兩個名稱
func EqualFold(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}
