// Package dedup phát hiện nội dung trùng lặp với các bài đã đăng
// bằng hash chính xác và SimHash 64-bit cho near-duplicate.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"hash/fnv"
	"math/bits"
	"strings"
	"unicode"
)

// NormalizeText chuẩn hóa văn bản trước khi hash: chữ thường,
// bỏ ký tự không phải chữ/số, gộp khoảng trắng liên tiếp
func NormalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}

// ContentHash tính MD5 hex của nội dung đã chuẩn hóa, dùng cho so khớp chính xác
func ContentHash(title string, body string) string {
	normalized := NormalizeText(title + " " + body)
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// SimHash tính SimHash 64-bit của văn bản: mỗi token được hash FNV-64a,
// từng bit cộng/trừ vào vector trọng số, bit kết quả là dấu của tổng
func SimHash(text string) uint64 {
	tokens := strings.Fields(NormalizeText(text))
	if len(tokens) == 0 {
		return 0
	}

	var vector [64]int
	for _, token := range tokens {
		h := fnv.New64a()
		h.Write([]byte(token))
		tokenHash := h.Sum64()

		for i := 0; i < 64; i++ {
			if tokenHash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var result uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			result |= 1 << uint(i)
		}
	}
	return result
}

// HammingDistance đếm số bit khác nhau giữa hai SimHash
func HammingDistance(a uint64, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similarity tính độ tương đồng giữa hai SimHash trong khoảng [0, 1]
func Similarity(a uint64, b uint64) float64 {
	return 1.0 - float64(HammingDistance(a, b))/64.0
}

// Fingerprint tính cả hai dấu vân tay của một nội dung
func Fingerprint(title string, body string) (string, uint64) {
	return ContentHash(title, body), SimHash(title + " " + body)
}

// StoredSimHash chuyển SimHash sang int64 để lưu vào MongoDB
// (driver không hỗ trợ uint64)
func StoredSimHash(h uint64) int64 {
	return int64(h)
}

// SimHashFromStored khôi phục SimHash từ giá trị int64 đã lưu
func SimHashFromStored(v int64) uint64 {
	return uint64(v)
}
