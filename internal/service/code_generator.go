package service

import (
	crand "crypto/rand"
	"math/big"
	"strings"

	"github.com/coupon-next/internal/config"
)

const (
	defaultCodeLength       = 15
	defaultCodeChars        = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultSegmentLength    = 4
	defaultSegmentSeparator = "-"

	// maxCodeLength 为数据库中优惠码字段的上限
	maxCodeLength = 30
)

// CodeGenerator 优惠码生成器
type CodeGenerator struct {
	length           int
	chars            string
	segmented        bool
	segmentLength    int
	segmentSeparator string
}

// NewCodeGenerator 按配置创建优惠码生成器，非法配置回退默认值
func NewCodeGenerator(cfg config.CouponConfig) *CodeGenerator {
	length := cfg.CodeLength
	if length <= 0 || length > maxCodeLength {
		length = defaultCodeLength
	}
	chars := cfg.CodeChars
	if strings.TrimSpace(chars) == "" {
		chars = defaultCodeChars
	}
	segmentLength := cfg.SegmentLength
	if segmentLength <= 0 {
		segmentLength = defaultSegmentLength
	}
	separator := cfg.SegmentSeparator
	if separator == "" {
		separator = defaultSegmentSeparator
	}
	gen := &CodeGenerator{
		length:           length,
		chars:            chars,
		segmented:        cfg.Segmented,
		segmentLength:    segmentLength,
		segmentSeparator: separator,
	}
	// 分段后的总长度不能超过字段上限，超限时退回不分段
	if gen.segmented && len(gen.segment(strings.Repeat("x", gen.length))) > maxCodeLength {
		gen.segmented = false
	}
	return gen
}

// Generate 生成一个随机优惠码（未统一大小写）
func (g *CodeGenerator) Generate() string {
	raw := make([]byte, g.length)
	max := big.NewInt(int64(len(g.chars)))
	for i := range raw {
		idx, err := crand.Int(crand.Reader, max)
		if err != nil {
			// crypto/rand 失败时用位置兜底，避免返回空码
			raw[i] = g.chars[i%len(g.chars)]
			continue
		}
		raw[i] = g.chars[idx.Int64()]
	}
	if g.segmented {
		return g.segment(string(raw))
	}
	return string(raw)
}

// segment 将原始码按固定长度分段
func (g *CodeGenerator) segment(raw string) string {
	parts := make([]string, 0, len(raw)/g.segmentLength+1)
	for start := 0; start < len(raw); start += g.segmentLength {
		end := start + g.segmentLength
		if end > len(raw) {
			end = len(raw)
		}
		parts = append(parts, raw[start:end])
	}
	return strings.Join(parts, g.segmentSeparator)
}

// NormalizeCode 统一优惠码格式：去除首尾空白并转为大写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
