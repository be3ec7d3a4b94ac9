package service

import (
	"strings"
	"testing"

	"github.com/coupon-next/internal/config"
)

func TestCodeGeneratorLengthAndCharset(t *testing.T) {
	gen := NewCodeGenerator(config.CouponConfig{CodeLength: 12, CodeChars: "abc123"})
	for i := 0; i < 50; i++ {
		code := gen.Generate()
		if len(code) != 12 {
			t.Fatalf("code length want 12 got %d (%s)", len(code), code)
		}
		for _, r := range code {
			if !strings.ContainsRune("abc123", r) {
				t.Fatalf("code %s contains character outside charset", code)
			}
		}
	}
}

func TestCodeGeneratorSegmented(t *testing.T) {
	gen := NewCodeGenerator(config.CouponConfig{
		CodeLength:       12,
		CodeChars:        "ABCDEF",
		Segmented:        true,
		SegmentLength:    4,
		SegmentSeparator: "-",
	})
	code := gen.Generate()
	parts := strings.Split(code, "-")
	if len(parts) != 3 {
		t.Fatalf("segmented code want 3 segments got %d (%s)", len(parts), code)
	}
	for _, part := range parts {
		if len(part) != 4 {
			t.Fatalf("segment length want 4 got %d (%s)", len(part), code)
		}
	}
}

func TestCodeGeneratorSegmentedTail(t *testing.T) {
	gen := NewCodeGenerator(config.CouponConfig{
		CodeLength:       10,
		CodeChars:        "ABCDEF",
		Segmented:        true,
		SegmentLength:    4,
		SegmentSeparator: "-",
	})
	code := gen.Generate()
	parts := strings.Split(code, "-")
	if len(parts) != 3 || len(parts[2]) != 2 {
		t.Fatalf("10 chars in segments of 4 should end with a 2-char tail, got %s", code)
	}
}

func TestCodeGeneratorDefaults(t *testing.T) {
	gen := NewCodeGenerator(config.CouponConfig{})
	code := gen.Generate()
	if len(code) != defaultCodeLength {
		t.Fatalf("default code length want %d got %d", defaultCodeLength, len(code))
	}

	// 超过字段上限的配置回退默认长度
	gen = NewCodeGenerator(config.CouponConfig{CodeLength: 64})
	if len(gen.Generate()) != defaultCodeLength {
		t.Fatalf("oversized length should fall back to default")
	}
}

func TestNormalizeCode(t *testing.T) {
	if got := NormalizeCode("  abC-12x  "); got != "ABC-12X" {
		t.Fatalf("normalize want ABC-12X got %s", got)
	}
	if got := NormalizeCode(""); got != "" {
		t.Fatalf("normalize empty want empty got %s", got)
	}
}
