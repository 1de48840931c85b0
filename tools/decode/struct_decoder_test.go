package decode

import (
	"testing"
)

type samplePayload struct {
	Name  string         `json:"name"`
	Count int64          `json:"count"`
	Tags  []string       `json:"tags"`
	Meta  map[string]any `json:"meta"`
}

func TestDecodeMap(t *testing.T) {
	// JSON 反序列化出来的典型形态：数字是 float64，数组是 []any，
	// 嵌套对象可能是字符串 JSON；多余字段忽略
	m := map[string]any{
		"name":  "weekly",
		"count": 3.0,
		"tags":  []any{"go", "design"},
		"meta":  `{"source":"import"}`,
		"extra": "ignored",
	}
	out, err := DecodeMap[samplePayload](m)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Name != "weekly" || out.Count != 3 {
		t.Fatalf("scalars: %+v", out)
	}
	if len(out.Tags) != 2 || out.Tags[0] != "go" {
		t.Fatalf("tags: %v", out.Tags)
	}
	if out.Meta["source"] != "import" {
		t.Fatalf("meta: %v", out.Meta)
	}
}

func TestDecodeMapWeaklyTyped(t *testing.T) {
	out, err := DecodeMap[samplePayload](map[string]any{"count": "42"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 42 {
		t.Fatalf("count: %d", out.Count)
	}

	if _, err := DecodeMap[samplePayload](nil); err == nil {
		t.Fatal("nil map must fail")
	}
}

func TestReadHelpers(t *testing.T) {
	m := map[string]any{"name": "x", "seq": 7.0, "str_seq": "8"}

	if s, err := ReadString(m, "name"); err != nil || s != "x" {
		t.Fatalf("ReadString: %q %v", s, err)
	}
	if _, err := ReadString(m, "missing"); err == nil {
		t.Fatal("missing key must fail")
	}
	if n, err := ReadInt64(m, "seq"); err != nil || n != 7 {
		t.Fatalf("ReadInt64 float: %d %v", n, err)
	}
	if n, err := ReadInt64(m, "str_seq"); err != nil || n != 8 {
		t.Fatalf("ReadInt64 string: %d %v", n, err)
	}
	if _, err := ReadInt64(m, "name"); err == nil {
		t.Fatal("non-numeric must fail")
	}
}
