package ids

import (
	"strings"
	"sync"
	"testing"
)

func TestGenerateUniqueUnderConcurrency(t *testing.T) {
	const workers = 8
	const perWorker = 2000

	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, Generate())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				if _, dup := seen[id]; dup {
					t.Errorf("duplicate id %d", id)
					return
				}
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()
}

func TestGenerateMonotonic(t *testing.T) {
	prev := Generate()
	for i := 0; i < 1000; i++ {
		id := Generate()
		if id <= prev {
			t.Fatalf("id %d not after %d", id, prev)
		}
		prev = id
	}
}

// 字符串形态必须是纯数字：业务里用 "_" 做组合键分隔符
func TestGenerateStringDigitsOnly(t *testing.T) {
	for i := 0; i < 100; i++ {
		s := GenerateString()
		if s == "" || strings.ContainsAny(s, "_-") {
			t.Fatalf("unexpected id form: %q", s)
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in id: %q", s)
			}
		}
	}
}

func TestSetNodeIDOutOfRange(t *testing.T) {
	SetNodeID(4096)
	defer SetNodeID(1)
	if Generate() == Generate() {
		t.Fatal("still must generate distinct ids")
	}
}
