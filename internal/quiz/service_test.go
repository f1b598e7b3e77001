package quiz

import "testing"

func TestIsPermutation(t *testing.T) {
	members := map[int64]bool{1: true, 2: true, 3: true}

	tests := []struct {
		name string
		ids  []int64
		want bool
	}{
		{"same order", []int64{1, 2, 3}, true},
		{"reversed", []int64{3, 2, 1}, true},
		{"missing member", []int64{1, 2}, false},
		{"extra member", []int64{1, 2, 3, 4}, false},
		{"foreign id", []int64{1, 2, 9}, false},
		{"duplicate", []int64{1, 2, 2}, false},
		{"empty against non-empty", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isPermutation(members, tc.ids); got != tc.want {
				t.Fatalf("isPermutation(%v) = %v, want %v", tc.ids, got, tc.want)
			}
		})
	}
}

func TestIsPermutationEmptySection(t *testing.T) {
	if !isPermutation(map[int64]bool{}, nil) {
		t.Fatal("empty order against empty section should be a permutation")
	}
}
