package sourcekit

import (
	"strings"
	"testing"
)

func TestCalculateChecksum(t *testing.T) {
	tests := []struct {
		algorithm ChecksumAlgorithm
		want      string
		wantErr   bool
	}{
		{ChecksumSHA256, "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f", false},
		{"md5", "", true},
	}
	for _, tt := range tests {
		got, err := CalculateChecksum(strings.NewReader("Hello, World!"), tt.algorithm)
		if (err != nil) != tt.wantErr {
			t.Errorf("CalculateChecksum(%s) error = %v", tt.algorithm, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CalculateChecksum(%s) = %s, want %s", tt.algorithm, got, tt.want)
		}
		if tt.wantErr && !IsNotAllowed(err) {
			t.Errorf("unsupported algorithm error = %v, want not allowed", err)
		}
	}
}

func TestWorkspaceChecksum(t *testing.T) {
	ws := newTestWorkspace(t, nil)
	a := writeFile(t, ws, "a.tex", "same")
	b := writeFile(t, ws, "sub/b.tex", "same")
	c := writeFile(t, ws, "c.tex", "different")

	sumA, err := ws.Checksum(a)
	if err != nil {
		t.Fatal(err)
	}
	if len(sumA) != 16 {
		t.Errorf("xxhash checksum %q has length %d", sumA, len(sumA))
	}
	sumB, _ := ws.Checksum(b)
	sumC, _ := ws.Checksum(c)
	if sumA != sumB || sumA == sumC {
		t.Errorf("checksums a=%s b=%s c=%s", sumA, sumB, sumC)
	}

	sha, err := ws.ChecksumWith(a, ChecksumSHA256)
	if err != nil || len(sha) != 64 {
		t.Errorf("ChecksumWith(sha256) = %q, %v", sha, err)
	}
}

func BenchmarkCalculateChecksum(b *testing.B) {
	data := strings.Repeat("\\section{Introduction}\n", 4096)
	for _, algo := range []ChecksumAlgorithm{ChecksumXXHash, ChecksumSHA256} {
		b.Run(string(algo), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for i := 0; i < b.N; i++ {
				if _, err := CalculateChecksum(strings.NewReader(data), algo); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
