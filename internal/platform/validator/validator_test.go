package validator

import (
	"testing"

	"paperflow/internal/testutil"
)

func TestIsArxivID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"four digit sequence", "1706.0376", true},
		{"five digit sequence", "2301.00001", true},
		{"with version", "2301.00001v2", true},
		{"prefixed", "arXiv:2301.00001", false},
		{"old style", "hep-th/9901001", false},
		{"too short", "230.00001", false},
		{"trailing garbage", "2301.00001x", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, IsArxivID(tt.input), tt.expected, "arxiv id validation")
		})
	}
}

func TestNormalizeArxivID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "1706.03762", "1706.03762"},
		{"spaces", "  1706.03762 ", "1706.03762"},
		{"prefix", "arXiv:1706.03762", "1706.03762"},
		{"lower prefix", "arxiv:1706.03762", "1706.03762"},
		{"abs url", "https://arxiv.org/abs/2301.00001v2", "2301.00001v2"},
		{"pdf url", "https://arxiv.org/pdf/2301.00001.pdf", "2301.00001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, NormalizeArxivID(tt.input), tt.expected, "normalized id")
		})
	}
}

func TestIsSemanticScholarID(t *testing.T) {
	testutil.AssertTrue(t, IsSemanticScholarID("204e3073870fae3d05bcbc2f6a8e263d9b72e776"), "sha1 id")
	testutil.AssertFalse(t, IsSemanticScholarID("1706.03762"), "arxiv id is not an s2 id")
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"valid http", "http://example.com", true},
		{"valid https", "https://example.com", true},
		{"with path", "https://example.com/path", true},
		{"with query", "https://example.com?query=1", true},
		{"no scheme", "example.com", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, IsURL(tt.input), tt.expected, "url validation")
		})
	}
}

func TestIsHTTPURL(t *testing.T) {
	testutil.AssertTrue(t, IsHTTPURL("https://example.com"), "https")
	testutil.AssertTrue(t, IsHTTPURL("HTTP://example.com"), "uppercase scheme")
	testutil.AssertFalse(t, IsHTTPURL("ftp://example.com"), "ftp")
	testutil.AssertFalse(t, IsHTTPURL("example.com"), "no scheme")
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase scheme", "HTTP://EXAMPLE.COM", "http://example.com"},
		{"lowercase host", "http://EXAMPLE.COM", "http://example.com"},
		{"remove trailing slash", "http://example.com/", "http://example.com"},
		{"remove default port", "https://example.com:443/x", "https://example.com/x"},
		{"keep path", "http://example.com/path", "http://example.com/path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, NormalizeURL(tt.input), tt.expected, "normalized url")
		})
	}
}

func TestIsStageName(t *testing.T) {
	testutil.AssertTrue(t, IsStageName("analyze_paper"), "snake case")
	testutil.AssertFalse(t, IsStageName("Analyze Paper"), "spaces")
	testutil.AssertFalse(t, IsStageName(""), "empty")
	testutil.AssertFalse(t, IsStageName("1stage"), "leading digit")
}

func TestGenericValidators(t *testing.T) {
	testutil.AssertTrue(t, IsEmpty("   "), "blank")
	testutil.AssertFalse(t, IsEmpty("x"), "not blank")
	testutil.AssertTrue(t, MaxLength("abc", 3), "at limit")
	testutil.AssertFalse(t, MaxLength("abcd", 3), "over limit")
}
