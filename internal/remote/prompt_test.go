// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package remote

import "testing"

func TestClientHint(t *testing.T) {
	tests := []struct {
		fileName string
		want     string
	}{
		{"【ABC商事様】企画書.pptx", "ABC商事"},
		{"【ABC商事】企画書.pptx", "ABC商事"},
		{"[XYZ物産様]提案.pptx", "XYZ物産"},
		{"[ XYZ物産 ]提案.pptx", "XYZ物産"},
		{"【様】提案.pptx", ""},
		{"[様]提案.pptx", ""},
		{"【様】[XYZ物産様]提案.pptx", "XYZ物産"},
		{"【ABC商事様】[XYZ物産様].pptx", "ABC商事"},
		{"企画書.pptx", ""},
	}
	for _, tt := range tests {
		if got := ClientHint(tt.fileName); got != tt.want {
			t.Errorf("ClientHint(%q) = %q, want %q", tt.fileName, got, tt.want)
		}
	}
}
