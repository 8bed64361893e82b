package version

import "testing"

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		build    string
		expected string
	}{
		{build: "", expected: "0.1.0"},
		{build: "dev-42", expected: "0.1.0-dev-42"},
		{build: "bad build!", expected: "0.1.0"},
	}
	for _, test := range tests {
		result := formatVersion(test.build)
		if result != test.expected {
			t.Errorf("TestFormatVersion: build %q: expected %q, got %q", test.build, test.expected, result)
		}
	}

	if Version() != formatVersion(appBuild) {
		t.Fatalf("TestFormatVersion: Version() disagrees with formatVersion")
	}
}
