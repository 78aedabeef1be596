package pydeps

import "testing"

func TestParseRequirementLine(t *testing.T) {
	tests := []struct {
		line        string
		wantName    string
		wantVersion string
	}{
		{"flask==2.0.1", "flask", "==2.0.1"},
		{"requests>=2.25.0", "requests", ">=2.25.0"},
		{"numpy<=1.21.0", "numpy", "<=1.21.0"},
		{"django>3.0", "django", ">3.0"},
		{"click<9", "click", "<9"},
		{"pandas~=1.3.0", "pandas", "~=1.3.0"},
		{"pytest!=6.0.0", "pytest", "!=6.0.0"},
		{"httpx", "httpx", VersionLatest},
		{"flask == 2.0.1", "flask", "== 2.0.1"},
		{"flask==2.0.1  # pinned for CVE", "flask", "==2.0.1"},
		{"git+https://example.com/x.git#egg=foo", "foo", VersionGit},
		{"git+ssh://git@example.com/team/lib.git#egg=lib  # internal", "lib", VersionGit},
		{"https://example.com/pkg.tar.gz", "https://example.com/pkg.tar.gz", VersionURL},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			req, ok := ParseRequirementLine(tt.line)
			if !ok {
				t.Fatalf("ParseRequirementLine(%q) not ok", tt.line)
			}
			if req.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", req.Name, tt.wantName)
			}
			if req.Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", req.Version, tt.wantVersion)
			}
			if req.Raw != tt.line {
				t.Errorf("Raw = %q, want the line preserved", req.Raw)
			}
		})
	}
}

func TestParseRequirementLineOperatorPrecedence(t *testing.T) {
	// ">=" must win over ">": a greedy single-character match would split
	// "requests>=2.25" into ("requests", ">") and leave "=2.25" dangling.
	req, ok := ParseRequirementLine("requests>=2.25")
	if !ok || req.Name != "requests" || req.Version != ">=2.25" {
		t.Errorf("got %+v", req)
	}
}

func TestParseRequirementLineRejectsEmpty(t *testing.T) {
	for _, line := range []string{"", "   ", "# only a comment", "   # indented comment"} {
		if req, ok := ParseRequirementLine(line); ok {
			t.Errorf("ParseRequirementLine(%q) = %+v, want rejected", line, req)
		}
	}
}

func TestParseRequirements(t *testing.T) {
	content := `# Production dependencies
flask==2.0.1

requests>=2.25.0   # http client
# dev tools below
httpx
git+https://github.com/acme/internal.git#egg=acme-internal
`
	reqs := ParseRequirements(content)
	wantNames := []string{"flask", "requests", "httpx", "acme-internal"}
	if len(reqs) != len(wantNames) {
		t.Fatalf("got %d requirements, want %d: %+v", len(reqs), len(wantNames), reqs)
	}
	for i, want := range wantNames {
		if reqs[i].Name != want {
			t.Errorf("reqs[%d].Name = %q, want %q (declaration order)", i, reqs[i].Name, want)
		}
	}
}

func TestParseRequirementsIdempotent(t *testing.T) {
	content := "flask==2.0.1\nrequests>=2.25.0\nhttpx\n"
	first := ParseRequirements(content)
	second := ParseRequirements(content)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("result %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
