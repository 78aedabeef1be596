package pydeps

import "testing"

func TestParsePyprojectPEP621(t *testing.T) {
	content := `[project]
name = "acme-api"
dependencies = [
    "flask==2.0.1",
    "requests>=2.25.0",
    "httpx",
]
`
	project, err := ParsePyproject(content)
	if err != nil {
		t.Fatalf("ParsePyproject failed: %v", err)
	}
	if project.Name != "acme-api" {
		t.Errorf("Name = %q", project.Name)
	}
	if len(project.Requirements) != 3 || project.Requirements[0].Name != "flask" || project.Requirements[2].Version != VersionLatest {
		t.Errorf("requirements = %+v", project.Requirements)
	}
}

func TestParsePyprojectPoetry(t *testing.T) {
	content := `[tool.poetry]
name = "acme-worker"

[tool.poetry.dependencies]
python = "^3.11"
celery = "^5.3"
redis = { version = "^4.5", extras = ["hiredis"] }
internal-lib = { git = "https://github.com/acme/internal-lib.git" }
`
	project, err := ParsePyproject(content)
	if err != nil {
		t.Fatalf("ParsePyproject failed: %v", err)
	}
	if project.Name != "acme-worker" {
		t.Errorf("Name = %q", project.Name)
	}

	got := map[string]string{}
	for _, req := range project.Requirements {
		got[req.Name] = req.Version
	}
	if _, ok := got["python"]; ok {
		t.Error("interpreter constraint leaked into requirements")
	}
	if got["celery"] != "^5.3" || got["redis"] != "^4.5" || got["internal-lib"] != VersionGit {
		t.Errorf("requirements = %v", got)
	}
}

func TestParsePyprojectMalformed(t *testing.T) {
	if _, err := ParsePyproject("[project\nname ="); err == nil {
		t.Error("err = nil, want TOML failure surfaced")
	}
}

func TestParsePyprojectEmpty(t *testing.T) {
	project, err := ParsePyproject("")
	if err != nil {
		t.Fatalf("ParsePyproject failed: %v", err)
	}
	if project.Name != "" || len(project.Requirements) != 0 {
		t.Errorf("project = %+v, want empty", project)
	}
}
