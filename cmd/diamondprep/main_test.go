package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const trainCSV = `id,carat,cut,color,clarity,depth,table,x,y,z,price
1,1,Fair,E,SI2,60,55,4,4,2,300
2,,Good,J,VS1,61,56,5,5,3,500
3,3,Ideal,D,IF,62.5,57,6,6,4,900
`

const testCSV = `id,carat,cut,color,clarity,depth,table,x,y,z,price
4,1.5,Premium,G,VS2,61,55,4.5,4.5,2.5,400
5,2.5,Very Good,H,VVS1,62,56,5.5,5.5,3.5,700
`

// runCLI runs the CLI in-process and returns stdout, stderr, and exit code
func runCLI(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	exitCode = execute(args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), exitCode
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// setupData writes the train and test fixtures and a config pointing at them.
func setupData(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	train := writeFile(t, dir, "train.csv", trainCSV)
	test := writeFile(t, dir, "test.csv", testCSV)
	configPath = writeFile(t, dir, "run.yaml", strings.Join([]string{
		"data:",
		"  train: " + train,
		"  test: " + test,
		"artifacts:",
		"  dir: " + filepath.Join(dir, "artifacts"),
		"logging:",
		"  level: error",
		"",
	}, "\n"))
	return dir, configPath
}

func TestCLI_Help(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "--help")

	if exitCode != ExitSuccess {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	for _, want := range []string{"diamondprep", "run", "apply", "inspect", "validate"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

func TestCLI_Version(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "version")
	if exitCode != ExitSuccess || !strings.Contains(stdout, "Version: dev") {
		t.Errorf("version output = %q (exit %d)", stdout, exitCode)
	}
}

func TestCLI_Validate(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		file     string
		content  string
		wantCode int
		wantErr  string
	}{
		{"valid yaml", "ok.yaml", "data:\n  train: a.csv\n  test: b.csv\n", ExitSuccess, ""},
		{"valid json", "ok.json", `{"logging": {"level": "debug"}}`, ExitSuccess, ""},
		{"syntax error", "bad.json", `{"data": {`, ExitParseError, "Parse errors"},
		{"schema violation", "enum.yaml", "logging:\n  level: loud\n", ExitValidationError, "Validation errors"},
		{"unknown key", "extra.yaml", "model:\n  kind: xgboost\n", ExitValidationError, "Validation errors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			stdout, stderr, exitCode := runCLI(t, "validate", path)

			if exitCode != tt.wantCode {
				t.Errorf("exit code = %d, want %d\nstderr: %s", exitCode, tt.wantCode, stderr)
			}
			if tt.wantErr == "" && !strings.Contains(stdout, "valid") {
				t.Errorf("expected output to contain 'valid', got: %s", stdout)
			}
			if tt.wantErr != "" && !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("expected stderr to contain %q, got: %s", tt.wantErr, stderr)
			}
		})
	}
}

func TestCLI_ValidateMissingFile(t *testing.T) {
	_, _, exitCode := runCLI(t, "validate", filepath.Join(t.TempDir(), "absent.yaml"))
	if exitCode != ExitParseError {
		t.Errorf("exit code = %d, want %d", exitCode, ExitParseError)
	}
}

func TestCLI_RunInspectApply(t *testing.T) {
	dir, configPath := setupData(t)
	artifact := filepath.Join(dir, "artifacts", "preprocessor.json")

	stdout, stderr, exitCode := runCLI(t, "run", "--config", configPath)
	if exitCode != ExitSuccess {
		t.Fatalf("run exit code = %d\nstderr: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "Preprocessing completed") || !strings.Contains(stdout, "3 rows x 10 columns") {
		t.Errorf("unexpected run output: %s", stdout)
	}
	if _, err := os.Stat(artifact); err != nil {
		t.Fatalf("artifact not written: %v", err)
	}

	stdout, stderr, exitCode = runCLI(t, "inspect", artifact)
	if exitCode != ExitSuccess {
		t.Fatalf("inspect exit code = %d\nstderr: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "impute_median") || !strings.Contains(stdout, "clarity") {
		t.Errorf("unexpected inspect output: %s", stdout)
	}

	stdout, stderr, exitCode = runCLI(t, "apply", artifact, filepath.Join(dir, "test.csv"))
	if exitCode != ExitSuccess {
		t.Fatalf("apply exit code = %d\nstderr: %s", exitCode, stderr)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 3 || lines[0] != "carat,depth,table,x,y,z,cut,color,clarity,price" {
		t.Errorf("unexpected apply output: %s", stdout)
	}

	out := filepath.Join(dir, "applied", "test.csv")
	_, stderr, exitCode = runCLI(t, "apply", "-q", artifact, filepath.Join(dir, "test.csv"), "--output", out)
	if exitCode != ExitSuccess {
		t.Fatalf("apply --output exit code = %d\nstderr: %s", exitCode, stderr)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("apply output not written: %v", err)
	}
}

func TestCLI_ApplyStdoutIsCSV(t *testing.T) {
	dir, configPath := setupData(t)
	artifact := filepath.Join(dir, "artifacts", "preprocessor.json")
	if _, stderr, exitCode := runCLI(t, "run", "--config", configPath); exitCode != ExitSuccess {
		t.Fatalf("run exit code = %d\nstderr: %s", exitCode, stderr)
	}

	stdout, stderr, exitCode := runCLI(t, "apply", artifact, filepath.Join(dir, "test.csv"))
	if exitCode != ExitSuccess {
		t.Fatalf("apply exit code = %d\nstderr: %s", exitCode, stderr)
	}

	records, err := csv.NewReader(strings.NewReader(stdout)).ReadAll()
	if err != nil {
		t.Fatalf("stdout is not CSV: %v\n%s", err, stdout)
	}
	if len(records) != 3 || records[0][0] != "carat" {
		t.Errorf("unexpected records: %v", records)
	}
	if !strings.Contains(stderr, "transform applied") {
		t.Errorf("expected logs on stderr, got: %s", stderr)
	}
}

func TestCLI_ApplyUsesConfigMissingValues(t *testing.T) {
	dir, _ := setupData(t)
	configPath := writeFile(t, dir, "markers.yaml", strings.Join([]string{
		"data:",
		"  train: " + filepath.Join(dir, "train.csv"),
		"  test: " + filepath.Join(dir, "test.csv"),
		"  missingValues: [\"\", \"?\"]",
		"artifacts:",
		"  dir: " + filepath.Join(dir, "artifacts"),
		"logging:",
		"  level: error",
		"",
	}, "\n"))
	artifact := filepath.Join(dir, "artifacts", "preprocessor.json")
	if _, stderr, exitCode := runCLI(t, "run", "--config", configPath); exitCode != ExitSuccess {
		t.Fatalf("run exit code = %d\nstderr: %s", exitCode, stderr)
	}

	input := writeFile(t, dir, "marked.csv", strings.Join([]string{
		"id,carat,cut,color,clarity,depth,table,x,y,z,price",
		"6,?,Ideal,E,VS2,61,55,4,4,2,350",
		"",
	}, "\n"))

	if _, _, exitCode := runCLI(t, "apply", "-q", artifact, input); exitCode != ExitRuntimeError {
		t.Errorf("apply without --config exit code = %d, want %d", exitCode, ExitRuntimeError)
	}

	stdout, stderr, exitCode := runCLI(t, "apply", "-q", "--config", configPath, artifact, input)
	if exitCode != ExitSuccess {
		t.Fatalf("apply --config exit code = %d\nstderr: %s", exitCode, stderr)
	}
	if lines := strings.Split(strings.TrimSpace(stdout), "\n"); len(lines) != 2 {
		t.Errorf("unexpected apply output: %s", stdout)
	}
}

func TestCLI_RunFlagsOverrideConfig(t *testing.T) {
	dir, configPath := setupData(t)
	other := filepath.Join(dir, "other")

	_, stderr, exitCode := runCLI(t, "run", "-q", "--config", configPath, "--artifacts-dir", other, "--export", filepath.Join(dir, "export"))
	if exitCode != ExitSuccess {
		t.Fatalf("run exit code = %d\nstderr: %s", exitCode, stderr)
	}
	if _, err := os.Stat(filepath.Join(other, "preprocessor.json")); err != nil {
		t.Errorf("artifact not written to flag directory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "export", "train.csv")); err != nil {
		t.Errorf("train export not written: %v", err)
	}
}

func TestCLI_RunEnvOverride(t *testing.T) {
	dir, configPath := setupData(t)
	envDir := filepath.Join(dir, "from-env")
	t.Setenv("DIAMONDPREP_ARTIFACTS_DIR", envDir)

	_, stderr, exitCode := runCLI(t, "run", "-q", "--config", configPath)
	if exitCode != ExitSuccess {
		t.Fatalf("run exit code = %d\nstderr: %s", exitCode, stderr)
	}
	if _, err := os.Stat(filepath.Join(envDir, "preprocessor.json")); err != nil {
		t.Errorf("artifact not written to env directory: %v", err)
	}
}

func TestCLI_RunFailures(t *testing.T) {
	dir, configPath := setupData(t)
	badTest := writeFile(t, dir, "bad-test.csv", strings.Replace(testCSV, "Premium", "Excellent", 1))

	t.Run("unseen category", func(t *testing.T) {
		_, stderr, exitCode := runCLI(t, "run", "-q", "--config", configPath, "--test", badTest)
		if exitCode != ExitRuntimeError {
			t.Errorf("exit code = %d, want %d", exitCode, ExitRuntimeError)
		}
		for _, want := range []string{"Stage: apply_test", "Column: cut"} {
			if !strings.Contains(stderr, want) {
				t.Errorf("stderr missing %q: %s", want, stderr)
			}
		}
		if _, err := os.Stat(filepath.Join(dir, "artifacts", "preprocessor.json")); !os.IsNotExist(err) {
			t.Error("artifact written by failed run")
		}
	})

	t.Run("invalid artifact name", func(t *testing.T) {
		_, _, exitCode := runCLI(t, "run", "-q", "--config", configPath, "--artifact-name", "model.pkl")
		if exitCode != ExitValidationError {
			t.Errorf("exit code = %d, want %d", exitCode, ExitValidationError)
		}
	})

	t.Run("parse error in config", func(t *testing.T) {
		bad := writeFile(t, dir, "bad.yaml", "data:\n  train: [unclosed\n")
		_, _, exitCode := runCLI(t, "run", "--config", bad)
		if exitCode != ExitParseError {
			t.Errorf("exit code = %d, want %d", exitCode, ExitParseError)
		}
	})
}

func TestCLI_InspectMissingArtifact(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "inspect", filepath.Join(t.TempDir(), "absent.json"))
	if exitCode != ExitRuntimeError {
		t.Errorf("exit code = %d, want %d", exitCode, ExitRuntimeError)
	}
	if !strings.Contains(stderr, "Failed to load artifact") {
		t.Errorf("unexpected stderr: %s", stderr)
	}
}
