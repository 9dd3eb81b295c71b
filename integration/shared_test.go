//go:build basic || database

package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedBinaryPath holds the path to a patternscan binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getBinary returns the path to the patternscan binary, building it once if needed.
func getBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "patternscan-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binPath := filepath.Join(tempDir, "patternscan")
		buildCmd := exec.Command("go", "build", "-o", binPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build patternscan: %v\n%s", err, out))
		}

		sharedBinaryPath = binPath
	})

	return sharedBinaryPath
}

// result is the outcome of one CLI invocation.
type result struct {
	stdout   string
	stderr   string
	exitCode int
}

// runPatternscan runs the binary in dir with an isolated HOME and extra
// environment entries.
func runPatternscan(t *testing.T, dir string, env []string, args ...string) result {
	t.Helper()
	cmd := exec.Command(getBinary(), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	res := result{stdout: stdout.String(), stderr: stderr.String()}
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		require.True(t, ok, "command did not run: %v", err)
		res.exitCode = exitErr.ExitCode()
		t.Logf("Command exited %d: %s\nstderr: %s", res.exitCode, cmd.String(), res.stderr)
	}
	return res
}

// isolatedEnv points HOME at a fresh directory so default cache and history
// databases never touch the real home directory.
func isolatedEnv(t *testing.T, extra ...string) []string {
	t.Helper()
	return append([]string{"HOME=" + t.TempDir(), "NO_COLOR=1"}, extra...)
}

// writeProjectFile creates a file below root, making parent directories.
func writeProjectFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// seedNuxtProject writes a small Nuxt project with recurring component and
// API patterns and returns its root.
func seedNuxtProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeProjectFile(t, root, "nuxt.config.ts", "export default defineNuxtConfig({})\n")
	writeProjectFile(t, root, "package.json", `{"dependencies": {"nuxt": "^3.12.0"}}`)

	for _, name := range []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"} {
		writeProjectFile(t, root, "components/"+name+".vue",
			"<script setup lang=\"ts\">\nconst props = defineProps<{ title: string }>()\n</script>\n")
	}
	writeProjectFile(t, root, "components/Plain.vue", "<template><div /></template>\n")
	writeProjectFile(t, root, "pages/index.vue", "<template><Alpha title=\"home\" /></template>\n")
	for _, name := range []string{"users", "posts", "stats"} {
		writeProjectFile(t, root, "server/api/"+name+".ts",
			"export default defineEventHandler(async (event) => {\n  const session = await requireAuth(event)\n  return session\n})\n")
	}
	writeProjectFile(t, root, "node_modules/pkg/Ignored.vue", "const props = defineProps<{ x: number }>()\n")
	return root
}
