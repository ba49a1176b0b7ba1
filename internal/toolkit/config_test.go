package toolkit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		content   string
		noFile    bool
		expectErr string
		expected  Config
	}{
		{
			name:     "Missing file falls back to defaults",
			noFile:   true,
			expected: DefaultConfig(),
		},
		{
			name:     "File without toolkit block",
			content:  `# nothing here`,
			expected: DefaultConfig(),
		},
		{
			name: "All attributes",
			content: `
				toolkit {
					command            = ["python3", "-m", "radiomics_shim"]
					min_roi_dimensions = 2
					min_roi_size       = 0
					threads            = 2
					env = {
						PYTHONPATH = "/opt/shim"
					}
				}
			`,
			expected: Config{
				Command:          []string{"python3", "-m", "radiomics_shim"},
				MinROIDimensions: 2,
				MinROISize:       0,
				Threads:          2,
				Env:              map[string]string{"PYTHONPATH": "/opt/shim"},
			},
		},
		{
			name: "Partial block keeps other defaults",
			content: `
				toolkit {
					min_roi_size = 500
				}
			`,
			expected: Config{
				Command:          []string{DefaultCommand},
				MinROIDimensions: DefaultMinROIDimensions,
				MinROISize:       500,
				Threads:          DefaultThreads,
			},
		},
		{
			name:      "Invalid HCL is rejected",
			content:   `toolkit {`,
			expectErr: "failed to parse toolkit config",
		},
		{
			name: "Zero threads is rejected",
			content: `
				toolkit {
					threads = 0
				}
			`,
			expectErr: "threads must be at least 1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "absent.hcl")
			if !tc.noFile {
				path = writeFile(t, "toolkit.hcl", tc.content)
			}

			cfg, err := LoadConfig(path)
			if tc.expectErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.expectErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, cfg)
		})
	}
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}
