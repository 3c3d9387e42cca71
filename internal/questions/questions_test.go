package questions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedBank(t *testing.T) {
	bank, err := Load("")
	require.NoError(t, err)
	require.NotEmpty(t, bank.Categories())
	for _, c := range bank.Categories() {
		require.NotEmpty(t, c.Name)
		require.NotEmpty(t, c.Questions)
	}
}

func TestLoadFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	data := `[{"categoryName":"Math","questions":[{"id":"m1","question":"Smallest prime","answer":"TWO","timeLimit":15}]}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	bank, err := Load(path)
	require.NoError(t, err)
	require.Len(t, bank.Categories(), 1)
	require.Equal(t, "Math", bank.Categories()[0].Name)
	require.Equal(t, "TWO", bank.Categories()[0].Questions[0].Answer)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestParseRejectsInvalidBanks(t *testing.T) {
	tests := map[string]string{
		"malformed json":  `{`,
		"empty bank":      `[]`,
		"unnamed":         `[{"categoryName":" ","questions":[{"id":"q","question":"p","answer":"A","timeLimit":10}]}]`,
		"no questions":    `[{"categoryName":"C","questions":[]}]`,
		"empty prompt":    `[{"categoryName":"C","questions":[{"id":"q","question":"","answer":"A","timeLimit":10}]}]`,
		"empty answer":    `[{"categoryName":"C","questions":[{"id":"q","question":"p","answer":" ","timeLimit":10}]}]`,
		"zero time limit": `[{"categoryName":"C","questions":[{"id":"q","question":"p","answer":"A","timeLimit":0}]}]`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			require.Error(t, err)
		})
	}
}
