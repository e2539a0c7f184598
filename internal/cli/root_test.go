package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"coinsync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketsJSON = `[
  {"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"","current_price":67012.5,
   "market_cap":1320000000000,"market_cap_rank":1,"price_change_percentage_24h":2.31},
  {"id":"ethereum","symbol":"eth","name":"Ethereum","image":"","current_price":3120.01,
   "market_cap":375000000000,"market_cap_rank":2,"price_change_percentage_24h":-1.5}
]`

// writeTestConfig starts a fake upstream and writes a config pointing at it.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, marketsJSON)
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := strings.Join([]string{
		"api:",
		"  coingecko:",
		"    base_url: " + server.URL,
		"    min_interval_ms: 0",
		"logging:",
		"  level: error",
		"  dir: " + filepath.Join(dir, "logs"),
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "coinsync", cmd.Use)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "configs/config.yaml", configFlag.DefValue)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"sync", "watch", "verify"} {
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestSyncCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	syncCmd, _, err := cmd.Find([]string{"sync"})
	require.NoError(t, err)

	for _, name := range []string{"pages", "filter", "search", "show", "simulate-alert"} {
		assert.NotNil(t, syncCmd.Flags().Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, "all", syncCmd.Flags().Lookup("filter").DefValue)
}

func TestSyncCommand(t *testing.T) {
	path := writeTestConfig(t)

	out, err := execute(t, "sync", "--config", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Bitcoin (BTC)")
	assert.Contains(t, out, "$67,012.50")
	assert.Contains(t, out, "+2.31%")
	assert.Contains(t, out, "-1.50%")
	assert.Contains(t, out, "2 of 2 records")
}

func TestSyncCommand_Filter(t *testing.T) {
	path := writeTestConfig(t)

	out, err := execute(t, "sync", "--config", path, "--filter", "losers")
	require.NoError(t, err)

	assert.Contains(t, out, "Ethereum")
	assert.NotContains(t, out, "Bitcoin")
	assert.Contains(t, out, "1 of 1 records")
}

func TestSyncCommand_SimulateAlert(t *testing.T) {
	path := writeTestConfig(t)

	out, err := execute(t, "sync", "--config", path, "--simulate-alert")
	require.NoError(t, err)

	assert.Regexp(t, `\[(HIGH|MEDIUM)\] (price_spike|price_drop|data_integrity): `, out)
}

func TestSyncCommand_MissingConfig(t *testing.T) {
	_, err := execute(t, "sync", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bootstrap")
}

func TestVerifyCommand(t *testing.T) {
	path := writeTestConfig(t)

	out, err := execute(t, "verify", "bitcoin", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "bitcoin: ✓ valid")
	assert.Contains(t, out, "stored:")
}

func TestVerifyCommand_NotFound(t *testing.T) {
	path := writeTestConfig(t)

	_, err := execute(t, "verify", "dogecoin", "--config", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVerifyCommand_RequiresID(t *testing.T) {
	_, err := execute(t, "verify")
	assert.Error(t, err)
}
