package account

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfflineUUID(t *testing.T) {
	// Matches what a vanilla server in offline mode assigns
	assert.Equal(t, "b50ad385-829d-3141-a216-7e7d7539ba7f", OfflineUUID("Notch").String())
	id := OfflineUUID("someone")
	assert.Equal(t, 3, int(id.Version()))
	assert.Equal(t, OfflineUUID("someone"), id)
}

func TestAccounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	accs, err := LoadFrom(path)
	require.NoError(t, err)
	_, err = accs.Current()
	assert.ErrorIs(t, err, ErrNoneSelected)

	_, err = accs.Add("Steve")
	require.NoError(t, err)
	_, err = accs.Add("alex_")
	require.NoError(t, err)
	_, err = accs.Add("steve")
	assert.ErrorIs(t, err, ErrAlreadyExists)
	_, err = accs.Add("no spaces allowed")
	assert.Error(t, err)

	current, err := accs.Current()
	require.NoError(t, err)
	assert.Equal(t, "Steve", current.Username)
	assert.Equal(t, "0", current.AccessToken())

	require.NoError(t, accs.Select("ALEX_"))
	require.NoError(t, accs.Save())

	reloaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "alex_", reloaded.Selected)
	require.Len(t, reloaded.Accounts, 2)
	assert.Equal(t, "alex_", reloaded.Accounts[0].Username)
	assert.Equal(t, OfflineUUID("Steve"), reloaded.Accounts[1].UUID)

	require.NoError(t, reloaded.Remove("alex_"))
	assert.Equal(t, "Steve", reloaded.Selected)
	assert.ErrorIs(t, reloaded.Remove("alex_"), ErrNotFound)
	assert.ErrorIs(t, reloaded.Select("nobody"), ErrNotFound)
}

func TestCurrentPrefersConfig(t *testing.T) {
	accs, err := LoadFrom(filepath.Join(t.TempDir(), "accounts.json"))
	require.NoError(t, err)
	_, err = accs.Add("First")
	require.NoError(t, err)
	_, err = accs.Add("Second")
	require.NoError(t, err)

	viper.Set("account.selected", "second")
	t.Cleanup(func() { viper.Set("account.selected", "") })
	current, err := accs.Current()
	require.NoError(t, err)
	assert.Equal(t, "Second", current.Username)
}
