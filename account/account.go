package account

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/packlaunch/packlaunch/core"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// OfflineAccessToken is passed to the game as the access token of every offline account
const OfflineAccessToken = "0"

var (
	ErrNotFound      = errors.New("account not found")
	ErrAlreadyExists = errors.New("account already exists")
	ErrNoneSelected  = errors.New("no account selected")
)

var validUsername = regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`)

// Account is an offline account: just a username and the UUID the game derives from it
type Account struct {
	Username string    `json:"username"`
	UUID     uuid.UUID `json:"uuid"`
}

// AccessToken is always the offline token
func (a Account) AccessToken() string {
	return OfflineAccessToken
}

// UserType is the value of ${user_type}
func (a Account) UserType() string {
	return "legacy"
}

// Accounts is the contents of accounts.json
type Accounts struct {
	Selected string    `json:"selected,omitempty"`
	Accounts []Account `json:"accounts"`

	path string
}

// OfflineUUID derives the UUID the server side uses for an offline player, a name based (version 3) UUID of
// "OfflinePlayer:<name>"
func OfflineUUID(username string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	id, _ := uuid.FromBytes(sum[:])
	return id
}

// Load reads accounts.json from the launcher data directory; a missing file is an empty list
func Load() (*Accounts, error) {
	path, err := core.GetAccountsFile()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

func LoadFrom(path string) (*Accounts, error) {
	a := &Accounts{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return a, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return a, nil
}

func (a *Accounts) Save() error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return core.WriteFileAtomic(a.path, data)
}

// Find returns the account with the given username, ignoring case
func (a *Accounts) Find(username string) (*Account, error) {
	for i := range a.Accounts {
		if strings.EqualFold(a.Accounts[i].Username, username) {
			return &a.Accounts[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, username)
}

// Add creates an offline account. The first account added becomes the selected one.
func (a *Accounts) Add(username string) (*Account, error) {
	if !validUsername.MatchString(username) {
		return nil, fmt.Errorf("invalid username %q: must be 3 to 16 letters, digits or underscores", username)
	}
	if _, err := a.Find(username); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, username)
	}
	a.Accounts = append(a.Accounts, Account{Username: username, UUID: OfflineUUID(username)})
	sort.SliceStable(a.Accounts, func(i, j int) bool {
		return strings.ToLower(a.Accounts[i].Username) < strings.ToLower(a.Accounts[j].Username)
	})
	if a.Selected == "" {
		a.Selected = username
	}
	core.Log.Debug("added account", zap.String("username", username))
	return a.Find(username)
}

// Remove deletes an account, moving the selection to the first remaining account if it was selected
func (a *Accounts) Remove(username string) error {
	for i := range a.Accounts {
		if strings.EqualFold(a.Accounts[i].Username, username) {
			a.Accounts = append(a.Accounts[:i], a.Accounts[i+1:]...)
			if strings.EqualFold(a.Selected, username) {
				a.Selected = ""
				if len(a.Accounts) > 0 {
					a.Selected = a.Accounts[0].Username
				}
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, username)
}

func (a *Accounts) Select(username string) error {
	acc, err := a.Find(username)
	if err != nil {
		return err
	}
	a.Selected = acc.Username
	return nil
}

// Current returns the account to launch with: the account.selected config key if set, else the saved selection
func (a *Accounts) Current() (*Account, error) {
	name := viper.GetString("account.selected")
	if name == "" {
		name = a.Selected
	}
	if name == "" {
		return nil, ErrNoneSelected
	}
	return a.Find(name)
}
