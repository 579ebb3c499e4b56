package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"scrapesync-backend/internal/db"
	"scrapesync-backend/internal/store"
	"scrapesync-backend/lib/testutil"
	"testing"

	"github.com/stretchr/testify/require"
)

// seed creates a database file holding one record of each kind.
func seed(t *testing.T) string {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "database.db")
	res, cleanup := testutil.SetupDatabase(t, testutil.DatabaseParams{DbPath: path})
	defer cleanup()

	user, err := res.Store.InsertUser(ctx, store.NewUser{Name: "John Johnson", Email: "example@ex.com", Phone: "1234567890"})
	require.NoError(t, err)
	address, err := res.Store.InsertAddress(ctx, store.NewAddress{StreetAddress: "Shevchenka str. 25", City: "Zhmerynka", Country: "Ukraine"})
	require.NoError(t, err)
	_, err = res.Store.InsertCreditCard(ctx, store.NewCreditCard{
		CardNumber:     1111222233334444,
		CardExpiryDate: "04/20",
		CardType:       "Pineapple Express",
		UserID:         store.Ptr(user.ID),
		AddressID:      store.Ptr(address.ID),
	})
	require.NoError(t, err)
	return path
}

func resetFlags() {
	retrieve = false
	updateUsers = false
	updateAddresses = false
	updateCards = false
	dbOverride = ""
}

func run(t *testing.T, args ...string) (string, error) {
	resetFlags()
	t.Cleanup(resetFlags)

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "config.json5")}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPrintSnapshot(t *testing.T) {
	out := &bytes.Buffer{}
	printSnapshot(out, store.Snapshot{
		Users:       []db.User{{ID: 1, Name: "Ada", Email: "ada@example.com", Phone: "1"}},
		Addresses:   []db.Address{{ID: 2, StreetAddress: "12 Analytical Row", City: "London", Country: "UK"}},
		CreditCards: []db.CreditCard{{ID: 3, CardNumber: 42, CardExpiryDate: "01/30", CardType: "visa", UserID: db.SomeID(1)}},
	})

	text := out.String()
	for _, header := range []string{"ADDRESS ID", "STREET ADDRESS", "CARD EXP DATE", "USER ID"} {
		require.Contains(t, text, header)
	}
	require.Contains(t, text, "ada@example.com")
	require.Contains(t, text, "12 Analytical Row")
	require.Contains(t, text, "01/30")
}

func TestRetrieve(t *testing.T) {
	path := seed(t)

	out, err := run(t, "--db", path, "-r")
	require.NoError(t, err)
	require.Contains(t, out, "John Johnson")
	require.Contains(t, out, "Zhmerynka")
	require.Contains(t, out, "1111222233334444")
}

func TestDelete(t *testing.T) {
	path := seed(t)

	out, err := run(t, "--db", path, "delete", "credit-cards", "1")
	require.NoError(t, err)
	require.Contains(t, out, "Data with id 1 successfully deleted from credit_cards")

	_, err = run(t, "--db", path, "delete", "credit_cards", "1")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = run(t, "--db", path, "delete", "planets", "1")
	require.Error(t, err)
}

func TestUpdateUsers(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": 1, "name": "Leanne Graham", "email": "Sincere@april.biz", "phone": "1-770-736-8031"}]`)
	}))
	defer source.Close()

	t.Setenv("SCRAPESYNC_SOURCE_USERS_URL", source.URL)
	t.Setenv("SCRAPESYNC_SOURCE_DISABLE_CLOUDFLARE_BYPASS", "true")
	path := filepath.Join(t.TempDir(), "database.db")

	out, err := run(t, "--db", path, "--update-users")
	require.NoError(t, err)
	require.Contains(t, out, "User info updated. Call -r to see updated data")

	out, err = run(t, "--db", path, "-r")
	require.NoError(t, err)
	require.Contains(t, out, "Leanne Graham")
}

func TestLoadConfigDefaults(t *testing.T) {
	loaded, err := loadConfig(filepath.Join(t.TempDir(), "config.json5"), false)
	require.NoError(t, err)
	require.Equal(t, "./db/database.db", loaded.Database.Url)
	require.Equal(t, "@every 30m", loaded.Schedule.Users)
	require.Equal(t, "@every 40m", loaded.Schedule.CreditCards)
	require.Equal(t, "@every 60m", loaded.Schedule.Addresses)
	require.Equal(t, 8000, loaded.Server.Port)
}

func TestLoadConfigFromParentDirectory(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0777))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "config.json5"),
		[]byte(`{ server: { port: 9100 }, schedule: { users: "@every 5m" } }`),
		0644,
	))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	loaded, err := loadConfig("config.json5", true)
	require.NoError(t, err)
	require.Equal(t, 9100, loaded.Server.Port)
	require.Equal(t, "@every 5m", loaded.Schedule.Users)
	require.Equal(t, "@every 40m", loaded.Schedule.CreditCards)

	// without the parent lookup only the defaults apply
	loaded, err = loadConfig("config.json5", false)
	require.NoError(t, err)
	require.Equal(t, 8000, loaded.Server.Port)
}
