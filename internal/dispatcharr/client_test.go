package dispatcharr

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a minimal Dispatcharr API double covering the endpoints
// the client uses.
func fakeBackend(t *testing.T) (*httptest.Server, *map[string]string) {
	t.Helper()
	state := map[string]string{"active": "1"}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/accounts/token/", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &creds))
		if creds["username"] != "admin" || creds["password"] != "secret" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"access":"jwt-token","refresh":"other"}`)
	})
	mux.HandleFunc("/api/core/streamprofiles/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `[{"id":1,"name":"ffmpeg"},{"id":"b2c3","name":"proxy"}]`)
	})
	mux.HandleFunc("/api/core/settings/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[
			{"id":7,"key":"unrelated","value":"x"},
			{"id":42,"key":"default-stream-profile","value":%q}
		]`, state["active"])
	})
	mux.HandleFunc("/api/core/settings/42/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		var body map[string]string
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		state["active"] = body["value"]
		fmt.Fprint(w, `{"id":42,"key":"default-stream-profile","value":"`+body["value"]+`"}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &state
}

func loggedInClient(t *testing.T) (*Client, *map[string]string) {
	t.Helper()
	srv, state := fakeBackend(t)
	c := New(srv.URL)
	require.NoError(t, c.Login("admin", "secret"))
	return c, state
}

func TestLogin_BadCredentials(t *testing.T) {
	srv, _ := fakeBackend(t)
	c := New(srv.URL)
	err := c.Login("admin", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login")
}

func TestProfiles(t *testing.T) {
	c, _ := loggedInClient(t)

	profiles, err := c.Profiles()
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	// Numeric and string IDs both normalize to strings.
	assert.Equal(t, FlexID("1"), profiles[0].ID)
	assert.Equal(t, "ffmpeg", profiles[0].Name)
	assert.Equal(t, FlexID("b2c3"), profiles[1].ID)
}

func TestProfiles_Unauthenticated(t *testing.T) {
	srv, _ := fakeBackend(t)
	c := New(srv.URL)
	_, err := c.Profiles()
	require.Error(t, err)
}

func TestActiveProfile(t *testing.T) {
	c, _ := loggedInClient(t)

	profileID, settingsID, err := c.ActiveProfile()
	require.NoError(t, err)
	assert.Equal(t, "1", profileID)
	assert.Equal(t, 42, settingsID)
}

func TestSetActiveProfile_RoundTrip(t *testing.T) {
	c, state := loggedInClient(t)

	require.NoError(t, c.SetActiveProfile(42, "b2c3"))
	assert.Equal(t, "b2c3", (*state)["active"])

	profileID, _, err := c.ActiveProfile()
	require.NoError(t, err)
	assert.Equal(t, "b2c3", profileID)
}

func TestFlexID_UnmarshalRejectsObjects(t *testing.T) {
	var f FlexID
	err := json.Unmarshal([]byte(`{"nested":true}`), &f)
	require.Error(t, err)
}
