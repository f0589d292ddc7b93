package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
	t.Setenv("SITE_LATITUDE", "10.7769")
	t.Setenv("SITE_LONGITUDE", "106.7009")
	t.Setenv("APP_TIMEZONE", "Asia/Ho_Chi_Minh")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_BASE_URL", "https://cafe.example/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://cafe.example", cfg.App.BaseURL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.App.AllowedOrigins)
	require.Len(t, cfg.Sites, 1)
	assert.Equal(t, 2.0, cfg.Sites[0].MaxDistanceMeters)
	assert.Equal(t, 50.0, cfg.Sites[0].AdvisoryDistanceMeters)
	assert.Equal(t, 0.5, cfg.FaceMatch.Tolerance)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Ho_Chi_Minh", loc.String())
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"SITE_LATITUDE":        "91",
		"APP_TIMEZONE":         "Mars/Olympus",
		"FACE_MATCH_TOLERANCE": "1.5",
		"ADMIN_USERNAME":       "owner",
		"DB_PORT":              "abc",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadSitesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	content := `sites:
  - name: District 1
    latitude: 10.7769
    longitude: 106.7009
  - name: Thu Duc
    latitude: 10.8494
    longitude: 106.7537
    max_distance_meters: 15
    advisory_distance_meters: 80
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	sites, err := LoadSites(path)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "District 1", sites[0].Name)
	assert.Equal(t, 2.0, sites[0].MaxDistanceMeters)
	assert.Equal(t, 15.0, sites[1].MaxDistanceMeters)
	assert.Equal(t, 80.0, sites[1].AdvisoryDistanceMeters)

	setRequiredEnv(t)
	t.Setenv("SITE_LATITUDE", "")
	t.Setenv("SITES_FILE", path)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Len(t, cfg.Sites, 2)
}

func TestLoadSitesFileErrors(t *testing.T) {
	_, err := LoadSites(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sites: []\n"), 0o600))
	_, err = LoadSites(path)
	assert.Error(t, err)
}
