package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercado/pkg/localstore"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNewAppServesHealth(t *testing.T) {
	v := loadConfig()

	db, err := gorm.Open(sqlite.Open("file:main_test?mode=memory&cache=shared"), &gorm.Config{})
	assert.NoError(t, err)

	store, err := localstore.Open("")
	assert.NoError(t, err)

	app, err := newApp(v, db, store, nil)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["events"], "no broker wired in this setup")
}

func TestLoadConfigDefaults(t *testing.T) {
	v := loadConfig()
	assert.Equal(t, ":8080", v.GetString("APP_PORT"))
	assert.Equal(t, "sqlite", v.GetString("DB_DRIVER"))
	assert.NotEmpty(t, v.GetString("JWT_SECRET"))
	assert.NotEmpty(t, v.GetString("LOCAL_STORE_PATH"))
}

func TestOpenDatabaseRejectsUnknownDriver(t *testing.T) {
	v := viper.New()
	v.Set("DB_DRIVER", "oracle")
	v.Set("DATABASE_DSN", "whatever")

	_, err := openDatabase(v)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DB_DRIVER")
}
