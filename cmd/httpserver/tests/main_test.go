//go:build integration

package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-wallet/cmd/httpserver"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/pkg/configpkg"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/go-petr/pet-wallet/pkg/randompkg"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var server *httpserver.Server

// TestMain calls testMain and passes the returned exit code to os.Exit(). The reason
// that TestMain is basically a wrapper around testMain is because os.Exit() does not
// respect deferred functions, so this configuration allows for a deferred function.
func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

// testMain returns an integer denoting an exit code to be returned and used in
// TestMain. The exit code 0 denotes success, all other codes denote failure.
func testMain(m *testing.M) int {
	config, err := configpkg.Load("../../../configs")
	if err != nil {
		log.Println("cannot load config:", err)
		return 1
	}

	zerolog.SetGlobalLevel(zerolog.FatalLevel)
	logger := middleware.CreateLogger(config)

	conn, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot setup database")
	}

	gin.SetMode(gin.ReleaseMode)

	server, err = httpserver.New(conn, logger, config, nil, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}

	return m.Run()
}

type registeredUser struct {
	Username    string
	Password    string
	Email       string
	AccessToken string
}

// registerUser creates a user through the public API and returns their
// credentials along with a valid access token.
func registerUser(t *testing.T) registeredUser {
	t.Helper()

	user := registeredUser{
		Username: randompkg.Owner(),
		Password: randompkg.String(10),
		Email:    randompkg.Email(),
	}

	body := map[string]string{
		"username": user.Username,
		"password": user.Password,
		"fullname": randompkg.Owner(),
		"email":    user.Email,
		"bvn":      randompkg.BVN(),
	}

	res := doRequest(t, http.MethodPost, "/users", "", body)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var decoded struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&decoded))
	require.NotEmpty(t, decoded.AccessToken)

	user.AccessToken = decoded.AccessToken

	return user
}

func doRequest(t *testing.T, method, url, accessToken string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)

	if accessToken != "" {
		req.Header.Set(middleware.AuthHeaderKey, middleware.AuthTypeBearer+" "+accessToken)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	return recorder
}
