package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslock/lockerd/internal/api"
	"github.com/campuslock/lockerd/internal/factory"
	"github.com/campuslock/lockerd/internal/services/auth"
	"github.com/campuslock/lockerd/internal/services/rental"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "lockerctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/lockerctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp token file
	tokenFile := filepath.Join(t.TempDir(), "token")

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  tokenFile,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token", token,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// Short rental duration and sweep interval so the overdue path is
	// reachable within the test
	app, err := factory.New(factory.Config{
		Logger: logger,
		AuthConfig: auth.Config{
			AdminEmails: []string{"admin@campus.edu"},
		},
		RentalConfig: rental.Config{
			TotalLockers:   5,
			RentalDuration: 200 * time.Millisecond,
			OverduePenalty: 20,
			AccessCodeTTL:  30 * time.Second,
		},
		SweepInterval: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, app.RentalController.Provision(context.Background()))

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go app.Sweeper.Run(sweepCtx)

	router := api.NewRouter(api.RouterConfig{
		Logger:           logger,
		AuthService:      app.AuthService,
		RentalController: app.RentalController,
		WaitlistService:  app.WaitlistService,
		AuditService:     app.AuditService,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr: serverURL,
		shutdown: func() {
			stopSweeper()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type authResponse struct {
	User struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		IsAdmin bool   `json:"is_admin"`
	} `json:"user"`
	SessionToken string `json:"session_token"`
}

type lockerResponse struct {
	ID       int     `json:"id"`
	Status   string  `json:"status"`
	RentedBy *string `json:"rented_by"`
}

type lockerListResponse struct {
	Lockers []lockerResponse `json:"lockers"`
}

type returnResponse struct {
	Penalty int `json:"penalty"`
}

type accessCodeResponse struct {
	Code string `json:"code"`
}

type waitlistResponse struct {
	Entries []string `json:"entries"`
}

type auditLogResponse struct {
	Entries []struct {
		Actor  string `json:"actor"`
		Action string `json:"action"`
	} `json:"entries"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_AccountCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Register
	output, err := cli.run("account", "register",
		"--id", "S100", "--name", "Alice", "--email", "alice@campus.edu", "--pass", "secret123")
	require.NoError(t, err, "output: %s", output)

	var authResp authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &authResp))
	assert.Equal(t, "Alice", authResp.User.Name)
	assert.False(t, authResp.User.IsAdmin)
	assert.NotEmpty(t, authResp.SessionToken)

	// Get me (token should be saved in token file)
	output, err = cli.run("account", "me")
	require.NoError(t, err, "output: %s", output)

	var me struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &me))
	assert.Equal(t, "S100", me.ID)
	assert.Equal(t, "alice@campus.edu", me.Email)

	// Logout clears the token
	output, err = cli.run("account", "logout")
	require.NoError(t, err, "output: %s", output)

	var msgResp messageResponse
	require.NoError(t, json.Unmarshal([]byte(output), &msgResp))
	assert.Equal(t, "Logged out", msgResp.Message)

	output, err = cli.run("account", "me")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "unauthorized")
}

func TestCLI_RentalFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("account", "register",
		"--id", "S100", "--name", "Alice", "--email", "alice@campus.edu", "--pass", "secret123")
	require.NoError(t, err, "output: %s", output)
	var authResp authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &authResp))
	token := authResp.SessionToken

	// List lockers
	output, err = cli.runWithToken(token, "locker", "list")
	require.NoError(t, err, "output: %s", output)
	var list lockerListResponse
	require.NoError(t, json.Unmarshal([]byte(output), &list))
	assert.Len(t, list.Lockers, 5)

	// Rent locker 2
	output, err = cli.runWithToken(token, "locker", "rent", "2")
	require.NoError(t, err, "output: %s", output)
	var locker lockerResponse
	require.NoError(t, json.Unmarshal([]byte(output), &locker))
	assert.Equal(t, "rented", locker.Status)
	require.NotNil(t, locker.RentedBy)
	assert.Equal(t, "S100", *locker.RentedBy)

	// Generate and verify an access code
	output, err = cli.runWithToken(token, "locker", "code", "2")
	require.NoError(t, err, "output: %s", output)
	var code accessCodeResponse
	require.NoError(t, json.Unmarshal([]byte(output), &code))
	assert.Len(t, code.Code, 6)

	output, err = cli.runWithToken(token, "locker", "verify", "2", code.Code)
	require.NoError(t, err, "output: %s", output)

	// Let the rental lapse; the sweeper marks it overdue
	time.Sleep(500 * time.Millisecond)

	output, err = cli.runWithToken(token, "locker", "get", "2")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &locker))
	assert.Equal(t, "overdue", locker.Status)

	// Late return pays the penalty
	output, err = cli.runWithToken(token, "locker", "return", "2")
	require.NoError(t, err, "output: %s", output)
	var returned returnResponse
	require.NoError(t, json.Unmarshal([]byte(output), &returned))
	assert.Equal(t, 20, returned.Penalty)
}

func TestCLI_WaitlistCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("account", "register",
		"--id", "S100", "--name", "Alice", "--email", "alice@campus.edu", "--pass", "secret123")
	require.NoError(t, err, "output: %s", output)
	var authResp authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &authResp))
	token := authResp.SessionToken

	output, err = cli.runWithToken(token, "waitlist", "join")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.runWithToken(token, "waitlist", "list")
	require.NoError(t, err, "output: %s", output)
	var waitlist waitlistResponse
	require.NoError(t, json.Unmarshal([]byte(output), &waitlist))
	assert.Equal(t, []string{"alice@campus.edu"}, waitlist.Entries)
}

func TestCLI_AdminCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Register an admin and a student
	output, err := cli.run("account", "register",
		"--id", "S900", "--name", "Admin", "--email", "admin@campus.edu", "--pass", "secret123")
	require.NoError(t, err, "output: %s", output)
	var adminAuth authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &adminAuth))
	require.True(t, adminAuth.User.IsAdmin)
	adminToken := adminAuth.SessionToken

	output, err = cli.run("account", "register",
		"--id", "S100", "--name", "Alice", "--email", "alice@campus.edu", "--pass", "secret123")
	require.NoError(t, err, "output: %s", output)
	var aliceAuth authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &aliceAuth))
	aliceToken := aliceAuth.SessionToken

	// Alice rents; admin force-returns
	output, err = cli.runWithToken(aliceToken, "locker", "rent", "1")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.runWithToken(adminToken, "admin", "force-return", "1")
	require.NoError(t, err, "output: %s", output)
	var returned returnResponse
	require.NoError(t, json.Unmarshal([]byte(output), &returned))
	assert.Equal(t, 0, returned.Penalty)

	// Admin puts a locker into maintenance
	output, err = cli.runWithToken(adminToken, "admin", "status", "1", "maintenance")
	require.NoError(t, err, "output: %s", output)
	var locker lockerResponse
	require.NoError(t, json.Unmarshal([]byte(output), &locker))
	assert.Equal(t, "maintenance", locker.Status)

	// Alice cannot use admin commands
	output, err = cli.runWithToken(aliceToken, "admin", "audit")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "forbidden")

	// The audit log tells the story
	output, err = cli.runWithToken(adminToken, "admin", "audit")
	require.NoError(t, err, "output: %s", output)
	var log auditLogResponse
	require.NoError(t, json.Unmarshal([]byte(output), &log))
	require.NotEmpty(t, log.Entries)
	assert.Equal(t, "UPDATE_LOCKER_STATUS", log.Entries[0].Action)
	assert.Equal(t, "admin@campus.edu", log.Entries[0].Actor)

	// Admin removes Alice
	output, err = cli.runWithToken(adminToken, "admin", "remove-user", "S100")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.runWithToken(aliceToken, "account", "me")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "unauthorized")
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// List lockers without auth
	output, err := cli.run("locker", "list")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "unauthorized")

	// Rent a locker that doesn't exist
	output, err = cli.run("account", "register",
		"--id", "S100", "--name", "Alice", "--email", "alice@campus.edu", "--pass", "secret123")
	require.NoError(t, err)
	var authResp authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &authResp))

	output, err = cli.runWithToken(authResp.SessionToken, "locker", "rent", "99")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "not found")
}
