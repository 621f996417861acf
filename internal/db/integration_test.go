//go:build integration

package db

import (
	"fmt"
	"net"
	"os/exec"
	"testing"
	"time"

	"github.com/blueox/schedule/internal/config"
)

// testDoltServer manages a Dolt SQL server lifecycle for integration tests.
type testDoltServer struct {
	Port int
	Dir  string
	cmd  *exec.Cmd
}

// startDoltServer initializes a Dolt repo in a temp directory and starts
// dolt sql-server on a free port. The server is stopped when the test
// completes.
func startDoltServer(t *testing.T) *testDoltServer {
	t.Helper()

	dir := t.TempDir()

	for _, kv := range [][2]string{
		{"user.name", "Test Runner"},
		{"user.email", "test@blueox.dev"},
	} {
		cfg := exec.Command("dolt", "config", "--global", "--add", kv[0], kv[1])
		cfg.Dir = dir
		cfg.CombinedOutput() // ignore errors if already set
	}

	init := exec.Command("dolt", "init")
	init.Dir = dir
	if out, err := init.CombinedOutput(); err != nil {
		t.Fatalf("dolt init: %s\n%s", err, out)
	}

	port := freePort(t)
	cmd := exec.Command("dolt", "sql-server", "--port", fmt.Sprintf("%d", port), "--host", "127.0.0.1")
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		t.Fatalf("dolt sql-server start: %v", err)
	}

	srv := &testDoltServer{Port: port, Dir: dir, cmd: cmd}
	t.Cleanup(func() {
		srv.cmd.Process.Kill()
		srv.cmd.Wait()
	})

	waitForServer(t, port)
	return srv
}

func (s *testDoltServer) config(database string) config.DatabaseConfig {
	return config.DatabaseConfig{Driver: "mysql", Host: "127.0.0.1", Port: s.Port, User: "root", Database: database}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func waitForServer(t *testing.T, port int) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("dolt sql-server not ready on port %d after 10s", port)
}

func TestIntegration_CreateMigrateImport(t *testing.T) {
	srv := startDoltServer(t)
	cfg := srv.config("schedule_it")

	adminDB, err := ConnectAdmin(cfg)
	if err != nil {
		t.Fatalf("ConnectAdmin: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := CreateDatabase(adminDB, cfg.Database); err != nil {
			t.Fatalf("CreateDatabase (%d): %v", i+1, err)
		}
	}

	db, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	var tables []string
	if err := db.Raw("SHOW TABLES").Scan(&tables).Error; err != nil {
		t.Fatalf("SHOW TABLES: %v", err)
	}
	want := map[string]bool{"tasks": false, "users": false, "profiles": false}
	for _, tbl := range tables {
		if _, ok := want[tbl]; ok {
			want[tbl] = true
		}
	}
	for tbl, found := range want {
		if !found {
			t.Errorf("table %q not found; got %v", tbl, tables)
		}
	}

	if err := DropDatabase(adminDB, cfg.Database); err != nil {
		t.Fatalf("DropDatabase: %v", err)
	}
}
