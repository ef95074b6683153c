package config

import (
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestMySQLDSNSetsReadCommittedPerConnection(t *testing.T) {
	dsn := MySQLDSN("root", "pw", "tcp", "127.0.0.1:3306", "fiado")
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("ParseDSN: %v", err)
	}
	if got := cfg.Params["transaction_isolation"]; got != "'READ-COMMITTED'" {
		t.Fatalf("transaction_isolation = %q, want 'READ-COMMITTED'", got)
	}
	if !cfg.ParseTime || cfg.Loc.String() != "UTC" {
		t.Fatalf("parseTime=%v loc=%v, want true UTC", cfg.ParseTime, cfg.Loc)
	}
	if cfg.DBName != "fiado" || cfg.Addr != "127.0.0.1:3306" {
		t.Fatalf("unexpected target %s %s", cfg.Addr, cfg.DBName)
	}
}

func TestMySQLDSNUnixSocket(t *testing.T) {
	cfg, err := mysql.ParseDSN(MySQLDSN("app", "pw", "unix", "/var/run/mysqld/mysqld.sock", "fiado"))
	if err != nil {
		t.Fatalf("ParseDSN: %v", err)
	}
	if cfg.Net != "unix" || cfg.Addr != "/var/run/mysqld/mysqld.sock" {
		t.Fatalf("net=%s addr=%s", cfg.Net, cfg.Addr)
	}
}
