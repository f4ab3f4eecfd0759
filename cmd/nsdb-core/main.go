// Command nsdb-core is a standalone REPL front end for the core engine,
// grounded on the teacher's cmd/psqldef/psqldef.go flag parsing and
// password-prompt pattern.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/nsdb-io/nsdb/config"
	"github.com/nsdb-io/nsdb/engine"
	"github.com/nsdb-io/nsdb/metadata"
	"github.com/nsdb-io/nsdb/metadata/mssqlcache"
	"github.com/nsdb-io/nsdb/metadata/mysqlcache"
	"github.com/nsdb-io/nsdb/metadata/postgrescache"
	"github.com/nsdb-io/nsdb/metadata/sqlitecache"
	"github.com/nsdb-io/nsdb/nsdblog"
)

type options struct {
	ConfigFile string `short:"c" long:"config" description:"Path to the YAML configuration file" value-name:"filename"`
	Db         string `short:"d" long:"db" description:"Database name to operate in" value-name:"name" default:"root"`
	Namespace  string `short:"n" long:"namespace" description:"Namespace to operate in" value-name:"name" default:"registry"`

	CacheBackend string `long:"cache-backend" description:"Durable metadata cache backend: none, sqlite, postgres, mysql, mssql" value-name:"kind" default:"none"`
	CacheDSN     string `long:"cache-dsn" description:"Backend-specific connection target (sqlite: file path; postgres/mysql: host)" value-name:"dsn"`
	CacheUser    string `long:"cache-user" description:"User for the postgres/mysql cache backend" value-name:"user"`
	CachePort    int    `long:"cache-port" description:"Port for the postgres/mysql cache backend" value-name:"port"`
	CacheDB      string `long:"cache-dbname" description:"Database name for the postgres/mysql cache backend" value-name:"dbname"`
	PasswordPrompt bool `long:"password-prompt" description:"Prompt for the cache backend password instead of reading $NSDB_CACHE_PASSWORD"`

	Explain bool `long:"explain" description:"Pretty-print every statement's result with k0kubun/pp instead of a terse summary"`
	Help    bool `long:"help" description:"Show this help"`
}

func main() {
	nsdblog.Init()

	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[option...]"
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal(err)
	}

	backend, err := openBackend(opts)
	if err != nil {
		log.Fatal(err)
	}

	e, err := engine.New(cfg, engine.Option{Backend: backend})
	if err != nil {
		log.Fatal(err)
	}
	defer e.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runREPL(ctx, e, opts)
}

func openBackend(opts options) (metadata.Backend, error) {
	switch opts.CacheBackend {
	case "", "none":
		return nil, nil
	case "sqlite":
		return sqlitecache.NewBackend(opts.CacheDSN)
	case "postgres":
		return postgrescache.NewBackend(postgrescache.Config{
			Host: opts.CacheDSN, Port: opts.CachePort, User: opts.CacheUser,
			Password: resolvePassword(opts), DbName: opts.CacheDB,
		})
	case "mysql":
		return mysqlcache.NewBackend(mysqlcache.Config{
			Host: opts.CacheDSN, Port: opts.CachePort, User: opts.CacheUser,
			Password: resolvePassword(opts), DbName: opts.CacheDB,
		})
	case "mssql":
		return mssqlcache.NewBackend(mssqlcache.Config{
			Host: opts.CacheDSN, Port: opts.CachePort, User: opts.CacheUser,
			Password: resolvePassword(opts), DbName: opts.CacheDB,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.CacheBackend)
	}
}

func resolvePassword(opts options) string {
	password := os.Getenv("NSDB_CACHE_PASSWORD")
	if opts.PasswordPrompt {
		fmt.Print("Enter cache backend password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			log.Fatal(err)
		}
		password = string(pass)
	}
	return password
}

// runREPL reads one SQL statement per line from stdin and executes it
// against e, printing either a terse summary or, with --explain, the
// full result via k0kubun/pp.
func runREPL(ctx context.Context, e *engine.Engine, opts options) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		stmtCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		result, err := e.Execute(stmtCtx, opts.Db, opts.Namespace, line, time.Now().UnixMilli())
		cancel()

		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		if opts.Explain {
			pp.Println(result)
			continue
		}
		fmt.Println(summarize(result))
	}
	if err := scanner.Err(); err != nil {
		slog.Error("reading stdin", "error", err)
	}
}

func summarize(result any) string {
	switch r := result.(type) {
	case int:
		return strconv.Itoa(r) + " row(s) deleted"
	default:
		return fmt.Sprintf("%v", r)
	}
}
