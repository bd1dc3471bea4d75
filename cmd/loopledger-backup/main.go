// loopledger-backup exports, imports, or resets the ledger database
// from the command line, without going through the HTTP server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"loopledger/internal/backup"
	"loopledger/internal/config"
	applog "loopledger/internal/log"
	"loopledger/internal/store"
)

func main() {
	_ = godotenv.Load()

	var (
		exportFlag = flag.Bool("export", false, "write a backup file and exit")
		importFlag = flag.String("import", "", "restore from the given backup file")
		resetFlag  = flag.Bool("reset", false, "clear all collections (asks for confirmation)")
		outFlag    = flag.String("out", "", "export destination (default: dated file in the working directory)")
		yesFlag    = flag.Bool("yes", false, "skip the reset confirmation prompt")
	)
	flag.Parse()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.SQLiteDBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}
	defer st.Close()

	engine := backup.NewEngine(st)
	ctx := context.Background()

	switch {
	case *exportFlag:
		if err := runExport(ctx, engine, *outFlag); err != nil {
			fmt.Fprintln(os.Stderr, "export:", err)
			os.Exit(1)
		}
	case *importFlag != "":
		if err := runImport(ctx, engine, *importFlag); err != nil {
			fmt.Fprintln(os.Stderr, "import:", err)
			os.Exit(1)
		}
	case *resetFlag:
		if err := runReset(ctx, engine, *yesFlag); err != nil {
			fmt.Fprintln(os.Stderr, "reset:", err)
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runExport(ctx context.Context, engine *backup.Engine, out string) error {
	data, err := engine.Export(ctx)
	if err != nil {
		return err
	}
	if out == "" {
		out = backup.Filename(time.Now())
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return err
	}
	fmt.Println("wrote", out)
	return nil
}

func runImport(ctx context.Context, engine *backup.Engine, path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := engine.Import(ctx, payload); err != nil {
		return err
	}
	fmt.Println("restored", path)
	return nil
}

func runReset(ctx context.Context, engine *backup.Engine, confirmed bool) error {
	if !confirmed {
		fmt.Print("This clears every loop, expense, income record, and setting. Type 'yes' to continue: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(line) != "yes" {
			fmt.Println("aborted")
			return nil
		}
	}
	if err := engine.Reset(ctx); err != nil {
		return err
	}
	fmt.Println("all data cleared")
	return nil
}
