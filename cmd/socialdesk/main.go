package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/xlan/socialdesk/internal/app"
	"github.com/xlan/socialdesk/internal/infra/config"
	"github.com/xlan/socialdesk/internal/infra/logging"
	"github.com/xlan/socialdesk/internal/repo/account"
	"github.com/xlan/socialdesk/internal/repo/post"
	"github.com/xlan/socialdesk/internal/repo/store"
	"github.com/xlan/socialdesk/internal/svc/accountsvc"
	"github.com/xlan/socialdesk/internal/svc/exportsvc"
	"github.com/xlan/socialdesk/internal/svc/postsvc"
)

const appName = "socialdesk"

type Config struct {
	config.EnvConfig

	Log   logging.LoggerConfig `envPrefix:"LOG_"`
	Store store.Config         `envPrefix:"STORE_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(appName)
	)

	// A .env file next to the binary is optional.
	_ = godotenv.Load()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, appName)

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	defer func() {
		log := logging.GetLogger("cmd.socialdesk")

		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	st, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("new store: %w", err)
	}
	defer st.Close()

	accountSvc, err := accountsvc.NewAccountService(account.SQLiteAccountRepositoryFactory(st))
	if err != nil {
		return fmt.Errorf("new account service: %w", err)
	}

	postSvc, err := postsvc.NewPostService(post.SQLitePostRepositoryFactory(st))
	if err != nil {
		return fmt.Errorf("new post service: %w", err)
	}

	exportSvc, err := exportsvc.NewExportService(post.SQLitePostRepositoryFactory(st))
	if err != nil {
		return fmt.Errorf("new export service: %w", err)
	}

	dispatcher := app.NewDispatcher(accountSvc, postSvc, exportSvc)

	return repl(ctx, dispatcher)
}

// repl reads one operation per line from stdin:
//
//	<operation> key=value key=value ...
//
// and prints the dispatcher's result or the failure message. It is the whole
// presentation layer of the tool; everything with actual rules lives behind
// the dispatcher.
func repl(ctx context.Context, dispatcher *app.Dispatcher) error {
	fmt.Printf("%s — operations: %s\n", appName, strings.Join(dispatcher.Operations(), ", "))
	fmt.Println(`type "quit" to exit`)

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")

		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == "quit" || line == "exit" {
			break
		}

		op, args := parseLine(line)

		result, err := dispatcher.Dispatch(ctx, op, args)
		if err != nil {
			fmt.Printf("error: %v\n", err)

			continue
		}

		fmt.Println(result)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("read input: %w", err)
	}

	return nil
}

// parseLine splits "op key=value key=value" into the operation name and its
// arguments. Values may be quoted to carry spaces.
func parseLine(line string) (string, app.Args) {
	fields := splitFields(line)
	if len(fields) == 0 {
		return "", app.Args{}
	}

	args := make(app.Args, len(fields)-1)

	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}

		args[key] = strings.Trim(value, `"`)
	}

	return fields[0], args
}

// splitFields splits on spaces but keeps double-quoted spans together.
func splitFields(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == ' ' && !inQuotes:
			if current.Len() > 0 {
				fields = append(fields, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		fields = append(fields, current.String())
	}

	return fields
}
