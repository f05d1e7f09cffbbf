package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"lemiel/internal/apiclient"
	"lemiel/internal/config"
	"lemiel/internal/model"
	"lemiel/pkg/logger"
)

var errUsage = errors.New("usage")

// command - подкоманда plugctl
type command struct {
	usage string
	run   func(ctx context.Context, c *apiclient.Client, args []string, out io.Writer) (any, error)
}

var commands = map[string]command{
	"plugs": {"plugs [département]", func(ctx context.Context, c *apiclient.Client, args []string, _ io.Writer) (any, error) {
		if len(args) == 0 {
			return c.UniquePlugs(ctx)
		}
		return c.DepartmentPlugs(ctx, args[0])
	}},
	"plug": {"plug <id>", func(ctx context.Context, c *apiclient.Client, args []string, _ io.Writer) (any, error) {
		id, err := intArg(args)
		if err != nil {
			return nil, err
		}
		return c.Plug(ctx, id)
	}},
	"add-plug": {"add-plug -name N -depts 54,57 -desc D -telegram URL [-emoji E] [-image URL] [-rating R]", addPlug},
	"del-plug": {"del-plug <id>", func(ctx context.Context, c *apiclient.Client, args []string, _ io.Writer) (any, error) {
		id, err := intArg(args)
		if err != nil {
			return nil, err
		}
		return c.DeletePlug(ctx, id)
	}},
	"departments": {"departments", func(ctx context.Context, c *apiclient.Client, _ []string, _ io.Writer) (any, error) {
		return c.Departments(ctx)
	}},
	"add-dept": {"add-dept <code> <nom> [emoji]", func(ctx context.Context, c *apiclient.Client, args []string, _ io.Writer) (any, error) {
		if len(args) < 2 {
			return nil, errUsage
		}
		emoji := ""
		if len(args) > 2 {
			emoji = args[2]
		}
		return c.AddDepartment(ctx, args[0], args[1], emoji)
	}},
	"del-dept": {"del-dept <code>", func(ctx context.Context, c *apiclient.Client, args []string, _ io.Writer) (any, error) {
		if len(args) != 1 {
			return nil, errUsage
		}
		return c.DeleteDepartment(ctx, args[0])
	}},
	"admins": {"admins", func(ctx context.Context, c *apiclient.Client, _ []string, _ io.Writer) (any, error) {
		return c.Admins(ctx)
	}},
	"add-admin": {"add-admin <username>", func(ctx context.Context, c *apiclient.Client, args []string, _ io.Writer) (any, error) {
		if len(args) != 1 {
			return nil, errUsage
		}
		return c.AddAdmin(ctx, args[0])
	}},
	"del-admin": {"del-admin <username>", func(ctx context.Context, c *apiclient.Client, args []string, _ io.Writer) (any, error) {
		if len(args) != 1 {
			return nil, errUsage
		}
		return c.RemoveAdmin(ctx, args[0])
	}},
	"reviews": {"reviews", func(ctx context.Context, c *apiclient.Client, _ []string, _ io.Writer) (any, error) {
		return c.Reviews(ctx)
	}},
	"review": {"review <plugId> <1-5> <commentaire...>", func(ctx context.Context, c *apiclient.Client, args []string, _ io.Writer) (any, error) {
		if len(args) < 3 {
			return nil, errUsage
		}
		plugID, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, errUsage
		}
		rating, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, errUsage
		}
		return c.SubmitReview(ctx, model.ReviewInput{PlugID: plugID, Rating: rating, Comment: strings.Join(args[2:], " ")})
	}},
	"approve":    {"approve <id>", reviewAction((*apiclient.Client).ApproveReview)},
	"reject":     {"reject <id>", reviewAction((*apiclient.Client).RejectReview)},
	"del-review": {"del-review <id>", reviewAction((*apiclient.Client).DeleteReview)},
	"logs": {"logs [plug|department|review|admin]", func(ctx context.Context, c *apiclient.Client, args []string, _ io.Writer) (any, error) {
		category := ""
		if len(args) > 0 {
			category = args[0]
		}
		return c.Logs(ctx, category)
	}},
	"clear-logs": {"clear-logs", func(ctx context.Context, c *apiclient.Client, _ []string, _ io.Writer) (any, error) {
		return nil, c.ClearLogs(ctx)
	}},
	"export": {"export [-o fichier]", export},
}

// run разбирает флаги и выполняет подкоманду; возвращает код выхода
func run(ctx context.Context, cfg *config.ClientConfig, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("plugctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	baseURL := fs.String("url", cfg.APIURL, "адрес API (API_URL)")
	user := fs.String("user", cfg.Username, "имя администратора Telegram (PLUGCTL_USER)")
	timeout := fs.Duration("timeout", cfg.Timeout, "таймаут запроса (API_TIMEOUT)")
	verbose := fs.Bool("v", false, "подробный лог")
	fs.Usage = func() { printUsage(fs, stderr) }

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		printUsage(fs, stderr)
		return 2
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		printUsage(fs, stderr)
		return 2
	}

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	log := logger.NewConsole(level)
	defer func() { _ = log.Sync() }()

	client := apiclient.New(apiclient.Config{
		BaseURL:  *baseURL,
		Username: *user,
		Timeout:  *timeout,
		Retry: apiclient.RetryConfig{
			MaxRetries:        cfg.RetryConfig.MaxRetries,
			InitialDelay:      cfg.RetryConfig.InitialDelay,
			MaxDelay:          cfg.RetryConfig.MaxDelay,
			BackoffMultiplier: cfg.RetryConfig.BackoffMultiplier,
		},
	}, log)

	result, err := cmd.run(ctx, client, fs.Args()[1:], stdout)
	if errors.Is(err, errUsage) {
		fmt.Fprintf(stderr, "usage: plugctl %s\n", cmd.usage)
		return 2
	}
	if err != nil {
		log.Debug("Command failed", zap.String("command", name), zap.Error(err))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if result == nil {
		return 0
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "usage: plugctl [flags] <command> [args]")
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(w, "\nflags:")
	fs.PrintDefaults()
}

func intArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, errUsage
	}
	return id, nil
}

func reviewAction(action func(*apiclient.Client, context.Context, int64) (model.Review, error)) func(context.Context, *apiclient.Client, []string, io.Writer) (any, error) {
	return func(ctx context.Context, c *apiclient.Client, args []string, _ io.Writer) (any, error) {
		if len(args) != 1 {
			return nil, errUsage
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return nil, errUsage
		}
		return action(c, ctx, id)
	}
}

func addPlug(ctx context.Context, c *apiclient.Client, args []string, _ io.Writer) (any, error) {
	fs := flag.NewFlagSet("add-plug", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var input model.PlugInput
	fs.StringVar(&input.Name, "name", "", "")
	fs.StringVar(&input.Department, "depts", "", "")
	fs.StringVar(&input.Description, "desc", "", "")
	fs.StringVar(&input.Telegram, "telegram", "", "")
	fs.StringVar(&input.Emoji, "emoji", "", "")
	fs.StringVar(&input.Image, "image", "", "")
	fs.Float64Var(&input.Rating, "rating", 0, "")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	return c.AddPlug(ctx, input)
}

func export(ctx context.Context, c *apiclient.Client, args []string, out io.Writer) (any, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("o", "", "")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}

	data, err := c.Export(ctx)
	if err != nil {
		return nil, err
	}
	if *path == "" {
		_, err = out.Write(data)
		return nil, err
	}
	if err := os.WriteFile(*path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	return map[string]string{"written": *path}, nil
}
