package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"elasticsearch-demo-backend/config"
	"elasticsearch-demo-backend/internal/bootstrap"
	"elasticsearch-demo-backend/internal/demo"

	"go.uber.org/zap"
)

func main() {
	steps := flag.String("steps", "", "comma separated steps to run; all when empty")
	list := flag.Bool("list", false, "list the steps and exit")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "error loading .env file:", err)
		os.Exit(1)
	}
	config.InitLogger()
	defer config.Logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	engine, closeEngine, err := bootstrap.NewSearchEngine(ctx, config.Logger)
	if err != nil {
		config.Logger.Fatal("Cannot create search engine", zap.Error(err))
	}
	defer closeEngine()

	runner := demo.NewRunner(engine, os.Stdout, config.Logger)
	if *list {
		for _, s := range runner.Steps() {
			fmt.Println(s.Name)
		}
		return
	}

	var only []string
	for _, s := range strings.Split(*steps, ",") {
		if s = strings.TrimSpace(s); s != "" {
			only = append(only, s)
		}
	}
	if err := runner.Run(ctx, only...); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
