package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/phishguard/internal/adapters/frontend"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/di"
	"github.com/mikey/phishguard/internal/ports"
	"go.uber.org/zap"
)

func main() {
	flags, err := di.ParseFlags(os.Args[0], os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run analyzes one email and returns an error if the analysis failed
func run(
	logger *zap.Logger,
	flags *di.CLIFlags,
	cli ports.Frontend,
	generator core.TextGenerator,
) error {
	defer logger.Sync()

	defer func() {
		if closer, ok := generator.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close narrative client", zap.Error(err))
			}
		}
	}()

	email, err := readEmail(logger, flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err = cli.ProcessEmail(ctx, email)
	return err
}

// readEmail builds the email from the --sender flags, or parses a message from
// --file or stdin
func readEmail(logger *zap.Logger, flags *di.CLIFlags) (*core.EmailData, error) {
	if flags.Sender != "" {
		return &core.EmailData{
			Sender:  flags.Sender,
			Subject: flags.Subject,
			Content: flags.Content,
		}, nil
	}

	var emailReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	return frontend.ParseMessage(bufio.NewReader(emailReader), "")
}
