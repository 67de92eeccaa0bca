// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/voicechat/internal/logger"
	"github.com/jeranaias/voicechat/internal/server"
)

// HandleMockBackend runs the local echo backend until interrupted.
func HandleMockBackend(args Args) error {
	if args.Err != nil {
		return usageError(args.Err)
	}

	level := "info"
	if args.Verbose {
		level = "debug"
	}
	logger.SetLevel(level)
	logger.SetOutput(os.Stderr)

	srv := server.New(server.Config{
		Addr:       args.Addr,
		APIKey:     args.APIKey,
		ReplyDelay: args.Delay,
		Logger:     logger.L,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mock backend: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
