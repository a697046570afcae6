package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"github.com/koyif/atm/internal/dispatcher"
	"github.com/koyif/atm/pkg/logger"
	"io"
)

const (
	promptText        = "> "
	enterCommandText  = "Please enter a command."
	internalErrorText = "Unable to process your request at this time."

	maxLineLength = 4096
)

// RunTerminal reads one command per line from in until "end" or end of input.
func (a *App) RunTerminal(ctx context.Context, in io.Reader, out io.Writer) error {
	return runTerminal(ctx, a.Dispatcher, in, out)
}

type executor interface {
	Execute(ctx context.Context, line string) (string, error)
}

func runTerminal(ctx context.Context, d executor, in io.Reader, out io.Writer) error {
	if _, err := fmt.Fprint(out, dispatcher.WelcomeText+"\n"); err != nil {
		return fmt.Errorf("error writing to terminal: %w", err)
	}
	if _, err := fmt.Fprintln(out, enterCommandText); err != nil {
		return fmt.Errorf("error writing to terminal: %w", err)
	}

	reader := bufio.NewReader(in)
	for {
		if _, err := fmt.Fprint(out, promptText); err != nil {
			return fmt.Errorf("error writing to terminal: %w", err)
		}

		line, length, err := readLine(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("error reading from terminal: %w", err)
		}

		var text string
		if length > maxLineLength {
			logger.Log.Warn("line too long", logger.Int64("length", int64(length)))
			text = internalErrorText
		} else {
			text, err = d.Execute(ctx, line)
			if err != nil {
				if errors.Is(err, dispatcher.ErrEnd) {
					logger.Log.Info("end requested")
					return nil
				}
				logger.Log.Error("error while executing command", logger.Error(err))
				text = internalErrorText
			}
		}

		if text == "" {
			continue
		}
		if _, err := fmt.Fprintln(out, text); err != nil {
			return fmt.Errorf("error writing to terminal: %w", err)
		}
	}
}

// readLine returns the next line without its terminator and the line's full length.
// Past maxLineLength the rest of the line is consumed but not kept.
func readLine(r *bufio.Reader) (string, int, error) {
	var (
		buf    []byte
		length int
	)
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return "", 0, err
		}
		length += len(chunk)
		if length <= maxLineLength {
			buf = append(buf, chunk...)
		}
		if !isPrefix {
			return string(buf), length, nil
		}
	}
}
