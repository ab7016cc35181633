// SPDX-License-Identifier: MIT
package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// waitDelay bounds how long a cancelled command may keep its output open
// after being killed; grandchildren of a shell wrapper can hold stderr.
const waitDelay = 250 * time.Millisecond

// TextPlaceholder in a command argument is replaced by the text to speak.
// Without it, the text is appended as the last argument.
const TextPlaceholder = "{text}"

// CommandConfig describes an external speech program such as espeak or say.
type CommandConfig struct {
	Name   string        `yaml:"name"`
	Args   []string      `yaml:"args"`
	LeadIn time.Duration `yaml:"lead_in"` // delay between process start and audible speech.
}

// Command speaks through an external program. Started fires once the
// process is running (plus LeadIn); Ended fires when it exits cleanly.
type Command struct {
	config CommandConfig
	logger zerolog.Logger
}

// NewCommand returns a Command synthesizer.
func NewCommand(logger zerolog.Logger, config CommandConfig) *Command {
	return &Command{
		config: config,
		logger: logger.With().Str("provider", config.Name).Logger(),
	}
}

// IsAvailable reports whether the program is on PATH.
func (c *Command) IsAvailable() bool {
	_, err := exec.LookPath(c.config.Name)
	return err == nil
}

func (c *Command) args(text string) []string {
	args := make([]string, 0, len(c.config.Args)+1)
	replaced := false
	for _, a := range c.config.Args {
		if strings.Contains(a, TextPlaceholder) {
			a = strings.ReplaceAll(a, TextPlaceholder, text)
			replaced = true
		}
		args = append(args, a)
	}
	if !replaced {
		args = append(args, text)
	}
	return args
}

// Speak implements Synthesizer.
func (c *Command) Speak(ctx context.Context, text string, ev Events) error {
	if strings.TrimSpace(text) == "" {
		ev.Failed(ErrEmptyText)
		return ErrEmptyText
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.config.Name, c.args(text)...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	c.logger.Debug().Int("textLen", len(text)).Msg("Speaking with external command")

	if err := cmd.Start(); err != nil {
		err = fmt.Errorf("start %s: %w", c.config.Name, err)
		ev.Failed(err)
		return err
	}

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	if c.config.LeadIn > 0 {
		select {
		case <-time.After(c.config.LeadIn):
		case err := <-exited:
			// Finished before lead-in elapsed; still report a full lifecycle.
			return c.report(ctx, ev, true, err, &stderr)
		}
	}
	ev.Started()
	return c.report(ctx, ev, false, <-exited, &stderr)
}

func (c *Command) report(ctx context.Context, ev Events, needStart bool, err error, stderr *bytes.Buffer) error {
	if cerr := ctx.Err(); cerr != nil && err != nil {
		c.logger.Debug().Err(err).Msg("Speech command cancelled")
		err = fmt.Errorf("%s: %w", c.config.Name, cerr)
		ev.Failed(err)
		return err
	}
	if err != nil {
		err = fmt.Errorf("%s failed: %w", c.config.Name, err)
		c.logger.Error().Err(err).Str("output", strings.TrimSpace(stderr.String())).Msg("Speech command failed")
		ev.Failed(err)
		return err
	}
	if needStart {
		ev.Started()
	}
	ev.Ended()
	return nil
}
