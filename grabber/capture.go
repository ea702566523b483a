package grabber

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spance/openterface-grab/constants"
	"github.com/spance/openterface-grab/grabber/definitions"
	"github.com/spance/openterface-grab/grabber/helper"
	"github.com/spance/openterface-grab/utils"
)

var ErrScriptStillRunning = errors.New("screenshot: script still running after poll budget")

type CaptureOptions struct {
	Command string
	// Output is an explicit file path; when empty a name is generated
	// from NameTemplate inside OutputDir.
	Output       string
	OutputDir    string
	NameTemplate string
	Verbose      bool

	// Screenshot composite settings.
	Script       string
	PollInterval time.Duration
	PollMax      int

	Now func() time.Time
}

// Capture is the outcome of one successful capture.
type Capture struct {
	Result *definitions.Result
	// Path is empty for status results.
	Path string
}

type Capturer struct {
	Client  Requester
	Options CaptureOptions
}

func NewCapturer(client Requester, opts CaptureOptions) *Capturer {
	if opts.Command == "" {
		opts.Command = constants.DefaultCommand
	}
	if opts.NameTemplate == "" {
		opts.NameTemplate = constants.DefaultNameTemplate
	}
	if opts.Script == "" {
		opts.Script = constants.DefaultScript
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = constants.DefaultPollInterval
	}
	if opts.PollMax <= 0 {
		opts.PollMax = constants.DefaultPollMax
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Capturer{Client: client, Options: opts}
}

// CaptureOnce runs the configured command once and saves any payload.
func (r *Capturer) CaptureOnce(ctx context.Context) (*Capture, error) {
	command := r.Options.Command

	var (
		result *definitions.Result
		err    error
	)
	if command == constants.CmdScreenshot {
		result, err = r.Screenshot(ctx)
	} else {
		result, err = r.Client.Request(ctx, command)
	}
	if err != nil {
		return nil, err
	}

	if r.Options.Verbose {
		log.Info().Msgf("Response metadata: %s", helper.DescribeMetadata(result.Response))
	}

	if result.Kind == definitions.KindStatus {
		s := result.Status
		log.Info().Str("state", s.State).Str("message", s.Message).Str("time", s.Timestamp).Msg("Status")
		return &Capture{Result: result}, nil
	}

	payload := result.Payload
	if payload.HasResolution() {
		log.Info().Msgf("Resolution: %d × %d", *payload.Width, *payload.Height)
	}

	path, err := SavePayload(r.outputPath(payload), payload.Bytes)
	if err != nil {
		return nil, fmt.Errorf("save payload: %w", err)
	}
	log.Info().Msgf("Saved → %s  (%s bytes)", path, utils.Thousands(len(payload.Bytes)))
	return &Capture{Result: result, Path: path}, nil
}

func (r *Capturer) outputPath(payload *definitions.ImagePayload) string {
	if r.Options.Output != "" {
		return r.Options.Output
	}
	// the composite command ends with lastimage
	command := r.Options.Command
	if command == constants.CmdScreenshot {
		command = constants.CmdLastImage
	}
	ext := helper.ChooseExtension(payload.Format, command)
	name := AutoName(r.Options.NameTemplate, r.Options.Now(), ext, command)
	return filepath.Join(r.Options.OutputDir, name)
}

// Screenshot sends the capture script, polls checkstatus until the script
// leaves a busy state, then fetches the saved image with lastimage.
func (r *Capturer) Screenshot(ctx context.Context) (*definitions.Result, error) {
	if _, err := r.Client.Request(ctx, r.Options.Script); err != nil && !acceptableScriptReply(err) {
		return nil, fmt.Errorf("screenshot: run script: %w", err)
	}

	finished := false
	for i := 0; i < r.Options.PollMax; i++ {
		if err := sleepCtx(ctx, r.Options.PollInterval); err != nil {
			return nil, err
		}
		res, err := r.Client.Request(ctx, constants.CmdCheckStatus)
		if err != nil {
			return nil, fmt.Errorf("screenshot: poll status: %w", err)
		}
		state := "unknown"
		if res.Status != nil {
			state = res.Status.State
		}
		log.Debug().Int("poll", i+1).Str("state", state).Msg("script status")
		if !lo.Contains(constants.BusyStates, strings.ToLower(state)) {
			finished = true
			break
		}
	}
	if !finished {
		return nil, ErrScriptStillRunning
	}

	return r.Client.Request(ctx, constants.CmdLastImage)
}

// The script reply carries no image; only transport and server-reported
// failures matter.
func acceptableScriptReply(err error) bool {
	return errors.Is(err, helper.ErrMissingData) || errors.Is(err, helper.ErrMissingContent)
}

type LoopStats struct {
	Attempts  int
	Succeeded int
	Failed    int
}

// Loop captures every interval until count captures were attempted
// (count 0 means unlimited) or ctx is done. Failures are logged and the
// loop continues.
func (r *Capturer) Loop(ctx context.Context, interval time.Duration, count int) LoopStats {
	var stats LoopStats
	for {
		stats.Attempts++
		if _, err := r.CaptureOnce(ctx); err != nil {
			stats.Failed++
			if ctx.Err() != nil {
				return stats
			}
			log.Error().Err(err).Str("stage", helper.Stage(err)).Msg("capture failed")
		} else {
			stats.Succeeded++
		}

		if count > 0 && stats.Attempts >= count {
			return stats
		}
		if err := sleepCtx(ctx, interval); err != nil {
			return stats
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
