package constants

import "time"

// Commands understood by the capture server.
const (
	CmdGetTargetScreen = "gettargetscreen"
	CmdLastImage       = "lastimage"
	CmdCheckStatus     = "checkstatus"

	// CmdScreenshot is client-side only: script capture, poll, then lastimage.
	CmdScreenshot = "screenshot"
)

// DefaultScript is the script line the server runs for a full screen capture.
const DefaultScript = "FullScreenCapture"

var Commands = []string{CmdGetTargetScreen, CmdLastImage, CmdCheckStatus}

// CLICommands also includes the composite screenshot command.
var CLICommands = append(append([]string{}, Commands...), CmdScreenshot)

const (
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 4896
	DefaultCommand      = CmdGetTargetScreen
	DefaultTimeout      = 10 * time.Second
	DefaultInterval     = time.Second
	DefaultPollInterval = 500 * time.Millisecond
	DefaultPollMax      = 20
	DefaultNameTemplate = "openterface_{{timestamp}}{{ext}}"
)

// States reported by checkstatus while a script is still executing.
var BusyStates = []string{"running", "pending", "busy"}
