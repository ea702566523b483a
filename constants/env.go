package constants

const (
	EnvHost      = "OPENTERFACE_HOST"
	EnvPort      = "OPENTERFACE_PORT"
	EnvTimeout   = "OPENTERFACE_TIMEOUT"
	EnvCommand   = "OPENTERFACE_CMD"
	EnvOutputDir = "OPENTERFACE_OUTPUT_DIR"
)
