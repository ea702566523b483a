package definitions

type ImageFormat string

const (
	FormatRaw     ImageFormat = "raw"
	FormatJPEG    ImageFormat = "jpeg"
	FormatUnknown ImageFormat = "unknown"
)

// ImagePayload is the decoded binary content of an image or screen response.
type ImagePayload struct {
	Bytes    []byte
	Format   ImageFormat
	Encoding string
	// Size is the byte count announced by the server, if any.
	Size *int64
	// Width and Height are set together, only when the server sent both.
	Width  *int
	Height *int
}

func (p *ImagePayload) HasResolution() bool {
	return p.Width != nil && p.Height != nil
}

// StatusInfo is the result of a checkstatus poll.
type StatusInfo struct {
	State     string
	Message   string
	Timestamp string
}

type ResultKind int

const (
	KindPayload ResultKind = iota
	KindStatus
)

func (k ResultKind) String() string {
	switch k {
	case KindPayload:
		return "payload"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Result is a successfully interpreted response. Exactly one of Payload
// and Status is set, according to Kind.
type Result struct {
	Kind     ResultKind
	Command  string
	Payload  *ImagePayload
	Status   *StatusInfo
	Response *ServerResponse
}
