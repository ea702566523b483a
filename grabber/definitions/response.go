package definitions

// ResponseType is the "type" field of a server response. Values outside
// the known set are kept verbatim.
type ResponseType string

const (
	TypeImage   ResponseType = "image"
	TypeScreen  ResponseType = "screen"
	TypeStatus  ResponseType = "status"
	TypeError   ResponseType = "error"
	TypeUnknown ResponseType = "unknown"
)

type ResponseStatus string

const (
	StatusSuccess ResponseStatus = "success"
	StatusError   ResponseStatus = "error"
	StatusWarning ResponseStatus = "warning"
	StatusPending ResponseStatus = "pending"
)

// ServerResponse is one JSON document returned by the capture server.
type ServerResponse struct {
	Type      ResponseType   `json:"type"`
	Status    ResponseStatus `json:"status"`
	Timestamp string         `json:"timestamp,omitempty"`
	Data      *ResponseData  `json:"data,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// ResponseData holds either an image payload (content/format/...) or a
// script status (state/message), depending on the response type.
type ResponseData struct {
	Content  string `json:"content,omitempty"`
	Format   string `json:"format,omitempty"`
	Encoding string `json:"encoding,omitempty"`
	Size     *int64 `json:"size,omitempty"`
	Width    *int   `json:"width,omitempty"`
	Height   *int   `json:"height,omitempty"`

	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
}

// IsEmpty reports whether no field of d was set, which is how "data": {}
// decodes.
func (d *ResponseData) IsEmpty() bool {
	if d == nil {
		return true
	}
	return d.Content == "" && d.Format == "" && d.Encoding == "" &&
		d.Size == nil && d.Width == nil && d.Height == nil &&
		d.State == "" && d.Message == ""
}
